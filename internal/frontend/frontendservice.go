package frontend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jo-hoe/leafcollector/internal/capture"
	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/jo-hoe/leafcollector/internal/crop"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	appFragment  = "app"
	galleryPart  = "gallery"
	cameraPart   = "camera-preview"
)

type FrontendService struct {
	controller *core.Controller
	config     *core.ServiceConfig
}

type categoryForm struct {
	Category string `form:"category"`
}

type cropForm struct {
	X               float64 `form:"x" validate:"gte=0"`
	Y               float64 `form:"y" validate:"gte=0"`
	Width           float64 `form:"width" validate:"gt=0"`
	Height          float64 `form:"height" validate:"gt=0"`
	DisplayedWidth  float64 `form:"displayedWidth" validate:"gt=0"`
	DisplayedHeight float64 `form:"displayedHeight" validate:"gt=0"`
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		controller: coreService.Controller(),
		config:     config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = NewTemplate()

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)
	e.GET("/probe", service.probeHandler)

	// Pending upload
	e.POST("/htmx/file", service.htmxSelectFileHandler)
	e.POST("/htmx/category", service.htmxCategoryHandler)
	e.POST("/htmx/crop", service.htmxCropHandler)
	e.DELETE("/htmx/crop", service.htmxClearCropHandler)
	e.GET("/htmx/preview", service.htmxPreviewHandler)
	e.POST("/htmx/upload", service.htmxUploadHandler)
	e.POST("/htmx/cancel", service.htmxCancelHandler)

	// Camera
	e.POST("/htmx/camera/activate", service.htmxActivateCameraHandler)
	e.POST("/htmx/camera/switch", service.htmxSwitchCameraHandler)
	e.POST("/htmx/camera/capture", service.htmxCaptureHandler)
	e.POST("/htmx/camera/deactivate", service.htmxDeactivateCameraHandler)
	e.GET("/htmx/camera/frame", service.htmxCameraFrameHandler)
	e.GET("/htmx/camera/preview", service.htmxCameraPreviewHandler)

	// Gallery
	e.GET("/htmx/images", service.htmxListImagesHandler)
	e.POST("/htmx/images/next", service.htmxNextPageHandler)
	e.POST("/htmx/images/previous", service.htmxPreviousPageHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, service.controller.State())
}

func (service *FrontendService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "OK")
}

// renderApp answers htmx actions with the re-rendered form. Failures are part of the
// rendered status message, so the response stays 200 for htmx to swap it in.
func (service *FrontendService) renderApp(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, appFragment, service.controller.State())
}

func (service *FrontendService) renderGallery(ctx echo.Context) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, galleryPart, service.controller.State().Gallery)
}

func (service *FrontendService) htmxSelectFileHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Error("htmxSelectFileHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Failed to get uploaded file")
	}
	if service.config.MaxUploadBytes > 0 && file.Size > service.config.MaxUploadBytes {
		slog.Warn("htmxSelectFileHandler: file too large", "filename", file.Filename, "size_bytes", file.Size)
		return ctx.String(http.StatusRequestEntityTooLarge, core.MessageImageTooLarge)
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxSelectFileHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxSelectFileHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxSelectFileHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	if err := service.controller.SelectFile(file.Filename, data); err != nil {
		slog.Warn("htmxSelectFileHandler: file rejected", "filename", file.Filename, "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxCategoryHandler(ctx echo.Context) error {
	var form categoryForm
	if err := ctx.Bind(&form); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid category")
	}
	if err := service.controller.SetCategory(form.Category); err != nil {
		slog.Warn("htmxCategoryHandler: category rejected", "category", form.Category, "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxCropHandler(ctx echo.Context) error {
	var form cropForm
	if err := ctx.Bind(&form); err != nil {
		return ctx.String(http.StatusBadRequest, "Invalid crop rectangle")
	}
	if err := ctx.Validate(&form); err != nil {
		return err
	}

	err := service.controller.SetCrop(crop.Selection{
		Rect: crop.Rect{X: form.X, Y: form.Y, Width: form.Width, Height: form.Height},
		Displayed: crop.Size{
			Width:  form.DisplayedWidth,
			Height: form.DisplayedHeight,
		},
	})
	if errors.Is(err, core.ErrNoPendingImage) {
		return ctx.String(http.StatusConflict, "No image selected")
	}
	if err != nil {
		slog.Warn("htmxCropHandler: crop failed", "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxClearCropHandler(ctx echo.Context) error {
	service.controller.ClearCrop()
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxPreviewHandler(ctx echo.Context) error {
	data, contentType, ok := service.controller.PendingImage()
	if !ok {
		return ctx.String(http.StatusNotFound, "No image selected")
	}
	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (service *FrontendService) htmxUploadHandler(ctx echo.Context) error {
	err := service.controller.Submit(ctx.Request().Context())
	if errors.Is(err, core.ErrBusy) {
		return ctx.String(http.StatusConflict, "Upload already in progress")
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxCancelHandler(ctx echo.Context) error {
	service.controller.Cancel()
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxActivateCameraHandler(ctx echo.Context) error {
	if err := service.controller.ActivateCamera(ctx.Request().Context()); err != nil {
		slog.Warn("htmxActivateCameraHandler: camera not available", "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxSwitchCameraHandler(ctx echo.Context) error {
	if err := service.controller.SwitchCamera(ctx.Request().Context()); err != nil {
		slog.Warn("htmxSwitchCameraHandler: camera not available", "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxCaptureHandler(ctx echo.Context) error {
	if err := service.controller.CapturePhoto(ctx.Request().Context()); err != nil {
		slog.Error("htmxCaptureHandler: capture failed", "error", err)
	}
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxDeactivateCameraHandler(ctx echo.Context) error {
	service.controller.DeactivateCamera()
	return service.renderApp(ctx)
}

func (service *FrontendService) htmxCameraFrameHandler(ctx echo.Context) error {
	frame, err := service.controller.CameraPreview(ctx.Request().Context())
	if errors.Is(err, core.ErrCameraUnavailable) || errors.Is(err, capture.ErrNotActive) {
		return ctx.String(http.StatusNotFound, "Camera is not active")
	}
	if err != nil {
		slog.Error("htmxCameraFrameHandler: failed to read frame", "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to read camera frame")
	}
	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, "image/jpeg", frame)
}

// htmxCameraPreviewHandler swaps in a fresh preview image while the camera is active
func (service *FrontendService) htmxCameraPreviewHandler(ctx echo.Context) error {
	if !service.controller.State().Camera.Active {
		return ctx.NoContent(http.StatusNoContent)
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, cameraPart, time.Now().UnixNano())
}

func (service *FrontendService) htmxListImagesHandler(ctx echo.Context) error {
	// fetch failures are rendered as the gallery message
	_ = service.controller.RefreshGallery(ctx.Request().Context())
	return service.renderGallery(ctx)
}

func (service *FrontendService) htmxNextPageHandler(ctx echo.Context) error {
	_ = service.controller.NextPage(ctx.Request().Context())
	return service.renderGallery(ctx)
}

func (service *FrontendService) htmxPreviousPageHandler(ctx echo.Context) error {
	_ = service.controller.PreviousPage(ctx.Request().Context())
	return service.renderGallery(ctx)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
