// Package api exposes the kiosk state as JSON for scripts and dashboards.
package api

import (
	"net/http"
	"time"

	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/jo-hoe/leafcollector/internal/gallery"
	"github.com/labstack/echo/v4"
)

type APIService struct {
	controller *core.Controller
	categories []string
}

type Image struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Category    string    `json:"category"`
	ContentType string    `json:"contentType"`
	SizeBytes   int       `json:"sizeBytes"`
	UploadDate  time.Time `json:"uploadDate,omitzero"`
	DataURI     string    `json:"dataUri,omitempty"`
}

type ImagesResponse struct {
	Images     []Image `json:"images"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
	Paginated  bool    `json:"paginated"`
}

type StateResponse struct {
	Category  string               `json:"category"`
	Pending   *core.PendingSummary `json:"pending,omitempty"`
	Message   string               `json:"message"`
	Uploading bool                 `json:"uploading"`
	CanSubmit bool                 `json:"canSubmit"`
	Camera    CameraResponse       `json:"camera"`
	Gallery   GalleryResponse      `json:"gallery"`
}

type CameraResponse struct {
	Available  bool   `json:"available"`
	Active     bool   `json:"active"`
	FacingMode string `json:"facingMode"`
}

type GalleryResponse struct {
	Status     gallery.Status `json:"status"`
	Message    string         `json:"message,omitempty"`
	Count      int            `json:"count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

type imagesQuery struct {
	Page        int  `query:"page" validate:"gte=0"`
	IncludeData bool `query:"includeData"`
	SkipRefresh bool `query:"cached"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		controller: coreService.Controller(),
		categories: coreService.Config().Categories,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/api/state", s.stateHandler)
	e.GET("/api/categories", s.categoriesHandler)
	e.GET("/api/images", s.imagesHandler)
}

func (s *APIService) stateHandler(c echo.Context) error {
	state := s.controller.State()
	return c.JSON(http.StatusOK, StateResponse{
		Category:  state.Category,
		Pending:   state.Pending,
		Message:   state.Message,
		Uploading: state.Uploading,
		CanSubmit: state.CanSubmit(),
		Camera: CameraResponse{
			Available:  state.Camera.Available,
			Active:     state.Camera.Active,
			FacingMode: string(state.Camera.FacingMode),
		},
		Gallery: GalleryResponse{
			Status:     state.Gallery.Status,
			Message:    state.Gallery.Message,
			Count:      len(state.Gallery.Images),
			Page:       state.Gallery.Pagination.Page,
			TotalPages: state.Gallery.Pagination.TotalPages,
		},
	})
}

func (s *APIService) categoriesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.categories)
}

// imagesHandler refreshes the gallery (moving to ?page= when given) and returns its records
func (s *APIService) imagesHandler(c echo.Context) error {
	var query imagesQuery
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	if !query.SkipRefresh {
		var err error
		if query.Page > 0 {
			err = s.controller.GoToPage(c.Request().Context(), query.Page)
		} else {
			err = s.controller.RefreshGallery(c.Request().Context())
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, s.controller.State().Gallery.Message)
		}
	}

	snapshot := s.controller.State().Gallery
	response := ImagesResponse{
		Images:     make([]Image, 0, len(snapshot.Images)),
		Page:       snapshot.Pagination.Page,
		TotalPages: snapshot.Pagination.TotalPages,
		Paginated:  snapshot.Paginated,
	}
	for _, record := range snapshot.Images {
		image := Image{
			ID:          record.ID,
			Filename:    record.Filename,
			Category:    record.Category,
			ContentType: record.ContentType,
			SizeBytes:   len(record.Content),
			UploadDate:  record.UploadDate,
		}
		if query.IncludeData {
			image.DataURI = record.DataURI
		}
		response.Images = append(response.Images, image)
	}
	return c.JSON(http.StatusOK, response)
}
