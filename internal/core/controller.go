package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jo-hoe/leafcollector/internal/capture"
	"github.com/jo-hoe/leafcollector/internal/crop"
	"github.com/jo-hoe/leafcollector/internal/gallery"
	"github.com/jo-hoe/leafcollector/internal/storage"
)

// Status messages shown to the user
const (
	MessageSelectImageAndCategory = "Please select an image and a category"
	MessageUploadSucceeded        = "Image uploaded successfully!"
	MessageUploadFailed           = "Failed to upload image"
	MessageCameraFailed           = "Failed to access camera"
	MessageCameraUnavailable      = "No camera is configured"
	MessageUnsupportedImage       = "Only JPEG and PNG images are supported"
	MessageImageTooLarge          = "The selected image is too large"
	MessageUnknownCategory        = "Please select a valid category"
	MessageCropFailed             = "Failed to crop image"
)

var (
	ErrValidation        = errors.New("an image and a category are required")
	ErrBusy              = errors.New("an upload is already in progress")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrImageTooLarge     = errors.New("image exceeds the upload size limit")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrNoPendingImage    = errors.New("no image selected")
	ErrCameraUnavailable = errors.New("camera unavailable")
)

var acceptedImageTypes = []string{"image/jpeg", "image/png"}

// Uploader is the upload side of the storage client
type Uploader interface {
	Upload(ctx context.Context, req storage.UploadRequest) (*storage.UploadResult, error)
}

// CameraState describes the capture adapter for rendering
type CameraState struct {
	Available  bool
	Active     bool
	FacingMode capture.FacingMode
}

// State is a snapshot of everything the view renders
type State struct {
	Categories []string
	Category   string
	Pending    *PendingSummary
	Message    string
	Uploading  bool
	Camera     CameraState
	Gallery    gallery.Snapshot
}

// CanSubmit mirrors the disabled state of the submit button
func (s State) CanSubmit() bool {
	return s.Pending != nil && s.Category != "" && !s.Uploading && s.Gallery.Status != gallery.StatusLoading
}

// ControllerOptions tune the controller
type ControllerOptions struct {
	Categories     []string
	MaxUploadBytes int64
	Crop           crop.Options
}

// Controller owns the UI state of one kiosk session and orchestrates
// capture, crop, upload and gallery refresh.
type Controller struct {
	uploader Uploader
	gallery  *gallery.Gallery
	camera   *capture.Camera
	options  ControllerOptions

	cropMu sync.Mutex

	mu           sync.Mutex
	pending      PendingUpload
	message      string
	fetchMessage bool
	uploading    bool
}

// NewController wires the components; camera may be nil when no device is configured
func NewController(uploader Uploader, g *gallery.Gallery, camera *capture.Camera, options ControllerOptions) *Controller {
	if len(options.Categories) == 0 {
		options.Categories = append([]string(nil), DefaultCategories...)
	}
	if options.Crop.PixelRatio == 0 {
		options.Crop = crop.DefaultOptions()
	}
	return &Controller{
		uploader: uploader,
		gallery:  g,
		camera:   camera,
		options:  options,
	}
}

// State returns a snapshot for rendering
func (c *Controller) State() State {
	c.mu.Lock()
	state := State{
		Categories: append([]string(nil), c.options.Categories...),
		Category:   c.pending.Category,
		Pending:    c.pending.summary(),
		Message:    c.message,
		Uploading:  c.uploading,
	}
	c.mu.Unlock()

	if c.camera != nil {
		state.Camera = CameraState{
			Available:  true,
			Active:     c.camera.Active(),
			FacingMode: c.camera.FacingMode(),
		}
	}
	state.Gallery = c.gallery.Snapshot()
	return state
}

// PendingImage returns the bytes that would be submitted
func (c *Controller) PendingImage() ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending.HasImage() {
		return nil, "", false
	}
	return c.pending.Data, c.pending.ContentType, true
}

func (c *Controller) setMessage(message string) {
	c.message = message
	c.fetchMessage = false
}

// SelectFile makes an uploaded file the pending image
func (c *Controller) SelectFile(filename string, data []byte) error {
	if len(data) == 0 {
		return ErrNoPendingImage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.options.MaxUploadBytes > 0 && int64(len(data)) > c.options.MaxUploadBytes {
		c.setMessage(MessageImageTooLarge)
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(data))
	}

	detected := mimetype.Detect(data)
	if !detected.Is(acceptedImageTypes[0]) && !detected.Is(acceptedImageTypes[1]) {
		c.setMessage(MessageUnsupportedImage)
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
	}

	c.setPendingLocked(SourceFile, filename, detected.String(), data)
	slog.Info("image selected", "filename", filename, "content_type", detected.String(), "size_bytes", len(data))
	return nil
}

func (c *Controller) setPendingLocked(source, filename, contentType string, data []byte) {
	c.pending = PendingUpload{
		ID:          uuid.NewString(),
		Source:      source,
		Filename:    filename,
		ContentType: contentType,
		Original:    data,
		Data:        data,
		Category:    c.pending.Category,
	}
	c.setMessage("")
}

// SetCategory chooses the label; an empty value clears it
func (c *Controller) SetCategory(category string) error {
	category = strings.TrimSpace(category)

	c.mu.Lock()
	defer c.mu.Unlock()

	if category != "" && !slices.Contains(c.options.Categories, category) {
		c.setMessage(MessageUnknownCategory)
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	c.pending.Category = category
	return nil
}

// SetCrop crops the pending image to the selection. Crops always start from the
// originally selected image, so a new selection replaces the previous one.
func (c *Controller) SetCrop(selection crop.Selection) error {
	c.cropMu.Lock()
	defer c.cropMu.Unlock()

	c.mu.Lock()
	if !c.pending.HasImage() {
		c.mu.Unlock()
		return ErrNoPendingImage
	}
	id := c.pending.ID
	source := c.pending.Original
	c.mu.Unlock()

	cropped, err := crop.Transform(source, selection, c.options.Crop)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setMessage(fmt.Sprintf("%s: %v", MessageCropFailed, err))
		return err
	}
	if c.pending.ID != id {
		// the image was replaced while cropping
		return ErrNoPendingImage
	}
	sel := selection
	c.pending.Crop = &sel
	c.pending.Data = cropped
	c.pending.ContentType = "image/jpeg"
	c.setMessage("")
	slog.Info("pending image cropped", "id", id, "size_bytes", len(cropped))
	return nil
}

// ClearCrop restores the originally selected image
func (c *Controller) ClearCrop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending.HasImage() || c.pending.Crop == nil {
		return
	}
	c.pending.Data = c.pending.Original
	c.pending.ContentType = mimetype.Detect(c.pending.Original).String()
	c.pending.Crop = nil
}

// ActivateCamera opens the camera with the current facing mode
func (c *Controller) ActivateCamera(ctx context.Context) error {
	if c.camera == nil {
		c.withLock(func() { c.setMessage(MessageCameraUnavailable) })
		return ErrCameraUnavailable
	}
	if err := c.camera.Activate(ctx, c.camera.FacingMode()); err != nil {
		c.camera.Deactivate()
		c.withLock(func() { c.setMessage(MessageCameraFailed) })
		return err
	}
	return nil
}

// SwitchCamera toggles front and rear camera
func (c *Controller) SwitchCamera(ctx context.Context) error {
	if c.camera == nil {
		c.withLock(func() { c.setMessage(MessageCameraUnavailable) })
		return ErrCameraUnavailable
	}
	if _, err := c.camera.SwitchFacingMode(ctx); err != nil {
		c.camera.Deactivate()
		c.withLock(func() { c.setMessage(MessageCameraFailed) })
		return err
	}
	return nil
}

// CapturePhoto turns the current frame into the pending image and closes the camera.
// Without an active camera it does nothing.
func (c *Controller) CapturePhoto(ctx context.Context) error {
	if c.camera == nil {
		return nil
	}
	photo, err := c.camera.Capture(ctx)
	if err != nil {
		c.camera.Deactivate()
		c.withLock(func() { c.setMessage(MessageCameraFailed) })
		return err
	}
	if photo == nil {
		return nil
	}
	c.camera.Deactivate()

	c.withLock(func() {
		c.setPendingLocked(SourceCamera, photo.Filename, photo.ContentType, photo.Data)
	})
	return nil
}

// CameraPreview returns the live frame as JPEG
func (c *Controller) CameraPreview(ctx context.Context) ([]byte, error) {
	if c.camera == nil {
		return nil, ErrCameraUnavailable
	}
	return c.camera.Preview(ctx)
}

// DeactivateCamera releases the camera
func (c *Controller) DeactivateCamera() {
	if c.camera != nil {
		c.camera.Deactivate()
	}
}

// Cancel discards the pending upload and releases the camera
func (c *Controller) Cancel() {
	c.DeactivateCamera()
	c.withLock(func() {
		c.pending = PendingUpload{}
		c.setMessage("")
	})
}

// Submit uploads the pending image with its category and refreshes the gallery on success
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if !c.pending.HasImage() || c.pending.Category == "" {
		c.setMessage(MessageSelectImageAndCategory)
		c.mu.Unlock()
		return ErrValidation
	}
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.uploading = true
	c.setMessage("")
	pending := c.pending
	c.mu.Unlock()

	result, err := c.uploader.Upload(ctx, storage.UploadRequest{
		Filename:    pending.Filename,
		ContentType: pending.ContentType,
		Data:        pending.Data,
		Category:    pending.Category,
	})

	c.mu.Lock()
	c.uploading = false
	if err != nil {
		c.setMessage(uploadFailureMessage(err))
		c.mu.Unlock()
		slog.Error("upload failed", "id", pending.ID, "filename", pending.Filename, "error", err)
		return err
	}

	message := MessageUploadSucceeded
	if result != nil && result.Message != "" {
		message = result.Message
	}
	c.setMessage(message)
	if c.pending.ID == pending.ID {
		c.pending = PendingUpload{}
	}
	c.mu.Unlock()

	slog.Info("upload succeeded", "id", pending.ID, "category", pending.Category)

	// a failed refresh only shows up as the gallery message; the status keeps the upload outcome
	if err := c.gallery.Refresh(ctx); err != nil {
		slog.Warn("gallery refresh after upload failed", "id", pending.ID, "error", err)
	}
	return nil
}

func uploadFailureMessage(err error) string {
	var apiErr *storage.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MessageUploadFailed
	}
	return fmt.Sprintf("Upload failed: %v", err)
}

// RefreshGallery reloads the current gallery page
func (c *Controller) RefreshGallery(ctx context.Context) error {
	return c.afterFetch(c.gallery.Refresh(ctx))
}

// GoToPage loads a specific gallery page
func (c *Controller) GoToPage(ctx context.Context, page int) error {
	return c.afterFetch(c.gallery.GoTo(ctx, page))
}

// NextPage moves the gallery forward
func (c *Controller) NextPage(ctx context.Context) error {
	return c.afterFetch(c.gallery.Next(ctx))
}

// PreviousPage moves the gallery back
func (c *Controller) PreviousPage(ctx context.Context) error {
	return c.afterFetch(c.gallery.Previous(ctx))
}

// afterFetch mirrors gallery errors into the status message and removes them once a fetch succeeds
func (c *Controller) afterFetch(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.message = c.gallery.Snapshot().Message
		c.fetchMessage = true
		return err
	}
	if c.fetchMessage {
		c.setMessage("")
	}
	return nil
}

func (c *Controller) withLock(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}
