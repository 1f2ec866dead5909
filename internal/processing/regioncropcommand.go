package processing

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

var (
	// ErrEmptyRegion is returned for a crop region with zero or negative area
	ErrEmptyRegion = errors.New("crop region has no area")
	// ErrRegionOutOfBounds is returned for a crop region not fully inside the image
	ErrRegionOutOfBounds = errors.New("crop region is out of bounds")
)

// RegionCropParams represents typed parameters for the region crop command.
// Coordinates are natural image pixels.
type RegionCropParams struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewRegionCropParamsFromMap creates RegionCropParams from a generic map
func NewRegionCropParamsFromMap(params map[string]any) (*RegionCropParams, error) {
	if err := ValidateRequiredParams(params, []string{"x", "y", "width", "height"}); err != nil {
		return nil, err
	}

	typed := &RegionCropParams{
		X:      GetIntParam(params, "x", 0),
		Y:      GetIntParam(params, "y", 0),
		Width:  GetIntParam(params, "width", 0),
		Height: GetIntParam(params, "height", 0),
	}
	if typed.Width <= 0 || typed.Height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrEmptyRegion, typed.Width, typed.Height)
	}
	if typed.X < 0 || typed.Y < 0 {
		return nil, fmt.Errorf("%w: origin (%d,%d) is negative", ErrRegionOutOfBounds, typed.X, typed.Y)
	}
	return typed, nil
}

// Rectangle returns the region as an image rectangle
func (p *RegionCropParams) Rectangle() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// RegionCropCommand cuts a rectangular region out of the image and returns it as PNG
type RegionCropCommand struct {
	name   string
	params *RegionCropParams
}

// NewRegionCropCommand creates a new region crop command from configuration parameters
func NewRegionCropCommand(params map[string]any) (Command, error) {
	typedParams, err := NewRegionCropParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &RegionCropCommand{
		name:   "RegionCropCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *RegionCropCommand) Name() string {
	return c.name
}

// Execute crops the configured region out of the image
func (c *RegionCropCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := DecodeImage(imageData)
	if err != nil {
		slog.Error("RegionCropCommand: failed to decode image", "error", err)
		return nil, err
	}

	bounds := img.Bounds()
	region := c.params.Rectangle().Add(bounds.Min)
	if !region.In(bounds) {
		return nil, fmt.Errorf("%w: region %v exceeds image %dx%d",
			ErrRegionOutOfBounds, c.params.Rectangle(), bounds.Dx(), bounds.Dy())
	}

	slog.Debug("RegionCropCommand: cropping",
		"image_width", bounds.Dx(),
		"image_height", bounds.Dy(),
		"crop_x", c.params.X,
		"crop_y", c.params.Y,
		"crop_width", c.params.Width,
		"crop_height", c.params.Height)

	cropped := imaging.Crop(img, region)
	return encodePNG(cropped)
}

// GetParams returns the typed parameters
func (c *RegionCropCommand) GetParams() *RegionCropParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("RegionCropCommand", NewRegionCropCommand); err != nil {
		panic(fmt.Sprintf("failed to register RegionCropCommand: %v", err))
	}
}
