// Package crop turns a rectangle selected on a displayed image into a
// natural-resolution JPEG of that region.
package crop

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/jo-hoe/leafcollector/internal/processing"
)

var (
	ErrEmptyRegion  = processing.ErrEmptyRegion
	ErrOutOfBounds  = processing.ErrRegionOutOfBounds
	ErrInvalidFrame = errors.New("displayed size must be positive")
)

// Size is a width/height pair in pixels
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is a crop rectangle in the displayed coordinate space of an image
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Selection is a crop rectangle together with the size the image was displayed at
type Selection struct {
	Rect      Rect `json:"rect"`
	Displayed Size `json:"displayed"`
}

// Options control the output of a transform
type Options struct {
	PixelRatio  float64
	JPEGQuality int
}

// DefaultOptions returns a pixel ratio of 1 and the default JPEG quality
func DefaultOptions() Options {
	return Options{PixelRatio: 1, JPEGQuality: processing.DefaultJPEGQuality}
}

// Validate checks the selection against its own displayed frame
func (s Selection) Validate() error {
	if !positive(s.Displayed.Width) || !positive(s.Displayed.Height) {
		return fmt.Errorf("%w: got %gx%g", ErrInvalidFrame, s.Displayed.Width, s.Displayed.Height)
	}
	r := s.Rect
	if !positive(r.Width) || !positive(r.Height) {
		return fmt.Errorf("%w: width=%g height=%g", ErrEmptyRegion, r.Width, r.Height)
	}
	if !finite(r.X) || !finite(r.Y) || r.X < 0 || r.Y < 0 || r.X+r.Width > s.Displayed.Width || r.Y+r.Height > s.Displayed.Height {
		return fmt.Errorf("%w: rect %+v outside %gx%g", ErrOutOfBounds, r, s.Displayed.Width, s.Displayed.Height)
	}
	return nil
}

// NaturalRegion maps the selection onto an image of naturalWidth x naturalHeight pixels.
// The returned region always has at least one pixel per side and lies inside the image.
func (s Selection) NaturalRegion(naturalWidth, naturalHeight int) (x, y, width, height int) {
	scaleX := float64(naturalWidth) / s.Displayed.Width
	scaleY := float64(naturalHeight) / s.Displayed.Height

	x0 := clamp(int(math.Floor(s.Rect.X*scaleX)), 0, naturalWidth-1)
	y0 := clamp(int(math.Floor(s.Rect.Y*scaleY)), 0, naturalHeight-1)
	x1 := clamp(int(math.Ceil((s.Rect.X+s.Rect.Width)*scaleX)), x0+1, naturalWidth)
	y1 := clamp(int(math.Ceil((s.Rect.Y+s.Rect.Height)*scaleY)), y0+1, naturalHeight)

	return x0, y0, x1 - x0, y1 - y0
}

// Transform crops source according to the selection and encodes the result as JPEG
func Transform(source []byte, selection Selection, opts Options) ([]byte, error) {
	if err := selection.Validate(); err != nil {
		return nil, err
	}
	if opts.PixelRatio == 0 {
		opts.PixelRatio = 1
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = processing.DefaultJPEGQuality
	}

	img, err := processing.DecodeImage(source)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	x, y, width, height := selection.NaturalRegion(bounds.Dx(), bounds.Dy())

	slog.Debug("crop transform",
		"natural_width", bounds.Dx(),
		"natural_height", bounds.Dy(),
		"displayed_width", selection.Displayed.Width,
		"displayed_height", selection.Displayed.Height,
		"region_x", x,
		"region_y", y,
		"region_width", width,
		"region_height", height,
		"pixel_ratio", opts.PixelRatio)

	result, err := processing.ExecuteCommands(source, []processing.CommandConfig{
		{Name: "RegionCropCommand", Params: map[string]any{"x": x, "y": y, "width": width, "height": height}},
		{Name: "DensityScaleCommand", Params: map[string]any{"pixelRatio": opts.PixelRatio}},
		{Name: "JpegEncodeCommand", Params: map[string]any{"quality": opts.JPEGQuality}},
	})
	if err != nil {
		return nil, fmt.Errorf("crop transform failed: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("crop transform produced no data")
	}
	return result, nil
}

// positive is false for NaN and infinities
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
