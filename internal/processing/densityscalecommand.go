package processing

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

const maxPixelRatio = 8.0

// DensityScaleParams represents typed parameters for the density scale command
type DensityScaleParams struct {
	PixelRatio float64
}

// NewDensityScaleParamsFromMap creates DensityScaleParams from a generic map
func NewDensityScaleParamsFromMap(params map[string]any) (*DensityScaleParams, error) {
	ratio := GetFloatParam(params, "pixelRatio", 1)
	if ratio <= 0 || ratio > maxPixelRatio {
		return nil, fmt.Errorf("pixelRatio must be in (0, %g], got %g", maxPixelRatio, ratio)
	}
	return &DensityScaleParams{PixelRatio: ratio}, nil
}

// DensityScaleCommand resizes an image by the device pixel ratio
type DensityScaleCommand struct {
	name   string
	params *DensityScaleParams
}

// NewDensityScaleCommand creates a new density scale command from configuration parameters
func NewDensityScaleCommand(params map[string]any) (Command, error) {
	typedParams, err := NewDensityScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &DensityScaleCommand{
		name:   "DensityScaleCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *DensityScaleCommand) Name() string {
	return c.name
}

// Execute scales the image; a ratio of 1 returns the input untouched
func (c *DensityScaleCommand) Execute(imageData []byte) ([]byte, error) {
	if c.params.PixelRatio == 1 {
		return imageData, nil
	}

	img, err := DecodeImage(imageData)
	if err != nil {
		slog.Error("DensityScaleCommand: failed to decode image", "error", err)
		return nil, err
	}

	bounds := img.Bounds()
	width := scaleDimension(bounds.Dx(), c.params.PixelRatio)
	height := scaleDimension(bounds.Dy(), c.params.PixelRatio)

	slog.Debug("DensityScaleCommand: scaling",
		"pixel_ratio", c.params.PixelRatio,
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", width,
		"target_height", height)

	return encodePNG(imaging.Resize(img, width, height, imaging.Lanczos))
}

// GetParams returns the typed parameters
func (c *DensityScaleCommand) GetParams() *DensityScaleParams {
	return c.params
}

func scaleDimension(value int, ratio float64) int {
	scaled := int(math.Round(float64(value) * ratio))
	if scaled < 1 {
		return 1
	}
	return scaled
}

func init() {
	if err := DefaultRegistry.Register("DensityScaleCommand", NewDensityScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register DensityScaleCommand: %v", err))
	}
}
