package processing

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when no quality is configured
const DefaultJPEGQuality = 92

// JpegEncodeParams represents typed parameters for the JPEG encode command
type JpegEncodeParams struct {
	Quality int
}

// NewJpegEncodeParamsFromMap creates JpegEncodeParams from a generic map
func NewJpegEncodeParamsFromMap(params map[string]any) (*JpegEncodeParams, error) {
	quality := GetIntParam(params, "quality", DefaultJPEGQuality)
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return &JpegEncodeParams{Quality: quality}, nil
}

// JpegEncodeCommand re-encodes any decodable image as a compressed JPEG
type JpegEncodeCommand struct {
	name   string
	params *JpegEncodeParams
}

// NewJpegEncodeCommand creates a new JPEG encode command from configuration parameters
func NewJpegEncodeCommand(params map[string]any) (Command, error) {
	typedParams, err := NewJpegEncodeParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &JpegEncodeCommand{
		name:   "JpegEncodeCommand",
		params: typedParams,
	}, nil
}

// Name returns the command name
func (c *JpegEncodeCommand) Name() string {
	return c.name
}

// Execute encodes the image as JPEG
func (c *JpegEncodeCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := DecodeImage(imageData)
	if err != nil {
		slog.Error("JpegEncodeCommand: failed to decode image", "error", err)
		return nil, err
	}

	encoded, err := EncodeJPEG(img, c.params.Quality)
	if err != nil {
		return nil, err
	}

	slog.Debug("JpegEncodeCommand: encoded",
		"quality", c.params.Quality,
		"output_size_bytes", len(encoded))

	return encoded, nil
}

// EncodeJPEG encodes img as JPEG with the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
	}
	return buf.Bytes(), nil
}

// GetParams returns the typed parameters
func (c *JpegEncodeCommand) GetParams() *JpegEncodeParams {
	return c.params
}

func init() {
	if err := DefaultRegistry.Register("JpegEncodeCommand", NewJpegEncodeCommand); err != nil {
		panic(fmt.Sprintf("failed to register JpegEncodeCommand: %v", err))
	}
}
