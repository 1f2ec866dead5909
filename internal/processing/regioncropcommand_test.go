package processing

import (
	"bytes"
	"errors"
	"image"
	"testing"
)

func TestNewRegionCropCommand_InvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr error
	}{
		{"zero width", map[string]any{"x": 0, "y": 0, "width": 0, "height": 5}, ErrEmptyRegion},
		{"negative height", map[string]any{"x": 0, "y": 0, "width": 5, "height": -1}, ErrEmptyRegion},
		{"negative origin", map[string]any{"x": -1, "y": 0, "width": 5, "height": 5}, ErrRegionOutOfBounds},
		{"missing param", map[string]any{"x": 0, "y": 0, "width": 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegionCropCommand(tt.params)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegionCropCommand_Execute(t *testing.T) {
	source := newTestPNG(t, 40, 20)
	command, err := NewRegionCropCommand(map[string]any{"x": 20, "y": 5, "width": 10, "height": 10})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	result, err := command.Execute(source)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("Expected 10x10, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	// region lies in the blue half of the source
	r, g, b, _ := img.At(5, 5).RGBA()
	if r != 0 || g != 0 || b == 0 {
		t.Errorf("Expected blue pixel, got r=%d g=%d b=%d", r, g, b)
	}
}

func TestRegionCropCommand_OutOfBounds(t *testing.T) {
	source := newTestPNG(t, 40, 20)
	command, err := NewRegionCropCommand(map[string]any{"x": 35, "y": 0, "width": 10, "height": 10})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	result, err := command.Execute(source)
	if !errors.Is(err, ErrRegionOutOfBounds) {
		t.Fatalf("Expected ErrRegionOutOfBounds, got %v", err)
	}
	if result != nil {
		t.Error("Expected no output for out of bounds region")
	}
}

func TestRegionCropCommand_InvalidImage(t *testing.T) {
	command, _ := NewRegionCropCommand(map[string]any{"x": 0, "y": 0, "width": 1, "height": 1})
	if _, err := command.Execute([]byte("not an image")); err == nil {
		t.Error("Expected error for invalid image data, got nil")
	}
}
