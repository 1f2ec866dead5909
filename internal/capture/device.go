package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
)

// FacingMode selects the front or rear camera
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoCamera         = errors.New("no camera matches the requested facing mode")
	ErrNotActive        = errors.New("camera is not active")
	ErrTrackStopped     = errors.New("track has been stopped")
)

// ParseFacingMode accepts "environment" or "user"
func ParseFacingMode(value string) (FacingMode, error) {
	switch FacingMode(value) {
	case FacingEnvironment, FacingUser:
		return FacingMode(value), nil
	default:
		return "", fmt.Errorf("unknown facing mode %q", value)
	}
}

// Toggle returns the opposite facing mode
func (f FacingMode) Toggle() FacingMode {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// Track is one media track of an open stream
type Track interface {
	ID() string
	Live() bool
	Stop()
}

// Stream is an open video stream of a device
type Stream interface {
	Tracks() []Track
	// ReadFrame returns the current frame at the device's native resolution
	ReadFrame(ctx context.Context) (image.Image, error)
}

// Device opens video streams for a facing mode
type Device interface {
	Open(ctx context.Context, facing FacingMode) (Stream, error)
}

// classifyOpenError maps filesystem errors of a device node onto the capture error taxonomy
func classifyOpenError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, path, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %v", ErrNoCamera, path, err)
	default:
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
}

func stopAll(stream Stream) {
	if stream == nil {
		return
	}
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
