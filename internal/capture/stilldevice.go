package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync/atomic"

	"github.com/jo-hoe/leafcollector/internal/processing"
)

// StillDevice serves a fixed image file per facing mode.
// Used on kiosks without a camera and as a deterministic device in tests.
type StillDevice struct {
	paths map[FacingMode]string
}

// NewStillDevice creates a device from facing mode to image file path
func NewStillDevice(paths map[FacingMode]string) *StillDevice {
	return &StillDevice{paths: paths}
}

// Open reads and decodes the image configured for facing
func (d *StillDevice) Open(_ context.Context, facing FacingMode) (Stream, error) {
	path, ok := d.paths[facing]
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCamera, facing)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}
	frame, err := processing.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoCamera, path, err)
	}
	return &stillStream{
		track: &stillTrack{id: string(facing) + ":" + path},
		frame: frame,
	}, nil
}

type stillStream struct {
	track *stillTrack
	frame image.Image
}

func (s *stillStream) Tracks() []Track {
	return []Track{s.track}
}

func (s *stillStream) ReadFrame(_ context.Context) (image.Image, error) {
	if !s.track.Live() {
		return nil, ErrTrackStopped
	}
	return s.frame, nil
}

type stillTrack struct {
	id      string
	stopped atomic.Bool
}

func (t *stillTrack) ID() string { return t.id }
func (t *stillTrack) Live() bool { return !t.stopped.Load() }
func (t *stillTrack) Stop()      { t.stopped.Store(true) }
