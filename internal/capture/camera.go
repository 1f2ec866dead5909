package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jo-hoe/leafcollector/internal/processing"
)

const photoContentType = "image/jpeg"

// Photo is a captured still frame
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Camera owns at most one open stream of a device
type Camera struct {
	mu          sync.Mutex
	device      Device
	stream      Stream
	facing      FacingMode
	jpegQuality int
	now         func() time.Time
}

// Option configures a Camera
type Option func(*Camera)

// WithJPEGQuality sets the quality used for captured photos
func WithJPEGQuality(quality int) Option {
	return func(c *Camera) {
		if quality > 0 && quality <= 100 {
			c.jpegQuality = quality
		}
	}
}

// WithClock overrides the clock used for photo filenames
func WithClock(now func() time.Time) Option {
	return func(c *Camera) {
		c.now = now
	}
}

// WithFacingMode sets the facing mode used by the first activation
func WithFacingMode(facing FacingMode) Option {
	return func(c *Camera) {
		c.facing = facing
	}
}

// NewCamera creates an inactive camera facing the environment
func NewCamera(device Device, opts ...Option) *Camera {
	c := &Camera{
		device:      device,
		facing:      FacingEnvironment,
		jpegQuality: processing.DefaultJPEGQuality,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate opens a stream for the facing mode, stopping any previous stream first
func (c *Camera) Activate(ctx context.Context, facing FacingMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked(ctx, facing)
}

func (c *Camera) activateLocked(ctx context.Context, facing FacingMode) error {
	c.stopLocked()
	c.facing = facing

	stream, err := c.device.Open(ctx, facing)
	if err != nil {
		stopAll(stream)
		slog.Error("camera activation failed", "facing_mode", facing, "error", err)
		return err
	}

	c.stream = stream
	slog.Info("camera activated", "facing_mode", facing, "tracks", len(stream.Tracks()))
	return nil
}

// SwitchFacingMode toggles the facing mode and reopens the stream if one was active
func (c *Camera) SwitchFacingMode(ctx context.Context) (FacingMode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.facing.Toggle()
	if c.stream == nil {
		c.facing = next
		return next, nil
	}
	return next, c.activateLocked(ctx, next)
}

// Capture snapshots the current frame as JPEG. Without an active stream it returns nil, nil.
func (c *Camera) Capture(ctx context.Context) (*Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil, nil
	}

	frame, err := c.stream.ReadFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	data, err := processing.EncodeJPEG(frame, c.jpegQuality)
	if err != nil {
		return nil, err
	}

	bounds := frame.Bounds()
	photo := &Photo{
		Filename:    fmt.Sprintf("photo-%d.jpg", c.now().UnixMilli()),
		ContentType: photoContentType,
		Data:        data,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}
	slog.Info("photo captured",
		"filename", photo.Filename,
		"width", photo.Width,
		"height", photo.Height,
		"size_bytes", len(data))
	return photo, nil
}

// Preview returns the current frame as JPEG without changing camera state
func (c *Camera) Preview(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil, ErrNotActive
	}
	frame, err := c.stream.ReadFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return processing.EncodeJPEG(frame, c.jpegQuality)
}

// Deactivate stops every track and forgets the stream
func (c *Camera) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Camera) stopLocked() {
	if c.stream == nil {
		return
	}
	stopAll(c.stream)
	c.stream = nil
	slog.Info("camera deactivated", "facing_mode", c.facing)
}

// Active reports whether a stream is open
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// FacingMode returns the current facing preference
func (c *Camera) FacingMode() FacingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// ActiveTracks counts live tracks of the current stream
func (c *Camera) ActiveTracks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return 0
	}
	live := 0
	for _, track := range c.stream.Tracks() {
		if track.Live() {
			live++
		}
	}
	return live
}
