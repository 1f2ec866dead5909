package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeDevice hands out streams whose tracks are recorded for inspection
type fakeDevice struct {
	openErr map[FacingMode]error
	partial bool
	opened  []*fakeStream
}

func (d *fakeDevice) Open(_ context.Context, facing FacingMode) (Stream, error) {
	stream := &fakeStream{
		facing: facing,
		tracks: []*stillTrack{{id: string(facing) + "-video"}},
		frame:  image.NewRGBA(image.Rect(0, 0, 64, 48)),
	}
	d.opened = append(d.opened, stream)
	if err := d.openErr[facing]; err != nil {
		if d.partial {
			return stream, err
		}
		stream.tracks[0].Stop()
		return nil, err
	}
	return stream, nil
}

type fakeStream struct {
	facing FacingMode
	tracks []*stillTrack
	frame  image.Image
}

func (s *fakeStream) Tracks() []Track {
	tracks := make([]Track, len(s.tracks))
	for i, track := range s.tracks {
		tracks[i] = track
	}
	return tracks
}

func (s *fakeStream) ReadFrame(context.Context) (image.Image, error) {
	return s.frame, nil
}

func (d *fakeDevice) liveTracks() int {
	live := 0
	for _, stream := range d.opened {
		for _, track := range stream.tracks {
			if track.Live() {
				live++
			}
		}
	}
	return live
}

func TestCamera_ActivateStopsPreviousStream(t *testing.T) {
	device := &fakeDevice{}
	camera := NewCamera(device)
	ctx := context.Background()

	if err := camera.Activate(ctx, FacingEnvironment); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := camera.Activate(ctx, FacingUser); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	if got := device.liveTracks(); got != 1 {
		t.Errorf("Expected exactly one live track across all streams, got %d", got)
	}
	if camera.FacingMode() != FacingUser {
		t.Errorf("Expected facing mode user, got %s", camera.FacingMode())
	}
}

func TestCamera_DeactivateLeavesNoTracks(t *testing.T) {
	device := &fakeDevice{}
	camera := NewCamera(device)

	if err := camera.Activate(context.Background(), FacingEnvironment); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	camera.Deactivate()
	camera.Deactivate()

	if camera.Active() {
		t.Error("Expected camera to be inactive")
	}
	if camera.ActiveTracks() != 0 || device.liveTracks() != 0 {
		t.Errorf("Expected zero live tracks, got %d/%d", camera.ActiveTracks(), device.liveTracks())
	}
}

func TestCamera_ActivationErrorLeavesNoTracks(t *testing.T) {
	tests := []struct {
		name    string
		partial bool
	}{
		{"device cleans up", false},
		{"device returns partial stream", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &fakeDevice{
				openErr: map[FacingMode]error{FacingUser: ErrPermissionDenied},
				partial: tt.partial,
			}
			camera := NewCamera(device)
			ctx := context.Background()

			if err := camera.Activate(ctx, FacingEnvironment); err != nil {
				t.Fatalf("Activate failed: %v", err)
			}
			err := camera.Activate(ctx, FacingUser)
			if !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("Expected ErrPermissionDenied, got %v", err)
			}
			camera.Deactivate()

			if camera.Active() {
				t.Error("Expected camera to be inactive after failed activation")
			}
			if device.liveTracks() != 0 {
				t.Errorf("Expected zero live tracks, got %d", device.liveTracks())
			}
		})
	}
}

func TestCamera_CaptureWithoutStreamIsNoop(t *testing.T) {
	camera := NewCamera(&fakeDevice{})
	photo, err := camera.Capture(context.Background())
	if err != nil || photo != nil {
		t.Fatalf("Expected nil photo and nil error, got %v, %v", photo, err)
	}
}

func TestCamera_CaptureEncodesNativeResolutionJPEG(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	camera := NewCamera(&fakeDevice{}, WithClock(func() time.Time { return fixed }), WithJPEGQuality(70))
	if err := camera.Activate(context.Background(), FacingEnvironment); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	photo, err := camera.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if photo.Filename != "photo-1700000000123.jpg" {
		t.Errorf("Unexpected filename %q", photo.Filename)
	}
	if photo.ContentType != "image/jpeg" {
		t.Errorf("Unexpected content type %q", photo.ContentType)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("Expected JPEG data: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("Expected 64x48, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCamera_SwitchFacingMode(t *testing.T) {
	device := &fakeDevice{}
	camera := NewCamera(device)
	ctx := context.Background()

	// inactive: only the preference flips
	mode, err := camera.SwitchFacingMode(ctx)
	if err != nil || mode != FacingUser {
		t.Fatalf("Expected user, nil; got %s, %v", mode, err)
	}
	if len(device.opened) != 0 {
		t.Fatal("Expected no stream to be opened while inactive")
	}

	if err := camera.Activate(ctx, FacingUser); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	mode, err = camera.SwitchFacingMode(ctx)
	if err != nil || mode != FacingEnvironment {
		t.Fatalf("Expected environment, nil; got %s, %v", mode, err)
	}
	if !camera.Active() || device.liveTracks() != 1 {
		t.Errorf("Expected one active stream after switching, got %d live tracks", device.liveTracks())
	}
}

func TestCamera_PreviewRequiresStream(t *testing.T) {
	camera := NewCamera(&fakeDevice{})
	if _, err := camera.Preview(context.Background()); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Expected ErrNotActive, got %v", err)
	}
}

func TestStillDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rear.png")
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	device := NewStillDevice(map[FacingMode]string{
		FacingEnvironment: path,
		FacingUser:        filepath.Join(dir, "missing.png"),
	})
	camera := NewCamera(device)
	ctx := context.Background()

	if err := camera.Activate(ctx, FacingUser); !errors.Is(err, ErrNoCamera) {
		t.Fatalf("Expected ErrNoCamera for missing file, got %v", err)
	}
	if err := camera.Activate(ctx, FacingEnvironment); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	photo, err := camera.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if photo.Width != 10 || photo.Height != 6 {
		t.Errorf("Expected 10x6, got %dx%d", photo.Width, photo.Height)
	}
	camera.Deactivate()
	if camera.ActiveTracks() != 0 {
		t.Error("Expected no active tracks")
	}
}

func TestV4L2Device_MissingNode(t *testing.T) {
	device := NewV4L2Device(map[FacingMode]string{
		FacingEnvironment: filepath.Join(t.TempDir(), "video0"),
	}, "")

	if _, err := device.Open(context.Background(), FacingEnvironment); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Expected ErrNoCamera for missing node, got %v", err)
	}
	if _, err := device.Open(context.Background(), FacingUser); !errors.Is(err, ErrNoCamera) {
		t.Errorf("Expected ErrNoCamera for unmapped facing mode, got %v", err)
	}
}

func TestParseFacingMode(t *testing.T) {
	if mode, err := ParseFacingMode("user"); err != nil || mode != FacingUser {
		t.Errorf("Expected user, got %s, %v", mode, err)
	}
	if _, err := ParseFacingMode("side"); err == nil {
		t.Error("Expected error for unknown facing mode")
	}
	if FacingEnvironment.Toggle() != FacingUser || FacingUser.Toggle() != FacingEnvironment {
		t.Error("Toggle should swap facing modes")
	}
}
