package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/jo-hoe/leafcollector/internal/processing"
)

const defaultFFmpegPath = "ffmpeg"

// V4L2Device grabs frames from Video4Linux device nodes through ffmpeg.
// The device node stays open for the lifetime of the track.
type V4L2Device struct {
	nodes      map[FacingMode]string
	ffmpegPath string
}

// NewV4L2Device maps facing modes to device nodes such as /dev/video0
func NewV4L2Device(nodes map[FacingMode]string, ffmpegPath string) *V4L2Device {
	if ffmpegPath == "" {
		ffmpegPath = defaultFFmpegPath
	}
	return &V4L2Device{nodes: nodes, ffmpegPath: ffmpegPath}
}

// Open claims the device node for facing
func (d *V4L2Device) Open(_ context.Context, facing FacingMode) (Stream, error) {
	node, ok := d.nodes[facing]
	if !ok || node == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCamera, facing)
	}
	file, err := os.OpenFile(node, os.O_RDONLY, 0)
	if err != nil {
		return nil, classifyOpenError(node, err)
	}
	return &v4l2Stream{
		track:      &v4l2Track{node: node, file: file},
		ffmpegPath: d.ffmpegPath,
	}, nil
}

type v4l2Stream struct {
	track      *v4l2Track
	ffmpegPath string
}

func (s *v4l2Stream) Tracks() []Track {
	return []Track{s.track}
}

func (s *v4l2Stream) ReadFrame(ctx context.Context) (image.Image, error) {
	if !s.track.Live() {
		return nil, ErrTrackStopped
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", s.track.node,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab from %s failed: %w: %s", s.track.node, err, stderr.String())
	}
	return processing.DecodeImage(stdout.Bytes())
}

type v4l2Track struct {
	node string

	mu   sync.Mutex
	file *os.File
}

func (t *v4l2Track) ID() string { return t.node }

func (t *v4l2Track) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file != nil
}

func (t *v4l2Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}
	if err := t.file.Close(); err != nil {
		slog.Warn("failed to close video device", "node", t.node, "error", err)
	}
	t.file = nil
}
