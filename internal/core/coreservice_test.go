package core

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jo-hoe/leafcollector/internal/capture"
)

func TestNewCoreService_MemoryCacheAndStillCamera(t *testing.T) {
	fake := &fakeStorage{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	framePath := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(framePath, testPNG(t, 16, 16), 0o600); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	config := DefaultConfig(server.URL)
	config.Gallery.Cache.Type = CacheTypeMemory
	config.Camera.Type = CameraTypeStill
	config.Camera.DefaultFacingMode = string(capture.FacingUser)
	config.Camera.Devices = map[string]string{"user": framePath}
	if err := config.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	controller := service.Controller()
	ctx := context.Background()
	if err := controller.RefreshGallery(ctx); err != nil {
		t.Fatalf("RefreshGallery failed: %v", err)
	}
	if err := controller.RefreshGallery(ctx); err != nil {
		t.Fatalf("second RefreshGallery failed: %v", err)
	}
	if fake.listingCount() != 1 {
		t.Errorf("Expected the second refresh to be served from cache, got %d listing requests", fake.listingCount())
	}

	if err := controller.ActivateCamera(ctx); err != nil {
		t.Fatalf("ActivateCamera failed: %v", err)
	}
	if err := controller.CapturePhoto(ctx); err != nil {
		t.Fatalf("CapturePhoto failed: %v", err)
	}
	_ = controller.SetCategory(DefaultCategories[0])
	if err := controller.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	state := controller.State()
	if len(state.Gallery.Images) != 1 {
		t.Errorf("Expected upload to invalidate the cache and show one image, got %d", len(state.Gallery.Images))
	}
}

func TestNewCoreService_RedisCache(t *testing.T) {
	redisServer := miniredis.RunT(t)
	fake := &fakeStorage{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	config := DefaultConfig(server.URL)
	config.Gallery.Cache.Type = CacheTypeRedis
	config.Gallery.Cache.RedisAddress = redisServer.Addr()
	config.Gallery.Cache.TTL = time.Minute

	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	defer service.Close()

	if err := service.Controller().RefreshGallery(context.Background()); err != nil {
		t.Fatalf("RefreshGallery failed: %v", err)
	}
	if len(redisServer.Keys()) != 1 {
		t.Errorf("Expected one cached listing in redis, got %v", redisServer.Keys())
	}
}

func TestNewCoreService_UnreachableRedis(t *testing.T) {
	config := DefaultConfig("http://localhost:1")
	config.Gallery.Cache.Type = CacheTypeRedis
	config.Gallery.Cache.RedisAddress = "127.0.0.1:1"

	if _, err := NewCoreService(config); err == nil {
		t.Fatal("Expected an error for an unreachable redis")
	}
}

func TestNewCoreService_NoCamera(t *testing.T) {
	service, err := NewCoreService(DefaultConfig("http://localhost:1"))
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	defer service.Close()

	if service.Controller().State().Camera.Available {
		t.Error("Expected no camera without camera configuration")
	}
}

func TestNewCoreService_DisabledCameraIgnoresDevices(t *testing.T) {
	config := DefaultConfig("http://localhost:1")
	config.Camera.Type = CameraTypeNone
	config.Camera.Devices = map[string]string{"front": "/dev/video0"}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	service, err := NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	defer service.Close()

	if service.Controller().State().Camera.Available {
		t.Error("Expected no camera when the camera type is none")
	}
}
