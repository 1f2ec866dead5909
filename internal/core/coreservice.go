package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/leafcollector/internal/cache"
	"github.com/jo-hoe/leafcollector/internal/capture"
	"github.com/jo-hoe/leafcollector/internal/crop"
	"github.com/jo-hoe/leafcollector/internal/gallery"
	"github.com/jo-hoe/leafcollector/internal/storage"
)

const redisConnectTimeout = 5 * time.Second

// CoreService owns the components built from the configuration
type CoreService struct {
	config     *ServiceConfig
	client     *storage.Client
	cache      storage.ResponseCache
	camera     *capture.Camera
	controller *Controller
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	responseCache, err := getResponseCache(config.Gallery.Cache)
	if err != nil {
		return nil, err
	}

	clientOptions := []storage.ClientOption{storage.WithTimeout(config.Storage.Timeout)}
	if responseCache != nil {
		clientOptions = append(clientOptions, storage.WithResponseCache(responseCache))
	}
	client := storage.NewClient(config.Storage.BaseURL, clientOptions...)

	camera, err := getCamera(config.Camera)
	if err != nil {
		closeCache(responseCache)
		return nil, err
	}

	controller := NewController(client, gallery.New(gallery.NewFetcher(client, config.Gallery.PageSize)), camera, ControllerOptions{
		Categories:     config.Categories,
		MaxUploadBytes: config.MaxUploadBytes,
		Crop: crop.Options{
			PixelRatio:  config.Crop.PixelRatio,
			JPEGQuality: config.Crop.JPEGQuality,
		},
	})

	slog.Info("core service initialized",
		"storage", config.Storage.BaseURL,
		"cache", config.Gallery.Cache.Type,
		"camera", config.Camera.Type,
		"page_size", config.Gallery.PageSize)

	return &CoreService{
		config:     config,
		client:     client,
		cache:      responseCache,
		camera:     camera,
		controller: controller,
	}, nil
}

func (service *CoreService) Controller() *Controller {
	return service.controller
}

func (service *CoreService) Client() *storage.Client {
	return service.client
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// Close releases the camera and the cache connection
func (service *CoreService) Close() error {
	if service.camera != nil {
		service.camera.Deactivate()
	}
	return closeCache(service.cache)
}

func getResponseCache(config Cache) (storage.ResponseCache, error) {
	switch config.Type {
	case CacheTypeMemory:
		slog.Info("listing cache initialized", "type", config.Type, "capacity", config.Capacity, "ttl", config.TTL)
		return cache.NewMemoryCache(config.Capacity, config.TTL), nil
	case CacheTypeRedis:
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		redisCache, err := cache.NewRedisCache(ctx, config.RedisAddress, config.RedisPassword, config.RedisDB, config.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		slog.Info("listing cache initialized", "type", config.Type, "address", config.RedisAddress, "ttl", config.TTL)
		return redisCache, nil
	default:
		return nil, nil
	}
}

func getCamera(config Camera) (*capture.Camera, error) {
	switch config.Type {
	case CameraTypeStill, CameraTypeV4L2:
	default:
		return nil, nil
	}

	devices := make(map[capture.FacingMode]string, len(config.Devices))
	for mode, path := range config.Devices {
		facing, err := capture.ParseFacingMode(mode)
		if err != nil {
			return nil, err
		}
		devices[facing] = path
	}

	var device capture.Device
	if config.Type == CameraTypeV4L2 {
		device = capture.NewV4L2Device(devices, config.FFmpegPath)
	} else {
		device = capture.NewStillDevice(devices)
	}

	options := []capture.Option{capture.WithJPEGQuality(config.JPEGQuality)}
	if facing, err := capture.ParseFacingMode(config.DefaultFacingMode); err == nil {
		options = append(options, capture.WithFacingMode(facing))
	}
	return capture.NewCamera(device, options...), nil
}

func closeCache(responseCache storage.ResponseCache) error {
	if closer, ok := responseCache.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
