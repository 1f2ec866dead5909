package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/leafcollector/internal/capture"
	"gopkg.in/yaml.v3"
)

const (
	CacheTypeNone   = "none"
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"

	CameraTypeNone  = "none"
	CameraTypeStill = "still"
	CameraTypeV4L2  = "v4l2"
)

// DefaultCategories are the leaf labels offered when none are configured
var DefaultCategories = []string{
	"good tomato leaf",
	"diseased tomato leaf",
	"good chilli leaf",
	"diseased chilli leaf",
	"good groundnut leaf",
	"diseased groundnut leaf",
}

type Storage struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

type Cache struct {
	Type          string        `yaml:"type"`
	TTL           time.Duration `yaml:"ttl"`
	Capacity      int           `yaml:"capacity"`
	RedisAddress  string        `yaml:"redisAddress"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
}

type Gallery struct {
	// PageSize > 0 switches to the paginated listing
	PageSize int   `yaml:"pageSize"`
	Cache    Cache `yaml:"cache"`
}

type Camera struct {
	Type              string            `yaml:"type"`
	DefaultFacingMode string            `yaml:"defaultFacingMode"`
	Devices           map[string]string `yaml:"devices"`
	FFmpegPath        string            `yaml:"ffmpegPath"`
	JPEGQuality       int               `yaml:"jpegQuality"`
}

type Crop struct {
	PixelRatio  float64 `yaml:"pixelRatio"`
	JPEGQuality int     `yaml:"jpegQuality"`
}

type ServiceConfig struct {
	Port           int      `yaml:"port"`
	Storage        Storage  `yaml:"storage"`
	Gallery        Gallery  `yaml:"gallery"`
	Camera         Camera   `yaml:"camera"`
	Crop           Crop     `yaml:"crop"`
	Categories     []string `yaml:"categories"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyEnvironment()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

// DefaultConfig returns a configuration for the service at baseURL with every default applied
func DefaultConfig(baseURL string) *ServiceConfig {
	config := &ServiceConfig{Storage: Storage{BaseURL: baseURL}}
	config.applyDefaults()
	return config
}

func (c *ServiceConfig) applyEnvironment() {
	if v := os.Getenv("STORAGE_BASE_URL"); v != "" {
		c.Storage.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Gallery.Cache.RedisAddress = v
		if c.Gallery.Cache.Type == "" {
			c.Gallery.Cache.Type = CacheTypeRedis
		}
	}
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Storage.Timeout == 0 {
		c.Storage.Timeout = 30 * time.Second
	}
	if c.Gallery.Cache.Type == "" {
		c.Gallery.Cache.Type = CacheTypeNone
	}
	if c.Gallery.Cache.TTL == 0 {
		c.Gallery.Cache.TTL = 30 * time.Second
	}
	if c.Gallery.Cache.Capacity == 0 {
		c.Gallery.Cache.Capacity = 64
	}
	if c.Camera.Type == "" {
		c.Camera.Type = CameraTypeNone
	}
	if c.Camera.DefaultFacingMode == "" {
		c.Camera.DefaultFacingMode = string(capture.FacingEnvironment)
	}
	if c.Camera.JPEGQuality == 0 {
		c.Camera.JPEGQuality = 92
	}
	if c.Crop.PixelRatio == 0 {
		c.Crop.PixelRatio = 1
	}
	if c.Crop.JPEGQuality == 0 {
		c.Crop.JPEGQuality = 90
	}
	if len(c.Categories) == 0 {
		c.Categories = append([]string(nil), DefaultCategories...)
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 10 << 20
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *ServiceConfig) Validate() error {
	if strings.TrimSpace(c.Storage.BaseURL) == "" {
		return fmt.Errorf("storage.baseURL is required")
	}
	if !strings.HasPrefix(c.Storage.BaseURL, "http://") && !strings.HasPrefix(c.Storage.BaseURL, "https://") {
		return fmt.Errorf("storage.baseURL must be an http(s) URL, got %q", c.Storage.BaseURL)
	}
	if c.Gallery.PageSize < 0 {
		return fmt.Errorf("gallery.pageSize must not be negative, got %d", c.Gallery.PageSize)
	}
	switch c.Gallery.Cache.Type {
	case CacheTypeNone, CacheTypeMemory:
	case CacheTypeRedis:
		if c.Gallery.Cache.RedisAddress == "" {
			return fmt.Errorf("gallery.cache.redisAddress is required for the redis cache")
		}
	default:
		return fmt.Errorf("unsupported gallery.cache.type: %s", c.Gallery.Cache.Type)
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if c.Crop.PixelRatio <= 0 {
		return fmt.Errorf("crop.pixelRatio must be positive, got %g", c.Crop.PixelRatio)
	}
	for name, quality := range map[string]int{"crop.jpegQuality": c.Crop.JPEGQuality, "camera.jpegQuality": c.Camera.JPEGQuality} {
		if quality < 1 || quality > 100 {
			return fmt.Errorf("%s must be between 1 and 100, got %d", name, quality)
		}
	}
	return validateCategories(c.Categories)
}

func (c *ServiceConfig) validateCamera() error {
	if _, err := capture.ParseFacingMode(c.Camera.DefaultFacingMode); err != nil {
		return fmt.Errorf("camera.defaultFacingMode: %w", err)
	}
	switch c.Camera.Type {
	case CameraTypeNone:
		return nil
	case CameraTypeStill, CameraTypeV4L2:
	default:
		return fmt.Errorf("unsupported camera.type: %s", c.Camera.Type)
	}
	if len(c.Camera.Devices) == 0 {
		return fmt.Errorf("camera.devices must map at least one facing mode")
	}
	for mode := range c.Camera.Devices {
		if _, err := capture.ParseFacingMode(mode); err != nil {
			return fmt.Errorf("camera.devices: %w", err)
		}
	}
	return nil
}

// validateCategories ensures categories are non-empty and unique
func validateCategories(categories []string) error {
	seen := make(map[string]bool)

	for i, category := range categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("category at index %d is empty", i)
		}
		if seen[category] {
			return fmt.Errorf("duplicate category: %s", category)
		}
		seen[category] = true
	}

	return nil
}
