// Package config defines the tour service configuration and how it is loaded.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// UploadQueueSize bounds the number of uploads waiting for a decoder.
	UploadQueueSize int `koanf:"upload_queue_size"`

	// DecodeWorkerCount sets the number of decode workers.
	DecodeWorkerCount int `koanf:"decode_worker_count"`

	// DedupeSize sets how many upload idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxUploadBytes caps the size of a single upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// ThumbnailWidth is the maximum thumbnail width in pixels.
	ThumbnailWidth int `koanf:"thumbnail_width"`

	// MaxImagePixels caps width*height of a decoded upload.
	MaxImagePixels int64 `koanf:"max_image_pixels"`

	// SceneFadeMS is the cross-fade between scenes.
	SceneFadeMS int `koanf:"scene_fade_ms"`

	// ViewerContainer names the element the tour page mounts the viewer on.
	ViewerContainer string `koanf:"viewer_container"`

	// Seed* describe the panorama the tour starts with.
	SeedEnabled  bool    `koanf:"seed_enabled"`
	SeedImageURL string  `koanf:"seed_image_url"`
	SeedPitch    float64 `koanf:"seed_pitch"`
	SeedYaw      float64 `koanf:"seed_yaw"`
	SeedHFOV     float64 `koanf:"seed_hfov"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		UploadQueueSize:   64,
		DecodeWorkerCount: runtime.NumCPU(),
		DedupeSize:        4096,
		MaxUploadBytes:    32 << 20,
		ThumbnailWidth:    320,
		MaxImagePixels:    64 << 20,
		SceneFadeMS:       1000,
		ViewerContainer:   "panorama",
		SeedEnabled:       true,
		SeedImageURL:      "https://pannellum.org/images/alma.jpg",
		SeedPitch:         10,
		SeedYaw:           180,
		SeedHFOV:          110,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.MaxUploadBytes <= 0:
		return invalid("max_upload_bytes must be positive")
	case c.MaxImagePixels <= 0:
		return invalid("max_image_pixels must be positive")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.SeedEnabled && c.SeedImageURL == "":
		return invalid("seed_image_url must be set when seeding")
	}
	return nil
}
