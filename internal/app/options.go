package service

import (
	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of decode workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the decode queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many upload keys, and how many finished upload
// tickets, are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithThumbnailWidth sets the maximum thumbnail width.
func WithThumbnailWidth(width int) Option {
	return func(s *Service) {
		if width > 0 {
			s.thumbnailWidth = width
		}
	}
}

// WithMaxImagePixels caps the decoded size of an uploaded image.
func WithMaxImagePixels(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxImagePixels = n
		}
	}
}

// WithSceneFade sets the cross-fade between scenes in milliseconds.
func WithSceneFade(ms int) Option {
	return func(s *Service) {
		if ms >= 0 {
			s.fadeMs = ms
		}
	}
}

// WithViewerContainer sets the mount point of the viewer.
func WithViewerContainer(container string) Option {
	return func(s *Service) {
		if container != "" {
			s.container = container
		}
	}
}

// WithRenderer replaces the default pannellum renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithSeed seeds the tour with one panorama on Start.
func WithSeed(seed Seed) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithoutSeed starts the tour empty.
func WithoutSeed() Option {
	return func(s *Service) {
		s.seed = nil
	}
}

// WithPanoramaIDs replaces the panorama id generator.
func WithPanoramaIDs(gen idgen.Generator) Option {
	return func(s *Service) {
		if gen != nil {
			s.panoramaIDs = gen
		}
	}
}

// WithUploadIDs replaces the upload ticket generator.
func WithUploadIDs(gen idgen.Generator) Option {
	return func(s *Service) {
		if gen != nil {
			s.uploadIDs = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Seed describes the panorama a tour starts with.
type Seed struct {
	Name      string
	ImageURL  string
	Alignment model.Alignment
}

// DefaultSeed is the alma panorama at pitch 10, yaw 180, hfov 110.
func DefaultSeed() Seed {
	return Seed{
		Name:      "alma",
		ImageURL:  "https://pannellum.org/images/alma.jpg",
		Alignment: model.Alignment{Pitch: 10, Yaw: 180, HFOV: 110},
	}
}
