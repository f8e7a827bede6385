// Package service is the tour service: it owns the panorama registry, the
// placement session and the live viewer, and serializes every mutation of
// them behind one lock.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/okian/panotour/internal/adapters/imaging"
	"github.com/okian/panotour/internal/adapters/mq/queue"
	"github.com/okian/panotour/internal/adapters/mq/worker"
	"github.com/okian/panotour/internal/adapters/repository"
	"github.com/okian/panotour/internal/adapters/viewer"
	"github.com/okian/panotour/internal/domain/alignment"
	"github.com/okian/panotour/internal/domain/dedupe"
	"github.com/okian/panotour/internal/domain/placement"
	"github.com/okian/panotour/internal/domain/scenegraph"
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
	"github.com/okian/panotour/pkg/metrics"
)

const (
	defaultQueueSize      = 64
	defaultDedupeSize     = 4096
	defaultThumbnailWidth = 320
	defaultContainer      = "panorama"
	stopTimeout           = 10 * time.Second
)

// Renderer is the viewer capability the service drives: it creates
// instances and exposes the live one to the tour page.
type Renderer interface {
	viewer.Renderer
	Init()
	Current(container string) (string, viewer.Config, bool)
	Click(ctx context.Context, handleID string, pitch, yaw float64) error
}

// Service implements the API dependencies for the tour.
type Service struct {
	// mu is the single thread of control: registry, session and viewer
	// mutations all happen while it is held.
	mu sync.Mutex

	registry *repository.Registry
	editor   *alignment.Editor
	session  placement.Session
	viewer   *viewer.Manager
	renderer Renderer

	images  *imaging.Store
	loader  *imaging.Loader
	deduper dedupe.Deduper
	jobs    *queue.InMemoryQueue
	pool    *worker.Pool
	names   *bluemonday.Policy
	uploads map[string]*ticket
	byKey   map[string]string
	// retired lists finished upload ids oldest first; at most dedupeSize
	// of them keep their ticket.
	retired []string

	workerCount    int
	queueSize      int
	dedupeSize     int
	thumbnailWidth int
	maxImagePixels int64
	fadeMs         int
	container      string
	seed           *Seed
	panoramaIDs    idgen.Generator
	uploadIDs      idgen.Generator

	started bool
	logger  logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	seed := DefaultSeed()
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		thumbnailWidth: defaultThumbnailWidth,
		maxImagePixels: imaging.DefaultMaxPixels,
		fadeMs:         scenegraph.DefaultFadeDurationMs,
		container:      defaultContainer,
		seed:           &seed,
		panoramaIDs:    idgen.Panorama(),
		uploadIDs:      idgen.Upload(),
		names:          bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = viewer.NewPannellum()
	}
	return s
}

// Start builds the components, seeds the tour and starts the decoders.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("tour-service")
	}
	s.logger.Info(ctx, "starting tour service...")

	s.registry = repository.NewRegistry(repository.WithIDGenerator(s.panoramaIDs))
	s.editor = alignment.NewEditor(s.registry)
	s.session = placement.Session{}
	s.viewer = viewer.NewManager(s.renderer, s.onViewerClick, viewer.WithContainer(s.container))
	s.images = imaging.NewStore()
	s.loader = imaging.NewLoader(
		imaging.WithThumbnailWidth(s.thumbnailWidth),
		imaging.WithMaxPixels(s.maxImagePixels),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.uploads = make(map[string]*ticket)
	s.byKey = make(map[string]string)
	s.retired = nil

	if s.seed != nil {
		if err := s.seedLocked(ctx); err != nil {
			return err
		}
	}

	s.renderer.Init()
	s.syncLocked(ctx)

	// Workers must not inherit the request-scoped ctx.
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.loader, s)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "tour service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("seeded", s.seed != nil),
	)
	return nil
}

func (s *Service) seedLocked(ctx context.Context) error {
	ref := imageRefForURL(s.seed.ImageURL)
	id, err := s.registry.Seed(ctx, s.seed.Name, ref, ref, s.seed.Alignment)
	if err != nil {
		return fmt.Errorf("seed tour: %w", err)
	}
	if err := s.registry.SetActive(ctx, id); err != nil {
		return fmt.Errorf("seed tour: %w", err)
	}
	s.logger.Info(ctx, "tour seeded", logger.String("id", id), logger.String("image", s.seed.ImageURL))
	return nil
}

// Stop drains the decoders and releases the viewer.
func (s *Service) Stop() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping tour service...")

	// Workers report back under mu, so the pool is drained without it.
	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "decoders did not drain", logger.Error(err))
	}

	s.mu.Lock()
	s.viewer.Close(ctx)
	s.mu.Unlock()

	s.logger.Info(ctx, "tour service stopped")
}

// syncLocked recompiles the tour and brings the viewer up to date.
// Must be called with s.mu held.
func (s *Service) syncLocked(ctx context.Context) {
	start := time.Now()
	desc := scenegraph.Compile(s.registry.Snapshot(ctx), scenegraph.WithFadeDuration(s.fadeMs))
	metrics.RecordCompileLatency(float64(time.Since(start).Microseconds()) / 1000)

	if _, err := s.viewer.Sync(ctx, desc, s.session.Active()); err != nil {
		s.logger.Warn(ctx, "viewer sync failed", logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.registry == nil {
		return stats
	}

	ctx := context.Background()
	stats["panoramas"] = s.registry.Count(ctx)
	stats["activeId"] = s.registry.ActiveID(ctx)
	stats["version"] = s.registry.Version(ctx)
	stats["placement"] = s.session.State().Name
	stats["viewer"] = s.viewer.Stats()
	stats["images"] = s.images.Len()
	stats["imageBytes"] = s.images.Bytes()
	stats["queueLength"] = s.jobs.Len(ctx)
	stats["dedupeKeys"] = s.deduper.Size()

	pending := 0
	for _, t := range s.uploads {
		if !t.finished() {
			pending++
		}
	}
	stats["pendingUploads"] = pending
	stats["uploads"] = len(s.uploads)
	return stats
}
