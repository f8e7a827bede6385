package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
	"github.com/okian/panotour/pkg/metrics"
)

// maxIDAttempts bounds regeneration when a generator returns a taken id.
const maxIDAttempts = 16

// Registry is the in-memory, insertion-ordered Store.
//
// Records are replaced, never edited in place: hotspot slices are copied on
// append, so every published snapshot stays valid after later mutations and
// unaffected records are shared between snapshots.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]model.Panorama
	active  string
	version uint64
	edges   int

	snapshot atomic.Pointer[model.Tour]

	newID  idgen.Generator
	logger logger.Logger
}

var _ Store = (*Registry)(nil)

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID:   make(map[string]model.Panorama),
		newID:  idgen.Panorama(),
		logger: logger.Get().Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snapshot.Store(&model.Tour{Panoramas: []model.Panorama{}})
	return r
}

// AddPanorama implements Store.
func (r *Registry) AddPanorama(ctx context.Context, name string, image, thumbnail model.ImageRef) (string, error) {
	return r.insert(ctx, name, image, thumbnail, model.DefaultAlignment())
}

// Seed implements Store.
func (r *Registry) Seed(ctx context.Context, name string, image, thumbnail model.ImageRef, alignment model.Alignment) (string, error) {
	clamped, err := alignment.Clamped()
	if err != nil {
		return "", fmt.Errorf("seed panorama: %w", err)
	}
	return r.insert(ctx, name, image, thumbnail, clamped)
}

func (r *Registry) insert(ctx context.Context, name string, image, thumbnail model.ImageRef, alignment model.Alignment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.freshIDLocked()
	if err != nil {
		return "", err
	}
	r.byID[id] = model.Panorama{
		ID:        id,
		Name:      name,
		Image:     image,
		Thumbnail: thumbnail,
		Alignment: alignment,
		Hotspots:  []model.Hotspot{},
	}
	r.order = append(r.order, id)
	r.publishLocked("add_panorama")

	r.logger.Debug(ctx, "panorama added", logger.String("id", id), logger.Int("count", len(r.order)))
	return id, nil
}

// freshIDLocked draws ids until one is unused. Must be called with r.mu held.
func (r *Registry) freshIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.newID()
		if id == "" {
			continue
		}
		if _, taken := r.byID[id]; !taken {
			return id, nil
		}
	}
	metrics.RecordErrorByComponent("registry", "id_exhausted")
	return "", fmt.Errorf("no free panorama id after %d attempts", maxIDAttempts)
}

// SetActive implements Store.
func (r *Registry) SetActive(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return r.notFound("set_active", id)
	}
	if r.active == id {
		return nil
	}
	r.active = id
	r.publishLocked("set_active")
	return nil
}

// ActiveID implements Store.
func (r *Registry) ActiveID(_ context.Context) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get implements Store.
func (r *Registry) Get(_ context.Context, id string) (model.Panorama, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return model.Panorama{}, r.notFound("get", id)
	}
	return clonePanorama(p), nil
}

// List implements Store.
func (r *Registry) List(_ context.Context) []model.Panorama {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Panorama, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clonePanorama(r.byID[id]))
	}
	return out
}

// Count implements Store.
func (r *Registry) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// UpdateAlignment implements Store.
func (r *Registry) UpdateAlignment(_ context.Context, id string, field model.AlignmentField, value float64) (model.Alignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return model.Alignment{}, r.notFound("update_alignment", id)
	}
	next, err := p.Alignment.With(field, value)
	if err != nil {
		metrics.RecordErrorByComponent("registry", "invalid_alignment")
		return p.Alignment, fmt.Errorf("update alignment of %s: %w", id, err)
	}
	if next == p.Alignment {
		return next, nil
	}
	p.Alignment = next
	r.byID[id] = p
	r.publishLocked("update_alignment")
	return next, nil
}

// ResetAlignment implements Store.
func (r *Registry) ResetAlignment(_ context.Context, id string) (model.Alignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return model.Alignment{}, r.notFound("reset_alignment", id)
	}
	if p.Alignment == model.DefaultAlignment() {
		return p.Alignment, nil
	}
	p.Alignment = model.DefaultAlignment()
	r.byID[id] = p
	r.publishLocked("reset_alignment")
	return p.Alignment, nil
}

// AppendHotspot implements Store.
func (r *Registry) AppendHotspot(ctx context.Context, originID string, h model.Hotspot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	origin, ok := r.byID[originID]
	if !ok {
		return r.notFound("append_hotspot", originID)
	}
	if _, ok := r.byID[h.TargetID]; !ok {
		return r.notFound("append_hotspot", h.TargetID)
	}
	if h.TargetID == originID {
		metrics.RecordErrorByComponent("registry", "invalid_edge")
		return fmt.Errorf("hotspot %s -> %s is a self-loop: %w", originID, h.TargetID, ErrInvalidEdge)
	}

	hotspots := make([]model.Hotspot, len(origin.Hotspots), len(origin.Hotspots)+1)
	copy(hotspots, origin.Hotspots)
	origin.Hotspots = append(hotspots, h)
	r.byID[originID] = origin
	r.edges++
	r.publishLocked("append_hotspot")

	r.logger.Debug(ctx, "hotspot appended",
		logger.String("origin", originID),
		logger.String("target", h.TargetID),
		logger.Float64("pitch", h.OriginPitch),
		logger.Float64("yaw", h.OriginYaw),
	)
	return nil
}

// Snapshot implements Store. The returned tour shares hotspot slices with
// the registry and must be treated as read-only.
func (r *Registry) Snapshot(_ context.Context) model.Tour {
	snap := r.snapshot.Load()
	panoramas := make([]model.Panorama, len(snap.Panoramas))
	copy(panoramas, snap.Panoramas)
	return model.Tour{Panoramas: panoramas, ActiveID: snap.ActiveID}
}

// Version implements Store.
func (r *Registry) Version(_ context.Context) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// publishLocked bumps the version and publishes a fresh snapshot.
// Must be called with r.mu held for writing.
func (r *Registry) publishLocked(op string) {
	r.version++
	panoramas := make([]model.Panorama, 0, len(r.order))
	for _, id := range r.order {
		panoramas = append(panoramas, r.byID[id])
	}
	r.snapshot.Store(&model.Tour{Panoramas: panoramas, ActiveID: r.active})

	metrics.RecordRegistryMutation(op)
	metrics.UpdatePanoramaCount(len(r.order))
	metrics.UpdateHotspotCount(r.edges)
}

func (r *Registry) notFound(op, id string) error {
	metrics.RecordErrorByComponent("registry", "not_found")
	return fmt.Errorf("%s %q: %w", op, id, ErrNotFound)
}

func clonePanorama(p model.Panorama) model.Panorama {
	hs := make([]model.Hotspot, len(p.Hotspots))
	copy(hs, p.Hotspots)
	p.Hotspots = hs
	return p
}
