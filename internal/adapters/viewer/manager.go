package viewer

import (
	"context"
	"fmt"

	"github.com/okian/panotour/internal/domain/scenegraph"
	"github.com/okian/panotour/pkg/logger"
	"github.com/okian/panotour/pkg/metrics"
)

const defaultContainer = "panorama"

// Stats describes the Manager's lifetime activity.
type Stats struct {
	Creates  int    `json:"creates"`
	Releases int    `json:"releases"`
	Deferred int    `json:"deferred"`
	Live     bool   `json:"live"`
	HandleID string `json:"handle_id,omitempty"`
}

// Manager keeps at most one renderer instance matching the latest
// description. It is not safe for concurrent use; the tour service calls it
// under its own lock.
type Manager struct {
	renderer  Renderer
	onClick   HandleClickFunc
	container string

	current       Handle
	last          scenegraph.Description
	lastPlacement bool
	synced        bool

	stats  Stats
	logger logger.Logger
}

// NewManager creates a Manager that forwards viewer clicks to onClick. A
// click can arrive after its handle was released, so onClick gets the handle
// id and should compare it with Current.
func NewManager(r Renderer, onClick HandleClickFunc, opts ...Option) *Manager {
	m := &Manager{
		renderer:  r,
		onClick:   onClick,
		container: defaultContainer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("viewer")
	}
	return m
}

// Container returns the mount point handed to the renderer.
func (m *Manager) Container() string { return m.container }

// Sync brings the live instance in line with desc. It reports whether a new
// instance was created.
//
// Nothing happens while the renderer is unavailable; the next Sync retries.
// When desc and the placement flag are unchanged since the last successful
// Sync the current instance is kept. Otherwise the previous instance is
// released before the new one is created, even if creation then fails.
func (m *Manager) Sync(ctx context.Context, desc scenegraph.Description, placementActive bool) (bool, error) {
	if m.renderer == nil || !m.renderer.Available() {
		m.stats.Deferred++
		m.synced = false
		metrics.RecordViewerDeferred()
		m.logger.Debug(ctx, "renderer unavailable, sync deferred")
		return false, nil
	}
	if m.synced && placementActive == m.lastPlacement && desc.Equal(m.last) {
		metrics.RecordViewerSkipped()
		return false, nil
	}

	m.releaseCurrent(ctx)
	m.last = desc
	m.lastPlacement = placementActive

	if desc.Empty() {
		m.synced = true
		return false, nil
	}

	h, err := m.renderer.CreateViewer(ctx, m.container, desc)
	if err != nil {
		m.synced = false
		metrics.RecordErrorByComponent("viewer", "create_failed")
		return false, fmt.Errorf("create viewer: %w", err)
	}
	if m.onClick != nil {
		id, fn := h.ID(), m.onClick
		h.OnClick(func(pitch, yaw float64) { fn(id, pitch, yaw) })
	}
	m.current = h
	m.synced = true
	m.stats.Creates++
	metrics.RecordViewerCreate()

	m.logger.Debug(ctx, "viewer created",
		logger.String("handle", h.ID()),
		logger.String("first_scene", desc.FirstScene),
		logger.Int("scenes", len(desc.Scenes)),
		logger.Bool("placing", placementActive),
	)
	return true, nil
}

// Close releases the live instance, if any. The next Sync starts afresh.
func (m *Manager) Close(ctx context.Context) {
	m.releaseCurrent(ctx)
	m.synced = false
}

// Current returns the live handle id.
func (m *Manager) Current() (string, bool) {
	if m.current == nil {
		return "", false
	}
	return m.current.ID(), true
}

// Stats returns creation and release counts.
func (m *Manager) Stats() Stats {
	s := m.stats
	if id, ok := m.Current(); ok {
		s.Live = true
		s.HandleID = id
	}
	return s
}

func (m *Manager) releaseCurrent(ctx context.Context) {
	if m.current == nil {
		return
	}
	h := m.current
	m.current = nil
	h.Release()
	m.stats.Releases++
	metrics.RecordViewerRelease()
	m.logger.Debug(ctx, "viewer released", logger.String("handle", h.ID()))
}
