package service

import (
	"context"
	"fmt"

	"github.com/okian/panotour/internal/adapters/imaging"
	"github.com/okian/panotour/internal/adapters/viewer"
	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/internal/domain/placement"
	"github.com/okian/panotour/internal/domain/scenegraph"
	"github.com/okian/panotour/pkg/logger"
	"github.com/okian/panotour/pkg/metrics"
)

// ViewerState is what the tour page needs to mount the live viewer.
type ViewerState struct {
	HandleID  string         `json:"handle_id,omitempty"`
	Container string         `json:"container"`
	Live      bool           `json:"live"`
	Config    *viewer.Config `json:"config,omitempty"`
}

func imageRefForURL(url string) model.ImageRef {
	return model.ImageRef{URL: url}
}

// Panoramas lists the panoramas in insertion order.
func (s *Service) Panoramas(ctx context.Context) ([]model.Panorama, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return nil, ErrNotStarted
	}
	return s.registry.List(ctx), nil
}

// Panorama returns one panorama.
func (s *Service) Panorama(ctx context.Context, id string) (model.Panorama, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return model.Panorama{}, ErrNotStarted
	}
	return s.registry.Get(ctx, id)
}

// ActiveID returns the id of the panorama shown first.
func (s *Service) ActiveID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return ""
	}
	return s.registry.ActiveID(ctx)
}

// SetActive switches the panorama shown first.
func (s *Service) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return ErrNotStarted
	}
	before := s.registry.ActiveID(ctx)
	if err := s.registry.SetActive(ctx, id); err != nil {
		return err
	}
	// A clicked point belongs to the panorama it was clicked on.
	if id != before && s.session.Phase() == placement.AwaitingTarget && s.session.Cancel() {
		metrics.RecordPlacementTransition("cancel")
		s.logger.Info(ctx, "placement cancelled by panorama switch",
			logger.String("from", before),
			logger.String("to", id),
		)
	}
	s.syncLocked(ctx)
	return nil
}

// SetAlignment sets one alignment field of panorama id. Values outside the
// field's range are clamped.
func (s *Service) SetAlignment(ctx context.Context, id, field string, value float64) (model.Alignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return model.Alignment{}, ErrNotStarted
	}
	a, err := s.editor.Set(ctx, id, field, value)
	if err != nil {
		return a, err
	}
	s.syncLocked(ctx)
	return a, nil
}

// ResetAlignment restores the default pose of panorama id.
func (s *Service) ResetAlignment(ctx context.Context, id string) (model.Alignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return model.Alignment{}, ErrNotStarted
	}
	a, err := s.editor.Reset(ctx, id)
	if err != nil {
		return a, err
	}
	s.syncLocked(ctx)
	return a, nil
}

// PlacementState returns the current placement session.
func (s *Service) PlacementState(_ context.Context) placement.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State()
}

// StartPlacement begins placing a hotspot on the active panorama.
func (s *Service) StartPlacement(ctx context.Context) (placement.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return placement.State{}, ErrNotStarted
	}
	if s.registry.Count(ctx) < 2 || s.registry.ActiveID(ctx) == "" {
		return s.session.State(), ErrPlacementUnavailable
	}
	if err := s.session.Start(); err != nil {
		return s.session.State(), err
	}
	metrics.RecordPlacementTransition("start")
	s.syncLocked(ctx)
	return s.session.State(), nil
}

// CancelPlacement abandons the placement in progress, if any.
func (s *Service) CancelPlacement(ctx context.Context) placement.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Cancel() {
		metrics.RecordPlacementTransition("cancel")
		if s.registry != nil {
			s.syncLocked(ctx)
		}
	}
	return s.session.State()
}

// SelectTarget links the clicked point on the active panorama to targetID.
func (s *Service) SelectTarget(ctx context.Context, targetID string) (model.Hotspot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return model.Hotspot{}, ErrNotStarted
	}
	origin := s.registry.ActiveID(ctx)
	h, err := s.session.SelectTarget(ctx, s.registry, origin, targetID)
	if err != nil {
		return h, err
	}
	metrics.RecordPlacementTransition("commit")
	s.logger.Info(ctx, "hotspot placed",
		logger.String("origin", origin),
		logger.String("target", targetID),
	)
	s.syncLocked(ctx)
	return h, nil
}

// SceneGraph compiles the current tour.
func (s *Service) SceneGraph(ctx context.Context) scenegraph.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry == nil {
		return scenegraph.Compile(model.Tour{}, scenegraph.WithFadeDuration(s.fadeMs))
	}
	return scenegraph.Compile(s.registry.Snapshot(ctx), scenegraph.WithFadeDuration(s.fadeMs))
}

// Viewer returns the live viewer for the tour page.
func (s *Service) Viewer(_ context.Context) ViewerState {
	id, cfg, ok := s.renderer.Current(s.container)
	if !ok {
		return ViewerState{Container: s.container}
	}
	return ViewerState{HandleID: id, Container: s.container, Live: true, Config: &cfg}
}

// ViewerClick delivers a click from the tour page to viewer handleID and
// returns the resulting placement state.
func (s *Service) ViewerClick(ctx context.Context, handleID string, pitch, yaw float64) (placement.State, error) {
	// The renderer calls back into onViewerClick, which takes mu.
	if err := s.renderer.Click(ctx, handleID, pitch, yaw); err != nil {
		metrics.RecordViewerClick("stale")
		return placement.State{}, fmt.Errorf("viewer click: %w", err)
	}
	return s.PlacementState(ctx), nil
}

// onViewerClick runs without the renderer's lock, so the handle may have been
// replaced since the click was routed to it.
func (s *Service) onViewerClick(handleID string, pitch, yaw float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if live, ok := s.viewer.Current(); !ok || live != handleID {
		metrics.RecordViewerClick("stale")
		s.logger.Debug(context.Background(), "click on released viewer dropped", logger.String("handle", handleID))
		return
	}
	if s.session.ViewerClick(pitch, yaw) {
		metrics.RecordViewerClick("accepted")
		metrics.RecordPlacementTransition("click")
		return
	}
	metrics.RecordViewerClick("ignored")
}

// Image returns a stored image blob.
func (s *Service) Image(ctx context.Context, id string) (imaging.Blob, error) {
	s.mu.Lock()
	images := s.images
	s.mu.Unlock()
	if images == nil {
		return imaging.Blob{}, ErrNotStarted
	}
	return images.Get(ctx, id)
}
