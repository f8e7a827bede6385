// Package alignment provides validated setters for a panorama's default
// camera pose. It keeps no state: every call goes straight to the registry,
// which clamps and stores the value.
package alignment

import (
	"context"
	"fmt"

	"github.com/okian/panotour/internal/domain/model"
)

// Updater is the slice of the registry the editor writes through.
type Updater interface {
	UpdateAlignment(ctx context.Context, id string, field model.AlignmentField, value float64) (model.Alignment, error)
	ResetAlignment(ctx context.Context, id string) (model.Alignment, error)
}

// Editor edits alignments.
type Editor struct {
	store Updater
}

// NewEditor creates an Editor over store.
func NewEditor(store Updater) *Editor {
	return &Editor{store: store}
}

// SetPitch sets the pitch of panorama id, clamped to [-90, 90].
func (e *Editor) SetPitch(ctx context.Context, id string, v float64) (model.Alignment, error) {
	return e.update(ctx, id, model.FieldPitch, v)
}

// SetYaw sets the yaw of panorama id, clamped to [-180, 180].
func (e *Editor) SetYaw(ctx context.Context, id string, v float64) (model.Alignment, error) {
	return e.update(ctx, id, model.FieldYaw, v)
}

// SetHFOV sets the horizontal field of view of panorama id, clamped to [50, 120].
func (e *Editor) SetHFOV(ctx context.Context, id string, v float64) (model.Alignment, error) {
	return e.update(ctx, id, model.FieldHFOV, v)
}

// Set updates the field named by field ("pitch", "yaw" or "hfov").
func (e *Editor) Set(ctx context.Context, id, field string, v float64) (model.Alignment, error) {
	f, err := model.ParseAlignmentField(field)
	if err != nil {
		return model.Alignment{}, err
	}
	return e.update(ctx, id, f, v)
}

// Reset restores the default pose (0, 0, 100).
func (e *Editor) Reset(ctx context.Context, id string) (model.Alignment, error) {
	a, err := e.store.ResetAlignment(ctx, id)
	if err != nil {
		return a, fmt.Errorf("reset alignment: %w", err)
	}
	return a, nil
}

func (e *Editor) update(ctx context.Context, id string, f model.AlignmentField, v float64) (model.Alignment, error) {
	a, err := e.store.UpdateAlignment(ctx, id, f, v)
	if err != nil {
		return a, fmt.Errorf("set %s: %w", f, err)
	}
	return a, nil
}
