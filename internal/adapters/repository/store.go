// Package repository holds the panorama registry: the sole owner of all
// panorama records and of the active panorama pointer.
package repository

import (
	"context"

	"github.com/okian/panotour/internal/domain/model"
)

// Store provides read/write access to the tour registry.
type Store interface {
	// AddPanorama inserts a panorama with the default alignment and no
	// hotspots and returns its fresh id. The active panorama is unchanged.
	AddPanorama(ctx context.Context, name string, image, thumbnail model.ImageRef) (string, error)
	// Seed inserts a panorama with an explicit starting alignment.
	Seed(ctx context.Context, name string, image, thumbnail model.ImageRef, alignment model.Alignment) (string, error)

	// SetActive points the registry at id. Returns ErrNotFound if unknown.
	SetActive(ctx context.Context, id string) error
	ActiveID(ctx context.Context) string

	// Get returns the panorama with id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.Panorama, error)
	// List returns every panorama in insertion order.
	List(ctx context.Context) []model.Panorama
	Count(ctx context.Context) int

	// UpdateAlignment clamps value and replaces a single alignment field.
	UpdateAlignment(ctx context.Context, id string, field model.AlignmentField, value float64) (model.Alignment, error)
	// ResetAlignment restores the default alignment.
	ResetAlignment(ctx context.Context, id string) (model.Alignment, error)

	// AppendHotspot adds an edge leaving originID.
	// Returns ErrNotFound for unknown ids and ErrInvalidEdge for self-loops.
	AppendHotspot(ctx context.Context, originID string, h model.Hotspot) error

	// Snapshot returns the current immutable view of the registry.
	Snapshot(ctx context.Context) model.Tour
	// Version increases on every successful mutation.
	Version(ctx context.Context) uint64
}
