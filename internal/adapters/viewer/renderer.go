// Package viewer owns the single live renderer instance of a tour and the
// pannellum-shaped renderer used by the embedded tour page.
package viewer

import (
	"context"

	"github.com/okian/panotour/internal/domain/scenegraph"
)

// ClickFunc receives the spherical coordinates of a click, in degrees.
type ClickFunc func(pitch, yaw float64)

// HandleClickFunc is a ClickFunc tagged with the handle that was clicked.
type HandleClickFunc func(handleID string, pitch, yaw float64)

// Renderer creates viewer instances.
type Renderer interface {
	// Available reports whether CreateViewer can be called.
	Available() bool
	CreateViewer(ctx context.Context, container string, desc scenegraph.Description) (Handle, error)
}

// Handle is one live viewer instance.
type Handle interface {
	ID() string
	// OnClick replaces the click callback.
	OnClick(fn ClickFunc)
	// Release tears the instance down. Calling it more than once is safe.
	Release()
}
