package viewer

import (
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
)

// Option configures a Manager.
type Option func(*Manager)

// WithContainer sets the mount point passed to the renderer.
func WithContainer(container string) Option {
	return func(m *Manager) {
		if container != "" {
			m.container = container
		}
	}
}

// WithLogger sets a custom logger for the Manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// PannellumOption configures a Pannellum renderer.
type PannellumOption func(*Pannellum)

// WithHandleIDs replaces the handle id generator.
func WithHandleIDs(gen idgen.Generator) PannellumOption {
	return func(p *Pannellum) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// WithAutoLoad sets whether the page should load scenes without a click.
func WithAutoLoad(on bool) PannellumOption {
	return func(p *Pannellum) {
		p.autoLoad = on
	}
}
