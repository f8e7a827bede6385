package repository

import (
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithIDGenerator replaces the panorama id generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the registry.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
