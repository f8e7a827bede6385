package repository

import "github.com/okian/panotour/internal/domain/model"

// Sentinel kinds for registry errors, aliased from the domain model so
// callers can match either name with errors.Is.
var (
	ErrNotFound    = model.ErrNotFound
	ErrInvalidEdge = model.ErrInvalidEdge
)
