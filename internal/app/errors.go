package service

import (
	"errors"

	"github.com/okian/panotour/internal/domain/placement"
)

var (
	// ErrNotStarted is returned by uploads before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned when the decode queue is full.
	ErrBackpressure = errors.New("decode queue full")
	// ErrEmptyUpload is returned for uploads without content.
	ErrEmptyUpload = errors.New("empty upload")
	// ErrUploadNotFound is returned for unknown upload tickets.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrPlacementUnavailable is returned when placement starts with fewer
	// than two panoramas or no active panorama.
	ErrPlacementUnavailable = placement.ErrPlacementUnavailable
)
