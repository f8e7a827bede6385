package model

import "errors"

// Sentinel kinds shared across the tour packages.
var (
	ErrNotFound          = errors.New("panorama not found")
	ErrInvalidEdge       = errors.New("invalid hotspot edge")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidAlignment  = errors.New("invalid alignment value")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)
