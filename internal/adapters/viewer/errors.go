package viewer

import "errors"

var (
	// ErrUnavailable is returned when the renderer has not been initialized.
	ErrUnavailable = errors.New("renderer unavailable")
	// ErrStaleViewer is returned for events addressed to a released viewer.
	ErrStaleViewer = errors.New("viewer handle released")
)
