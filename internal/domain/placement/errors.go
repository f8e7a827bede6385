package placement

import "errors"

var (
	// ErrInvalidTransition is returned when a step is taken out of order.
	ErrInvalidTransition = errors.New("invalid placement transition")
	// ErrPlacementUnavailable is returned when placement starts with fewer
	// than two panoramas.
	ErrPlacementUnavailable = errors.New("placement needs at least two panoramas")
)
