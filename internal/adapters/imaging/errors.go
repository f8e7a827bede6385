package imaging

import (
	"errors"

	"github.com/okian/panotour/internal/domain/model"
)

var (
	// ErrUnsupportedFormat is returned for anything other than JPEG or PNG.
	ErrUnsupportedFormat = model.ErrUnsupportedFormat
	// ErrNotFound is returned when a blob id is unknown.
	ErrNotFound = model.ErrNotFound
	// ErrImageTooLarge is returned when the declared dimensions exceed the
	// pixel budget.
	ErrImageTooLarge = model.ErrImageTooLarge
	// ErrEmpty is returned when there is nothing to decode.
	ErrEmpty = errors.New("empty image data")
)
