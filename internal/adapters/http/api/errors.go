package api

import (
	"errors"
	"net/http"

	"github.com/okian/panotour/internal/adapters/viewer"
	service "github.com/okian/panotour/internal/app"
	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/internal/domain/placement"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrTooLarge     = errors.New("upload too large")
	ErrBackpressure = service.ErrBackpressure
)

// kindError tags an error with the operation that produced it and a
// sentinel kind that decides the HTTP status.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	switch {
	case e.kind == nil:
		return e.op + ": " + e.err.Error()
	case e.err == nil:
		return e.op + ": " + e.kind.Error()
	}
	return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// WrapKind wraps err as kind, raised by op.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// Wrap prefixes err with op and keeps its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{op: op, err: err}
}

// statusFor maps an error to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge), errors.Is(err, model.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case errors.Is(err, service.ErrUploadNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInvalidEdge):
		return http.StatusBadRequest, "invalid_edge"
	case errors.Is(err, model.ErrInvalidAlignment):
		return http.StatusBadRequest, "invalid_alignment"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrEmptyUpload):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, placement.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, placement.ErrPlacementUnavailable):
		return http.StatusConflict, "placement_unavailable"
	case errors.Is(err, viewer.ErrStaleViewer):
		return http.StatusConflict, "stale_viewer"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
