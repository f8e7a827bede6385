package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/panotour/internal/domain/model"
)

// AlignmentDependencies defines the alignment editor operations.
type AlignmentDependencies interface {
	SetAlignment(ctx context.Context, id, field string, value float64) (model.Alignment, error)
	ResetAlignment(ctx context.Context, id string) (model.Alignment, error)
}

// AlignmentHandler handles alignment requests.
type AlignmentHandler struct {
	deps AlignmentDependencies
}

// NewAlignmentHandler creates a new alignment handler.
func NewAlignmentHandler(deps AlignmentDependencies) *AlignmentHandler {
	return &AlignmentHandler{deps: deps}
}

// alignmentRequest mirrors the OpenAPI schema for PATCH .../alignment.
type alignmentRequest struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

// HandleSet handles PATCH /api/panoramas/{id}/alignment.
func (h *AlignmentHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_alignment"
	var req alignmentRequest
	if err := decodeJSON(r, op, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Value == nil {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("missing value")))
		return
	}
	a, err := h.deps.SetAlignment(r.Context(), chi.URLParam(r, "id"), req.Field, *req.Value)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleReset handles POST /api/panoramas/{id}/alignment/reset.
func (h *AlignmentHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.ResetAlignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.reset_alignment", err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
