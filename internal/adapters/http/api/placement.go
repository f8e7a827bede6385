package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/internal/domain/placement"
)

// PlacementDependencies defines the hotspot placement operations.
type PlacementDependencies interface {
	PlacementState(ctx context.Context) placement.State
	StartPlacement(ctx context.Context) (placement.State, error)
	CancelPlacement(ctx context.Context) placement.State
	SelectTarget(ctx context.Context, targetID string) (model.Hotspot, error)
}

// PlacementHandler handles placement requests.
type PlacementHandler struct {
	deps PlacementDependencies
}

// NewPlacementHandler creates a new placement handler.
func NewPlacementHandler(deps PlacementDependencies) *PlacementHandler {
	return &PlacementHandler{deps: deps}
}

type targetRequest struct {
	TargetID string `json:"target_id"`
}

// HandleGet handles GET /api/placement.
func (h *PlacementHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.PlacementState(r.Context()))
}

// HandleStart handles POST /api/placement.
func (h *PlacementHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.StartPlacement(r.Context())
	if err != nil {
		fail(w, Wrap("api.start_placement", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleCancel handles DELETE /api/placement.
func (h *PlacementHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.CancelPlacement(r.Context()))
}

// HandleSelectTarget handles POST /api/placement/target.
func (h *PlacementHandler) HandleSelectTarget(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_target"
	var req targetRequest
	if err := decodeJSON(r, op, &req); err != nil {
		fail(w, err)
		return
	}
	if req.TargetID == "" {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("missing target_id")))
		return
	}
	hs, err := h.deps.SelectTarget(r.Context(), req.TargetID)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, hs)
}
