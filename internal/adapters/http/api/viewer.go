package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/panotour/internal/app"
	"github.com/okian/panotour/internal/domain/placement"
	"github.com/okian/panotour/internal/domain/scenegraph"
)

// ViewerDependencies defines the scene graph and live viewer operations.
type ViewerDependencies interface {
	SceneGraph(ctx context.Context) scenegraph.Description
	Viewer(ctx context.Context) service.ViewerState
	ViewerClick(ctx context.Context, handleID string, pitch, yaw float64) (placement.State, error)
}

// ViewerHandler handles scene graph and viewer requests.
type ViewerHandler struct {
	deps ViewerDependencies
}

// NewViewerHandler creates a new viewer handler.
func NewViewerHandler(deps ViewerDependencies) *ViewerHandler {
	return &ViewerHandler{deps: deps}
}

// clickRequest carries coordinates converted by pannellum's mouseEventToCoords.
type clickRequest struct {
	Pitch *float64 `json:"pitch"`
	Yaw   *float64 `json:"yaw"`
}

// HandleSceneGraph handles GET /api/scene-graph.
func (h *ViewerHandler) HandleSceneGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.SceneGraph(r.Context()))
}

// HandleViewer handles GET /api/viewer.
func (h *ViewerHandler) HandleViewer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Viewer(r.Context()))
}

// HandleClick handles POST /api/viewer/{handle}/click.
func (h *ViewerHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.viewer_click"
	var req clickRequest
	if err := decodeJSON(r, op, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Pitch == nil || req.Yaw == nil {
		fail(w, NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.ViewerClick(r.Context(), chi.URLParam(r, "handle"), *req.Pitch, *req.Yaw)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
