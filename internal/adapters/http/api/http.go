// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultMaxUploadBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the tour service.
type Dependencies interface {
	PanoramaDependencies
	AlignmentDependencies
	PlacementDependencies
	ViewerDependencies
	StatsProvider
}

// Server wires HTTP routes for the tour API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	panoramaHandler  *PanoramaHandler
	alignmentHandler *AlignmentHandler
	placementHandler *PlacementHandler
	viewerHandler    *ViewerHandler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of an upload body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.panoramaHandler.maxBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		panoramaHandler:  NewPanoramaHandler(deps),
		alignmentHandler: NewAlignmentHandler(deps),
		placementHandler: NewPlacementHandler(deps),
		viewerHandler:    NewViewerHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID, middleware.Recoverer)

		r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
		r.Get("/metrics", s.healthHandler.HandleMetrics)
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
		r.Get("/images/{id}", MetricsMiddleware(s.panoramaHandler.HandleImage, "images"))

		r.Route("/api", func(r chi.Router) {
			r.Get("/panoramas", MetricsMiddleware(s.panoramaHandler.HandleList, "panoramas"))
			r.Post("/panoramas", MetricsMiddleware(s.panoramaHandler.HandleUpload, "upload"))
			r.Get("/panoramas/{id}", MetricsMiddleware(s.panoramaHandler.HandleGet, "panorama"))
			r.Patch("/panoramas/{id}/alignment", MetricsMiddleware(s.alignmentHandler.HandleSet, "alignment"))
			r.Post("/panoramas/{id}/alignment/reset", MetricsMiddleware(s.alignmentHandler.HandleReset, "alignment_reset"))
			r.Get("/uploads/{id}", MetricsMiddleware(s.panoramaHandler.HandleUploadStatus, "upload_status"))
			r.Put("/active", MetricsMiddleware(s.panoramaHandler.HandleSetActive, "active"))

			r.Get("/placement", MetricsMiddleware(s.placementHandler.HandleGet, "placement"))
			r.Post("/placement", MetricsMiddleware(s.placementHandler.HandleStart, "placement"))
			r.Delete("/placement", MetricsMiddleware(s.placementHandler.HandleCancel, "placement"))
			r.Post("/placement/target", MetricsMiddleware(s.placementHandler.HandleSelectTarget, "placement_target"))

			r.Get("/scene-graph", MetricsMiddleware(s.viewerHandler.HandleSceneGraph, "scene_graph"))
			r.Get("/viewer", MetricsMiddleware(s.viewerHandler.HandleViewer, "viewer"))
			r.Post("/viewer/{handle}/click", MetricsMiddleware(s.viewerHandler.HandleClick, "viewer_click"))
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, fmt.Errorf("decode body: %w", err))
	}
	return nil
}
