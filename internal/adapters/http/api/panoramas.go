package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/panotour/internal/adapters/imaging"
	"github.com/okian/panotour/internal/domain/model"
)

// PanoramaDependencies defines the registry and upload operations.
type PanoramaDependencies interface {
	Upload(ctx context.Context, name string, data []byte, key string) (model.UploadStatus, bool, error)
	UploadStatus(ctx context.Context, id string) (model.UploadStatus, error)
	AwaitUpload(ctx context.Context, id string) (model.UploadStatus, error)
	Panoramas(ctx context.Context) ([]model.Panorama, error)
	Panorama(ctx context.Context, id string) (model.Panorama, error)
	ActiveID(ctx context.Context) string
	SetActive(ctx context.Context, id string) error
	Image(ctx context.Context, id string) (imaging.Blob, error)
}

// PanoramaHandler handles panorama, upload and image requests.
type PanoramaHandler struct {
	deps     PanoramaDependencies
	maxBytes int64
}

// NewPanoramaHandler creates a new panorama handler.
func NewPanoramaHandler(deps PanoramaDependencies) *PanoramaHandler {
	return &PanoramaHandler{deps: deps, maxBytes: defaultMaxUploadBytes}
}

type listResponse struct {
	ActiveID  string           `json:"active_id"`
	Panoramas []model.Panorama `json:"panoramas"`
}

type uploadResponse struct {
	UploadID   string `json:"upload_id,omitempty"`
	Status     string `json:"status"`
	PanoramaID string `json:"panorama_id,omitempty"`
	Duplicate  bool   `json:"duplicate"`
}

type activeRequest struct {
	ID string `json:"id"`
}

// HandleList handles GET /api/panoramas.
func (h *PanoramaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Panoramas(r.Context())
	if err != nil {
		fail(w, Wrap("api.list_panoramas", err))
		return
	}
	writeJSON(w, http.StatusOK, listResponse{ActiveID: h.deps.ActiveID(r.Context()), Panoramas: list})
}

// HandleGet handles GET /api/panoramas/{id}.
func (h *PanoramaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Panorama(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.get_panorama", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpload handles POST /api/panoramas. The image is either the
// multipart field "file" or the raw body, named by X-Filename.
func (h *PanoramaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	name, data, err := h.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(w, WrapKind(op, ErrTooLarge, err))
			return
		}
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, dup, err := h.deps.Upload(r.Context(), name, data, r.Header.Get("Idempotency-Key"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, uploadResponse{
			UploadID:   st.ID,
			Status:     "duplicate",
			PanoramaID: st.PanoramaID,
			Duplicate:  true,
		})
		return
	}
	w.Header().Set("Location", "/api/uploads/"+st.ID)
	writeJSON(w, http.StatusAccepted, uploadResponse{UploadID: st.ID, Status: string(st.State)})
}

func (h *PanoramaHandler) readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		return r.Header.Get("X-Filename"), data, err
	}

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return "", nil, err
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	return hdr.Filename, data, err
}

// HandleUploadStatus handles GET /api/uploads/{id}. With ?wait=1 it blocks
// until decoding finishes or the client goes away.
func (h *PanoramaHandler) HandleUploadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		st  model.UploadStatus
		err error
	)
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		st, err = h.deps.AwaitUpload(r.Context(), id)
	} else {
		st, err = h.deps.UploadStatus(r.Context(), id)
	}
	if err != nil {
		fail(w, Wrap("api.upload_status", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleSetActive handles PUT /api/active.
func (h *PanoramaHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_active"
	var req activeRequest
	if err := decodeJSON(r, op, &req); err != nil {
		fail(w, err)
		return
	}
	if req.ID == "" {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("missing id")))
		return
	}
	if err := h.deps.SetActive(r.Context(), req.ID); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, activeRequest{ID: req.ID})
}

// HandleImage handles GET /images/{id}.
func (h *PanoramaHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	blob, err := h.deps.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.image", err))
		return
	}
	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(blob.Data)
}
