package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/panotour/internal/adapters/imaging"
	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/pkg/logger"
	"github.com/okian/panotour/pkg/metrics"
)

const (
	maxNameLength = 128
	fallbackName  = "panorama"
)

type ticket struct {
	status model.UploadStatus
	key    string
	done   chan struct{}
}

func (t *ticket) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Upload accepts raw image bytes for asynchronous decoding. key is the
// client's idempotency key; when empty the content hash is used. It reports
// duplicate=true, together with the status of the earlier upload, when the
// key was already seen.
func (s *Service) Upload(ctx context.Context, name string, data []byte, key string) (status model.UploadStatus, duplicate bool, err error) {
	if len(data) == 0 {
		return model.UploadStatus{}, false, ErrEmptyUpload
	}
	if key == "" {
		sum := sha256.Sum256(data)
		key = "sha256:" + hex.EncodeToString(sum[:])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return model.UploadStatus{}, false, ErrNotStarted
	}

	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordUploadDuplicate()
		s.logger.Debug(ctx, "duplicate upload", logger.String("key", key))
		if earlier, ok := s.uploads[s.byKey[key]]; ok {
			return earlier.status, true, nil
		}
		return model.UploadStatus{}, true, nil
	}

	id := s.uploadIDs()
	job := model.UploadJob{
		ID:       id,
		Name:     s.displayName(name),
		Data:     data,
		Received: time.Now(),
	}
	if !s.jobs.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordUploadFailed("backpressure")
		return model.UploadStatus{}, false, fmt.Errorf("upload %s: %w", job.Name, ErrBackpressure)
	}

	t := &ticket{
		status: model.UploadStatus{ID: id, State: model.UploadPending},
		key:    key,
		done:   make(chan struct{}),
	}
	s.uploads[id] = t
	s.byKey[key] = id
	metrics.RecordUploadAccepted()

	s.logger.Info(ctx, "upload accepted",
		logger.String("upload_id", id),
		logger.String("name", job.Name),
		logger.Int("bytes", len(data)),
	)
	return t.status, false, nil
}

// CompleteUpload receives decoder results. On success the panorama is added
// and becomes active; there is no intermediate state.
func (s *Service) CompleteUpload(ctx context.Context, job model.UploadJob, decoded imaging.Decoded, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.uploads[job.ID]
	if !ok {
		// Tickets are registered under mu before any worker can report,
		// so only jobs queued by someone else end up here.
		s.logger.Warn(ctx, "decode result for unknown upload", logger.String("upload_id", job.ID))
		return
	}
	defer close(t.done)
	defer s.retireLocked(job.ID)

	if err == nil {
		err = s.addDecodedLocked(ctx, job, decoded, t)
	}
	if err != nil {
		reason := "decode_error"
		switch {
		case errors.Is(err, model.ErrUnsupportedFormat):
			reason = "unsupported_format"
		case errors.Is(err, model.ErrImageTooLarge):
			reason = "too_large"
		}
		t.status.State = model.UploadFailed
		t.status.Error = err.Error()
		// A retry of the same content deserves a fresh attempt.
		s.deduper.Unrecord(ctx, t.key)
		delete(s.byKey, t.key)
		metrics.RecordUploadFailed(reason)
		s.logger.Warn(ctx, "upload failed", logger.String("upload_id", job.ID), logger.Error(err))
		return
	}

	metrics.RecordUploadReady(float64(time.Since(job.Received).Milliseconds()))
	s.logger.Info(ctx, "panorama added",
		logger.String("upload_id", job.ID),
		logger.String("panorama_id", t.status.PanoramaID),
	)
}

func (s *Service) addDecodedLocked(ctx context.Context, job model.UploadJob, decoded imaging.Decoded, t *ticket) error {
	image, thumb := s.images.PutDecoded(ctx, decoded)
	id, err := s.registry.AddPanorama(ctx, job.Name, image, thumb)
	if err != nil {
		return err
	}
	if err := s.registry.SetActive(ctx, id); err != nil {
		return err
	}
	t.status.State = model.UploadReady
	t.status.PanoramaID = id
	s.syncLocked(ctx)
	return nil
}

// retireLocked queues a finished ticket for eviction and drops the oldest
// ones beyond dedupeSize together with their byKey entries.
func (s *Service) retireLocked(id string) {
	s.retired = append(s.retired, id)
	for len(s.retired) > s.dedupeSize {
		old := s.retired[0]
		s.retired[0] = ""
		s.retired = s.retired[1:]
		if t, ok := s.uploads[old]; ok {
			if s.byKey[t.key] == old {
				delete(s.byKey, t.key)
			}
			delete(s.uploads, old)
		}
	}
}

// UploadStatus reports the state of upload id.
func (s *Service) UploadStatus(_ context.Context, id string) (model.UploadStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.uploads[id]
	if !ok {
		return model.UploadStatus{}, fmt.Errorf("upload %q: %w", id, ErrUploadNotFound)
	}
	return t.status, nil
}

// AwaitUpload blocks until upload id is decoded or ctx ends.
func (s *Service) AwaitUpload(ctx context.Context, id string) (model.UploadStatus, error) {
	s.mu.Lock()
	t, ok := s.uploads[id]
	s.mu.Unlock()
	if !ok {
		return model.UploadStatus{}, fmt.Errorf("upload %q: %w", id, ErrUploadNotFound)
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return model.UploadStatus{}, ctx.Err()
	}
	// The ticket may already be retired; its final status is still ours.
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.status, nil
}

// displayName strips markup and paths from a client-supplied file name.
func (s *Service) displayName(name string) string {
	name = html.UnescapeString(s.names.Sanitize(name))
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(strings.TrimSuffix(name, path.Ext(name)))
	if name == "" || name == "." || name == "/" {
		return fallbackName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
