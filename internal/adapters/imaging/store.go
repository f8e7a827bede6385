package imaging

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/pkg/idgen"
)

const defaultURLPrefix = "/images/"

// Blob is a stored image.
type Blob struct {
	ID          string
	ContentType string
	Data        []byte
}

// Store keeps image blobs in memory. Every Put gets its own id, so two
// panoramas never share a blob even when the bytes are equal.
type Store struct {
	mu        sync.RWMutex
	blobs     map[string]Blob
	bytes     int64
	newID     idgen.Generator
	urlPrefix string
}

// NewStore creates an empty blob store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		blobs:     make(map[string]Blob),
		newID:     idgen.Image(),
		urlPrefix: defaultURLPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores data and returns a reference to it.
func (s *Store) Put(_ context.Context, contentType string, data []byte, width, height int) model.ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.blobs[id]; taken; _, taken = s.blobs[id] {
		id = s.newID()
	}
	s.blobs[id] = Blob{ID: id, ContentType: contentType, Data: data}
	s.bytes += int64(len(data))

	return model.ImageRef{
		ID:          id,
		URL:         s.urlPrefix + id,
		ContentType: contentType,
		Width:       width,
		Height:      height,
	}
}

// PutDecoded stores a decoded image and its thumbnail. When the thumbnail
// aliases the image both references point at the same blob.
func (s *Store) PutDecoded(ctx context.Context, d Decoded) (image, thumbnail model.ImageRef) {
	image = s.Put(ctx, d.ContentType, d.Data, d.Width, d.Height)
	if d.Aliased {
		return image, image
	}
	thumbnail = s.Put(ctx, d.ThumbnailType, d.Thumbnail, d.ThumbnailWidth, d.ThumbnailHeight)
	return image, thumbnail
}

// Get returns the blob stored under id.
func (s *Store) Get(_ context.Context, id string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return Blob{}, fmt.Errorf("image %q: %w", id, ErrNotFound)
	}
	return b, nil
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Bytes returns the total size of stored blobs.
func (s *Store) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
