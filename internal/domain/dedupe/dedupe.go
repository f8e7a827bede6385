// Package dedupe tracks upload idempotency keys.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the number of remembered keys.
const defaultMaxSize = 4096

// Deduper records seen upload keys so that a repeated upload is not decoded twice.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the same upload can be retried, e.g. after the
	// decode queue refused it.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key        string
	prev, next *entry
}

// inMemoryDeduper keeps keys in a map plus an insertion-ordered list.
// When bounded, the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*entry
	oldest  *entry
	newest  *entry
	maxSize int // <= 0 means unbounded
	size    atomic.Int64
	pool    sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pool.New = func() any { return &entry{} }
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.removeLocked(d.oldest)
	}

	e := d.pool.Get().(*entry) //nolint:forcetypeassert // pool only holds *entry
	e.key = key
	e.prev = d.newest
	if d.newest != nil {
		d.newest.next = e
	}
	d.newest = e
	if d.oldest == nil {
		d.oldest = e
	}
	d.seen[key] = e
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.seen[key]; ok {
		d.removeLocked(e)
	}
}

// removeLocked unlinks e. Must be called with d.mu held.
func (d *inMemoryDeduper) removeLocked(e *entry) {
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		d.oldest = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		d.newest = e.prev
	}
	delete(d.seen, e.key)
	*e = entry{}
	d.pool.Put(e)
	d.size.Add(-1)
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
