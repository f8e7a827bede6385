// Package idgen provides pluggable ID generation for panoramas, images,
// uploads and viewer handles.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable, so two ids issued in the same millisecond still differ.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a counter-based Generator starting at 1.
// Safe for concurrent use.
func Sequence() Generator {
	var n atomic.Uint64
	return func() string {
		return strconv.FormatUint(n.Add(1), 10)
	}
}

// Panorama is the default generator for panorama ids.
func Panorama() Generator { return Prefixed("pano_", UUIDv7()) }

// Image is the default generator for image blob ids.
func Image() Generator { return Prefixed("img_", UUIDv7()) }

// Upload is the default generator for upload tickets.
func Upload() Generator { return Prefixed("upl_", UUIDv7()) }

// Viewer is the default generator for renderer handles.
func Viewer() Generator { return Prefixed("vw_", UUIDv7()) }
