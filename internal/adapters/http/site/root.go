// Package site serves the tour editor page.
package site

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register mounts the tour page and its assets at the root of r. Routes
// registered on r elsewhere take precedence.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	files := http.FileServer(FS())
	r.Handle("/*", files)
}
