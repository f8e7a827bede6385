package imaging

import (
	xdraw "golang.org/x/image/draw"

	"github.com/okian/panotour/pkg/idgen"
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithThumbnailWidth sets the maximum thumbnail width in pixels.
func WithThumbnailWidth(width int) LoaderOption {
	return func(l *Loader) {
		if width > 0 {
			l.thumbnailWidth = width
		}
	}
}

// WithMaxPixels caps width*height of an image accepted by Decode.
func WithMaxPixels(n int64) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxPixels = n
		}
	}
}

// WithScaler sets the interpolator used for thumbnails.
func WithScaler(s xdraw.Scaler) LoaderOption {
	return func(l *Loader) {
		if s != nil {
			l.scaler = s
		}
	}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator replaces the blob id generator.
func WithIDGenerator(gen idgen.Generator) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithURLPrefix sets the prefix of generated image URLs.
func WithURLPrefix(prefix string) StoreOption {
	return func(s *Store) {
		if prefix != "" {
			s.urlPrefix = prefix
		}
	}
}
