// Package imaging decodes uploaded panorama images, derives thumbnails and
// keeps the resulting blobs in memory.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	xdraw "golang.org/x/image/draw"
)

const (
	defaultThumbnailWidth = 320
	thumbnailQuality      = 80

	// DefaultMaxPixels admits panoramas up to about 11600x5800.
	DefaultMaxPixels int64 = 64 << 20

	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
)

// Decoded is the outcome of a successful Decode.
type Decoded struct {
	ContentType string
	Width       int
	Height      int
	Data        []byte

	// Thumbnail is nil when Aliased is true: the image is already small
	// enough to be its own thumbnail.
	Thumbnail       []byte
	ThumbnailType   string
	ThumbnailWidth  int
	ThumbnailHeight int
	Aliased         bool
}

// Loader validates and decodes image bytes.
type Loader struct {
	thumbnailWidth int
	maxPixels      int64
	scaler         xdraw.Scaler
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		thumbnailWidth: defaultThumbnailWidth,
		maxPixels:      DefaultMaxPixels,
		scaler:         xdraw.ApproxBiLinear,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decode sniffs data, decodes it and builds a thumbnail. The header is read
// first and images over the pixel budget are refused before any pixels are
// allocated.
func (l *Loader) Decode(ctx context.Context, data []byte) (Decoded, error) {
	if len(data) == 0 {
		return Decoded{}, ErrEmpty
	}
	contentType := http.DetectContentType(data)
	var (
		decodeConfig func(io.Reader) (image.Config, error)
		decode       func(io.Reader) (image.Image, error)
	)
	switch contentType {
	case TypeJPEG:
		decodeConfig, decode = jpeg.DecodeConfig, jpeg.Decode
	case TypePNG:
		decodeConfig, decode = png.DecodeConfig, png.Decode
	default:
		return Decoded{}, fmt.Errorf("decode %s: %w", contentType, ErrUnsupportedFormat)
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("decode %s header: %w", contentType, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > l.maxPixels {
		return Decoded{}, fmt.Errorf("decode %s: %dx%d exceeds %d pixels: %w",
			contentType, cfg.Width, cfg.Height, l.maxPixels, ErrImageTooLarge)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("decode %s: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}

	b := img.Bounds()
	out := Decoded{
		ContentType: contentType,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Data:        data,
	}

	if out.Width <= l.thumbnailWidth {
		out.Aliased = true
		out.ThumbnailType = contentType
		out.ThumbnailWidth = out.Width
		out.ThumbnailHeight = out.Height
		return out, nil
	}

	thumb, w, h, err := l.thumbnail(img)
	if err != nil {
		return Decoded{}, err
	}
	out.Thumbnail = thumb
	out.ThumbnailType = TypeJPEG
	out.ThumbnailWidth = w
	out.ThumbnailHeight = h
	return out, nil
}

func (l *Loader) thumbnail(src image.Image) ([]byte, int, int, error) {
	b := src.Bounds()
	w := l.thumbnailWidth
	h := b.Dy() * w / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	l.scaler.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), w, h, nil
}
