package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/pkg/idgen"
	. "github.com/smartystreets/goconvey/convey"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: uint8(x), G: 100, B: 200, A: 255})
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// oversizedPNG rewrites the IHDR of a tiny PNG so its header declares w x h.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, 1, 1)
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestLoaderDecode(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loader with a 64px thumbnail width", t, func() {
		l := NewLoader(WithThumbnailWidth(64))

		Convey("When decoding a large PNG", func() {
			d, err := l.Decode(ctx, encodePNG(t, 256, 128))

			Convey("Then a scaled JPEG thumbnail is produced", func() {
				So(err, ShouldBeNil)
				So(d.ContentType, ShouldEqual, TypePNG)
				So(d.Width, ShouldEqual, 256)
				So(d.Height, ShouldEqual, 128)
				So(d.Aliased, ShouldBeFalse)
				So(d.ThumbnailType, ShouldEqual, TypeJPEG)
				So(d.ThumbnailWidth, ShouldEqual, 64)
				So(d.ThumbnailHeight, ShouldEqual, 32)

				thumb, err := jpeg.Decode(bytes.NewReader(d.Thumbnail))
				So(err, ShouldBeNil)
				So(thumb.Bounds().Dx(), ShouldEqual, 64)
			})
		})

		Convey("When decoding a small JPEG", func() {
			d, err := l.Decode(ctx, encodeJPEG(t, 48, 24))

			Convey("Then the image is its own thumbnail", func() {
				So(err, ShouldBeNil)
				So(d.ContentType, ShouldEqual, TypeJPEG)
				So(d.Aliased, ShouldBeTrue)
				So(d.Thumbnail, ShouldBeNil)
				So(d.ThumbnailWidth, ShouldEqual, 48)
			})
		})

		Convey("When decoding a GIF", func() {
			_, err := l.Decode(ctx, []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))

			Convey("Then it is rejected as unsupported", func() {
				So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
				So(errors.Is(err, model.ErrUnsupportedFormat), ShouldBeTrue)
			})
		})

		Convey("When decoding plain text", func() {
			_, err := l.Decode(ctx, []byte("definitely not an image"))
			So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When decoding nothing", func() {
			_, err := l.Decode(ctx, nil)
			So(errors.Is(err, ErrEmpty), ShouldBeTrue)
		})

		Convey("When decoding a truncated PNG", func() {
			data := encodePNG(t, 32, 32)
			_, err := l.Decode(ctx, data[:40])

			Convey("Then the decode error surfaces without the format sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrUnsupportedFormat), ShouldBeFalse)
			})
		})

		Convey("When a PNG header declares 16000x8000", func() {
			_, err := l.Decode(ctx, oversizedPNG(t, 16000, 8000))

			Convey("Then it is rejected before the pixels are allocated", func() {
				So(errors.Is(err, ErrImageTooLarge), ShouldBeTrue)
				So(errors.Is(err, model.ErrImageTooLarge), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "16000x8000")
			})
		})

		Convey("When the pixel budget is lowered", func() {
			small := NewLoader(WithMaxPixels(100))
			_, err := small.Decode(ctx, encodePNG(t, 16, 16))
			So(errors.Is(err, ErrImageTooLarge), ShouldBeTrue)

			_, err = small.Decode(ctx, encodePNG(t, 10, 10))
			So(err, ShouldBeNil)

			_, err = NewLoader(WithMaxPixels(0)).Decode(ctx, encodePNG(t, 16, 16))
			So(err, ShouldBeNil)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := l.Decode(cctx, encodePNG(t, 8, 8))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := NewStore(WithIDGenerator(idgen.Prefixed("img_", idgen.Sequence())))

		Convey("When the same bytes are stored twice", func() {
			a := s.Put(ctx, TypePNG, []byte{1, 2, 3}, 1, 1)
			b := s.Put(ctx, TypePNG, []byte{1, 2, 3}, 1, 1)

			Convey("Then each gets its own blob", func() {
				So(a.ID, ShouldEqual, "img_1")
				So(b.ID, ShouldEqual, "img_2")
				So(a.URL, ShouldEqual, "/images/img_1")
				So(s.Len(), ShouldEqual, 2)
				So(s.Bytes(), ShouldEqual, 6)
			})

			Convey("And both are retrievable", func() {
				blob, err := s.Get(ctx, b.ID)
				So(err, ShouldBeNil)
				So(blob.ContentType, ShouldEqual, TypePNG)
				So(blob.Data, ShouldResemble, []byte{1, 2, 3})
			})
		})

		Convey("When an unknown id is requested", func() {
			_, err := s.Get(ctx, "img_missing")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When storing an aliased decode", func() {
			img, thumb := s.PutDecoded(ctx, Decoded{ContentType: TypeJPEG, Data: []byte{9}, Width: 10, Height: 5, Aliased: true})

			Convey("Then image and thumbnail share one blob", func() {
				So(thumb, ShouldResemble, img)
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When storing a decode with its own thumbnail", func() {
			img, thumb := s.PutDecoded(ctx, Decoded{
				ContentType: TypePNG, Data: []byte{1}, Width: 1000, Height: 500,
				Thumbnail: []byte{2}, ThumbnailType: TypeJPEG, ThumbnailWidth: 100, ThumbnailHeight: 50,
			})

			Convey("Then two blobs are stored", func() {
				So(img.ID, ShouldNotEqual, thumb.ID)
				So(thumb.ContentType, ShouldEqual, TypeJPEG)
				So(thumb.Width, ShouldEqual, 100)
				So(s.Len(), ShouldEqual, 2)
			})
		})
	})
}

func TestWithURLPrefix(t *testing.T) {
	Convey("A custom URL prefix is used for references", t, func() {
		s := NewStore(WithURLPrefix("https://cdn.example/"), WithIDGenerator(idgen.Sequence()))
		ref := s.Put(context.Background(), TypeJPEG, []byte{0}, 1, 1)
		So(ref.URL, ShouldEqual, "https://cdn.example/1")
	})
}
