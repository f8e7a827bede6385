package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/okian/panotour/internal/adapters/viewer"
	service "github.com/okian/panotour/internal/app"
	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/internal/domain/placement"
	"github.com/okian/panotour/internal/domain/scenegraph"
	"github.com/okian/panotour/pkg/idgen"
	"github.com/okian/panotour/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func pngBytes(w, h int, shade uint8) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithThumbnailWidth(16),
		service.WithPanoramaIDs(idgen.Prefixed("pano_", idgen.Sequence())),
		service.WithUploadIDs(idgen.Prefixed("upl_", idgen.Sequence())),
	}
	return service.New(append(base, opts...)...)
}

func upload(t *testing.T, svc *service.Service, name string, data []byte) model.UploadStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, dup, err := svc.Upload(ctx, name, data, "")
	if err != nil || dup {
		t.Fatalf("upload %s: dup=%v err=%v", name, dup, err)
	}
	done, err := svc.AwaitUpload(ctx, st.ID)
	if err != nil {
		t.Fatalf("await %s: %v", st.ID, err)
	}
	return done
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that has not started", t, func() {
		svc := newService()

		Convey("Uploads are refused", func() {
			_, _, err := svc.Upload(ctx, "a.png", pngBytes(4, 2, 1), "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Starting twice is harmless and Stop is idempotent", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			_, _, err := svc.Upload(ctx, "a.png", pngBytes(4, 2, 1), "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Seed(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with the default seed", t, func() {
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the alma panorama is active with its own pose", func() {
			So(svc.ActiveID(ctx), ShouldEqual, "pano_1")
			d := svc.SceneGraph(ctx)
			So(d.FirstScene, ShouldEqual, "pano_1")
			scene := d.Scenes["pano_1"]
			So(scene.Image, ShouldEqual, "https://pannellum.org/images/alma.jpg")
			So(scene.Pitch, ShouldEqual, 10)
			So(scene.Yaw, ShouldEqual, 180)
			So(scene.HFOV, ShouldEqual, 110)
		})

		Convey("Then a viewer is live for the page", func() {
			v := svc.Viewer(ctx)
			So(v.Live, ShouldBeTrue)
			So(v.Container, ShouldEqual, "panorama")
			So(v.Config.Default.FirstScene, ShouldEqual, "pano_1")
		})

		Convey("Then placement is unavailable with a single panorama", func() {
			_, err := svc.StartPlacement(ctx)
			So(errors.Is(err, service.ErrPlacementUnavailable), ShouldBeTrue)
			So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.Inactive)
		})
	})

	Convey("Given a service without a seed", t, func() {
		svc := newService(service.WithoutSeed())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the tour is empty and no viewer exists", func() {
			list, err := svc.Panoramas(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldBeEmpty)
			So(svc.Viewer(ctx).Live, ShouldBeFalse)
		})
	})
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newService(service.WithoutSeed())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a PNG is uploaded", func() {
			st := upload(t, svc, "<b>lobby</b>.png", pngBytes(64, 32, 7))

			Convey("Then it becomes the active panorama with a thumbnail", func() {
				So(st.State, ShouldEqual, model.UploadReady)
				So(st.PanoramaID, ShouldEqual, "pano_1")
				So(svc.ActiveID(ctx), ShouldEqual, "pano_1")

				p, err := svc.Panorama(ctx, "pano_1")
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "lobby")
				So(p.Alignment, ShouldResemble, model.DefaultAlignment())
				So(p.Image.Width, ShouldEqual, 64)
				So(p.Thumbnail.Width, ShouldEqual, 16)
				So(p.Thumbnail.ID, ShouldNotEqual, p.Image.ID)

				blob, err := svc.Image(ctx, p.Image.ID)
				So(err, ShouldBeNil)
				So(blob.ContentType, ShouldEqual, "image/png")
			})

			Convey("And the same content again is a duplicate of the first", func() {
				again, dup, err := svc.Upload(ctx, "copy.png", pngBytes(64, 32, 7), "")
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(again.ID, ShouldEqual, st.ID)
				So(again.PanoramaID, ShouldEqual, "pano_1")
			})

			Convey("And an explicit idempotency key is honoured", func() {
				first, dup, err := svc.Upload(ctx, "x.png", pngBytes(8, 4, 1), "key-1")
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				_, dup, err = svc.Upload(ctx, "y.png", pngBytes(8, 4, 2), "key-1")
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				_, _ = svc.AwaitUpload(ctx, first.ID)
			})
		})

		Convey("When an unsupported file is uploaded", func() {
			st := upload(t, svc, "notes.txt", []byte("plain text, not an image"))

			Convey("Then the upload fails and the tour is unchanged", func() {
				So(st.State, ShouldEqual, model.UploadFailed)
				So(st.Error, ShouldContainSubstring, "unsupported")
				list, _ := svc.Panoramas(ctx)
				So(list, ShouldBeEmpty)
			})

			Convey("And the same content may be retried", func() {
				_, dup, err := svc.Upload(ctx, "notes.txt", []byte("plain text, not an image"), "")
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})
		})

		Convey("Empty uploads are rejected", func() {
			_, _, err := svc.Upload(ctx, "empty.png", nil, "")
			So(errors.Is(err, service.ErrEmptyUpload), ShouldBeTrue)
		})

		Convey("Unknown tickets are reported", func() {
			_, err := svc.UploadStatus(ctx, "upl_404")
			So(errors.Is(err, service.ErrUploadNotFound), ShouldBeTrue)
			_, err = svc.AwaitUpload(ctx, "upl_404")
			So(errors.Is(err, service.ErrUploadNotFound), ShouldBeTrue)
		})
	})
}

func TestService_UploadLimits(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a 100 pixel budget", t, func() {
		svc := newService(service.WithoutSeed(), service.WithMaxImagePixels(100))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("An oversized image fails without reaching the tour", func() {
			st := upload(t, svc, "huge.png", pngBytes(16, 16, 1))
			So(st.State, ShouldEqual, model.UploadFailed)
			So(st.Error, ShouldContainSubstring, "exceeds")
			So(svc.GetStats()["panoramas"], ShouldEqual, 0)

			ok := upload(t, svc, "small.png", pngBytes(10, 10, 1))
			So(ok.State, ShouldEqual, model.UploadReady)
		})
	})

	Convey("Given a service that remembers two uploads", t, func() {
		svc := newService(service.WithoutSeed(), service.WithDedupeSize(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		first := upload(t, svc, "a.png", pngBytes(8, 4, 1))
		upload(t, svc, "b.png", pngBytes(8, 4, 2))
		last := upload(t, svc, "c.png", pngBytes(8, 4, 3))

		Convey("Then the oldest finished ticket is dropped", func() {
			So(first.State, ShouldEqual, model.UploadReady)
			_, err := svc.UploadStatus(ctx, first.ID)
			So(errors.Is(err, service.ErrUploadNotFound), ShouldBeTrue)

			st, err := svc.UploadStatus(ctx, last.ID)
			So(err, ShouldBeNil)
			So(st.State, ShouldEqual, model.UploadReady)
			So(svc.GetStats()["uploads"], ShouldEqual, 2)
		})

		Convey("And its panorama stays in the tour", func() {
			So(svc.GetStats()["panoramas"], ShouldEqual, 3)
		})
	})
}

func TestService_Placement(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tour with the seed A and an uploaded B", t, func() {
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		a := "pano_1"
		b := upload(t, svc, "b.png", pngBytes(8, 4, 3)).PanoramaID
		So(svc.SetActive(ctx, a), ShouldBeNil)

		Convey("When the full gesture runs through the viewer", func() {
			before := svc.Viewer(ctx).HandleID
			st, err := svc.StartPlacement(ctx)
			So(err, ShouldBeNil)
			So(st.Phase, ShouldEqual, placement.AwaitingClick)

			handle := svc.Viewer(ctx).HandleID
			So(handle, ShouldNotEqual, before)

			st, err = svc.ViewerClick(ctx, handle, 12, 34)
			So(err, ShouldBeNil)
			So(st.Phase, ShouldEqual, placement.AwaitingTarget)

			h, err := svc.SelectTarget(ctx, b)
			So(err, ShouldBeNil)

			Convey("Then A links to B and the scene graph shows it", func() {
				So(h, ShouldResemble, model.Hotspot{OriginPitch: 12, OriginYaw: 34, TargetID: b, Label: "To " + b})
				d := svc.SceneGraph(ctx)
				So(len(d.Scenes[a].Hotspots), ShouldEqual, 1)
				So(d.Scenes[a].Hotspots[0].TargetSceneID, ShouldEqual, b)
				So(d.Scenes[b].Hotspots, ShouldBeEmpty)
				So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.Inactive)
			})

			Convey("Then clicks on the released viewer are stale", func() {
				_, err := svc.ViewerClick(ctx, before, 1, 1)
				So(errors.Is(err, viewer.ErrStaleViewer), ShouldBeTrue)
			})
		})

		Convey("When the gesture is cancelled", func() {
			_, _ = svc.StartPlacement(ctx)
			_, _ = svc.ViewerClick(ctx, svc.Viewer(ctx).HandleID, 5, 5)
			st := svc.CancelPlacement(ctx)

			Convey("Then no hotspot is added", func() {
				So(st.Phase, ShouldEqual, placement.Inactive)
				p, _ := svc.Panorama(ctx, a)
				So(p.Hotspots, ShouldBeEmpty)
			})
		})

		Convey("When the active panorama is picked as its own target", func() {
			_, _ = svc.StartPlacement(ctx)
			_, _ = svc.ViewerClick(ctx, svc.Viewer(ctx).HandleID, 5, 5)
			_, err := svc.SelectTarget(ctx, a)

			Convey("Then the edge is rejected and the session keeps waiting", func() {
				So(errors.Is(err, model.ErrInvalidEdge), ShouldBeTrue)
				So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.AwaitingTarget)
			})
		})

		Convey("When the active panorama changes after the click", func() {
			_, _ = svc.StartPlacement(ctx)
			_, _ = svc.ViewerClick(ctx, svc.Viewer(ctx).HandleID, 5, 5)
			So(svc.SetActive(ctx, b), ShouldBeNil)

			Convey("Then the placement is abandoned instead of moving to the new origin", func() {
				So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.Inactive)
				_, err := svc.SelectTarget(ctx, a)
				So(errors.Is(err, placement.ErrInvalidTransition), ShouldBeTrue)
				pa, _ := svc.Panorama(ctx, a)
				pb, _ := svc.Panorama(ctx, b)
				So(pa.Hotspots, ShouldBeEmpty)
				So(pb.Hotspots, ShouldBeEmpty)
			})
		})

		Convey("Re-selecting the active panorama keeps the clicked point", func() {
			_, _ = svc.StartPlacement(ctx)
			_, _ = svc.ViewerClick(ctx, svc.Viewer(ctx).HandleID, 5, 5)
			So(svc.SetActive(ctx, a), ShouldBeNil)
			So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.AwaitingTarget)
		})

		Convey("Starting twice is an invalid transition", func() {
			_, err := svc.StartPlacement(ctx)
			So(err, ShouldBeNil)
			_, err = svc.StartPlacement(ctx)
			So(errors.Is(err, placement.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("Clicks outside a placement are ignored", func() {
			st, err := svc.ViewerClick(ctx, svc.Viewer(ctx).HandleID, 5, 5)
			So(err, ShouldBeNil)
			So(st.Phase, ShouldEqual, placement.Inactive)
		})
	})
}

func TestService_Alignment(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with the seed", t, func() {
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Alignment updates are clamped and reach the viewer", func() {
			a, err := svc.SetAlignment(ctx, "pano_1", "pitch", 500)
			So(err, ShouldBeNil)
			So(a.Pitch, ShouldEqual, 90)
			So(svc.Viewer(ctx).Config.Scenes["pano_1"].Pitch, ShouldEqual, 90)

			a, err = svc.ResetAlignment(ctx, "pano_1")
			So(err, ShouldBeNil)
			So(a, ShouldResemble, model.DefaultAlignment())
		})

		Convey("Unknown panoramas are not found", func() {
			_, err := svc.SetAlignment(ctx, "pano_9", "yaw", 1)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			So(errors.Is(svc.SetActive(ctx, "pano_9"), model.ErrNotFound), ShouldBeTrue)
		})

		Convey("Stats describe the tour", func() {
			stats := svc.GetStats()
			So(stats["panoramas"], ShouldEqual, 1)
			So(stats["activeId"], ShouldEqual, "pano_1")
			So(stats["placement"], ShouldEqual, "inactive")
			So(stats["viewer"].(viewer.Stats).Live, ShouldBeTrue)
		})
	})
}

// retainingRenderer remembers every click callback, including those of
// released viewers, so late clicks can be replayed.
type retainingRenderer struct {
	*viewer.Pannellum
	callbacks map[string]viewer.ClickFunc
}

type retainingHandle struct {
	viewer.Handle
	r *retainingRenderer
}

func (h retainingHandle) OnClick(fn viewer.ClickFunc) {
	h.r.callbacks[h.ID()] = fn
	h.Handle.OnClick(fn)
}

func (r *retainingRenderer) CreateViewer(ctx context.Context, container string, desc scenegraph.Description) (viewer.Handle, error) {
	h, err := r.Pannellum.CreateViewer(ctx, container, desc)
	if err != nil {
		return nil, err
	}
	return retainingHandle{Handle: h, r: r}, nil
}

func TestService_LateClick(t *testing.T) {
	ctx := context.Background()

	Convey("Given a placement started over a replaced viewer", t, func() {
		r := &retainingRenderer{Pannellum: viewer.NewPannellum(), callbacks: map[string]viewer.ClickFunc{}}
		svc := newService(service.WithRenderer(r))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		upload(t, svc, "b.png", pngBytes(8, 4, 3))
		before := svc.Viewer(ctx).HandleID
		_, err := svc.StartPlacement(ctx)
		So(err, ShouldBeNil)
		handle := svc.Viewer(ctx).HandleID
		So(handle, ShouldNotEqual, before)

		Convey("When the released viewer's callback fires late", func() {
			r.callbacks[before](7, 8)

			Convey("Then the click is dropped", func() {
				So(svc.PlacementState(ctx).Phase, ShouldEqual, placement.AwaitingClick)
			})

			Convey("And the live viewer still takes the click", func() {
				r.callbacks[handle](9, 10)
				st := svc.PlacementState(ctx)
				So(st.Phase, ShouldEqual, placement.AwaitingTarget)
				So(st.Pitch, ShouldEqual, 9)
			})
		})
	})
}
