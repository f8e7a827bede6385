package viewer

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/okian/panotour/internal/domain/model"
	"github.com/okian/panotour/internal/domain/scenegraph"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHandle struct {
	id       string
	r        *fakeRenderer
	onClick  ClickFunc
	released int
}

func (h *fakeHandle) ID() string           { return h.id }
func (h *fakeHandle) OnClick(fn ClickFunc) { h.onClick = fn }
func (h *fakeHandle) Release() {
	h.released++
	if h.released == 1 {
		h.r.releases++
	}
}

type fakeRenderer struct {
	available bool
	fail      error
	creates   int
	releases  int
	handles   []*fakeHandle
	last      scenegraph.Description
}

func (r *fakeRenderer) Available() bool { return r.available }

func (r *fakeRenderer) CreateViewer(_ context.Context, _ string, desc scenegraph.Description) (Handle, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.creates++
	h := &fakeHandle{id: "h" + strconv.Itoa(r.creates), r: r}
	r.handles = append(r.handles, h)
	r.last = desc
	return h, nil
}

func tour(n int, active int, hfov float64) model.Tour {
	t := model.Tour{}
	for i := 0; i < n; i++ {
		id := "p" + strconv.Itoa(i)
		a := model.DefaultAlignment()
		a.HFOV = hfov
		t.Panoramas = append(t.Panoramas, model.Panorama{ID: id, Image: model.ImageRef{URL: "/images/" + id}, Alignment: a})
	}
	if n > 0 {
		t.ActiveID = "p" + strconv.Itoa(active)
	}
	return t
}

func TestManagerSync(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager over an available renderer", t, func() {
		r := &fakeRenderer{available: true}
		type click struct {
			handle string
			pitch  float64
			yaw    float64
		}
		var clicks []click
		m := NewManager(r, func(id string, p, y float64) { clicks = append(clicks, click{id, p, y}) }, WithContainer("tour"))
		So(m.Container(), ShouldEqual, "tour")

		Convey("When the first description is synced", func() {
			created, err := m.Sync(ctx, scenegraph.Compile(tour(2, 0, 100)), false)

			Convey("Then one viewer is created and clicks are forwarded", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(r.creates, ShouldEqual, 1)
				So(r.releases, ShouldEqual, 0)
				r.handles[0].onClick(12, 34)
				So(clicks, ShouldResemble, []click{{"h1", 12, 34}})
				id, ok := m.Current()
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "h1")
			})

			Convey("And an identical description keeps the viewer", func() {
				created, err := m.Sync(ctx, scenegraph.Compile(tour(2, 0, 100)), false)
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(r.creates, ShouldEqual, 1)
			})

			Convey("And a changed active panorama recreates it", func() {
				_, _ = m.Sync(ctx, scenegraph.Compile(tour(2, 1, 100)), false)
				So(r.creates, ShouldEqual, 2)
				So(r.releases, ShouldEqual, 1)
				So(r.handles[0].released, ShouldEqual, 1)
				So(r.last.FirstScene, ShouldEqual, "p1")
			})

			Convey("And toggling placement recreates it", func() {
				_, _ = m.Sync(ctx, scenegraph.Compile(tour(2, 0, 100)), true)
				So(r.creates, ShouldEqual, 2)
				So(r.releases, ShouldEqual, 1)

				Convey("And a late click on the old viewer names the old handle", func() {
					r.handles[0].onClick(1, 2)
					r.handles[1].onClick(3, 4)
					So(clicks, ShouldResemble, []click{{"h1", 1, 2}, {"h2", 3, 4}})
					id, _ := m.Current()
					So(id, ShouldEqual, "h2")
				})
			})

			Convey("And a failing create still releases the old viewer exactly once", func() {
				r.fail = errors.New("webgl lost")
				_, err := m.Sync(ctx, scenegraph.Compile(tour(2, 0, 80)), false)
				So(err, ShouldNotBeNil)
				So(r.releases, ShouldEqual, 1)
				So(r.handles[0].released, ShouldEqual, 1)
				_, live := m.Current()
				So(live, ShouldBeFalse)

				Convey("And the next sync retries even with the same description", func() {
					r.fail = nil
					created, err := m.Sync(ctx, scenegraph.Compile(tour(2, 0, 80)), false)
					So(err, ShouldBeNil)
					So(created, ShouldBeTrue)
					So(r.handles[0].released, ShouldEqual, 1)
				})
			})

			Convey("And Close releases it", func() {
				m.Close(ctx)
				So(r.releases, ShouldEqual, 1)
				m.Close(ctx)
				So(r.releases, ShouldEqual, 1)
				So(m.Stats().Live, ShouldBeFalse)
			})
		})

		Convey("An empty tour creates no viewer", func() {
			created, err := m.Sync(ctx, scenegraph.Compile(model.Tour{}), false)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(r.creates, ShouldEqual, 0)
		})
	})

	Convey("Given an unavailable renderer", t, func() {
		r := &fakeRenderer{}
		m := NewManager(r, nil)

		Convey("Sync does nothing until the renderer appears", func() {
			created, err := m.Sync(ctx, scenegraph.Compile(tour(1, 0, 100)), false)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(r.creates, ShouldEqual, 0)
			So(m.Stats().Deferred, ShouldEqual, 1)

			r.available = true
			created, err = m.Sync(ctx, scenegraph.Compile(tour(1, 0, 100)), false)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(r.creates, ShouldEqual, 1)
		})
	})

	Convey("Given N arbitrary mutations", t, func() {
		r := &fakeRenderer{available: true}
		m := NewManager(r, nil)
		const n = 40
		for i := 0; i < n; i++ {
			size := 1 + i%3
			_, _ = m.Sync(ctx, scenegraph.Compile(tour(size, i%size, float64(50+i%5))), i%7 == 0)
		}

		Convey("Then releases trail creates by at most one and creates stay within N+1", func() {
			So(r.creates, ShouldBeLessThanOrEqualTo, n+1)
			So(r.creates-r.releases, ShouldBeBetweenOrEqual, 0, 1)
			s := m.Stats()
			So(s.Creates, ShouldEqual, r.creates)
			So(s.Releases, ShouldEqual, r.releases)
			for _, h := range r.handles {
				So(h.released, ShouldBeLessThanOrEqualTo, 1)
			}
		})
	})
}
