package alignment_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/panotour/internal/adapters/repository"
	"github.com/okian/panotour/internal/domain/alignment"
	"github.com/okian/panotour/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEditor(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registry with one panorama", t, func() {
		reg := repository.NewRegistry()
		id, err := reg.AddPanorama(ctx, "a", model.ImageRef{URL: "/images/a"}, model.ImageRef{URL: "/images/a"})
		So(err, ShouldBeNil)
		ed := alignment.NewEditor(reg)

		Convey("Out-of-range values are clamped", func() {
			a, err := ed.SetPitch(ctx, id, 500)
			So(err, ShouldBeNil)
			So(a.Pitch, ShouldEqual, 90)

			a, err = ed.SetYaw(ctx, id, -500)
			So(err, ShouldBeNil)
			So(a.Yaw, ShouldEqual, -180)

			a, err = ed.SetHFOV(ctx, id, 10)
			So(err, ShouldBeNil)
			So(a.HFOV, ShouldEqual, 50)

			p, _ := reg.Get(ctx, id)
			So(p.Alignment, ShouldResemble, model.Alignment{Pitch: 90, Yaw: -180, HFOV: 50})
		})

		Convey("Only the named field changes", func() {
			a, err := ed.Set(ctx, id, "YAW", 45)
			So(err, ShouldBeNil)
			So(a, ShouldResemble, model.Alignment{Pitch: 0, Yaw: 45, HFOV: 100})
		})

		Convey("An unknown field is rejected", func() {
			_, err := ed.Set(ctx, id, "roll", 1)
			So(errors.Is(err, model.ErrInvalidAlignment), ShouldBeTrue)
		})

		Convey("NaN is rejected and leaves the alignment untouched", func() {
			_, err := ed.SetPitch(ctx, id, math.NaN())
			So(errors.Is(err, model.ErrInvalidAlignment), ShouldBeTrue)
			p, _ := reg.Get(ctx, id)
			So(p.Alignment, ShouldResemble, model.DefaultAlignment())
		})

		Convey("Reset restores the defaults", func() {
			_, _ = ed.SetHFOV(ctx, id, 70)
			a, err := ed.Reset(ctx, id)
			So(err, ShouldBeNil)
			So(a, ShouldResemble, model.DefaultAlignment())
		})

		Convey("Unknown panoramas are reported as not found", func() {
			_, err := ed.SetYaw(ctx, "pano_missing", 1)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			_, err = ed.Reset(ctx, "pano_missing")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}
