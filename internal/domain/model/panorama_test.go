package model_test

import (
	"errors"
	"math"
	"testing"

	model "github.com/okian/panotour/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAlignment(t *testing.T) {
	convey.Convey("Given the default alignment", t, func() {
		a := model.DefaultAlignment()

		convey.Convey("Then it should be level, facing forward, hfov 100", func() {
			convey.So(a, convey.ShouldResemble, model.Alignment{Pitch: 0, Yaw: 0, HFOV: 100})
		})

		convey.Convey("When setting out-of-range values", func() {
			pitch, err1 := a.With(model.FieldPitch, 500)
			yaw, err2 := a.With(model.FieldYaw, -500)
			hfov, err3 := a.With(model.FieldHFOV, 10)

			convey.Convey("Then each field should be clamped independently", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(err3, convey.ShouldBeNil)
				convey.So(pitch, convey.ShouldResemble, model.Alignment{Pitch: 90, Yaw: 0, HFOV: 100})
				convey.So(yaw, convey.ShouldResemble, model.Alignment{Pitch: 0, Yaw: -180, HFOV: 100})
				convey.So(hfov, convey.ShouldResemble, model.Alignment{Pitch: 0, Yaw: 0, HFOV: 50})
			})

			convey.Convey("And the original value should be untouched", func() {
				convey.So(a, convey.ShouldResemble, model.DefaultAlignment())
			})
		})

		convey.Convey("When setting NaN or infinity", func() {
			_, errNaN := a.With(model.FieldYaw, math.NaN())
			_, errInf := a.With(model.FieldHFOV, math.Inf(1))

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(errNaN, model.ErrInvalidAlignment), convey.ShouldBeTrue)
				convey.So(errors.Is(errInf, model.ErrInvalidAlignment), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When clamping a whole alignment", func() {
			c, err := model.Alignment{Pitch: -95, Yaw: 181, HFOV: 130}.Clamped()

			convey.Convey("Then every field should land on its bound", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(c, convey.ShouldResemble, model.Alignment{Pitch: -90, Yaw: 180, HFOV: 120})
			})
		})
	})
}

func TestParseAlignmentField(t *testing.T) {
	convey.Convey("Given field names", t, func() {
		convey.Convey("Then known names should parse case-insensitively", func() {
			f, err := model.ParseAlignmentField(" HFOV ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(f, convey.ShouldEqual, model.FieldHFOV)
		})

		convey.Convey("And unknown names should fail", func() {
			_, err := model.ParseAlignmentField("roll")
			convey.So(errors.Is(err, model.ErrInvalidAlignment), convey.ShouldBeTrue)
		})
	})
}

func TestHotspot(t *testing.T) {
	convey.Convey("Given a new hotspot", t, func() {
		h := model.NewHotspot(12, 34, "pano_b")

		convey.Convey("Then the label should be derived from the target id", func() {
			convey.So(h.Label, convey.ShouldEqual, "To pano_b")
			convey.So(h.OriginPitch, convey.ShouldEqual, 12)
			convey.So(h.OriginYaw, convey.ShouldEqual, 34)
			convey.So(h.TargetID, convey.ShouldEqual, "pano_b")
		})
	})
}

func TestTourFind(t *testing.T) {
	convey.Convey("Given a tour snapshot", t, func() {
		tour := model.Tour{Panoramas: []model.Panorama{{ID: "a"}, {ID: "b"}}, ActiveID: "a"}

		convey.Convey("Then present ids should resolve", func() {
			p, ok := tour.Find("b")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(p.ID, convey.ShouldEqual, "b")
		})

		convey.Convey("And absent ids should not", func() {
			_, ok := tour.Find("c")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
