// Package scenegraph compiles a tour snapshot into the renderer-facing
// description of scenes and links.
//
// Compile is pure: the same tour always yields an equal Description, and
// the tour is never modified.
package scenegraph

import (
	"github.com/okian/panotour/internal/domain/model"
)

// DefaultFadeDurationMs is the scene cross-fade used when none is configured.
const DefaultFadeDurationMs = 1000

// KindLink marks a hotspot that navigates to another scene.
const KindLink = "link"

// Hotspot is one clickable marker in a scene.
type Hotspot struct {
	Pitch         float64 `json:"pitch"`
	Yaw           float64 `json:"yaw"`
	Kind          string  `json:"kind"`
	Label         string  `json:"label"`
	TargetSceneID string  `json:"target_scene_id"`
}

// Scene is the renderer input for one panorama.
type Scene struct {
	Image    string    `json:"image"`
	Pitch    float64   `json:"pitch"`
	Yaw      float64   `json:"yaw"`
	HFOV     float64   `json:"hfov"`
	Hotspots []Hotspot `json:"hotspots"`
}

// Description is the full renderer input.
type Description struct {
	FirstScene     string           `json:"first_scene"`
	FadeDurationMs int              `json:"fade_duration_ms"`
	Scenes         map[string]Scene `json:"scenes"`
	// Order lists scene ids in registry order.
	Order []string `json:"order"`
}

// Empty reports whether there is nothing to render.
func (d Description) Empty() bool { return len(d.Scenes) == 0 }

// Equal reports whether two descriptions would render identically.
func (d Description) Equal(o Description) bool {
	if d.FirstScene != o.FirstScene || d.FadeDurationMs != o.FadeDurationMs ||
		len(d.Scenes) != len(o.Scenes) || len(d.Order) != len(o.Order) {
		return false
	}
	for i := range d.Order {
		if d.Order[i] != o.Order[i] {
			return false
		}
	}
	for id, s := range d.Scenes {
		t, ok := o.Scenes[id]
		if !ok || !s.equal(t) {
			return false
		}
	}
	return true
}

func (s Scene) equal(o Scene) bool {
	if s.Image != o.Image || s.Pitch != o.Pitch || s.Yaw != o.Yaw || s.HFOV != o.HFOV ||
		len(s.Hotspots) != len(o.Hotspots) {
		return false
	}
	for i := range s.Hotspots {
		if s.Hotspots[i] != o.Hotspots[i] {
			return false
		}
	}
	return true
}

type compileOptions struct {
	fadeMs int
}

// Option configures Compile.
type Option func(*compileOptions)

// WithFadeDuration sets the cross-fade between scenes in milliseconds.
// Negative values are ignored.
func WithFadeDuration(ms int) Option {
	return func(o *compileOptions) {
		if ms >= 0 {
			o.fadeMs = ms
		}
	}
}

// Compile builds the description of tour. One scene is emitted per
// panorama and one link per hotspot, in order.
func Compile(tour model.Tour, opts ...Option) Description {
	o := compileOptions{fadeMs: DefaultFadeDurationMs}
	for _, opt := range opts {
		opt(&o)
	}

	d := Description{
		FirstScene:     tour.ActiveID,
		FadeDurationMs: o.fadeMs,
		Scenes:         make(map[string]Scene, len(tour.Panoramas)),
		Order:          make([]string, 0, len(tour.Panoramas)),
	}
	for _, p := range tour.Panoramas {
		hs := make([]Hotspot, 0, len(p.Hotspots))
		for _, h := range p.Hotspots {
			hs = append(hs, Hotspot{
				Pitch:         h.OriginPitch,
				Yaw:           h.OriginYaw,
				Kind:          KindLink,
				Label:         h.Label,
				TargetSceneID: h.TargetID,
			})
		}
		d.Scenes[p.ID] = Scene{
			Image:    p.Image.URL,
			Pitch:    p.Alignment.Pitch,
			Yaw:      p.Alignment.Yaw,
			HFOV:     p.Alignment.HFOV,
			Hotspots: hs,
		}
		d.Order = append(d.Order, p.ID)
	}
	return d
}
