// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Alignment bounds in degrees.
const (
	PitchMin = -90.0
	PitchMax = 90.0
	YawMin   = -180.0
	YawMax   = 180.0
	HFOVMin  = 50.0
	HFOVMax  = 120.0

	DefaultPitch = 0.0
	DefaultYaw   = 0.0
	DefaultHFOV  = 100.0
)

// AlignmentField names one component of an Alignment.
type AlignmentField string

// Alignment fields.
const (
	FieldPitch AlignmentField = "pitch"
	FieldYaw   AlignmentField = "yaw"
	FieldHFOV  AlignmentField = "hfov"
)

// ParseAlignmentField resolves a field name, case-insensitively.
func ParseAlignmentField(s string) (AlignmentField, error) {
	switch AlignmentField(strings.ToLower(strings.TrimSpace(s))) {
	case FieldPitch:
		return FieldPitch, nil
	case FieldYaw:
		return FieldYaw, nil
	case FieldHFOV:
		return FieldHFOV, nil
	}
	return "", fmt.Errorf("unknown alignment field %q: %w", s, ErrInvalidAlignment)
}

// Range returns the inclusive bounds of the field.
func (f AlignmentField) Range() (lo, hi float64) {
	switch f {
	case FieldPitch:
		return PitchMin, PitchMax
	case FieldYaw:
		return YawMin, YawMax
	case FieldHFOV:
		return HFOVMin, HFOVMax
	}
	return math.Inf(-1), math.Inf(1)
}

// Clamp limits v to the field's range. NaN and infinities are rejected.
func (f AlignmentField) Clamp(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s=%v: %w", f, v, ErrInvalidAlignment)
	}
	lo, hi := f.Range()
	return math.Min(math.Max(v, lo), hi), nil
}

// Alignment is the default camera pose of a panorama, in degrees.
type Alignment struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	HFOV  float64 `json:"hfov"`
}

// DefaultAlignment is the pose every freshly uploaded panorama starts with.
func DefaultAlignment() Alignment {
	return Alignment{Pitch: DefaultPitch, Yaw: DefaultYaw, HFOV: DefaultHFOV}
}

// With returns a copy of a with field set to the clamped value.
func (a Alignment) With(field AlignmentField, v float64) (Alignment, error) {
	clamped, err := field.Clamp(v)
	if err != nil {
		return a, err
	}
	switch field {
	case FieldPitch:
		a.Pitch = clamped
	case FieldYaw:
		a.Yaw = clamped
	case FieldHFOV:
		a.HFOV = clamped
	default:
		return a, fmt.Errorf("unknown alignment field %q: %w", field, ErrInvalidAlignment)
	}
	return a, nil
}

// Clamped returns a with every field limited to its range.
func (a Alignment) Clamped() (Alignment, error) {
	var err error
	for _, f := range []AlignmentField{FieldPitch, FieldYaw, FieldHFOV} {
		if a, err = a.With(f, a.Get(f)); err != nil {
			return a, err
		}
	}
	return a, nil
}

// Get returns the value of field.
func (a Alignment) Get(field AlignmentField) float64 {
	switch field {
	case FieldPitch:
		return a.Pitch
	case FieldYaw:
		return a.Yaw
	case FieldHFOV:
		return a.HFOV
	}
	return 0
}

// ImageRef points at decoded image content held in the image store,
// or at an external URL for the seed panorama.
type ImageRef struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Hotspot is a directed edge from the panorama that owns it to TargetID.
// Hotspots are never mutated after creation.
type Hotspot struct {
	OriginPitch float64 `json:"origin_pitch"`
	OriginYaw   float64 `json:"origin_yaw"`
	TargetID    string  `json:"target_id"`
	Label       string  `json:"label"`
}

// HotspotLabel derives the label of an edge pointing at targetID.
func HotspotLabel(targetID string) string {
	return "To " + targetID
}

// NewHotspot builds an edge to targetID anchored at (pitch, yaw).
func NewHotspot(pitch, yaw float64, targetID string) Hotspot {
	return Hotspot{
		OriginPitch: pitch,
		OriginYaw:   yaw,
		TargetID:    targetID,
		Label:       HotspotLabel(targetID),
	}
}

// Panorama is one uploaded equirectangular image with its camera alignment
// and outgoing hotspots.
type Panorama struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Image     ImageRef  `json:"image"`
	Thumbnail ImageRef  `json:"thumbnail"`
	Alignment Alignment `json:"alignment"`
	Hotspots  []Hotspot `json:"hotspots"`
}

// Tour is an immutable snapshot of the registry.
type Tour struct {
	Panoramas []Panorama `json:"panoramas"`
	ActiveID  string     `json:"active_id"`
}

// Find returns the panorama with id.
func (t Tour) Find(id string) (Panorama, bool) {
	for _, p := range t.Panoramas {
		if p.ID == id {
			return p, true
		}
	}
	return Panorama{}, false
}
