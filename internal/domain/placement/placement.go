// Package placement implements the two-step hotspot gesture: the user
// clicks a point in the viewer, then picks the panorama it should lead to.
package placement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/panotour/internal/domain/model"
)

// Phase is the state of a Session.
type Phase int

// Session phases.
const (
	Inactive Phase = iota
	AwaitingClick
	AwaitingTarget
)

func (p Phase) String() string {
	switch p {
	case Inactive:
		return "inactive"
	case AwaitingClick:
		return "awaiting_click"
	case AwaitingTarget:
		return "awaiting_target"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Appender commits a finished edge.
type Appender interface {
	AppendHotspot(ctx context.Context, originID string, h model.Hotspot) error
}

// State is a read-only view of a Session. Pitch and Yaw hold the clicked
// point and are only meaningful in AwaitingTarget.
type State struct {
	Phase Phase   `json:"-"`
	Name  string  `json:"state"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// MarshalJSON writes the clicked point only while a target is awaited, so a
// click at 0° is still reported.
func (s State) MarshalJSON() ([]byte, error) {
	out := struct {
		Name  string   `json:"state"`
		Pitch *float64 `json:"pitch,omitempty"`
		Yaw   *float64 `json:"yaw,omitempty"`
	}{Name: s.Name}
	if s.Phase == AwaitingTarget {
		out.Pitch, out.Yaw = &s.Pitch, &s.Yaw
	}
	return json.Marshal(out)
}

// Session is a placement state machine. It is not safe for concurrent use;
// the owner serializes access.
type Session struct {
	phase      Phase
	pitch, yaw float64
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Active reports whether a placement is in progress.
func (s *Session) Active() bool { return s.phase != Inactive }

// State returns a snapshot of the session.
func (s *Session) State() State {
	st := State{Phase: s.phase, Name: s.phase.String()}
	if s.phase == AwaitingTarget {
		st.Pitch, st.Yaw = s.pitch, s.yaw
	}
	return st
}

// Start begins a placement. Only valid from Inactive.
func (s *Session) Start() error {
	if s.phase != Inactive {
		return fmt.Errorf("start from %s: %w", s.phase, ErrInvalidTransition)
	}
	s.phase = AwaitingClick
	return nil
}

// ViewerClick records the clicked point. Clicks in any phase other than
// AwaitingClick are ignored and reported as not accepted.
func (s *Session) ViewerClick(pitch, yaw float64) bool {
	if s.phase != AwaitingClick {
		return false
	}
	s.phase = AwaitingTarget
	s.pitch, s.yaw = pitch, yaw
	return true
}

// SelectTarget commits the edge from originID to targetID at the clicked
// point. If the append fails the session keeps waiting for a target.
func (s *Session) SelectTarget(ctx context.Context, store Appender, originID, targetID string) (model.Hotspot, error) {
	if s.phase != AwaitingTarget {
		return model.Hotspot{}, fmt.Errorf("select target from %s: %w", s.phase, ErrInvalidTransition)
	}
	h := model.NewHotspot(s.pitch, s.yaw, targetID)
	if err := store.AppendHotspot(ctx, originID, h); err != nil {
		return model.Hotspot{}, fmt.Errorf("select target: %w", err)
	}
	s.reset()
	return h, nil
}

// Cancel abandons any placement in progress. It reports whether there was
// one; cancelling an inactive session is a no-op.
func (s *Session) Cancel() bool {
	if s.phase == Inactive {
		return false
	}
	s.reset()
	return true
}

func (s *Session) reset() {
	s.phase = Inactive
	s.pitch, s.yaw = 0, 0
}
