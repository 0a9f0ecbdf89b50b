package input

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one decoded control message from a device. Key events carry
// Pressed, axis events carry Value.
type Event struct {
	Type    string  `json:"type"`
	Control string  `json:"control"`
	Pressed bool    `json:"pressed"`
	Value   float64 `json:"value"`
}

const (
	EventKey  = "key"
	EventAxis = "axis"
)

// State tracks the live controls of a single device: which controls are
// currently held, which transitioned this tick, and the last value of each
// axis. State is not safe for concurrent use; the session registry
// serializes access.
type State struct {
	held     map[string]bool
	pressed  map[string]bool
	released map[string]bool
	axes     map[string]float64
}

func NewState() *State {
	return &State{
		held:     map[string]bool{},
		pressed:  map[string]bool{},
		released: map[string]bool{},
		axes:     map[string]float64{},
	}
}

// Process decodes one raw payload and applies it. A decode failure returns
// ErrMalformedPayload and leaves the state untouched, so one bad message
// never poisons the ones that follow.
func (s *State) Process(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	ev.Type = strings.ToLower(strings.TrimSpace(ev.Type))
	ev.Control = strings.TrimSpace(ev.Control)
	if ev.Control == "" {
		return Event{}, fmt.Errorf("%w: missing control", ErrMalformedPayload)
	}
	switch ev.Type {
	case EventKey:
		s.applyKey(ev.Control, ev.Pressed)
	case EventAxis:
		s.axes[ev.Control] = ev.Value
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedPayload, ev.Type)
	}
	return ev, nil
}

func (s *State) applyKey(control string, down bool) {
	if down {
		if !s.held[control] {
			s.pressed[control] = true
		}
		s.held[control] = true
		return
	}
	if s.held[control] {
		s.released[control] = true
	}
	delete(s.held, control)
}

// IsHeld reports whether the control is currently down.
func (s *State) IsHeld(control string) bool { return s.held[control] }

// WasPressed reports whether the control went down during the current tick.
func (s *State) WasPressed(control string) bool { return s.pressed[control] }

// WasReleased reports whether the control went up during the current tick.
func (s *State) WasReleased(control string) bool { return s.released[control] }

// Axis returns the last reported value for an axis control, zero if none.
func (s *State) Axis(control string) float64 { return s.axes[control] }

// ResetEdges clears the pressed/released edge flags. Held state and axis
// values survive. Called exactly once per tick, after all message
// processing for that tick.
func (s *State) ResetEdges() {
	clear(s.pressed)
	clear(s.released)
}
