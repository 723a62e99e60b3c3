// Package input accumulates pressed keys and mouse movement between frames.
// Producers (websocket readers, the HTTP input endpoint, tests) call Apply or
// the Press/Release/AddMouseDelta helpers from any goroutine; the engine reads
// once per frame.
package input

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/pkg/errors"
)

// Key codes use the DOM KeyboardEvent.code names
const (
	KeyForward     = "KeyW"
	KeyBack        = "KeyS"
	KeyStrafeLeft  = "KeyA"
	KeyStrafeRight = "KeyD"
	KeyReload      = "KeyR"
	KeyFire        = "Space"
	KeyTurnLeft    = "ArrowLeft"
	KeyTurnRight   = "ArrowRight"
	KeyLookUp      = "ArrowUp"
	KeyLookDown    = "ArrowDown"
)

// movementKeys mark the player as "active" for weapon sway
var movementKeys = []string{KeyForward, KeyStrafeLeft, KeyBack, KeyStrafeRight, KeyFire}

// EventType identifies a raw input event
type EventType string

const (
	EventKeyDown   EventType = "keydown"
	EventKeyUp     EventType = "keyup"
	EventMouseMove EventType = "mousemove"
	EventBlur      EventType = "blur" // window lost focus, release everything
)

var (
	ErrUnknownEvent = errors.New("input: unknown event type")
	ErrMissingCode  = errors.New("input: key event without code")
	ErrMaxKeys      = errors.New("input: too many keys held")
	ErrInvalidDelta = errors.New("input: mouse delta is not finite")
)

// MaxHeldKeys caps the key set so a misbehaving client can't grow it unbounded
const MaxHeldKeys = 32

// MaxMouseDelta bounds the pixels accumulated per axis between frames
const MaxMouseDelta = 10000.0

// Event is one raw input event as sent by a client.
type Event struct {
	Type EventType `json:"type"`
	Code string    `json:"code,omitempty"`
	DX   float64   `json:"dx,omitempty"`
	DY   float64   `json:"dy,omitempty"`
}

// Source is what entities read during their update.
type Source interface {
	IsPressed(code string) bool
	ConsumeMouseDelta() (dx, dy float64)
	HasActiveMovement() bool
}

// Sampler is the default Source.
type Sampler struct {
	mu     sync.Mutex
	keys   map[string]struct{}
	mouseX float64
	mouseY float64
}

// NewSampler creates a sampler with nothing pressed
func NewSampler() *Sampler {
	return &Sampler{keys: make(map[string]struct{})}
}

// Press marks a key as held
func (s *Sampler) Press(code string) error {
	if code == "" {
		return ErrMissingCode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.keys[code]; !held && len(s.keys) >= MaxHeldKeys {
		return ErrMaxKeys
	}
	s.keys[code] = struct{}{}
	return nil
}

// Release marks a key as up
func (s *Sampler) Release(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, code)
}

// AddMouseDelta accumulates relative pointer motion until the next consume.
// Non-finite deltas are dropped and the running sum is clamped per axis.
func (s *Sampler) AddMouseDelta(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouseX = clampDelta(s.mouseX + dx)
	s.mouseY = clampDelta(s.mouseY + dy)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampDelta(v float64) float64 {
	return math.Max(-MaxMouseDelta, math.Min(MaxMouseDelta, v))
}

// Reset releases all keys and drops pending mouse motion
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]struct{})
	s.mouseX, s.mouseY = 0, 0
}

// IsPressed reports whether code is held
func (s *Sampler) IsPressed(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[code]
	return ok
}

// ConsumeMouseDelta returns the accumulated motion and zeroes it.
func (s *Sampler) ConsumeMouseDelta() (dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy = s.mouseX, s.mouseY
	s.mouseX, s.mouseY = 0, 0
	return dx, dy
}

// HasActiveMovement reports whether any movement or fire key is held
func (s *Sampler) HasActiveMovement() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range movementKeys {
		if _, ok := s.keys[k]; ok {
			return true
		}
	}
	return false
}

// Pressed returns the held key codes (unordered)
func (s *Sampler) Pressed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}

// Apply feeds one raw event into the sampler.
func (s *Sampler) Apply(ev Event) error {
	switch ev.Type {
	case EventKeyDown:
		return s.Press(ev.Code)
	case EventKeyUp:
		if ev.Code == "" {
			return ErrMissingCode
		}
		s.Release(ev.Code)
	case EventMouseMove:
		if !finite(ev.DX) || !finite(ev.DY) {
			return ErrInvalidDelta
		}
		s.AddMouseDelta(ev.DX, ev.DY)
	case EventBlur:
		s.Reset()
	default:
		return errors.Wrapf(ErrUnknownEvent, "%q", ev.Type)
	}
	return nil
}

// DecodeEvents parses either a single event object or an array of events.
func DecodeEvents(data []byte) ([]Event, error) {
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		var events []Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, errors.Wrap(err, "decode input events")
		}
		return events, nil
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, errors.Wrap(err, "decode input event")
	}
	return []Event{ev}, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
