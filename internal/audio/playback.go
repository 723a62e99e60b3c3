package audio

import (
	"sync"
	"time"
)

// Request describes one segmented playback. Gain drops from 1 to HalfGain
// once the sound is half-way through.
type Request struct {
	Key      string
	URL      string
	HalfGain float64
}

// Result is what a successful playback resolves to
type Result struct {
	Method   string        `json:"method"`
	Duration time.Duration `json:"duration"`
}

// Playback is a handle to a dispatched sound. It resolves exactly once,
// to a Result or to nil when the sound could not be played.
type Playback struct {
	done   chan struct{}
	once   sync.Once
	result *Result
}

func newPlayback() *Playback {
	return &Playback{done: make(chan struct{})}
}

// Resolved returns a playback that has already settled to r
func Resolved(r *Result) *Playback {
	p := newPlayback()
	p.resolve(r)
	return p
}

func (p *Playback) resolve(r *Result) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}

// Done is closed once the playback has resolved
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Result returns the resolved value; only meaningful after Done is closed.
func (p *Playback) Result() *Result {
	select {
	case <-p.done:
		return p.result
	default:
		return nil
	}
}

// Poll checks without blocking. ready is false while loading is in flight.
func (p *Playback) Poll() (res *Result, ready bool) {
	select {
	case <-p.done:
		return p.result, true
	default:
		return nil, false
	}
}

// Wait blocks until resolved or the timeout passes.
func (p *Playback) Wait(timeout time.Duration) (*Result, bool) {
	select {
	case <-p.done:
		return p.result, true
	case <-time.After(timeout):
		return nil, false
	}
}
