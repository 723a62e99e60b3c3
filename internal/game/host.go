package game

import (
	"context"
	"log"
	"sync"
	"time"
)

// FrameHost schedules the next frame callback with a timestamp in
// milliseconds. At most one callback is outstanding at a time.
type FrameHost interface {
	RequestFrame(cb func(timestamp float64))
}

// TickerHost delivers requested frames on a time.Ticker. A request made
// between ticks waits for the next tick; ticks with no request are skipped.
type TickerHost struct {
	fps     int
	mu      sync.Mutex
	pending func(float64)
	started time.Time
}

// NewTickerHost creates a host at fps frames per second
func NewTickerHost(fps int) *TickerHost {
	if fps <= 0 {
		fps = 30
	}
	return &TickerHost{fps: fps, started: time.Now()}
}

// RequestFrame implements FrameHost
func (h *TickerHost) RequestFrame(cb func(timestamp float64)) {
	h.mu.Lock()
	h.pending = cb
	h.mu.Unlock()
}

// Run delivers frames until ctx is cancelled
func (h *TickerHost) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	log.Printf("⏱️ Frame host ticking at %d FPS", h.fps)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.mu.Lock()
			cb := h.pending
			h.pending = nil
			h.mu.Unlock()

			if cb != nil {
				cb(float64(now.Sub(h.started)) / float64(time.Millisecond))
			}
		}
	}
}

// ManualHost queues requests until Step is called. Used by headless runs
// and tests to drive frames with synthetic timestamps.
type ManualHost struct {
	mu       sync.Mutex
	pending  func(float64)
	requests int
}

// RequestFrame implements FrameHost
func (h *ManualHost) RequestFrame(cb func(timestamp float64)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = cb
	h.requests++
}

// Step runs the outstanding callback, reporting false when none was requested
func (h *ManualHost) Step(timestamp float64) bool {
	h.mu.Lock()
	cb := h.pending
	h.pending = nil
	h.mu.Unlock()

	if cb == nil {
		return false
	}
	cb(timestamp)
	return true
}

// Pending reports whether a frame has been requested and not yet run
func (h *ManualHost) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// Requests returns the total number of RequestFrame calls
func (h *ManualHost) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}
