package audio

import (
	"path/filepath"
	"testing"
	"time"

	"corridor/internal/debug"
)

// waitFor pumps the mixer until cond holds or the deadline passes
func waitFor(t *testing.T, e *Engine, deadline time.Duration, cond func() bool) {
	t.Helper()
	buf := make([]int16, 2048)
	end := time.Now().Add(deadline)
	for !cond() {
		if time.Now().After(end) {
			t.Fatal("condition not met before deadline")
		}
		e.ReadSamples(buf)
		time.Sleep(time.Millisecond)
	}
}

// TestSoundtrackCycles verifies tracks play in order and wrap around
func TestSoundtrackCycles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	writeTone(t, a, 44100, 20*time.Millisecond)
	writeTone(t, b, 44100, 20*time.Millisecond)

	dbg := debug.NewMetrics()
	e := NewEngine(DefaultConfig(), dbg)
	s := NewSoundtrack(e, []Track{
		{Key: "a", URL: a},
		{Key: "missing", URL: filepath.Join(dir, "missing.ogg")},
		{Key: "b", URL: b},
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Second Start should be a no-op, got %v", err)
	}

	waitFor(t, e, 5*time.Second, func() bool {
		return dbg.GetCounter("soundtrack_tracks_started") >= 3
	})

	if dbg.GetCounter("soundtrack_failures") < 1 {
		t.Error("Missing track should have been counted as a failure")
	}
	if !s.Running() {
		t.Error("One bad track must not stop the queue")
	}

	s.Stop()
	if s.Running() {
		t.Error("Stop should halt the queue")
	}
}

// TestSoundtrackAllMissing verifies a lap of failures stops the queue
func TestSoundtrackAllMissing(t *testing.T) {
	dbg := debug.NewMetrics()
	e := NewEngine(DefaultConfig(), dbg)
	s := NewSoundtrack(e, DefaultTracks(t.TempDir()))

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, e, 5*time.Second, func() bool { return !s.Running() })

	if got := dbg.GetCounter("soundtrack_failures"); got != 4 {
		t.Errorf("Expected 4 failures, got %d", got)
	}
}

// TestSoundtrackEmpty verifies an empty queue refuses to start
func TestSoundtrackEmpty(t *testing.T) {
	s := NewSoundtrack(NewEngine(DefaultConfig(), nil), nil)
	if err := s.Start(); err != ErrNoTracks {
		t.Errorf("Expected ErrNoTracks, got %v", err)
	}
}
