package audio

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var ErrNoTracks = errors.New("audio: soundtrack has no tracks")

// Track is one keyed soundtrack entry
type Track struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// DefaultTracks lists the four bundled loops under dir
func DefaultTracks(dir string) []Track {
	return []Track{
		{Key: "soundtrack_90s_chopped", URL: filepath.Join(dir, "90s-chopped.ogg")},
		{Key: "soundtrack_retro_wave", URL: filepath.Join(dir, "retro-wave-128bpm.ogg")},
		{Key: "soundtrack_patrik_loop", URL: filepath.Join(dir, "patrik-loop.ogg")},
		{Key: "soundtrack_techno_loop", URL: filepath.Join(dir, "techno-loop.ogg")},
	}
}

// Soundtrack plays its tracks back to back on the engine mixer, wrapping
// around at the end. A track that fails to load is skipped; a full lap of
// failures stops the queue.
type Soundtrack struct {
	engine *Engine
	tracks []Track

	mu         sync.Mutex
	index      int
	running    bool
	generation int
	failures   int
}

// NewSoundtrack creates a stopped queue
func NewSoundtrack(engine *Engine, tracks []Track) *Soundtrack {
	return &Soundtrack{
		engine: engine,
		tracks: append([]Track(nil), tracks...),
	}
}

// Start begins playback from the current track. Calling Start on a running
// soundtrack does nothing.
func (s *Soundtrack) Start() error {
	if len(s.tracks) == 0 {
		return ErrNoTracks
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.failures = 0
	s.generation++
	s.playLocked()
	return nil
}

// Stop prevents the next track from being queued. The current one plays out.
func (s *Soundtrack) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.generation++
}

// Running reports whether the queue is advancing
func (s *Soundtrack) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Current returns the track playing (or about to play)
func (s *Soundtrack) Current() Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks[s.index]
}

func (s *Soundtrack) playLocked() {
	track := s.tracks[s.index]
	gen := s.generation

	go func() {
		buf, err := s.engine.loadBuffer(track.Key, track.URL)
		if err == nil {
			req := Request{Key: track.Key, URL: track.URL, HalfGain: 1}
			_, err = s.engine.schedule(req, buf, func() { s.advance(gen, true) })
		}
		if err != nil {
			log.Printf("⚠️ Soundtrack track %s skipped: %v", track.Key, err)
			s.engine.debug.IncrementCounter("soundtrack_failures", 1)
			s.engine.debug.SetFlagQuiet("audio_last_error", err.Error())
			s.advance(gen, false)
			return
		}
		s.engine.debug.IncrementCounter("soundtrack_tracks_started", 1)
		s.engine.debug.SetFlagQuiet("soundtrack_track", track.Key)
	}()
}

// advance moves to the next track if gen is still current
func (s *Soundtrack) advance(gen int, played bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || gen != s.generation {
		return
	}

	if played {
		s.failures = 0
	} else {
		s.failures++
		if s.failures >= len(s.tracks) {
			log.Printf("🔇 Soundtrack stopped: no playable tracks")
			s.running = false
			return
		}
	}

	s.index = (s.index + 1) % len(s.tracks)
	s.playLocked()
}
