// Package audio mixes sound effects and the soundtrack in-process with beep.
// Sounds are decoded (or synthesised) off the frame thread and buffered by key;
// callers get a Playback handle that resolves once the sound is scheduled.
package audio

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
	"github.com/pkg/errors"

	"corridor/internal/debug"
)

// Engine states reported through the audio_state flag
const (
	StateReady    = "ready"
	StateDisabled = "disabled"
	StateClosed   = "closed"
)

// MethodBuffer is the only playback method: decoded PCM through the mixer
const MethodBuffer = "buffer"

// MaxVoices bounds concurrently mixed sounds. Scheduling past it steals the
// oldest voice, so an engine nobody pumps never fills up.
const MaxVoices = 16

var (
	ErrMissingKey        = errors.New("audio: playback request without key")
	ErrUnsupportedSource = errors.New("audio: unsupported source")
	ErrUnknownSynth      = errors.New("audio: unknown synth")
	ErrEngineClosed      = errors.New("audio: engine closed")
)

// Config holds mixer configuration
type Config struct {
	Enabled    bool
	SampleRate int     // Hz, 44100 by default
	Volume     float64 // master gain 0.0-1.0
}

// DefaultConfig returns an enabled 44.1kHz mixer at full volume
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		SampleRate: 44100,
		Volume:     1.0,
	}
}

// Engine is the audio collaborator
type Engine struct {
	mu      sync.Mutex
	format  beep.Format
	mixer   *beep.Mixer
	active  []*voice // oldest first
	volume  float64
	state   string
	buffers map[string]*beep.Buffer
	loading map[string]*sync.Mutex
	rng     *rand.Rand
	debug   *debug.Metrics

	// work is reused by ReadSamples
	work [][2]float64
}

// NewEngine creates a mixer. dbg may be nil in tests that don't care.
func NewEngine(cfg Config, dbg *debug.Metrics) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if dbg == nil {
		dbg = debug.NewMetrics()
	}

	e := &Engine{
		format: beep.Format{
			SampleRate:  beep.SampleRate(cfg.SampleRate),
			NumChannels: 2,
			Precision:   2,
		},
		mixer:   &beep.Mixer{},
		volume:  clamp01(cfg.Volume),
		state:   StateReady,
		buffers: make(map[string]*beep.Buffer),
		loading: make(map[string]*sync.Mutex),
		rng:     rand.New(rand.NewSource(1)),
		debug:   dbg,
	}
	if !cfg.Enabled {
		e.state = StateDisabled
	}
	dbg.SetFlagQuiet("audio_state", e.state)
	return e
}

// Format returns the mixer output format
func (e *Engine) Format() beep.Format {
	return e.format
}

// State returns ready, disabled or closed
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PlaySegmented loads (or reuses) the buffer for req.Key and schedules it on
// the mixer with the gain dropping to req.HalfGain at the midpoint. It never
// blocks: loading happens on its own goroutine.
func (e *Engine) PlaySegmented(req Request) *Playback {
	p := newPlayback()

	if req.Key == "" {
		e.fail(p, req, ErrMissingKey)
		return p
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != StateReady {
		e.debug.IncrementCounter("audio_playbacks_skipped", 1)
		p.resolve(nil)
		return p
	}

	go func() {
		buf, err := e.loadBuffer(req.Key, req.URL)
		if err != nil {
			e.fail(p, req, err)
			return
		}
		res, err := e.schedule(req, buf, nil)
		if err != nil {
			e.fail(p, req, err)
			return
		}
		p.resolve(res)
	}()

	return p
}

// schedule adds a buffered sound to the mixer. onEnd runs on the mixing
// goroutine once the sound has drained.
func (e *Engine) schedule(req Request, buf *beep.Buffer, onEnd func()) (*Result, error) {
	halfGain := req.HalfGain
	if halfGain == 0 {
		halfGain = 1
	}

	length := buf.Len()
	seg := newSegmentedGain(buf.Streamer(0, length), length, halfGain)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateClosed {
		return nil, ErrEngineClosed
	}
	for len(e.active) >= MaxVoices {
		e.stealOldestLocked()
	}

	gain := &effects.Gain{Streamer: seg, Gain: e.volume - 1}
	v := &voice{}
	v.streamer = beep.Seq(gain, beep.Callback(func() {
		// called from Stream, e.mu already held
		e.removeVoiceLocked(v)
		e.debug.IncrementCounter("audio_playbacks_completed", 1)
		if onEnd != nil {
			go onEnd()
		}
	}))
	e.active = append(e.active, v)
	e.mixer.Add(v)

	e.debug.IncrementCounter("audio_playbacks_started", 1)
	e.debug.SetFlagQuiet("audio_last_key", req.Key)
	e.debug.SetFlagQuiet("audio_last_playback", MethodBuffer)

	return &Result{
		Method:   MethodBuffer,
		Duration: e.format.SampleRate.D(length),
	}, nil
}

func (e *Engine) fail(p *Playback, req Request, err error) {
	e.debug.IncrementCounter("audio_playbacks_failed", 1)
	e.debug.SetFlagQuiet("audio_last_error", err.Error())
	e.debug.RecordError(errors.Wrapf(err, "play %q", req.Key))
	p.resolve(nil)
}

// loadBuffer returns the cached buffer for key, decoding url on first use.
// Concurrent loads of the same key decode once.
func (e *Engine) loadBuffer(key, url string) (*beep.Buffer, error) {
	e.mu.Lock()
	if buf, ok := e.buffers[key]; ok {
		e.mu.Unlock()
		return buf, nil
	}
	keyLock, ok := e.loading[key]
	if !ok {
		keyLock = &sync.Mutex{}
		e.loading[key] = keyLock
	}
	e.mu.Unlock()

	keyLock.Lock()
	defer keyLock.Unlock()

	e.mu.Lock()
	if buf, ok := e.buffers[key]; ok {
		e.mu.Unlock()
		return buf, nil
	}
	e.mu.Unlock()

	buf, err := e.decode(url)
	if err != nil {
		e.debug.IncrementCounter("audio_load_failures", 1)
		return nil, err
	}
	e.debug.IncrementCounter("audio_load_successes", 1)

	e.mu.Lock()
	e.buffers[key] = buf
	e.mu.Unlock()
	return buf, nil
}

func (e *Engine) decode(url string) (*beep.Buffer, error) {
	if strings.HasPrefix(url, SynthPrefix) {
		name := strings.TrimPrefix(url, SynthPrefix)
		gen, ok := synths[name]
		if !ok {
			return nil, errors.Wrap(ErrUnknownSynth, name)
		}
		e.mu.Lock()
		seed := e.rng.Int63()
		e.mu.Unlock()

		buf := beep.NewBuffer(e.format)
		buf.Append(gen(e.format.SampleRate, rand.New(rand.NewSource(seed))))
		e.debug.IncrementCounter("sfx_"+name+"_generated", 1)
		return buf, nil
	}

	f, err := os.Open(url)
	if err != nil {
		return nil, errors.Wrap(err, "open audio source")
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(url)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		return nil, errors.Wrap(ErrUnsupportedSource, url)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", url)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != e.format.SampleRate {
		src = beep.Resample(4, format.SampleRate, e.format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(e.format)
	buf.Append(src)
	if err := streamer.Err(); err != nil {
		return nil, errors.Wrapf(err, "stream %s", url)
	}
	return buf, nil
}

// ReadSamples fills buffer with mixed interleaved stereo int16 PCM.
// Silence when nothing is playing. Always returns len(buffer) rounded down to
// whole stereo frames.
func (e *Engine) ReadSamples(buffer []int16) int {
	frames := len(buffer) / 2

	e.mu.Lock()
	defer e.mu.Unlock()

	if cap(e.work) < frames {
		e.work = make([][2]float64, frames)
	}
	work := e.work[:frames]

	if e.state != StateReady {
		for i := range buffer[:frames*2] {
			buffer[i] = 0
		}
		return frames * 2
	}

	e.mixer.Stream(work)
	for i := 0; i < frames; i++ {
		buffer[i*2] = floatToInt16(work[i][0])
		buffer[i*2+1] = floatToInt16(work[i][1])
	}
	return frames * 2
}

// voice wraps one scheduled sound so it can be cut off before it drains
type voice struct {
	streamer beep.Streamer
	stopped  bool
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	if v.stopped {
		return 0, false
	}
	return v.streamer.Stream(samples)
}

func (v *voice) Err() error { return v.streamer.Err() }

func (e *Engine) removeVoiceLocked(v *voice) {
	for i, a := range e.active {
		if a == v {
			e.active = append(e.active[:i], e.active[i+1:]...)
			return
		}
	}
}

// stealOldestLocked cuts the oldest voice and rebuilds the mixer so stopped
// streamers don't pile up when ReadSamples is never called.
func (e *Engine) stealOldestLocked() {
	oldest := e.active[0]
	oldest.stopped = true
	e.active = e.active[1:]

	e.mixer.Clear()
	for _, v := range e.active {
		e.mixer.Add(v)
	}
	e.debug.IncrementCounter("audio_voices_stolen", 1)
}

// Active returns the number of sounds currently on the mixer
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Close stops all playback; later requests resolve to nil
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mixer.Clear()
	e.active = nil
	e.state = StateClosed
	e.debug.SetFlagQuiet("audio_state", e.state)
	log.Printf("🔇 Audio engine closed")
}

func (e *Engine) String() string {
	return fmt.Sprintf("audio(%dHz, %s)", e.format.SampleRate, e.State())
}

// floatToInt16 converts a -1..1 sample with soft clipping above ±30000
func floatToInt16(sample float64) int16 {
	scaled := sample * 32767.0

	if scaled > 30000 {
		scaled = 30000 + (scaled-30000)/4
	} else if scaled < -30000 {
		scaled = -30000 + (scaled+30000)/4
	}

	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}
