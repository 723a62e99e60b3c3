package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// SynthPrefix marks a URL that is generated rather than decoded
const SynthPrefix = "synth:"

// RifleShotURL is the procedural rifle report
const RifleShotURL = SynthPrefix + "rifle"

// Rifle report parameters
const (
	rifleShotDuration = 350 * time.Millisecond
	rifleShotTone     = 180.0 // Hz
	rifleShotToneMix  = 0.6
	rifleShotNoiseMix = 0.35
	rifleShotDecay    = 5.0 // envelope exp(-decay * t)
)

// synthFunc builds a finite streamer at the given rate
type synthFunc func(rate beep.SampleRate, rng *rand.Rand) beep.Streamer

var synths = map[string]synthFunc{
	"rifle": rifleShot,
}

// rifleShot is a decaying 180 Hz tone mixed with white noise.
func rifleShot(rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	total := rate.N(rifleShotDuration)
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			if pos >= total {
				return i, i > 0
			}
			t := float64(pos) / float64(rate)
			envelope := math.Exp(-rifleShotDecay * t)
			tone := math.Sin(2*math.Pi*rifleShotTone*t) * rifleShotToneMix
			noise := (rng.Float64()*2 - 1) * rifleShotNoiseMix

			v := clampUnit((tone + noise) * envelope)
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	})
}

// segmentedGain applies halfGain from sample `half` onwards
type segmentedGain struct {
	streamer beep.Streamer
	position int
	half     int
	halfGain float64
}

func newSegmentedGain(s beep.Streamer, length int, halfGain float64) *segmentedGain {
	return &segmentedGain{
		streamer: s,
		half:     length / 2,
		halfGain: clamp01(halfGain),
	}
}

func (g *segmentedGain) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if g.position >= g.half {
			samples[i][0] *= g.halfGain
			samples[i][1] *= g.halfGain
		}
		g.position++
	}
	return n, ok
}

func (g *segmentedGain) Err() error { return g.streamer.Err() }

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
