package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/debug"
	"corridor/internal/input"
	"corridor/internal/level"
)

// countingRenderer records scenes and fails while failures > 0
type countingRenderer struct {
	mu       sync.Mutex
	calls    int
	failures int
	last     *Scene
}

func (r *countingRenderer) Render(s *Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = s
	if r.failures > 0 {
		r.failures--
		return errors.New("surface lost")
	}
	return nil
}

func (r *countingRenderer) setFailures(n int) {
	r.mu.Lock()
	r.failures = n
	r.mu.Unlock()
}

// faultyEntity fails (or panics) while fail > 0
type faultyEntity struct {
	fail   int
	panics bool
	dead   bool
}

func (f *faultyEntity) Kind() Kind { return "faulty" }
func (f *faultyEntity) Position() mgl64.Vec3 { return mgl64.Vec3{} }
func (f *faultyEntity) Size() float64 { return 1 }
func (f *faultyEntity) Color() string { return "#ffffff" }
func (f *faultyEntity) Dead() bool { return f.dead }
func (f *faultyEntity) Update(*UpdateContext) (Entity, error) {
	if f.fail <= 0 {
		return nil, nil
	}
	f.fail--
	if f.panics {
		panic("entity blew up")
	}
	return nil, errors.New("entity exploded")
}

// openLevel is a single open tile large enough to walk around in
func openLevel(t *testing.T) *level.Level {
	t.Helper()
	l, err := level.New([][]int{{0}}, 512)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	return l
}

func mustLevel(t *testing.T, tiles [][]int, size float64) *level.Level {
	t.Helper()
	l, err := level.New(tiles, size)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	return l
}

// barePlayer spawns at the origin of the open level without a rifle
func barePlayer() *Player {
	cfg := DefaultPlayerConfig()
	cfg.Spawn = mgl64.Vec3{0, 16, 0}
	return NewPlayer(cfg, nil)
}

type testRig struct {
	engine   *Engine
	host     *ManualHost
	input    *input.Sampler
	debug    *debug.Metrics
	renderer *countingRenderer
}

func newRig(t *testing.T, lvl *level.Level, entities ...Entity) *testRig {
	t.Helper()
	rig := &testRig{
		host:     &ManualHost{},
		input:    input.NewSampler(),
		debug:    debug.NewMetrics(),
		renderer: &countingRenderer{},
	}
	eng, err := NewEngine(EngineConfig{
		Renderer: rig.renderer,
		Level:    lvl,
		Debug:    rig.debug,
		Input:    rig.input,
		Host:     rig.host,
		Entities: entities,
		Clock:    func() time.Time { return time.Unix(0, 0) },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rig.engine = eng
	return rig
}

// updateContext builds a context for driving entities directly
func updateContext(lvl *level.Level, in input.Source, delta float64, player *Player) *UpdateContext {
	return &UpdateContext{
		Delta:  delta,
		Now:    time.Unix(0, 0),
		Input:  in,
		Level:  lvl,
		Audio:  noAudio{},
		Debug:  debug.NewMetrics(),
		Player: player,
	}
}

func near(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}
