package game

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"corridor/internal/debug"
	"corridor/internal/input"
	"corridor/internal/level"
	"corridor/internal/metrics"
)

// State is the scheduler state
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDegraded
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDegraded:
		return "degraded"
	case StateHalted:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Scheduler defaults
const (
	DefaultFaultThreshold = 3
	DefaultMaxDelta       = 0.1 // seconds
	DefaultMaxEntities    = 256
)

// HUD is the text block drawn after the scene, beneath the weapon overlay
type HUD struct {
	FPS          float64
	Ammo         int
	MagazineSize int
	RifleState   RifleState
	EngineState  string
	Faults       int
}

// Scene is everything the renderer needs for one frame
type Scene struct {
	Level    *level.Level
	Camera   Camera
	Entities []Entity
	Weapon   *WeaponModel
	HUD      HUD
}

// Renderer draws a scene onto its surface
type Renderer interface {
	Render(scene *Scene) error
}

// EngineConfig wires the engine. Renderer, Level, Debug, Input and Host are
// required; everything else has a default.
type EngineConfig struct {
	Renderer Renderer
	Level    *level.Level
	Debug    *debug.Metrics
	Input    input.Source
	Host     FrameHost
	Audio    AudioPlayer

	FaultThreshold int
	MaxDelta       float64 // seconds; 0 uses the default, negative disables clamping
	MaxEntities    int

	// Entities replaces the default player + enemy spawn
	Entities []Entity
	Clock    func() time.Time
}

// Engine owns the entity list and runs update then render once per frame.
// A frame whose update or render fails is a fault; FaultThreshold faults in a
// row halt the loop until Start or Restart.
type Engine struct {
	mu sync.Mutex

	renderer Renderer
	level    *level.Level
	debug    *debug.Metrics
	input    input.Source
	host     FrameHost
	audio    AudioPlayer
	clock    func() time.Time

	faultThreshold int
	maxDelta       float64
	maxEntities    int

	entities []Entity
	player   *Player
	camera   Camera

	running    bool
	state      State
	generation uint64
	faults     int
	frame      uint64
	fps        float64
	lastStamp  float64
	hasStamp   bool
	lastErr    error

	sequence uint64
	snapshot atomic.Pointer[Snapshot]
}

// NewEngine validates the configuration and spawns the initial entities
func NewEngine(cfg EngineConfig) (*Engine, error) {
	switch {
	case cfg.Renderer == nil:
		return nil, ErrMissingSurface
	case cfg.Level == nil:
		return nil, ErrMissingLevel
	case cfg.Debug == nil:
		return nil, ErrMissingDebug
	case cfg.Input == nil:
		return nil, ErrMissingInput
	case cfg.Host == nil:
		return nil, ErrMissingHost
	}

	if cfg.FaultThreshold <= 0 {
		cfg.FaultThreshold = DefaultFaultThreshold
	}
	if cfg.MaxDelta == 0 {
		cfg.MaxDelta = DefaultMaxDelta
	}
	if cfg.MaxEntities <= 0 {
		cfg.MaxEntities = DefaultMaxEntities
	}
	if cfg.Audio == nil {
		cfg.Audio = noAudio{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	e := &Engine{
		renderer:       cfg.Renderer,
		level:          cfg.Level,
		debug:          cfg.Debug,
		input:          cfg.Input,
		host:           cfg.Host,
		audio:          cfg.Audio,
		clock:          cfg.Clock,
		faultThreshold: cfg.FaultThreshold,
		maxDelta:       cfg.MaxDelta,
		maxEntities:    cfg.MaxEntities,
		state:          StateIdle,
	}

	if cfg.Entities != nil {
		e.entities = append([]Entity(nil), cfg.Entities...)
	} else {
		e.spawnDefaults()
	}
	e.resolvePlayerLocked()
	e.deriveCameraLocked()

	e.mu.Lock()
	e.publishLocked()
	e.mu.Unlock()
	metrics.UpdateEngineState(int(e.state))

	return e, nil
}

func (e *Engine) spawnDefaults() {
	rifle := NewRifle(DefaultRifleConfig())
	e.entities = []Entity{
		NewPlayer(DefaultPlayerConfig(), rifle),
		NewEnemy(DefaultEnemyConfig()),
	}
	e.debug.SetFlag("rifle_ammo", rifle.Ammo())
	e.debug.SetFlag("rifle_state", string(RifleReady))
	e.debug.Log("Entities initialized", map[string]interface{}{"count": len(e.entities)})
}

// Start begins requesting frames. Starting a halted engine clears the fault
// counter; starting a running engine does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	if e.state == StateHalted {
		e.faults = 0
		metrics.UpdateFaults(0)
	}
	e.running = true
	e.state = StateRunning
	e.hasStamp = false
	e.generation++
	gen := e.generation
	e.publishLocked()
	e.mu.Unlock()

	metrics.UpdateEngineState(int(StateRunning))
	e.debug.Log("Engine start", nil)
	log.Printf("🎮 Engine started")

	e.host.RequestFrame(func(ts float64) { e.runFrame(gen, ts) })
}

// Stop makes the outstanding frame callback a no-op. Counters are kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	if e.state != StateHalted {
		e.state = StateIdle
	}
	state := e.state
	e.publishLocked()
	e.mu.Unlock()

	metrics.UpdateEngineState(int(state))
	e.debug.Log("Engine stopped", nil)
	log.Println("🛑 Engine stopped")
}

// Restart stops, clears the fault counter and starts again
func (e *Engine) Restart() {
	e.Stop()

	e.mu.Lock()
	e.faults = 0
	e.lastErr = nil
	if e.state == StateHalted {
		e.state = StateIdle
	}
	e.mu.Unlock()
	metrics.UpdateFaults(0)

	e.Start()
}

// Frame runs one frame for the current run. timestamp is in milliseconds.
func (e *Engine) Frame(timestamp float64) {
	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()
	e.runFrame(gen, timestamp)
}

func (e *Engine) runFrame(gen uint64, timestamp float64) {
	e.mu.Lock()
	if !e.running || gen != e.generation {
		e.mu.Unlock()
		return
	}

	delta := 0.0
	if e.hasStamp {
		delta = (timestamp - e.lastStamp) / 1000
		if delta < 0 {
			delta = 0
		}
	}
	e.lastStamp = timestamp
	e.hasStamp = true

	if delta > 0 {
		e.fps = 1 / delta
	} else {
		e.fps = 0
	}
	if e.maxDelta > 0 && delta > e.maxDelta {
		delta = e.maxDelta
	}
	e.frame++

	start := time.Now()
	upd := e.debug.Guard("update", func() error { return e.updateLocked(delta) })
	metrics.RecordPhase("update", upd.Duration, upd.OK)
	ren := e.debug.Guard("render", e.renderLocked)
	metrics.RecordPhase("render", ren.Duration, ren.OK)
	metrics.RecordFrame(time.Since(start))

	if upd.OK && ren.OK {
		e.faults = 0
		e.state = StateRunning
	} else {
		e.faults++
		e.state = StateDegraded
		if !upd.OK {
			e.lastErr = upd.Err
		} else {
			e.lastErr = ren.Err
		}
		if e.faults >= e.faultThreshold {
			e.running = false
			e.state = StateHalted
			e.debug.Log("Engine halted", map[string]interface{}{"faults": e.faults})
			log.Printf("⛔ Engine halted after %d consecutive faults: %v", e.faults, e.lastErr)
		}
	}

	metrics.UpdateFaults(e.faults)
	metrics.UpdateEngineState(int(e.state))
	e.publishLocked()

	next := e.running
	e.mu.Unlock()

	if next {
		e.host.RequestFrame(func(ts float64) { e.runFrame(gen, ts) })
	}
}

// Update runs one update phase outside the scheduler (headless, tests)
func (e *Engine) Update(delta float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.updateLocked(delta)
	e.publishLocked()
	return err
}

// Render runs one render phase outside the scheduler
func (e *Engine) Render() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderLocked()
}

func (e *Engine) updateLocked(delta float64) error {
	ctx := &UpdateContext{
		Delta:    delta,
		Now:      e.clock(),
		Input:    e.input,
		Level:    e.level,
		Entities: e.entities[:len(e.entities):len(e.entities)],
		Audio:    e.audio,
		Debug:    e.debug,
		Player:   e.player,
	}

	var spawned []Entity
	for i, ent := range ctx.Entities {
		spawn, err := ent.Update(ctx)
		if err != nil {
			return newEntityError(ent.Kind(), i, err)
		}
		if spawn != nil {
			spawned = append(spawned, spawn)
		}
	}

	for _, s := range spawned {
		if len(e.entities) >= e.maxEntities {
			e.debug.IncrementCounter("entities_dropped", 1)
			continue
		}
		e.entities = append(e.entities, s)
	}

	alive := e.entities[:0]
	for _, ent := range e.entities {
		if !ent.Dead() {
			alive = append(alive, ent)
		}
	}
	for i := len(alive); i < len(e.entities); i++ {
		e.entities[i] = nil
	}
	e.entities = alive

	e.resolvePlayerLocked()
	e.deriveCameraLocked()
	metrics.UpdateEntityCount(len(e.entities))
	return nil
}

func (e *Engine) renderLocked() error {
	scene := &Scene{
		Level:    e.level,
		Camera:   e.camera,
		Entities: append([]Entity(nil), e.entities...),
		HUD: HUD{
			FPS:         e.fps,
			EngineState: e.state.String(),
			Faults:      e.faults,
		},
	}
	if e.player != nil && e.player.Rifle() != nil {
		r := e.player.Rifle()
		wm := r.ViewModel()
		scene.Weapon = &wm
		scene.HUD.Ammo = r.Ammo()
		scene.HUD.MagazineSize = r.MagazineSize()
		scene.HUD.RifleState = r.State()
	}
	return e.renderer.Render(scene)
}

// resolvePlayerLocked finds the first live player slot
func (e *Engine) resolvePlayerLocked() {
	e.player = nil
	for _, ent := range e.entities {
		if p, ok := ent.(*Player); ok && !p.Dead() {
			e.player = p
			return
		}
	}
}

func (e *Engine) deriveCameraLocked() {
	if e.player == nil {
		return
	}
	e.camera = e.player.Camera()
	e.debug.SetFlagQuiet("camera_x", fmt.Sprintf("%.2f", e.camera.Position.X()))
	e.debug.SetFlagQuiet("camera_z", fmt.Sprintf("%.2f", e.camera.Position.Z()))
}

// State returns the scheduler state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Running reports whether frames are being requested
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Faults returns the consecutive fault count
func (e *Engine) Faults() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.faults
}

// FrameCount returns frames run since construction
func (e *Engine) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Camera returns the camera derived in the last update
func (e *Engine) Camera() Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.camera
}

// Player returns the current player, nil when there is none
func (e *Engine) Player() *Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player
}

// Entities returns a copy of the entity list
func (e *Engine) Entities() []Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Entity(nil), e.entities...)
}

// Level returns the immutable level
func (e *Engine) Level() *level.Level { return e.level }

// Debug returns the debug collaborator
func (e *Engine) Debug() *debug.Metrics { return e.debug }
