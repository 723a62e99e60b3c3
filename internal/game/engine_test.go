package game

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/debug"
	"corridor/internal/input"
	"corridor/internal/level"
)

// TestNewEngineValidation verifies missing collaborators are reported
func TestNewEngineValidation(t *testing.T) {
	lvl := level.Primary()
	full := func() EngineConfig {
		return EngineConfig{
			Renderer: &countingRenderer{},
			Level:    lvl,
			Debug:    debug.NewMetrics(),
			Input:    input.NewSampler(),
			Host:     &ManualHost{},
		}
	}

	tests := []struct {
		name   string
		mutate func(*EngineConfig)
		want   error
	}{
		{"no renderer", func(c *EngineConfig) { c.Renderer = nil }, ErrMissingSurface},
		{"no level", func(c *EngineConfig) { c.Level = nil }, ErrMissingLevel},
		{"no debug", func(c *EngineConfig) { c.Debug = nil }, ErrMissingDebug},
		{"no input", func(c *EngineConfig) { c.Input = nil }, ErrMissingInput},
		{"no host", func(c *EngineConfig) { c.Host = nil }, ErrMissingHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full()
			tt.mutate(&cfg)
			eng, err := NewEngine(cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if eng != nil {
				t.Error("Engine must be nil on configuration error")
			}
		})
	}
}

// TestNewEngineDefaults verifies the default spawn and derived camera
func TestNewEngineDefaults(t *testing.T) {
	rig := newRig(t, level.Primary())
	eng := rig.engine

	ents := eng.Entities()
	if len(ents) != 2 {
		t.Fatalf("Expected player and enemy, got %d entities", len(ents))
	}
	if ents[0].Kind() != KindPlayer || ents[1].Kind() != KindEnemy {
		t.Errorf("Unexpected kinds %s, %s", ents[0].Kind(), ents[1].Kind())
	}

	cam := eng.Camera()
	if cam.Position != (mgl64.Vec3{64, 34, 64}) {
		t.Errorf("Camera should sit at the player's eye, got %v", cam.Position)
	}
	if eng.State() != StateIdle {
		t.Errorf("Expected idle, got %s", eng.State())
	}
	if got := rig.debug.GetFlag("rifle_ammo"); got != 12 {
		t.Errorf("Expected rifle_ammo 12, got %v", got)
	}

	snap := eng.Snapshot()
	if snap == nil || snap.Rifle == nil || snap.Rifle.Ammo != 12 {
		t.Fatalf("Expected initial snapshot with rifle, got %+v", snap)
	}
}

// TestForwardOneSecond walks forward for one second on an open tile
func TestForwardOneSecond(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	if err := rig.engine.Update(1.0); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pos := player.Position()
	if pos.Z() != 140 || pos.X() != 0 {
		t.Errorf("Expected (0, 140), got (%v, %v)", pos.X(), pos.Z())
	}
}

// TestForwardMotionIncreases verifies each forward frame moves along +Z
func TestForwardMotionIncreases(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	last := player.Position().Z()
	for i := 0; i < 20; i++ {
		if err := rig.engine.Update(0.016); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		z := player.Position().Z()
		if z <= last {
			t.Fatalf("Frame %d: z did not increase (%v -> %v)", i, last, z)
		}
		last = z
	}
}

// TestScheduledFrames drives ten 100ms frames through the host
func TestScheduledFrames(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	rig.engine.Start()
	for i := 0; i <= 10; i++ {
		if !rig.host.Step(float64(i * 100)) {
			t.Fatalf("Frame %d was not requested", i)
		}
	}

	if z := player.Position().Z(); !near(z, 140, 1e-9) {
		t.Errorf("Expected z=140 after 1s, got %v", z)
	}
	if rig.engine.FrameCount() != 11 {
		t.Errorf("Expected 11 frames, got %d", rig.engine.FrameCount())
	}
	if !near(rig.engine.Snapshot().FPS, 10, 1e-9) {
		t.Errorf("Expected 10 FPS estimate, got %v", rig.engine.Snapshot().FPS)
	}
}

// TestFirstFrameZeroDelta verifies the first frame does not move anything
func TestFirstFrameZeroDelta(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	rig.engine.Start()
	rig.host.Step(5000)

	if z := player.Position().Z(); z != 0 {
		t.Errorf("First frame should use delta 0, moved to %v", z)
	}
}

// TestDeltaClamp verifies long gaps are clamped to MaxDelta
func TestDeltaClamp(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	rig.engine.Start()
	rig.host.Step(0)
	rig.host.Step(5000)

	if z := player.Position().Z(); !near(z, 14, 1e-9) {
		t.Errorf("Expected clamped step of 14, got %v", z)
	}
}

// TestNegativeDeltaIsZero verifies clock regressions do not move backwards
func TestNegativeDeltaIsZero(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	rig.engine.Start()
	rig.host.Step(1000)
	rig.host.Step(900)

	if z := player.Position().Z(); z != 0 {
		t.Errorf("Negative delta should be treated as 0, got z=%v", z)
	}
}

// TestHaltAfterThreeFaults verifies the engine halts and stops requesting frames
func TestHaltAfterThreeFaults(t *testing.T) {
	rig := newRig(t, openLevel(t), barePlayer())
	rig.renderer.setFailures(100)

	rig.engine.Start()
	for i := 0; i < 3; i++ {
		if !rig.host.Step(float64(i * 16)) {
			t.Fatalf("Frame %d was not requested", i)
		}
		if i < 2 && rig.engine.State() != StateDegraded {
			t.Errorf("Frame %d: expected degraded, got %s", i, rig.engine.State())
		}
	}

	if rig.engine.State() != StateHalted {
		t.Fatalf("Expected halted, got %s", rig.engine.State())
	}
	if rig.engine.Running() {
		t.Error("Halted engine must not be running")
	}
	if rig.host.Pending() {
		t.Error("No frame may be requested after halting")
	}
	if rig.engine.Faults() != 3 {
		t.Errorf("Expected 3 faults, got %d", rig.engine.Faults())
	}
	if rig.debug.ErrorCount() != 3 {
		t.Errorf("Expected 3 recorded errors, got %d", rig.debug.ErrorCount())
	}
	if rig.engine.Snapshot().LastError == "" {
		t.Error("Snapshot should carry the last error")
	}
}

// TestRecoveryResetsFaults verifies a clean frame clears the counter
func TestRecoveryResetsFaults(t *testing.T) {
	for failures := 1; failures <= 2; failures++ {
		rig := newRig(t, openLevel(t), barePlayer())
		rig.renderer.setFailures(failures)

		rig.engine.Start()
		for i := 0; i <= failures; i++ {
			rig.host.Step(float64(i * 16))
		}

		if rig.engine.Faults() != 0 {
			t.Errorf("%d failures: expected counter 0, got %d", failures, rig.engine.Faults())
		}
		if rig.engine.State() != StateRunning {
			t.Errorf("%d failures: expected running, got %s", failures, rig.engine.State())
		}
		if !rig.host.Pending() {
			t.Errorf("%d failures: next frame should be requested", failures)
		}
	}
}

// TestUpdatePanicIsFault verifies a panicking entity degrades the frame
func TestUpdatePanicIsFault(t *testing.T) {
	bad := &faultyEntity{fail: 1, panics: true}
	rig := newRig(t, openLevel(t), barePlayer(), bad)

	rig.engine.Start()
	rig.host.Step(0)

	if rig.engine.State() != StateDegraded || rig.engine.Faults() != 1 {
		t.Errorf("Expected degraded with 1 fault, got %s/%d", rig.engine.State(), rig.engine.Faults())
	}
	if !rig.host.Pending() {
		t.Error("A single fault must not stop the loop")
	}

	rig.host.Step(16)
	if rig.engine.State() != StateRunning {
		t.Errorf("Expected recovery, got %s", rig.engine.State())
	}
}

// TestEntityErrorWrapped verifies update errors carry the entity kind
func TestEntityErrorWrapped(t *testing.T) {
	bad := &faultyEntity{fail: 1}
	rig := newRig(t, openLevel(t), barePlayer(), bad)

	err := rig.engine.Update(0.016)
	var entErr *EntityError
	if !errors.As(err, &entErr) {
		t.Fatalf("Expected *EntityError, got %v", err)
	}
	if entErr.Kind != "faulty" || entErr.Index != 1 {
		t.Errorf("Unexpected entity error %+v", entErr)
	}
}

// TestStartFromHaltedResetsFaults verifies an explicit Start clears the counter
func TestStartFromHaltedResetsFaults(t *testing.T) {
	rig := newRig(t, openLevel(t), barePlayer())
	rig.renderer.setFailures(3)

	rig.engine.Start()
	for i := 0; i < 3; i++ {
		rig.host.Step(float64(i * 16))
	}
	if rig.engine.State() != StateHalted {
		t.Fatalf("Expected halted, got %s", rig.engine.State())
	}

	rig.engine.Start()
	if rig.engine.Faults() != 0 {
		t.Errorf("Start from halted should reset faults, got %d", rig.engine.Faults())
	}
	if !rig.host.Step(100) {
		t.Fatal("Start should request a frame")
	}
	if rig.engine.State() != StateRunning {
		t.Errorf("Expected running, got %s", rig.engine.State())
	}
}

// TestStopMakesCallbackNoop verifies an outstanding callback does nothing after Stop
func TestStopMakesCallbackNoop(t *testing.T) {
	rig := newRig(t, openLevel(t), barePlayer())

	rig.engine.Start()
	rig.engine.Stop()
	rig.engine.Stop()

	if !rig.host.Step(0) {
		t.Fatal("Expected the callback from Start to still be queued")
	}
	if rig.engine.FrameCount() != 0 {
		t.Error("Callback after Stop must not run a frame")
	}
	if rig.host.Pending() {
		t.Error("Callback after Stop must not request another frame")
	}
	if rig.engine.State() != StateIdle {
		t.Errorf("Expected idle, got %s", rig.engine.State())
	}
}

// TestStartTwice verifies Start on a running engine is a no-op
func TestStartTwice(t *testing.T) {
	rig := newRig(t, openLevel(t), barePlayer())
	rig.engine.Start()
	rig.engine.Start()

	if rig.host.Requests() != 1 {
		t.Errorf("Expected a single frame request, got %d", rig.host.Requests())
	}
}

// TestRestart verifies a stale callback from before Restart is ignored
func TestRestart(t *testing.T) {
	rig := newRig(t, openLevel(t), barePlayer())
	rig.renderer.setFailures(3)

	rig.engine.Start()
	for i := 0; i < 3; i++ {
		rig.host.Step(float64(i * 16))
	}
	rig.engine.Restart()

	if rig.engine.State() != StateRunning || rig.engine.Faults() != 0 {
		t.Fatalf("Expected running with no faults, got %s/%d", rig.engine.State(), rig.engine.Faults())
	}
	rig.host.Step(500)
	if rig.engine.FrameCount() != 4 {
		t.Errorf("Expected 4 frames total, got %d", rig.engine.FrameCount())
	}
}

// TestProjectileLifecycle verifies spawns are appended and expired ones removed
func TestProjectileLifecycle(t *testing.T) {
	cfg := DefaultPlayerConfig()
	cfg.Spawn = mgl64.Vec3{0, 16, 0}
	player := NewPlayer(cfg, NewRifle(DefaultRifleConfig()))
	rig := newRig(t, openLevel(t), player)

	rig.input.Press(input.KeyFire)
	if err := rig.engine.Update(0.016); err != nil {
		t.Fatal(err)
	}
	rig.input.Release(input.KeyFire)

	if n := len(rig.engine.Entities()); n != 2 {
		t.Fatalf("Expected player + projectile, got %d", n)
	}
	if player.Rifle().Ammo() != 11 {
		t.Errorf("Expected 11 rounds, got %d", player.Rifle().Ammo())
	}

	for i := 0; i < 2; i++ {
		rig.engine.Update(1.0)
	}
	if n := len(rig.engine.Entities()); n != 2 {
		t.Fatalf("Projectile should live 2.5s, got %d entities after 2s", n)
	}

	rig.engine.Update(1.0)
	if n := len(rig.engine.Entities()); n != 1 {
		t.Errorf("Expired projectile should be removed, got %d entities", n)
	}
}

// TestMaxEntities verifies spawns beyond the cap are dropped
func TestMaxEntities(t *testing.T) {
	cfg := DefaultPlayerConfig()
	cfg.Spawn = mgl64.Vec3{0, 16, 0}
	player := NewPlayer(cfg, NewRifle(DefaultRifleConfig()))

	dbg := debug.NewMetrics()
	eng, err := NewEngine(EngineConfig{
		Renderer:    &countingRenderer{},
		Level:       openLevel(t),
		Debug:       dbg,
		Input:       input.NewSampler(),
		Host:        &ManualHost{},
		Entities:    []Entity{player},
		MaxEntities: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	in := eng.input.(*input.Sampler)
	in.Press(input.KeyFire)
	eng.Update(0.016)

	if n := len(eng.Entities()); n != 1 {
		t.Errorf("Expected spawn to be dropped, got %d entities", n)
	}
	if dbg.GetCounter("entities_dropped") != 1 {
		t.Error("Expected entities_dropped counter")
	}
}

// TestRenderScene verifies the renderer gets the camera and weapon model
func TestRenderScene(t *testing.T) {
	rig := newRig(t, level.Primary())

	if err := rig.engine.Render(); err != nil {
		t.Fatal(err)
	}
	scene := rig.renderer.last
	if scene == nil {
		t.Fatal("Renderer was not called")
	}
	if scene.Weapon == nil {
		t.Error("Armed player should produce a weapon model")
	}
	if scene.HUD.Ammo != 12 || scene.HUD.MagazineSize != 12 {
		t.Errorf("Unexpected HUD %+v", scene.HUD)
	}
	if scene.Camera != rig.engine.Camera() {
		t.Error("Scene camera should match the engine camera")
	}
}

// TestSnapshotIsImmutable verifies later frames do not mutate old snapshots
func TestSnapshotIsImmutable(t *testing.T) {
	player := barePlayer()
	rig := newRig(t, openLevel(t), player)
	rig.input.Press(input.KeyForward)

	before := rig.engine.Snapshot()
	z := before.Entities[0].Position.Z()
	rig.engine.Update(0.5)
	after := rig.engine.Snapshot()

	if before.Entities[0].Position.Z() != z {
		t.Error("Published snapshot was mutated")
	}
	if after.Sequence <= before.Sequence {
		t.Error("Sequence should increase")
	}
	if after.Entities[0].Position.Z() != 70 {
		t.Errorf("Expected z=70 in new snapshot, got %v", after.Entities[0].Position.Z())
	}
}
