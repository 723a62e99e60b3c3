package game

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EnemyStatus is published as the enemy_status debug flag
type EnemyStatus string

const (
	EnemyIdle      EnemyStatus = "idle"
	EnemyAdvancing EnemyStatus = "advancing"
	EnemyEngaged   EnemyStatus = "engaged"
	EnemyBlocked   EnemyStatus = "blocked"
)

// EnemyConfig holds pursuit tuning
type EnemyConfig struct {
	Spawn           mgl64.Vec3
	Size            float64
	Color           string
	Speed           float64 // units per second
	WanderAmplitude float64 // lateral offset around the player
	WanderPeriod    float64 // seconds; offset is sin(t / period)
	EngageRadius    float64 // holds position inside this distance of its target
}

// DefaultEnemyConfig spawns at (320, 200) on the floor plan
func DefaultEnemyConfig() EnemyConfig {
	return EnemyConfig{
		Spawn:           mgl64.Vec3{320, 0, 200},
		Size:            18,
		Color:           "#ff5e5e",
		Speed:           30,
		WanderAmplitude: 48,
		WanderPeriod:    0.5,
		EngageRadius:    24,
	}
}

// Enemy walks toward a point that swings side to side around the player.
// When the direct step is blocked it tries a sidestep either way.
type Enemy struct {
	cfg      EnemyConfig
	position mgl64.Vec3
	status   EnemyStatus
	dead     bool
}

// NewEnemy creates an idle enemy at cfg.Spawn
func NewEnemy(cfg EnemyConfig) *Enemy {
	return &Enemy{
		cfg:      cfg,
		position: cfg.Spawn,
		status:   EnemyIdle,
	}
}

func (e *Enemy) Kind() Kind { return KindEnemy }
func (e *Enemy) Position() mgl64.Vec3 { return e.position }
func (e *Enemy) Size() float64 { return e.cfg.Size }
func (e *Enemy) Color() string { return e.cfg.Color }
func (e *Enemy) Dead() bool { return e.dead }

// Status returns the pursuit status from the last update
func (e *Enemy) Status() EnemyStatus { return e.status }

// SetPosition teleports the enemy
func (e *Enemy) SetPosition(pos mgl64.Vec3) { e.position = pos }

// Target returns the point the enemy steers toward at time now
func (e *Enemy) Target(player mgl64.Vec3, now time.Time) mgl64.Vec2 {
	self := mgl64.Vec2{e.position.X(), e.position.Z()}
	goal := mgl64.Vec2{player.X(), player.Z()}

	line := goal.Sub(self)
	dist := line.Len()
	if dist == 0 {
		return goal
	}
	perp := mgl64.Vec2{-line.Y(), line.X()}.Mul(1 / dist)

	t := float64(now.UnixNano()) / float64(time.Second)
	offset := math.Sin(t/e.cfg.WanderPeriod) * e.cfg.WanderAmplitude
	return goal.Add(perp.Mul(offset))
}

func (e *Enemy) Update(ctx *UpdateContext) (Entity, error) {
	player := ctx.Player
	if player == nil || player.Dead() {
		e.setStatus(ctx, EnemyIdle)
		return nil, nil
	}

	self := mgl64.Vec2{e.position.X(), e.position.Z()}
	target := e.Target(player.Position(), ctx.Now)

	toTarget := target.Sub(self)
	dist := toTarget.Len()
	if dist <= e.cfg.EngageRadius {
		e.setStatus(ctx, EnemyEngaged)
		return nil, nil
	}

	step := math.Min(e.cfg.Speed*ctx.Delta, dist)
	dir := toTarget.Mul(1 / dist)

	next, ok := e.chooseStep(ctx, self, dir, step, target)
	if !ok {
		e.setStatus(ctx, EnemyBlocked)
		return nil, nil
	}

	e.position[0] = next.X()
	e.position[2] = next.Y()
	if !finiteVec(e.position) {
		return nil, ErrNonFinitePosition
	}
	e.setStatus(ctx, EnemyAdvancing)
	return nil, nil
}

// chooseStep returns the direct step if open, otherwise the open sidestep
// closest to target.
func (e *Enemy) chooseStep(ctx *UpdateContext, self, dir mgl64.Vec2, step float64, target mgl64.Vec2) (mgl64.Vec2, bool) {
	direct := self.Add(dir.Mul(step))
	if !ctx.Level.IsWallAt(direct.X(), direct.Y()) {
		return direct, true
	}

	side := mgl64.Vec2{-dir.Y(), dir.X()}.Mul(step)
	best, found := mgl64.Vec2{}, false
	bestDist := math.Inf(1)
	for _, candidate := range []mgl64.Vec2{self.Add(side), self.Sub(side)} {
		if ctx.Level.IsWallAt(candidate.X(), candidate.Y()) {
			continue
		}
		if d := target.Sub(candidate).Len(); d < bestDist {
			best, bestDist, found = candidate, d, true
		}
	}
	return best, found
}

func (e *Enemy) setStatus(ctx *UpdateContext, s EnemyStatus) {
	e.status = s
	ctx.Debug.SetFlag("enemy_status", string(s))
}
