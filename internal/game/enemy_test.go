package game

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/input"
)

func playerAt(x, z float64) *Player {
	cfg := DefaultPlayerConfig()
	cfg.Spawn = mgl64.Vec3{x, 16, z}
	return NewPlayer(cfg, nil)
}

func enemyAt(x, z float64) *Enemy {
	cfg := DefaultEnemyConfig()
	cfg.Spawn = mgl64.Vec3{x, 0, z}
	return NewEnemy(cfg)
}

// TestEnemyAdvances verifies the direct step toward the player
func TestEnemyAdvances(t *testing.T) {
	enemy := enemyAt(100, 100)
	ctx := updateContext(openLevel(t), input.NewSampler(), 1, playerAt(300, 100))

	enemy.Update(ctx)

	pos := enemy.Position()
	if !near(pos.X(), 130, 1e-9) || !near(pos.Z(), 100, 1e-9) {
		t.Errorf("Expected (130, 100), got %v", pos)
	}
	if enemy.Status() != EnemyAdvancing {
		t.Errorf("Expected advancing, got %s", enemy.Status())
	}
}

// TestEnemyBlocked verifies a fully boxed-in enemy holds and reports it
func TestEnemyBlocked(t *testing.T) {
	lvl := mustLevel(t, [][]int{
		{1, 1, 1},
		{1, 0, 1},
		{1, 1, 1},
	}, 32)
	enemy := enemyAt(48, 48)
	ctx := updateContext(lvl, input.NewSampler(), 1, playerAt(248, 48))

	enemy.Update(ctx)

	if enemy.Position() != (mgl64.Vec3{48, 0, 48}) {
		t.Errorf("Blocked enemy must not move, got %v", enemy.Position())
	}
	if enemy.Status() != EnemyBlocked {
		t.Errorf("Expected blocked, got %s", enemy.Status())
	}
	if got := ctx.Debug.GetFlag("enemy_status"); got != "blocked" {
		t.Errorf("Expected enemy_status flag blocked, got %v", got)
	}
}

// TestEnemySidestep verifies the open side is taken when the direct step is blocked
func TestEnemySidestep(t *testing.T) {
	lvl := mustLevel(t, [][]int{
		{1, 1, 1},
		{1, 0, 1},
		{1, 0, 1},
		{1, 1, 1},
	}, 32)
	enemy := enemyAt(48, 48)
	ctx := updateContext(lvl, input.NewSampler(), 1, playerAt(248, 48))

	enemy.Update(ctx)

	pos := enemy.Position()
	if !near(pos.X(), 48, 1e-9) || !near(pos.Z(), 78, 1e-9) {
		t.Errorf("Expected sidestep to (48, 78), got %v", pos)
	}
	if enemy.Status() != EnemyAdvancing {
		t.Errorf("Expected advancing, got %s", enemy.Status())
	}
}

// TestEnemyEngaged verifies the enemy holds once close to its target
func TestEnemyEngaged(t *testing.T) {
	enemy := enemyAt(100, 100)
	ctx := updateContext(openLevel(t), input.NewSampler(), 1, playerAt(110, 100))

	enemy.Update(ctx)

	if enemy.Position() != (mgl64.Vec3{100, 0, 100}) {
		t.Errorf("Engaged enemy should hold, got %v", enemy.Position())
	}
	if enemy.Status() != EnemyEngaged {
		t.Errorf("Expected engaged, got %s", enemy.Status())
	}
}

// TestEnemyIdleWithoutPlayer verifies no player means no movement
func TestEnemyIdleWithoutPlayer(t *testing.T) {
	enemy := enemyAt(100, 100)
	ctx := updateContext(openLevel(t), input.NewSampler(), 1, nil)

	enemy.Update(ctx)

	if enemy.Status() != EnemyIdle || enemy.Position() != (mgl64.Vec3{100, 0, 100}) {
		t.Errorf("Expected idle in place, got %s at %v", enemy.Status(), enemy.Position())
	}
}

// TestEnemyWanderTarget verifies the lateral offset follows the clock
func TestEnemyWanderTarget(t *testing.T) {
	enemy := enemyAt(0, 0)
	player := mgl64.Vec3{0, 16, 100}

	// sin(t / 0.5) = 1 at t = 0.25*pi
	secs := 0.25 * math.Pi
	now := time.Unix(0, int64(secs*float64(time.Second)))
	target := enemy.Target(player, now)

	// perpendicular to +Z is -X
	if !near(target.X(), -48, 1e-6) || !near(target.Y(), 100, 1e-6) {
		t.Errorf("Expected target (-48, 100), got %v", target)
	}

	if target := enemy.Target(player, time.Unix(0, 0)); target != (mgl64.Vec2{0, 100}) {
		t.Errorf("Expected no offset at t=0, got %v", target)
	}
}
