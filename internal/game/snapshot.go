package game

import (
	"time"
)

// RifleSnapshot is the weapon state shown to observers
type RifleSnapshot struct {
	Ammo         int        `json:"ammo"`
	MagazineSize int        `json:"magazineSize"`
	State        RifleState `json:"state"`
}

// Snapshot is an immutable copy of engine state, published after every
// frame. Observers read it without taking the engine lock.
type Snapshot struct {
	Sequence    uint64           `json:"sequence"`
	Timestamp   time.Time        `json:"timestamp"`
	State       string           `json:"state"`
	Running     bool             `json:"running"`
	Frame       uint64           `json:"frame"`
	FPS         float64          `json:"fps"`
	Faults      int              `json:"faults"`
	LastError   string           `json:"lastError,omitempty"`
	Camera      Camera           `json:"camera"`
	Entities    []EntitySnapshot `json:"entities"`
	Rifle       *RifleSnapshot   `json:"rifle,omitempty"`
	EnemyStatus EnemyStatus      `json:"enemyStatus,omitempty"`
}

// buildSnapshotLocked copies the current state; caller holds e.mu
func (e *Engine) buildSnapshotLocked() *Snapshot {
	e.sequence++
	snap := &Snapshot{
		Sequence:  e.sequence,
		Timestamp: e.clock(),
		State:     e.state.String(),
		Running:   e.running,
		Frame:     e.frame,
		FPS:       e.fps,
		Faults:    e.faults,
		Camera:    e.camera,
		Entities:  make([]EntitySnapshot, 0, len(e.entities)),
	}
	if e.lastErr != nil {
		snap.LastError = e.lastErr.Error()
	}

	for _, ent := range e.entities {
		snap.Entities = append(snap.Entities, snapshotEntity(ent))
		if enemy, ok := ent.(*Enemy); ok && snap.EnemyStatus == "" {
			snap.EnemyStatus = enemy.Status()
		}
	}

	if p := e.player; p != nil && p.Rifle() != nil {
		r := p.Rifle()
		snap.Rifle = &RifleSnapshot{
			Ammo:         r.Ammo(),
			MagazineSize: r.MagazineSize(),
			State:        r.State(),
		}
	}
	return snap
}

func (e *Engine) publishLocked() {
	e.snapshot.Store(e.buildSnapshotLocked())
}

// Snapshot returns the last published state. Never nil after NewEngine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}
