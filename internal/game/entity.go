package game

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/audio"
	"corridor/internal/debug"
	"corridor/internal/input"
	"corridor/internal/level"
)

// Kind identifies an entity variant
type Kind string

const (
	KindPlayer     Kind = "player"
	KindEnemy      Kind = "enemy"
	KindProjectile Kind = "projectile"
)

// Entity is anything the engine updates and the renderer draws as a box.
// Update may return one new entity for the engine to append this frame.
type Entity interface {
	Kind() Kind
	Position() mgl64.Vec3
	Size() float64
	Color() string
	Dead() bool
	Update(ctx *UpdateContext) (spawn Entity, err error)
}

// AudioPlayer is the slice of the audio engine entities use
type AudioPlayer interface {
	PlaySegmented(req audio.Request) *audio.Playback
}

// UpdateContext is passed to every entity once per frame.
// Entities is a read-only view of the entity list at the start of the update.
type UpdateContext struct {
	Delta    float64
	Now      time.Time
	Input    input.Source
	Level    *level.Level
	Entities []Entity
	Audio    AudioPlayer
	Debug    *debug.Metrics
	Player   *Player // nil when the player is gone
}

// EntitySnapshot is an immutable copy of an entity for observers
type EntitySnapshot struct {
	Kind     Kind       `json:"kind"`
	Position mgl64.Vec3 `json:"position"`
	Size     float64    `json:"size"`
	Color    string     `json:"color"`
}

func snapshotEntity(e Entity) EntitySnapshot {
	return EntitySnapshot{
		Kind:     e.Kind(),
		Position: e.Position(),
		Size:     e.Size(),
		Color:    e.Color(),
	}
}

// noAudio resolves every request to nil immediately
type noAudio struct{}

func (noAudio) PlaySegmented(audio.Request) *audio.Playback {
	return audio.Resolved(nil)
}
