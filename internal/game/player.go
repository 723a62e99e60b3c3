package game

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/input"
)

// PlayerConfig holds movement and look tuning
type PlayerConfig struct {
	Spawn        mgl64.Vec3
	Speed        float64 // units per second
	Size         float64
	Color        string
	CameraOffset mgl64.Vec3

	PitchLimit       float64 // radians, symmetric
	YawSpeed         float64 // radians per second (arrow keys)
	PitchSpeed       float64 // radians per second (arrow keys)
	MouseSensitivity float64 // radians per pixel
}

// DefaultPlayerConfig spawns at (64, 64) on the floor plan
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Spawn:            mgl64.Vec3{64, 16, 64},
		Speed:            140,
		Size:             18,
		Color:            "#5eff8b",
		CameraOffset:     mgl64.Vec3{0, 18, 0},
		PitchLimit:       math.Pi / 3,
		YawSpeed:         1.8,
		PitchSpeed:       1.4,
		MouseSensitivity: 0.0025,
	}
}

// Player is the camera owner. It moves on the XZ plane relative to its yaw
// and slides along walls by testing each axis separately.
type Player struct {
	cfg      PlayerConfig
	position mgl64.Vec3
	rotation Orientation
	rifle    *Rifle
	moving   bool
	dead     bool
}

// NewPlayer creates a player at cfg.Spawn. rifle may be nil.
func NewPlayer(cfg PlayerConfig, rifle *Rifle) *Player {
	return &Player{
		cfg:      cfg,
		position: cfg.Spawn,
		rifle:    rifle,
	}
}

func (p *Player) Kind() Kind { return KindPlayer }
func (p *Player) Position() mgl64.Vec3 { return p.position }
func (p *Player) Size() float64 { return p.cfg.Size }
func (p *Player) Color() string { return p.cfg.Color }
func (p *Player) Dead() bool { return p.dead }

// Rotation returns the current look direction
func (p *Player) Rotation() Orientation { return p.rotation }

// CameraOffset is added to the position to get the eye point
func (p *Player) CameraOffset() mgl64.Vec3 { return p.cfg.CameraOffset }

// Rifle returns the carried weapon, nil when unarmed
func (p *Player) Rifle() *Rifle { return p.rifle }

// Moving reports whether a movement key was applied last update
func (p *Player) Moving() bool { return p.moving }

// SetPosition teleports the player
func (p *Player) SetPosition(pos mgl64.Vec3) { p.position = pos }

// SetRotation sets yaw/pitch, clamping pitch
func (p *Player) SetRotation(o Orientation) {
	o.Pitch = mgl64.Clamp(o.Pitch, -p.cfg.PitchLimit, p.cfg.PitchLimit)
	p.rotation = o
}

// Camera derives the eye camera for this frame
func (p *Player) Camera() Camera {
	return Camera{
		Position: p.position.Add(p.cfg.CameraOffset),
		Rotation: p.rotation,
	}
}

// Update applies look and movement input, then the rifle.
func (p *Player) Update(ctx *UpdateContext) (Entity, error) {
	dt := ctx.Delta
	in := ctx.Input

	p.look(in, dt)

	var forward, strafe float64
	if in.IsPressed(input.KeyForward) {
		forward++
	}
	if in.IsPressed(input.KeyBack) {
		forward--
	}
	if in.IsPressed(input.KeyStrafeLeft) {
		strafe--
	}
	if in.IsPressed(input.KeyStrafeRight) {
		strafe++
	}
	p.moving = forward != 0 || strafe != 0

	sinYaw, cosYaw := math.Sincos(p.rotation.Yaw)
	moveX := (forward*sinYaw + strafe*cosYaw) * p.cfg.Speed * dt
	moveZ := (forward*cosYaw - strafe*sinYaw) * p.cfg.Speed * dt

	nextX := p.position.X() + moveX
	nextZ := p.position.Z() + moveZ
	if !ctx.Level.IsWallAt(nextX, p.position.Z()) {
		p.position[0] = nextX
	}
	if !ctx.Level.IsWallAt(p.position.X(), nextZ) {
		p.position[2] = nextZ
	}

	if !finiteVec(p.position) {
		return nil, ErrNonFinitePosition
	}

	var spawn Entity
	if p.rifle != nil {
		p.rifle.moving = in.HasActiveMovement()
		if shot := p.rifle.Update(ctx, p); shot != nil {
			spawn = shot
		}
	}

	ctx.Debug.SetFlag("aim_band", aimBand(p.rotation.Pitch))
	ctx.Debug.SetFlagQuiet("player_yaw", fmt.Sprintf("%.2f", p.rotation.Yaw))
	ctx.Debug.SetFlagQuiet("player_pitch", fmt.Sprintf("%.2f", p.rotation.Pitch))

	return spawn, nil
}

// look applies mouse motion and arrow keys to yaw/pitch. Mouse Y is inverted.
// Yaw is kept in [-π, π]; a look that would go non-finite is ignored.
func (p *Player) look(in input.Source, dt float64) {
	dx, dy := in.ConsumeMouseDelta()
	yaw := p.rotation.Yaw + dx*p.cfg.MouseSensitivity
	pitch := p.rotation.Pitch - dy*p.cfg.MouseSensitivity

	switch {
	case in.IsPressed(input.KeyTurnLeft):
		yaw -= p.cfg.YawSpeed * dt
	case in.IsPressed(input.KeyTurnRight):
		yaw += p.cfg.YawSpeed * dt
	}
	switch {
	case in.IsPressed(input.KeyLookUp):
		pitch += p.cfg.PitchSpeed * dt
	case in.IsPressed(input.KeyLookDown):
		pitch -= p.cfg.PitchSpeed * dt
	}

	if math.IsNaN(yaw) || math.IsInf(yaw, 0) || math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		return
	}
	p.SetRotation(Orientation{Yaw: math.Remainder(yaw, 2*math.Pi), Pitch: pitch})
}
