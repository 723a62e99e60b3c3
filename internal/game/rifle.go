package game

import (
	"math"

	"corridor/internal/audio"
	"corridor/internal/debug"
	"corridor/internal/input"
)

// RifleState is derived from the rifle timers
type RifleState string

const (
	RifleReady       RifleState = "ready"
	RifleCoolingDown RifleState = "cooling"
	RifleReloading   RifleState = "reloading"
)

// Weapon overlay animations
const (
	AnimationIdle   = "idle"
	AnimationFire   = "fire"
	AnimationReload = "reload"
)

const (
	recoilDuration = 0.2 // seconds of kick after a shot
	maxPending     = 32  // outstanding audio handles kept for polling
)

// RifleConfig holds weapon tuning
type RifleConfig struct {
	MagazineSize int
	FireInterval float64 // seconds between shots
	ReloadTime   float64 // seconds

	BulletSpeed float64
	BulletLife  float64
	BulletSize  float64
	BulletColor string

	ShotKey      string
	ShotURL      string
	ShotHalfGain float64
}

// DefaultRifleConfig returns the standard rifle
func DefaultRifleConfig() RifleConfig {
	return RifleConfig{
		MagazineSize: 12,
		FireInterval: 1.5,
		ReloadTime:   4,
		BulletSpeed:  400,
		BulletLife:   2.5,
		BulletSize:   6,
		BulletColor:  "#ffef8a",
		ShotKey:      "rifle_shot",
		ShotURL:      audio.RifleShotURL,
		ShotHalfGain: 0.5,
	}
}

// WeaponModel drives the screen-space view-model overlay
type WeaponModel struct {
	SwayX      float64 `json:"swayX"`
	SwayY      float64 `json:"swayY"`
	Recoil     float64 `json:"recoil"`
	RecoilKick float64 `json:"recoilKick"`
	ReloadDip  float64 `json:"reloadDip"`
	BoltOffset float64 `json:"boltOffset"`
	BoltLift   float64 `json:"boltLift"`
	Animation  string  `json:"animation"`
}

// Rifle is owned by the player. It is timer driven: cooldown after each
// shot, a reload that refills the magazine only once it elapses.
type Rifle struct {
	cfg       RifleConfig
	ammo      int
	cooldown  float64
	reloading float64

	sinceShot float64
	swayPhase float64
	moving    bool

	pending []*audio.Playback
}

// NewRifle creates a loaded rifle
func NewRifle(cfg RifleConfig) *Rifle {
	if cfg.MagazineSize <= 0 {
		cfg.MagazineSize = DefaultRifleConfig().MagazineSize
	}
	return &Rifle{
		cfg:       cfg,
		ammo:      cfg.MagazineSize,
		sinceShot: math.MaxFloat64,
	}
}

// Ammo returns rounds left in the magazine
func (r *Rifle) Ammo() int { return r.ammo }

// MagazineSize returns the full magazine count
func (r *Rifle) MagazineSize() int { return r.cfg.MagazineSize }

// Cooldown returns seconds until the next shot is allowed
func (r *Rifle) Cooldown() float64 { return math.Max(0, r.cooldown) }

// ReloadRemaining returns seconds until the reload finishes
func (r *Rifle) ReloadRemaining() float64 { return math.Max(0, r.reloading) }

// PendingAudio returns how many shot sounds have not resolved yet
func (r *Rifle) PendingAudio() int { return len(r.pending) }

// State reports the current rifle state
func (r *Rifle) State() RifleState {
	switch {
	case r.reloading > 0:
		return RifleReloading
	case r.cooldown > 0:
		return RifleCoolingDown
	default:
		return RifleReady
	}
}

// Update advances the timers and handles reload and fire input. It returns
// the projectile fired this frame, if any.
func (r *Rifle) Update(ctx *UpdateContext, owner *Player) *Projectile {
	dt := ctx.Delta
	r.pollAudio(ctx.Debug)

	r.sinceShot += dt
	if r.moving {
		r.swayPhase += dt * 6
	} else {
		r.swayPhase += dt * 1.5
	}

	if r.cooldown > 0 {
		r.cooldown -= dt
	}
	if r.reloading > 0 {
		r.reloading -= dt
		if r.reloading <= 0 {
			r.reloading = 0
			r.ammo = r.cfg.MagazineSize
			ctx.Debug.Log("Rifle reloaded", nil)
			ctx.Debug.SetFlag("rifle_state", string(RifleReady))
			ctx.Debug.SetFlag("rifle_ammo", r.ammo)
		}
		return nil
	}

	wantsReload := ctx.Input.IsPressed(input.KeyReload) || r.ammo <= 0
	if wantsReload && r.ammo < r.cfg.MagazineSize {
		r.startReload(ctx.Debug)
		return nil
	}

	if ctx.Input.IsPressed(input.KeyFire) {
		return r.Shoot(ctx, owner)
	}
	return nil
}

func (r *Rifle) startReload(dbg *debug.Metrics) {
	r.reloading = r.cfg.ReloadTime
	if r.reloading <= 0 {
		// zero reload time completes on the next update
		r.reloading = math.SmallestNonzeroFloat64
	}
	dbg.Log("Rifle reload started", map[string]interface{}{"ammo": r.ammo})
	dbg.SetFlag("rifle_state", string(RifleReloading))
}

// Shoot fires one round if the rifle is ready. A dry fire is counted, not
// treated as an error.
func (r *Rifle) Shoot(ctx *UpdateContext, owner *Player) *Projectile {
	if r.cooldown > 0 || r.reloading > 0 {
		return nil
	}
	if r.ammo <= 0 {
		ctx.Debug.IncrementCounter("rifle_dry_fire", 1)
		return nil
	}

	r.ammo--
	r.cooldown = r.cfg.FireInterval
	r.sinceShot = 0

	ctx.Debug.Log("Rifle fired", map[string]interface{}{"remaining": r.ammo})
	ctx.Debug.SetFlag("rifle_ammo", r.ammo)

	muzzle := owner.Position()
	muzzle[1] += owner.CameraOffset().Y()

	proj := NewProjectile(ProjectileConfig{
		Origin:    muzzle,
		Direction: owner.Rotation(),
		Speed:     r.cfg.BulletSpeed,
		Life:      r.cfg.BulletLife,
		Size:      r.cfg.BulletSize,
		Color:     r.cfg.BulletColor,
	})

	if ctx.Audio != nil && r.cfg.ShotKey != "" {
		r.track(ctx.Audio.PlaySegmented(audio.Request{
			Key:      r.cfg.ShotKey,
			URL:      r.cfg.ShotURL,
			HalfGain: r.cfg.ShotHalfGain,
		}))
	}

	return proj
}

func (r *Rifle) track(p *audio.Playback) {
	if p == nil {
		return
	}
	if len(r.pending) >= maxPending {
		r.pending = r.pending[1:]
	}
	r.pending = append(r.pending, p)
}

// pollAudio settles any shot sounds that resolved since the last frame
func (r *Rifle) pollAudio(dbg *debug.Metrics) {
	if len(r.pending) == 0 {
		return
	}
	kept := r.pending[:0]
	for _, p := range r.pending {
		res, ready := p.Poll()
		switch {
		case !ready:
			kept = append(kept, p)
		case res == nil:
			dbg.IncrementCounter("rifle_audio_failures", 1)
		default:
			dbg.IncrementCounter("rifle_audio_played", 1)
		}
	}
	for i := len(kept); i < len(r.pending); i++ {
		r.pending[i] = nil
	}
	r.pending = kept
}

// ViewModel derives the overlay animation from the timers
func (r *Rifle) ViewModel() WeaponModel {
	amp := 2.0
	if r.moving {
		amp = 6.0
	}
	wm := WeaponModel{
		SwayX:     math.Sin(r.swayPhase) * amp,
		SwayY:     math.Sin(r.swayPhase*2) * amp * 0.5,
		Animation: AnimationIdle,
	}

	if r.reloading > 0 && r.cfg.ReloadTime > 0 {
		progress := 1 - r.reloading/r.cfg.ReloadTime
		arc := math.Sin(progress * math.Pi)
		wm.ReloadDip = arc * 60
		wm.BoltLift = arc * 20
		wm.BoltOffset = math.Max(0, math.Sin(progress*2*math.Pi))
		wm.Animation = AnimationReload
		return wm
	}

	if r.sinceShot < recoilDuration {
		kick := 1 - r.sinceShot/recoilDuration
		wm.Recoil = kick
		wm.RecoilKick = kick * 40
		wm.BoltOffset = kick
		wm.Animation = AnimationFire
	}
	return wm
}
