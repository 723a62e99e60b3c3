package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ProjectileConfig describes a projectile at fire time
type ProjectileConfig struct {
	Origin    mgl64.Vec3
	Direction Orientation
	Speed     float64
	Life      float64 // seconds
	Size      float64
	Color     string
}

// Projectile travels in a straight line along its direction until its
// lifetime runs out. It does not collide with walls.
type Projectile struct {
	position  mgl64.Vec3
	direction Orientation
	heading   mgl64.Vec3
	speed     float64
	life      float64
	size      float64
	color     string
	dead      bool
}

// NewProjectile creates a live projectile
func NewProjectile(cfg ProjectileConfig) *Projectile {
	return &Projectile{
		position:  cfg.Origin,
		direction: cfg.Direction,
		heading:   cfg.Direction.Direction(),
		speed:     cfg.Speed,
		life:      cfg.Life,
		size:      cfg.Size,
		color:     cfg.Color,
	}
}

func (p *Projectile) Kind() Kind { return KindProjectile }
func (p *Projectile) Position() mgl64.Vec3 { return p.position }
func (p *Projectile) Size() float64 { return p.size }
func (p *Projectile) Color() string { return p.color }
func (p *Projectile) Dead() bool { return p.dead }
func (p *Projectile) Direction() Orientation { return p.direction }
func (p *Projectile) Life() float64 { return p.life }

// Update counts down the lifetime and advances speed*delta along the heading.
func (p *Projectile) Update(ctx *UpdateContext) (Entity, error) {
	p.life -= ctx.Delta
	if p.life <= 0 {
		p.dead = true
		ctx.Debug.Log("Projectile expired", nil)
		return nil, nil
	}

	p.position = p.position.Add(p.heading.Mul(p.speed * ctx.Delta))
	if !finiteVec(p.position) {
		return nil, ErrNonFinitePosition
	}
	return nil, nil
}
