package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Orientation is yaw/pitch in radians. Yaw 0 looks down +Z, positive yaw
// turns toward +X; positive pitch looks up.
type Orientation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Direction returns the unit vector the orientation faces
func (o Orientation) Direction() mgl64.Vec3 {
	sinYaw, cosYaw := math.Sincos(o.Yaw)
	sinPitch, cosPitch := math.Sincos(o.Pitch)
	return mgl64.Vec3{sinYaw * cosPitch, sinPitch, cosYaw * cosPitch}
}

// Camera is derived from the player every frame
type Camera struct {
	Position mgl64.Vec3  `json:"position"`
	Rotation Orientation `json:"rotation"`
}

// aimBand buckets pitch for the aim_band debug flag
func aimBand(pitch float64) string {
	switch {
	case pitch > 0.35:
		return "upward"
	case pitch < -0.35:
		return "downward"
	default:
		return "level"
	}
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
