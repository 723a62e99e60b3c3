// Package render draws a game.Scene onto a 2D surface with a software
// perspective projection. There is no depth buffer: geometry is painted
// back to front in a fixed order and faces crossing the near plane are
// dropped whole.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/game"
)

// NearPlane is the minimum camera-space depth a vertex needs to project
const NearPlane = 0.1

// DefaultFOV is the horizontal field of view in degrees
const DefaultFOV = 75.0

// Point is a projected vertex in pixel coordinates
type Point struct {
	X, Y float64
}

// Project maps a world point to pixel coordinates. fov is in radians.
// ok is false when the point is at or behind the near plane.
func Project(p mgl64.Vec3, cam game.Camera, fov float64, width, height int) (Point, bool) {
	if width <= 0 || height <= 0 {
		return Point{}, false
	}
	d := p.Sub(cam.Position)

	// yaw rotates the x/z plane, pitch the y/z' plane
	xz := mgl64.Rotate2D(cam.Rotation.Yaw).Mul2x1(mgl64.Vec2{d.X(), d.Z()})
	yz := mgl64.Rotate2D(cam.Rotation.Pitch).Mul2x1(mgl64.Vec2{d.Y(), xz.Y()})
	x, y, depth := xz.X(), yz.X(), yz.Y()

	if !(depth > NearPlane) {
		return Point{}, false
	}

	w, h := float64(width), float64(height)
	aspect := w / h
	f := 1 / math.Tan(fov/2)

	nx := x * f / (aspect * depth)
	ny := y * f / depth

	return Point{
		X: (nx + 1) * 0.5 * w,
		Y: (1 - (ny+1)*0.5) * h,
	}, true
}

// projectAll projects every vertex and reports which ones failed
func projectAll(vertices []mgl64.Vec3, cam game.Camera, fov float64, width, height int) ([]Point, []bool) {
	points := make([]Point, len(vertices))
	ok := make([]bool, len(vertices))
	for i, v := range vertices {
		points[i], ok[i] = Project(v, cam, fov, width, height)
	}
	return points, ok
}

