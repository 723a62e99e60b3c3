package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"corridor/internal/game"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// TestProjectCenter verifies a point straight ahead lands mid-screen
func TestProjectCenter(t *testing.T) {
	cam := game.Camera{}
	p, ok := Project(mgl64.Vec3{0, 0, 10}, cam, mgl64.DegToRad(75), 960, 540)
	if !ok {
		t.Fatal("Point ahead should project")
	}
	if !near(p.X, 480, 1e-9) || !near(p.Y, 270, 1e-9) {
		t.Errorf("Expected (480, 270), got %+v", p)
	}
}

// TestProjectNearPlane verifies points at or behind the near plane are rejected
func TestProjectNearPlane(t *testing.T) {
	cam := game.Camera{Position: mgl64.Vec3{5, 5, 5}, Rotation: game.Orientation{Yaw: 0.3, Pitch: 0.2}}
	fov := mgl64.DegToRad(75)

	if _, ok := Project(cam.Position, cam, fov, 960, 540); ok {
		t.Error("Camera position must not project")
	}

	flat := game.Camera{}
	cases := []mgl64.Vec3{
		{0, 0, -10},
		{0, 0, NearPlane},
		{3, 0, 0},
	}
	for _, v := range cases {
		if _, ok := Project(v, flat, fov, 960, 540); ok {
			t.Errorf("Expected %v to be clipped", v)
		}
	}

	if _, ok := Project(mgl64.Vec3{0, 0, NearPlane + 1e-6}, flat, fov, 960, 540); !ok {
		t.Error("Point just past the near plane should project")
	}
}

// TestProjectFollowsOrientation verifies the camera direction maps to the centre
func TestProjectFollowsOrientation(t *testing.T) {
	cases := []game.Orientation{
		{Yaw: math.Pi / 2},
		{Yaw: -2.5},
		{Pitch: math.Pi / 6},
		{Yaw: 1.1, Pitch: -0.4},
	}
	for _, rot := range cases {
		cam := game.Camera{Position: mgl64.Vec3{10, 20, 30}, Rotation: rot}
		target := cam.Position.Add(rot.Direction().Mul(50))

		p, ok := Project(target, cam, mgl64.DegToRad(75), 800, 600)
		if !ok {
			t.Fatalf("Look-at point should project for %+v", rot)
		}
		if !near(p.X, 400, 1e-6) || !near(p.Y, 300, 1e-6) {
			t.Errorf("Expected centre for %+v, got %+v", rot, p)
		}
	}
}

// TestProjectAxes verifies screen y grows downward while world y grows upward
func TestProjectAxes(t *testing.T) {
	p, ok := Project(mgl64.Vec3{1, 1, 10}, game.Camera{}, mgl64.DegToRad(75), 960, 540)
	if !ok {
		t.Fatal("Expected projection")
	}
	if p.X <= 480 {
		t.Errorf("+X should be right of centre, got %v", p.X)
	}
	if p.Y >= 270 {
		t.Errorf("+Y should be above centre, got %v", p.Y)
	}
}

// TestProjectFOVEdge verifies the pinhole scale at 90 degrees
func TestProjectFOVEdge(t *testing.T) {
	// f = 1 and aspect = 1, so x == depth hits the right edge
	p, ok := Project(mgl64.Vec3{10, -10, 10}, game.Camera{}, math.Pi/2, 100, 100)
	if !ok {
		t.Fatal("Expected projection")
	}
	if !near(p.X, 100, 1e-9) || !near(p.Y, 100, 1e-9) {
		t.Errorf("Expected bottom-right corner, got %+v", p)
	}
}

func TestProjectEmptySurface(t *testing.T) {
	if _, ok := Project(mgl64.Vec3{0, 0, 10}, game.Camera{}, 1, 0, 100); ok {
		t.Error("Zero-width surface cannot project")
	}
}
