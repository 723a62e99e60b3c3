package level

import (
	"errors"
	"testing"
)

func openGrid(rows, cols int) [][]int {
	tiles := make([][]int, rows)
	for i := range tiles {
		tiles[i] = make([]int, cols)
	}
	return tiles
}

// TestNewValidation covers construction errors
func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		tiles    [][]int
		tileSize float64
		wantErr  error
	}{
		{"empty grid", nil, 32, ErrEmptyGrid},
		{"empty row", [][]int{{}}, 32, ErrEmptyGrid},
		{"zero tile size", openGrid(2, 2), 0, ErrInvalidTileSize},
		{"negative tile size", openGrid(2, 2), -4, ErrInvalidTileSize},
		{"ragged rows", [][]int{{0, 0}, {0}}, 32, ErrRaggedGrid},
		{"valid", openGrid(3, 4), 32, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tiles, tt.tileSize)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestIsWallAtBoundary verifies out-of-bounds coordinates are walls
func TestIsWallAtBoundary(t *testing.T) {
	l, err := New(openGrid(10, 10), 32)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name string
		x, z float64
		want bool
	}{
		{"negative x", -1, 5, true},
		{"x at right edge", 320, 5, true},
		{"negative z", 5, -0.001, true},
		{"z at far edge", 5, 320, true},
		{"origin", 0, 0, false},
		{"just inside far corner", 319.9, 319.9, false},
		{"center", 160, 160, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.IsWallAt(tt.x, tt.z); got != tt.want {
				t.Errorf("IsWallAt(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

// TestIsWallAtTiles verifies interior walls are detected
func TestIsWallAtTiles(t *testing.T) {
	tiles := openGrid(3, 3)
	tiles[1][2] = 2 // row 1, column 2

	l, err := New(tiles, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !l.IsWallAt(25, 15) {
		t.Error("(25, 15) maps to column 2 row 1 and should be a wall")
	}
	if l.IsWallAt(15, 25) {
		t.Error("(15, 25) maps to column 1 row 2 and should be open")
	}
}

// TestNewCopiesTiles verifies the level is immune to caller mutation
func TestNewCopiesTiles(t *testing.T) {
	tiles := openGrid(2, 2)
	l, _ := New(tiles, 10)

	tiles[0][0] = 1
	if l.IsWallAt(1, 1) {
		t.Error("mutating the source grid must not change the level")
	}
}

// TestWallSegments verifies prism geometry and colours
func TestWallSegments(t *testing.T) {
	tiles := openGrid(2, 3)
	tiles[0][1] = 1
	tiles[1][2] = 2

	l, _ := New(tiles, 32)
	segments := l.WallSegments()

	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}

	first := segments[0]
	if first.Color != ColorPrimaryWall {
		t.Errorf("Tile code 1 should use %s, got %s", ColorPrimaryWall, first.Color)
	}
	if segments[1].Color != ColorSecondaryWall {
		t.Errorf("Tile code 2 should use %s, got %s", ColorSecondaryWall, segments[1].Color)
	}

	// Near bottom-left corner sits at the cell origin
	if v := first.Vertices[0]; v.X() != 32 || v.Y() != 0 || v.Z() != 0 {
		t.Errorf("Vertex 0 = %v, want (32, 0, 0)", v)
	}
	// Far top-right corner is offset by one tile and the wall height
	if v := first.Vertices[6]; v.X() != 64 || v.Y() != 48 || v.Z() != 32 {
		t.Errorf("Vertex 6 = %v, want (64, 48, 32)", v)
	}

	// Restartable: a second call yields the same geometry
	again := l.WallSegments()
	if again[0] != first {
		t.Error("WallSegments should be deterministic across calls")
	}
}

// TestPrimarySpawnCellsOpen guards the default spawn points
func TestPrimarySpawnCellsOpen(t *testing.T) {
	l := Primary()

	if l.IsWallAt(64, 64) {
		t.Error("player spawn (64, 64) must be open")
	}
	if l.IsWallAt(320, 200) {
		t.Error("enemy spawn (320, 200) must be open")
	}

	w, d := l.Bounds()
	if w != 16*PrimaryTileSize || d != 12*PrimaryTileSize {
		t.Errorf("Bounds() = (%v, %v), want (512, 384)", w, d)
	}
}
