// Package level holds the static tile grid the player walks through.
// A Level is immutable after construction: the renderer and every entity
// read it concurrently-free within a frame.
package level

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Wall colours by tile code
const (
	ColorPrimaryWall   = "#1f2b45"
	ColorSecondaryWall = "#2c3b5c"
)

// WallHeightRatio scales tile size into wall height
const WallHeightRatio = 1.5

var (
	ErrEmptyGrid       = errors.New("level: tile grid is empty")
	ErrRaggedGrid      = errors.New("level: tile rows have different lengths")
	ErrInvalidTileSize = errors.New("level: tile size must be positive")
)

// WallSegment is one wall cell expanded into an axis-aligned prism.
// Vertices 0-3 are the near face (z = base), 4-7 the far face (z = base + size),
// each ordered bottom-left, bottom-right, top-right, top-left.
type WallSegment struct {
	Color    string
	Vertices [8]mgl64.Vec3
}

// Level is a 2D occupancy grid of tile codes (0 = open).
type Level struct {
	tiles      [][]int
	tileSize   float64
	wallHeight float64
}

// New validates the grid and copies it so callers can't mutate it later.
func New(tiles [][]int, tileSize float64) (*Level, error) {
	if len(tiles) == 0 || len(tiles[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	if tileSize <= 0 || math.IsNaN(tileSize) || math.IsInf(tileSize, 0) {
		return nil, ErrInvalidTileSize
	}

	cols := len(tiles[0])
	grid := make([][]int, len(tiles))
	for z, row := range tiles {
		if len(row) != cols {
			return nil, ErrRaggedGrid
		}
		grid[z] = append([]int(nil), row...)
	}

	return &Level{
		tiles:      grid,
		tileSize:   tileSize,
		wallHeight: tileSize * WallHeightRatio,
	}, nil
}

// TileSize returns the world-space edge length of one cell
func (l *Level) TileSize() float64 { return l.tileSize }

// WallHeight returns the height of every wall prism
func (l *Level) WallHeight() float64 { return l.wallHeight }

// Rows returns the number of rows (z axis)
func (l *Level) Rows() int { return len(l.tiles) }

// Cols returns the number of columns (x axis)
func (l *Level) Cols() int { return len(l.tiles[0]) }

// Bounds returns the world-space extent of the grid on x and z.
func (l *Level) Bounds() (width, depth float64) {
	return float64(l.Cols()) * l.tileSize, float64(l.Rows()) * l.tileSize
}

// TileAt returns the tile code at grid indices and whether they are in range.
func (l *Level) TileAt(col, row int) (int, bool) {
	if row < 0 || row >= len(l.tiles) || col < 0 || col >= len(l.tiles[0]) {
		return 0, false
	}
	return l.tiles[row][col], true
}

// IsWallAt reports whether the world point (x, z) is inside a wall.
// Anything outside the grid counts as wall.
func (l *Level) IsWallAt(x, z float64) bool {
	if math.IsNaN(x) || math.IsNaN(z) {
		return true
	}
	col := int(math.Floor(x / l.tileSize))
	row := int(math.Floor(z / l.tileSize))

	tile, ok := l.TileAt(col, row)
	if !ok {
		return true
	}
	return tile != 0
}

// WallSegments expands every non-zero cell into a prism from y=0 to WallHeight.
// It allocates a fresh slice on each call and has no side effects.
func (l *Level) WallSegments() []WallSegment {
	segments := make([]WallSegment, 0, l.wallCount())
	size := l.tileSize
	h := l.wallHeight

	for z, row := range l.tiles {
		for x, tile := range row {
			if tile == 0 {
				continue
			}
			baseX := float64(x) * size
			baseZ := float64(z) * size

			segments = append(segments, WallSegment{
				Color: wallColor(tile),
				Vertices: [8]mgl64.Vec3{
					{baseX, 0, baseZ},
					{baseX + size, 0, baseZ},
					{baseX + size, h, baseZ},
					{baseX, h, baseZ},
					{baseX, 0, baseZ + size},
					{baseX + size, 0, baseZ + size},
					{baseX + size, h, baseZ + size},
					{baseX, h, baseZ + size},
				},
			})
		}
	}
	return segments
}

func (l *Level) wallCount() int {
	n := 0
	for _, row := range l.tiles {
		for _, tile := range row {
			if tile != 0 {
				n++
			}
		}
	}
	return n
}

func wallColor(tile int) string {
	if tile == 1 {
		return ColorPrimaryWall
	}
	return ColorSecondaryWall
}
