package render

import (
	"fmt"
	"image/color"
	"log"

	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"corridor/internal/debug"
	"corridor/internal/game"
	"corridor/internal/level"
	"corridor/internal/metrics"
)

// Palette
const (
	colorClear        = "#05070f"
	colorSky          = "#0c1020"
	colorFloorNear    = "#101525"
	colorFloorFar     = "#06080f"
	colorGrid         = "#112030"
	colorWallOutline  = "#0b1625"
	colorEntityStroke = "#112235"

	wallAlpha   = 0.9
	entityAlpha = 0.95

	defaultEntitySize = 16
)

// ErrNilScene is returned when Render is called without a scene
var ErrNilScene = errors.New("render: nil scene")

// faces indexes the eight box vertices: 0-3 are the near ring, 4-7 the far ring
var faces = [6][4]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{0, 1, 5, 4},
	{2, 3, 7, 6},
	{1, 2, 6, 5},
	{0, 3, 7, 4},
}

// Config for the renderer
type Config struct {
	FOV     float64      // degrees, 0 means DefaultFOV
	Frames  *FrameBuffer // optional, receives a copy of every finished frame
	HUDFont font.Face    // optional, defaults to basicfont 7x13
}

// Renderer implements game.Renderer on top of a Surface
type Renderer struct {
	surface Surface
	debug   *debug.Metrics
	fov     float64 // radians
	frames  *FrameBuffer
	hudFace font.Face

	// per-frame face tally
	drawn   int
	clipped int
}

var _ game.Renderer = (*Renderer)(nil)

// NewRenderer validates its collaborators like the engine does
func NewRenderer(surface Surface, dbg *debug.Metrics, cfg Config) (*Renderer, error) {
	if surface == nil {
		return nil, errors.WithStack(game.ErrMissingSurface)
	}
	if dbg == nil {
		return nil, errors.WithStack(game.ErrMissingDebug)
	}
	fov := cfg.FOV
	if fov <= 0 || fov >= 180 {
		fov = DefaultFOV
	}

	hudFace := cfg.HUDFont
	if hudFace == nil {
		hudFace = basicfont.Face7x13
	}

	log.Printf("🎨 Renderer ready: %dx%d, fov %.0f°", surface.Width(), surface.Height(), fov)
	return &Renderer{
		surface: surface,
		debug:   dbg,
		fov:     mgl64.DegToRad(fov),
		frames:  cfg.Frames,
		hudFace: hudFace,
	}, nil
}

// FOV returns the field of view in radians
func (r *Renderer) FOV() float64 { return r.fov }

// Surface returns the drawing target
func (r *Renderer) Surface() Surface { return r.surface }

// Render paints one frame: clear, sky and floor, grid, walls, entities,
// HUD, then the weapon overlay on top of everything.
func (r *Renderer) Render(scene *game.Scene) error {
	if scene == nil {
		return errors.WithStack(ErrNilScene)
	}
	r.drawn, r.clipped = 0, 0

	r.clear()
	r.drawSkyAndFloor()
	if scene.Level != nil {
		r.drawGrid(scene.Level, scene.Camera)
		r.drawWalls(scene.Level, scene.Camera)
	}
	for _, e := range scene.Entities {
		// the player is the camera
		if e.Kind() == game.KindPlayer {
			continue
		}
		r.drawEntity(e, scene.Camera)
	}
	r.drawHUD(scene.HUD)
	r.drawWeaponModel(scene.Weapon)

	metrics.RecordFaces(r.drawn, r.clipped)
	if r.clipped > 0 {
		r.debug.IncrementCounter("render_faces_clipped", r.clipped)
	}

	if r.frames != nil {
		if err := r.frames.Publish(r.surface.Image()); err != nil {
			return errors.Wrap(err, "publish frame")
		}
	}
	return nil
}

func (r *Renderer) clear() {
	s := r.surface
	s.SetColor(parseHexColor(colorClear))
	s.DrawRectangle(0, 0, float64(s.Width()), float64(s.Height()))
	s.Fill()
}

func (r *Renderer) drawSkyAndFloor() {
	s := r.surface
	w, h := float64(s.Width()), float64(s.Height())
	horizon := h / 2

	s.SetColor(parseHexColor(colorSky))
	s.DrawRectangle(0, 0, w, horizon)
	s.Fill()

	gradient := gg.NewLinearGradient(0, horizon, 0, h)
	gradient.AddColorStop(0, parseHexColor(colorFloorNear))
	gradient.AddColorStop(1, parseHexColor(colorFloorFar))
	s.SetFillStyle(gradient)
	s.DrawRectangle(0, horizon, w, h-horizon)
	s.Fill()
}

// drawGrid draws tile boundaries on the floor plane. A line is skipped
// unless both of its endpoints project.
func (r *Renderer) drawGrid(lvl *level.Level, cam game.Camera) {
	size := lvl.TileSize()
	width, depth := lvl.Bounds()

	r.surface.SetColor(parseHexColor(colorGrid))
	r.surface.SetLineWidth(1)
	for x := 0; x <= lvl.Cols(); x++ {
		fx := float64(x) * size
		r.drawLine(mgl64.Vec3{fx, 0, 0}, mgl64.Vec3{fx, 0, depth}, cam)
	}
	for z := 0; z <= lvl.Rows(); z++ {
		fz := float64(z) * size
		r.drawLine(mgl64.Vec3{0, 0, fz}, mgl64.Vec3{width, 0, fz}, cam)
	}
}

func (r *Renderer) drawLine(from, to mgl64.Vec3, cam game.Camera) {
	w, h := r.surface.Width(), r.surface.Height()
	start, ok := Project(from, cam, r.fov, w, h)
	if !ok {
		return
	}
	end, ok := Project(to, cam, r.fov, w, h)
	if !ok {
		return
	}
	r.surface.MoveTo(start.X, start.Y)
	r.surface.LineTo(end.X, end.Y)
	r.surface.Stroke()
}

func (r *Renderer) drawWalls(lvl *level.Level, cam game.Camera) {
	for _, seg := range lvl.WallSegments() {
		r.drawBox(seg.Vertices, cam, parseHexColor(seg.Color), wallAlpha, colorWallOutline)
	}
}

// drawEntity draws an axis-aligned box standing on the entity position
func (r *Renderer) drawEntity(e game.Entity, cam game.Camera) {
	size := e.Size()
	if size <= 0 {
		size = defaultEntitySize
	}
	r.drawBox(entityBox(e.Position(), size), cam, parseHexColor(e.Color()), entityAlpha, colorEntityStroke)
}

func entityBox(p mgl64.Vec3, size float64) [8]mgl64.Vec3 {
	half := size / 2
	x0, x1 := p.X()-half, p.X()+half
	y0, y1 := p.Y(), p.Y()+size
	z0, z1 := p.Z()-half, p.Z()+half
	return [8]mgl64.Vec3{
		{x0, y0, z0},
		{x1, y0, z0},
		{x1, y1, z0},
		{x0, y1, z0},
		{x0, y0, z1},
		{x1, y0, z1},
		{x1, y1, z1},
		{x0, y1, z1},
	}
}

// drawBox fills and outlines each face independently. A face with any
// vertex behind the near plane is skipped whole.
func (r *Renderer) drawBox(vertices [8]mgl64.Vec3, cam game.Camera, fill color.RGBA, alpha float64, outline string) {
	s := r.surface
	points, ok := projectAll(vertices[:], cam, r.fov, s.Width(), s.Height())

	stroke := parseHexColor(outline)
	for _, face := range faces {
		if !ok[face[0]] || !ok[face[1]] || !ok[face[2]] || !ok[face[3]] {
			r.clipped++
			continue
		}
		for i, idx := range face {
			if i == 0 {
				s.MoveTo(points[idx].X, points[idx].Y)
			} else {
				s.LineTo(points[idx].X, points[idx].Y)
			}
		}
		s.ClosePath()
		s.SetColor(withAlpha(fill, alpha))
		s.FillPreserve()
		s.SetColor(stroke)
		s.Stroke()
		r.drawn++
	}
}

// Stats describes the most recent frame
type Stats struct {
	FacesDrawn   int `json:"facesDrawn"`
	FacesClipped int `json:"facesClipped"`
}

// LastStats returns the face tally of the last Render call. Not safe to
// call concurrently with Render.
func (r *Renderer) LastStats() Stats {
	return Stats{FacesDrawn: r.drawn, FacesClipped: r.clipped}
}

func (r *Renderer) String() string {
	return fmt.Sprintf("Renderer{%dx%d fov=%.2f}", r.surface.Width(), r.surface.Height(), r.fov)
}
