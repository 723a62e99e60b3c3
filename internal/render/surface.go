package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Surface is the subset of *gg.Context the renderer draws with
type Surface interface {
	Width() int
	Height() int
	Image() image.Image

	SetColor(c color.Color)
	SetFillStyle(pattern gg.Pattern)
	SetLineWidth(width float64)
	SetFontFace(face font.Face)

	DrawRectangle(x, y, w, h float64)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	Fill()
	FillPreserve()
	Stroke()

	Push()
	Pop()
	Translate(x, y float64)
	Rotate(angle float64)

	DrawString(s string, x, y float64)
}

var _ Surface = (*gg.Context)(nil)

// NewSurface allocates a gg context of the given size
func NewSurface(width, height int) *gg.Context {
	return gg.NewContext(width, height)
}
