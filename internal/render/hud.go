package render

import (
	"fmt"
	"strings"

	"corridor/internal/game"
)

const (
	hudColor  = "#cbd5f5"
	hudAlert  = "#ff5e5e"
	hudMargin = 12
	hudLine   = 16
)

// hudLines formats the overlay text, top to bottom
func hudLines(h game.HUD) []string {
	lines := []string{
		fmt.Sprintf("FPS %3.0f  %s", h.FPS, strings.ToUpper(h.EngineState)),
	}
	if h.MagazineSize > 0 {
		lines = append(lines, fmt.Sprintf("AMMO %d/%d  %s", h.Ammo, h.MagazineSize, strings.ToUpper(string(h.RifleState))))
	}
	if h.Faults > 0 {
		lines = append(lines, fmt.Sprintf("FAULTS %d", h.Faults))
	}
	return lines
}

// drawHUD writes the text block in the lower left corner
func (r *Renderer) drawHUD(h game.HUD) {
	s := r.surface
	s.SetFontFace(r.hudFace)

	lines := hudLines(h)
	y := float64(s.Height()) - hudMargin - float64(len(lines)-1)*hudLine
	for _, line := range lines {
		c := hudColor
		if strings.HasPrefix(line, "FAULTS") {
			c = hudAlert
		}
		s.SetColor(parseHexColor(c))
		s.DrawString(line, hudMargin, y)
		y += hudLine
	}
}
