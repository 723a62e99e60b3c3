package render

import (
	"math"

	"github.com/pkg/errors"

	"corridor/internal/game"
)

// ErrInvalidWeaponModel is recorded when an overlay field is NaN or infinite
var ErrInvalidWeaponModel = errors.New("invalid weapon model value")

type weaponField struct {
	name  string
	value float64
}

// weaponFields lists the numeric overlay fields in validation order
func weaponFields(m *game.WeaponModel) []weaponField {
	return []weaponField{
		{"swayX", m.SwayX},
		{"swayY", m.SwayY},
		{"recoil", m.Recoil},
		{"recoilKick", m.RecoilKick},
		{"reloadDip", m.ReloadDip},
		{"boltOffset", m.BoltOffset},
		{"boltLift", m.BoltLift},
	}
}

// validateWeaponModel returns the first non-finite field
func validateWeaponModel(m *game.WeaponModel) error {
	for _, f := range weaponFields(m) {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.Wrapf(ErrInvalidWeaponModel, "%s", f.name)
		}
	}
	return nil
}

// drawWeaponModel paints the rifle in screen space, anchored to the lower
// right of the surface. An invalid model is recorded and skipped; the rest
// of the frame is unaffected.
func (r *Renderer) drawWeaponModel(m *game.WeaponModel) {
	if m == nil {
		return
	}
	if err := validateWeaponModel(m); err != nil {
		r.debug.RecordError(err)
		return
	}

	s := r.surface
	originX := float64(s.Width())*0.72 + m.SwayX
	originY := float64(s.Height())*0.78 + m.SwayY + m.ReloadDip - m.RecoilKick*0.35

	s.Push()
	defer s.Pop()
	s.Translate(originX, originY)
	s.Rotate(-0.1 + m.Recoil*0.05)

	// stock and body
	s.SetLineWidth(2)
	s.DrawRectangle(-90, -14, 210, 32)
	s.SetColor(withAlpha(parseHexColor("#0f172a"), 0.95))
	s.FillPreserve()
	s.SetColor(withAlpha(parseHexColor("#1e293b"), 0.95))
	s.Stroke()

	// barrel
	r.fillRect(120, -8-m.RecoilKick*0.05, 160, 10, "#8aa1cf", 0.95)

	// bolt carrier
	shift := m.BoltOffset * 24
	lift := m.BoltLift * 0.3
	r.fillRect(36-shift, -6-lift, 34, 12, "#c7d2fe", 0.95)
	r.fillRect(52-shift, 6-lift, 12, 18, "#c7d2fe", 0.95)

	// foregrip
	r.fillRect(20, -10, 80, 24, "#8b5a2b", 0.95)

	switch m.Animation {
	case game.AnimationFire:
		r.fillRect(30, -16, 60, 42, "#fff4d6", 0.25)
	case game.AnimationReload:
		r.fillRect(-60, -18, 120, 46, "#78bfff", 0.25)
	}

	// iron sights
	r.fillRect(170, -18-m.RecoilKick*0.04, 8, 12, "#cbd5f5", 0.95)
	r.fillRect(258, -16-m.RecoilKick*0.06, 10, 8, "#cbd5f5", 0.95)
	s.SetLineWidth(1)
}

func (r *Renderer) fillRect(x, y, w, h float64, hex string, alpha float64) {
	r.surface.SetColor(withAlpha(parseHexColor(hex), alpha))
	r.surface.DrawRectangle(x, y, w, h)
	r.surface.Fill()
}
