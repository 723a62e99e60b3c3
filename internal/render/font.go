package render

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// DefaultHUDFontSize is used when a TTF/OTF is loaded for the HUD
const DefaultHUDFontSize = 14

// LoadFontFace reads a TTF/OTF file once at startup. An empty path returns
// the built-in bitmap face.
func LoadFontFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read font")
	}
	return ParseFontFace(data, size)
}

// ParseFontFace builds a hinted face from font bytes
func ParseFontFace(data []byte, size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultHUDFontSize
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "font face")
	}
	return face, nil
}
