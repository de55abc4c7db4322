package imaging

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads successive hues so neighbouring IDs get distinct colours.
const goldenAngle = 137.508

// MarkColor returns the outline colour for the n-th mark. Colours are fully
// saturated and deterministic for a given n.
func MarkColor(n int) color.RGBA {
	h := math.Mod(float64(n)*goldenAngle, 360)
	r, g, b := colorful.Hsv(h, 0.85, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ContrastText picks black or white text for legibility on bg, using the
// perceptual lightness of bg.
func ContrastText(bg color.Color) color.RGBA {
	c, ok := colorful.MakeColor(bg)
	if !ok {
		return color.RGBA{255, 255, 255, 255}
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{255, 255, 255, 255}
}

// withAlpha returns c with the given alpha, as a non-premultiplied colour.
func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
