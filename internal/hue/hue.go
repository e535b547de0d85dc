// Package hue converts RGB triples into the hue angle (0-360 degrees) that
// the wire format uses as a player's appearance.
package hue

import "math"

// FromRGB returns the HSV hue angle of an RGB triple. Greys (including black
// and white) have no defined hue and map to 0.
func FromRGB(r, g, b uint8) uint16 {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	mx := math.Max(rf, math.Max(gf, bf))
	mn := math.Min(rf, math.Min(gf, bf))
	d := mx - mn
	if d == 0 {
		return 0
	}

	var h float64
	switch mx {
	case rf:
		h = math.Mod((gf-bf)/d, 6)
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}

	return uint16(math.Round(h)) % 361
}
