package hue_test

import (
	"testing"

	"github.com/matryer/is"

	"github.com/avolis/presenced/internal/hue"
)

func TestFromRGB(t *testing.T) {
	is := is.New(t)

	testCases := []struct {
		r, g, b uint8
		want    uint16
	}{
		{255, 0, 0, 0},      // red
		{255, 255, 0, 60},   // yellow
		{0, 255, 0, 120},    // green
		{0, 255, 255, 180},  // cyan
		{0, 0, 255, 240},    // blue
		{255, 0, 255, 300},  // magenta
		{0, 0, 0, 0},        // black, no hue
		{255, 255, 255, 0},  // white, no hue
		{128, 128, 128, 0},  // grey, no hue
		{255, 128, 0, 30},   // orange
	}

	for _, tc := range testCases {
		is.Equal(hue.FromRGB(tc.r, tc.g, tc.b), tc.want)
	}
}

func TestFromRGBRange(t *testing.T) {
	is := is.New(t)

	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 17 {
				h := hue.FromRGB(uint8(r), uint8(g), uint8(b))
				is.True(h <= 360)
			}
		}
	}
}
