package gmarchaux

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// HSV conversion taken from Esme Lamb's (@dedelala) excellent color
// manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

// HSV2RGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to a linear RGB color vector on the same range.
func HSV2RGB(h, s, v float32) ms3.Vec {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	var r, g, b float32
	switch {
	case h >= 0 && h <= 1.0/6:
		r, g, b = c, x, 0
	case h > 1.0/6 && h <= 2.0/6:
		r, g, b = x, c, 0
	case h > 2.0/6 && h <= 3.0/6:
		r, g, b = 0, c, x
	case h > 3.0/6 && h <= 4.0/6:
		r, g, b = 0, x, c
	case h > 4.0/6 && h <= 5.0/6:
		r, g, b = x, 0, c
	case h > 5.0/6 && h <= 1.0:
		r, g, b = c, 0, x
	}
	return ms3.Vec{X: r + m, Y: g + m, Z: b + m}
}

// ZigZag maps t to a triangle wave of the given period oscillating between
// lo and hi, starting at lo for t=0. Animates palette parameters over time.
func ZigZag(t, period, lo, hi float32) float32 {
	x := 2 * math.Mod(t, period) / period
	if x > 1 {
		x = 2 - x
	}
	return lo + x*(hi-lo)
}
