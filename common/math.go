package common

import "math"

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// P2M converts a pixel length into meters.
func P2M(px float64) float64 {
	return px / PixelsPerMeter
}

// M2P converts a length in meters into pixels.
func M2P(m float64) float64 {
	return m * PixelsPerMeter
}

// WrapAngleRadians maps an angle into [0, 2*pi).
func WrapAngleRadians(a float64) float64 {
	twoPi := 2 * math.Pi
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}
