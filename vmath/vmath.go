package vmath

import "math"

const TwoPi = 2 * math.Pi

// Clamp limits x to [lo, hi]
// Used on every inverse-trig input, floating-point overshoot past ±1 yields NaN otherwise
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// NormalizeRadians wraps an angle into [0, 2π)
func NormalizeRadians(angle float64) float64 {
	angle = math.Mod(angle, TwoPi)
	if angle < 0 {
		angle += TwoPi
	}
	// Mod of a tiny negative value can round up to exactly 2π
	if angle >= TwoPi {
		angle -= TwoPi
	}
	return angle
}

// AcosClamped is math.Acos with the argument clamped to [-1, 1]
func AcosClamped(x float64) float64 {
	return math.Acos(Clamp(x, -1, 1))
}
