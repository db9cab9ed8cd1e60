package vmath

import (
	"math"
	"testing"
)

func TestV3Cross(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want Vec3
	}{
		{"x cross y", Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"y cross z", Vec3{0, 1, 0}, Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"parallel", Vec3{2, 0, 0}, Vec3{5, 0, 0}, Vec3{}},
		{"anti-commutative", Vec3{0, 1, 0}, Vec3{1, 0, 0}, Vec3{0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := V3Cross(tt.a, tt.b); got != tt.want {
				t.Errorf("V3Cross(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestV3Normalize(t *testing.T) {
	n := V3Normalize(Vec3{3, 4, 0})
	if math.Abs(V3Mag(n)-1) > 1e-15 {
		t.Errorf("normalized magnitude = %v, want 1", V3Mag(n))
	}
	if z := V3Normalize(Vec3{}); !V3IsZero(z) {
		t.Errorf("V3Normalize(zero) = %v, want zero", z)
	}
}

func TestV3AddScaled(t *testing.T) {
	got := V3AddScaled(Vec3{1, 2, 3}, Vec3{1, 1, 1}, 0.5)
	want := Vec3{1.5, 2.5, 3.5}
	if got != want {
		t.Errorf("V3AddScaled = %v, want %v", got, want)
	}
}

func TestNormalizeRadians(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{TwoPi, 0},
		{-math.Pi / 2, 1.5 * math.Pi},
		{5 * math.Pi, math.Pi},
	}

	for _, tt := range tests {
		got := NormalizeRadians(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeRadians(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < 0 || got >= TwoPi {
			t.Errorf("NormalizeRadians(%v) = %v outside [0, 2π)", tt.in, got)
		}
	}

	if got := NormalizeRadians(-1e-18); got < 0 || got >= TwoPi {
		t.Errorf("NormalizeRadians(tiny negative) = %v outside [0, 2π)", got)
	}
}

func TestAcosClamped(t *testing.T) {
	if got := AcosClamped(1 + 1e-12); got != 0 {
		t.Errorf("AcosClamped(1+eps) = %v, want 0", got)
	}
	if got := AcosClamped(-1 - 1e-12); got != math.Pi {
		t.Errorf("AcosClamped(-1-eps) = %v, want π", got)
	}
}
