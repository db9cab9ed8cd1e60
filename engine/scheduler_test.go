package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/vi-orbit/constant"
)

func TestPlanSubsteps(t *testing.T) {
	lim := DefaultLimits()

	tests := []struct {
		name     string
		fd       float64
		speed    float64
		dt       float64
		substeps int
		clamped  bool
	}{
		{"paused", 1.0 / 60, 0, 1, 0, false},
		{"no time", 0, 100, 1, 0, false},
		{"negative delta", -0.5, 100, 1, 0, false},
		{"slower than one step", 1.0 / 60, 1, 1, 1, false},
		{"integral", 1.0 / 60, 300, 1, 5, false},
		{"fraction rounds up", 1.0 / 60, 100, 1, 2, false},
		{"clamped frame", 0.5, 1000, 1, 67, true},
		{"capped", 1.0 / 60, 100000, 0.001, constant.MaxSubsteps, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanSubsteps(tt.fd, tt.speed, tt.dt, lim)
			assert.Equal(t, tt.substeps, p.Substeps)
			assert.Equal(t, tt.clamped, p.Clamped)
			assert.Equal(t, tt.substeps == 0, p.Idle())
		})
	}
}

func TestPlanSubsteps_Tolerance(t *testing.T) {
	lim := Limits{Tolerance: 0.01, MaxSubsteps: 1000}

	p := PlanSubsteps(1, 10.005, 1, lim)
	assert.Equal(t, 10, p.Substeps, "within tolerance rounds to nearest")
	assert.InDelta(t, 1.0005, p.Step, 1e-12)

	p = PlanSubsteps(1, 10.02, 1, lim)
	assert.Equal(t, 11, p.Substeps, "beyond tolerance rounds up")

	p = PlanSubsteps(1, 10.995, 1, lim)
	assert.Equal(t, 11, p.Substeps)
}

func TestPlanSubsteps_Accounting(t *testing.T) {
	lim := DefaultLimits()

	for _, fd := range []float64{0.001, 1.0 / 144, 1.0 / 60, 1.0 / 30, 0.05, 0.066666, 0.1, 2} {
		for _, speed := range []float64{0.5, 1, 4, 10, 30, 100, 300, 1000, 2000, 5000, 99999.5, 100000} {
			for _, dt := range []float64{0.1, 1, 7.5, 60} {
				p := PlanSubsteps(fd, speed, dt, lim)
				want := speed * math.Min(fd, lim.MaxFrameDelta)

				if p.Substeps < 1 {
					t.Fatalf("fd=%v speed=%v dt=%v: no substeps", fd, speed, dt)
				}
				if math.Abs(p.Simulated()-want) > want*1e-12 {
					t.Fatalf("fd=%v speed=%v dt=%v: simulated %v, want %v", fd, speed, dt, p.Simulated(), want)
				}
				if p.Substeps > lim.MaxSubsteps {
					t.Fatalf("fd=%v speed=%v dt=%v: %d substeps over cap", fd, speed, dt, p.Substeps)
				}
			}
		}
	}
}
