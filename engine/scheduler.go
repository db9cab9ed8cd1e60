package engine

import (
	"math"

	"github.com/lixenwraith/vi-orbit/constant"
)

// Limits bound the substep planner
type Limits struct {
	MaxFrameDelta float64 // Real seconds; longer frames are clamped (15 fps floor)
	Tolerance     float64 // Fractional substep count above which the count rounds up
	MaxSubsteps   int
}

// DefaultLimits returns the planner bounds used by the engine
func DefaultLimits() Limits {
	return Limits{
		MaxFrameDelta: constant.MaxFrameDelta,
		Tolerance:     constant.SubstepTolerance,
		MaxSubsteps:   constant.MaxSubsteps,
	}
}

// Plan is the work owed for one rendered frame
type Plan struct {
	Substeps   int
	Step       float64 // Simulated seconds per substep
	FrameDelta float64 // Real seconds accounted, after clamping
	Clamped    bool
}

// Simulated returns the simulated seconds the plan advances
func (p Plan) Simulated() float64 {
	return float64(p.Substeps) * p.Step
}

// Idle reports whether the plan carries no work
func (p Plan) Idle() bool {
	return p.Substeps == 0
}

// PlanSubsteps splits speed*frameDelta simulated seconds into substeps near baseDt
//
// The substep count is speed*frameDelta/baseDt: below one a single short substep runs,
// a fractional part above tolerance rounds up, otherwise it rounds to nearest.
// The step is then recomputed so Substeps*Step equals the owed time exactly.
func PlanSubsteps(frameDelta, speed, baseDt float64, lim Limits) Plan {
	if speed <= 0 || frameDelta <= 0 {
		return Plan{}
	}

	plan := Plan{FrameDelta: frameDelta}
	if lim.MaxFrameDelta > 0 && frameDelta > lim.MaxFrameDelta {
		plan.FrameDelta = lim.MaxFrameDelta
		plan.Clamped = true
	}

	owed := speed * plan.FrameDelta

	substeps := 1
	if baseDt > 0 {
		if updates := owed / baseDt; updates >= 1 {
			whole := math.Floor(updates)
			if updates-whole > lim.Tolerance {
				substeps = int(whole) + 1
			} else {
				substeps = int(math.Round(updates))
			}
		}
	}
	if lim.MaxSubsteps > 0 && substeps > lim.MaxSubsteps {
		substeps = lim.MaxSubsteps
	}

	plan.Substeps = substeps
	plan.Step = owed / float64(substeps)
	return plan
}
