package engine

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// Preview returns every body as it would be at absolute simulated time t
// Runs sequentially on a copy with base-timestep substeps; t before now rewinds.
// Live state is untouched. Celestial bodies come first, then orbital bodies.
func (s *Simulation) Preview(t float64) ([]component.Body, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, fmt.Errorf("engine: preview time %v is not finite", t)
	}

	st, now := s.detach()
	s.advance(st, t-now, s.cfg.PreviewMaxSteps)

	out := make([]component.Body, 0, len(st.celestial)+len(st.orbital()))
	out = append(out, st.celestial...)
	return append(out, st.orbital()...), nil
}

// Trajectory samples a body's future position at samples evenly spaced instants over horizon seconds
// A negative horizon traces the past
func (s *Simulation) Trajectory(id component.BodyID, horizon float64, samples int) ([]vmath.Vec3, error) {
	if samples < 1 {
		return nil, fmt.Errorf("engine: trajectory needs at least one sample, got %d", samples)
	}
	if math.IsNaN(horizon) || math.IsInf(horizon, 0) {
		return nil, fmt.Errorf("engine: trajectory horizon %v is not finite", horizon)
	}

	st, _ := s.detach()

	locate := func() (*component.Body, bool) {
		for i := range st.celestial {
			if st.celestial[i].ID == id {
				return &st.celestial[i], true
			}
		}
		orbital := st.orbital()
		for i := range orbital {
			if orbital[i].ID == id {
				return &orbital[i], true
			}
		}
		return nil, false
	}
	body, ok := locate()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}

	budget := s.cfg.PreviewMaxSteps / samples
	if budget < 1 {
		budget = 1
	}

	segment := horizon / float64(samples)
	points := make([]vmath.Vec3, samples)
	for i := range points {
		s.advance(st, segment, budget)
		points[i] = body.Position
	}
	return points, nil
}

// detach copies the live bodies into a stepper under the frame lock
func (s *Simulation) detach() (*stepper, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newStepper(s.reg.Bodies(component.Celestial), s.reg.Bodies(component.Orbital), s.Units())
	return st, s.clock.Time()
}

// advance steps st by dt using substeps no larger than the base timestep, at most maxSteps
func (s *Simulation) advance(st *stepper, dt float64, maxSteps int) {
	if dt == 0 {
		return
	}
	n := int(math.Ceil(math.Abs(dt) / s.clock.Timestep()))
	if n < 1 {
		n = 1
	}
	if n > maxSteps {
		n = maxSteps
	}
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		st.step(h, integrate)
	}
}
