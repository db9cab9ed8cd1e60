package engine

import (
	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// stepper advances a detached copy of the bodies substep by substep
//
// Numeric bodies (orbital bodies, celestial roots) run RK4 against the celestial
// snapshot taken at the start of the substep. Analytic celestial bodies then follow
// their elements, parents first, anchored on the parent's freshly updated state.
type stepper struct {
	units physics.Units

	celestial []component.Body // Gravity sources; also holds analytic results
	work      []component.Body // Numeric celestial bodies, then orbital bodies
	numeric   []int            // celestial index of work[i] for i < len(numeric)
	analytic  []int            // celestial indices, parent before child
	parentOf  []int            // celestial index of each analytic body's parent

	kepler keplerStats
}

type keplerStats struct {
	unconverged   int
	maxIterations int
}

func (k *keplerStats) record(sol physics.KeplerSolution) {
	if !sol.Converged {
		k.unconverged++
	}
	if sol.Iterations > k.maxIterations {
		k.maxIterations = sol.Iterations
	}
}

// newStepper classifies propagation and takes ownership of the given slices
func newStepper(celestial, orbital []component.Body, units physics.Units) *stepper {
	s := &stepper{
		units:     units,
		celestial: celestial,
		parentOf:  make([]int, len(celestial)),
	}

	index := make(map[component.BodyID]int, len(celestial))
	for i := range celestial {
		index[celestial[i].ID] = i
	}

	candidate := make([]bool, len(celestial))
	for i := range celestial {
		b := &celestial[i]
		s.parentOf[i] = -1
		if b.Parent == component.NoBody || b.Parent == b.ID || !b.HasElements || !b.Elements.Valid() {
			continue
		}
		if p, ok := index[b.Parent]; ok {
			candidate[i] = true
			s.parentOf[i] = p
		}
	}

	// Place analytic bodies once their parent is placed or numeric; leftovers form
	// parent cycles and are integrated numerically instead
	placed := make([]bool, len(celestial))
	for progress := true; progress; {
		progress = false
		for i := range celestial {
			if !candidate[i] || placed[i] {
				continue
			}
			if p := s.parentOf[i]; !candidate[p] || placed[p] {
				placed[i] = true
				s.analytic = append(s.analytic, i)
				progress = true
			}
		}
	}

	s.work = make([]component.Body, 0, len(celestial)+len(orbital))
	for i := range celestial {
		if placed[i] {
			celestial[i].Propagation = component.Analytic
			continue
		}
		celestial[i].Propagation = component.Numeric
		s.numeric = append(s.numeric, i)
		s.work = append(s.work, celestial[i])
	}
	for i := range orbital {
		orbital[i].Propagation = component.Numeric
		s.work = append(s.work, orbital[i])
	}
	return s
}

// step advances all bodies by h; run integrates the numeric set
func (s *stepper) step(h float64, run func(work, sources []component.Body, h float64, units physics.Units)) {
	run(s.work, s.celestial, h, s.units)

	for j, ci := range s.numeric {
		s.celestial[ci] = s.work[j]
	}

	for _, ci := range s.analytic {
		b := &s.celestial[ci]
		p := &s.celestial[s.parentOf[ci]]
		mu := s.units.Mu(p.Mass)

		el, sol := physics.Propagate(b.Elements, mu, h)
		s.kepler.record(sol)

		r, v := physics.StateFromElements(el, mu)
		b.Elements = el
		b.Position = vmath.V3Add(p.Position, r)
		b.Velocity = vmath.V3Add(p.Velocity, v)
	}
}

// refreshElements recomputes osculating elements of numeric celestial bodies with a parent
// Bodies whose orbit is closed become analytic on the next frame
func (s *stepper) refreshElements() {
	index := make(map[component.BodyID]int, len(s.celestial))
	for i := range s.celestial {
		index[s.celestial[i].ID] = i
	}

	for _, ci := range s.numeric {
		b := &s.celestial[ci]
		p, ok := index[b.Parent]
		if !ok || b.Parent == b.ID {
			continue
		}
		parent := &s.celestial[p]
		el := physics.ElementsFromState(
			vmath.V3Sub(b.Position, parent.Position),
			vmath.V3Sub(b.Velocity, parent.Velocity),
			s.units.Mu(parent.Mass),
		)
		b.Elements = el
		b.HasElements = el.Valid()
	}
}

// orbital returns the integrated orbital bodies
func (s *stepper) orbital() []component.Body {
	return s.work[len(s.numeric):]
}
