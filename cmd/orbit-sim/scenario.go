package main

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/engine"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// seed places a body on a circular orbit around its parent, SI units
type seed struct {
	name        string
	parent      string
	kind        component.Kind
	mass        float64 // kg
	radius      float64 // m
	distance    float64 // m from parent
	inclination float64 // degrees
	phase       float64 // radians along the orbit
	thrust      vmath.Vec3
}

// solarSystem is the start-up scenario when no save file is loaded
var solarSystem = []seed{
	{name: "Sun", kind: component.Celestial, mass: 1.98847e30, radius: 6.957e8},
	{name: "Mercury", parent: "Sun", kind: component.Celestial, mass: 3.3011e23, radius: 2.4397e6, distance: 5.791e10, inclination: 7.0, phase: 0.5},
	{name: "Venus", parent: "Sun", kind: component.Celestial, mass: 4.8675e24, radius: 6.0518e6, distance: 1.0821e11, inclination: 3.39, phase: 2.1},
	{name: "Earth", parent: "Sun", kind: component.Celestial, mass: 5.97237e24, radius: 6.371e6, distance: 1.496e11},
	{name: "Moon", parent: "Earth", kind: component.Celestial, mass: 7.342e22, radius: 1.7374e6, distance: 3.844e8, inclination: 5.145, phase: 1.0},
	{name: "Mars", parent: "Sun", kind: component.Celestial, mass: 6.4171e23, radius: 3.3895e6, distance: 2.2794e11, inclination: 1.85, phase: 4.0},
	{name: "Jupiter", parent: "Sun", kind: component.Celestial, mass: 1.8982e27, radius: 6.9911e7, distance: 7.7857e11, inclination: 1.3, phase: 3.0},
	{name: "Station", parent: "Earth", kind: component.Orbital, mass: 4.2e5, distance: 6.779e6, inclination: 51.6},
	{name: "Probe", parent: "Sun", kind: component.Orbital, mass: 7.2e2, distance: 1.2e11, phase: 5.0, thrust: vmath.Vec3{Y: 0.09}},
}

// loadScenario adds seeds in order; a parent must precede its children
func loadScenario(sim *engine.Simulation, seeds []seed) error {
	units := sim.Units()
	scale := physics.Meters.RescaleFactor(units)

	type placed struct {
		id       component.BodyID
		pos, vel vmath.Vec3 // SI
	}
	byName := make(map[string]placed, len(seeds))

	for _, s := range seeds {
		var pos, vel vmath.Vec3
		var parentID component.BodyID

		if s.parent != "" {
			p, ok := byName[s.parent]
			if !ok {
				return fmt.Errorf("scenario: %s: parent %s not placed yet", s.name, s.parent)
			}
			parent := seedByName(seeds, s.parent)
			r, v := circularOrbit(s.distance, physics.Meters.Mu(parent.mass), s.inclination, s.phase)
			pos, vel = vmath.V3Add(p.pos, r), vmath.V3Add(p.vel, v)
			parentID = p.id
		}

		id, err := sim.AddBody(component.Body{
			Name:     s.name,
			Kind:     s.kind,
			Mass:     s.mass,
			Radius:   s.radius * scale,
			Position: vmath.V3Scale(pos, scale),
			Velocity: vmath.V3Scale(vel, scale),
			Thrust:   s.thrust,
			Parent:   parentID,
		})
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		byName[s.name] = placed{id: id, pos: pos, vel: vel}
	}
	return nil
}

func seedByName(seeds []seed, name string) seed {
	for _, s := range seeds {
		if s.name == name {
			return s
		}
	}
	return seed{}
}

// circularOrbit returns relative state at phase on a circle of radius r tilted about the x axis
func circularOrbit(r, mu, inclinationDeg, phase float64) (vmath.Vec3, vmath.Vec3) {
	inc := inclinationDeg * math.Pi / 180
	sinI, cosI := math.Sincos(inc)
	sinP, cosP := math.Sincos(phase)
	speed := physics.CircularVelocity(r, mu)

	pos := vmath.Vec3{X: r * cosP, Y: r * sinP * cosI, Z: r * sinP * sinI}
	vel := vmath.Vec3{X: -speed * sinP, Y: speed * cosP * cosI, Z: speed * cosP * sinI}
	return pos, vel
}
