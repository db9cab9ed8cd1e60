package physics

import (
	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// RK4 advances body by h using classical fourth-order Runge-Kutta
// others: gravitational sources (celestial snapshot); body is skipped by ID if present
// The dominant attractor at the current position becomes the body's parent
// Thrust on Orbital bodies is applied afterwards as a first-order impulse
func RK4(body *component.Body, others []component.Body, h float64, units Units) {
	halfH := h / 2
	sixthH := h / 6

	pos := body.Position
	vel := body.Velocity

	k1v, parent := TotalAcceleration(pos, body, others, units)
	k1r := vel

	k2v, _ := TotalAcceleration(vmath.V3AddScaled(pos, k1r, halfH), body, others, units)
	k2r := vmath.V3AddScaled(vel, k1v, halfH)

	k3v, _ := TotalAcceleration(vmath.V3AddScaled(pos, k2r, halfH), body, others, units)
	k3r := vmath.V3AddScaled(vel, k2v, halfH)

	k4v, _ := TotalAcceleration(vmath.V3AddScaled(pos, k3r, h), body, others, units)
	k4r := vmath.V3AddScaled(vel, k3v, h)

	dr := vmath.V3Add(vmath.V3Add(k1r, vmath.V3Scale(k2r, 2)), vmath.V3Add(vmath.V3Scale(k3r, 2), k4r))
	dv := vmath.V3Add(vmath.V3Add(k1v, vmath.V3Scale(k2v, 2)), vmath.V3Add(vmath.V3Scale(k3v, 2), k4v))

	body.Position = vmath.V3AddScaled(pos, dr, sixthH)
	body.Velocity = vmath.V3AddScaled(vel, dv, sixthH)
	body.Parent = parent

	if body.HasThrust() && body.Mass > 0 {
		accel := vmath.V3Scale(body.Thrust, units.ThrustScale()/body.Mass)
		body.Position = vmath.V3AddScaled(body.Position, accel, h)
		body.Velocity = vmath.V3AddScaled(body.Velocity, accel, h)
	}
}

// StepN runs n RK4 substeps of size h
func StepN(body *component.Body, others []component.Body, h float64, n int, units Units) {
	for i := 0; i < n; i++ {
		RK4(body, others, h, units)
	}
}
