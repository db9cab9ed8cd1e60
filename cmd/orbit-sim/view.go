package main

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/engine"
	"github.com/lixenwraith/vi-orbit/physics"
	"github.com/lixenwraith/vi-orbit/vmath"
)

const helpLine = "+/- speed  0 stop  p pause  k units  s save  l load  q quit"

// row is one table line, distances relative to the parent
type row struct {
	Name     string
	Kind     component.Kind
	Parent   string
	Mode     component.Propagation
	Distance float64
	Speed    float64
	Ecc      float64
	HasOrbit bool
}

// frameView is everything drawn for one frame
type frameView struct {
	Date    string
	Speed   float64
	Units   physics.Units
	Paused  bool
	Plan    engine.Plan
	Rows    []row
	Message string
}

// snapshotView reads the simulation once for drawing
func snapshotView(sim *engine.Simulation, plan engine.Plan, paused bool, message string) frameView {
	v := frameView{
		Date:    sim.Date(),
		Speed:   sim.Speed(),
		Units:   sim.Units(),
		Paused:  paused,
		Plan:    plan,
		Message: message,
	}

	reg := sim.Registry()
	for _, kind := range []component.Kind{component.Celestial, component.Orbital} {
		for _, b := range reg.Bodies(kind) {
			r := row{Name: b.Name, Kind: b.Kind, Mode: b.Propagation, Parent: "-"}
			if p, ok := reg.Parent(b.ID); ok {
				rel := vmath.V3Sub(b.Position, p.Position)
				relV := vmath.V3Sub(b.Velocity, p.Velocity)
				r.Parent = p.Name
				r.Distance = vmath.V3Mag(rel)
				r.Speed = vmath.V3Mag(relV)
				if b.HasElements {
					r.Ecc, r.HasOrbit = b.Elements.Eccentricity, true
				} else if el := physics.ElementsFromState(rel, relV, v.Units.Mu(p.Mass)); el.Valid() {
					r.Ecc, r.HasOrbit = el.Eccentricity, true
				}
			}
			v.Rows = append(v.Rows, r)
		}
	}
	return v
}

// lines renders the view as plain text, header first
func (v frameView) lines() []string {
	state := "running"
	if v.Paused {
		state = "paused"
	}
	out := []string{
		fmt.Sprintf("%s  speed %sx  step %ss x%d  units %s  %s",
			v.Date, formatNumber(v.Speed), formatNumber(v.Plan.Step), v.Plan.Substeps, v.Units, state),
		"",
		fmt.Sprintf("%-12s %-9s %-10s %-8s %14s %14s %8s", "NAME", "KIND", "PARENT", "MODE", "DIST", "SPEED", "ECC"),
	}
	for _, r := range v.Rows {
		ecc := "-"
		if r.HasOrbit {
			ecc = strconv.FormatFloat(r.Ecc, 'f', 4, 64)
		}
		dist, speed := "-", "-"
		if r.Parent != "-" {
			dist = formatNumber(r.Distance) + " " + v.Units.String()
			speed = formatNumber(r.Speed) + " " + v.Units.String() + "/s"
		}
		out = append(out, fmt.Sprintf("%-12s %-9s %-10s %-8s %14s %14s %8s",
			clip(r.Name, 12), r.Kind, clip(r.Parent, 10), r.Mode, dist, speed, ecc))
	}
	out = append(out, "", helpLine)
	if v.Message != "" {
		out = append(out, v.Message)
	}
	return out
}

// draw clears the screen and writes the view line by line
func (v frameView) draw(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()

	header := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	body := tcell.StyleDefault
	muted := tcell.StyleDefault.Foreground(tcell.ColorGray)

	for y, line := range v.lines() {
		if y >= height {
			break
		}
		style := body
		switch {
		case y == 0 || y == 2:
			style = header
		case line == helpLine:
			style = muted
		}
		drawText(screen, 0, y, width, line, style)
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func formatNumber(v float64) string {
	if v != 0 && (v >= 1e6 || v < 1e-2) {
		return strconv.FormatFloat(v, 'e', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
