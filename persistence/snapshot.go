// Package persistence reads and writes simulation state in the delimiter-tagged text format
package persistence

import (
	"errors"
	"fmt"
	"log"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

// NullParent is written in place of a parent name for root bodies
const NullParent = "Null"

var (
	// ErrNotFound is returned when the save file does not exist
	ErrNotFound = errors.New("persistence: save file not found")
	// ErrVectorRange is returned for vectors with other than three components
	ErrVectorRange = errors.New("persistence: vector component count out of range")
	// ErrMalformed covers unparseable numbers, unknown tags and truncated records
	ErrMalformed = errors.New("persistence: malformed save data")
	// ErrParentCycle is returned when parent links loop back on themselves
	ErrParentCycle = errors.New("persistence: parent cycle")
)

// Record is one body as stored: vectors relative to the named parent
type Record struct {
	Name     string
	Parent   string // empty for none
	Position vmath.Vec3
	Velocity vmath.Vec3
	Thrust   vmath.Vec3
	Mass     float64
	Radius   float64
	Elements *component.Elements
}

// Snapshot is a complete saved state
type Snapshot struct {
	Time      float64 // seconds since the epoch
	Celestial []Record
	Orbital   []Record
}

// Entry is a decoded body in absolute coordinates, parent still referenced by name
type Entry struct {
	Body   component.Body
	Parent string
}

// NewSnapshot captures bodies at time t
// Parent links resolve against the celestial set; unresolvable parents are saved as root bodies
func NewSnapshot(t float64, celestial, orbital []component.Body) Snapshot {
	byID := make(map[component.BodyID]*component.Body, len(celestial))
	for i := range celestial {
		byID[celestial[i].ID] = &celestial[i]
	}

	capture := func(b *component.Body) Record {
		rec := Record{
			Name:     b.Name,
			Position: b.Position,
			Velocity: b.Velocity,
			Mass:     b.Mass,
			Radius:   b.Radius,
		}
		if p, ok := byID[b.Parent]; ok && b.Parent != b.ID {
			rec.Parent = p.Name
			rec.Position = vmath.V3Sub(b.Position, p.Position)
			rec.Velocity = vmath.V3Sub(b.Velocity, p.Velocity)
		}
		if b.IsCelestial() && b.HasElements {
			el := b.Elements
			rec.Elements = &el
		}
		if b.HasThrust() {
			rec.Thrust = b.Thrust
		}
		return rec
	}

	snap := Snapshot{
		Time:      t,
		Celestial: make([]Record, 0, len(celestial)),
		Orbital:   make([]Record, 0, len(orbital)),
	}
	for i := range celestial {
		snap.Celestial = append(snap.Celestial, capture(&celestial[i]))
	}
	for i := range orbital {
		snap.Orbital = append(snap.Orbital, capture(&orbital[i]))
	}
	return snap
}

// Resolve converts records into absolute-coordinate entries
// Parents are looked up among celestial records in any order, so forward references work
// An unknown parent name is logged and the body treated as a root
func (s Snapshot) Resolve() (celestial, orbital []Entry, err error) {
	index := make(map[string]int, len(s.Celestial))
	for i, rec := range s.Celestial {
		if _, dup := index[rec.Name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate celestial body %q", ErrMalformed, rec.Name)
		}
		index[rec.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(s.Celestial))
	absPos := make([]vmath.Vec3, len(s.Celestial))
	absVel := make([]vmath.Vec3, len(s.Celestial))
	parents := make([]string, len(s.Celestial))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: through %q", ErrParentCycle, s.Celestial[i].Name)
		}
		state[i] = visiting

		rec := s.Celestial[i]
		absPos[i], absVel[i] = rec.Position, rec.Velocity
		if rec.Parent != "" {
			p, ok := index[rec.Parent]
			switch {
			case !ok:
				log.Printf("[PERSIST] %s: unknown parent %q, loading as root", rec.Name, rec.Parent)
			case p == i:
				return fmt.Errorf("%w: %q is its own parent", ErrParentCycle, rec.Name)
			default:
				if err := visit(p); err != nil {
					return err
				}
				absPos[i] = vmath.V3Add(absPos[i], absPos[p])
				absVel[i] = vmath.V3Add(absVel[i], absVel[p])
				parents[i] = rec.Parent
			}
		}

		state[i] = done
		return nil
	}

	celestial = make([]Entry, len(s.Celestial))
	for i, rec := range s.Celestial {
		if err := visit(i); err != nil {
			return nil, nil, err
		}
		b := component.Body{
			Name:     rec.Name,
			Kind:     component.Celestial,
			Position: absPos[i],
			Velocity: absVel[i],
			Mass:     rec.Mass,
			Radius:   rec.Radius,
		}
		if rec.Elements != nil {
			b.Elements = *rec.Elements
			b.HasElements = true
		}
		celestial[i] = Entry{Body: b, Parent: parents[i]}
	}

	orbital = make([]Entry, len(s.Orbital))
	for i, rec := range s.Orbital {
		b := component.Body{
			Name:     rec.Name,
			Kind:     component.Orbital,
			Position: rec.Position,
			Velocity: rec.Velocity,
			Thrust:   rec.Thrust,
			Mass:     rec.Mass,
			Radius:   rec.Radius,
		}
		parent := ""
		if rec.Parent != "" {
			if p, ok := index[rec.Parent]; ok {
				b.Position = vmath.V3Add(b.Position, absPos[p])
				b.Velocity = vmath.V3Add(b.Velocity, absVel[p])
				parent = rec.Parent
			} else {
				log.Printf("[PERSIST] %s: unknown parent %q, loading as root", rec.Name, rec.Parent)
			}
		}
		orbital[i] = Entry{Body: b, Parent: parent}
	}

	return celestial, orbital, nil
}
