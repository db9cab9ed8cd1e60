package registry

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/vmath"
)

var (
	// ErrDuplicateName is returned when a body name is already registered in its collection
	ErrDuplicateName = errors.New("registry: duplicate body name")
	// ErrInvalidName is returned for empty or whitespace-bearing names
	ErrInvalidName = errors.New("registry: invalid body name")
	// ErrInvalidBody is returned for non-positive mass or negative radius
	ErrInvalidBody = errors.New("registry: invalid body")
)

// Registry owns every body of a simulation
// Two ordered collections (celestial, orbital) keyed by stable BodyID
// Names are unique per collection; IDs are never reused so stale parent links resolve to nothing
type Registry struct {
	mu     sync.RWMutex
	nextID component.BodyID
	bodies map[component.BodyID]*component.Body
	order  [2][]component.BodyID
	names  [2]map[string]component.BodyID
}

// New creates an empty registry
func New() *Registry {
	r := &Registry{
		nextID: component.NoBody,
		bodies: make(map[component.BodyID]*component.Body),
	}
	for i := range r.names {
		r.names[i] = make(map[string]component.BodyID)
	}
	return r
}

// ValidName reports whether s is usable as a body name
// Names are stored as bare save-file fields: no whitespace, no "--" delimiter, not "Null"
// A trailing '-' would merge with the following field delimiter
func ValidName(s string) bool {
	return s != "" && s != "Null" && !strings.ContainsAny(s, " \t\r\n") &&
		!strings.Contains(s, "--") && !strings.HasSuffix(s, "-")
}

// Add registers a copy of body and returns its assigned ID
// Any ID on the input is ignored
func (r *Registry) Add(body component.Body) (component.BodyID, error) {
	if !ValidName(body.Name) {
		log.Printf("[REGISTRY] rejected body %q: invalid name", body.Name)
		return component.NoBody, fmt.Errorf("%w: %q", ErrInvalidName, body.Name)
	}
	if body.Mass <= 0 || body.Radius < 0 {
		log.Printf("[REGISTRY] rejected body %q: mass=%g radius=%g", body.Name, body.Mass, body.Radius)
		return component.NoBody, fmt.Errorf("%w: %q mass=%g radius=%g", ErrInvalidBody, body.Name, body.Mass, body.Radius)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kind := kindIndex(body.Kind)
	if _, exists := r.names[kind][body.Name]; exists {
		log.Printf("[REGISTRY] %s body %q already exists", body.Kind, body.Name)
		return component.NoBody, fmt.Errorf("%w: %s %q", ErrDuplicateName, body.Kind, body.Name)
	}

	r.nextID++
	body.ID = r.nextID
	stored := body
	r.bodies[body.ID] = &stored
	r.order[kind] = append(r.order[kind], body.ID)
	r.names[kind][body.Name] = body.ID
	return body.ID, nil
}

// Remove deletes a body; children keep their now-dangling parent ID
func (r *Registry) Remove(id component.BodyID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	body, ok := r.bodies[id]
	if !ok {
		return false
	}

	kind := kindIndex(body.Kind)
	delete(r.bodies, id)
	delete(r.names[kind], body.Name)

	order := r.order[kind]
	for i, oid := range order {
		if oid == id {
			r.order[kind] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return true
}

// RemoveByName deletes the named body from the given collection
func (r *Registry) RemoveByName(kind component.Kind, name string) bool {
	id, ok := r.ID(kind, name)
	if !ok {
		return false
	}
	return r.Remove(id)
}

// Clear drops every body; ID allocation continues from the previous counter
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bodies = make(map[component.BodyID]*component.Body)
	for i := range r.order {
		r.order[i] = nil
		r.names[i] = make(map[string]component.BodyID)
	}
}

// Staging returns an empty registry that continues this registry's ID sequence
// Build replacement state there, then Adopt it
func (r *Registry) Staging() *Registry {
	r.mu.RLock()
	next := r.nextID
	r.mu.RUnlock()

	s := New()
	s.nextID = next
	return s
}

// Adopt replaces this registry's contents with staged's
// staged must not be used afterwards
func (r *Registry) Adopt(staged *Registry) {
	staged.mu.Lock()
	bodies, order, names, next := staged.bodies, staged.order, staged.names, staged.nextID
	staged.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies, r.order, r.names = bodies, order, names
	if next > r.nextID {
		r.nextID = next
	}
}

// Lookup returns a copy of the body with id
func (r *Registry) Lookup(id component.BodyID) (component.Body, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.bodies[id]; ok {
		return *b, true
	}
	return component.Body{}, false
}

// LookupName returns a copy of the named body
func (r *Registry) LookupName(kind component.Kind, name string) (component.Body, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[kindIndex(kind)][name]
	if !ok {
		return component.Body{}, false
	}
	return *r.bodies[id], true
}

// ID resolves a name to its ID within a collection
func (r *Registry) ID(kind component.Kind, name string) (component.BodyID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[kindIndex(kind)][name]
	return id, ok
}

// Parent resolves the body's parent link; false when absent or removed
func (r *Registry) Parent(id component.BodyID) (component.Body, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bodies[id]
	if !ok || b.Parent == component.NoBody {
		return component.Body{}, false
	}
	p, ok := r.bodies[b.Parent]
	if !ok {
		return component.Body{}, false
	}
	return *p, true
}

// Bodies returns copies of a collection in insertion order
func (r *Registry) Bodies(kind component.Kind) []component.Body {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order := r.order[kindIndex(kind)]
	out := make([]component.Body, len(order))
	for i, id := range order {
		out[i] = *r.bodies[id]
	}
	return out
}

// ByName returns copies of a collection keyed by name
func (r *Registry) ByName(kind component.Kind) map[string]component.Body {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.names[kindIndex(kind)]
	out := make(map[string]component.Body, len(names))
	for name, id := range names {
		out[name] = *r.bodies[id]
	}
	return out
}

// Len returns the size of a collection
func (r *Registry) Len(kind component.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order[kindIndex(kind)])
}

// Update applies fn to the stored body under the write lock
// ID, name and kind are restored after fn so identity cannot drift
func (r *Registry) Update(id component.BodyID, fn func(b *component.Body)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bodies[id]
	if !ok {
		return false
	}
	name, kind := b.Name, b.Kind
	fn(b)
	b.ID, b.Name, b.Kind = id, name, kind
	return true
}

// Store writes back integrated state for a batch of bodies
// Bodies no longer registered are skipped
func (r *Registry) Store(bodies []component.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range bodies {
		b, ok := r.bodies[bodies[i].ID]
		if !ok {
			continue
		}
		name, kind := b.Name, b.Kind
		*b = bodies[i]
		b.Name, b.Kind = name, kind
	}
}

// Rescale multiplies every stored length by factor
// Covers position, velocity, radius and the semi-major axis of stored elements
func (r *Registry) Rescale(factor float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bodies {
		b.Position = vmath.V3Scale(b.Position, factor)
		b.Velocity = vmath.V3Scale(b.Velocity, factor)
		b.Radius *= factor
		if b.HasElements {
			b.Elements = b.Elements.Scaled(factor)
		}
	}
}

func kindIndex(k component.Kind) int {
	if k == component.Orbital {
		return 1
	}
	return 0
}
