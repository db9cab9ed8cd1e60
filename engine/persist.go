package engine

import (
	"fmt"
	"log"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/persistence"
)

// Save writes the current state; an empty path uses the configured save file
// Values are written in the active units
func (s *Simulation) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(path)
}

// Load replaces the current state from a file; an empty path uses the configured save file
// The file is fully decoded before anything changes, a failed load leaves state intact
func (s *Simulation) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path)
}

// SavePath resolves the file Save and Load would use for path
func (s *Simulation) SavePath(path string) string {
	if path == "" {
		path = s.cfg.SaveFile
	}
	return s.saves.Path(path)
}

func (s *Simulation) save(path string) error {
	if path == "" {
		path = s.cfg.SaveFile
	}
	snap := persistence.NewSnapshot(
		s.clock.Time(),
		s.reg.Bodies(component.Celestial),
		s.reg.Bodies(component.Orbital),
	)
	if err := s.saves.Save(path, snap); err != nil {
		return err
	}
	log.Printf("[ENGINE] saved %d celestial, %d orbital bodies to %s",
		len(snap.Celestial), len(snap.Orbital), s.saves.Path(path))
	return nil
}

func (s *Simulation) load(path string) error {
	if path == "" {
		path = s.cfg.SaveFile
	}
	snap, err := s.saves.Load(path)
	if err != nil {
		return err
	}
	celestial, orbital, err := snap.Resolve()
	if err != nil {
		return fmt.Errorf("engine: load %s: %w", path, err)
	}

	staged := s.reg.Staging()
	units := s.Units()

	ids := make(map[string]component.BodyID, len(celestial))
	for _, e := range celestial {
		id, err := staged.Add(e.Body)
		if err != nil {
			return fmt.Errorf("engine: load %s: %w", path, err)
		}
		ids[e.Body.Name] = id
	}
	for _, e := range orbital {
		b := e.Body
		b.Parent = ids[e.Parent]
		if _, err := staged.Add(b); err != nil {
			return fmt.Errorf("engine: load %s: %w", path, err)
		}
	}

	for _, e := range celestial {
		if e.Parent == "" {
			continue
		}
		parentID := ids[e.Parent]
		parent, _ := staged.Lookup(parentID)
		staged.Update(ids[e.Body.Name], func(b *component.Body) {
			b.Parent = parentID
			if !b.HasElements {
				deriveElements(b, &parent, units)
			}
		})
	}

	s.reg.Adopt(staged)
	s.clock.SetTime(snap.Time)
	log.Printf("[ENGINE] loaded %d celestial, %d orbital bodies from %s at %s",
		len(celestial), len(orbital), s.saves.Path(path), s.Date())
	return nil
}
