package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Manager handles save files under a base directory
type Manager struct {
	basePath string
}

func NewManager(basePath string) *Manager {
	return &Manager{basePath: basePath}
}

// Path resolves a save name; absolute names are used as-is
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.basePath, name)
}

// Save encodes snap and writes it to disk, creating directories as needed
func (m *Manager) Save(name string, snap Snapshot) error {
	path := m.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("persistence: save %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return fmt.Errorf("persistence: encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("persistence: save %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a save file
// A missing file yields ErrNotFound
func (m *Manager) Load(name string) (Snapshot, error) {
	path := m.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Snapshot{}, fmt.Errorf("persistence: load %s: %w", path, err)
	}

	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("persistence: load %s: %w", path, err)
	}
	return snap, nil
}
