package droid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Persisted is the part of the droid state kept across restarts.
type Persisted struct {
	Version     int         `toml:"version"`
	Calibration Calibration `toml:"calibration"`
	Settings    Settings    `toml:"settings"`
}

// DefaultPersisted returns a zero calibration with factory settings.
func DefaultPersisted() Persisted {
	return Persisted{Version: 1, Settings: DefaultSettings()}
}

// Store loads and saves persisted droid state.
type Store interface {
	Load() (Persisted, error)
	Save(p Persisted) error
}

// TOMLStore keeps persisted state in a TOML file.
type TOMLStore struct {
	path string
}

// NewTOML creates a store backed by path, defaulting to droid.toml.
func NewTOML(path string) *TOMLStore {
	if path == "" {
		path = "droid.toml"
	}
	return &TOMLStore{path: path}
}

// Path returns the backing file path.
func (s *TOMLStore) Path() string {
	return s.path
}

// Load reads the file. A missing file yields defaults.
func (s *TOMLStore) Load() (Persisted, error) {
	p := DefaultPersisted()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to read droid state: %w", err)
	}

	if err := toml.Unmarshal(data, &p); err != nil {
		return DefaultPersisted(), fmt.Errorf("failed to parse droid state: %w", err)
	}

	if p.Version == 0 {
		p.Version = 1
	}
	if p.Settings.RobotName == "" {
		p.Settings.RobotName = DefaultRobotName
	}
	if p.Settings.MasterMovementSpeed == 0 {
		p.Settings.MasterMovementSpeed = DefaultSettings().MasterMovementSpeed
	}
	return p, nil
}

// Save writes p, creating the parent directory when needed.
func (s *TOMLStore) Save(p Persisted) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal droid state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write droid state: %w", err)
	}
	return nil
}
