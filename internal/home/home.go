// Package home lays out the concierge home directory.
package home

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDirName is the default name for the concierge home directory.
	DefaultDirName = ".concierge"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	DatasetsDirName = "datasets"
	AudioDirName    = "audio"
)

// Dir represents the concierge home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.concierge).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// StorePath resolves the job database path. Relative paths live in the
// home directory.
func (d *Dir) StorePath(p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(d.path, p)
}

// DatasetsDir returns the directory for generated JSONL datasets.
func (d *Dir) DatasetsDir() string {
	return filepath.Join(d.path, DatasetsDirName)
}

// DatasetPath returns a timestamped path for a dataset built from source.
func (d *Dir) DatasetPath(source string, at time.Time) string {
	base := filepath.Base(source)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(d.DatasetsDir(), fmt.Sprintf("%s_%s.jsonl", base, at.UTC().Format("20060102T150405")))
}

// AudioDir returns the directory for synthesized speech.
func (d *Dir) AudioDir() string {
	return filepath.Join(d.path, AudioDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DatasetsDir(), d.AudioDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
