// Package artifact persists per-unit results as JSON files. The existence of
// a well-formed file doubles as the checkpoint marker: a unit whose artifact
// already parses is never reprocessed, so interrupted runs resume by rerunning
// the same command over the same output root.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes JSON artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory is created on first
// write, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute artifact path for a unit key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+".json")
}

// Completed reports whether the unit's artifact exists and parses as JSON.
// A file left behind by a crashed writer does not count as done.
func (s *Store) Completed(key string) bool {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return false
	}
	return json.Valid(data)
}

// Load reads the unit's artifact into v.
func (s *Store) Load(key string, v any) error {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return fmt.Errorf("load artifact %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse artifact %s: %w", key, err)
	}
	return nil
}

// Save writes the unit's artifact atomically: marshal, write to a temp file
// in the same directory, then rename over the final path. Readers never see
// a half-written file.
func (s *Store) Save(key string, v any) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", key, err)
	}

	return WriteFileAtomic(s.Path(key), data)
}

// WriteFileAtomic writes data to path via a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// SaveJSON marshals v and writes it atomically to an arbitrary path outside
// any store. Used for aggregate outputs that are not per-unit artifacts.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, data)
}

// LoadJSON reads a JSON file into v.
func LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
