// Package store persists jspy script sources and scope snapshots.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Store is the interface for script and snapshot persistence.
type Store interface {
	// GetScript retrieves a script source by import path.
	GetScript(path string) (string, bool, error)
	// PutScript stores a script source, recording a new version when it changed.
	PutScript(path, src string) error
	// DeleteScript removes a script and its history.
	DeleteScript(path string) error
	// ListScripts returns the stored import paths in order.
	ListScripts() ([]string, error)
	// SaveSnapshot stores bindings under name and returns the snapshot id.
	SaveSnapshot(name string, bindings map[string]any) (string, error)
	// LoadSnapshot returns the newest snapshot saved under name, or nil.
	LoadSnapshot(name string) (*Snapshot, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a stored script.
type VersionEntry struct {
	Version int
	Source  string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(path string, limit int) ([]VersionEntry, error)
}

// Snapshot is a saved set of top-level bindings.
type Snapshot struct {
	ID       string
	Name     string
	Created  time.Time
	Bindings map[string]any
}

// Loader adapts a Store to the file loader signature used by imports.
// Missing scripts report fs.ErrNotExist.
func Loader(s Store) func(path string) (string, error) {
	return func(path string) (string, error) {
		src, ok, err := s.GetScript(path)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("store: %s: %w", path, fs.ErrNotExist)
		}
		return src, nil
	}
}

// IsNotExist reports whether err means a script was not found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
