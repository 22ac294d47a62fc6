package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memorySnapshot struct {
	id      string
	created time.Time
	data    []byte
}

// Memory is an in-memory store for testing and embedding.
type Memory struct {
	mu        sync.RWMutex
	scripts   map[string][]VersionEntry // oldest first
	snapshots map[string][]memorySnapshot
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		scripts:   make(map[string][]VersionEntry),
		snapshots: make(map[string][]memorySnapshot),
	}
}

// GetScript retrieves the current source of path.
func (m *Memory) GetScript(path string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.scripts[path]
	if len(versions) == 0 {
		return "", false, nil
	}
	return versions[len(versions)-1].Source, true, nil
}

// PutScript stores src as the newest version of path. Storing the current
// source again is a no-op.
func (m *Memory) PutScript(path, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.scripts[path]
	if n := len(versions); n > 0 && versions[n-1].Source == src {
		return nil
	}
	m.scripts[path] = append(versions, VersionEntry{
		Version: len(versions) + 1,
		Source:  src,
		Ts:      time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// DeleteScript removes path and its history.
func (m *Memory) DeleteScript(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scripts, path)
	return nil
}

// ListScripts returns the stored paths sorted.
func (m *Memory) ListScripts() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.scripts))
	for p := range m.scripts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// GetHistory returns versions of path newest first. A limit of 0 returns all.
func (m *Memory) GetHistory(path string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.scripts[path]
	if len(versions) == 0 {
		return nil, nil
	}
	var out []VersionEntry
	for i := len(versions) - 1; i >= 0; i-- {
		out = append(out, versions[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SaveSnapshot stores the portable bindings under name.
func (m *Memory) SaveSnapshot(name string, bindings map[string]any) (string, error) {
	data, err := EncodeBindings(bindings)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[name] = append(m.snapshots[name], memorySnapshot{id: id, created: time.Now(), data: data})
	return id, nil
}

// LoadSnapshot returns the newest snapshot under name, or nil.
func (m *Memory) LoadSnapshot(name string) (*Snapshot, error) {
	m.mu.RLock()
	snaps := m.snapshots[name]
	m.mu.RUnlock()
	if len(snaps) == 0 {
		return nil, nil
	}
	last := snaps[len(snaps)-1]
	bindings, err := DecodeBindings(last.data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: last.id, Name: name, Created: last.created, Bindings: bindings}, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
