package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"nickandperla.net/jspy/internal/logging"
)

// Current schema version
const SchemaVersion = "2"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu  sync.Mutex
	db  *sql.DB
	log commonlog.Logger
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scripts (
			path TEXT PRIMARY KEY,
			source TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db, log: logging.Get(logging.Store)}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case "", "1":
		// New DB or migrate from v1: add history and snapshots
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate %s to schema v2: %w", path, err)
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
		if version == "1" {
			s.log.Infof("migrated %s from schema v1 to v%s", path, SchemaVersion)
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 creates the history and snapshot tables. Existing scripts
// become version 1 of their history.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS script_versions (
			path TEXT NOT NULL,
			version INTEGER NOT NULL,
			source TEXT NOT NULL,
			ts TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (path, version)
		);
		INSERT OR IGNORE INTO script_versions (path, version, source)
			SELECT path, 1, source FROM scripts;
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created INTEGER NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS snapshots_by_name ON snapshots (name, created);
	`)
	return err
}

// GetScript retrieves the current source of path.
func (s *SQLite) GetScript(path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src string
	err := s.db.QueryRow("SELECT source FROM scripts WHERE path = ?", path).Scan(&src)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return src, true, nil
}

// PutScript stores src as the newest version of path. Storing the current
// source again is a no-op.
func (s *SQLite) PutScript(path, src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow("SELECT source FROM scripts WHERE path = ?", path).Scan(&current)
	switch {
	case err == nil && current == src:
		return nil
	case err != nil && err != sql.ErrNoRows:
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO scripts (path, source) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET source = excluded.source
	`, path, src); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO script_versions (path, version, source)
		SELECT ?, COALESCE(MAX(version), 0) + 1, ? FROM script_versions WHERE path = ?
	`, path, src, path); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteScript removes path and its history.
func (s *SQLite) DeleteScript(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM scripts WHERE path = ?", path); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM script_versions WHERE path = ?", path)
	return err
}

// ListScripts returns the stored paths sorted.
func (s *SQLite) ListScripts() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT path FROM scripts ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// GetHistory returns versions of path newest first. A limit of 0 returns all.
func (s *SQLite) GetHistory(path string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT version, source, ts FROM script_versions
		WHERE path = ? ORDER BY version DESC LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []VersionEntry
	for rows.Next() {
		var e VersionEntry
		if err := rows.Scan(&e.Version, &e.Source, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveSnapshot stores the portable bindings under name.
func (s *SQLite) SaveSnapshot(name string, bindings map[string]any) (string, error) {
	data, err := EncodeBindings(bindings)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO snapshots (id, name, created, data) VALUES (?, ?, ?, ?)`,
		id, name, time.Now().UnixNano(), data)
	if err != nil {
		return "", err
	}
	s.log.Debugf("saved snapshot %s as %s (%d bytes)", name, id, len(data))
	return id, nil
}

// LoadSnapshot returns the newest snapshot under name, or nil.
func (s *SQLite) LoadSnapshot(name string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		id      string
		created int64
		data    []byte
	)
	err := s.db.QueryRow(`
		SELECT id, created, data FROM snapshots
		WHERE name = ? ORDER BY created DESC LIMIT 1
	`, name).Scan(&id, &created, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	bindings, err := DecodeBindings(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: id, Name: name, Created: time.Unix(0, created), Bindings: bindings}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
