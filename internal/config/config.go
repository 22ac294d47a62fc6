// Package config handles jspy.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "jspy.toml"

// Config represents a jspy.toml project configuration.
type Config struct {
	Runtime Runtime        `toml:"runtime"`
	Store   Store          `toml:"store"`
	Log     Log            `toml:"log"`
	Globals map[string]any `toml:"globals"`

	// Dir is the directory containing the jspy.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime configures evaluation.
type Runtime struct {
	Entry         string   `toml:"entry"`
	EntryFunction string   `toml:"entry_function"`
	SearchPaths   []string `toml:"search_paths"`
	TabWidth      int      `toml:"tab_width"`
	NoStdlib      bool     `toml:"no_stdlib"`
}

// Store configures persistence. An empty path means no store.
type Store struct {
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no jspy.toml exists.
func Default() *Config {
	c := &Config{Dir: "."}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if len(c.Runtime.SearchPaths) == 0 {
		c.Runtime.SearchPaths = []string{"."}
	}
	if c.Runtime.TabWidth == 0 {
		c.Runtime.TabWidth = 4
	}
	if c.Globals == nil {
		c.Globals = make(map[string]any)
	}
}

// Load parses the jspy.toml file in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Relative paths in it are
// resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s in %s", undecoded[0], path)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a jspy.toml file, then loads
// it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SearchPathDirs returns absolute search paths, resolved against Dir.
func (c *Config) SearchPathDirs() []string {
	var paths []string
	for _, p := range c.Runtime.SearchPaths {
		if filepath.IsAbs(p) {
			paths = append(paths, p)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, p))
	}
	return paths
}

// StorePath returns the store path resolved against Dir, or "".
func (c *Config) StorePath() string {
	if c.Store.Path == "" || c.Store.Path == ":memory:" || filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}

// EntryPath returns the entry script resolved against Dir, or "".
func (c *Config) EntryPath() string {
	if c.Runtime.Entry == "" || filepath.IsAbs(c.Runtime.Entry) {
		return c.Runtime.Entry
	}
	return filepath.Join(c.Dir, c.Runtime.Entry)
}
