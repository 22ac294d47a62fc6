// Package loader finds the sources and host modules that import statements
// name.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileLoader returns the text of the file at path.
type FileLoader func(path string) (string, error)

// ModuleLoader returns the value bound by importing a host module.
type ModuleLoader func(path string) (any, error)

// Kind classifies an import path.
type Kind int

const (
	KindModule Kind = iota
	KindScript
	KindJSON
	KindYAML
)

func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindJSON:
		return "json"
	case KindYAML:
		return "yaml"
	}
	return "module"
}

// KindOf dispatches on the extension of path.
func KindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jspy", ".py":
		return KindScript
	case ".json":
		return KindJSON
	case ".yaml", ".yml":
		return KindYAML
	}
	return KindModule
}

// Files returns a FileLoader that reads path from the filesystem. Relative
// paths are tried against each search path in order; an empty list means
// the working directory.
func Files(searchPaths ...string) FileLoader {
	return func(path string) (string, error) {
		if filepath.IsAbs(path) || len(searchPaths) == 0 {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		for _, dir := range searchPaths {
			data, err := os.ReadFile(filepath.Join(dir, path))
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}
		return "", fmt.Errorf("%s not found in %s: %w", path, strings.Join(searchPaths, ", "), fs.ErrNotExist)
	}
}

// Chain tries each loader in turn, moving on only when a file does not
// exist.
func Chain(loaders ...FileLoader) FileLoader {
	return func(path string) (string, error) {
		err := fmt.Errorf("%s: %w", path, fs.ErrNotExist)
		for _, l := range loaders {
			if l == nil {
				continue
			}
			var src string
			src, err = l(path)
			if err == nil {
				return src, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", err
			}
		}
		return "", err
	}
}

// Registry is a ModuleLoader backed by named host modules.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]any
}

// NewRegistry creates a registry holding modules.
func NewRegistry(modules map[string]any) *Registry {
	r := &Registry{modules: make(map[string]any, len(modules))}
	for name, m := range modules {
		r.modules[name] = m
	}
	return r
}

// Register binds name to m, replacing any earlier module.
func (r *Registry) Register(name string, m any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = m
}

// Names returns the registered module names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load implements ModuleLoader.
func (r *Registry) Load(path string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[path]
	if !ok {
		return nil, fmt.Errorf("no module named %q: %w", path, fs.ErrNotExist)
	}
	return m, nil
}
