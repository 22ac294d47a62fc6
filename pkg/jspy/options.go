package jspy

import (
	"io"

	"github.com/tliron/commonlog"

	"nickandperla.net/jspy/internal/config"
	"nickandperla.net/jspy/internal/loader"
	"nickandperla.net/jspy/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// FileLoader reads the source of an imported file.
type FileLoader = loader.FileLoader

// ModuleLoader resolves imports that are not files to host values.
type ModuleLoader = loader.ModuleLoader

// Store interface for custom stores.
type Store = store.Store

// WithFileLoader replaces the filesystem loader used for imports.
func WithFileLoader(l FileLoader) Option {
	return func(r *Runtime) {
		r.files = l
	}
}

// WithModuleLoader sets the loader for host module imports.
func WithModuleLoader(l ModuleLoader) Option {
	return func(r *Runtime) {
		r.modules = l
	}
}

// WithModules registers host modules by import name.
func WithModules(modules map[string]any) Option {
	return func(r *Runtime) {
		if r.registry == nil {
			r.registry = loader.NewRegistry(nil)
		}
		for name, m := range modules {
			r.registry.Register(name, m)
		}
	}
}

// WithSearchPaths sets the directories relative imports are resolved in.
func WithSearchPaths(paths ...string) Option {
	return func(r *Runtime) {
		r.searchPaths = append(r.searchPaths, paths...)
	}
}

// WithStore sets a custom store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithSQLiteStore configures SQLite persistence at the given path. A
// failure to open it is reported by the first evaluation.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithOutput sets the io.Writer print writes to.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// WithOutputWriter sets a callback receiving each printed line.
func WithOutputWriter(writer func(text string) error) Option {
	return func(r *Runtime) {
		r.out = writerFunc(writer)
	}
}

type writerFunc func(text string) error

func (f writerFunc) Write(p []byte) (int, error) {
	if err := f(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WithLogger replaces the runtime logger.
func WithLogger(log commonlog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithNoStdlib disables the standard library globals and prelude.
func WithNoStdlib() Option {
	return func(r *Runtime) {
		r.noStdlib = true
	}
}

// WithGlobals sets initial global bindings.
func WithGlobals(bindings map[string]any) Option {
	return func(r *Runtime) {
		r.AssignGlobals(bindings)
	}
}

// WithConfig applies a jspy.toml configuration: search paths, store,
// globals and the standard library switch.
func WithConfig(cfg *config.Config) Option {
	return func(r *Runtime) {
		if cfg == nil {
			return
		}
		r.searchPaths = append(r.searchPaths, cfg.SearchPathDirs()...)
		switch path := cfg.StorePath(); path {
		case "":
		case ":memory:":
			WithMemoryStore()(r)
		default:
			WithSQLiteStore(path)(r)
		}
		if cfg.Runtime.NoStdlib {
			r.noStdlib = true
		}
		r.AssignGlobals(cfg.Globals)
	}
}

type evalConfig struct {
	module   string
	entry    string
	args     []any
	bindings map[string]any
}

// EvalOption configures a single evaluation.
type EvalOption func(*evalConfig)

// WithContext adds bindings visible to this evaluation only.
func WithContext(bindings map[string]any) EvalOption {
	return func(c *evalConfig) {
		if c.bindings == nil {
			c.bindings = make(map[string]any, len(bindings))
		}
		for name, v := range bindings {
			c.bindings[name] = v
		}
	}
}

// WithEntry calls the named top-level function with args after the module
// body ran; its return value becomes the evaluation result.
func WithEntry(name string, args ...any) EvalOption {
	return func(c *evalConfig) {
		c.entry = name
		c.args = args
	}
}

// WithModule names the evaluated source for error positions.
func WithModule(name string) EvalOption {
	return func(c *evalConfig) {
		c.module = name
	}
}
