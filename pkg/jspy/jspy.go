// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package jspy provides the public API for embedding the jspy interpreter.
package jspy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tliron/commonlog"

	"nickandperla.net/jspy/internal/ast"
	"nickandperla.net/jspy/internal/loader"
	"nickandperla.net/jspy/internal/logging"
	"nickandperla.net/jspy/internal/parser"
	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/stdlib"
	"nickandperla.net/jspy/internal/store"
	"nickandperla.net/jspy/internal/value"
)

// HostFunction is a Go function callable from scripts. Arguments arrive as
// plain Go values ([]any, map[string]any, float64, ...).
type HostFunction = func(args ...any) (any, error)

// Error is a script runtime error.
type Error = value.Error

// ErrCancelled is wrapped by the error returned when an evaluation's
// context is cancelled.
var ErrCancelled = value.ErrCancelled

// Future is an asynchronous host value; scripts await it during
// EvaluateAsync.
type Future = value.Future

// ErrNoStore is returned by Persist and Restore without a configured store.
var ErrNoStore = errors.New("jspy: no store configured")

// ErrNoSnapshot is returned by Restore when nothing was saved under the name.
var ErrNoSnapshot = errors.New("no such snapshot")

// Runtime is the jspy interpreter runtime. A Runtime may serve several
// evaluations; each builds its own module scope over the shared globals.
type Runtime struct {
	mu          sync.RWMutex
	globals     map[string]any
	files       loader.FileLoader
	modules     loader.ModuleLoader
	registry    *loader.Registry
	searchPaths []string
	store       store.Store
	out         io.Writer
	log         commonlog.Logger
	noStdlib    bool
	group       *value.PromiseGroup
	cache       map[string]any
	lastScope   *scope.Scope
	kept        map[string]bool // globals promoted by Keep or Restore
	err         error           // deferred option failure, reported by evaluations
}

// New creates a new jspy runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		globals: make(map[string]any),
		out:     os.Stdout,
		log:     logging.Get(logging.Runtime),
		group:   value.NewPromiseGroup(),
		cache:   make(map[string]any),
		kept:    make(map[string]bool),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.files == nil {
		files := []loader.FileLoader{loader.Files(r.searchPaths...)}
		if r.store != nil {
			files = append(files, store.Loader(r.store))
		}
		r.files = loader.Chain(files...)
	}
	if r.modules == nil && r.registry != nil {
		r.modules = r.registry.Load
	}

	// Load the standard library unless disabled; explicit globals win
	if !r.noStdlib {
		for name, v := range stdlib.Globals(stdlib.Env{Out: r.out, Group: r.group}) {
			if _, set := r.globals[name]; !set {
				r.globals[name] = v
			}
		}
		if err := r.loadPrelude(); err != nil {
			r.log.Errorf("prelude: %s", err)
		}
	}

	return r
}

func (r *Runtime) loadPrelude() error {
	prog, err := parser.Parse(stdlib.Prelude, "prelude")
	if err != nil {
		return err
	}
	s := r.newScope(nil)
	res := (&ast.Exec{Mode: ast.Sync, Module: "prelude"}).Run(prog, s)
	if res.Kind == ast.KindError {
		return res.Err
	}
	for _, name := range s.Names() {
		if _, set := r.globals[name]; !set {
			v, _ := s.Get(name)
			r.globals[name] = v
		}
	}
	return nil
}

// AddFunction binds a host function as a global.
func (r *Runtime) AddFunction(name string, fn HostFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = hostFunction(fn)
}

// hostFunction converts script arguments into Go values before calling fn.
func hostFunction(fn HostFunction) value.HostFunc {
	return func(args ...any) (any, error) {
		plain := make([]any, len(args))
		for i, a := range args {
			plain[i] = value.ToGo(a)
		}
		return fn(plain...)
	}
}

// AssignGlobals merges bindings into the globals seen by later evaluations.
func (r *Runtime) AssignGlobals(bindings map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, v := range bindings {
		r.globals[name] = hostValue(v)
	}
}

func hostValue(v any) any {
	if fn, ok := v.(func(args ...any) (any, error)); ok {
		return hostFunction(fn)
	}
	return value.FromGo(v)
}

// newScope returns a module scope over a private copy of the globals, so
// writes never leak between evaluations.
func (r *Runtime) newScope(extra map[string]any) *scope.Scope {
	r.mu.RLock()
	root := scope.NewFrom(r.globals).Seal()
	r.mu.RUnlock()
	for name, v := range extra {
		root.Set(name, hostValue(v))
	}
	return root.Clone()
}

// Parse parses src without evaluating it.
func (r *Runtime) Parse(src, module string) (*ast.Block, error) {
	return parser.Parse(src, module)
}

// Evaluate runs src synchronously. Host futures and imports are errors on
// this path.
func (r *Runtime) Evaluate(src string, opts ...EvalOption) (any, error) {
	return r.evaluate(context.Background(), ast.Sync, src, opts)
}

// EvaluateAsync runs src, awaiting host futures and resolving imports.
// Cancelling ctx stops the evaluation at the next statement.
func (r *Runtime) EvaluateAsync(ctx context.Context, src string, opts ...EvalOption) (any, error) {
	return r.evaluate(ctx, ast.Async, src, opts)
}

// EvaluateFile loads path through the file loader and evaluates it
// asynchronously under its own module name.
func (r *Runtime) EvaluateFile(ctx context.Context, path string, opts ...EvalOption) (any, error) {
	src, err := r.files(path)
	if err != nil {
		return nil, err
	}
	opts = append([]EvalOption{WithModule(path)}, opts...)
	return r.evaluate(ctx, ast.Async, src, opts)
}

func (r *Runtime) evaluate(ctx context.Context, mode ast.Mode, src string, opts []EvalOption) (any, error) {
	if r.err != nil {
		return nil, r.err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var cfg evalConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	prog, err := parser.Parse(src, cfg.module)
	if err != nil {
		return nil, err
	}

	x := &ast.Exec{Mode: mode, Ctx: ctx, Module: cfg.module}
	if mode == ast.Async {
		x.Importer = r.importer(cfg.module)
	}
	r.log.Debugf("evaluating %s (%s)", moduleName(cfg.module), mode)

	s := r.newScope(cfg.bindings)
	res := x.Run(prog, s)

	r.mu.Lock()
	r.lastScope = s
	r.mu.Unlock()

	v, err := r.result(ctx, res)
	if err != nil {
		return nil, err
	}
	if cfg.entry != "" {
		if v, err = r.callEntry(x, s, &cfg); err != nil {
			return nil, err
		}
	}
	return value.ToGo(v), nil
}

func (r *Runtime) result(ctx context.Context, res ast.Result) (any, error) {
	switch res.Kind {
	case ast.KindError:
		r.log.Warningf("uncaught %s", res.Err)
		return nil, res.Err
	case ast.KindCancel:
		return nil, cancelled(ctx)
	case ast.KindComplete, ast.KindReturn:
		return res.Value, nil
	}
	return nil, nil
}

func (r *Runtime) callEntry(x *ast.Exec, s *scope.Scope, cfg *evalConfig) (any, error) {
	fn, ok := s.Get(cfg.entry)
	if !ok {
		return nil, value.NewError(value.CategoryName, "entry function '%s' is not defined", cfg.entry)
	}
	args := make([]any, len(cfg.args))
	for i, a := range cfg.args {
		args[i] = hostValue(a)
	}
	v, err := value.Invoke(x.Caller(), fn, args...)
	if err != nil {
		if errors.Is(err, value.ErrCancelled) {
			return nil, cancelled(x.Ctx)
		}
		r.log.Warningf("entry %s failed: %s", cfg.entry, err)
		return nil, err
	}
	return v, nil
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return ErrCancelled
}

func moduleName(module string) string {
	if module == "" {
		return "<main>"
	}
	return module
}

// LastScope returns the top-level bindings of the most recent evaluation
// as Go values.
func (r *Runtime) LastScope() map[string]any {
	r.mu.RLock()
	s := r.lastScope
	r.mu.RUnlock()
	out := make(map[string]any)
	if s == nil {
		return out
	}
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		out[name] = value.ToGo(v)
	}
	return out
}

// Keep promotes the bindings of the last evaluation into the globals, so
// an interactive session accumulates state across evaluations.
func (r *Runtime) Keep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastScope == nil {
		return
	}
	for _, name := range r.lastScope.Names() {
		v, _ := r.lastScope.Get(name)
		r.globals[name] = v
		r.kept[name] = true
	}
}

// Repr renders a result the way scripts print values in lists: strings
// quoted, numbers without trailing zeros.
func Repr(v any) string {
	return value.Repr(value.FromGo(v))
}

// Persist saves the plain-data bindings of the last evaluation, plus those
// kept or restored earlier, as a snapshot named name.
func (r *Runtime) Persist(name string) (string, error) {
	if r.store == nil {
		return "", ErrNoStore
	}
	bindings := make(map[string]any)
	r.mu.RLock()
	for k := range r.kept {
		bindings[k] = value.ToGo(r.globals[k])
	}
	r.mu.RUnlock()
	for k, v := range r.LastScope() {
		bindings[k] = v
	}
	id, err := r.store.SaveSnapshot(name, bindings)
	if err != nil {
		return "", fmt.Errorf("persist %s: %w", name, err)
	}
	r.log.Debugf("persisted %s as %s", name, id)
	return id, nil
}

// Restore loads the newest snapshot named name into the globals.
func (r *Runtime) Restore(name string) error {
	if r.store == nil {
		return ErrNoStore
	}
	snap, err := r.store.LoadSnapshot(name)
	if err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	if snap == nil {
		return fmt.Errorf("restore %s: %w", name, ErrNoSnapshot)
	}
	r.AssignGlobals(snap.Bindings)
	r.mu.Lock()
	for k := range snap.Bindings {
		r.kept[k] = true
	}
	r.mu.Unlock()
	r.log.Debugf("restored %s from %s", name, snap.ID)
	return nil
}

// Go runs fn on its own goroutine and returns a Future for its result that
// host functions can hand to scripts. Close waits for it.
func (r *Runtime) Go(fn func() (any, error)) Future {
	return r.group.Go(fn)
}

// Store returns the configured store, or nil.
func (r *Runtime) Store() store.Store {
	return r.store
}

// Close waits for outstanding host futures and releases the store.
func (r *Runtime) Close() error {
	r.group.Shutdown()
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
