package jspy

import (
	"context"
	"strings"

	"nickandperla.net/jspy/internal/ast"
	"nickandperla.net/jspy/internal/loader"
	"nickandperla.net/jspy/internal/logging"
	"nickandperla.net/jspy/internal/parser"
	"nickandperla.net/jspy/internal/value"
)

// importer resolves the imports of one module. Nested script imports get
// their own importer with a longer chain, which is how cycles are found.
type importer struct {
	r     *Runtime
	chain []string
}

func (r *Runtime) importer(module string) *importer {
	imp := &importer{r: r}
	if module != "" {
		imp.chain = []string{module}
	}
	return imp
}

// Import implements ast.Importer.
func (imp *importer) Import(ctx context.Context, path string) (any, error) {
	log := logging.Get(logging.Import)
	for _, p := range imp.chain {
		if p == path {
			cycle := append(append([]string{}, imp.chain...), path)
			return nil, value.NewError(value.CategoryImport, "import cycle detected: %s", strings.Join(cycle, " -> "))
		}
	}

	r := imp.r
	r.mu.RLock()
	ns, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		log.Debugf("import %s (cached)", path)
		return ns, nil
	}

	kind := loader.KindOf(path)
	log.Debugf("import %s (%s)", path, kind)
	ns, err := imp.load(ctx, path, kind)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[path] = ns
	r.mu.Unlock()
	return ns, nil
}

func (imp *importer) load(ctx context.Context, path string, kind loader.Kind) (any, error) {
	r := imp.r
	if kind == loader.KindModule {
		if r.modules == nil {
			return nil, value.NewError(value.CategoryImport, "no module named %q", path)
		}
		return r.modules(path)
	}

	src, err := r.files(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case loader.KindJSON:
		return loader.DecodeJSON(src)
	case loader.KindYAML:
		return loader.DecodeYAML(src)
	}
	return imp.script(ctx, path, src)
}

// script evaluates an imported module and returns its top-level bindings
// as a namespace object.
func (imp *importer) script(ctx context.Context, path, src string) (any, error) {
	prog, err := parser.Parse(src, path)
	if err != nil {
		return nil, err
	}
	nested := &importer{r: imp.r, chain: append(append([]string{}, imp.chain...), path)}
	x := &ast.Exec{Mode: ast.Async, Ctx: ctx, Importer: nested, Module: path}
	s := imp.r.newScope(nil)
	res := x.Run(prog, s)
	switch res.Kind {
	case ast.KindError:
		return nil, res.Err
	case ast.KindCancel:
		return nil, cancelled(ctx)
	}

	ns := value.NewObject()
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		ns.Set(name, v)
	}
	return ns, nil
}
