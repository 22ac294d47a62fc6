// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// Branch is one if/elif arm.
type Branch struct {
	Cond Node
	Body *Block
}

// If is if/elif/else.
type If struct {
	Branches []Branch
	Else     *Block
	At       token.Location
}

func (n *If) Eval(x *Exec, s *scope.Scope) Result {
	for _, b := range n.Branches {
		c, r := x.eval(b.Cond, s)
		if !r.IsComplete() {
			return r
		}
		if value.Truthy(c) {
			return b.Body.Eval(x, s)
		}
	}
	if n.Else != nil {
		return n.Else.Eval(x, s)
	}
	return Complete(value.Undefined)
}

func (n *If) Loc() token.Location { return n.At }

func (n *If) String() string {
	parts := make([]string, 0, len(n.Branches)+1)
	for i, b := range n.Branches {
		kw := "elif "
		if i == 0 {
			kw = "if "
		}
		parts = append(parts, body(kw+b.Cond.String(), b.Body))
	}
	if n.Else != nil {
		parts = append(parts, body("else", n.Else))
	}
	return strings.Join(parts, "\n")
}

// While is a while loop.
type While struct {
	Cond Node
	Body *Block
	At   token.Location
}

func (n *While) Eval(x *Exec, s *scope.Scope) Result {
	var last any = value.Undefined
	for {
		if x.cancelled() {
			return Cancelled
		}
		c, r := x.eval(n.Cond, s)
		if !r.IsComplete() {
			return r
		}
		if !value.Truthy(c) {
			return Complete(last)
		}
		r = n.Body.Eval(x, s)
		switch r.Kind {
		case KindBreak:
			return Complete(last)
		case KindContinue:
		case KindComplete:
			last = r.Value
		case KindReturn, KindError, KindCancel:
			return r
		}
	}
}

func (n *While) Loc() token.Location { return n.At }
func (n *While) String() string      { return body("while "+n.Cond.String(), n.Body) }

// For iterates over lists, strings, object keys and host iterables.
type For struct {
	Target Assignable
	Iter   Node
	Body   *Block
	At     token.Location
}

func (n *For) Eval(x *Exec, s *scope.Scope) Result {
	it, r := x.eval(n.Iter, s)
	if !r.IsComplete() {
		return r
	}
	out := Complete(value.Undefined)
	err := value.Iterate(it, func(item any) bool {
		if x.cancelled() {
			out = Cancelled
			return false
		}
		if r := n.Target.Assign(x, s, item); !r.IsComplete() {
			out = r
			return false
		}
		r := n.Body.Eval(x, s)
		switch r.Kind {
		case KindBreak:
			return false
		case KindContinue:
			return true
		case KindComplete:
			out = r
			return true
		case KindReturn, KindError, KindCancel:
			out = r
		}
		return false
	})
	if err != nil {
		return x.fail(err, n.Iter.Loc())
	}
	return out
}

func (n *For) Loc() token.Location { return n.At }

func (n *For) String() string {
	target := n.Target.String()
	if t, ok := n.Target.(*Tuple); ok {
		target = joinNodes(t.Items)
	}
	return body("for "+target+" in "+n.Iter.String(), n.Body)
}

// Except is one handler of a try statement.
type Except struct {
	Category string // empty catches everything
	Name     string // optional "as" binding
	Body     *Block
	At       token.Location

	once    sync.Once
	matcher value.ErrorMatcher
}

// matches resolves the category on first use: a bound ErrorMatcher wins,
// otherwise the identifier text names the category.
func (h *Except) matches(s *scope.Scope, e *value.Error) bool {
	if h.Category == "" {
		return true
	}
	h.once.Do(func() {
		if v, ok := s.Get(h.Category); ok {
			if m, ok := v.(value.ErrorMatcher); ok {
				h.matcher = m
				return
			}
		}
		h.matcher = value.Category(h.Category)
	})
	return h.matcher.MatchesError(e)
}

func (h *Except) String() string {
	head := "except"
	if h.Category != "" {
		head += " " + h.Category
	}
	if h.Name != "" {
		head += " as " + h.Name
	}
	return body(head, h.Body)
}

// Try is try/except/else/finally.
type Try struct {
	Body     *Block
	Handlers []*Except
	Else     *Block
	Finally  *Block
	At       token.Location
}

func (n *Try) Eval(x *Exec, s *scope.Scope) Result {
	r := n.Body.Eval(x, s)
	switch {
	case r.Kind == KindError:
		for _, h := range n.Handlers {
			if !h.matches(s, r.Err) {
				continue
			}
			if h.Name != "" {
				s.Assign(h.Name, r.Err)
			}
			x.handling = append(x.handling, r.Err)
			r = h.Body.Eval(x, s)
			x.handling = x.handling[:len(x.handling)-1]
			break
		}
	case r.Kind == KindComplete && n.Else != nil:
		r = n.Else.Eval(x, s)
	}
	if n.Finally != nil {
		if f := n.Finally.Eval(x, s); f.Kind != KindComplete {
			return f
		}
	}
	return r
}

func (n *Try) Loc() token.Location { return n.At }

func (n *Try) String() string {
	parts := []string{body("try", n.Body)}
	for _, h := range n.Handlers {
		parts = append(parts, h.String())
	}
	if n.Else != nil {
		parts = append(parts, body("else", n.Else))
	}
	if n.Finally != nil {
		parts = append(parts, body("finally", n.Finally))
	}
	return strings.Join(parts, "\n")
}

// ReturnStmt is return [value].
type ReturnStmt struct {
	Value Node
	At    token.Location
}

func (n *ReturnStmt) Eval(x *Exec, s *scope.Scope) Result {
	if n.Value == nil {
		return Return(nil)
	}
	v, r := x.eval(n.Value, s)
	if !r.IsComplete() {
		return r
	}
	return Return(v)
}

func (n *ReturnStmt) Loc() token.Location { return n.At }

func (n *ReturnStmt) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

// Break leaves the innermost loop.
type Break struct{ At token.Location }

func (n *Break) Eval(*Exec, *scope.Scope) Result { return BreakResult }
func (n *Break) Loc() token.Location               { return n.At }
func (n *Break) String() string                    { return "break" }

// Continue skips to the next iteration.
type Continue struct{ At token.Location }

func (n *Continue) Eval(*Exec, *scope.Scope) Result { return ContinueResult }
func (n *Continue) Loc() token.Location               { return n.At }
func (n *Continue) String() string                    { return "continue" }

// Pass does nothing.
type Pass struct{ At token.Location }

func (n *Pass) Eval(*Exec, *scope.Scope) Result { return Complete(value.Undefined) }
func (n *Pass) Loc() token.Location               { return n.At }
func (n *Pass) String() string                    { return "pass" }

// Raise raises an error. Value is nil for a bare raise.
type Raise struct {
	Value Node
	At    token.Location
}

func (n *Raise) Eval(x *Exec, s *scope.Scope) Result {
	if n.Value == nil {
		if len(x.handling) == 0 {
			return x.failf(n.At, value.CategoryError, "no active error to re-raise")
		}
		return Fail(x.handling[len(x.handling)-1])
	}

	// raise Category("message") with an unbound category name
	if call, ok := n.Value.(*Call); ok {
		if id, ok := call.Callee.(*Ident); ok && !s.IsDeclared(id.Name) {
			msg := ""
			if len(call.Args) > 0 {
				v, r := x.eval(call.Args[0], s)
				if !r.IsComplete() {
					return r
				}
				msg = value.ToString(v)
			}
			return Fail((&value.Error{Category: id.Name, Message: msg}).At(n.At, x.Module))
		}
	}

	v, r := x.eval(n.Value, s)
	if !r.IsComplete() {
		return r
	}
	if e, ok := v.(*value.Error); ok {
		return Fail(e.At(n.At, x.Module))
	}
	if c, ok := v.(value.Category); ok {
		return Fail((&value.Error{Category: string(c)}).At(n.At, x.Module))
	}
	return Fail(value.NewError(value.CategoryError, "%s", value.ToString(v)).At(n.At, x.Module))
}

func (n *Raise) Loc() token.Location { return n.At }

func (n *Raise) String() string {
	if n.Value == nil {
		return "raise"
	}
	return "raise " + n.Value.String()
}

// ImportName is one name of a from-import.
type ImportName struct {
	Name  string
	Alias string
}

// Import is import path [as alias] or from path import names.
type Import struct {
	Path  string
	Alias string
	Names []ImportName
	At    token.Location
}

func (n *Import) Eval(x *Exec, s *scope.Scope) Result {
	if x.Mode != Async {
		return x.failf(n.At, value.CategoryImport, "import of %q requires asynchronous evaluation", n.Path)
	}
	if x.Importer == nil {
		return x.failf(n.At, value.CategoryImport, "no importer configured for %q", n.Path)
	}
	ns, err := x.Importer.Import(x.Ctx, n.Path)
	if err != nil {
		if r := x.fail(err, n.At); r.Kind == KindCancel {
			return r
		}
		var se *value.Error
		if errors.As(err, &se) {
			return Fail(se.At(n.At, x.Module))
		}
		return x.failf(n.At, value.CategoryImport, "cannot import %q: %v", n.Path, err)
	}
	ns = value.FromGo(ns)
	if len(n.Names) == 0 {
		s.Assign(n.Alias, ns)
		return Complete(ns)
	}
	for _, name := range n.Names {
		v, err := value.GetMember(ns, name.Name)
		if err != nil || v == value.Undefined {
			return x.failf(n.At, value.CategoryImport, "cannot import name '%s' from %q", name.Name, n.Path)
		}
		s.Assign(name.Alias, v)
	}
	return Complete(ns)
}

func (n *Import) Loc() token.Location { return n.At }

func (n *Import) String() string {
	path := n.Path
	if !isDottedName(path) {
		path = strconv.Quote(path)
	}
	if len(n.Names) == 0 {
		return "import " + path + " as " + n.Alias
	}
	names := make([]string, len(n.Names))
	for i, name := range n.Names {
		names[i] = name.Name
		if name.Alias != name.Name {
			names[i] += " as " + name.Alias
		}
	}
	return "from " + path + " import " + strings.Join(names, ", ")
}

func isDottedName(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, c := range part {
			alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
			if !alpha && (i == 0 || c < '0' || c > '9') {
				return false
			}
		}
	}
	return true
}
