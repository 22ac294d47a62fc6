// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"strings"

	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// Param is a function parameter with an optional default expression.
type Param struct {
	Name    string
	Default Node
}

// FuncDef is def, async def or an arrow function.
type FuncDef struct {
	Name     string // empty for arrow functions
	Params   []Param
	Body     *Block
	Async    bool
	Arrow    bool
	ExprBody bool // arrow body is a single expression
	At       token.Location
}

// Eval creates a closure over s and binds it when the definition is named.
func (n *FuncDef) Eval(x *Exec, s *scope.Scope) Result {
	f := &Function{Def: n, scope: s, exec: x}
	if n.Name != "" {
		s.Assign(n.Name, f)
	}
	return Complete(f)
}

func (n *FuncDef) Loc() token.Location { return n.At }

func (n *FuncDef) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Name
		if p.Default != nil {
			params[i] += " = " + p.Default.String()
		}
	}
	if n.Arrow {
		head := "(" + strings.Join(params, ", ") + ") =>"
		if n.ExprBody && len(n.Body.Body) == 1 {
			return "(" + head + " " + n.Body.Body[0].String() + ")"
		}
		return head + "\n" + indent(n.Body.String())
	}
	head := "def " + n.Name + "(" + strings.Join(params, ", ") + ")"
	if n.Async {
		head = "async " + head
	}
	return body(head, n.Body)
}

// Function is a script function value: a definition closed over the scope
// it was created in.
type Function struct {
	Def   *FuncDef
	scope *scope.Scope
	exec  *Exec
}

// Name returns the function name, or "<lambda>".
func (f *Function) Name() string {
	if f.Def.Name == "" {
		return "<lambda>"
	}
	return f.Def.Name
}

// Arity implements value.Arity.
func (f *Function) Arity() int { return len(f.Def.Params) }

func (f *Function) String() string { return "<function " + f.Name() + ">" }

// Call implements value.Callable. The body runs in a fresh child of the
// defining scope with every local name pre-declared.
func (f *Function) Call(c value.Caller, args []any) (any, error) {
	if f.Def.Async && !c.Async {
		return nil, value.NewError(value.CategoryType,
			"async function %s can only be called during asynchronous evaluation", f.Name())
	}
	if len(args) > len(f.Def.Params) {
		return nil, value.NewError(value.CategoryType, "%s() takes %d arguments but %d were given",
			f.Name(), len(f.Def.Params), len(args))
	}

	x := f.exec.child(c)
	s := f.scope.Clone()
	for _, name := range f.Def.Body.Declared() {
		s.Set(name, value.Undefined)
	}
	for i, p := range f.Def.Params {
		switch {
		case i < len(args):
			s.Set(p.Name, args[i])
		case p.Default != nil:
			v, r := x.eval(p.Default, s)
			if !r.IsComplete() {
				return nil, resultError(r)
			}
			s.Set(p.Name, v)
		default:
			s.Set(p.Name, value.Undefined)
		}
	}

	r := f.Def.Body.Eval(x, s)
	switch r.Kind {
	case KindComplete, KindReturn:
		return r.Value, nil
	case KindError, KindCancel:
		return nil, resultError(r)
	default:
		return value.Undefined, nil
	}
}

func resultError(r Result) error {
	if r.Kind == KindCancel {
		return value.ErrCancelled
	}
	return r.Err
}
