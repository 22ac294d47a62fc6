// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"strconv"
	"strings"

	"nickandperla.net/jspy/internal/ops"
	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// Node is a syntax tree node.
type Node interface {
	Eval(x *Exec, s *scope.Scope) Result
	Loc() token.Location
	String() string
}

// Assignable is a node that can be the target of an assignment.
type Assignable interface {
	Node
	Assign(x *Exec, s *scope.Scope, v any) Result
}

// Const is a literal.
type Const struct {
	Value any
	Text  string // source text, used when printing
	At    token.Location
}

func (n *Const) Eval(*Exec, *scope.Scope) Result { return Complete(n.Value) }
func (n *Const) Loc() token.Location               { return n.At }

func (n *Const) String() string {
	if n.Text != "" {
		return n.Text
	}
	switch v := n.Value.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "null"
	}
	return value.Repr(n.Value)
}

// Ident is a variable reference.
type Ident struct {
	Name string
	At   token.Location
}

func (n *Ident) Eval(x *Exec, s *scope.Scope) Result {
	v, ok := s.Get(n.Name)
	if !ok {
		return x.failf(n.At, value.CategoryName, "name '%s' is not defined", n.Name)
	}
	return Complete(v)
}

// Assign writes to the scope that already declares the name, else locally.
func (n *Ident) Assign(_ *Exec, s *scope.Scope, v any) Result {
	s.Assign(n.Name, v)
	return Complete(v)
}

func (n *Ident) Loc() token.Location { return n.At }
func (n *Ident) String() string      { return n.Name }

// Binary is an infix operation.
type Binary struct {
	Op          *ops.Operator
	Left, Right Node
	At          token.Location
}

func (n *Binary) Eval(x *Exec, s *scope.Scope) Result {
	l, r := x.eval(n.Left, s)
	if !r.IsComplete() {
		return r
	}
	if n.Op.Shortcut != nil {
		if v, done := n.Op.Shortcut(l); done {
			return Complete(v)
		}
	}
	rv, r := x.eval(n.Right, s)
	if !r.IsComplete() {
		return r
	}
	v, err := n.Op.Binary(l, rv)
	if err != nil {
		return x.fail(err, n.At)
	}
	return Complete(v)
}

func (n *Binary) Loc() token.Location { return n.At }

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.Symbol + " " + n.Right.String() + ")"
}

// Unary is a prefix operation.
type Unary struct {
	Op      *ops.Operator
	Operand Node
	At      token.Location
}

func (n *Unary) Eval(x *Exec, s *scope.Scope) Result {
	v, r := x.eval(n.Operand, s)
	if !r.IsComplete() {
		return r
	}
	out, err := n.Op.Unary(v)
	if err != nil {
		return x.fail(err, n.At)
	}
	return Complete(out)
}

func (n *Unary) Loc() token.Location { return n.At }

func (n *Unary) String() string {
	if n.Op.Symbol == "not" {
		return "(not " + n.Operand.String() + ")"
	}
	return "(" + n.Op.Symbol + n.Operand.String() + ")"
}

// Member is obj.name or obj?.name.
type Member struct {
	Object   Node
	Name     string
	Optional bool
	At       token.Location
}

func (n *Member) Eval(x *Exec, s *scope.Scope) Result {
	base, r := x.eval(n.Object, s)
	if !r.IsComplete() {
		return r
	}
	if n.Optional && value.IsNullish(base) {
		return Complete(value.Undefined)
	}
	v, err := value.GetMember(base, n.Name)
	if err != nil {
		return x.fail(err, n.At)
	}
	return Complete(v)
}

func (n *Member) Assign(x *Exec, s *scope.Scope, v any) Result {
	base, r := x.eval(n.Object, s)
	if !r.IsComplete() {
		return r
	}
	if err := value.SetMember(base, n.Name, v); err != nil {
		return x.fail(err, n.At)
	}
	return Complete(v)
}

func (n *Member) Loc() token.Location { return n.At }

func (n *Member) String() string {
	if n.Optional {
		return n.Object.String() + "?." + n.Name
	}
	return n.Object.String() + "." + n.Name
}

// Index is obj[key].
type Index struct {
	Object Node
	Key    Node
	At     token.Location
}

func (n *Index) Eval(x *Exec, s *scope.Scope) Result {
	base, r := x.eval(n.Object, s)
	if !r.IsComplete() {
		return r
	}
	key, r := x.eval(n.Key, s)
	if !r.IsComplete() {
		return r
	}
	v, err := value.GetIndex(base, key)
	if err != nil {
		return x.fail(err, n.At)
	}
	return Complete(v)
}

func (n *Index) Assign(x *Exec, s *scope.Scope, v any) Result {
	base, r := x.eval(n.Object, s)
	if !r.IsComplete() {
		return r
	}
	key, r := x.eval(n.Key, s)
	if !r.IsComplete() {
		return r
	}
	if err := value.SetIndex(base, key, v); err != nil {
		return x.fail(err, n.At)
	}
	return Complete(v)
}

func (n *Index) Loc() token.Location { return n.At }
func (n *Index) String() string      { return n.Object.String() + "[" + n.Key.String() + "]" }

// Tuple is a comma-separated list of expressions. It evaluates to a list and
// unpacks on assignment.
type Tuple struct {
	Items []Node
	At    token.Location
}

func (n *Tuple) Eval(x *Exec, s *scope.Scope) Result {
	items, r := x.evalAll(n.Items, s)
	if !r.IsComplete() {
		return r
	}
	return Complete(value.NewList(items...))
}

func (n *Tuple) Assign(x *Exec, s *scope.Scope, v any) Result {
	var vals []any
	if err := value.Iterate(v, func(item any) bool {
		vals = append(vals, item)
		return true
	}); err != nil {
		return x.failf(n.At, value.CategoryType, "cannot unpack %s", value.TypeName(v))
	}
	if len(vals) != len(n.Items) {
		return x.failf(n.At, value.CategoryType, "cannot unpack %d values into %d targets", len(vals), len(n.Items))
	}
	for i, item := range n.Items {
		target, ok := item.(Assignable)
		if !ok {
			return x.failf(item.Loc(), value.CategoryType, "cannot assign to %s", item)
		}
		if r := target.Assign(x, s, vals[i]); !r.IsComplete() {
			return r
		}
	}
	return Complete(v)
}

func (n *Tuple) Loc() token.Location { return n.At }

func (n *Tuple) String() string {
	if len(n.Items) == 1 {
		return "(" + n.Items[0].String() + ",)"
	}
	return "(" + joinNodes(n.Items) + ")"
}

// ArrayLit is [a, b, ...].
type ArrayLit struct {
	Items []Node
	At    token.Location
}

func (n *ArrayLit) Eval(x *Exec, s *scope.Scope) Result {
	items, r := x.evalAll(n.Items, s)
	if !r.IsComplete() {
		return r
	}
	return Complete(value.NewList(items...))
}

func (n *ArrayLit) Loc() token.Location { return n.At }
func (n *ArrayLit) String() string      { return "[" + joinNodes(n.Items) + "]" }

// Entry is one key/value pair of an object literal. Computed keys ([expr])
// are evaluated and converted to strings.
type Entry struct {
	Key      string
	Computed Node
	Value    Node
}

// ObjectLit is {key: value, ...}.
type ObjectLit struct {
	Entries []Entry
	At      token.Location
}

func (n *ObjectLit) Eval(x *Exec, s *scope.Scope) Result {
	obj := value.NewObject()
	for _, e := range n.Entries {
		key := e.Key
		if e.Computed != nil {
			k, r := x.eval(e.Computed, s)
			if !r.IsComplete() {
				return r
			}
			key = value.ToString(k)
		}
		v, r := x.eval(e.Value, s)
		if !r.IsComplete() {
			return r
		}
		obj.Set(key, v)
	}
	return Complete(obj)
}

func (n *ObjectLit) Loc() token.Location { return n.At }

func (n *ObjectLit) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		if e.Computed != nil {
			parts[i] = "[" + e.Computed.String() + "]: " + e.Value.String()
		} else {
			parts[i] = strconv.Quote(e.Key) + ": " + e.Value.String()
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Call is f(args...).
type Call struct {
	Callee Node
	Args   []Node
	At     token.Location
}

func (n *Call) Eval(x *Exec, s *scope.Scope) Result {
	fn, r := x.eval(n.Callee, s)
	if !r.IsComplete() {
		return r
	}
	args, r := x.evalAll(n.Args, s)
	if !r.IsComplete() {
		return r
	}
	_, r = x.call(fn, args, n.At, n.Callee.String())
	return r
}

func (n *Call) Loc() token.Location { return n.At }
func (n *Call) String() string      { return n.Callee.String() + "(" + joinNodes(n.Args) + ")" }

// Assign is target = value.
type Assign struct {
	Target Assignable
	Value  Node
	At     token.Location
}

func (n *Assign) Eval(x *Exec, s *scope.Scope) Result {
	v, r := x.eval(n.Value, s)
	if !r.IsComplete() {
		return r
	}
	return n.Target.Assign(x, s, v)
}

func (n *Assign) Loc() token.Location { return n.At }
func (n *Assign) String() string      { return n.Target.String() + " = " + n.Value.String() }

// CompoundAssign is target op= value.
type CompoundAssign struct {
	Target Assignable
	Op     *ops.Operator // the arithmetic operator applied
	Value  Node
	At     token.Location
}

func (n *CompoundAssign) Eval(x *Exec, s *scope.Scope) Result {
	cur, r := x.eval(n.Target, s)
	if !r.IsComplete() {
		return r
	}
	rhs, r := x.eval(n.Value, s)
	if !r.IsComplete() {
		return r
	}
	v, err := n.Op.Binary(cur, rhs)
	if err != nil {
		return x.fail(err, n.At)
	}
	return n.Target.Assign(x, s, v)
}

func (n *CompoundAssign) Loc() token.Location { return n.At }

func (n *CompoundAssign) String() string {
	return n.Target.String() + " " + n.Op.Symbol + "= " + n.Value.String()
}

func (x *Exec) evalAll(nodes []Node, s *scope.Scope) ([]any, Result) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		v, r := x.eval(n, s)
		if !r.IsComplete() {
			return nil, r
		}
		out = append(out, v)
	}
	return out, Complete(nil)
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
