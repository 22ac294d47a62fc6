// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ast defines the jspy syntax tree and evaluates it. Every node has
// a single evaluation function; the Exec it receives decides whether host
// futures are awaited (async mode) or rejected (sync mode).
package ast

import (
	"context"
	"errors"

	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// Mode selects synchronous or asynchronous evaluation.
type Mode int

const (
	Sync Mode = iota
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "async"
	}
	return "sync"
}

// Importer resolves import statements to namespace values.
type Importer interface {
	Import(ctx context.Context, path string) (any, error)
}

// Exec is the per-evaluation state threaded through every node.
type Exec struct {
	Mode     Mode
	Ctx      context.Context
	Importer Importer
	Module   string

	// errors currently being handled, innermost last; bare raise re-raises
	// the top one
	handling []*value.Error
}

// EvalSync evaluates n synchronously.
func EvalSync(ctx context.Context, n Node, s *scope.Scope) Result {
	return (&Exec{Mode: Sync, Ctx: ctx}).Run(n, s)
}

// EvalAsync evaluates n, awaiting host futures and allowing imports.
func EvalAsync(ctx context.Context, n Node, s *scope.Scope, imp Importer) Result {
	return (&Exec{Mode: Async, Ctx: ctx, Importer: imp}).Run(n, s)
}

// Run evaluates n in s. A panic during evaluation becomes a HostError.
func (x *Exec) Run(n Node, s *scope.Scope) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = Fail(value.NewError(value.CategoryHost, "evaluation panicked: %v", p))
		}
	}()
	if x.Ctx == nil {
		x.Ctx = context.Background()
	}
	if x.cancelled() {
		return Cancelled
	}
	return n.Eval(x, s)
}

// Caller describes this evaluation to host callables.
func (x *Exec) Caller() value.Caller {
	return value.Caller{Ctx: x.Ctx, Async: x.Mode == Async}
}

func (x *Exec) cancelled() bool {
	return x.Ctx != nil && x.Ctx.Err() != nil
}

// child creates the Exec for a function body invoked by c.
func (x *Exec) child(c value.Caller) *Exec {
	cx := &Exec{Mode: Sync, Ctx: c.Ctx, Importer: x.Importer, Module: x.Module}
	if c.Async {
		cx.Mode = Async
	}
	if cx.Ctx == nil {
		cx.Ctx = x.Ctx
	}
	if cx.Ctx == nil {
		cx.Ctx = context.Background()
	}
	return cx
}

// fail turns a Go error into an Error or Cancel result positioned at loc.
func (x *Exec) fail(err error, loc token.Location) Result {
	if errors.Is(err, value.ErrCancelled) {
		return Cancelled
	}
	if x.cancelled() && errors.Is(err, x.Ctx.Err()) {
		return Cancelled
	}
	return Fail(value.WrapHostError(err).At(loc, x.Module))
}

func (x *Exec) failf(loc token.Location, category, format string, args ...any) Result {
	return Fail(value.NewError(category, format, args...).At(loc, x.Module))
}

// settle resolves futures according to the mode.
func (x *Exec) settle(v any, loc token.Location) (any, Result) {
	if _, ok := v.(value.Future); !ok {
		return v, Complete(v)
	}
	res, err := value.Settle(x.Caller(), v)
	if err != nil {
		return nil, x.fail(err, loc)
	}
	return res, Complete(res)
}

// eval evaluates an expression node and settles its value.
func (x *Exec) eval(n Node, s *scope.Scope) (any, Result) {
	r := n.Eval(x, s)
	if r.Kind != KindComplete {
		return nil, r
	}
	return x.settle(r.Value, n.Loc())
}

// call invokes fn with already evaluated arguments.
func (x *Exec) call(fn any, args []any, loc token.Location, name string) (v any, r Result) {
	callable, ok := fn.(value.Callable)
	if !ok {
		return nil, x.failf(loc, value.CategoryType, "'%s' is not a function (%s)", name, value.TypeName(fn))
	}
	defer func() {
		if p := recover(); p != nil {
			v = nil
			r = x.failf(loc, value.CategoryHost, "%s panicked: %v", name, p)
		}
	}()
	res, err := callable.Call(x.Caller(), args)
	if err != nil {
		return nil, x.fail(err, loc)
	}
	return x.settle(value.FromGo(res), loc)
}
