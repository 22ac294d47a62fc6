// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import "nickandperla.net/jspy/internal/value"

// ResultKind tags a Result.
type ResultKind int

const (
	KindComplete ResultKind = iota
	KindReturn
	KindBreak
	KindContinue
	KindError
	KindCancel
)

func (k ResultKind) String() string {
	switch k {
	case KindComplete:
		return "complete"
	case KindReturn:
		return "return"
	case KindBreak:
		return "break"
	case KindContinue:
		return "continue"
	case KindError:
		return "error"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Result is the outcome of evaluating a node. Value is meaningful for
// Complete and Return, Err for Error.
type Result struct {
	Kind  ResultKind
	Value any
	Err   *value.Error
}

// Complete is a normal completion carrying v.
func Complete(v any) Result { return Result{Kind: KindComplete, Value: v} }

// Return unwinds to the nearest function boundary with v.
func Return(v any) Result { return Result{Kind: KindReturn, Value: v} }

// Fail is an uncaught script error.
func Fail(err *value.Error) Result { return Result{Kind: KindError, Err: err} }

var (
	// BreakResult leaves the innermost loop.
	BreakResult = Result{Kind: KindBreak}
	// ContinueResult skips to the next loop iteration.
	ContinueResult = Result{Kind: KindContinue}
	// Cancelled reports that the evaluation context was cancelled.
	Cancelled = Result{Kind: KindCancel}
)

// IsComplete reports a normal completion.
func (r Result) IsComplete() bool { return r.Kind == KindComplete }
