// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import (
	"errors"
	"fmt"

	"nickandperla.net/jspy/internal/token"
)

// Error categories produced by the runtime.
const (
	CategoryError  = "Error"
	CategoryName   = "NameError"
	CategoryType   = "TypeError"
	CategoryIndex  = "IndexError"
	CategoryImport = "ImportError"
	CategoryHost   = "HostError"
)

// ErrCancelled is returned when an evaluation is cancelled through its context.
var ErrCancelled = errors.New("evaluation cancelled")

// Error is the structured error value scripts raise and catch.
type Error struct {
	Category string
	Message  string
	Loc      token.Location
	Module   string
	Cause    error
}

// NewError creates an error of the given category.
func NewError(category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// WrapHostError turns a host failure into a HostError unless it already is a
// script error.
func WrapHostError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Category: CategoryHost, Message: err.Error(), Cause: err}
}

func (e *Error) Error() string {
	if e.Loc.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	if e.Module != "" {
		return fmt.Sprintf("%s: %s (%s:%s)", e.Category, e.Message, e.Module, e.Loc)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Category, e.Message, e.Loc)
}

func (e *Error) Unwrap() error { return e.Cause }

// At fills in the location if it is not set yet.
func (e *Error) At(loc token.Location, module string) *Error {
	if e.Loc.Line == 0 {
		e.Loc = loc
		e.Module = module
	}
	return e
}

// GetMember implements Member.
func (e *Error) GetMember(name string) (any, bool) {
	switch name {
	case "name", "category":
		return e.Category, true
	case "message":
		return e.Message, true
	case "line":
		return float64(e.Loc.Line), true
	case "column":
		return float64(e.Loc.Column), true
	case "module":
		return e.Module, true
	}
	return nil, false
}

// SetMember implements Member. Error values are read-only.
func (e *Error) SetMember(name string, _ any) error {
	return NewError(CategoryType, "cannot assign to error member %q", name)
}

// ErrorMatcher is implemented by host values usable as except categories.
type ErrorMatcher interface {
	MatchesError(e *Error) bool
}

// Category is an error category value that can be bound in scope, called to
// build an error and used in except clauses.
type Category string

// MatchesError implements ErrorMatcher.
func (c Category) MatchesError(e *Error) bool {
	return MatchesCategory(string(c), e)
}

// Call implements Callable: Category("message") builds an error.
func (c Category) Call(_ Caller, args []any) (any, error) {
	msg := ""
	if len(args) > 0 {
		msg = ToString(args[0])
	}
	return &Error{Category: string(c), Message: msg}, nil
}

// MatchesCategory reports whether an except clause naming category catches e.
// "Error" and "Exception" catch everything.
func MatchesCategory(category string, e *Error) bool {
	switch category {
	case CategoryError, "Exception":
		return true
	}
	return e.Category == category
}

func (c Category) String() string { return string(c) }
