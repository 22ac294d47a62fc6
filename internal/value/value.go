// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value defines the jspy runtime value model and the capabilities
// host values can implement to take part in scripts.
//
// Script values are plain Go values:
//
//	nil          null
//	Undefined    undefined
//	bool         boolean
//	float64      number
//	string       string
//	*List        list (shared, mutable)
//	*Object      object (shared, mutable, insertion ordered)
//	Callable     function
//	*Error       error value
//
// Anything else is a host value. Host values are opaque unless they
// implement Member, Indexer, Iterable, Callable or Future.
package value

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the value of declared-but-unassigned names and missing members.
var Undefined = undefinedType{}

// Caller describes the evaluation a call happens in.
type Caller struct {
	Ctx   context.Context
	Async bool
}

// Callable is anything a script can call.
type Callable interface {
	Call(c Caller, args []any) (any, error)
}

// Arity is implemented by callables with a fixed parameter count.
// A negative arity accepts any number of arguments.
type Arity interface {
	Arity() int
}

// Member is implemented by host objects exposing named members.
type Member interface {
	GetMember(name string) (any, bool)
	SetMember(name string, v any) error
}

// Indexer is implemented by host values supporting subscripts.
type Indexer interface {
	GetIndex(key any) (any, error)
	SetIndex(key any, v any) error
}

// Iterable is implemented by host values usable in for loops and `in`.
type Iterable interface {
	Iterate(fn func(v any) bool)
}

// Future is an asynchronous host value. Awaiting it is only allowed on the
// asynchronous evaluation path.
type Future interface {
	Await(ctx context.Context) (any, error)
}

// HostFunc adapts a plain Go function into a Callable.
type HostFunc func(args ...any) (any, error)

// Call implements Callable.
func (f HostFunc) Call(_ Caller, args []any) (any, error) {
	return f(args...)
}

// Arity implements Arity.
func (f HostFunc) Arity() int { return -1 }

// Native is a named built-in that needs the caller (callbacks, awaiting).
type Native struct {
	Name string
	Fn   func(c Caller, args []any) (any, error)
}

// Call implements Callable.
func (n *Native) Call(c Caller, args []any) (any, error) {
	return n.Fn(c, args)
}

// Arity implements Arity.
func (n *Native) Arity() int { return -1 }

func (n *Native) String() string { return "<builtin " + n.Name + ">" }

// IsNullish reports whether v is null or undefined.
func IsNullish(v any) bool {
	return v == nil || v == Undefined
}

// Truthy reports the boolean interpretation of v.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

// TypeName returns the script-visible type name of v.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *List:
		return "list"
	case *Object:
		return "object"
	case *Error:
		return "error"
	case Callable:
		return "function"
	case Future:
		return "future"
	}
	return fmt.Sprintf("%T", v)
}

// Identical reports reference identity for containers and functions and
// value identity for primitives.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}

// Equal implements loose equality (==).
func Equal(a, b any) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return Identical(a, b)
}

// FormatNumber renders a number the way scripts print it.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToString converts v to its display string. Strings are returned as is.
func ToString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Repr(v)
}

// Repr renders v as source-like text, quoting strings.
func Repr(v any) string {
	var sb strings.Builder
	writeRepr(&sb, v, 0)
	return sb.String()
}

func writeRepr(sb *strings.Builder, v any, depth int) {
	if depth > 32 {
		sb.WriteString("...")
		return
	}
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case undefinedType:
		sb.WriteString("undefined")
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case float64:
		sb.WriteString(FormatNumber(x))
	case string:
		sb.WriteString(strconv.Quote(x))
	case *List:
		sb.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, item, depth+1)
		}
		sb.WriteByte(']')
	case *Object:
		sb.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			writeRepr(sb, x.m[k], depth+1)
		}
		sb.WriteByte('}')
	case *Error:
		sb.WriteString(x.Category)
		sb.WriteString(": ")
		sb.WriteString(x.Message)
	case fmt.Stringer:
		sb.WriteString(x.String())
	case Callable:
		sb.WriteString("<function>")
	default:
		fmt.Fprintf(sb, "%v", x)
	}
}

// ToNumber converts v to a number for arithmetic on mixed operands.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	}
	return 0, false
}

// FromGo converts host Go values into script values at the host boundary.
// Values of unknown types pass through unchanged and stay opaque.
func FromGo(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = FromGo(item)
		}
		return NewList(items...)
	case []string:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = item
		}
		return NewList(items...)
	case []float64:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = item
		}
		return NewList(items...)
	case map[string]any:
		obj := NewObject()
		for _, k := range sortedKeys(x) {
			obj.Set(k, FromGo(x[k]))
		}
		return obj
	case func(args ...any) (any, error):
		return HostFunc(x)
	}
	return v
}

// ToGo converts script containers back into plain Go values for the host.
func ToGo(v any) any {
	switch x := v.(type) {
	case undefinedType:
		return nil
	case *List:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = ToGo(item)
		}
		return out
	case *Object:
		out := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			out[k] = ToGo(x.m[k])
		}
		return out
	}
	return v
}

// Settle resolves a Future according to the caller's mode. On the
// synchronous path a Future is an error.
func Settle(c Caller, v any) (any, error) {
	f, ok := v.(Future)
	if !ok {
		return v, nil
	}
	if !c.Async {
		return nil, NewError(CategoryType, "asynchronous value in synchronous evaluation; use evaluateAsync")
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}
	return Settle(c, FromGo(res))
}

// Invoke calls fn with args, trimming surplus arguments for callables with a
// fixed arity, and settles the result.
func Invoke(c Caller, fn any, args ...any) (any, error) {
	callable, ok := fn.(Callable)
	if !ok {
		return nil, NewError(CategoryType, "%s is not a function", TypeName(fn))
	}
	if a, ok := fn.(Arity); ok {
		if n := a.Arity(); n >= 0 && len(args) > n {
			args = args[:n]
		}
	}
	res, err := callable.Call(c, args)
	if err != nil {
		return nil, err
	}
	return Settle(c, FromGo(res))
}
