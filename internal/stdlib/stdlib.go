// Package stdlib provides the global functions every jspy runtime starts
// with, plus a prelude written in jspy itself.
package stdlib

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"nickandperla.net/jspy/internal/value"
)

//go:embed prelude.jspy
var Prelude string

// Env is what the globals need from their runtime.
type Env struct {
	Out   io.Writer
	Group *value.PromiseGroup
	Now   func() time.Time
}

// Globals returns a fresh set of global bindings.
func Globals(env Env) map[string]any {
	if env.Out == nil {
		env.Out = io.Discard
	}
	if env.Group == nil {
		env.Group = value.NewPromiseGroup()
	}
	if env.Now == nil {
		env.Now = time.Now
	}

	g := map[string]any{
		"range":    native("range", builtinRange),
		"len":      native("len", builtinLen),
		"str":      native("str", builtinStr),
		"int":      native("int", builtinInt),
		"float":    native("float", builtinFloat),
		"isNull":   native("isNull", builtinIsNull),
		"type":     native("type", builtinType),
		"round":    native("round", builtinRound),
		"min":      native("min", func(args []any) (any, error) { return extreme("min", args, -1) }),
		"max":      native("max", func(args []any) (any, error) { return extreme("max", args, 1) }),
		"keys":     native("keys", builtinKeys),
		"values":   native("values", builtinValues),
		"print":    native("print", printTo(env.Out)),
		"dateTime": native("dateTime", dateTimeAt(env.Now)),
		"sleep":    native("sleep", sleepIn(env.Group)),
	}
	for _, c := range []string{
		value.CategoryError, value.CategoryName, value.CategoryType,
		value.CategoryIndex, value.CategoryImport, value.CategoryHost,
		"ValueError", "Exception",
	} {
		g[c] = value.Category(c)
	}
	return g
}

func native(name string, fn func(args []any) (any, error)) *value.Native {
	return &value.Native{Name: name, Fn: func(_ value.Caller, args []any) (any, error) { return fn(args) }}
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func number(name string, args []any, i int) (float64, error) {
	f, ok := argAt(args, i).(float64)
	if !ok {
		return 0, value.NewError(value.CategoryType, "%s() expects a number, got %s", name, value.TypeName(argAt(args, i)))
	}
	return f, nil
}

func builtinRange(args []any) (any, error) {
	var start, stop, step float64 = 0, 0, 1
	var err error
	switch len(args) {
	case 1:
		if stop, err = number("range", args, 0); err != nil {
			return nil, err
		}
	case 2, 3:
		if start, err = number("range", args, 0); err != nil {
			return nil, err
		}
		if stop, err = number("range", args, 1); err != nil {
			return nil, err
		}
		if len(args) == 3 {
			if step, err = number("range", args, 2); err != nil {
				return nil, err
			}
		}
	default:
		return nil, value.NewError(value.CategoryType, "range() takes 1 to 3 arguments, got %d", len(args))
	}
	if step == 0 {
		return nil, value.NewError(value.CategoryError, "range() step must not be zero")
	}
	var items []any
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		items = append(items, i)
	}
	return value.NewList(items...), nil
}

func builtinLen(args []any) (any, error) {
	switch x := argAt(args, 0).(type) {
	case string:
		return float64(utf8.RuneCountInString(x)), nil
	case *value.List:
		return float64(x.Len()), nil
	case *value.Object:
		return float64(x.Len()), nil
	case value.Member:
		if n, ok := x.GetMember("length"); ok {
			return value.FromGo(n), nil
		}
	}
	return nil, value.NewError(value.CategoryType, "object of type %s has no len()", value.TypeName(argAt(args, 0)))
}

func builtinStr(args []any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}
	return value.ToString(args[0]), nil
}

func toNumber(name string, v any) (float64, error) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(x, "_", "")), 64)
		if err != nil {
			return 0, value.NewError("ValueError", "invalid literal for %s(): %q", name, x)
		}
		return f, nil
	default:
		if f, ok := value.ToNumber(v); ok {
			return f, nil
		}
	}
	return 0, value.NewError(value.CategoryType, "%s() argument must be a string or a number, not %s", name, value.TypeName(v))
}

func builtinInt(args []any) (any, error) {
	f, err := toNumber("int", argAt(args, 0))
	if err != nil {
		return nil, err
	}
	return math.Trunc(f), nil
}

func builtinFloat(args []any) (any, error) {
	return toNumber("float", argAt(args, 0))
}

func builtinIsNull(args []any) (any, error) {
	return value.IsNullish(argAt(args, 0)), nil
}

func builtinType(args []any) (any, error) {
	return value.TypeName(argAt(args, 0)), nil
}

func builtinRound(args []any) (any, error) {
	f, err := number("round", args, 0)
	if err != nil {
		return nil, err
	}
	digits := 0.0
	if len(args) > 1 {
		if digits, err = number("round", args, 1); err != nil {
			return nil, err
		}
	}
	p := math.Pow(10, digits)
	return math.Round(f*p) / p, nil
}

// extreme implements min and max over arguments or a single list.
func extreme(name string, args []any, sign int) (any, error) {
	items := args
	if len(args) == 1 {
		if l, ok := args[0].(*value.List); ok {
			items = l.Items
		}
	}
	if len(items) == 0 {
		return nil, value.NewError("ValueError", "%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, v := range items[1:] {
		c, err := value.Compare(v, best)
		if err != nil {
			return nil, err
		}
		if c*sign > 0 {
			best = v
		}
	}
	return best, nil
}

func builtinKeys(args []any) (any, error) {
	o, ok := argAt(args, 0).(*value.Object)
	if !ok {
		return nil, value.NewError(value.CategoryType, "keys() expects an object, got %s", value.TypeName(argAt(args, 0)))
	}
	keys := o.Keys()
	items := make([]any, len(keys))
	for i, k := range keys {
		items[i] = k
	}
	return value.NewList(items...), nil
}

func builtinValues(args []any) (any, error) {
	o, ok := argAt(args, 0).(*value.Object)
	if !ok {
		return nil, value.NewError(value.CategoryType, "values() expects an object, got %s", value.TypeName(argAt(args, 0)))
	}
	var items []any
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		items = append(items, v)
	}
	return value.NewList(items...), nil
}

func printTo(w io.Writer) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = value.ToString(a)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func sleepIn(g *value.PromiseGroup) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		ms, err := number("sleep", args, 0)
		if err != nil {
			return nil, err
		}
		return g.After(time.Duration(ms*float64(time.Millisecond)), value.Undefined), nil
	}
}
