// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ops

import (
	"math"
	"strings"

	"nickandperla.net/jspy/internal/value"
)

func operandError(op string, a, b any) error {
	return value.NewError(value.CategoryType, "unsupported operand types for %s: %s and %s",
		op, value.TypeName(a), value.TypeName(b))
}

func numbers(a, b any) (float64, float64, bool) {
	x, ok := a.(float64)
	if !ok {
		return 0, 0, false
	}
	y, ok := b.(float64)
	return x, y, ok
}

// Add implements +: numbers add, strings concatenate, lists join.
func Add(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return x + y, nil
	}
	_, as := a.(string)
	_, bs := b.(string)
	if as || bs {
		return value.ToString(a) + value.ToString(b), nil
	}
	if x, ok := a.(*value.List); ok {
		if y, ok := b.(*value.List); ok {
			items := make([]any, 0, len(x.Items)+len(y.Items))
			items = append(items, x.Items...)
			items = append(items, y.Items...)
			return value.NewList(items...), nil
		}
	}
	return nil, operandError("+", a, b)
}

// Sub implements -.
func Sub(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return x - y, nil
	}
	return nil, operandError("-", a, b)
}

// maxRepeat bounds the length of a string built by repetition.
const maxRepeat = 1 << 28

// Mul implements *. A string times a non-negative integer repeats the string.
func Mul(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return x * y, nil
	}
	if s, ok := a.(string); ok {
		if n, ok := b.(float64); ok && n >= 0 {
			if math.IsInf(n, 0) || n != math.Trunc(n) {
				return nil, value.NewError(value.CategoryType, "can't multiply string by non-integer %s", value.ToString(n))
			}
			if len(s) > 0 && n > float64(maxRepeat/len(s)) {
				return nil, value.NewError(value.CategoryError, "repeated string is too long")
			}
			return strings.Repeat(s, int(n)), nil
		}
	}
	return nil, operandError("*", a, b)
}

// Div implements /. Division by zero follows IEEE 754.
func Div(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return x / y, nil
	}
	return nil, operandError("/", a, b)
}

// FloorDiv implements //.
func FloorDiv(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return math.Floor(x / y), nil
	}
	return nil, operandError("//", a, b)
}

// Mod implements %. The result takes the sign of the divisor.
func Mod(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r, nil
	}
	return nil, operandError("%", a, b)
}

// Pow implements **.
func Pow(a, b any) (any, error) {
	if x, y, ok := numbers(a, b); ok {
		return math.Pow(x, y), nil
	}
	return nil, operandError("**", a, b)
}

// Eq implements ==.
func Eq(a, b any) (any, error) { return value.Equal(a, b), nil }

// NotEq implements !=.
func NotEq(a, b any) (any, error) { return !value.Equal(a, b), nil }

func compare(a, b any, ok func(int) bool) (any, error) {
	r, err := value.Compare(a, b)
	if err != nil {
		return nil, err
	}
	return ok(r), nil
}

// Less implements <.
func Less(a, b any) (any, error) { return compare(a, b, func(r int) bool { return r < 0 }) }

// LessEq implements <=.
func LessEq(a, b any) (any, error) { return compare(a, b, func(r int) bool { return r <= 0 }) }

// Greater implements >.
func Greater(a, b any) (any, error) { return compare(a, b, func(r int) bool { return r > 0 }) }

// GreaterEq implements >=.
func GreaterEq(a, b any) (any, error) { return compare(a, b, func(r int) bool { return r >= 0 }) }

// In implements membership: list element, substring, object key or host
// iterable element.
func In(item, container any) (any, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return nil, operandError("in", item, container)
		}
		return strings.Contains(c, s), nil
	case *value.Object:
		return c.Has(value.ToString(item)), nil
	case *value.List:
		for _, v := range c.Items {
			if value.Equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case value.Iterable:
		found := false
		c.Iterate(func(v any) bool {
			found = value.Equal(value.FromGo(v), item)
			return !found
		})
		return found, nil
	}
	return nil, operandError("in", item, container)
}

// NotIn implements not in.
func NotIn(item, container any) (any, error) {
	r, err := In(item, container)
	if err != nil {
		return nil, err
	}
	return !r.(bool), nil
}

// Is implements identity. An error value "is" a category (or host matcher)
// it belongs to.
func Is(a, b any) (any, error) {
	if e, ok := a.(*value.Error); ok {
		if m, ok := b.(value.ErrorMatcher); ok {
			return m.MatchesError(e), nil
		}
	}
	return value.Identical(a, b), nil
}

// IsNot implements is not.
func IsNot(a, b any) (any, error) {
	r, err := Is(a, b)
	if err != nil {
		return nil, err
	}
	return !r.(bool), nil
}

// Neg implements unary -.
func Neg(a any) (any, error) {
	if x, ok := a.(float64); ok {
		return -x, nil
	}
	return nil, value.NewError(value.CategoryType, "bad operand type for unary -: %s", value.TypeName(a))
}

// Pos implements unary +.
func Pos(a any) (any, error) {
	if x, ok := a.(float64); ok {
		return x, nil
	}
	return nil, value.NewError(value.CategoryType, "bad operand type for unary +: %s", value.TypeName(a))
}

// Not implements not.
func Not(a any) (any, error) { return !value.Truthy(a), nil }
