// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import (
	"sort"
	"strings"
)

func method(name string, fn func(c Caller, args []any) (any, error)) *Native {
	return &Native{Name: name, Fn: fn}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func intArg(args []any, i int, def int) int {
	if f, ok := arg(args, i).(float64); ok {
		return int(f)
	}
	return def
}

// clampSlice mirrors slice(start, end) bounds handling with negative offsets.
func clampSlice(start, end, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if start > end {
		start = end
	}
	return start, end
}

func listMethod(l *List, name string) *Native {
	switch name {
	case "push", "append":
		return method(name, func(_ Caller, args []any) (any, error) {
			l.Items = append(l.Items, args...)
			return float64(len(l.Items)), nil
		})
	case "pop":
		return method(name, func(_ Caller, args []any) (any, error) {
			if len(l.Items) == 0 {
				return Undefined, nil
			}
			last := l.Items[len(l.Items)-1]
			l.Items = l.Items[:len(l.Items)-1]
			return last, nil
		})
	case "map":
		return method(name, func(c Caller, args []any) (any, error) {
			out := make([]any, 0, len(l.Items))
			for i, item := range l.Items {
				v, err := Invoke(c, arg(args, 0), item, float64(i), l)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return NewList(out...), nil
		})
	case "filter":
		return method(name, func(c Caller, args []any) (any, error) {
			out := []any{}
			for i, item := range l.Items {
				keep, err := Invoke(c, arg(args, 0), item, float64(i), l)
				if err != nil {
					return nil, err
				}
				if Truthy(keep) {
					out = append(out, item)
				}
			}
			return NewList(out...), nil
		})
	case "forEach":
		return method(name, func(c Caller, args []any) (any, error) {
			for i, item := range l.Items {
				if _, err := Invoke(c, arg(args, 0), item, float64(i), l); err != nil {
					return nil, err
				}
			}
			return Undefined, nil
		})
	case "find":
		return method(name, func(c Caller, args []any) (any, error) {
			for i, item := range l.Items {
				ok, err := Invoke(c, arg(args, 0), item, float64(i), l)
				if err != nil {
					return nil, err
				}
				if Truthy(ok) {
					return item, nil
				}
			}
			return Undefined, nil
		})
	case "reduce":
		return method(name, func(c Caller, args []any) (any, error) {
			items := l.Items
			var acc any
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(items) == 0 {
					return nil, NewError(CategoryType, "reduce of empty list with no initial value")
				}
				acc, items = items[0], items[1:]
			}
			for _, item := range items {
				v, err := Invoke(c, arg(args, 0), acc, item)
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		})
	case "join":
		return method(name, func(_ Caller, args []any) (any, error) {
			sep := ","
			if s, ok := arg(args, 0).(string); ok {
				sep = s
			}
			parts := make([]string, len(l.Items))
			for i, item := range l.Items {
				if IsNullish(item) {
					continue
				}
				parts[i] = ToString(item)
			}
			return strings.Join(parts, sep), nil
		})
	case "indexOf":
		return method(name, func(_ Caller, args []any) (any, error) {
			for i, item := range l.Items {
				if Equal(item, arg(args, 0)) {
					return float64(i), nil
				}
			}
			return float64(-1), nil
		})
	case "includes":
		return method(name, func(_ Caller, args []any) (any, error) {
			for _, item := range l.Items {
				if Equal(item, arg(args, 0)) {
					return true, nil
				}
			}
			return false, nil
		})
	case "slice":
		return method(name, func(_ Caller, args []any) (any, error) {
			start, end := clampSlice(intArg(args, 0, 0), intArg(args, 1, len(l.Items)), len(l.Items))
			out := make([]any, end-start)
			copy(out, l.Items[start:end])
			return NewList(out...), nil
		})
	case "concat":
		return method(name, func(_ Caller, args []any) (any, error) {
			out := append([]any{}, l.Items...)
			for _, a := range args {
				if other, ok := a.(*List); ok {
					out = append(out, other.Items...)
				} else {
					out = append(out, a)
				}
			}
			return NewList(out...), nil
		})
	case "reverse":
		return method(name, func(_ Caller, args []any) (any, error) {
			for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
				l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
			}
			return l, nil
		})
	case "sort":
		return method(name, func(c Caller, args []any) (any, error) {
			var sortErr error
			less := func(a, b any) bool {
				if sortErr != nil {
					return false
				}
				if cmp := arg(args, 0); !IsNullish(cmp) {
					r, err := Invoke(c, cmp, a, b)
					if err != nil {
						sortErr = err
						return false
					}
					f, _ := ToNumber(r)
					return f < 0
				}
				r, err := Compare(a, b)
				if err != nil {
					sortErr = err
					return false
				}
				return r < 0
			}
			sort.SliceStable(l.Items, func(i, j int) bool { return less(l.Items[i], l.Items[j]) })
			if sortErr != nil {
				return nil, sortErr
			}
			return l, nil
		})
	}
	return nil
}

func stringMethod(s string, name string) *Native {
	switch name {
	case "upper", "toUpperCase":
		return method(name, func(_ Caller, _ []any) (any, error) { return strings.ToUpper(s), nil })
	case "lower", "toLowerCase":
		return method(name, func(_ Caller, _ []any) (any, error) { return strings.ToLower(s), nil })
	case "trim", "strip":
		return method(name, func(_ Caller, _ []any) (any, error) { return strings.TrimSpace(s), nil })
	case "split":
		return method(name, func(_ Caller, args []any) (any, error) {
			var parts []string
			if sep, ok := arg(args, 0).(string); ok {
				parts = strings.Split(s, sep)
			} else {
				parts = strings.Fields(s)
			}
			items := make([]any, len(parts))
			for i, p := range parts {
				items[i] = p
			}
			return NewList(items...), nil
		})
	case "startsWith":
		return method(name, func(_ Caller, args []any) (any, error) {
			return strings.HasPrefix(s, ToString(arg(args, 0))), nil
		})
	case "endsWith":
		return method(name, func(_ Caller, args []any) (any, error) {
			return strings.HasSuffix(s, ToString(arg(args, 0))), nil
		})
	case "includes":
		return method(name, func(_ Caller, args []any) (any, error) {
			return strings.Contains(s, ToString(arg(args, 0))), nil
		})
	case "indexOf":
		return method(name, func(_ Caller, args []any) (any, error) {
			i := strings.Index(s, ToString(arg(args, 0)))
			if i < 0 {
				return float64(-1), nil
			}
			return float64(len([]rune(s[:i]))), nil
		})
	case "replace":
		return method(name, func(_ Caller, args []any) (any, error) {
			return strings.ReplaceAll(s, ToString(arg(args, 0)), ToString(arg(args, 1))), nil
		})
	case "slice", "substring":
		return method(name, func(_ Caller, args []any) (any, error) {
			runes := []rune(s)
			start, end := clampSlice(intArg(args, 0, 0), intArg(args, 1, len(runes)), len(runes))
			return string(runes[start:end]), nil
		})
	}
	return nil
}

func objectMethod(o *Object, name string) *Native {
	switch name {
	case "keys":
		return method(name, func(_ Caller, _ []any) (any, error) {
			keys := o.Keys()
			items := make([]any, len(keys))
			for i, k := range keys {
				items[i] = k
			}
			return NewList(items...), nil
		})
	case "values":
		return method(name, func(_ Caller, _ []any) (any, error) {
			items := make([]any, 0, o.Len())
			for _, k := range o.keys {
				items = append(items, o.m[k])
			}
			return NewList(items...), nil
		})
	case "items":
		return method(name, func(_ Caller, _ []any) (any, error) {
			items := make([]any, 0, o.Len())
			for _, k := range o.keys {
				items = append(items, NewList(k, o.m[k]))
			}
			return NewList(items...), nil
		})
	case "has":
		return method(name, func(_ Caller, args []any) (any, error) {
			return o.Has(ToString(arg(args, 0))), nil
		})
	case "get":
		return method(name, func(_ Caller, args []any) (any, error) {
			if v, ok := o.Get(ToString(arg(args, 0))); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return Undefined, nil
		})
	}
	return nil
}

// Compare orders two numbers or two strings.
func Compare(a, b any) (int, error) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	}
	return 0, NewError(CategoryType, "cannot compare %s with %s", TypeName(a), TypeName(b))
}
