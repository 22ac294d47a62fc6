// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import (
	"math"
	"unicode/utf8"
)

// GetMember reads base.name.
func GetMember(base any, name string) (any, error) {
	switch b := base.(type) {
	case nil, undefinedType:
		return nil, NewError(CategoryType, "cannot read member %q of %s", name, TypeName(base))
	case *Object:
		if v, ok := b.Get(name); ok {
			return v, nil
		}
		if m := objectMethod(b, name); m != nil {
			return m, nil
		}
		return Undefined, nil
	case *List:
		if name == "length" {
			return float64(len(b.Items)), nil
		}
		if m := listMethod(b, name); m != nil {
			return m, nil
		}
		return Undefined, nil
	case string:
		if name == "length" {
			return float64(utf8.RuneCountInString(b)), nil
		}
		if m := stringMethod(b, name); m != nil {
			return m, nil
		}
		return Undefined, nil
	case Member:
		if v, ok := b.GetMember(name); ok {
			return FromGo(v), nil
		}
		return Undefined, nil
	}
	return nil, NewError(CategoryType, "%s has no member %q", TypeName(base), name)
}

// SetMember writes base.name = v directly into the shared object.
func SetMember(base any, name string, v any) error {
	switch b := base.(type) {
	case *Object:
		b.Set(name, v)
		return nil
	case Member:
		return b.SetMember(name, v)
	}
	return NewError(CategoryType, "cannot set member %q on %s", name, TypeName(base))
}

// GetIndex reads base[key].
func GetIndex(base any, key any) (any, error) {
	switch b := base.(type) {
	case *List:
		i, err := listIndex(key, len(b.Items))
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return Undefined, nil
		}
		return b.Items[i], nil
	case string:
		runes := []rune(b)
		i, err := listIndex(key, len(runes))
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return Undefined, nil
		}
		return string(runes[i]), nil
	case *Object:
		v, ok := b.Get(ToString(key))
		if !ok {
			return Undefined, nil
		}
		return v, nil
	case Indexer:
		v, err := b.GetIndex(key)
		if err != nil {
			return nil, err
		}
		return FromGo(v), nil
	case Member:
		if name, ok := key.(string); ok {
			return GetMember(b, name)
		}
	}
	return nil, NewError(CategoryType, "%s is not subscriptable", TypeName(base))
}

// SetIndex writes base[key] = v.
func SetIndex(base any, key any, v any) error {
	switch b := base.(type) {
	case *List:
		i, err := listIndex(key, len(b.Items))
		if err != nil {
			return err
		}
		if i < 0 {
			return NewError(CategoryIndex, "list index %s out of range", Repr(key))
		}
		b.Items[i] = v
		return nil
	case *Object:
		b.Set(ToString(key), v)
		return nil
	case Indexer:
		return b.SetIndex(key, v)
	case Member:
		if name, ok := key.(string); ok {
			return b.SetMember(name, v)
		}
	}
	return NewError(CategoryType, "cannot assign into %s", TypeName(base))
}

// listIndex normalizes a subscript. Negative indexes count from the end.
// It returns -1 for out-of-range reads.
func listIndex(key any, n int) (int, error) {
	f, ok := key.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, NewError(CategoryType, "indexes must be integers, not %s", TypeName(key))
	}
	i := int(f)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return -1, nil
	}
	return i, nil
}

// Iterate walks an iterable value: lists, strings (characters), objects
// (keys) and host Iterables.
func Iterate(v any, fn func(item any) bool) error {
	switch x := v.(type) {
	case *List:
		items := make([]any, len(x.Items))
		copy(items, x.Items)
		for _, item := range items {
			if !fn(item) {
				break
			}
		}
		return nil
	case string:
		for _, r := range x {
			if !fn(string(r)) {
				break
			}
		}
		return nil
	case Iterable:
		x.Iterate(func(item any) bool { return fn(FromGo(item)) })
		return nil
	}
	return NewError(CategoryType, "%s is not iterable", TypeName(v))
}
