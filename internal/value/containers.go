// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import "sort"

// List is a shared, mutable sequence.
type List struct {
	Items []any
}

// NewList creates a list holding items.
func NewList(items ...any) *List {
	if items == nil {
		items = []any{}
	}
	return &List{Items: items}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.Items) }

// Iterate implements Iterable.
func (l *List) Iterate(fn func(v any) bool) {
	for _, item := range l.Items {
		if !fn(item) {
			return
		}
	}
}

// Object is an insertion-ordered string-keyed map.
type Object struct {
	keys []string
	m    map[string]any
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{m: make(map[string]any)}
}

// ObjectFrom builds an object from m with keys in sorted order.
func ObjectFrom(m map[string]any) *Object {
	obj := NewObject()
	for _, k := range sortedKeys(m) {
		obj.Set(k, m[k])
	}
	return obj
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.m[key]
	return v, ok
}

// Set stores v under key, keeping the original position of existing keys.
func (o *Object) Set(key string, v any) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.m[key]; !ok {
		return
	}
	delete(o.m, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.m[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Iterate implements Iterable over the keys.
func (o *Object) Iterate(fn func(v any) bool) {
	for _, k := range o.Keys() {
		if !fn(k) {
			return
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
