// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scope implements the jspy runtime context: a parent-linked
// binding table with read-through lookup.
package scope

// Scope is one link of the scope chain.
type Scope struct {
	vars   map[string]any
	order  []string
	parent *Scope
	sealed bool // Assign from a child never writes here
}

// New creates a root scope.
func New() *Scope {
	return &Scope{vars: make(map[string]any)}
}

// NewFrom creates a root scope holding bindings.
func NewFrom(bindings map[string]any) *Scope {
	s := New()
	for k, v := range bindings {
		s.Set(k, v)
	}
	return s
}

// Seal makes s read-only to assignments made through child scopes; they
// shadow its bindings instead. Used for the globals under a module.
func (s *Scope) Seal() *Scope {
	s.sealed = true
	return s
}

// Parent returns the enclosing scope, or nil.
func (s *Scope) Parent() *Scope { return s.parent }

// Get looks name up through the parent chain.
func (s *Scope) Get(name string) (any, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in this scope.
func (s *Scope) Set(name string, v any) {
	if _, ok := s.vars[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vars[name] = v
}

// Has reports whether name is bound locally.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// IsDeclared reports whether name is bound anywhere in the chain.
func (s *Scope) IsDeclared(name string) bool {
	return s.DeclaringScope(name) != nil
}

// DeclaringScope returns the nearest scope owning name, or nil.
func (s *Scope) DeclaringScope(name string) *Scope {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			return c
		}
	}
	return nil
}

// Assign writes name into the scope that already owns it, or binds it here.
func (s *Scope) Assign(name string, v any) {
	if owner := s.DeclaringScope(name); owner != nil && (owner == s || !owner.sealed) {
		owner.vars[name] = v
		return
	}
	s.Set(name, v)
}

// Clone creates a child scope whose reads fall through to s.
func (s *Scope) Clone() *Scope {
	return &Scope{vars: make(map[string]any), parent: s}
}

// Names returns the local names in binding order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns a copy of the local bindings.
func (s *Scope) Snapshot() map[string]any {
	snap := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		snap[k] = v
	}
	return snap
}
