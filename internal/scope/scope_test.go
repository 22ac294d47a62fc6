package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupFallsThrough(t *testing.T) {
	root := NewFrom(map[string]any{"x": 1.0})
	child := root.Clone()

	v, ok := child.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.False(t, child.Has("x"))
	assert.True(t, child.IsDeclared("x"))
	assert.Same(t, root, child.DeclaringScope("x"))
	assert.Same(t, root, child.Parent())

	_, ok = child.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, child.DeclaringScope("missing"))
}

func TestAssign(t *testing.T) {
	root := New()
	root.Set("count", 0.0)
	child := root.Clone()

	child.Assign("count", 1.0)
	child.Assign("fresh", true)

	v, _ := root.Get("count")
	assert.Equal(t, 1.0, v)
	assert.False(t, root.Has("fresh"))
	assert.True(t, child.Has("fresh"))
}

func TestSealedScopeIsShadowed(t *testing.T) {
	globals := NewFrom(map[string]any{"max": "builtin"}).Seal()
	module := globals.Clone()

	module.Assign("max", "mine")
	v, _ := module.Get("max")
	assert.Equal(t, "mine", v)
	v, _ = globals.Get("max")
	assert.Equal(t, "builtin", v)

	// a sealed scope still accepts its own assignments
	globals.Assign("max", "changed")
	v, _ = globals.Get("max")
	assert.Equal(t, "changed", v)

	// nested scopes write through to the unsealed module scope
	fn := module.Clone()
	fn.Assign("max", "inner")
	v, _ = module.Get("max")
	assert.Equal(t, "inner", v)
}

func TestNamesAndSnapshot(t *testing.T) {
	s := New()
	s.Set("b", 1.0)
	s.Set("a", 2.0)
	s.Set("b", 3.0)

	assert.Equal(t, []string{"b", "a"}, s.Names())
	snap := s.Snapshot()
	assert.Equal(t, map[string]any{"a": 2.0, "b": 3.0}, snap)

	snap["c"] = 4.0
	assert.False(t, s.Has("c"))
}
