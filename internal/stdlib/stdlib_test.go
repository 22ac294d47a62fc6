package stdlib

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/jspy/internal/value"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func globals(out *bytes.Buffer) map[string]any {
	return Globals(Env{Out: out, Now: func() time.Time { return fixedNow }})
}

func call(t *testing.T, g map[string]any, name string, args ...any) (any, error) {
	t.Helper()
	fn, ok := g[name]
	require.True(t, ok, "missing global %s", name)
	return value.Invoke(value.Caller{Ctx: context.Background(), Async: true}, fn, args...)
}

func TestBuiltins(t *testing.T) {
	obj := value.NewObject()
	obj.Set("a", 1.0)
	obj.Set("b", "two")

	tests := []struct {
		name string
		fn   string
		args []any
		want any
	}{
		{"range stop", "range", []any{3.0}, []any{0.0, 1.0, 2.0}},
		{"range start stop step", "range", []any{1.0, 7.0, 2.0}, []any{1.0, 3.0, 5.0}},
		{"range backwards", "range", []any{3.0, 0.0, -1.0}, []any{3.0, 2.0, 1.0}},
		{"range empty", "range", []any{0.0}, []any{}},
		{"len string", "len", []any{"héllo"}, 5.0},
		{"len list", "len", []any{value.NewList(1.0, 2.0)}, 2.0},
		{"len object", "len", []any{obj}, 2.0},
		{"str", "str", []any{1.5}, "1.5"},
		{"int truncates", "int", []any{-2.7}, -2.0},
		{"int parses", "int", []any{"42.9"}, 42.0},
		{"float parses underscores", "float", []any{"1_000.5"}, 1000.5},
		{"isNull", "isNull", []any{value.Undefined}, true},
		{"type", "type", []any{nil}, "null"},
		{"round", "round", []any{2.5}, 3.0},
		{"round digits", "round", []any{3.14159, 2.0}, 3.14},
		{"min args", "min", []any{3.0, 1.0, 2.0}, 1.0},
		{"max list", "max", []any{value.NewList(4.0, 9.0, 2.0)}, 9.0},
		{"max strings", "max", []any{"pear", "apple"}, "pear"},
		{"keys", "keys", []any{obj}, []any{"a", "b"}},
		{"values", "values", []any{obj}, []any{1.0, "two"}},
	}
	g := globals(&bytes.Buffer{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, g, tt.fn, tt.args...)
			require.NoError(t, err)
			if l, ok := got.(*value.List); ok {
				got = l.Items
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		fn       string
		args     []any
		category string
		msg      string
	}{
		{"range", []any{1.0, 2.0, 0.0}, value.CategoryError, "range() step must not be zero"},
		{"range", []any{"3"}, value.CategoryType, "range() expects a number, got string"},
		{"range", nil, value.CategoryType, "range() takes 1 to 3 arguments, got 0"},
		{"len", []any{1.0}, value.CategoryType, "object of type number has no len()"},
		{"int", []any{"abc"}, "ValueError", `invalid literal for int(): "abc"`},
		{"min", nil, "ValueError", "min() arg is an empty sequence"},
		{"max", []any{1.0, "a"}, value.CategoryType, "cannot compare string with number"},
		{"keys", []any{value.NewList()}, value.CategoryType, "keys() expects an object, got list"},
	}
	g := globals(&bytes.Buffer{})
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, err := call(t, g, tt.fn, tt.args...)
			var se *value.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.category, se.Category)
			assert.Equal(t, tt.msg, se.Message)
		})
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	g := globals(&out)
	_, err := call(t, g, "print", "total:", 3.0, value.NewList(true, nil))
	require.NoError(t, err)
	_, err = call(t, g, "print")
	require.NoError(t, err)
	assert.Equal(t, "total: 3 [true, null]\n\n", out.String())
}

func TestDateTime(t *testing.T) {
	g := globals(&bytes.Buffer{})

	now, err := call(t, g, "dateTime")
	require.NoError(t, err)
	assert.Equal(t, DateTime{T: fixedNow}, now)

	d, err := call(t, g, "dateTime", "2024-03-05")
	require.NoError(t, err)
	year, err := value.GetMember(d, "year")
	require.NoError(t, err)
	assert.Equal(t, 2024.0, year)

	add, err := value.GetMember(d, "addDays")
	require.NoError(t, err)
	later, err := value.Invoke(value.Caller{}, add, 30.0)
	require.NoError(t, err)
	format, err := value.GetMember(later, "format")
	require.NoError(t, err)
	s, err := value.Invoke(value.Caller{}, format, "2006-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-04", s)

	epoch, err := call(t, g, "dateTime", 0.0)
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:00:00Z", value.ToString(epoch))

	_, err = call(t, g, "dateTime", "soon")
	require.Error(t, err)
	require.Error(t, value.SetMember(d, "year", 1.0))
}

func TestSleep(t *testing.T) {
	group := value.NewPromiseGroup()
	g := Globals(Env{Group: group})

	fn := g["sleep"].(value.Callable)
	f, err := fn.Call(value.Caller{}, []any{5.0})
	require.NoError(t, err)
	_, ok := f.(value.Future)
	require.True(t, ok)

	got, err := call(t, g, "sleep", 1.0)
	require.NoError(t, err)
	assert.Equal(t, value.Undefined, got)
	group.Shutdown()
	assert.Zero(t, group.Pending())
}

func TestCategoriesAndPrelude(t *testing.T) {
	g := globals(&bytes.Buffer{})
	assert.Equal(t, value.Category(value.CategoryType), g["TypeError"])
	assert.Equal(t, value.Category("ValueError"), g["ValueError"])
	assert.Contains(t, Prelude, "def sum(")
}
