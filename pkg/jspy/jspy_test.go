package jspy

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/jspy/internal/parser"
	"nickandperla.net/jspy/internal/store"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"precedence", "1 + 2 * 3", 7.0},
		{"grouping", "(1 + 2) * 3", 9.0},
		{"power is right associative", "2 ** 3 ** 2", 512.0},
		{"unary minus binds looser than power", "-2 ** 2", -4.0},
		{"floor division", "7 // 2", 3.0},
		{"string concatenation", `"a" + "b" + 1`, "ab1"},
		{"negative index", "[1, 2, 3][-1]", 3.0},
		{"membership", "2 in [1, 2]", true},
		{"logical", "1 < 2 and 3 > 4", false},
		{"object literal", "o = {name: \"jspy\", \"n\": 2}\no.name + str(o.n)", "jspy2"},
		{"optional member", "x = null\nx?.name", nil},
		{"factorial", `
def fact(n):
    if n <= 1:
        return 1
    return n * fact(n - 1)
fact(5)
`, 120.0},
		{"map filter join", "x = [1, 2, 3]\nx.map(v => v * v).filter(v => v > 1).join(\",\")", "4,9"},
		{"tuple swap", "a = 1\nb = 2\na, b = b, a\n[a, b]", []any{2.0, 1.0}},
		{"while with break and continue", `
total = 0
i = 0
while true:
    i += 1
    if i > 10:
        break
    if i % 2 == 0:
        continue
    total += i
total
`, 25.0},
		{"for over range", "s = 0\nfor i in range(5):\n    s += i\ns", 10.0},
		{"closure keeps state", `
def counter():
    n = 0
    def inc():
        n += 1
        return n
    return inc
c = counter()
c()
c()
`, 2.0},
		{"function locals do not leak", `
x = 1
def f():
    x = 2
    return x
f() + x
`, 3.0},
		{"assignment in def shadows later module name", `
def f():
    count = 5
count = 0
f()
count
`, 0.0},
		{"assignment in def leaves module name", "x = 1\ndef f():\n    x = 2\nf()\nx", 1.0},
		{"free names resolve where defined", `
y = 'module'
def g():
    return y
def h():
    y = 'h'
    return g()
h()
`, "module"},
		{"compound assignment writes through", "n = 1\ndef f():\n    n += 1\nf()\nn", 2.0},
		{"slice clamps negative end", "[1, 2, 3].slice(0, -10)", []any{}},
		{"default parameter", "def f(a, b = 10):\n    return a + b\nf(1)", 11.0},
		{"single line blocks", "x = 5\nif x > 3: y = 'big'\nelse: y = 'small'\ny", "big"},
		{"elif", "x = 0\nif x > 0:\n    r = 'pos'\nelif x < 0:\n    r = 'neg'\nelse:\n    r = 'zero'\nr", "zero"},
		{"multi-line arrow", `
f = (a, b) =>
    s = a + b
    s * 2
f(1, 2)
`, 6.0},
		{"try except finally order", `
log = []
try:
    log.push("try")
    raise ValueError("bad")
except ValueError as e:
    log.push("except " + e.message)
finally:
    log.push("finally")
log.join(",")
`, "try,except bad,finally"},
		{"def without return yields last value", "def f():\n    1 + 1\nf()", 2.0},
		{"bare return is null", "def f():\n    return\nf()", nil},
		{"module level return", "return 5\n6", 5.0},
		{"prelude sum", "sum([1, 2, 3])", 6.0},
		{"prelude sorted", "sorted([3, 1, 2])", []any{1.0, 2.0, 3.0}},
		{"empty program", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New(WithOutput(&bytes.Buffer{}))
			defer rt.Close()
			result, err := rt.Evaluate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestShortCircuit(t *testing.T) {
	calls := 0
	rt := New(WithNoStdlib())
	rt.AddFunction("touch", func(args ...any) (any, error) {
		calls++
		return true, nil
	})

	result, err := rt.Evaluate("false and touch()")
	require.NoError(t, err)
	assert.Equal(t, false, result)

	result, err = rt.Evaluate("1 or touch()")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result)

	assert.Equal(t, 0, calls)

	result, err = rt.Evaluate("true and touch()")
	require.NoError(t, err)
	assert.Equal(t, true, result)
	assert.Equal(t, 1, calls)
}

func TestHostFunctions(t *testing.T) {
	rt := New()
	rt.AddFunction("total", func(args ...any) (any, error) {
		sum := 0.0
		for _, v := range args[0].([]any) {
			sum += v.(float64)
		}
		return sum, nil
	})
	rt.AddFunction("fail", func(args ...any) (any, error) {
		return nil, errors.New("disk full")
	})

	result, err := rt.Evaluate("total([1, 2, 3])")
	require.NoError(t, err)
	assert.Equal(t, 6.0, result)

	_, err = rt.Evaluate("fail()")
	var je *Error
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "HostError", je.Category)
	assert.Equal(t, "disk full", je.Message)

	result, err = rt.Evaluate(`
try:
    fail()
except HostError as e:
    r = "caught " + e.message
r
`)
	require.NoError(t, err)
	assert.Equal(t, "caught disk full", result)
}

func TestGlobalsAndContext(t *testing.T) {
	rt := New(WithGlobals(map[string]any{"limit": 10}))
	rt.AssignGlobals(map[string]any{"names": []any{"a", "b"}})

	result, err := rt.Evaluate("limit + len(names)")
	require.NoError(t, err)
	assert.Equal(t, 12.0, result)

	result, err = rt.Evaluate("greeting + who", WithContext(map[string]any{"greeting": "hi ", "who": "bob"}))
	require.NoError(t, err)
	assert.Equal(t, "hi bob", result)

	_, err = rt.Evaluate("who")
	assert.Error(t, err, "context bindings belong to one evaluation")
}

func TestShadowedGlobalsStayLocal(t *testing.T) {
	rt := New()
	result, err := rt.Evaluate("def max(a, b):\n    return 'mine'\nlimit = 3\nmax(1, 2)")
	require.NoError(t, err)
	assert.Equal(t, "mine", result)
	assert.Contains(t, rt.LastScope(), "max")

	result, err = rt.Evaluate("max(1, 2)")
	require.NoError(t, err)
	assert.Equal(t, 2.0, result)
}

func TestEntryFunction(t *testing.T) {
	rt := New()
	result, err := rt.Evaluate("def main(a, b):\n    return a + b", WithEntry("main", 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 5.0, result)

	_, err = rt.Evaluate("x = 1", WithEntry("main"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry function 'main' is not defined")
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	rt := New(WithOutput(&buf))
	_, err := rt.Evaluate(`print("a", 1, [1, "b"])`)
	require.NoError(t, err)
	assert.Equal(t, "a 1 [1, \"b\"]\n", buf.String())

	var lines []string
	rt = New(WithOutputWriter(func(text string) error {
		lines = append(lines, text)
		return nil
	}))
	_, err = rt.Evaluate("for i in range(2):\n    print(i)")
	require.NoError(t, err)
	assert.Equal(t, []string{"0\n", "1\n"}, lines)
}

func TestLastScope(t *testing.T) {
	rt := New()
	assert.Empty(t, rt.LastScope())

	_, err := rt.Evaluate("x = 1\ny = [1, {a: 2}]\ndef f():\n    pass")
	require.NoError(t, err)
	scope := rt.LastScope()
	assert.Equal(t, 1.0, scope["x"])
	assert.Equal(t, []any{1.0, map[string]any{"a": 2.0}}, scope["y"])
	assert.Contains(t, scope, "f")
	assert.NotContains(t, scope, "print")
}

func TestErrors(t *testing.T) {
	rt := New()

	_, err := rt.Evaluate("y + 1")
	var je *Error
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "NameError", je.Category)
	assert.Equal(t, "name 'y' is not defined", je.Message)
	assert.Equal(t, 1, je.Loc.Line)
	assert.Equal(t, 1, je.Loc.Column)

	_, err = rt.Evaluate(`raise "boom"`)
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "Error", je.Category)
	assert.Equal(t, "boom", je.Message)

	_, err = rt.Evaluate("1(2)")
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "TypeError", je.Category)

	_, err = rt.Evaluate("def f(a):\n    return a\nf(1, 2)")
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "TypeError", je.Category)
	assert.Contains(t, je.Message, "takes 1 arguments but 2 were given")

	_, err = rt.Evaluate(`"ab" * 1e19`)
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "Error", je.Category)

	_, err = rt.Evaluate(`"ab" * 2.5`)
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "TypeError", je.Category)

	_, err = rt.Evaluate("if x\n    y")
	var pe *parser.Error
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Msg, "expected ':'")
}

func TestFormatError(t *testing.T) {
	rt := New()
	src := "a = 1\nb = a + c\nd = 2"
	_, err := rt.Evaluate(src)
	require.Error(t, err)

	expected := strings.Join([]string{
		"NameError at 2:9: name 'c' is not defined",
		"   1 | a = 1",
		"   2 | b = a + c",
		"     |         ^",
		"   3 | d = 2",
		"",
	}, "\n")
	assert.Equal(t, expected, FormatError(err, src))

	_, err = rt.Evaluate("x = (1 +", WithModule("broken.jspy"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(FormatError(err, "x = (1 +"), "parse error in broken.jspy at 1:"))

	assert.Equal(t, "plain", FormatError(errors.New("plain"), src))
}

func TestPersistRestore(t *testing.T) {
	s := store.NewMemory()
	rt := New(WithStore(s))
	_, err := rt.Evaluate("count = 41\nname = 'jspy'\ndef f():\n    pass")
	require.NoError(t, err)

	id, err := rt.Persist("session")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	rt2 := New(WithStore(s))
	defer rt2.Close()
	require.NoError(t, rt2.Restore("session"))
	result, err := rt2.Evaluate("name + str(count + 1)")
	require.NoError(t, err)
	assert.Equal(t, "jspy42", result)

	assert.ErrorIs(t, rt2.Restore("missing"), ErrNoSnapshot)

	bare := New()
	_, err = bare.Persist("session")
	assert.ErrorIs(t, err, ErrNoStore)
	assert.ErrorIs(t, bare.Restore("session"), ErrNoStore)
}

func TestParse(t *testing.T) {
	rt := New()
	src := "def f(a, b = 1):\n    if a > b:\n        return a\n    return b\nx = [f(1), f(3, 2)]"
	prog, err := rt.Parse(src, "")
	require.NoError(t, err)

	again, err := rt.Parse(prog.String(), "")
	require.NoError(t, err)
	assert.Equal(t, prog.String(), again.String())
}

func TestHostFutures(t *testing.T) {
	rt := New()
	defer rt.Close()
	rt.AddFunction("fetch", func(args ...any) (any, error) {
		n := args[0].(float64)
		return rt.Go(func() (any, error) { return n * 2, nil }), nil
	})

	result, err := rt.EvaluateAsync(context.Background(), "fetch(21) + 0")
	require.NoError(t, err)
	assert.Equal(t, 42.0, result)

	result, err = rt.EvaluateAsync(context.Background(), "sleep(1)\n'done'")
	require.NoError(t, err)
	assert.Equal(t, "done", result)

	_, err = rt.Evaluate("fetch(21) + 0")
	var je *Error
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "TypeError", je.Category)
	assert.Contains(t, je.Message, "asynchronous")
}

func TestAsyncFunctions(t *testing.T) {
	rt := New()
	src := "async def f():\n    return 1\nf()"

	_, err := rt.Evaluate(src)
	var je *Error
	require.ErrorAs(t, err, &je)
	assert.Equal(t, "TypeError", je.Category)

	result, err := rt.EvaluateAsync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result)
}

func TestCancellation(t *testing.T) {
	rt := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.EvaluateAsync(ctx, "x = 1")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	rt.AddFunction("stop", func(args ...any) (any, error) {
		cancel()
		return nil, nil
	})
	_, err = rt.EvaluateAsync(ctx, `
i = 0
while true:
    i += 1
    if i == 3:
        stop()
`)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 3.0, rt.LastScope()["i"])
}

func TestSQLiteStoreOption(t *testing.T) {
	rt := New(WithSQLiteStore("/nonexistent/dir/jspy.db"))
	_, err := rt.Evaluate("1")
	assert.Error(t, err)
}

func TestKeep(t *testing.T) {
	rt := New()
	_, err := rt.Evaluate("def inc(n):\n    return n + step\nstep = 2")
	require.NoError(t, err)
	rt.Keep()

	result, err := rt.Evaluate("inc(40)")
	require.NoError(t, err)
	assert.Equal(t, 42.0, result)
	assert.Equal(t, `[1, "a", null]`, Repr([]any{1, "a", nil}))
}
