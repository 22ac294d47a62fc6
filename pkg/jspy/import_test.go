package jspy

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/jspy/internal/store"
)

func mapLoader(files map[string]string) FileLoader {
	return func(path string) (string, error) {
		src, ok := files[path]
		if !ok {
			return "", fmt.Errorf("%s: %w", path, fs.ErrNotExist)
		}
		return src, nil
	}
}

func TestImports(t *testing.T) {
	files := map[string]string{
		"util.jspy": "def double(x):\n    return x * 2\nfactor = 3\n",
		"data.json": `{"items": [1, 2, 3], "name": "cfg"}`,
		"cfg.yaml":  "level: 2\ntags:\n  - a\n  - b\n",
	}
	modules := map[string]any{
		"mathx": map[string]any{
			"pi": 3,
			"double": func(args ...any) (any, error) {
				return args[0].(float64) * 2, nil
			},
		},
	}

	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"host module", "import mathx\nmathx.double(mathx.pi)", 6.0},
		{"host module alias", "import mathx as m\nm.pi", 3.0},
		{"json", "import \"data.json\" as data\nlen(data.items)", 3.0},
		{"json default name", "import \"data.json\"\ndata.name", "cfg"},
		{"yaml", "import \"cfg.yaml\" as cfg\ncfg.level + len(cfg.tags)", 4.0},
		{"script namespace", "import \"util.jspy\" as u\nu.double(u.factor)", 6.0},
		{"from import", "from \"util.jspy\" import double, factor as f\ndouble(f)", 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := New(WithFileLoader(mapLoader(files)), WithModules(modules))
			defer rt.Close()

			result, err := rt.EvaluateAsync(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)

			_, err = rt.Evaluate(tt.input)
			var je *Error
			require.ErrorAs(t, err, &je)
			assert.Equal(t, "ImportError", je.Category)
			assert.Contains(t, je.Message, "requires asynchronous evaluation")
		})
	}
}

func TestImportErrors(t *testing.T) {
	rt := New(WithFileLoader(mapLoader(map[string]string{
		"util.jspy":   "x = 1\n",
		"broken.jspy": "x = (\n",
		"raises.jspy": "raise ValueError(\"nope\")\n",
	})))
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		category string
		message  string
	}{
		{"missing file", "import \"missing.jspy\" as m", "ImportError", "cannot import \"missing.jspy\""},
		{"missing name", "from \"util.jspy\" import y", "ImportError", "cannot import name 'y' from \"util.jspy\""},
		{"no module loader", "import http", "ImportError", "no module named \"http\""},
		{"parse error in module", "import \"broken.jspy\" as b", "ImportError", "parse error at broken.jspy:"},
		{"error raised by module", "import \"raises.jspy\" as r", "ValueError", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.EvaluateAsync(ctx, tt.input)
			var je *Error
			require.ErrorAs(t, err, &je)
			assert.Equal(t, tt.category, je.Category)
			assert.Contains(t, je.Message, tt.message)
		})
	}
}

func TestImportCycle(t *testing.T) {
	rt := New(WithFileLoader(mapLoader(map[string]string{
		"a.jspy": "import \"b.jspy\" as b\n",
		"b.jspy": "import \"a.jspy\" as a\n",
	})))

	_, err := rt.EvaluateFile(context.Background(), "a.jspy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle detected: a.jspy -> b.jspy -> a.jspy")
}

func TestImportCache(t *testing.T) {
	loads := 0
	rt := New(WithModuleLoader(func(path string) (any, error) {
		loads++
		return map[string]any{"path": path}, nil
	}))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := rt.EvaluateAsync(ctx, "import svc\nsvc.path")
		require.NoError(t, err)
		assert.Equal(t, "svc", result)
	}
	assert.Equal(t, 1, loads)
}

func TestImportSearchPathsAndStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.jspy"), []byte("value = 'disk'\n"), 0644))

	s := store.NewMemory()
	require.NoError(t, s.PutScript("stored.jspy", "value = 'store'\n"))

	rt := New(WithSearchPaths(dir), WithStore(s))
	defer rt.Close()

	result, err := rt.EvaluateAsync(context.Background(),
		"from \"disk.jspy\" import value as a\nfrom \"stored.jspy\" import value as b\na + \",\" + b")
	require.NoError(t, err)
	assert.Equal(t, "disk,store", result)
}

func TestEvaluateFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.jspy"), []byte("from \"lib.jspy\" import greet\ngreet('jspy')\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.jspy"), []byte("def greet(name):\n    return 'hello ' + name\n"), 0644))

	rt := New(WithSearchPaths(dir))
	result, err := rt.EvaluateFile(context.Background(), "main.jspy")
	require.NoError(t, err)
	assert.Equal(t, "hello jspy", result)
}
