package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project writes files into a temp dir with an empty jspy.toml unless one
// is given, and returns the config path.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if _, ok := files["jspy.toml"]; !ok {
		files["jspy.toml"] = ""
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return filepath.Join(dir, "jspy.toml")
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEvalFlag(t *testing.T) {
	cfg := project(t, map[string]string{})

	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2", "3\n"},
		{"'hi'", "hi\n"},
		{"[1, 'a']", "[1, \"a\"]\n"},
		{"x = null", ""},
		{"print('side effect')", "side effect\n"},
	}
	for _, tt := range tests {
		code, stdout, stderr := runCLI(t, "", "-config", cfg, "-e", tt.input)
		assert.Equal(t, 0, code, stderr)
		assert.Equal(t, tt.expected, stdout, tt.input)
	}
}

func TestFileAndEntry(t *testing.T) {
	cfg := project(t, map[string]string{
		"app.jspy": "def main():\n    return 'from main'\nprint('body ran')\n",
	})
	app := filepath.Join(filepath.Dir(cfg), "app.jspy")

	code, stdout, stderr := runCLI(t, "", "-config", cfg, "-f", app)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "body ran\n", stdout)

	code, stdout, stderr = runCLI(t, "", "-config", cfg, "-f", app, "-entry", "main")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "body ran\nfrom main\n", stdout)
}

func TestConfigEntryAndSearchPaths(t *testing.T) {
	cfg := project(t, map[string]string{
		"jspy.toml":      "[runtime]\nentry = \"app.jspy\"\nsearch_paths = [\"lib\"]\n\n[globals]\nwho = \"config\"\n",
		"app.jspy":       "from \"greet.jspy\" import greet\nprint(greet(who))\n",
		"lib/greet.jspy": "def greet(name):\n    return 'hello ' + name\n",
	})

	code, stdout, stderr := runCLI(t, "", "-config", cfg)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "hello config\n", stdout)
}

func TestPipedInput(t *testing.T) {
	cfg := project(t, map[string]string{})
	code, stdout, stderr := runCLI(t, "for i in range(3):\n    print(i)\n", "-config", cfg)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "0\n1\n2\n", stdout)
}

func TestErrorsAreFormatted(t *testing.T) {
	cfg := project(t, map[string]string{
		"bad.jspy": "x = 1\ny = x + missing\n",
	})

	code, _, stderr := runCLI(t, "", "-config", cfg, "-e", "y")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NameError at 1:1: name 'y' is not defined")
	assert.Contains(t, stderr, "     | ^")

	code, _, stderr = runCLI(t, "", "-config", cfg, "-f", filepath.Join(filepath.Dir(cfg), "bad.jspy"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NameError in bad.jspy at 2:9")

	code, _, _ = runCLI(t, "", "-config", filepath.Join(t.TempDir(), "none.toml"), "-e", "1")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "", "-bogus")
	assert.Equal(t, 2, code)
}

func TestSessionPersistsAcrossRuns(t *testing.T) {
	cfg := project(t, map[string]string{})
	db := filepath.Join(t.TempDir(), "session.db")

	code, _, stderr := runCLI(t, "", "-config", cfg, "-db", db, "-session", "work", "-e", "count = 41")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "", "-config", cfg, "-db", db, "-session", "work", "-e", "count + 1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "42\n", stdout)

	code, _, stderr = runCLI(t, "", "-config", cfg, "-session", "work", "-e", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "needs a store")
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"x = 1", false},
		{"def f():", true},
		{"def f():\n    return 1", true},
		{"def f():\n    return 1\n", false},
		{"x = [1,", true},
		{"x = (1 +", true},
		{"if x", true},
		{"if x\n\n", false},
		{"s = \"\"\"doc", true},
		{"x = )", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, incomplete(tt.src), "%q", tt.src)
	}
}
