package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[runtime]
entry = "main.jspy"
entry_function = "main"
search_paths = ["lib", "/opt/jspy"]

[store]
path = "state.db"

[log]
verbosity = 2

[globals]
appName = "demo"
limit = 10
`)

	c, err := Load(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, c.Dir)
	assert.Equal(t, "main", c.Runtime.EntryFunction)
	assert.Equal(t, filepath.Join(abs, "main.jspy"), c.EntryPath())
	assert.Equal(t, []string{filepath.Join(abs, "lib"), "/opt/jspy"}, c.SearchPathDirs())
	assert.Equal(t, filepath.Join(abs, "state.db"), c.StorePath())
	assert.Equal(t, 2, c.Log.Verbosity)
	assert.Equal(t, 4, c.Runtime.TabWidth)
	assert.Equal(t, "demo", c.Globals["appName"])
	assert.Equal(t, int64(10), c.Globals["limit"])
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, c.Runtime.SearchPaths)
	assert.Empty(t, c.StorePath())
	assert.Empty(t, c.EntryPath())
	assert.NotNil(t, c.Globals)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[runtime\nentry = 1", "parse error"},
		{"unknown key", "[runtime]\nentrypoint = \"x\"", "unknown key"},
		{"wrong type", "[log]\nverbosity = \"loud\"", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[runtime]\nentry = \"app.jspy\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	c, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "app.jspy", c.Runtime.Entry)
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ".", c.Dir)
	assert.Equal(t, []string{"."}, c.Runtime.SearchPaths)
	assert.Equal(t, 4, c.Runtime.TabWidth)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\npath = \":memory:\"\n"), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, c.Dir)
	assert.Equal(t, ":memory:", c.StorePath())
}
