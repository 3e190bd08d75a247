package vars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_NestedMapsAndSlices(t *testing.T) {
	tree := map[string]any{
		"browser": map[string]any{
			"headless": true,
			"window":   map[string]any{"width": float64(1920)},
		},
		"tags": []any{"smoke", "login"},
	}

	flat := Flatten(tree, "config")
	assert.Equal(t, "true", flat["config.browser.headless"])
	assert.Equal(t, "1920", flat["config.browser.window.width"])
	assert.Equal(t, "smoke", flat["config.tags.0"])
	assert.Equal(t, "login", flat["config.tags.1"])
}

func TestFlatten_NoPrefix(t *testing.T) {
	flat := Flatten(map[string]any{"a": map[string]any{"b": "c"}}, "")
	assert.Equal(t, "c", flat["a.b"])
}

func TestFlatten_Stringify(t *testing.T) {
	flat := Flatten(map[string]any{
		"f":     1.5,
		"whole": float64(30000),
		"b":     false,
		"n":     nil,
	}, "")
	assert.Equal(t, "1.5", flat["f"])
	// Integral floats flatten without a decimal point.
	assert.Equal(t, "30000", flat["whole"])
	assert.Equal(t, "false", flat["b"])
	assert.Equal(t, "", flat["n"])
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileEntries_JSON(t *testing.T) {
	path := writeTempFile(t, "data.json", `{"login": {"url": "https://x", "retries": 3}}`)

	entries, err := LoadFileEntries(path, "", "loc")
	require.NoError(t, err)
	assert.Equal(t, "https://x", entries["loc.login.url"])
	assert.Equal(t, "3", entries["loc.login.retries"])
}

func TestLoadFileEntries_TOML(t *testing.T) {
	path := writeTempFile(t, "data.toml", "[login]\nurl = \"https://x\"\n")

	entries, err := LoadFileEntries(path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://x", entries["login.url"])
}

func TestLoadFileEntries_NamedExport(t *testing.T) {
	path := writeTempFile(t, "data.json", `{"exported": {"key": "v"}, "other": 1}`)

	entries, err := LoadFileEntries(path, "exported", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": "v"}, entries)

	_, err = LoadFileEntries(path, "absent", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `export "absent" not found`)
}

func TestLoadFileEntries_MissingFileFailsHard(t *testing.T) {
	_, err := LoadFileEntries(filepath.Join(t.TempDir(), "nope.json"), "", "")
	require.Error(t, err)
}

func TestLoadFileEntries_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "data.yaml", "a: 1")
	_, err := LoadFileEntries(path, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}
