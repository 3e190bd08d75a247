package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "login.toml", `
name = "portal login"
description = "Logs into the portal"
steps = [
  "Web: Navigate -value: https://example.com/login",
  "Web: Fill input -field: #username -value: #{var.static.centre.code}",
]

[variables]
"var.static.centre.code" = "MEL01"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "portal login", scenario.Name)
	assert.Len(t, scenario.Steps, 2)
	assert.Equal(t, "MEL01", scenario.Variables["var.static.centre.code"])
}

func TestLoadScenario_NameDefaultsToFilename(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "smoke-test.toml", `
steps = ["Web: Navigate -value: https://example.com"]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke-test", scenario.Name)
}

func TestLoadScenario_NoStepsIsError(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "empty.toml", `name = "empty"`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps")
}

func TestLoadScenarios_SortedByFilename(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "02-checkout.toml", `steps = ["Web: Navigate -value: https://example.com/cart"]`)
	writeScenario(t, dir, "01-login.toml", `steps = ["Web: Navigate -value: https://example.com/login"]`)
	writeScenario(t, dir, "notes.txt", "ignored")

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "01-login", scenarios[0].Name)
	assert.Equal(t, "02-checkout", scenarios[1].Name)
}

func TestLoadScenarios_EmptyDirIsError(t *testing.T) {
	_, err := LoadScenarios(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
