package steps

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/playq/internal/vars"
)

func TestExecute_UnknownNamespace(t *testing.T) {
	executor := NewExecutor(nil, vars.NewStore(arbor.NewLogger()), arbor.NewLogger())

	err := executor.Execute(context.Background(), "Mail: Send -value: x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step namespace "Mail"`)
}

func TestExecute_UnknownAction(t *testing.T) {
	executor := NewExecutor(nil, vars.NewStore(arbor.NewLogger()), arbor.NewLogger())

	err := executor.Execute(context.Background(), "Var: Explode -field: x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "Explode"`)
}

func TestExecute_VarSet(t *testing.T) {
	store := vars.NewStore(arbor.NewLogger(), vars.WithStaticFile(filepath.Join(t.TempDir(), "var.static.json")))
	store.Init(nil, map[string]string{"source.key": "copied"})
	executor := NewExecutor(nil, store, arbor.NewLogger())

	err := executor.Execute(context.Background(), "Var: Set -field: var.static.target -value: #{source.key}")
	require.NoError(t, err)

	// Substitution applies to the value before storing.
	assert.Equal(t, "copied", store.GetValue("var.static.target", false))
}
