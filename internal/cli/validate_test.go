package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidate_Document tests a well-formed graph document.
func TestValidate_Document(t *testing.T) {
	path := writeFile(t, t.TempDir(), "deposit.json", depositDocument)

	stdout, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid (6 values, 1 roots, 5 bytes of code)")
}

// TestValidate_ProgramJSON tests JSON output for a program.
func TestValidate_ProgramJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "deposit.slx", depositProgram)

	stdout, _, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Roots)
	assert.Zero(t, resp.Data.BytecodeSize)
}

// TestValidate_Cycle tests that cyclic documents fail validation.
func TestValidate_Cycle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cycle.json", `{
  "nodes": [
    {"id": 1, "kind": "binary", "op": "add", "operands": [2, 3]},
    {"id": 2, "kind": "binary", "op": "mul", "operands": [1, 3]},
    {"id": 3, "kind": "env", "var": "caller"}
  ],
  "roots": [1]
}`)

	stdout, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [CYCLE]")
}

// TestValidate_MissingFile tests the command error.
func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
