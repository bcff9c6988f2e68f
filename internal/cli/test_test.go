package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: deposit
description: "balances[msg.sender] = msg.value"
program: |
  sstore(keccak256(caller, 2), callvalue)
assertions:
  - type: slot_type
    index: "0x2"
    expect: "mapping(address => uint256)"
`

const failingScenario = `
name: wrong_type
description: "asserts the wrong value type"
program: |
  sstore(keccak256(caller, 2), callvalue)
assertions:
  - type: slot_type
    index: "0x2"
    expect: "mapping(address => bool)"
`

// TestTest_AllPass tests a directory of passing scenarios.
func TestTest_AllPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "deposit.yaml", passingScenario)

	stdout, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS deposit")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

// TestTest_Failure tests exit code 1 and the failure report.
func TestTest_Failure(t *testing.T) {
	dir := t.TempDir()
	pass := writeFile(t, dir, "a.yaml", passingScenario)
	fail := writeFile(t, dir, "b.yaml", failingScenario)

	stdout, _, err := execute(t, "test", pass, fail)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "FAIL wrong_type")
	assert.Contains(t, stdout, "Expected: slot 0x2 offset 0: mapping(address => bool)")
}

// TestTest_FilterJSON tests name filtering with JSON output.
func TestTest_FilterJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", passingScenario)
	writeFile(t, dir, "b.yaml", failingScenario)

	stdout, _, err := execute(t, "--format", "json", "test", "--filter", "dep*", dir)
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "deposit", resp.Data.Scenarios[0].Name)
}

// TestTest_RecordsRuns tests --db.
func TestTest_RecordsRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "deposit.yaml", passingScenario)
	db := filepath.Join(dir, "runs.db")

	_, _, err := execute(t, "test", "--db", db, dir)
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deposit")
}

// TestTest_MalformedScenario tests that bad scenario files are command errors.
func TestTest_MalformedScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: x\n")

	_, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
