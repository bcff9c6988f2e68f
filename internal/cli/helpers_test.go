package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

const depositProgram = `
// balances[msg.sender] = msg.value
sstore(keccak256(caller, 2), callvalue)
`

const depositDocument = `{
  "bytecode": "0x6080604052",
  "nodes": [
    {"id": 1, "kind": "env", "var": "caller"},
    {"id": 2, "kind": "constant", "provenance": "constant", "value": "0x02"},
    {"id": 3, "kind": "concat", "operands": [1, 2]},
    {"id": 4, "kind": "sha3", "operands": [3]},
    {"id": 5, "kind": "env", "var": "callvalue"},
    {"id": 6, "kind": "sstore", "operands": [4, 5]}
  ],
  "roots": [6]
}`

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
