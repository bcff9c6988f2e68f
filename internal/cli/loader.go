package cli

import (
	"path/filepath"
	"strings"

	"github.com/roach88/slayout/internal/graphio"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/irtext"
)

// loadGraph reads a graph document (*.json) or compiles a program in the
// textual graph language (any other extension). It returns the graph and
// the contract bytecode, which only documents carry.
func loadGraph(path string) (*ir.Graph, []byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		prog, err := graphio.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		return prog.Graph, prog.Bytecode, nil
	}
	g, err := irtext.CompileFile(path)
	if err != nil {
		return nil, nil, err
	}
	return g, nil, nil
}
