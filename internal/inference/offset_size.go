package inference

import (
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// OffsetSizeRule types the window of memory-sourced data:
//
//	  call_data(id, offset, size)
//	  code_copy(    offset, size)
//	return_data(    offset, size)
//
// offset and size are unsigned words; the window itself gains nothing.
type OffsetSizeRule struct{}

func (OffsetSizeRule) Name() string { return "offset-size" }

func (OffsetSizeRule) Infer(node ir.Node, s *State) error {
	switch d := node.Data.(type) {
	case ir.CallData:
		return assertAll(s, lattice.UnsignedWord(lattice.UnknownWidth), d.Offset, d.Size)
	case ir.CodeCopy:
		return assertAll(s, lattice.UnsignedWord(lattice.UnknownWidth), d.Offset, d.Size)
	case ir.ReturnData:
		return assertAll(s, lattice.UnsignedWord(lattice.UnknownWidth), d.Offset, d.Size)
	}
	return nil
}

// EnvironmentRule types environment inputs whose meaning is fixed by the
// EVM: account inputs are addresses, everything else is a 256-bit unsigned
// word.
type EnvironmentRule struct{}

func (EnvironmentRule) Name() string { return "environment" }

func (EnvironmentRule) Infer(node ir.Node, s *State) error {
	env, ok := node.Data.(ir.Env)
	if !ok {
		return nil
	}
	if env.Var.IsAddress() {
		return s.Infer(node.ID, lattice.Address())
	}
	return s.Infer(node.ID, lattice.UnsignedWord(256))
}
