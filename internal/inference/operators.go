package inference

import (
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// ArithmeticRule: add, sub and mul behave identically on signed and
// unsigned words, so operands and result are only known to be numeric.
type ArithmeticRule struct{}

func (ArithmeticRule) Name() string { return "arithmetic" }

func (ArithmeticRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok {
		return nil
	}
	switch b.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		return assertAll(s, lattice.Word(lattice.UnknownWidth), b.Left, b.Right, node.ID)
	}
	return nil
}

// UnsignedArithmeticRule: div, mod and exp interpret their operands as
// unsigned.
type UnsignedArithmeticRule struct{}

func (UnsignedArithmeticRule) Name() string { return "unsigned-arithmetic" }

func (UnsignedArithmeticRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok {
		return nil
	}
	switch b.Op {
	case ir.OpDiv, ir.OpMod, ir.OpExp:
		return assertSign(s, lattice.SignUnsigned, b.Left, b.Right, node.ID)
	}
	return nil
}

// SignedArithmeticRule: sdiv and smod interpret their operands as two's
// complement. signextend(b, x) produces a signed integer of 8(b+1) bits
// when b is constant.
type SignedArithmeticRule struct{}

func (SignedArithmeticRule) Name() string { return "signed-arithmetic" }

func (SignedArithmeticRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok {
		return nil
	}
	switch b.Op {
	case ir.OpSDiv, ir.OpSMod:
		return assertSign(s, lattice.SignSigned, b.Left, b.Right, node.ID)
	case ir.OpSignExtend:
		width := lattice.UnknownWidth
		if c, ok := s.graph.Constant(b.Left); ok && c.Value.IsUint64() && c.Value.Uint64() <= 31 {
			width = 8 * (int(c.Value.Uint64()) + 1)
		}
		if err := assertSign(s, lattice.SignUnsigned, b.Left); err != nil {
			return err
		}
		return assertAll(s, lattice.SignedWord(width), node.ID)
	}
	return nil
}

// ComparisonRule: every comparison yields a bool. lt and gt compare
// unsigned words, slt and sgt signed ones; eq says nothing about operands.
type ComparisonRule struct{}

func (ComparisonRule) Name() string { return "comparison" }

func (ComparisonRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok {
		return nil
	}
	var err error
	switch b.Op {
	case ir.OpLt, ir.OpGt:
		err = assertSign(s, lattice.SignUnsigned, b.Left, b.Right)
	case ir.OpSLt, ir.OpSGt:
		err = assertSign(s, lattice.SignSigned, b.Left, b.Right)
	case ir.OpEq:
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return assertAll(s, lattice.Bool(), node.ID)
}

// BooleanRule: iszero yields a bool.
type BooleanRule struct{}

func (BooleanRule) Name() string { return "boolean" }

func (BooleanRule) Infer(node ir.Node, s *State) error {
	if u, ok := node.Data.(ir.Unary); ok && u.Op == ir.OpIsZero {
		return assertAll(s, lattice.Bool(), node.ID)
	}
	return nil
}

// ShiftRule: shift amounts are unsigned; sar shifts a signed value.
type ShiftRule struct{}

func (ShiftRule) Name() string { return "shift" }

func (ShiftRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok {
		return nil
	}
	switch b.Op {
	case ir.OpShl, ir.OpShr:
		return assertSign(s, lattice.SignUnsigned, b.Left)
	case ir.OpSar:
		if err := assertSign(s, lattice.SignUnsigned, b.Left); err != nil {
			return err
		}
		return assertSign(s, lattice.SignSigned, b.Right, node.ID)
	}
	return nil
}

// ByteRule: byte(i, x) indexes into x as a byte string and yields a uint8.
type ByteRule struct{}

func (ByteRule) Name() string { return "byte" }

func (ByteRule) Infer(node ir.Node, s *State) error {
	b, ok := node.Data.(ir.Binary)
	if !ok || b.Op != ir.OpByte {
		return nil
	}
	if err := assertSign(s, lattice.SignUnsigned, b.Left); err != nil {
		return err
	}
	if err := assertAll(s, lattice.Bytes(lattice.UnknownWidth), b.Right); err != nil {
		return err
	}
	return assertAll(s, lattice.UnsignedWord(8), node.ID)
}

// HashRule: an unlifted keccak256 is a bytes32 digest.
type HashRule struct{}

func (HashRule) Name() string { return "hash" }

func (HashRule) Infer(node ir.Node, s *State) error {
	if _, ok := node.Data.(ir.Sha3); ok {
		return assertAll(s, lattice.Bytes(32), node.ID)
	}
	return nil
}

// CallRule: call(gas, target, value) sends value to an address and yields
// a success flag.
type CallRule struct{}

func (CallRule) Name() string { return "call" }

func (CallRule) Infer(node ir.Node, s *State) error {
	c, ok := node.Data.(ir.Call)
	if !ok {
		return nil
	}
	if err := assertAll(s, lattice.UnsignedWord(256), c.Gas, c.Value); err != nil {
		return err
	}
	if err := assertAll(s, lattice.Address(), c.Target); err != nil {
		return err
	}
	return assertAll(s, lattice.Bool(), node.ID)
}
