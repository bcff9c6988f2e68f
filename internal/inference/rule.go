package inference

import (
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// Rule inspects one value and asserts type expressions about it and its
// operands. A rule may only add constraints; it fails only when the state
// reports an unregistered value.
//
// Rules read the current reduced type of other values through
// State.TypeOf, so facts flow along the graph over successive passes.
type Rule interface {
	Name() string
	Infer(node ir.Node, state *State) error
}

// DefaultRules returns the rule catalogue in application order.
// Every rule is stateless; the slice is freshly allocated on each call.
func DefaultRules() []Rule {
	return []Rule{
		OffsetSizeRule{},
		EnvironmentRule{},
		ArithmeticRule{},
		UnsignedArithmeticRule{},
		SignedArithmeticRule{},
		ComparisonRule{},
		BooleanRule{},
		ShiftRule{},
		ByteRule{},
		HashRule{},
		CallRule{},
		SubWordRule{},
		PackedRule{},
		StorageWriteRule{},
		StorageReadRule{},
		MappingIndexRule{},
	}
}

// assertAll asserts te about every id that is not a constant. Constants are
// shared by unrelated expressions, so typing them would leak facts between
// uses.
func assertAll(s *State, te lattice.TE, ids ...ir.ValueID) error {
	typed := make([]ir.ValueID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.graph.Constant(id); !ok {
			typed = append(typed, id)
		}
	}
	return s.InferMany(typed, te)
}

// assertSign asserts that each id is a word of the given sign. When the
// facts of unknown sign already known about an id agree on a width, the
// assertion carries that width, so a sign learned from one use and a width
// learned from another combine into one type.
func assertSign(s *State, sign lattice.Signedness, ids ...ir.ValueID) error {
	for _, id := range ids {
		te, err := s.TypeOf(id)
		if err != nil {
			return err
		}
		word := lattice.UnsignedWord(te.NumberWidth())
		if sign == lattice.SignSigned {
			word = lattice.SignedWord(te.NumberWidth())
		}
		if err := assertAll(s, word, id); err != nil {
			return err
		}
	}
	return nil
}

// propagate asserts the current type of from about to.
func propagate(s *State, from, to ir.ValueID) error {
	te, err := s.TypeOf(from)
	if err != nil {
		return err
	}
	return assertAll(s, te, to)
}

// fieldType is the type implied by a bit field of the given width.
// 160-bit fields are addresses.
func fieldType(size uint16) lattice.TE {
	if size == 160 {
		return lattice.Address()
	}
	return lattice.Word(int(size))
}
