// Package unify reduces the constraint set of each value to a single type.
//
// Reduction folds the ordered constraint set with lattice.Merge. Merge is
// commutative and associative, so the result does not depend on the order
// in which rules fired. The reduced expression is then mapped one-to-one
// onto an abi.AbiType.
package unify

import (
	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/inference"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// Unifier resolves the types of values in a finished inference state.
// Results are cached, so the state must not change after the first query.
type Unifier struct {
	state *inference.State
	cache map[inference.TypeVar]lattice.TE
}

// New creates a Unifier over s.
func New(s *inference.State) *Unifier {
	return &Unifier{
		state: s,
		cache: make(map[inference.TypeVar]lattice.TE),
	}
}

// State returns the state being unified.
func (u *Unifier) State() *inference.State { return u.state }

// Reduce folds the constraint set of tv. An empty set reduces to Any.
func (u *Unifier) Reduce(tv inference.TypeVar) lattice.TE {
	if te, ok := u.cache[tv]; ok {
		return te
	}
	te := lattice.Fold(u.state.Inferences(tv))
	u.cache[tv] = te
	return te
}

// ReduceValue is Reduce keyed by value.
func (u *Unifier) ReduceValue(id ir.ValueID) (lattice.TE, error) {
	tv, err := u.state.TypeVarOf(id)
	if err != nil {
		return lattice.Any(), err
	}
	return u.Reduce(tv), nil
}

// Resolve returns the ABI type of tv.
func (u *Unifier) Resolve(tv inference.TypeVar) abi.AbiType {
	return abi.FromTE(u.Reduce(tv))
}

// ResolveValue is Resolve keyed by value.
func (u *Unifier) ResolveValue(id ir.ValueID) (abi.AbiType, error) {
	te, err := u.ReduceValue(id)
	if err != nil {
		return abi.Any(), err
	}
	return abi.FromTE(te), nil
}
