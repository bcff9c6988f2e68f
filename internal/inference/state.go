package inference

import (
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// TypeVar is the identity under which a value's constraints are recorded.
type TypeVar int

// State is the mutable store threaded through every rule invocation.
//
// State is owned by exactly one analysis run and is not safe for concurrent
// use.
type State struct {
	graph *ir.Graph

	vars   map[string]TypeVar // structural key -> type variable
	values []ir.ValueID       // type variable -> value

	inferences [][]lattice.TE // ordered, duplicate-free
	reduced    []lattice.TE   // running fold of inferences
	added      int
}

// NewState creates an empty state over g.
func NewState(g *ir.Graph) *State {
	return &State{
		graph: g,
		vars:  make(map[string]TypeVar),
	}
}

// Graph returns the graph whose values this state types.
func (s *State) Graph() *ir.Graph { return s.graph }

// Register returns the TypeVar for id, allocating one the first time a
// structurally identical value is seen.
func (s *State) Register(id ir.ValueID) (TypeVar, error) {
	key := s.graph.Key(id)
	if key == "" {
		return 0, &UnregisteredValueError{Value: id}
	}
	if tv, ok := s.vars[key]; ok {
		return tv, nil
	}
	tv := TypeVar(len(s.values))
	s.vars[key] = tv
	s.values = append(s.values, id)
	s.inferences = append(s.inferences, nil)
	s.reduced = append(s.reduced, lattice.Any())
	return tv, nil
}

// RegisterMany registers each id in order.
func (s *State) RegisterMany(ids ...ir.ValueID) ([]TypeVar, error) {
	tvs := make([]TypeVar, len(ids))
	for i, id := range ids {
		tv, err := s.Register(id)
		if err != nil {
			return nil, err
		}
		tvs[i] = tv
	}
	return tvs, nil
}

// RegisterGraph registers every node of the graph in arena order, so each
// value is registered after its operands.
func (s *State) RegisterGraph() error {
	for _, n := range s.graph.Nodes() {
		if _, err := s.Register(n.ID); err != nil {
			return err
		}
	}
	return nil
}

// TypeVarOf looks up the TypeVar of an already registered value.
func (s *State) TypeVarOf(id ir.ValueID) (TypeVar, error) {
	key := s.graph.Key(id)
	if key == "" {
		return 0, &UnregisteredValueError{Value: id}
	}
	tv, ok := s.vars[key]
	if !ok {
		return 0, &UnregisteredValueError{Value: id, InGraph: true}
	}
	return tv, nil
}

// Value returns the node registered under tv.
func (s *State) Value(tv TypeVar) (ir.Node, bool) {
	if tv < 0 || int(tv) >= len(s.values) {
		return ir.Node{}, false
	}
	return s.graph.Node(s.values[tv])
}

// TypeVars returns every TypeVar in registration order.
func (s *State) TypeVars() []TypeVar {
	tvs := make([]TypeVar, len(s.values))
	for i := range tvs {
		tvs[i] = TypeVar(i)
	}
	return tvs
}

// Len returns the number of registered values.
func (s *State) Len() int { return len(s.values) }

// Added returns the number of constraints ever added. It only grows.
func (s *State) Added() int { return s.added }

// Infer asserts te about id. Asserting Any, or a constraint already in the
// set, is a no-op.
func (s *State) Infer(id ir.ValueID, te lattice.TE) error {
	tv, err := s.TypeVarOf(id)
	if err != nil {
		return err
	}
	s.add(tv, te)
	return nil
}

// InferMany asserts te about each id.
func (s *State) InferMany(ids []ir.ValueID, te lattice.TE) error {
	for _, id := range ids {
		if err := s.Infer(id, te); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) add(tv TypeVar, te lattice.TE) {
	if te.IsAny() {
		return
	}
	for _, existing := range s.inferences[tv] {
		if existing.Equal(te) {
			return
		}
	}
	s.inferences[tv] = append(s.inferences[tv], te)
	s.reduced[tv] = lattice.Merge(s.reduced[tv], te)
	s.added++
}

// Inferences returns a copy of the constraint set of tv in insertion order.
func (s *State) Inferences(tv TypeVar) []lattice.TE {
	if tv < 0 || int(tv) >= len(s.inferences) {
		return nil
	}
	return append([]lattice.TE(nil), s.inferences[tv]...)
}

// InferencesOf is Inferences keyed by value.
func (s *State) InferencesOf(id ir.ValueID) ([]lattice.TE, error) {
	tv, err := s.TypeVarOf(id)
	if err != nil {
		return nil, err
	}
	return s.Inferences(tv), nil
}

// TypeOf returns the merge of every constraint asserted about id so far.
func (s *State) TypeOf(id ir.ValueID) (lattice.TE, error) {
	tv, err := s.TypeVarOf(id)
	if err != nil {
		return lattice.Any(), err
	}
	return s.reduced[tv], nil
}
