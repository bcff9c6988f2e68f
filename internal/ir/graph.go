package ir

import (
	"fmt"
)

// Node is one entry of the arena.
type Node struct {
	ID         ValueID
	Provenance Provenance
	Data       Data
}

// Kind is shorthand for n.Data.Kind().
func (n Node) Kind() Kind { return n.Data.Kind() }

// Graph is an append-only arena of hash-consed nodes.
//
// Graph is not safe for concurrent mutation.
type Graph struct {
	nodes  []Node
	keys   []string
	index  map[string]ValueID
	roots  []ValueID
	isRoot map[ValueID]bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:  make(map[string]ValueID),
		isRoot: make(map[ValueID]bool),
	}
}

// OperandError reports a node that references a handle outside the arena.
type OperandError struct {
	Kind    Kind
	Operand ValueID
	Len     int
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("%s node references operand %d, arena holds %d nodes", e.Kind, e.Operand, e.Len)
}

// Add inserts a node and returns its handle. If a structurally identical
// node already exists its handle is returned and p is ignored.
// Every operand must already be in the arena.
func (g *Graph) Add(p Provenance, d Data) (ValueID, error) {
	if d == nil {
		return 0, fmt.Errorf("Add: nil data")
	}
	for _, op := range d.Operands() {
		if !g.Has(op) {
			return 0, &OperandError{Kind: d.Kind(), Operand: op, Len: len(g.nodes)}
		}
	}
	if p == 0 {
		p = ProvenanceSynthetic
	}

	key, err := StructuralKey(d)
	if err != nil {
		return 0, fmt.Errorf("Add: %w", err)
	}
	if id, ok := g.index[key]; ok {
		return id, nil
	}

	id := ValueID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Provenance: p, Data: d})
	g.keys = append(g.keys, key)
	g.index[key] = id
	return id, nil
}

// MustAdd is like Add but panics on error.
// Use only in tests or when operands are known to be valid.
func (g *Graph) MustAdd(p Provenance, d Data) ValueID {
	id, err := g.Add(p, d)
	if err != nil {
		panic(err)
	}
	return id
}

// Has reports whether id is a handle of this arena.
func (g *Graph) Has(id ValueID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node for id.
func (g *Graph) Node(id ValueID) (Node, bool) {
	if !g.Has(id) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// MustNode is like Node but panics when id is not in the arena.
func (g *Graph) MustNode(id ValueID) Node {
	n, ok := g.Node(id)
	if !ok {
		panic(fmt.Sprintf("ir: value %d not in graph", id))
	}
	return n
}

// Key returns the structural key of id, or "" if id is not in the arena.
func (g *Graph) Key(id ValueID) string {
	if !g.Has(id) {
		return ""
	}
	return g.keys[id]
}

// Lookup finds the handle of data already in the arena.
func (g *Graph) Lookup(d Data) (ValueID, bool) {
	key, err := StructuralKey(d)
	if err != nil {
		return 0, false
	}
	id, ok := g.index[key]
	return id, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns every node in insertion order. Operands always precede their
// users in this order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// MarkRoot records id as an observable effect or result of execution.
// Marking a root twice is a no-op.
func (g *Graph) MarkRoot(id ValueID) error {
	if !g.Has(id) {
		return &OperandError{Kind: KindInvalid, Operand: id, Len: len(g.nodes)}
	}
	if !g.isRoot[id] {
		g.isRoot[id] = true
		g.roots = append(g.roots, id)
	}
	return nil
}

// Roots returns root handles in the order they were marked.
// A graph with no marked roots treats every node without users as a root.
func (g *Graph) Roots() []ValueID {
	if len(g.roots) > 0 {
		return append([]ValueID(nil), g.roots...)
	}
	used := make([]bool, len(g.nodes))
	for _, n := range g.nodes {
		for _, op := range n.Data.Operands() {
			used[op] = true
		}
	}
	roots := []ValueID{}
	for i, u := range used {
		if !u {
			roots = append(roots, ValueID(i))
		}
	}
	return roots
}

// Users maps each handle to the nodes that use it as an operand, in
// insertion order without duplicates.
func (g *Graph) Users() map[ValueID][]ValueID {
	users := make(map[ValueID][]ValueID)
	for _, n := range g.nodes {
		seen := make(map[ValueID]bool)
		for _, op := range n.Data.Operands() {
			if seen[op] {
				continue
			}
			seen[op] = true
			users[op] = append(users[op], n.ID)
		}
	}
	return users
}

// Constant returns the word held by id if it is a constant node.
func (g *Graph) Constant(id ValueID) (Constant, bool) {
	n, ok := g.Node(id)
	if !ok {
		return Constant{}, false
	}
	c, ok := n.Data.(Constant)
	return c, ok
}
