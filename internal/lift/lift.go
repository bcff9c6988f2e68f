// Package lift rewrites raw EVM-shaped expressions into the higher-level
// shapes that inference rules and the layout builder recognise.
//
// Lifting runs bottom-up, so every rewrite sees operands that are already
// lifted:
//
//	sha3(concat(k, s))                 -> MappingIndex{k, s}
//	and(x, 2^n-1)                      -> SubWord{x, 0, n}
//	and(shr(c, x), 2^n-1)              -> SubWord{x, c, n}
//	shr(c, sload(k)), div(sload, 2^c)  -> SubWord{sload, c, 256-c}
//	or(and(sload, clear), shl(c, v))   -> Packed{{c, size, v}}, base sload
//
// Operators over constants are folded with EVM semantics, and keccak256 of
// constant memory is folded with go-ethereum's Keccak256. After rewriting,
// only nodes reachable from the roots are kept, so patterns consumed by a
// rewrite do not linger as unused values.
package lift

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/roach88/slayout/internal/ir"
)

// Stats counts the rewrites of one Lift.
type Stats struct {
	Folded   int `json:"folded"`
	Mappings int `json:"mappings"`
	SubWords int `json:"sub_words"`
	Packed   int `json:"packed"`
	Dropped  int `json:"dropped"`
}

type lifter struct {
	src   *ir.Graph
	dst   *ir.Graph
	memo  map[ir.ValueID]ir.ValueID
	stats Stats
}

// Lift returns a new graph with every root of g lifted. g is not modified.
func Lift(g *ir.Graph) (*ir.Graph, Stats, error) {
	l := &lifter{
		src:  g,
		dst:  ir.NewGraph(),
		memo: make(map[ir.ValueID]ir.ValueID),
	}

	roots := g.Roots()
	lifted := make([]ir.ValueID, 0, len(roots))
	for _, r := range roots {
		id, err := l.lift(r)
		if err != nil {
			return nil, l.stats, err
		}
		lifted = append(lifted, id)
	}

	out, err := sweep(l.dst, lifted)
	if err != nil {
		return nil, l.stats, err
	}
	l.stats.Dropped = l.dst.Len() - out.Len()
	return out, l.stats, nil
}

func (l *lifter) lift(id ir.ValueID) (ir.ValueID, error) {
	if out, ok := l.memo[id]; ok {
		return out, nil
	}
	n, ok := l.src.Node(id)
	if !ok {
		return 0, &ir.OperandError{Kind: ir.KindInvalid, Operand: id, Len: l.src.Len()}
	}

	var liftErr error
	data := ir.MapOperands(n.Data, func(op ir.ValueID) ir.ValueID {
		if liftErr != nil {
			return 0
		}
		out, err := l.lift(op)
		if err != nil {
			liftErr = err
		}
		return out
	})
	if liftErr != nil {
		return 0, liftErr
	}

	out, err := l.rewrite(n.Provenance, data)
	if err != nil {
		return 0, fmt.Errorf("lift value %d (%s): %w", id, n.Kind(), err)
	}
	l.memo[id] = out
	return out, nil
}

// rewrite adds d to the destination graph, replacing it with a lifted shape
// when one matches. Operands of d already refer to the destination graph.
func (l *lifter) rewrite(p ir.Provenance, d ir.Data) (ir.ValueID, error) {
	switch v := d.(type) {
	case ir.Unary:
		if x, ok := l.constant(v.Operand); ok {
			return l.folded(foldUnary(v.Op, x))
		}
	case ir.Binary:
		x, xok := l.constant(v.Left)
		y, yok := l.constant(v.Right)
		if xok && yok {
			return l.folded(foldBinary(v.Op, x, y))
		}
		if sw, ok := l.subWord(v); ok {
			l.stats.SubWords++
			return l.dst.Add(ir.ProvenanceSynthetic, sw)
		}
		if pk, ok := l.packed(v); ok {
			l.stats.Packed++
			return l.dst.Add(ir.ProvenanceSynthetic, pk)
		}
	case ir.Sha3:
		if cat, ok := l.node(v.Data).(ir.Concat); ok && len(cat.Values) == 2 {
			l.stats.Mappings++
			return l.dst.Add(ir.ProvenanceSynthetic, ir.MappingIndex{Key: cat.Values[0], Slot: cat.Values[1]})
		}
		if mem, ok := l.constantMemory(v.Data); ok {
			var digest uint256.Int
			digest.SetBytes(crypto.Keccak256(mem))
			return l.folded(&digest)
		}
	}
	return l.dst.Add(p, d)
}

func (l *lifter) folded(v *uint256.Int) (ir.ValueID, error) {
	l.stats.Folded++
	return l.dst.Add(ir.ProvenanceSynthetic, ir.Constant{Value: *v})
}

func (l *lifter) node(id ir.ValueID) ir.Data {
	n, ok := l.dst.Node(id)
	if !ok {
		return nil
	}
	return n.Data
}

func (l *lifter) constant(id ir.ValueID) (*uint256.Int, bool) {
	c, ok := l.dst.Constant(id)
	if !ok {
		return nil, false
	}
	return &c.Value, true
}

// constantMemory returns the bytes of a memory region made only of
// constant words.
func (l *lifter) constantMemory(id ir.ValueID) ([]byte, bool) {
	var words []ir.ValueID
	switch v := l.node(id).(type) {
	case ir.Constant:
		words = []ir.ValueID{id}
	case ir.Concat:
		words = v.Values
	default:
		return nil, false
	}
	mem := make([]byte, 0, 32*len(words))
	for _, w := range words {
		c, ok := l.constant(w)
		if !ok {
			return nil, false
		}
		b := c.Bytes32()
		mem = append(mem, b[:]...)
	}
	return mem, true
}

// sweep copies the nodes of g reachable from roots into a fresh graph,
// preserving arena order, and marks the roots.
func sweep(g *ir.Graph, roots []ir.ValueID) (*ir.Graph, error) {
	reachable := make([]bool, g.Len())
	stack := append([]ir.ValueID(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, g.MustNode(id).Data.Operands()...)
	}

	out := ir.NewGraph()
	remap := make(map[ir.ValueID]ir.ValueID)
	for _, n := range g.Nodes() {
		if !reachable[n.ID] {
			continue
		}
		id, err := out.Add(n.Provenance, ir.MapOperands(n.Data, func(op ir.ValueID) ir.ValueID {
			return remap[op]
		}))
		if err != nil {
			return nil, err
		}
		remap[n.ID] = id
	}
	for _, r := range roots {
		if err := out.MarkRoot(remap[r]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
