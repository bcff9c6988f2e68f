package ir

import (
	"github.com/holiman/uint256"
)

// The helpers below add nodes with ProvenanceSynthetic (constants use
// ProvenanceConstant) and panic if an operand is not in the arena.
// They exist for hand-built graphs; loaders should use Add.

// Const adds a constant from a machine integer.
func (g *Graph) Const(v uint64) ValueID {
	return g.MustAdd(ProvenanceConstant, Constant{Value: *uint256.NewInt(v)})
}

// Word adds a constant from a 256-bit word.
func (g *Graph) Word(v *uint256.Int) ValueID {
	return g.MustAdd(ProvenanceConstant, Constant{Value: *v})
}

// Input adds an opaque named input.
func (g *Graph) Input(name string) ValueID {
	return g.MustAdd(ProvenanceSynthetic, Unknown{Name: name})
}

// Env adds an environment input.
func (g *Graph) Env(v EnvVar) ValueID {
	return g.MustAdd(ProvenanceSynthetic, Env{Var: v})
}

// CallData adds a call data window.
func (g *Graph) CallData(id int, offset, size ValueID) ValueID {
	return g.MustAdd(ProvenanceSynthetic, CallData{ID: id, Offset: offset, Size: size})
}

// SLoad adds a storage read.
func (g *Graph) SLoad(key ValueID) ValueID {
	return g.MustAdd(ProvenanceSynthetic, StorageRead{Key: key})
}

// SStore adds a storage write and marks it as a root.
func (g *Graph) SStore(key, value ValueID) ValueID {
	id := g.MustAdd(ProvenanceSynthetic, StorageWrite{Key: key, Value: value})
	if err := g.MarkRoot(id); err != nil {
		panic(err)
	}
	return id
}

// Un adds a unary operation.
func (g *Graph) Un(op UnaryOp, x ValueID) ValueID {
	return g.MustAdd(ProvenanceSynthetic, Unary{Op: op, Operand: x})
}

// Bin adds a binary operation.
func (g *Graph) Bin(op BinaryOp, left, right ValueID) ValueID {
	return g.MustAdd(ProvenanceSynthetic, Binary{Op: op, Left: left, Right: right})
}

// Keccak adds sha3 over concat(values...), or over the single value.
func (g *Graph) Keccak(values ...ValueID) ValueID {
	data := values[0]
	if len(values) > 1 {
		data = g.MustAdd(ProvenanceSynthetic, Concat{Values: values})
	}
	return g.MustAdd(ProvenanceSynthetic, Sha3{Data: data})
}

// Mapping adds a lifted mapping index.
func (g *Graph) Mapping(key, slot ValueID) ValueID {
	return g.MustAdd(ProvenanceSynthetic, MappingIndex{Key: key, Slot: slot})
}

// Sub adds a lifted sub-word extraction.
func (g *Graph) Sub(value ValueID, offset, size uint16) ValueID {
	return g.MustAdd(ProvenanceSynthetic, SubWord{Value: value, Offset: offset, Size: size})
}

// Pack adds a lifted packed word.
func (g *Graph) Pack(parts ...PackedPart) ValueID {
	return g.MustAdd(ProvenanceSynthetic, Packed{Parts: parts})
}
