package ir

import (
	"github.com/holiman/uint256"
)

// ValueID is the arena handle of a node. It is stable for the lifetime of
// the Graph that issued it.
type ValueID int

// Data is a sealed interface over node variants.
// Only the types in this file implement it.
type Data interface {
	// Kind returns the variant discriminant.
	Kind() Kind

	// Operands returns the handles this node depends on, in a fixed order.
	Operands() []ValueID

	data() // sealed
}

// Constant is a concrete 256-bit word.
type Constant struct {
	Value uint256.Int
}

// Unknown is an opaque input the symbolic executor could not describe.
type Unknown struct {
	Name string
}

// Env is an execution environment input such as CALLER.
type Env struct {
	Var EnvVar
}

// CallData is a window of call data for call frame ID.
type CallData struct {
	ID     int
	Offset ValueID
	Size   ValueID
}

// CodeCopy is a window of the contract's own code.
type CodeCopy struct {
	Offset ValueID
	Size   ValueID
}

// ReturnData is a window of the last external call's return data.
type ReturnData struct {
	Offset ValueID
	Size   ValueID
}

// StorageRead is SLOAD(Key).
type StorageRead struct {
	Key ValueID
}

// StorageWrite is SSTORE(Key, Value).
type StorageWrite struct {
	Key   ValueID
	Value ValueID
}

// Unary applies a one-operand operator.
type Unary struct {
	Op      UnaryOp
	Operand ValueID
}

// Binary applies a two-operand operator in EVM stack order.
type Binary struct {
	Op    BinaryOp
	Left  ValueID
	Right ValueID
}

// Sha3 hashes the memory region described by Data.
type Sha3 struct {
	Data ValueID
}

// Concat is a contiguous memory region built from 32-byte words.
type Concat struct {
	Values []ValueID
}

// Call is the success flag of an external CALL.
type Call struct {
	Gas    ValueID
	Target ValueID
	Value  ValueID
}

// MappingIndex is the slot keccak256(Key . Slot) of a mapping entry.
type MappingIndex struct {
	Key  ValueID
	Slot ValueID
}

// SubWord is the bit range [Offset, Offset+Size) of Value.
type SubWord struct {
	Value  ValueID
	Offset uint16
	Size   uint16
}

// PackedPart places Value in bits [Offset, Offset+Size) of a packed word.
type PackedPart struct {
	Offset uint16
	Size   uint16
	Value  ValueID
}

// Packed is a storage word assembled from independently typed parts.
// When HasBase is set the word is rebuilt from Base, the old word with the
// parts' bits cleared. Base is not a typed part: bits outside the parts are
// carried over, not observed.
type Packed struct {
	Parts   []PackedPart
	Base    ValueID
	HasBase bool
}

func (Constant) Kind() Kind     { return KindConstant }
func (Unknown) Kind() Kind      { return KindUnknown }
func (Env) Kind() Kind          { return KindEnv }
func (CallData) Kind() Kind     { return KindCallData }
func (CodeCopy) Kind() Kind     { return KindCodeCopy }
func (ReturnData) Kind() Kind   { return KindReturnData }
func (StorageRead) Kind() Kind  { return KindStorageRead }
func (StorageWrite) Kind() Kind { return KindStorageWrite }
func (Unary) Kind() Kind        { return KindUnary }
func (Binary) Kind() Kind       { return KindBinary }
func (Sha3) Kind() Kind         { return KindSha3 }
func (Concat) Kind() Kind       { return KindConcat }
func (Call) Kind() Kind         { return KindCall }
func (MappingIndex) Kind() Kind { return KindMappingIndex }
func (SubWord) Kind() Kind      { return KindSubWord }
func (Packed) Kind() Kind       { return KindPacked }

func (Constant) Operands() []ValueID       { return nil }
func (Unknown) Operands() []ValueID        { return nil }
func (Env) Operands() []ValueID            { return nil }
func (d CallData) Operands() []ValueID     { return []ValueID{d.Offset, d.Size} }
func (d CodeCopy) Operands() []ValueID     { return []ValueID{d.Offset, d.Size} }
func (d ReturnData) Operands() []ValueID   { return []ValueID{d.Offset, d.Size} }
func (d StorageRead) Operands() []ValueID  { return []ValueID{d.Key} }
func (d StorageWrite) Operands() []ValueID { return []ValueID{d.Key, d.Value} }
func (d Unary) Operands() []ValueID        { return []ValueID{d.Operand} }
func (d Binary) Operands() []ValueID       { return []ValueID{d.Left, d.Right} }
func (d Sha3) Operands() []ValueID         { return []ValueID{d.Data} }
func (d Concat) Operands() []ValueID       { return append([]ValueID(nil), d.Values...) }
func (d Call) Operands() []ValueID         { return []ValueID{d.Gas, d.Target, d.Value} }
func (d MappingIndex) Operands() []ValueID { return []ValueID{d.Key, d.Slot} }
func (d SubWord) Operands() []ValueID      { return []ValueID{d.Value} }

func (d Packed) Operands() []ValueID {
	ids := make([]ValueID, len(d.Parts), len(d.Parts)+1)
	for i, p := range d.Parts {
		ids[i] = p.Value
	}
	if d.HasBase {
		ids = append(ids, d.Base)
	}
	return ids
}

func (Constant) data()     {}
func (Unknown) data()      {}
func (Env) data()          {}
func (CallData) data()     {}
func (CodeCopy) data()     {}
func (ReturnData) data()   {}
func (StorageRead) data()  {}
func (StorageWrite) data() {}
func (Unary) data()        {}
func (Binary) data()       {}
func (Sha3) data()         {}
func (Concat) data()       {}
func (Call) data()         {}
func (MappingIndex) data() {}
func (SubWord) data()      {}
func (Packed) data()       {}

// MapOperands returns a copy of d with every operand replaced by f(operand).
// Leaves are returned unchanged.
func MapOperands(d Data, f func(ValueID) ValueID) Data {
	switch v := d.(type) {
	case CallData:
		v.Offset, v.Size = f(v.Offset), f(v.Size)
		return v
	case CodeCopy:
		v.Offset, v.Size = f(v.Offset), f(v.Size)
		return v
	case ReturnData:
		v.Offset, v.Size = f(v.Offset), f(v.Size)
		return v
	case StorageRead:
		v.Key = f(v.Key)
		return v
	case StorageWrite:
		v.Key, v.Value = f(v.Key), f(v.Value)
		return v
	case Unary:
		v.Operand = f(v.Operand)
		return v
	case Binary:
		v.Left, v.Right = f(v.Left), f(v.Right)
		return v
	case Sha3:
		v.Data = f(v.Data)
		return v
	case Concat:
		values := make([]ValueID, len(v.Values))
		for i, id := range v.Values {
			values[i] = f(id)
		}
		return Concat{Values: values}
	case Call:
		v.Gas, v.Target, v.Value = f(v.Gas), f(v.Target), f(v.Value)
		return v
	case MappingIndex:
		v.Key, v.Slot = f(v.Key), f(v.Slot)
		return v
	case SubWord:
		v.Value = f(v.Value)
		return v
	case Packed:
		parts := make([]PackedPart, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = PackedPart{Offset: p.Offset, Size: p.Size, Value: f(p.Value)}
		}
		v.Parts = parts
		if v.HasBase {
			v.Base = f(v.Base)
		}
		return v
	default:
		return d
	}
}
