package lift

import (
	"slices"

	"github.com/roach88/slayout/internal/ir"
)

// splitConstant returns the non-constant operand of a commutative binary
// operation and the constant one.
func (l *lifter) splitConstant(b ir.Binary) (ir.ValueID, ir.ValueID, bool) {
	if _, ok := l.constant(b.Right); ok {
		if _, ok := l.constant(b.Left); !ok {
			return b.Left, b.Right, true
		}
	}
	if _, ok := l.constant(b.Left); ok {
		if _, ok := l.constant(b.Right); !ok {
			return b.Right, b.Left, true
		}
	}
	return 0, 0, false
}

// storageLike reports whether id is a whole storage word: a read, or a
// packed word being rebuilt.
func (l *lifter) storageLike(id ir.ValueID) bool {
	switch l.node(id).(type) {
	case ir.StorageRead, ir.Packed:
		return true
	}
	return false
}

// shiftedRight matches shr(c, x) and div(x, 2^c) and returns (c, x).
func (l *lifter) shiftedRight(b ir.Binary) (uint16, ir.ValueID, bool) {
	switch b.Op {
	case ir.OpShr:
		if c, ok := l.constant(b.Left); ok {
			if shift, ok := smallShift(c); ok {
				return shift, b.Right, true
			}
		}
	case ir.OpDiv:
		if c, ok := l.constant(b.Right); ok {
			if shift, ok := powerOfTwo(c); ok {
				return shift, b.Left, true
			}
		}
	}
	return 0, 0, false
}

// subWord recognises bit-field extraction.
func (l *lifter) subWord(b ir.Binary) (ir.SubWord, bool) {
	if shift, x, ok := l.shiftedRight(b); ok {
		if _, isRead := l.node(x).(ir.StorageRead); isRead {
			return ir.SubWord{Value: x, Offset: shift, Size: 256 - shift}, true
		}
		return ir.SubWord{}, false
	}
	if b.Op != ir.OpAnd {
		return ir.SubWord{}, false
	}

	x, m, ok := l.splitConstant(b)
	if !ok {
		return ir.SubWord{}, false
	}
	mask, _ := l.constant(m)
	n, ok := lowMask(mask)
	if !ok {
		return ir.SubWord{}, false
	}

	switch inner := l.node(x).(type) {
	case ir.SubWord:
		return ir.SubWord{Value: inner.Value, Offset: inner.Offset, Size: min(n, inner.Size)}, true
	case ir.Binary:
		if shift, y, ok := l.shiftedRight(inner); ok && int(shift)+int(n) <= 256 {
			return ir.SubWord{Value: y, Offset: shift, Size: n}, true
		}
	}
	return ir.SubWord{Value: x, Offset: 0, Size: n}, true
}

// placement matches a value positioned inside a word:
// shl(c, v), mul(v, 2^c), or and(v, 2^n-1) already lifted to a sub-word
// at offset zero. A masked value narrows the field.
func (l *lifter) placement(id ir.ValueID) (ir.PackedPart, bool) {
	var (
		offset uint16
		value  ir.ValueID
	)
	switch v := l.node(id).(type) {
	case ir.SubWord:
		if v.Offset != 0 || l.storageLike(v.Value) {
			return ir.PackedPart{}, false
		}
		return ir.PackedPart{Offset: 0, Size: v.Size, Value: v.Value}, true
	case ir.Binary:
		switch v.Op {
		case ir.OpShl:
			c, ok := l.constant(v.Left)
			if !ok {
				return ir.PackedPart{}, false
			}
			if offset, ok = smallShift(c); !ok {
				return ir.PackedPart{}, false
			}
			value = v.Right
		case ir.OpMul:
			x, m, ok := l.splitConstant(v)
			if !ok {
				return ir.PackedPart{}, false
			}
			c, _ := l.constant(m)
			if offset, ok = powerOfTwo(c); !ok {
				return ir.PackedPart{}, false
			}
			value = x
		default:
			return ir.PackedPart{}, false
		}
	default:
		return ir.PackedPart{}, false
	}

	size := 256 - offset
	if sw, ok := l.node(value).(ir.SubWord); ok && sw.Offset == 0 && sw.Size <= size {
		value, size = sw.Value, sw.Size
	}
	return ir.PackedPart{Offset: offset, Size: size, Value: value}, true
}

// base matches the old storage word with some fields cleared:
// and(word, clear), or a sub-word at offset zero of the word when the
// cleared field is the topmost one. It returns the word.
func (l *lifter) base(id ir.ValueID) (ir.ValueID, bool) {
	switch v := l.node(id).(type) {
	case ir.SubWord:
		if v.Offset == 0 && l.storageLike(v.Value) {
			return v.Value, true
		}
	case ir.Binary:
		if v.Op != ir.OpAnd {
			return 0, false
		}
		x, _, ok := l.splitConstant(v)
		if ok && l.storageLike(x) {
			return x, true
		}
	}
	return 0, false
}

// packed recognises or-chains that assemble a storage word from fields.
// It needs either a base word or at least two placed fields, and the
// fields must not overlap. A base that is itself being rebuilt contributes
// its parts and its own base.
func (l *lifter) packed(b ir.Binary) (ir.Packed, bool) {
	if b.Op != ir.OpOr {
		return ir.Packed{}, false
	}

	var (
		out     ir.Packed
		hasBase bool
	)
	inner := func(pk ir.Packed) {
		out.Parts = append(out.Parts, pk.Parts...)
		if pk.HasBase {
			out.Base, out.HasBase = pk.Base, true
		}
	}
	for _, side := range []ir.ValueID{b.Left, b.Right} {
		if p, ok := l.placement(side); ok {
			out.Parts = append(out.Parts, p)
			continue
		}
		if word, ok := l.base(side); ok {
			hasBase = true
			if pk, ok := l.node(word).(ir.Packed); ok {
				inner(pk)
			} else {
				out.Base, out.HasBase = word, true
			}
			continue
		}
		if pk, ok := l.node(side).(ir.Packed); ok {
			inner(pk)
			continue
		}
		return ir.Packed{}, false
	}

	parts := out.Parts
	if len(parts) == 0 || (!hasBase && len(parts) < 2) {
		return ir.Packed{}, false
	}
	slices.SortStableFunc(parts, func(a, b ir.PackedPart) int {
		return int(a.Offset) - int(b.Offset)
	})
	for i := 1; i < len(parts); i++ {
		if parts[i-1].Offset+parts[i-1].Size > parts[i].Offset {
			return ir.Packed{}, false
		}
	}
	return out, true
}
