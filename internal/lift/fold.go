package lift

import (
	"github.com/holiman/uint256"

	"github.com/roach88/slayout/internal/ir"
)

func boolWord(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}

func foldUnary(op ir.UnaryOp, x *uint256.Int) *uint256.Int {
	switch op {
	case ir.OpIsZero:
		return boolWord(x.IsZero())
	default:
		return new(uint256.Int).Not(x)
	}
}

// foldBinary evaluates op with EVM semantics. Left is the top of the stack,
// so for shifts x is the shift amount and for byte x is the index.
func foldBinary(op ir.BinaryOp, x, y *uint256.Int) *uint256.Int {
	z := new(uint256.Int)
	switch op {
	case ir.OpAdd:
		return z.Add(x, y)
	case ir.OpSub:
		return z.Sub(x, y)
	case ir.OpMul:
		return z.Mul(x, y)
	case ir.OpDiv:
		return z.Div(x, y)
	case ir.OpSDiv:
		return z.SDiv(x, y)
	case ir.OpMod:
		return z.Mod(x, y)
	case ir.OpSMod:
		return z.SMod(x, y)
	case ir.OpExp:
		return z.Exp(x, y)
	case ir.OpSignExtend:
		return z.ExtendSign(y, x)
	case ir.OpLt:
		return boolWord(x.Lt(y))
	case ir.OpGt:
		return boolWord(x.Gt(y))
	case ir.OpSLt:
		return boolWord(x.Slt(y))
	case ir.OpSGt:
		return boolWord(x.Sgt(y))
	case ir.OpEq:
		return boolWord(x.Eq(y))
	case ir.OpAnd:
		return z.And(x, y)
	case ir.OpOr:
		return z.Or(x, y)
	case ir.OpXor:
		return z.Xor(x, y)
	case ir.OpByte:
		return z.Set(y).Byte(x)
	case ir.OpShl:
		if shift, ok := shiftAmount(x); ok {
			return z.Lsh(y, shift)
		}
		return z
	case ir.OpShr:
		if shift, ok := shiftAmount(x); ok {
			return z.Rsh(y, shift)
		}
		return z
	case ir.OpSar:
		if shift, ok := shiftAmount(x); ok {
			return z.SRsh(y, shift)
		}
		if y.Sign() < 0 {
			return z.SetAllOne()
		}
		return z
	}
	return z
}

func shiftAmount(x *uint256.Int) (uint, bool) {
	if !x.LtUint64(256) {
		return 0, false
	}
	return uint(x.Uint64()), true
}

// lowMask reports n when c = 2^n - 1 with 0 < n < 256.
func lowMask(c *uint256.Int) (uint16, bool) {
	if c.IsZero() {
		return 0, false
	}
	n := c.BitLen()
	if n >= 256 {
		return 0, false
	}
	next := new(uint256.Int).AddUint64(c, 1)
	if !new(uint256.Int).And(next, c).IsZero() {
		return 0, false
	}
	return uint16(n), true
}

// powerOfTwo reports k when c = 2^k with 0 < k < 256.
func powerOfTwo(c *uint256.Int) (uint16, bool) {
	if c.IsZero() {
		return 0, false
	}
	k := c.BitLen() - 1
	if k == 0 {
		return 0, false
	}
	minus := new(uint256.Int).SubUint64(c, 1)
	if !new(uint256.Int).And(minus, c).IsZero() {
		return 0, false
	}
	return uint16(k), true
}

// smallShift reports c when 0 < c < 256.
func smallShift(c *uint256.Int) (uint16, bool) {
	if c.IsZero() || !c.LtUint64(256) {
		return 0, false
	}
	return uint16(c.Uint64()), true
}
