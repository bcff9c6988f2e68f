package ir

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Kind is the discriminant of a node's data variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindConstant
	KindUnknown
	KindEnv
	KindCallData
	KindCodeCopy
	KindReturnData
	KindStorageRead
	KindStorageWrite
	KindUnary
	KindBinary
	KindSha3
	KindConcat
	KindCall
	KindMappingIndex
	KindSubWord
	KindPacked
)

var kindNames = map[Kind]string{
	KindConstant:     "constant",
	KindUnknown:      "unknown",
	KindEnv:          "env",
	KindCallData:     "call_data",
	KindCodeCopy:     "code_copy",
	KindReturnData:   "return_data",
	KindStorageRead:  "sload",
	KindStorageWrite: "sstore",
	KindUnary:        "unary",
	KindBinary:       "binary",
	KindSha3:         "sha3",
	KindConcat:       "concat",
	KindCall:         "call",
	KindMappingIndex: "mapping_index",
	KindSubWord:      "sub_word",
	KindPacked:       "packed",
}

// String returns the snake_case name used in graph documents.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown node kind %q", s)
}

// Provenance records where a value came from.
type Provenance uint8

const (
	// ProvenanceConstant marks a literal taken from the bytecode.
	ProvenanceConstant Provenance = iota + 1

	// ProvenanceSynthetic marks a value synthesised during analysis.
	ProvenanceSynthetic
)

// String returns "constant" or "synthetic".
func (p Provenance) String() string {
	switch p {
	case ProvenanceConstant:
		return "constant"
	case ProvenanceSynthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("provenance(%d)", uint8(p))
	}
}

// ParseProvenance is the inverse of Provenance.String. The empty string
// parses as ProvenanceSynthetic.
func ParseProvenance(s string) (Provenance, error) {
	switch s {
	case "constant":
		return ProvenanceConstant, nil
	case "synthetic", "":
		return ProvenanceSynthetic, nil
	default:
		return 0, fmt.Errorf("unknown provenance %q", s)
	}
}

// opName renders an opcode the way graph documents and the expression
// language spell it.
func opName(op vm.OpCode) string {
	return strings.ToLower(op.String())
}

// lookupOp resolves a lower-case opcode name against the EVM opcode table.
// KECCAK256 is also accepted under its historical name sha3.
func lookupOp(name string) (vm.OpCode, bool) {
	upper := strings.ToUpper(name)
	if upper == "SHA3" {
		return vm.KECCAK256, true
	}
	op := vm.StringToOp(upper)
	if op == 0 && upper != "STOP" {
		return 0, false
	}
	return op, true
}

// EnvVar is an execution environment input with a fixed meaning.
type EnvVar vm.OpCode

const (
	EnvCaller       = EnvVar(vm.CALLER)
	EnvOrigin       = EnvVar(vm.ORIGIN)
	EnvAddress      = EnvVar(vm.ADDRESS)
	EnvCoinbase     = EnvVar(vm.COINBASE)
	EnvCallValue    = EnvVar(vm.CALLVALUE)
	EnvTimestamp    = EnvVar(vm.TIMESTAMP)
	EnvNumber       = EnvVar(vm.NUMBER)
	EnvChainID      = EnvVar(vm.CHAINID)
	EnvGas          = EnvVar(vm.GAS)
	EnvGasPrice     = EnvVar(vm.GASPRICE)
	EnvBaseFee      = EnvVar(vm.BASEFEE)
	EnvSelfBalance  = EnvVar(vm.SELFBALANCE)
	EnvCallDataSize = EnvVar(vm.CALLDATASIZE)
)

var envVars = []EnvVar{
	EnvCaller, EnvOrigin, EnvAddress, EnvCoinbase, EnvCallValue, EnvTimestamp,
	EnvNumber, EnvChainID, EnvGas, EnvGasPrice, EnvBaseFee, EnvSelfBalance,
	EnvCallDataSize,
}

// EnvVars lists every supported environment input.
func EnvVars() []EnvVar {
	return append([]EnvVar(nil), envVars...)
}

// IsAddress reports whether the input always holds an account address.
func (e EnvVar) IsAddress() bool {
	switch e {
	case EnvCaller, EnvOrigin, EnvAddress, EnvCoinbase:
		return true
	}
	return false
}

func (e EnvVar) String() string { return opName(vm.OpCode(e)) }

// ParseEnvVar resolves an environment input by its opcode name.
func ParseEnvVar(s string) (EnvVar, error) {
	op, ok := lookupOp(s)
	if ok {
		for _, e := range envVars {
			if EnvVar(op) == e {
				return e, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown environment input %q", s)
}

// UnaryOp is a single-operand EVM operator.
type UnaryOp vm.OpCode

const (
	OpIsZero = UnaryOp(vm.ISZERO)
	OpNot    = UnaryOp(vm.NOT)
)

func (op UnaryOp) String() string { return opName(vm.OpCode(op)) }

// ParseUnaryOp resolves a unary operator by its opcode name.
func ParseUnaryOp(s string) (UnaryOp, error) {
	op, ok := lookupOp(s)
	if ok && (UnaryOp(op) == OpIsZero || UnaryOp(op) == OpNot) {
		return UnaryOp(op), nil
	}
	return 0, fmt.Errorf("unknown unary operator %q", s)
}

// BinaryOp is a two-operand EVM operator. Left is the operand on top of the
// stack, so shl(shift, value) has Left = shift.
type BinaryOp vm.OpCode

const (
	OpAdd        = BinaryOp(vm.ADD)
	OpSub        = BinaryOp(vm.SUB)
	OpMul        = BinaryOp(vm.MUL)
	OpDiv        = BinaryOp(vm.DIV)
	OpSDiv       = BinaryOp(vm.SDIV)
	OpMod        = BinaryOp(vm.MOD)
	OpSMod       = BinaryOp(vm.SMOD)
	OpExp        = BinaryOp(vm.EXP)
	OpSignExtend = BinaryOp(vm.SIGNEXTEND)
	OpLt         = BinaryOp(vm.LT)
	OpGt         = BinaryOp(vm.GT)
	OpSLt        = BinaryOp(vm.SLT)
	OpSGt        = BinaryOp(vm.SGT)
	OpEq         = BinaryOp(vm.EQ)
	OpAnd        = BinaryOp(vm.AND)
	OpOr         = BinaryOp(vm.OR)
	OpXor        = BinaryOp(vm.XOR)
	OpByte       = BinaryOp(vm.BYTE)
	OpShl        = BinaryOp(vm.SHL)
	OpShr        = BinaryOp(vm.SHR)
	OpSar        = BinaryOp(vm.SAR)
)

var binaryOps = []BinaryOp{
	OpAdd, OpSub, OpMul, OpDiv, OpSDiv, OpMod, OpSMod, OpExp, OpSignExtend,
	OpLt, OpGt, OpSLt, OpSGt, OpEq, OpAnd, OpOr, OpXor, OpByte, OpShl, OpShr,
	OpSar,
}

// BinaryOps lists every supported binary operator.
func BinaryOps() []BinaryOp {
	return append([]BinaryOp(nil), binaryOps...)
}

func (op BinaryOp) String() string { return opName(vm.OpCode(op)) }

// Commutative reports whether operand order is irrelevant.
func (op BinaryOp) Commutative() bool {
	switch op {
	case OpAdd, OpMul, OpEq, OpAnd, OpOr, OpXor:
		return true
	}
	return false
}

// ParseBinaryOp resolves a binary operator by its opcode name.
func ParseBinaryOp(s string) (BinaryOp, error) {
	op, ok := lookupOp(s)
	if ok {
		for _, b := range binaryOps {
			if BinaryOp(op) == b {
				return b, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", s)
}
