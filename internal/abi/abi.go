// Package abi defines the Solidity-facing types reported for storage slots
// and the one-to-one mapping from reduced type expressions onto them.
package abi

import (
	"strconv"
	"strings"

	"github.com/roach88/slayout/internal/lattice"
)

// Kind discriminates AbiType.
type Kind string

const (
	KindAny      Kind = "any"
	KindUInt     Kind = "uint"
	KindInt      Kind = "int"
	KindNumber   Kind = "number"
	KindBool     Kind = "bool"
	KindAddress  Kind = "address"
	KindBytes    Kind = "bytes"
	KindMapping  Kind = "mapping"
	KindConflict Kind = "conflict"
)

// AbiType is the best-known type of a storage fragment.
//
// Size is set for uint, int and number; Length for bytes; KeyType and
// ValueType for mapping; Candidates for conflict. A nil Size or Length
// means the width was never observed.
type AbiType struct {
	Kind       Kind      `json:"kind"`
	Size       *int      `json:"size,omitempty"`
	Length     *int      `json:"length,omitempty"`
	KeyType    *AbiType  `json:"key_type,omitempty"`
	ValueType  *AbiType  `json:"value_type,omitempty"`
	Candidates []AbiType `json:"candidates,omitempty"`
}

// Sized returns a pointer to n for use as Size or Length.
func Sized(n int) *int { return &n }

func Any() AbiType { return AbiType{Kind: KindAny} }
func UInt(size *int) AbiType { return AbiType{Kind: KindUInt, Size: size} }
func Int(size *int) AbiType { return AbiType{Kind: KindInt, Size: size} }
func Number(size *int) AbiType { return AbiType{Kind: KindNumber, Size: size} }
func Bool() AbiType { return AbiType{Kind: KindBool} }
func Address() AbiType { return AbiType{Kind: KindAddress} }
func Bytes(length *int) AbiType { return AbiType{Kind: KindBytes, Length: length} }
func Conflicted(c ...AbiType) AbiType { return AbiType{Kind: KindConflict, Candidates: c} }

// Mapping is mapping(key => value).
func Mapping(key, value AbiType) AbiType {
	return AbiType{Kind: KindMapping, KeyType: &key, ValueType: &value}
}

// FromTE converts a reduced type expression. The conversion is total and
// preserves every candidate of a conflict, in lattice order.
func FromTE(te lattice.TE) AbiType {
	switch te.Form() {
	case lattice.FormAny:
		return Any()
	case lattice.FormConflict:
		cands := te.Candidates()
		out := make([]AbiType, len(cands))
		for i, c := range cands {
			out[i] = FromTE(c)
		}
		return Conflicted(out...)
	case lattice.FormWord:
		size := optional(te.Width())
		switch te.Signedness() {
		case lattice.SignUnsigned:
			return UInt(size)
		case lattice.SignSigned:
			return Int(size)
		default:
			return Number(size)
		}
	case lattice.FormBool:
		return Bool()
	case lattice.FormAddress:
		return Address()
	case lattice.FormBytes:
		return Bytes(optional(te.Length()))
	default:
		key, value, _ := te.KeyValue()
		return Mapping(FromTE(key), FromTE(value))
	}
}

func optional(n int) *int {
	if n == lattice.UnknownWidth {
		return nil
	}
	return Sized(n)
}

// IsConflict reports whether the type carries contradictory evidence.
func (t AbiType) IsConflict() bool { return t.Kind == KindConflict }

// String renders the type in Solidity notation. Number prints as
// "number<N>", unknown widths are omitted and conflicts list candidates.
func (t AbiType) String() string {
	switch t.Kind {
	case KindUInt, KindInt, KindNumber:
		return string(t.Kind) + width(t.Size)
	case KindBytes:
		return "bytes" + width(t.Length)
	case KindMapping:
		return "mapping(" + deref(t.KeyType).String() + " => " + deref(t.ValueType).String() + ")"
	case KindConflict:
		parts := make([]string, len(t.Candidates))
		for i, c := range t.Candidates {
			parts[i] = c.String()
		}
		return "conflict(" + strings.Join(parts, " | ") + ")"
	case "":
		return string(KindAny)
	default:
		return string(t.Kind)
	}
}

func width(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func deref(t *AbiType) AbiType {
	if t == nil {
		return Any()
	}
	return *t
}
