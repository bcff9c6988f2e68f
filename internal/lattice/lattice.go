// Package lattice implements the type expressions that inference rules
// assert about symbolic values, and the merge that combines them.
//
// A TE records the set of definite facts observed about a value: that it is
// a word with some signedness and bit width, a boolean, an address, a byte
// string of some length, or a mapping with a key and value type. Merge is
// the union of facts, keeping only the most specific word facts, which
// makes it total, commutative, associative and idempotent. A TE whose facts
// describe more than one definite type is a conflict; its candidates are
// exactly the facts that were observed.
package lattice

import (
	"slices"
	"strconv"
	"strings"
)

// UnknownWidth is the width or length of a TE that has not been pinned
// down. No EVM type has width zero.
const UnknownWidth = 0

// Signedness of a word.
type Signedness uint8

const (
	SignUnknown Signedness = iota
	SignUnsigned
	SignSigned
)

// Form is the shape of a TE after merging.
type Form uint8

const (
	FormAny Form = iota
	FormWord
	FormBool
	FormAddress
	FormBytes
	FormMapping
	FormConflict
)

var formNames = [...]string{"any", "word", "bool", "address", "bytes", "mapping", "conflict"}

func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return "form(" + strconv.Itoa(int(f)) + ")"
}

// TE is an immutable type expression. The zero value is Any.
type TE struct {
	words   []wordFact
	boolean bool
	address bool
	bytes   bool
	lengths []int
	mapping *mappingFacts
}

// wordFact is one observed word type. Either part may be unknown.
type wordFact struct {
	sign  Signedness
	width int
}

// covers reports whether f is strictly more specific than g: every known
// part of g is known in f with the same value.
func (f wordFact) covers(g wordFact) bool {
	if f == g {
		return false
	}
	return (g.sign == SignUnknown || g.sign == f.sign) &&
		(g.width == UnknownWidth || g.width == f.width)
}

func compareFacts(a, b wordFact) int {
	if a.sign != b.sign {
		return int(a.sign) - int(b.sign)
	}
	return a.width - b.width
}

type mappingFacts struct {
	key   TE
	value TE
}

// Any carries no information.
func Any() TE { return TE{} }

// Word is a numeric word whose signedness is unknown. width may be
// UnknownWidth.
func Word(width int) TE {
	return TE{words: []wordFact{{SignUnknown, width}}}
}

// UnsignedWord is an unsigned integer of the given width.
func UnsignedWord(width int) TE {
	return TE{words: []wordFact{{SignUnsigned, width}}}
}

// SignedWord is a two's complement integer of the given width.
func SignedWord(width int) TE {
	return TE{words: []wordFact{{SignSigned, width}}}
}

// Bool is a boolean.
func Bool() TE { return TE{boolean: true} }

// Address is a 160-bit account address.
func Address() TE { return TE{address: true} }

// Bytes is a byte string. length may be UnknownWidth.
func Bytes(length int) TE {
	return TE{bytes: true, lengths: widthSet(length)}
}

// Mapping is a mapping from key to value.
func Mapping(key, value TE) TE {
	return TE{mapping: &mappingFacts{key: key, value: value}}
}

// Conflict is the merge of every candidate.
func Conflict(candidates ...TE) TE {
	return Fold(candidates)
}

func widthSet(w int) []int {
	if w == UnknownWidth {
		return nil
	}
	return []int{w}
}

// Merge combines two type expressions. It never fails: contradictory facts
// produce a conflict.
func Merge(a, b TE) TE {
	out := TE{
		words:   mostSpecific(a.words, b.words),
		boolean: a.boolean || b.boolean,
		address: a.address || b.address,
		bytes:   a.bytes || b.bytes,
		lengths: union(a.lengths, b.lengths),
	}
	switch {
	case a.mapping == nil:
		out.mapping = b.mapping
	case b.mapping == nil:
		out.mapping = a.mapping
	default:
		out.mapping = &mappingFacts{
			key:   Merge(a.mapping.key, b.mapping.key),
			value: Merge(a.mapping.value, b.mapping.value),
		}
	}
	return out
}

// Fold merges a sequence left to right, starting from Any.
func Fold(tes []TE) TE {
	out := Any()
	for _, te := range tes {
		out = Merge(out, te)
	}
	return out
}

// mostSpecific returns the union of a and b without the facts that another
// fact of the union covers, sorted by sign then width.
func mostSpecific(a, b []wordFact) []wordFact {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	all := make([]wordFact, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	slices.SortFunc(all, compareFacts)
	all = slices.Compact(all)

	var out []wordFact
	for _, f := range all {
		if !slices.ContainsFunc(all, func(g wordFact) bool { return g.covers(f) }) {
			out = append(out, f)
		}
	}
	return out
}

// union returns the sorted set union, or nil when both are empty.
func union(a, b []int) []int {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Equal reports structural equality.
func (t TE) Equal(o TE) bool {
	if t.boolean != o.boolean || t.address != o.address || t.bytes != o.bytes {
		return false
	}
	if !slices.Equal(t.words, o.words) || !slices.Equal(t.lengths, o.lengths) {
		return false
	}
	if (t.mapping == nil) != (o.mapping == nil) {
		return false
	}
	if t.mapping == nil {
		return true
	}
	return t.mapping.key.Equal(o.mapping.key) && t.mapping.value.Equal(o.mapping.value)
}

// Refines reports whether t carries every fact of o, i.e. t is at least as
// specific as o.
func Refines(t, o TE) bool {
	return Merge(t, o).Equal(t)
}

// IsAny reports whether t carries no facts.
func (t TE) IsAny() bool {
	return len(t.words) == 0 && !t.boolean && !t.address && !t.bytes && t.mapping == nil
}

// kinds counts the distinct definite forms present.
func (t TE) kinds() int {
	n := 0
	for _, present := range []bool{len(t.words) > 0, t.boolean, t.address, t.bytes, t.mapping != nil} {
		if present {
			n++
		}
	}
	return n
}

// IsConflict reports whether the facts admit more than one definite type.
func (t TE) IsConflict() bool {
	if t.kinds() > 1 {
		return true
	}
	return len(t.words) > 1 || len(t.lengths) > 1
}

// Form returns the shape of t.
func (t TE) Form() Form {
	switch {
	case t.IsAny():
		return FormAny
	case t.IsConflict():
		return FormConflict
	case len(t.words) > 0:
		return FormWord
	case t.boolean:
		return FormBool
	case t.address:
		return FormAddress
	case t.bytes:
		return FormBytes
	default:
		return FormMapping
	}
}

// Signedness returns the sign of a word form.
func (t TE) Signedness() Signedness {
	if len(t.words) == 1 {
		return t.words[0].sign
	}
	return SignUnknown
}

// Width returns the bit width of a word form, or UnknownWidth.
func (t TE) Width() int {
	if len(t.words) == 1 {
		return t.words[0].width
	}
	return UnknownWidth
}

// NumberWidth returns the width of t when its word facts of unknown sign
// agree on a single known width, or UnknownWidth.
func (t TE) NumberWidth() int {
	width := UnknownWidth
	for _, f := range t.words {
		if f.sign != SignUnknown || f.width == UnknownWidth {
			continue
		}
		if width != UnknownWidth && width != f.width {
			return UnknownWidth
		}
		width = f.width
	}
	return width
}

// Length returns the byte length of a bytes form, or UnknownWidth.
func (t TE) Length() int {
	if len(t.lengths) == 1 {
		return t.lengths[0]
	}
	return UnknownWidth
}

// KeyValue returns the key and value of a mapping form.
func (t TE) KeyValue() (key, value TE, ok bool) {
	if t.mapping == nil {
		return Any(), Any(), false
	}
	return t.mapping.key, t.mapping.value, true
}

// Candidates lists the definite types admitted by t, in the order word,
// bool, address, bytes, mapping. Words list each most specific observed
// fact, sign unknown first. Any has no candidates; a definite form has
// exactly one.
func (t TE) Candidates() []TE {
	var out []TE
	for _, f := range t.words {
		out = append(out, TE{words: []wordFact{f}})
	}
	if t.boolean {
		out = append(out, Bool())
	}
	if t.address {
		out = append(out, Address())
	}
	if t.bytes {
		lengths := t.lengths
		if len(lengths) == 0 {
			lengths = []int{UnknownWidth}
		}
		for _, l := range lengths {
			out = append(out, Bytes(l))
		}
	}
	if t.mapping != nil {
		out = append(out, TE{mapping: t.mapping})
	}
	return out
}

// String renders t in a Solidity-like notation. Words of unknown sign print
// as "word"; unknown widths are omitted.
func (t TE) String() string {
	switch t.Form() {
	case FormAny:
		return "any"
	case FormConflict:
		cands := t.Candidates()
		parts := make([]string, len(cands))
		for i, c := range cands {
			parts[i] = c.String()
		}
		return "conflict(" + strings.Join(parts, " | ") + ")"
	case FormWord:
		name := "word"
		switch t.Signedness() {
		case SignUnsigned:
			name = "uint"
		case SignSigned:
			name = "int"
		}
		if w := t.Width(); w != UnknownWidth {
			name += strconv.Itoa(w)
		}
		return name
	case FormBool:
		return "bool"
	case FormAddress:
		return "address"
	case FormBytes:
		if l := t.Length(); l != UnknownWidth {
			return "bytes" + strconv.Itoa(l)
		}
		return "bytes"
	default:
		return "mapping(" + t.mapping.key.String() + " => " + t.mapping.value.String() + ")"
	}
}
