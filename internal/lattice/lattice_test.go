package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// corpus covers every form, both known and unknown widths, and nested mappings.
func corpus() []TE {
	return []TE{
		Any(),
		UnsignedWord(UnknownWidth),
		UnsignedWord(8),
		UnsignedWord(256),
		SignedWord(UnknownWidth),
		SignedWord(128),
		Word(UnknownWidth),
		Word(112),
		Bool(),
		Address(),
		Bytes(UnknownWidth),
		Bytes(32),
		Mapping(Address(), UnsignedWord(256)),
		Mapping(Address(), Bool()),
		Mapping(UnsignedWord(UnknownWidth), Mapping(Address(), UnsignedWord(256))),
		Conflict(Address(), Bool()),
		Conflict(UnsignedWord(8), UnsignedWord(16)),
		Conflict(UnsignedWord(8), SignedWord(256)),
		Conflict(Word(112), UnsignedWord(UnknownWidth)),
	}
}

// TestMerge_Commutative tests merge(a, b) = merge(b, a) over the corpus.
func TestMerge_Commutative(t *testing.T) {
	for _, a := range corpus() {
		for _, b := range corpus() {
			assert.True(t, Merge(a, b).Equal(Merge(b, a)), "%s ⊔ %s", a, b)
		}
	}
}

// TestMerge_Associative tests merge(merge(a, b), c) = merge(a, merge(b, c)).
func TestMerge_Associative(t *testing.T) {
	for _, a := range corpus() {
		for _, b := range corpus() {
			for _, c := range corpus() {
				left := Merge(Merge(a, b), c)
				right := Merge(a, Merge(b, c))
				assert.True(t, left.Equal(right), "(%s ⊔ %s) ⊔ %s", a, b, c)
			}
		}
	}
}

// TestMerge_IdempotentWithAnyIdentity tests x ⊔ x = x and Any ⊔ x = x.
func TestMerge_IdempotentWithAnyIdentity(t *testing.T) {
	for _, x := range corpus() {
		assert.True(t, Merge(x, x).Equal(x), "%s", x)
		assert.True(t, Merge(Any(), x).Equal(x), "%s", x)
		assert.True(t, Merge(x, Any()).Equal(x), "%s", x)
	}
}

// TestMerge_WidthRefinement tests that an unknown width yields to a known one.
func TestMerge_WidthRefinement(t *testing.T) {
	got := Merge(UnsignedWord(UnknownWidth), UnsignedWord(256))
	assert.Equal(t, UnsignedWord(256), got)
	assert.Equal(t, FormWord, got.Form())

	got = Merge(Word(UnknownWidth), SignedWord(64))
	assert.Equal(t, SignedWord(64), got)
}

// TestMerge_DistinctWidthsConflict tests that two concrete widths conflict.
func TestMerge_DistinctWidthsConflict(t *testing.T) {
	got := Merge(UnsignedWord(8), UnsignedWord(16))
	assert.True(t, got.IsConflict())
	assert.Equal(t, []TE{UnsignedWord(8), UnsignedWord(16)}, got.Candidates())
	assert.Equal(t, "conflict(uint8 | uint16)", got.String())
}

// TestMerge_ConflictKeepsObservedWords tests that a word conflict lists the
// facts that were asserted and never a sign paired with another fact's width.
func TestMerge_ConflictKeepsObservedWords(t *testing.T) {
	got := Merge(UnsignedWord(8), SignedWord(256))
	assert.Equal(t, []TE{UnsignedWord(8), SignedWord(256)}, got.Candidates())
	assert.Equal(t, "conflict(uint8 | int256)", got.String())

	got = Merge(UnsignedWord(UnknownWidth), SignedWord(8))
	assert.Equal(t, []TE{UnsignedWord(UnknownWidth), SignedWord(8)}, got.Candidates())

	got = Merge(Word(112), UnsignedWord(8))
	assert.Equal(t, []TE{Word(112), UnsignedWord(8)}, got.Candidates())

	got = Fold([]TE{Word(UnknownWidth), SignedWord(8), UnsignedWord(UnknownWidth)})
	assert.Equal(t, "conflict(uint | int8)", got.String())
}

// TestMerge_MostSpecificWordWins tests that a fact drops out when another
// fact knows everything it knows.
func TestMerge_MostSpecificWordWins(t *testing.T) {
	assert.Equal(t, UnsignedWord(112), Merge(Word(112), UnsignedWord(112)))
	assert.Equal(t, SignedWord(8), Fold([]TE{Word(UnknownWidth), SignedWord(UnknownWidth), SignedWord(8)}))

	split := Merge(UnsignedWord(UnknownWidth), Word(112))
	assert.True(t, split.IsConflict(), "sign and width seen separately are not combined")
	assert.Equal(t, 112, split.NumberWidth())
	assert.Equal(t, UnsignedWord(112), Merge(split, UnsignedWord(112)))
}

// TestNumberWidth tests the width shared by facts of unknown sign.
func TestNumberWidth(t *testing.T) {
	assert.Equal(t, 32, Word(32).NumberWidth())
	assert.Equal(t, UnknownWidth, UnsignedWord(32).NumberWidth())
	assert.Equal(t, UnknownWidth, Merge(Word(32), Word(64)).NumberWidth())
	assert.Equal(t, UnknownWidth, Bool().NumberWidth())
}

// TestMerge_DistinctFormsConflict tests address vs bool.
func TestMerge_DistinctFormsConflict(t *testing.T) {
	got := Merge(Address(), Bool())
	assert.Equal(t, FormConflict, got.Form())
	assert.Equal(t, []TE{Bool(), Address()}, got.Candidates())
}

// TestMerge_ConflictAccumulates tests that conflicts keep every candidate.
func TestMerge_ConflictAccumulates(t *testing.T) {
	c := Conflict(Address(), Bool())
	assert.True(t, Merge(c, Any()).Equal(c))

	grown := Merge(c, Bytes(32))
	assert.Equal(t, []TE{Bool(), Address(), Bytes(32)}, grown.Candidates())
}

// TestMerge_MappingStructural tests that mapping branches merge independently
// and a conflict in one branch stays there.
func TestMerge_MappingStructural(t *testing.T) {
	a := Mapping(Address(), UnsignedWord(UnknownWidth))
	b := Mapping(Any(), UnsignedWord(256))
	assert.Equal(t, Mapping(Address(), UnsignedWord(256)), Merge(a, b))

	c := Merge(Mapping(Address(), Bool()), Mapping(Address(), Address()))
	assert.Equal(t, FormMapping, c.Form(), "conflict must stay inside the value branch")
	key, value, ok := c.KeyValue()
	assert.True(t, ok)
	assert.Equal(t, Address(), key)
	assert.True(t, value.IsConflict())
	assert.Equal(t, "mapping(address => conflict(bool | address))", c.String())
}

// TestRefines tests the specificity order used for monotonicity.
func TestRefines(t *testing.T) {
	assert.True(t, Refines(UnsignedWord(256), UnsignedWord(UnknownWidth)))
	assert.True(t, Refines(UnsignedWord(256), Any()))
	assert.False(t, Refines(UnsignedWord(UnknownWidth), UnsignedWord(256)))
	assert.True(t, Refines(Conflict(Address(), Bool()), Address()))

	for _, a := range corpus() {
		for _, b := range corpus() {
			assert.True(t, Refines(Merge(a, b), a), "merge must refine its inputs")
		}
	}
}

// TestString tests rendering of definite forms.
func TestString(t *testing.T) {
	cases := map[string]TE{
		"any":     Any(),
		"uint256": UnsignedWord(256),
		"uint":    UnsignedWord(UnknownWidth),
		"int8":    SignedWord(8),
		"word112": Word(112),
		"word":    Word(UnknownWidth),
		"bool":    Bool(),
		"address": Address(),
		"bytes32": Bytes(32),
		"bytes":   Bytes(UnknownWidth),
		"mapping(address => mapping(address => uint256))": Mapping(Address(), Mapping(Address(), UnsignedWord(256))),
	}
	for want, te := range cases {
		assert.Equal(t, want, te.String())
	}
}

// TestFold tests left-to-right folding from Any.
func TestFold(t *testing.T) {
	assert.Equal(t, Any(), Fold(nil))
	assert.Equal(t, UnsignedWord(256), Fold([]TE{Word(UnknownWidth), UnsignedWord(UnknownWidth), UnsignedWord(256)}))
}
