package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// registered returns a state with every node of g registered.
func registered(t *testing.T, g *ir.Graph) *State {
	t.Helper()
	s := NewState(g)
	require.NoError(t, s.RegisterGraph())
	return s
}

func inferencesOf(t *testing.T, s *State, id ir.ValueID) []lattice.TE {
	t.Helper()
	tes, err := s.InferencesOf(id)
	require.NoError(t, err)
	return tes
}

func typeOf(t *testing.T, s *State, id ir.ValueID) lattice.TE {
	t.Helper()
	te, err := s.TypeOf(id)
	require.NoError(t, err)
	return te
}

// TestOffsetSizeRule_MemorySources tests offset and size typing for all three sources.
func TestOffsetSizeRule_MemorySources(t *testing.T) {
	build := map[string]func(g *ir.Graph, off, size ir.ValueID) ir.ValueID{
		"call_data": func(g *ir.Graph, off, size ir.ValueID) ir.ValueID {
			return g.CallData(0, off, size)
		},
		"code_copy": func(g *ir.Graph, off, size ir.ValueID) ir.ValueID {
			return g.MustAdd(ir.ProvenanceSynthetic, ir.CodeCopy{Offset: off, Size: size})
		},
		"return_data": func(g *ir.Graph, off, size ir.ValueID) ir.ValueID {
			return g.MustAdd(ir.ProvenanceSynthetic, ir.ReturnData{Offset: off, Size: size})
		},
	}
	for name, mk := range build {
		t.Run(name, func(t *testing.T) {
			g := ir.NewGraph()
			off, size := g.Input("offset"), g.Input("size")
			value := mk(g, off, size)
			s := registered(t, g)

			require.NoError(t, OffsetSizeRule{}.Infer(g.MustNode(value), s))

			assert.Contains(t, inferencesOf(t, s, off), lattice.UnsignedWord(lattice.UnknownWidth))
			assert.Contains(t, inferencesOf(t, s, size), lattice.UnsignedWord(lattice.UnknownWidth))
			assert.Empty(t, inferencesOf(t, s, value))
		})
	}
}

// TestOffsetSizeRule_IgnoresOtherNodes tests that the rule matches only its pattern.
func TestOffsetSizeRule_IgnoresOtherNodes(t *testing.T) {
	g := ir.NewGraph()
	x := g.Input("x")
	read := g.SLoad(x)
	s := registered(t, g)

	require.NoError(t, OffsetSizeRule{}.Infer(g.MustNode(read), s))
	assert.Equal(t, 0, s.Added())
}

// TestEnvironmentRule tests fixed environment types.
func TestEnvironmentRule(t *testing.T) {
	g := ir.NewGraph()
	caller := g.Env(ir.EnvCaller)
	value := g.Env(ir.EnvCallValue)
	s := registered(t, g)

	for _, id := range []ir.ValueID{caller, value} {
		require.NoError(t, EnvironmentRule{}.Infer(g.MustNode(id), s))
	}
	assert.Equal(t, lattice.Address(), typeOf(t, s, caller))
	assert.Equal(t, lattice.UnsignedWord(256), typeOf(t, s, value))
}

// TestOperatorRules tests the arithmetic, comparison and bitwise catalogue.
func TestOperatorRules(t *testing.T) {
	g := ir.NewGraph()
	a, b := g.Input("a"), g.Input("b")
	one := g.Const(1)

	sum := g.Bin(ir.OpAdd, a, one)
	quot := g.Bin(ir.OpDiv, a, b)
	sdiv := g.Bin(ir.OpSDiv, a, b)
	lt := g.Bin(ir.OpLt, a, b)
	isz := g.Un(ir.OpIsZero, a)
	sext := g.Bin(ir.OpSignExtend, one, b)
	byt := g.Bin(ir.OpByte, a, b)
	sar := g.Bin(ir.OpSar, a, b)
	hash := g.Keccak(a)
	s := registered(t, g)

	for _, n := range g.Nodes() {
		for _, r := range DefaultRules() {
			require.NoError(t, r.Infer(n, s))
		}
	}

	assert.Equal(t, lattice.Word(lattice.UnknownWidth), typeOf(t, s, sum))
	assert.Equal(t, lattice.UnsignedWord(lattice.UnknownWidth), typeOf(t, s, quot))
	assert.Equal(t, lattice.SignedWord(lattice.UnknownWidth), typeOf(t, s, sdiv))
	assert.Equal(t, lattice.Bool(), typeOf(t, s, lt))
	assert.Equal(t, lattice.Bool(), typeOf(t, s, isz))
	assert.Equal(t, lattice.SignedWord(16), typeOf(t, s, sext))
	assert.Equal(t, lattice.UnsignedWord(8), typeOf(t, s, byt))
	assert.Equal(t, lattice.SignedWord(lattice.UnknownWidth), typeOf(t, s, sar))
	assert.Equal(t, lattice.Bytes(32), typeOf(t, s, hash))

	// a is used unsigned by div and lt, signed by sdiv and sar: a conflict.
	assert.True(t, typeOf(t, s, a).IsConflict())
	assert.Empty(t, inferencesOf(t, s, one), "constants are never typed")
}

// TestSignedArithmeticRule_SignExtendWidth tests the width for every byte index.
func TestSignedArithmeticRule_SignExtendWidth(t *testing.T) {
	cases := []struct {
		index uint64
		want  lattice.TE
	}{
		{0, lattice.SignedWord(8)},
		{15, lattice.SignedWord(128)},
		{30, lattice.SignedWord(248)},
		{31, lattice.SignedWord(256)},
		{32, lattice.SignedWord(lattice.UnknownWidth)},
	}
	for _, tc := range cases {
		g := ir.NewGraph()
		sext := g.Bin(ir.OpSignExtend, g.Const(tc.index), g.Input("x"))
		s := registered(t, g)

		require.NoError(t, SignedArithmeticRule{}.Infer(g.MustNode(sext), s))
		assert.Equal(t, tc.want, typeOf(t, s, sext), "signextend(%d, x)", tc.index)
	}
}

// TestComparisonRule_TakesFieldWidth tests that a comparison of a bit field
// yields an unsigned integer of the field's width, not a conflict.
func TestComparisonRule_TakesFieldWidth(t *testing.T) {
	g := ir.NewGraph()
	field := g.Sub(g.SLoad(g.Const(8)), 0, 112)
	other := g.Input("x")
	g.Bin(ir.OpLt, field, other)
	s := registered(t, g)

	_, err := New().Run(s, nil)
	require.NoError(t, err)
	assert.Equal(t, lattice.UnsignedWord(112), typeOf(t, s, field))
	assert.Equal(t, lattice.UnsignedWord(lattice.UnknownWidth), typeOf(t, s, other))
}

// TestComparisonRule_KeepsSignedConflict tests that an unsigned use of a
// signed value does not borrow the signed width.
func TestComparisonRule_KeepsSignedConflict(t *testing.T) {
	g := ir.NewGraph()
	sext := g.Bin(ir.OpSignExtend, g.Const(0), g.Input("x"))
	g.Bin(ir.OpLt, sext, g.Input("y"))
	s := registered(t, g)

	_, err := New().Run(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "conflict(uint | int8)", typeOf(t, s, sext).String())
}

// TestCallRule tests external call typing.
func TestCallRule(t *testing.T) {
	g := ir.NewGraph()
	gas, target, value := g.Env(ir.EnvGas), g.Input("to"), g.Input("amount")
	call := g.MustAdd(ir.ProvenanceSynthetic, ir.Call{Gas: gas, Target: target, Value: value})
	s := registered(t, g)

	require.NoError(t, CallRule{}.Infer(g.MustNode(call), s))
	assert.Equal(t, lattice.Address(), typeOf(t, s, target))
	assert.Equal(t, lattice.UnsignedWord(256), typeOf(t, s, value))
	assert.Equal(t, lattice.Bool(), typeOf(t, s, call))
}

// TestSubWordAndPackedRules tests field typing by width.
func TestSubWordAndPackedRules(t *testing.T) {
	g := ir.NewGraph()
	read := g.SLoad(g.Const(6))
	owner := g.Sub(read, 0, 160)
	small := g.Sub(read, 160, 32)
	x, y := g.Input("x"), g.Input("y")
	packed := g.Pack(ir.PackedPart{Offset: 0, Size: 112, Value: x}, ir.PackedPart{Offset: 112, Size: 160, Value: y})
	s := registered(t, g)

	require.NoError(t, SubWordRule{}.Infer(g.MustNode(owner), s))
	require.NoError(t, SubWordRule{}.Infer(g.MustNode(small), s))
	require.NoError(t, PackedRule{}.Infer(g.MustNode(packed), s))

	assert.Equal(t, lattice.Address(), typeOf(t, s, owner))
	assert.Equal(t, lattice.Word(32), typeOf(t, s, small))
	assert.Equal(t, lattice.Word(112), typeOf(t, s, x))
	assert.Equal(t, lattice.Address(), typeOf(t, s, y))
	assert.True(t, typeOf(t, s, read).IsAny())
}

// TestStorageRules_MappingFlow tests that a mapping entry learns from reads and writes.
func TestStorageRules_MappingFlow(t *testing.T) {
	g := ir.NewGraph()
	entry := g.Mapping(g.Env(ir.EnvCaller), g.Const(2))
	read := g.SLoad(entry)
	cmp := g.Bin(ir.OpLt, read, g.Input("limit"))
	write := g.SStore(entry, g.Env(ir.EnvCallValue))
	s := registered(t, g)

	engine := New()
	_, err := engine.Run(s, nil)
	require.NoError(t, err)

	assert.Equal(t, lattice.UnsignedWord(256), typeOf(t, s, entry))
	assert.Equal(t, lattice.UnsignedWord(256), typeOf(t, s, read))
	assert.Equal(t, lattice.UnsignedWord(256), typeOf(t, s, write))
	assert.Equal(t, lattice.Bool(), typeOf(t, s, cmp))
}

// TestMappingIndexRule_Nested tests that an outer entry becomes a mapping.
func TestMappingIndexRule_Nested(t *testing.T) {
	g := ir.NewGraph()
	outer := g.Mapping(g.Env(ir.EnvCaller), g.Const(2))
	inner := g.Mapping(g.Env(ir.EnvOrigin), outer)
	g.SStore(inner, g.Env(ir.EnvCallValue))
	s := registered(t, g)

	_, err := New().Run(s, nil)
	require.NoError(t, err)

	assert.Equal(t,
		lattice.Mapping(lattice.Address(), lattice.UnsignedWord(256)),
		typeOf(t, s, outer))
}

// TestStorageWriteRule_SkipsPacked tests that packed writes are typed per part.
func TestStorageWriteRule_SkipsPacked(t *testing.T) {
	g := ir.NewGraph()
	packed := g.Pack(ir.PackedPart{Offset: 0, Size: 8, Value: g.Input("x")})
	write := g.SStore(g.Const(1), packed)
	s := registered(t, g)

	require.NoError(t, StorageWriteRule{}.Infer(g.MustNode(write), s))
	assert.Empty(t, inferencesOf(t, s, write))
}
