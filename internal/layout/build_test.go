package layout

import (
	"log/slog"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/inference"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/unify"
)

// build runs inference over g to a fixpoint and builds its layout.
func build(t *testing.T, g *ir.Graph) *StorageLayout {
	t.Helper()
	s := inference.NewState(g)
	require.NoError(t, s.RegisterGraph())
	_, err := inference.New(inference.WithLogger(slog.New(slog.DiscardHandler))).Run(s, nil)
	require.NoError(t, err)
	l, err := Build(s, unify.New(s))
	require.NoError(t, err)
	return l
}

func uint256Type() abi.AbiType { return abi.UInt(abi.Sized(256)) }

// TestBuild_MappingEndToEnd tests balances[msg.sender] = msg.value at slot 2.
func TestBuild_MappingEndToEnd(t *testing.T) {
	g := ir.NewGraph()
	entry := g.Mapping(g.Env(ir.EnvCaller), g.Const(2))
	g.SStore(entry, g.Env(ir.EnvCallValue))
	g.Un(ir.OpIsZero, g.SLoad(entry))

	l := build(t, g)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, NewSlot(2, 0, abi.Mapping(abi.Address(), uint256Type())), l.Slots()[0])
}

// TestBuild_NestedMapping tests allowance[owner][spender].
func TestBuild_NestedMapping(t *testing.T) {
	g := ir.NewGraph()
	inner := g.Mapping(g.Env(ir.EnvCaller), g.Const(1))
	outer := g.Mapping(g.Env(ir.EnvOrigin), inner)
	g.SStore(outer, g.Env(ir.EnvCallValue))

	l := build(t, g)
	require.Equal(t, 1, l.Len())
	want := abi.Mapping(abi.Address(), abi.Mapping(abi.Address(), uint256Type()))
	assert.Equal(t, want, l.Slots()[0].Typ)
	assert.Equal(t, "mapping(address => mapping(address => uint256))", l.Slots()[0].Typ.String())
}

// TestBuild_PackedWrites tests two fields of slot 8 written independently.
func TestBuild_PackedWrites(t *testing.T) {
	g := ir.NewGraph()
	slot := g.Const(8)
	g.SStore(slot, g.Pack(ir.PackedPart{Offset: 0, Size: 112, Value: g.Input("reserve0")}))
	g.SStore(slot, g.Pack(ir.PackedPart{Offset: 112, Size: 32, Value: g.Input("timestamp")}))

	l := build(t, g)
	assert.Equal(t, []StorageSlot{
		NewSlot(8, 0, abi.Number(abi.Sized(112))),
		NewSlot(8, 112, abi.Number(abi.Sized(32))),
	}, l.Slots())
}

// TestBuild_PackedReads tests fields extracted from one read of slot 8.
func TestBuild_PackedReads(t *testing.T) {
	g := ir.NewGraph()
	read := g.SLoad(g.Const(8))
	low := g.Sub(read, 0, 112)
	high := g.Sub(read, 112, 112)
	g.Bin(ir.OpLt, low, high)

	l := build(t, g)
	assert.Equal(t, []StorageSlot{
		NewSlot(8, 0, abi.UInt(abi.Sized(112))),
		NewSlot(8, 112, abi.UInt(abi.Sized(112))),
	}, l.Slots(), "the unobserved top of the word is not reported")
}

// TestBuild_RebuiltWordIsNotObserved tests that the old word of a packed
// write adds nothing, even when the read is itself a root.
func TestBuild_RebuiltWordIsNotObserved(t *testing.T) {
	g := ir.NewGraph()
	slot := g.Const(8)
	old := g.SLoad(slot)
	require.NoError(t, g.MarkRoot(old))
	packed := g.MustAdd(ir.ProvenanceSynthetic, ir.Packed{
		Parts:   []ir.PackedPart{{Offset: 112, Size: 32, Value: g.Input("timestamp")}},
		Base:    old,
		HasBase: true,
	})
	g.SStore(slot, packed)

	l := build(t, g)
	assert.Equal(t, []StorageSlot{
		NewSlot(8, 112, abi.Number(abi.Sized(32))),
	}, l.Slots())
}

// TestBuild_WholeWordAlongsideFields tests a read used both whole and in part.
func TestBuild_WholeWordAlongsideFields(t *testing.T) {
	g := ir.NewGraph()
	read := g.SLoad(g.Const(4))
	g.Sub(read, 160, 8)
	g.SStore(g.Const(5), read)

	l := build(t, g)
	_, ok := l.Find(uint256.NewInt(4), 160)
	assert.True(t, ok)
	_, ok = l.Find(uint256.NewInt(4), 0)
	assert.True(t, ok, "a non sub-word user observes the whole word")
}

// TestBuild_Conflict tests two incompatible writes to slot 5.
func TestBuild_Conflict(t *testing.T) {
	g := ir.NewGraph()
	slot := g.Const(5)
	g.SStore(slot, g.Env(ir.EnvCaller))
	g.SStore(slot, g.Un(ir.OpIsZero, g.Input("x")))

	l := build(t, g)
	require.Equal(t, 1, l.Len())
	got := l.Slots()[0]
	assert.Equal(t, abi.Conflicted(abi.Bool(), abi.Address()), got.Typ)
	assert.Len(t, l.Conflicts(), 1)
}

// TestBuild_AbsentVersusAny tests that untyped accesses are kept and unobserved slots are not.
func TestBuild_AbsentVersusAny(t *testing.T) {
	g := ir.NewGraph()
	g.SStore(g.Const(3), g.Input("x"))
	g.SLoad(g.Const(7))

	l := build(t, g)
	assert.True(t, l.Contains(NewSlot(3, 0, abi.Any())))
	assert.True(t, l.Contains(NewSlot(7, 0, abi.Any())))
	_, ok := l.Find(uint256.NewInt(4), 0)
	assert.False(t, ok)
}

// TestBuild_UnresolvableKey tests that symbolic keys are skipped.
func TestBuild_UnresolvableKey(t *testing.T) {
	g := ir.NewGraph()
	g.SStore(g.Input("key"), g.Env(ir.EnvCaller))
	g.SStore(g.Mapping(g.Env(ir.EnvCaller), g.Input("base")), g.Env(ir.EnvCallValue))

	l := build(t, g)
	assert.Zero(t, l.Len())
}

// TestBuild_DiscoveryOrder tests index then offset discovery order.
func TestBuild_DiscoveryOrder(t *testing.T) {
	g := ir.NewGraph()
	g.SStore(g.Const(3), g.Pack(ir.PackedPart{Offset: 128, Size: 8, Value: g.Input("a")}))
	g.SStore(g.Const(1), g.Env(ir.EnvCaller))
	g.SStore(g.Const(3), g.Pack(ir.PackedPart{Offset: 0, Size: 8, Value: g.Input("b")}))

	l := build(t, g)
	var got [][2]uint64
	for _, s := range l.Slots() {
		got = append(got, [2]uint64{s.Index.Uint64(), uint64(s.Offset)})
	}
	assert.Equal(t, [][2]uint64{{3, 128}, {3, 0}, {1, 0}}, got)
}
