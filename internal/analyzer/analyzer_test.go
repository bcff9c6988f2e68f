package analyzer

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/layout"
	"github.com/roach88/slayout/internal/testutil"
	"github.com/roach88/slayout/internal/watchdog"
)

func quiet() Option { return WithLogger(slog.New(slog.DiscardHandler)) }

func mask(bits uint) *uint256.Int {
	one := uint256.NewInt(1)
	return new(uint256.Int).Sub(new(uint256.Int).Lsh(one, bits), one)
}

// deposit builds balances[msg.sender] = msg.value with balances at slot 2,
// in the raw form emitted by symbolic execution.
func deposit() *ir.Graph {
	g := ir.NewGraph()
	g.SStore(g.Keccak(g.Env(ir.EnvCaller), g.Const(2)), g.Env(ir.EnvCallValue))
	return g
}

// reserves builds a pair contract's packed reserve slot: _update writes
// reserve0, reserve1 and a 32-bit timestamp into slot 8 and getReserves
// compares the two reserves.
func reserves(t *testing.T) *ir.Graph {
	t.Helper()
	g := ir.NewGraph()
	slot := g.Const(8)

	r0, r1, ts := g.Input("balance0"), g.Input("balance1"), g.Input("blockTimestamp")
	m112 := g.Word(mask(112))
	word := g.Bin(ir.OpOr,
		g.Bin(ir.OpOr,
			g.Bin(ir.OpShl, g.Const(224), g.Bin(ir.OpAnd, ts, g.Word(mask(32)))),
			g.Bin(ir.OpShl, g.Const(112), g.Bin(ir.OpAnd, r1, m112))),
		g.Bin(ir.OpAnd, r0, m112))
	g.SStore(slot, word)

	read := g.SLoad(slot)
	reserve0 := g.Bin(ir.OpAnd, read, m112)
	reserve1 := g.Bin(ir.OpAnd, g.Bin(ir.OpShr, g.Const(112), read), m112)
	require.NoError(t, g.MarkRoot(g.Bin(ir.OpLt, reserve0, reserve1)))
	return g
}

// TestAnalyze_MappingEndToEnd tests mapping(address => uint256) at slot 2.
func TestAnalyze_MappingEndToEnd(t *testing.T) {
	l, err := New(quiet()).Run(deposit(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, l.Layout.Len())
	assert.Equal(t,
		layout.NewSlot(2, 0, abi.Mapping(abi.Address(), abi.UInt(abi.Sized(256)))),
		l.Layout.Slots()[0])
	assert.Equal(t, 1, l.Lifted.Mappings)
	assert.Positive(t, l.Values)
	assert.Positive(t, l.Constraints)
}

// TestAnalyze_Default tests the package-level entry point.
func TestAnalyze_Default(t *testing.T) {
	l, err := Analyze(deposit(), watchdog.Lazy{})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

// TestAnalyze_PackedReserves tests packing detection through lifting.
func TestAnalyze_PackedReserves(t *testing.T) {
	r, err := New(quiet()).Run(reserves(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []layout.StorageSlot{
		layout.NewSlot(8, 0, abi.UInt(abi.Sized(112))),
		layout.NewSlot(8, 112, abi.UInt(abi.Sized(112))),
		layout.NewSlot(8, 224, abi.Number(abi.Sized(32))),
	}, r.Layout.Slots())
	assert.Equal(t, 2, r.Lifted.Packed, "the inner or is lifted first and absorbed")
}

// TestAnalyze_RebuiltWordRead tests a read-modify-write of one field whose
// old word is also a root: only the written field is reported.
func TestAnalyze_RebuiltWordRead(t *testing.T) {
	g := ir.NewGraph()
	slot := g.Const(8)
	old := g.SLoad(slot)
	clear := new(uint256.Int).Not(new(uint256.Int).Lsh(mask(32), 112))
	placed := g.Bin(ir.OpShl, g.Const(112), g.Bin(ir.OpAnd, g.Input("blockTimestamp"), g.Word(mask(32))))
	g.SStore(slot, g.Bin(ir.OpOr, g.Bin(ir.OpAnd, old, g.Word(clear)), placed))
	require.NoError(t, g.MarkRoot(old))

	r, err := New(quiet()).Run(g, nil)
	require.NoError(t, err)
	assert.Equal(t, []layout.StorageSlot{
		layout.NewSlot(8, 112, abi.Number(abi.Sized(32))),
	}, r.Layout.Slots())
	assert.Equal(t, 1, r.Lifted.Packed)
}

// TestAnalyze_WithoutLift tests that raw keys are unresolvable without lifting.
func TestAnalyze_WithoutLift(t *testing.T) {
	r, err := New(quiet(), WithoutLift()).Run(deposit(), nil)
	require.NoError(t, err)
	assert.Zero(t, r.Layout.Len())
	assert.Equal(t, 0, r.Lifted.Mappings)
}

// TestAnalyze_AlreadyExpired tests cancellation before any pass.
func TestAnalyze_AlreadyExpired(t *testing.T) {
	_, err := Analyze(deposit(), watchdog.Expired{})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	_, ok := PartialLayout(err)
	assert.False(t, ok, "nothing is salvaged before the first pass completes")
}

// TestAnalyze_TimeoutSalvagesPartial tests the partial layout after one pass.
func TestAnalyze_TimeoutSalvagesPartial(t *testing.T) {
	budget := watchdog.NewStepBudget(1)
	_, err := New(quiet(), WithCheckInterval(0)).Run(deposit(), budget)
	require.True(t, IsTimeout(err))

	partial, ok := PartialLayout(err)
	require.True(t, ok)
	assert.Equal(t, 1, partial.Len())
	assert.Contains(t, err.Error(), "TIMEOUT")
}

// TestAnalyze_Deadline tests a wall-clock budget on a deterministic clock.
func TestAnalyze_Deadline(t *testing.T) {
	clock := testutil.NewTickingClock(time.Second)
	deadline := watchdog.NewDeadlineWithClock(2*time.Second, clock.Now)

	_, err := New(quiet(), WithCheckInterval(0)).Run(deposit(), deadline)
	require.True(t, IsTimeout(err))
	_, ok := PartialLayout(err)
	assert.True(t, ok, "the first pass completed before the deadline")

	clock = testutil.NewTickingClock(time.Second)
	deadline = watchdog.NewDeadlineWithClock(time.Hour, clock.Now)
	_, err = New(quiet(), WithCheckInterval(0)).Run(deposit(), deadline)
	assert.NoError(t, err)
}

// TestAnalyze_PassLimit tests that non-convergence is not truncated silently.
func TestAnalyze_PassLimit(t *testing.T) {
	_, err := New(quiet(), WithMaxPasses(1)).Run(deposit(), nil)
	assert.True(t, IsPassLimit(err))
	assert.False(t, IsTimeout(err))
	_, ok := PartialLayout(err)
	assert.False(t, ok)
}

// TestAnalyze_NilGraph tests invariant violations.
func TestAnalyze_NilGraph(t *testing.T) {
	_, err := Analyze(nil, nil)
	assert.True(t, IsInvariantViolation(err))

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrCodeInvariantViolation, ae.Code)
}

// TestAnalyze_Reusable tests that runs share no state.
func TestAnalyze_Reusable(t *testing.T) {
	a := New(quiet())
	first, err := a.Run(deposit(), nil)
	require.NoError(t, err)
	second, err := a.Run(deposit(), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestAnalyze_Logging tests the completion log line.
func TestAnalyze_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := New(WithLogger(logger)).Run(deposit(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "analysis complete")
	assert.Contains(t, buf.String(), "slots=1")
}
