package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/layout"
)

func sampleLayout(t *testing.T) *layout.StorageLayout {
	t.Helper()
	l, err := layout.New(
		layout.NewSlot(2, 0, abi.Mapping(abi.Address(), abi.UInt(abi.Sized(256)))),
		layout.NewSlot(8, 112, abi.UInt(abi.Sized(112))),
		layout.NewSlot(5, 0, abi.Conflicted(abi.Bool(), abi.Address())),
	)
	require.NoError(t, err)
	return l
}

// TestEvaluateAssertions_Pass tests every assertion type on a matching layout.
func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleLayout(t), []Assertion{
		{Type: AssertSlotType, Index: "0x2", Expect: "mapping(address => uint256)"},
		{Type: AssertSlotType, Index: "8", Offset: 112, Expect: "uint112"},
		{Type: AssertSlotAbsent, Index: "0x8", Offset: 0},
		{Type: AssertSlotCount, Count: 3},
		{Type: AssertConflictCount, Count: 1},
	})
	assert.Empty(t, errs)
}

// TestEvaluateAssertions_Failures tests the failure messages.
func TestEvaluateAssertions_Failures(t *testing.T) {
	cases := []struct {
		name      string
		assertion Assertion
		want      []string
	}{
		{
			name:      "wrong type",
			assertion: Assertion{Type: AssertSlotType, Index: "0x8", Offset: 112, Expect: "uint128"},
			want:      []string{"slot 0x8 offset 112: uint128", "Actual: slot 0x8 offset 112: uint112"},
		},
		{
			name:      "missing fragment",
			assertion: Assertion{Type: AssertSlotType, Index: "0x9", Expect: "bool"},
			want:      []string{"no fragment at slot 0x9 offset 0"},
		},
		{
			name:      "present fragment",
			assertion: Assertion{Type: AssertSlotAbsent, Index: "0x5"},
			want:      []string{"slot_absent", "conflict(bool | address)"},
		},
		{
			name:      "count",
			assertion: Assertion{Type: AssertSlotCount, Count: 2},
			want:      []string{"Expected: 2 fragments", "Actual: 3 fragments"},
		},
		{
			name:      "conflicts",
			assertion: Assertion{Type: AssertConflictCount, Count: 0},
			want:      []string{"Expected: 0 conflicts", "Actual: 1 conflicts"},
		},
		{
			name:      "bad index",
			assertion: Assertion{Type: AssertSlotAbsent, Index: "slot"},
			want:      []string{`bad index "slot"`},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleLayout(t), []Assertion{tc.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			for _, w := range tc.want {
				assert.Contains(t, errs[0], w)
			}
		})
	}
}

// TestAssertionError_EmptyLayout tests rendering with nothing recovered.
func TestAssertionError_EmptyLayout(t *testing.T) {
	l, err := layout.New()
	require.NoError(t, err)
	errs := EvaluateAssertions(l, []Assertion{{Type: AssertSlotCount, Count: 1}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "(empty)")
}
