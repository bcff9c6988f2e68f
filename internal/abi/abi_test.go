package abi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/lattice"
)

// TestFromTE_Forms tests the one-to-one mapping of definite forms.
func TestFromTE_Forms(t *testing.T) {
	cases := []struct {
		name string
		te   lattice.TE
		want AbiType
	}{
		{"any", lattice.Any(), Any()},
		{"uint256", lattice.UnsignedWord(256), UInt(Sized(256))},
		{"uint", lattice.UnsignedWord(lattice.UnknownWidth), UInt(nil)},
		{"int8", lattice.SignedWord(8), Int(Sized(8))},
		{"number", lattice.Word(lattice.UnknownWidth), Number(nil)},
		{"bool", lattice.Bool(), Bool()},
		{"address", lattice.Address(), Address()},
		{"bytes32", lattice.Bytes(32), Bytes(Sized(32))},
		{"mapping", lattice.Mapping(lattice.Address(), lattice.UnsignedWord(256)), Mapping(Address(), UInt(Sized(256)))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromTE(tc.te))
		})
	}
}

// TestFromTE_Conflict tests that every candidate survives conversion.
func TestFromTE_Conflict(t *testing.T) {
	got := FromTE(lattice.Conflict(lattice.Address(), lattice.Bool()))
	assert.True(t, got.IsConflict())
	assert.Equal(t, []AbiType{Bool(), Address()}, got.Candidates)
	assert.Equal(t, "conflict(bool | address)", got.String())
}

// TestString tests Solidity-style rendering.
func TestString(t *testing.T) {
	assert.Equal(t, "uint256", UInt(Sized(256)).String())
	assert.Equal(t, "number", Number(nil).String())
	assert.Equal(t, "bytes", Bytes(nil).String())
	assert.Equal(t, "any", AbiType{}.String())
	assert.Equal(t, "mapping(address => mapping(address => uint256))",
		Mapping(Address(), Mapping(Address(), UInt(Sized(256)))).String())
}

// TestJSON_RoundTrip tests that nested types survive encoding.
func TestJSON_RoundTrip(t *testing.T) {
	in := Mapping(Address(), Conflicted(UInt(Sized(8)), Bool()))
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"mapping","key_type":{"kind":"address"},"value_type":{"kind":"conflict","candidates":[{"kind":"uint","size":8},{"kind":"bool"}]}}`, string(data))

	var out AbiType
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
