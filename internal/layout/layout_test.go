package layout

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slayout/internal/abi"
)

// TestStorageLayout_JSON tests the hex index encoding and decoding.
func TestStorageLayout_JSON(t *testing.T) {
	l, err := New(
		NewSlot(2, 0, abi.Mapping(abi.Address(), abi.UInt(abi.Sized(256)))),
		NewSlot(8, 112, abi.Conflicted(abi.Bool(), abi.Address())),
	)
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"index":"0x2","offset":0,"type":{"kind":"mapping","key_type":{"kind":"address"},"value_type":{"kind":"uint","size":256}}},
		{"index":"0x8","offset":112,"type":{"kind":"conflict","candidates":[{"kind":"bool"},{"kind":"address"}]}}
	]`, string(data))

	var decoded StorageLayout
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, l.Slots(), decoded.Slots())
}

// TestStorageLayout_EmptyJSON tests that an empty layout encodes as an array.
func TestStorageLayout_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(&StorageLayout{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

// TestStorageLayout_RejectsDuplicates tests the unique position invariant.
func TestStorageLayout_RejectsDuplicates(t *testing.T) {
	_, err := New(NewSlot(1, 0, abi.Bool()), NewSlot(1, 0, abi.Address()))
	var dup *DuplicateSlotError
	require.ErrorAs(t, err, &dup)
	assert.Contains(t, err.Error(), "0x1 offset 0")
}

// TestStorageLayout_LargeIndex tests keccak-sized slot indices.
func TestStorageLayout_LargeIndex(t *testing.T) {
	index := new(uint256.Int).SetAllOne()
	l, err := New(StorageSlot{Index: *index, Offset: 0, Typ: abi.Address()})
	require.NoError(t, err)

	s, ok := l.Find(index, 0)
	require.True(t, ok)
	assert.Equal(t, "slot 0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff offset 0: address", s.String())
}

// TestStorageLayout_String tests the line-per-slot rendering.
func TestStorageLayout_String(t *testing.T) {
	l, err := New(NewSlot(0, 0, abi.Address()), NewSlot(0, 160, abi.Number(nil)))
	require.NoError(t, err)
	assert.Equal(t, "slot 0x0 offset 0: address\nslot 0x0 offset 160: number\n", l.String())
}
