// Package layout defines the storage layout report and builds it from a
// finished inference state.
package layout

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/roach88/slayout/internal/abi"
)

// StorageSlot is one typed fragment of contract storage: the bits starting
// at Offset inside the word at Index.
type StorageSlot struct {
	Index  uint256.Int
	Offset uint16
	Typ    abi.AbiType
}

// NewSlot is a convenience constructor for small indices.
func NewSlot(index uint64, offset uint16, typ abi.AbiType) StorageSlot {
	return StorageSlot{Index: *uint256.NewInt(index), Offset: offset, Typ: typ}
}

type slotJSON struct {
	Index  string      `json:"index"`
	Offset uint16      `json:"offset"`
	Type   abi.AbiType `json:"type"`
}

// MarshalJSON encodes the index as a 0x-prefixed hex string, since slot
// indices are often keccak digests.
func (s StorageSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{Index: s.Index.Hex(), Offset: s.Offset, Type: s.Typ})
}

func (s *StorageSlot) UnmarshalJSON(data []byte) error {
	var w slotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := s.Index.SetFromHex(w.Index); err != nil {
		return fmt.Errorf("slot index %q: %w", w.Index, err)
	}
	s.Offset = w.Offset
	s.Typ = w.Type
	return nil
}

func (s StorageSlot) String() string {
	return fmt.Sprintf("slot %s offset %d: %s", s.Index.Hex(), s.Offset, s.Typ)
}

// DuplicateSlotError reports a second fragment at an occupied position.
type DuplicateSlotError struct {
	Index  uint256.Int
	Offset uint16
}

func (e *DuplicateSlotError) Error() string {
	return fmt.Sprintf("duplicate storage slot %s offset %d", e.Index.Hex(), e.Offset)
}

// StorageLayout is the ordered list of fragments observed in a contract.
//
// INVARIANTS:
//   - no two slots share (Index, Offset)
//   - order is the order in which fragments were discovered
type StorageLayout struct {
	slots []StorageSlot
}

// New creates a layout from slots, rejecting duplicates.
func New(slots ...StorageSlot) (*StorageLayout, error) {
	l := &StorageLayout{}
	for _, s := range slots {
		if err := l.Append(s); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds s at the end of the layout.
func (l *StorageLayout) Append(s StorageSlot) error {
	if _, ok := l.Find(&s.Index, s.Offset); ok {
		return &DuplicateSlotError{Index: s.Index, Offset: s.Offset}
	}
	l.slots = append(l.slots, s)
	return nil
}

// Slots returns a copy of the fragments in order.
func (l *StorageLayout) Slots() []StorageSlot {
	return append([]StorageSlot(nil), l.slots...)
}

// Len returns the number of fragments.
func (l *StorageLayout) Len() int { return len(l.slots) }

// Find returns the fragment at (index, offset).
func (l *StorageLayout) Find(index *uint256.Int, offset uint16) (StorageSlot, bool) {
	for _, s := range l.slots {
		if s.Offset == offset && s.Index.Eq(index) {
			return s, true
		}
	}
	return StorageSlot{}, false
}

// Contains reports whether the layout holds s with the same type.
func (l *StorageLayout) Contains(s StorageSlot) bool {
	got, ok := l.Find(&s.Index, s.Offset)
	return ok && got.Typ.String() == s.Typ.String()
}

// Conflicts returns the fragments whose evidence disagreed.
func (l *StorageLayout) Conflicts() []StorageSlot {
	var out []StorageSlot
	for _, s := range l.slots {
		if s.Typ.IsConflict() {
			out = append(out, s)
		}
	}
	return out
}

// MarshalJSON encodes the layout as an array of slots. An empty layout is [].
func (l *StorageLayout) MarshalJSON() ([]byte, error) {
	if l == nil || l.slots == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.slots)
}

func (l *StorageLayout) UnmarshalJSON(data []byte) error {
	var slots []StorageSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	decoded, err := New(slots...)
	if err != nil {
		return err
	}
	*l = *decoded
	return nil
}

// String renders one fragment per line.
func (l *StorageLayout) String() string {
	var b strings.Builder
	for _, s := range l.slots {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
