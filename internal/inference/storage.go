package inference

import (
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
)

// SubWordRule types an extracted bit field by its width.
type SubWordRule struct{}

func (SubWordRule) Name() string { return "sub-word" }

func (SubWordRule) Infer(node ir.Node, s *State) error {
	sw, ok := node.Data.(ir.SubWord)
	if !ok {
		return nil
	}
	return assertAll(s, fieldType(sw.Size), node.ID)
}

// PackedRule types every part of a packed word by the width of its field.
type PackedRule struct{}

func (PackedRule) Name() string { return "packed" }

func (PackedRule) Infer(node ir.Node, s *State) error {
	p, ok := node.Data.(ir.Packed)
	if !ok {
		return nil
	}
	for _, part := range p.Parts {
		if err := assertAll(s, fieldType(part.Size), part.Value); err != nil {
			return err
		}
	}
	return nil
}

// StorageWriteRule: sstore(k, v) stores a value of v's type. The write node
// carries that type so the layout builder can read it back, and a mapping
// key learns its value type. Packed values are typed per part instead.
type StorageWriteRule struct{}

func (StorageWriteRule) Name() string { return "storage-write" }

func (StorageWriteRule) Infer(node ir.Node, s *State) error {
	w, ok := node.Data.(ir.StorageWrite)
	if !ok {
		return nil
	}
	if v, ok := s.graph.Node(w.Value); ok && v.Kind() == ir.KindPacked {
		return nil
	}
	if err := propagate(s, w.Value, node.ID); err != nil {
		return err
	}
	if isMappingIndex(s, w.Key) {
		return propagate(s, w.Value, w.Key)
	}
	return nil
}

// StorageReadRule: sload(m) of a mapping entry and the entry itself have
// the same type.
type StorageReadRule struct{}

func (StorageReadRule) Name() string { return "storage-read" }

func (StorageReadRule) Infer(node ir.Node, s *State) error {
	r, ok := node.Data.(ir.StorageRead)
	if !ok || !isMappingIndex(s, r.Key) {
		return nil
	}
	if err := propagate(s, node.ID, r.Key); err != nil {
		return err
	}
	return propagate(s, r.Key, node.ID)
}

// MappingIndexRule: when an entry of one mapping is itself the slot of
// another, the outer entry holds a mapping from the inner key type to the
// inner entry type.
type MappingIndexRule struct{}

func (MappingIndexRule) Name() string { return "mapping-index" }

func (MappingIndexRule) Infer(node ir.Node, s *State) error {
	m, ok := node.Data.(ir.MappingIndex)
	if !ok || !isMappingIndex(s, m.Slot) {
		return nil
	}
	key, err := s.TypeOf(m.Key)
	if err != nil {
		return err
	}
	value, err := s.TypeOf(node.ID)
	if err != nil {
		return err
	}
	return s.Infer(m.Slot, lattice.Mapping(key, value))
}

func isMappingIndex(s *State, id ir.ValueID) bool {
	n, ok := s.graph.Node(id)
	return ok && n.Kind() == ir.KindMappingIndex
}
