package layout

import (
	"github.com/holiman/uint256"

	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/inference"
	"github.com/roach88/slayout/internal/ir"
	"github.com/roach88/slayout/internal/lattice"
	"github.com/roach88/slayout/internal/unify"
)

// fragments accumulates merged types per (index, offset) in discovery order.
type fragments struct {
	order  []uint256.Int
	groups map[uint256.Int]*group
}

type group struct {
	offsets []uint16
	types   map[uint16]lattice.TE
}

func (f *fragments) add(index uint256.Int, offset uint16, te lattice.TE) {
	g, ok := f.groups[index]
	if !ok {
		g = &group{types: make(map[uint16]lattice.TE)}
		f.groups[index] = g
		f.order = append(f.order, index)
	}
	prev, seen := g.types[offset]
	if !seen {
		g.offsets = append(g.offsets, offset)
	}
	g.types[offset] = lattice.Merge(prev, te)
}

func (f *fragments) layout() (*StorageLayout, error) {
	l := &StorageLayout{}
	for _, index := range f.order {
		g := f.groups[index]
		for _, off := range g.offsets {
			if err := l.Append(StorageSlot{Index: index, Offset: off, Typ: abi.FromTE(g.types[off])}); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

// builder resolves storage keys and types against one state.
type builder struct {
	state *inference.State
	graph *ir.Graph
	unify *unify.Unifier
	users map[ir.ValueID][]ir.ValueID
	frags fragments
}

// Build groups every storage access of s by its concrete slot.
//
// Accesses whose key is neither a constant nor a chain of mapping indices
// rooted at a constant are skipped. Fragments at the same position are
// merged, so contradictory accesses surface as a conflict. Positions that
// are never accessed do not appear; accessed but untyped ones appear as any.
func Build(s *inference.State, u *unify.Unifier) (*StorageLayout, error) {
	b := &builder{
		state: s,
		graph: s.Graph(),
		unify: u,
		users: s.Graph().Users(),
		frags: fragments{groups: make(map[uint256.Int]*group)},
	}
	for _, tv := range s.TypeVars() {
		node, ok := s.Value(tv)
		if !ok {
			continue
		}
		var err error
		switch v := node.Data.(type) {
		case ir.StorageRead:
			err = b.read(node.ID, v)
		case ir.StorageWrite:
			err = b.write(node.ID, v)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.frags.layout()
}

// slotKey is a resolved storage key. When entry is set the key addresses a
// mapping entry and entry is the mapping index applied directly to the root.
type slotKey struct {
	root  uint256.Int
	entry *ir.MappingIndex
	id    ir.ValueID
}

func (b *builder) resolve(key ir.ValueID) (slotKey, bool) {
	var (
		entry   *ir.MappingIndex
		entryID ir.ValueID
	)
	for id := key; ; {
		n, ok := b.graph.Node(id)
		if !ok {
			return slotKey{}, false
		}
		switch v := n.Data.(type) {
		case ir.Constant:
			return slotKey{root: v.Value, entry: entry, id: entryID}, true
		case ir.MappingIndex:
			entry, entryID = &v, id
			id = v.Slot
		default:
			return slotKey{}, false
		}
	}
}

func (b *builder) typeOf(id ir.ValueID) (lattice.TE, error) {
	return b.unify.ReduceValue(id)
}

// mapping records the mapping rooted at k.
func (b *builder) mapping(k slotKey) error {
	key, err := b.typeOf(k.entry.Key)
	if err != nil {
		return err
	}
	value, err := b.typeOf(k.id)
	if err != nil {
		return err
	}
	b.frags.add(k.root, 0, lattice.Mapping(key, value))
	return nil
}

func (b *builder) read(id ir.ValueID, r ir.StorageRead) error {
	k, ok := b.resolve(r.Key)
	if !ok {
		return nil
	}
	if k.entry != nil {
		return b.mapping(k)
	}

	// A read used only as the base of a rebuilt word observes none of its
	// bits: the cleared fields come from the write and the rest is copied.
	whole := len(b.users[id]) == 0
	for _, user := range b.users[id] {
		switch v := b.graph.MustNode(user).Data.(type) {
		case ir.SubWord:
			te, err := b.typeOf(user)
			if err != nil {
				return err
			}
			b.frags.add(k.root, v.Offset, te)
		case ir.Packed:
			if !onlyBase(v, id) {
				whole = true
			}
		default:
			whole = true
		}
	}
	if !whole {
		return nil
	}
	te, err := b.typeOf(id)
	if err != nil {
		return err
	}
	b.frags.add(k.root, 0, te)
	return nil
}

// onlyBase reports whether id appears in p as its base and not as a part.
func onlyBase(p ir.Packed, id ir.ValueID) bool {
	if !p.HasBase || p.Base != id {
		return false
	}
	for _, part := range p.Parts {
		if part.Value == id {
			return false
		}
	}
	return true
}

func (b *builder) write(id ir.ValueID, w ir.StorageWrite) error {
	k, ok := b.resolve(w.Key)
	if !ok {
		return nil
	}
	if k.entry != nil {
		return b.mapping(k)
	}

	if p, ok := b.graph.MustNode(w.Value).Data.(ir.Packed); ok {
		for _, part := range p.Parts {
			te, err := b.typeOf(part.Value)
			if err != nil {
				return err
			}
			b.frags.add(k.root, part.Offset, te)
		}
		return nil
	}
	te, err := b.typeOf(id)
	if err != nil {
		return err
	}
	b.frags.add(k.root, 0, te)
	return nil
}
