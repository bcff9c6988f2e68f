package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"

	"github.com/roach88/slayout/internal/ir"
)

// Program is a decoded document.
type Program struct {
	Graph    *ir.Graph
	Bytecode []byte
}

// arity is the operand count of each kind; -1 means one or more.
var arity = map[ir.Kind]int{
	ir.KindConstant:     0,
	ir.KindUnknown:      0,
	ir.KindEnv:          0,
	ir.KindCallData:     2,
	ir.KindCodeCopy:     2,
	ir.KindReturnData:   2,
	ir.KindStorageRead:  1,
	ir.KindStorageWrite: 2,
	ir.KindUnary:        1,
	ir.KindBinary:       2,
	ir.KindSha3:         1,
	ir.KindConcat:       -1,
	ir.KindCall:         3,
	ir.KindMappingIndex: 2,
	ir.KindSubWord:      1,
	ir.KindPacked:       0,
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode reads one document from r and builds its graph.
//
// Returns *CodeSizeError for oversized bytecode, *CycleError when operands
// loop, and *NodeError for malformed nodes.
func Decode(r io.Reader) (*Program, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph document: %w", err)
	}
	return Build(doc)
}

// Build converts a document into a graph.
func Build(doc Document) (*Program, error) {
	code, err := decodeBytecode(doc.Bytecode)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int]Node, len(doc.Nodes))
	deps := make(map[int][]int, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := nodes[n.ID]; dup {
			return nil, &NodeError{ID: n.ID, Reason: "duplicate id"}
		}
		nodes[n.ID] = n
		deps[n.ID] = n.deps()
	}
	for _, n := range doc.Nodes {
		for _, d := range deps[n.ID] {
			if _, ok := nodes[d]; !ok {
				return nil, &NodeError{ID: n.ID, Reason: fmt.Sprintf("unknown operand %d", d)}
			}
		}
	}
	if cycles := ir.FindCycles(deps); len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}

	b := &builder{nodes: nodes, deps: deps, g: ir.NewGraph(), ids: make(map[int]ir.ValueID)}
	for _, n := range doc.Nodes {
		if _, err := b.add(n.ID); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Roots {
		id, ok := b.ids[r]
		if !ok {
			return nil, &NodeError{ID: r, Reason: "root is not a node"}
		}
		if err := b.g.MarkRoot(id); err != nil {
			return nil, err
		}
	}
	return &Program{Graph: b.g, Bytecode: code}, nil
}

func decodeBytecode(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	if len(code) > params.MaxCodeSize {
		return nil, &CodeSizeError{Size: len(code), Limit: params.MaxCodeSize}
	}
	return code, nil
}

type builder struct {
	nodes map[int]Node
	deps  map[int][]int
	g     *ir.Graph
	ids   map[int]ir.ValueID
}

// add inserts doc node id after its operands. The document is known to be
// acyclic, so the recursion terminates.
func (b *builder) add(id int) (ir.ValueID, error) {
	if v, ok := b.ids[id]; ok {
		return v, nil
	}
	for _, d := range b.deps[id] {
		if _, err := b.add(d); err != nil {
			return 0, err
		}
	}

	n := b.nodes[id]
	data, err := b.data(n)
	if err != nil {
		return 0, &NodeError{ID: id, Reason: err.Error()}
	}
	prov, err := ir.ParseProvenance(n.Provenance)
	if err != nil {
		return 0, &NodeError{ID: id, Reason: err.Error()}
	}
	v, err := b.g.Add(prov, data)
	if err != nil {
		return 0, &NodeError{ID: id, Reason: err.Error()}
	}
	b.ids[id] = v
	return v, nil
}

func (b *builder) data(n Node) (ir.Data, error) {
	kind, err := ir.ParseKind(n.Kind)
	if err != nil {
		return nil, err
	}
	want, ok := arity[kind]
	if !ok {
		return nil, fmt.Errorf("kind %s cannot appear in a document", kind)
	}
	if (want >= 0 && len(n.Operands) != want) || (want < 0 && len(n.Operands) == 0) {
		return nil, fmt.Errorf("%s takes %s operands, got %d", kind, arityString(want), len(n.Operands))
	}
	if n.Base != nil && kind != ir.KindPacked {
		return nil, fmt.Errorf("%s does not take a base", kind)
	}
	ops := make([]ir.ValueID, len(n.Operands))
	for i, o := range n.Operands {
		ops[i] = b.ids[o]
	}

	switch kind {
	case ir.KindConstant:
		w, err := ir.ParseWord(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.Constant{Value: *w}, nil
	case ir.KindUnknown:
		return ir.Unknown{Name: n.Name}, nil
	case ir.KindEnv:
		v, err := ir.ParseEnvVar(n.Var)
		if err != nil {
			return nil, err
		}
		return ir.Env{Var: v}, nil
	case ir.KindCallData:
		return ir.CallData{ID: n.CallID, Offset: ops[0], Size: ops[1]}, nil
	case ir.KindCodeCopy:
		return ir.CodeCopy{Offset: ops[0], Size: ops[1]}, nil
	case ir.KindReturnData:
		return ir.ReturnData{Offset: ops[0], Size: ops[1]}, nil
	case ir.KindStorageRead:
		return ir.StorageRead{Key: ops[0]}, nil
	case ir.KindStorageWrite:
		return ir.StorageWrite{Key: ops[0], Value: ops[1]}, nil
	case ir.KindUnary:
		op, err := ir.ParseUnaryOp(n.Op)
		if err != nil {
			return nil, err
		}
		return ir.Unary{Op: op, Operand: ops[0]}, nil
	case ir.KindBinary:
		op, err := ir.ParseBinaryOp(n.Op)
		if err != nil {
			return nil, err
		}
		return ir.Binary{Op: op, Left: ops[0], Right: ops[1]}, nil
	case ir.KindSha3:
		return ir.Sha3{Data: ops[0]}, nil
	case ir.KindConcat:
		return ir.Concat{Values: ops}, nil
	case ir.KindCall:
		return ir.Call{Gas: ops[0], Target: ops[1], Value: ops[2]}, nil
	case ir.KindMappingIndex:
		return ir.MappingIndex{Key: ops[0], Slot: ops[1]}, nil
	case ir.KindSubWord:
		if err := checkRange(n.Offset, n.Size); err != nil {
			return nil, err
		}
		return ir.SubWord{Value: ops[0], Offset: n.Offset, Size: n.Size}, nil
	default:
		if len(n.Parts) == 0 {
			return nil, fmt.Errorf("packed takes at least one part")
		}
		parts := make([]ir.PackedPart, len(n.Parts))
		for i, p := range n.Parts {
			if err := checkRange(p.Offset, p.Size); err != nil {
				return nil, err
			}
			parts[i] = ir.PackedPart{Offset: p.Offset, Size: p.Size, Value: b.ids[p.Value]}
		}
		packed := ir.Packed{Parts: parts}
		if n.Base != nil {
			packed.Base, packed.HasBase = b.ids[*n.Base], true
		}
		return packed, nil
	}
}

func arityString(n int) string {
	if n < 0 {
		return "one or more"
	}
	return fmt.Sprint(n)
}

// checkRange validates a bit field inside a 256-bit word.
func checkRange(offset, size uint16) error {
	if size == 0 || int(offset)+int(size) > 256 {
		return fmt.Errorf("bit range [%d, %d) is outside the word", offset, int(offset)+int(size))
	}
	return nil
}

// FromGraph converts g into a document. Node ids are graph handles.
func FromGraph(g *ir.Graph, bytecode []byte) Document {
	doc := Document{Nodes: make([]Node, 0, g.Len())}
	if len(bytecode) > 0 {
		doc.Bytecode = hexutil.Encode(bytecode)
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, encodeNode(n))
	}
	for _, r := range g.Roots() {
		doc.Roots = append(doc.Roots, int(r))
	}
	return doc
}

func encodeNode(n ir.Node) Node {
	out := Node{
		ID:         int(n.ID),
		Kind:       n.Kind().String(),
		Provenance: n.Provenance.String(),
	}
	if _, ok := n.Data.(ir.Packed); !ok {
		for _, op := range n.Data.Operands() {
			out.Operands = append(out.Operands, int(op))
		}
	}
	switch v := n.Data.(type) {
	case ir.Constant:
		out.Value = v.Value.Hex()
	case ir.Unknown:
		out.Name = v.Name
	case ir.Env:
		out.Var = v.Var.String()
	case ir.CallData:
		out.CallID = v.ID
	case ir.Unary:
		out.Op = v.Op.String()
	case ir.Binary:
		out.Op = v.Op.String()
	case ir.SubWord:
		out.Offset, out.Size = v.Offset, v.Size
	case ir.Packed:
		for _, p := range v.Parts {
			out.Parts = append(out.Parts, Part{Offset: p.Offset, Size: p.Size, Value: int(p.Value)})
		}
		if v.HasBase {
			base := int(v.Base)
			out.Base = &base
		}
	}
	return out
}

// Encode writes g as an indented document.
func Encode(w io.Writer, g *ir.Graph, bytecode []byte) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromGraph(g, bytecode))
}
