// Package graphio reads and writes symbolic value graphs as JSON documents.
//
// A document lists nodes under document-local ids. Nodes may reference
// operands defined later in the list; the graph they describe must still be
// acyclic, since it mirrors a single execution trace.
//
//	{
//	  "bytecode": "0x6080...",
//	  "nodes": [
//	    {"id": 0, "kind": "env", "var": "caller"},
//	    {"id": 1, "kind": "constant", "value": "0x2"},
//	    {"id": 2, "kind": "mapping_index", "operands": [0, 1]},
//	    {"id": 3, "kind": "env", "var": "callvalue"},
//	    {"id": 4, "kind": "sstore", "operands": [2, 3]}
//	  ],
//	  "roots": [4]
//	}
package graphio

// Document is the wire form of a graph.
type Document struct {
	Bytecode string `json:"bytecode,omitempty"`
	Nodes    []Node `json:"nodes"`
	Roots    []int  `json:"roots,omitempty"`
}

// Node is the wire form of one value. Which fields are set depends on Kind.
type Node struct {
	ID         int    `json:"id"`
	Kind       string `json:"kind"`
	Provenance string `json:"provenance,omitempty"`

	// Op names the operator of unary and binary nodes.
	Op string `json:"op,omitempty"`
	// Value is the word of a constant, hex with 0x prefix or decimal.
	Value string `json:"value,omitempty"`
	// Name labels an unknown input.
	Name string `json:"name,omitempty"`
	// Var names the environment value of an env node.
	Var string `json:"var,omitempty"`
	// CallID identifies the call frame of a call_data node.
	CallID int `json:"call_id,omitempty"`
	// Offset and Size are the bit range of a sub_word node.
	Offset uint16 `json:"offset,omitempty"`
	Size   uint16 `json:"size,omitempty"`

	Operands []int  `json:"operands,omitempty"`
	Parts    []Part `json:"parts,omitempty"`
	// Base is the old word a packed node rebuilds, if any.
	Base *int `json:"base,omitempty"`
}

// Part is one field of a packed node.
type Part struct {
	Offset uint16 `json:"offset"`
	Size   uint16 `json:"size"`
	Value  int    `json:"value"`
}

// deps returns the document ids n depends on.
func (n Node) deps() []int {
	out := append([]int(nil), n.Operands...)
	for _, p := range n.Parts {
		out = append(out, p.Value)
	}
	if n.Base != nil {
		out = append(out, *n.Base)
	}
	return out
}
