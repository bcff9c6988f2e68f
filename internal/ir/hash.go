package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainNode  = "slayout/node/v1"
	DomainGraph = "slayout/graph/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func ids(vs []ValueID) TermArray {
	arr := make(TermArray, len(vs))
	for i, v := range vs {
		arr[i] = TermInt(v)
	}
	return arr
}

// DataTerm encodes node data as a canonical term. Operands are encoded by
// handle, so the term is only meaningful inside one arena.
// Provenance is not part of the term, so a folded constant and a bytecode
// literal with the same word are the same value.
func DataTerm(d Data) TermObject {
	obj := TermObject{"kind": TermString(d.Kind().String())}
	switch v := d.(type) {
	case Constant:
		obj["value"] = TermString(v.Value.Hex())
	case Unknown:
		obj["name"] = TermString(v.Name)
	case Env:
		obj["var"] = TermString(v.Var.String())
	case CallData:
		obj["call_id"] = TermInt(v.ID)
	case Unary:
		obj["op"] = TermString(v.Op.String())
	case Binary:
		obj["op"] = TermString(v.Op.String())
	case SubWord:
		obj["offset"] = TermInt(v.Offset)
		obj["size"] = TermInt(v.Size)
	case Packed:
		parts := make(TermArray, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = TermObject{
				"offset": TermInt(p.Offset),
				"size":   TermInt(p.Size),
				"value":  TermInt(p.Value),
			}
		}
		obj["parts"] = parts
		if v.HasBase {
			obj["base"] = TermInt(v.Base)
		}
		return obj
	}
	obj["operands"] = ids(d.Operands())
	return obj
}

// StructuralKey returns the content-addressed key of node data. Two data
// values with equal keys are structurally identical.
func StructuralKey(d Data) (string, error) {
	canonical, err := MarshalCanonical(DataTerm(d))
	if err != nil {
		return "", fmt.Errorf("StructuralKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// MustStructuralKey is like StructuralKey but panics on error.
// Use only in tests or when data is known to be valid.
func MustStructuralKey(d Data) string {
	key, err := StructuralKey(d)
	if err != nil {
		panic(err)
	}
	return key
}

// ContentHash identifies a whole graph: every node in arena order plus the
// roots. Graphs built by the same sequence of additions hash equally.
func (g *Graph) ContentHash() (string, error) {
	nodes := make(TermArray, len(g.nodes))
	for i, n := range g.nodes {
		term := DataTerm(n.Data)
		term["provenance"] = TermString(n.Provenance.String())
		nodes[i] = term
	}
	doc := TermObject{
		"version": TermString(GraphVersion),
		"nodes":   nodes,
		"roots":   ids(g.roots),
	}
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}
