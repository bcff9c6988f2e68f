// Package ir provides the symbolic value graph consumed by storage layout
// inference.
//
// A Graph is an arena of hash-consed nodes addressed by ValueID. Operands
// must already be present in the arena when a node is added, so every Graph
// is acyclic by construction and two structurally identical nodes always
// share one ValueID. Externally supplied graphs with forward references are
// checked with FindCycles before they are loaded into an arena.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Node data is a sealed interface; only the variants in this package
//     implement it
//   - Constants are 256-bit words (holiman/uint256), never machine integers
//   - Structural keys use canonical JSON with domain-separated SHA-256
//   - All JSON tags use snake_case
package ir
