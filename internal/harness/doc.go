// Package harness runs layout scenarios: small contracts with the storage
// layout the analyzer must recover from them.
//
// # Scenario Format
//
// Scenarios are YAML files. The contract is either an inline program in the
// textual graph language or a path to a JSON graph document:
//
//	name: deposit
//	description: "balances[msg.sender] = msg.value"
//	program: |
//	  sstore(keccak256(caller, 2), callvalue)
//	assertions:
//	  - type: slot_type
//	    index: "0x2"
//	    offset: 0
//	    expect: "mapping(address => uint256)"
//	  - type: slot_count
//	    count: 1
//
// Graph paths are relative to the scenario file.
//
// # Assertion Types
//
//   - slot_type: the fragment at (index, offset) has the expected type
//   - slot_absent: no fragment at (index, offset)
//   - slot_count: the layout has exactly count fragments
//   - conflict_count: exactly count fragments are conflicts
//
// # Determinism
//
// Every scenario runs in a fresh in-memory store with sequential run IDs and
// no wall-clock watchdog, and assertions are evaluated against the layout
// read back from the store. Rendered layouts can be compared against golden
// files with RunWithGolden.
package harness
