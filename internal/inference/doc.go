// Package inference derives type expressions for the values of a symbolic
// value graph.
//
// A State registers every value under a TypeVar and keeps, per TypeVar, an
// ordered duplicate-free set of asserted type expressions. Rules inspect one
// value at a time and assert facts about it and its operands. The Engine
// applies the rule catalogue to every registered value in registration order,
// pass after pass, until a pass adds nothing.
//
// Key invariants:
//   - Rules only ever add constraints, so the state grows monotonically
//   - Registration is idempotent on structural identity
//   - A pass that adds nothing is a fixpoint; running another pass is a no-op
//   - Exceeding the pass ceiling is an internal error, never a silent stop
//   - The watchdog is polled before each pass and every CheckInterval rule
//     applications inside a pass
package inference
