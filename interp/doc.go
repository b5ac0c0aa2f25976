// Package interp is the reference (non-assembled) bytecode interpreter
// (spec §4.7): a dispatch loop over Op that must produce, for every
// opcode the machine package also specializes, identical observable
// behavior (invariant 7).
//
// The switch-over-opcode dispatch loop and the {NEXT, UNWIND, RETURN,
// YIELD} continuation enum follow spec §4.7 directly; there is no
// teacher precedent for a bytecode interpreter loop, so this package's
// structure is grounded in the spec's own description rather than in
// example code. The block-stack unwinder's reverse walk mirrors
// layout.Registry's edge-cache pattern only in spirit (a small, bounded
// table consulted before falling through to the next frame up).
package interp
