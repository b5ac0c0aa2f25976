// Package generator implements coroutine suspension (spec §4.7, §9:
// "yield... stores the live frame into its generator object and returns
// YIELD from the handler; send copies it back"). A suspended frame's
// locals, value stack, block stack, and PC are copied out of the native
// frame.Frame into a Generator and copied back in on the next Send.
//
// Locals that can no longer be read from the resume point onward are
// replaced with None in the copy so the scavenger does not keep them reachable
// across however long the generator sits suspended — the same
// motivation asyncify/internal/engine/liveness.go gives for only saving
// live locals at an async call site, adapted here from a structured
// wasm CFG to this runtime's flat, jump-addressed bytecode.
package generator
