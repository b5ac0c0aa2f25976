// Package frame implements the thread and frame stack (spec §4.5): a
// Thread owning a value stack and a chain of Frames, each with its own
// block stack for exception/loop unwinding. Go cannot partition a single
// native stack region by raw pointer arithmetic the way the original's
// frame allocator does (spec's "thread owns a contiguous native stack
// region partitioned into frames by their previous-frame pointers"), so
// each Frame owns its own slices and frames link through a Prev pointer
// instead — the observable behavior (push/pop, block-stack nesting,
// stack-overflow detection against a depth limit) is preserved, only the
// storage is GC-managed Go slices rather than a bump-allocated region.
package frame
