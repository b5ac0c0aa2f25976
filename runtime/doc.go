// Package runtime wires the engine's pieces into one process-wide
// Runtime (spec §9: "there is exactly one runtime per process" — carry
// the tables on a runtime context struct rather than globalizing them).
// It owns the heap, the runtime tables, the import lock, the decoder,
// the cache, and both interpreter front ends, and exposes the
// high-level entry points a host embedding this engine actually calls:
// decode-and-run a module, import a named module, send into a
// generator.
package runtime
