// Package machine is the "threaded interpreter" of spec §4.8,
// reinterpreted for a managed-memory host: instead of emitting real
// x86-64 bytes into an executable page, Table holds one Go closure per
// opcode slot, indexed exactly the way spec §4.8 indexes its handler
// table (`handlers_base + opcode * handler_size`, here just a slice
// index). The three pseudo-handlers UNWIND/RETURN/YIELD at negative
// offsets become the interp.Continuation value a handler returns instead
// of negative array indices, and the "counting table" variant is the
// Counting flag on the same Table, which makes Dispatch tally Counts.
//
// This is an explicit, spec-sanctioned scope boundary (§1 Non-goals:
// "The instruction-level x86-64 assembler... its contract... is
// described, but mnemonics are not"): only the dispatch *contract* is
// implemented, never literal machine code.
//
// The Assembler buffer (growable byte buffer, label-patch fixups) is
// grounded in wasm/internal/binary/writer.go's Writer (Byte/WriteBytes/
// WriteU32 append-and-grow style) and wasm/encode.go's section-length
// backpatch pattern (reserve a placeholder, fix it up once the body's
// length is known).
package machine
