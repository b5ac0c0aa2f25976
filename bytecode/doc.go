// Package bytecode defines the opcode set, the Code and Function object
// types, and the inline-cache entries attached to a function (spec §3
// "Code object entity" / "Function entity", §4.6).
//
// The opcode table and the extended-arg accumulation rule are grounded in
// wasm/constants.go's byte-coded opcode tables and wasm/leb128.go's
// continuation-byte accumulation (the same "more bytes shift further left"
// shape spec §6 describes for EXTENDED_ARG). The inline-cache promotion
// rule (empty -> monomorphic -> polymorphic, FIFO eviction past four
// layouts) is grounded in resource/table.go's UnifiedTable: a small,
// bounded, identity-keyed lookup that degrades gracefully once it would
// otherwise grow without bound.
package bytecode
