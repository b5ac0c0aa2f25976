// Package corevm is a from-scratch execution engine for a dynamically-
// typed, class-based scripting language: tagged-pointer object
// representation, a moving semispace collector, a hidden-class layout
// DAG for instance attributes, inline-cached bytecode, and two
// interchangeable interpreter front ends (a straightforward switch-
// dispatch reference loop, and a handler-threaded table that falls back
// to the reference loop for anything it doesn't specialize).
//
// # Architecture Overview
//
//	corevm/               Root package (this overview only, no code)
//	├── object/           Tagged Ref encoding and the header word
//	├── heap/             Bump-allocated semispace, Cheney scavenge, weak refs
//	├── layout/           Hidden-class DAG for instance attribute offsets
//	├── intern/           Identity-comparable interned strings
//	├── runtimetables/    Built-in layouts, the modules dict, the symbols table
//	├── frame/            Thread, frame, block stack, value stack
//	├── bytecode/         Opcode set, inline caches, Code and Function
//	├── interp/           Reference interpreter (one handler per opcode)
//	├── machine/          Handler-threaded dispatch table over the same core
//	├── marshal/          Decoder for the persisted module format
//	├── generator/         Coroutine suspend/resume over a frame snapshot
//	├── importlock/       The single process-wide import lock
//	├── cache/            Content-addressed bytecode cache
//	├── errors/           Structured, phase-tagged error type
//	└── runtime/          Top-level Runtime gluing every package together
//
// # Quick start
//
//	rt, err := runtime.New(runtime.Config{HeapBytes: 64 << 20})
//	result, err := rt.Eval(source, "<string>")
//
// # Thread safety
//
// A Runtime is single-threaded cooperative, per spec: only one thread
// executes interpreted code at a time, serialized behind the import
// lock when module initialization is involved. Nothing in this module
// expects or supports true parallel execution of interpreted code.
package corevm
