// Package runtimetables owns the process-wide tables spec §4.4 lists:
// the layouts array (layout ids 0-30 reserved for immediates and
// built-in types, in a fixed order), the interned-name set, the modules
// dict, and the symbols table — plus construction of built-in modules
// from native initializers.
//
// These are carried on a Tables struct passed explicitly rather than
// held as package-level globals (spec §9 "Global mutable state": "carry
// them on a runtime context struct... there is exactly one runtime per
// process"), the same instantiate-not-globalize shape layout.Registry and
// heap.Heap already follow elsewhere in this module.
package runtimetables
