package bytecode

import "github.com/skybison/corevm/object"

// Globals is the bound namespace a Function closes over. runtimetables'
// module type satisfies it; kept as an interface here so bytecode does
// not import runtimetables (which itself depends on layout and bytecode,
// and would create a cycle).
type Globals interface {
	Lookup(name string) (object.Ref, bool)
	Set(name string, v object.Ref)
}

// Intrinsic is a native function body: the three-dispatch-entry-point
// shape spec §3 describes (call / call-with-keywords / call-with-star-
// args) is resolved by the caller's dispatch strategy, not by Function
// itself, so that interp and machine can each implement their own
// calling convention without bytecode depending on either.
type Intrinsic func(args []object.Ref, kwargs map[string]object.Ref) (object.Ref, error)

// Function is the runtime-visible callable wrapping a Code object (spec
// §3 "Function entity"). It holds metadata only: which dispatch
// strategy applies is decided by inspecting these fields (Code.Flags,
// Intrinsic presence), never by a stored function pointer, so bytecode
// has no dependency on interp or machine.
type Function struct {
	Name string

	Code    *Code
	Closure []object.Ref

	Defaults   []object.Ref
	KwDefaults map[string]object.Ref

	Globals Globals

	// Bytecode is the rewritten (specialized) copy of Code.Bytecode; it
	// starts as a byte-for-byte copy and is mutated in place as
	// anamorphic opcodes are rewritten (spec §4.6, invariant 8).
	Bytecode []byte
	Caches   *CacheTable

	// Intrinsic is non-nil for a native (builtin) function; such a
	// Function has no Code/Bytecode to interpret.
	Intrinsic Intrinsic
}

// NewFunction wraps code for interpretation, producing an independent,
// specializable copy of its bytecode and a fresh, empty cache table.
func NewFunction(name string, code *Code, globals Globals, closure []object.Ref) *Function {
	bc := make([]byte, len(code.Bytecode))
	copy(bc, code.Bytecode)
	return &Function{
		Name:     name,
		Code:     code,
		Closure:  closure,
		Globals:  globals,
		Bytecode: bc,
		Caches:   NewCacheTable(),
	}
}

// NewIntrinsic wraps a native Go function as a callable Function.
func NewIntrinsic(name string, fn Intrinsic) *Function {
	return &Function{Name: name, Intrinsic: fn}
}

// IsIntrinsic reports whether this Function dispatches to native Go
// code rather than interpreted bytecode.
func (f *Function) IsIntrinsic() bool { return f.Intrinsic != nil }

// Specialize rewrites the anamorphic instruction at pos to its
// monomorphic or polymorphic specialized opcode, once its cache entry
// has been filled by the caller (spec §4.6: "the first execution of an
// anamorphic opcode rewrites itself in place"). It is a no-op, safe to
// call redundantly, once the site is no longer anamorphic (invariant 8:
// never rewritten back to anamorphic).
func (f *Function) Specialize(pos int, polymorphic bool) {
	op := Op(f.Bytecode[pos])
	mono, poly, ok := anamorphicToSpecialized(op)
	if !ok {
		return
	}
	if polymorphic {
		f.Bytecode[pos] = byte(poly)
	} else {
		f.Bytecode[pos] = byte(mono)
	}
}
