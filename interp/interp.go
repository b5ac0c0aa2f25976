package interp

import (
	"fmt"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/frame"
	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/layout"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// Continuation is the small enum an opcode handler returns to direct
// the interpreter's next step (spec §4.7).
type Continuation uint8

const (
	Next Continuation = iota
	Unwind
	Return
	Yield
)

// RaisedError wraps a user-level exception propagating out of the
// interpreter loop (spec §7's pending-exception state surfaced to Go
// callers as a normal error).
type RaisedError struct {
	Value object.Ref
}

func (e *RaisedError) Error() string {
	return fmt.Sprintf("interp: unhandled exception: %v", e.Value)
}

// Interp is the reference interpreter: a plain dispatch loop over Op,
// with no assembled fast path (spec §4.7's "canonical interpreter").
type Interp struct {
	Heap   *heap.Heap
	Tables *runtimetables.Tables
	Thread *frame.Thread

	// functions maps a heap handle (the function's reference identity,
	// as seen on the value stack) back to the *bytecode.Function it
	// represents. heap.Heap stores only the tagged-ref/header/payload
	// triple it knows how to scavenge; the richer Function value lives
	// here, keyed by the same handle, mirroring how Layout ids index
	// into layout.Registry rather than living inside the Ref itself.
	functions map[object.Handle]*bytecode.Function
}

// New creates a reference interpreter sharing h and tables, with a
// fresh thread bounded to maxDepth frames.
func New(h *heap.Heap, tables *runtimetables.Tables, maxDepth int) *Interp {
	return &Interp{
		Heap:      h,
		Tables:    tables,
		Thread:    frame.NewThread(maxDepth),
		functions: make(map[object.Handle]*bytecode.Function),
	}
}

// MakeCallable allocates a heap identity for fn and registers it so
// later CALL_FUNCTION opcodes resolve back to it. Returns the Ref to
// push as the callable value (e.g. into a module's globals).
func (i *Interp) MakeCallable(fn *bytecode.Function) object.Ref {
	ref := i.Heap.NewInstance(runtimetables.LayoutFunction, nil, i.Heap.NewTuple(nil))
	i.functions[ref.HeapHandle()] = fn
	return ref
}

func (i *Interp) lookupFunction(ref object.Ref) (*bytecode.Function, bool) {
	if !ref.IsHeap() {
		return nil, false
	}
	fn, ok := i.functions[ref.HeapHandle()]
	return fn, ok
}

// Call pushes a frame for fn and runs it to completion, returning its
// result (spec §4.7's RETURN continuation) or propagating an unhandled
// exception as a Go error.
func (i *Interp) Call(fn *bytecode.Function, args []object.Ref) (object.Ref, error) {
	if fn.IsIntrinsic() {
		v, err := fn.Intrinsic(args, nil)
		if err != nil {
			return object.Error, err
		}
		return v, nil
	}

	f, err := i.Thread.PushFrame(fn, fn.Code.NumLocals)
	if err != nil {
		return object.Error, err
	}
	copy(f.Locals, args)

	for {
		cont, result, err := i.Step(f)
		switch cont {
		case Next:
			continue
		case Return:
			i.Thread.PopFrame()
			return result, nil
		case Yield:
			i.Thread.PopFrame()
			return result, nil
		case Unwind:
			i.Thread.PopFrame()
			return object.Error, err
		}
	}
}

// Step decodes and executes the single instruction at f.PC, returning
// the continuation that directs the outer loop. Exported so the
// machine package's handler-threaded dispatcher can re-enter this
// reference implementation as its generic stub for any opcode that has
// no hand-specialized handler slot (spec §4.8: "one generic stub per
// opcode that re-enters C++").
func (i *Interp) Step(f *frame.Frame) (Continuation, object.Ref, error) {
	inst, next := bytecode.DecodeAt(f.Function.Bytecode, f.PC)
	f.PC = next

	switch inst.Op {
	case bytecode.OpPopTop:
		f.Pop()
		return Next, object.None, nil

	case bytecode.OpLoadConst:
		f.Push(f.Function.Code.Consts[inst.Arg])
		return Next, object.None, nil

	case bytecode.OpLoadImmediate:
		f.Push(object.NewSmallInt(int64(int32(inst.Arg))))
		return Next, object.None, nil

	case bytecode.OpLoadFast:
		f.Push(f.Locals[inst.Arg])
		return Next, object.None, nil

	case bytecode.OpStoreFast:
		f.Locals[inst.Arg] = f.Pop()
		return Next, object.None, nil

	case bytecode.OpLoadGlobal:
		name := f.Function.Code.Names[inst.Arg]
		v, ok := f.Function.Globals.Lookup(name)
		if !ok {
			return i.raise(f, fmt.Errorf("interp: undefined global %q", name))
		}
		f.Push(v)
		return Next, object.None, nil

	case bytecode.OpStoreGlobal:
		name := f.Function.Code.Names[inst.Arg]
		f.Function.Globals.Set(name, f.Pop())
		return Next, object.None, nil

	case bytecode.OpBinaryAddAnamorphic, bytecode.OpBinaryAddSmallInt:
		return i.binaryAdd(f, inst)

	case bytecode.OpLoadAttrAnamorphic, bytecode.OpLoadAttrInstance, bytecode.OpLoadAttrPolymorphic:
		return i.loadAttr(f, inst)

	case bytecode.OpStoreAttrAnamorphic, bytecode.OpStoreAttrInstanceOverflow:
		return i.storeAttr(f, inst)

	case bytecode.OpBinarySubscrAnamorphic, bytecode.OpBinarySubscrList:
		return i.binarySubscr(f)

	case bytecode.OpJumpAbsolute:
		f.PC = int(inst.Arg)
		return Next, object.None, nil

	case bytecode.OpJumpForward:
		f.PC = next + int(inst.Arg)
		return Next, object.None, nil

	case bytecode.OpPopJumpIfFalse:
		v := f.Pop()
		if isFalsy(v) {
			f.PC = int(inst.Arg)
		}
		return Next, object.None, nil

	case bytecode.OpSetupExcept:
		f.PushBlock(frame.BlockExcept, int(inst.Arg))
		return Next, object.None, nil

	case bytecode.OpSetupFinally:
		f.PushBlock(frame.BlockFinally, int(inst.Arg))
		return Next, object.None, nil

	case bytecode.OpSetupLoop:
		f.PushBlock(frame.BlockLoop, int(inst.Arg))
		return Next, object.None, nil

	case bytecode.OpPopBlock:
		f.PopBlock()
		return Next, object.None, nil

	case bytecode.OpPopExcept:
		f.PopBlock()
		return Next, object.None, nil

	case bytecode.OpBuildTuple:
		n := int(inst.Arg)
		elems := make([]object.Ref, n)
		for k := n - 1; k >= 0; k-- {
			elems[k] = f.Pop()
		}
		f.Push(i.Heap.NewTuple(elems))
		return Next, object.None, nil

	case bytecode.OpCallFunction:
		return i.call(f, inst)

	case bytecode.OpRaiseVarargs:
		v := f.Pop()
		return i.raise(f, &RaisedError{Value: v})

	case bytecode.OpReturnValue:
		return Return, f.Pop(), nil

	case bytecode.OpYieldValue:
		return Yield, f.Pop(), nil

	default:
		return i.raise(f, fmt.Errorf("interp: unimplemented opcode %v", inst.Op))
	}
}

func isFalsy(v object.Ref) bool {
	switch {
	case v.IsNone():
		return true
	case v.IsBool():
		return !v.BoolValue()
	case v.IsSmallInt():
		return v.SmallInt() == 0
	default:
		return false
	}
}

// raise begins exception propagation (spec §4.7 UNWIND): walk the
// current frame's block stack in reverse, dispatching to the first
// except/finally entry found; if none remains the frame itself unwinds
// to the caller (here, returned as Unwind to Call, which pops the
// frame and the exception keeps propagating to Go's own call stack).
func (i *Interp) raise(f *frame.Frame, cause error) (Continuation, object.Ref, error) {
	for f.HasBlock() {
		b := f.TopBlock()
		if b.Kind == frame.BlockExcept || b.Kind == frame.BlockFinally {
			f.PopBlock()
			f.TruncateStack(b.ValueStackLevel)
			f.Push(object.Error)
			f.PC = b.HandlerPC
			return Next, object.None, nil
		}
		f.PopBlock()
	}
	return Unwind, object.Error, cause
}

func (i *Interp) binaryAdd(f *frame.Frame, inst bytecode.Instruction) (Continuation, object.Ref, error) {
	b := f.Pop()
	a := f.Pop()
	if a.IsSmallInt() && b.IsSmallInt() {
		f.Function.Specialize(inst.Pos, false)
	}
	f.Push(addNumeric(i.Heap, a, b))
	return Next, object.None, nil
}

func (i *Interp) loadAttr(f *frame.Frame, inst bytecode.Instruction) (Continuation, object.Ref, error) {
	name := f.Function.Code.Names[inst.Arg]
	recv := f.Pop()
	if !recv.IsHeap() {
		return i.raise(f, fmt.Errorf("interp: LOAD_ATTR on non-heap receiver"))
	}
	l := i.Tables.Layouts.ByID(i.Heap.Header(recv).HeaderLayoutID())
	interned := i.Tables.Names.Intern(name)
	info, ok := layout.FindAttribute(l, interned)
	if !ok {
		return i.raise(f, fmt.Errorf("interp: no attribute %q", name))
	}
	refs := i.Heap.Refs(recv)
	var v object.Ref
	if info.Flags.IsInObject() {
		v = refs[info.Offset]
		f.Function.Caches.At(inst.Pos).Fill(l.ID(), uint64(info.Offset))
		f.Function.Specialize(inst.Pos, f.Function.Caches.At(inst.Pos).Kind() == bytecode.CachePolymorphic)
	} else {
		overflow := refs[len(refs)-1]
		v = i.Heap.Refs(overflow)[info.Offset]
	}
	f.Push(v)
	return Next, object.None, nil
}

func (i *Interp) storeAttr(f *frame.Frame, inst bytecode.Instruction) (Continuation, object.Ref, error) {
	name := f.Function.Code.Names[inst.Arg]
	recv := f.Pop()
	val := f.Pop()
	if !recv.IsHeap() {
		return i.raise(f, fmt.Errorf("interp: STORE_ATTR on non-heap receiver"))
	}
	l := i.Tables.Layouts.ByID(i.Heap.Header(recv).HeaderLayoutID())
	interned := i.Tables.Names.Intern(name)
	info, ok := layout.FindAttribute(l, interned)
	if !ok {
		return i.raise(f, fmt.Errorf("interp: no attribute %q", name))
	}
	if info.Flags.IsInObject() {
		i.Heap.SetRef(recv, info.Offset, val)
	} else {
		refs := i.Heap.Refs(recv)
		overflow := refs[len(refs)-1]
		i.Heap.SetRef(overflow, info.Offset, val)
		f.Function.Specialize(inst.Pos, false)
	}
	return Next, object.None, nil
}

func (i *Interp) binarySubscr(f *frame.Frame) (Continuation, object.Ref, error) {
	idx := f.Pop()
	recv := f.Pop()
	if !recv.IsHeap() || !idx.IsSmallInt() {
		return i.raise(f, fmt.Errorf("interp: BINARY_SUBSCR on unsupported operands"))
	}
	refs := i.Heap.Refs(recv)
	n := idx.SmallInt()
	if n < 0 || int(n) >= len(refs) {
		return i.raise(f, fmt.Errorf("interp: list index out of range"))
	}
	f.Push(refs[n])
	return Next, object.None, nil
}

func (i *Interp) call(f *frame.Frame, inst bytecode.Instruction) (Continuation, object.Ref, error) {
	argc := int(inst.Arg)
	args := make([]object.Ref, argc)
	for k := argc - 1; k >= 0; k-- {
		args[k] = f.Pop()
	}
	calleeRef := f.Pop()
	fn, ok := i.lookupFunction(calleeRef)
	if !ok {
		return i.raise(f, fmt.Errorf("interp: CALL_FUNCTION target is not a function"))
	}
	result, err := i.Call(fn, args)
	if err != nil {
		return i.raise(f, err)
	}
	f.Push(result)
	return Next, object.None, nil
}
