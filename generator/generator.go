package generator

import (
	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/errors"
	"github.com/skybison/corevm/frame"
	"github.com/skybison/corevm/interp"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// snapshot is the suspended state copied out of a frame.Frame at a
// YIELD and copied back in on the next Send (spec: "yield... stores the
// live frame into its generator object").
type snapshot struct {
	locals []object.Ref
	stack  []object.Ref
	blocks []frame.Block
	pc     int
}

// Generator is one suspended coroutine. Done is set once its function
// has returned rather than yielded; sending into a done generator is an
// error, matching the usual "exhausted iterator" contract.
type Generator struct {
	fn    *bytecode.Function
	state *snapshot
	Done  bool
}

// Table is the heap-handle-indexed side table generator identities
// resolve through, mirroring interp.Interp.functions: the heap only
// ever sees an opaque instance tagged runtimetables.LayoutGenerator, and
// the real suspended state lives here.
type Table struct {
	core  *interp.Interp
	byRef map[object.Handle]*Generator
}

// NewTable builds a generator table bound to core, the same reference
// interpreter used to drive a generator's body when it is resumed.
func NewTable(core *interp.Interp) *Table {
	return &Table{core: core, byRef: make(map[object.Handle]*Generator)}
}

// New allocates a heap identity for a not-yet-started generator over
// fn, and registers its initial (PC 0, empty stack, fresh locals) state.
func (t *Table) New(fn *bytecode.Function) object.Ref {
	ref := t.core.Heap.NewInstance(runtimetables.LayoutGenerator, nil, t.core.Heap.NewTuple(nil))
	t.byRef[ref.HeapHandle()] = &Generator{
		fn: fn,
		state: &snapshot{
			locals: make([]object.Ref, fn.Code.NumLocals),
		},
	}
	return ref
}

func (t *Table) lookup(ref object.Ref) (*Generator, error) {
	if !ref.IsHeap() {
		return nil, errors.InvalidData(errors.PhaseInterp, nil, "not a generator reference")
	}
	g, ok := t.byRef[ref.HeapHandle()]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInterp, "generator", "")
	}
	return g, nil
}

// Send resumes ref with sent pushed as the result of the yield
// expression it is suspended at (object.None on the very first resume,
// when there is no pending yield to receive a value). Returns the next
// yielded value, or ok=false once fn has returned, in which case value
// is fn's return value (spec's "send copies it back").
func (t *Table) Send(ref object.Ref, sent object.Ref) (value object.Ref, ok bool, err error) {
	g, err := t.lookup(ref)
	if err != nil {
		return object.Error, false, err
	}
	if g.Done {
		return object.Error, false, errors.Unhandled(errors.PhaseInterp, "send on an exhausted generator")
	}

	f, err := t.core.Thread.PushFrame(g.fn, len(g.state.locals))
	if err != nil {
		return object.Error, false, err
	}
	copy(f.Locals, g.state.locals)
	f.PC = g.state.pc
	for _, v := range g.state.stack {
		f.Push(v)
	}
	for _, b := range g.state.blocks {
		f.RestorePushBlock(b)
	}
	if g.state.pc != 0 {
		f.Push(sent) // becomes the value of the yield expression being resumed
	}

	cont, result, stepErr := t.core.Step(f)
	for cont == interp.Next {
		cont, result, stepErr = t.core.Step(f)
	}
	t.core.Thread.PopFrame()

	switch cont {
	case interp.Yield:
		g.state = snapshotFrame(f, g.fn.Code)
		return result, true, nil
	case interp.Return:
		g.Done = true
		g.state = nil
		return result, false, nil
	default:
		g.Done = true
		g.state = nil
		return object.Error, false, stepErr
	}
}

// Roots returns every value held by a suspended generator's snapshot,
// for a GC root scan: a generator between Send calls is reachable only
// through this table, not through any live thread's frame chain, so
// its retained locals and stack would otherwise look unreachable.
func (t *Table) Roots() []object.Ref {
	var out []object.Ref
	for _, g := range t.byRef {
		if g.state == nil {
			continue
		}
		out = append(out, g.state.locals...)
		out = append(out, g.state.stack...)
	}
	return out
}

// snapshotFrame copies f's locals (trimmed to those liveLocalsFrom says
// can still be read), stack, blocks, and PC out into a heap-safe
// snapshot the frame itself can then be discarded.
func snapshotFrame(f *frame.Frame, code *bytecode.Code) *snapshot {
	live := liveLocalsFrom(code, f.PC)
	locals := make([]object.Ref, len(f.Locals))
	for i, v := range f.Locals {
		if live.has(i) {
			locals[i] = v
		} else {
			locals[i] = object.None
		}
	}

	stack := make([]object.Ref, f.StackLevel())
	for i := range stack {
		stack[i] = f.Pop()
	}
	for l, r := 0, len(stack)-1; l < r; l, r = l+1, r-1 {
		stack[l], stack[r] = stack[r], stack[l]
	}

	var blocks []frame.Block
	for f.HasBlock() {
		blocks = append([]frame.Block{f.TopBlock()}, blocks...)
		f.PopBlock()
	}

	return &snapshot{locals: locals, stack: stack, blocks: blocks, pc: f.PC}
}
