package machine

import (
	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/interp"
	"github.com/skybison/corevm/object"
)

// Call is the machine-interpreter entry point, the handler-threaded
// counterpart to interp.Interp.Call (spec §4.8's call protocol: frame
// push, dispatch to the first opcode; the argument count is not checked
// against the code object). Both entry points
// share the same core (heap, tables, thread) so invariant 7 can be
// tested by running the same Function through each and comparing
// results.
func (t *Table) Call(core *interp.Interp, fn *bytecode.Function, args []object.Ref) (object.Ref, error) {
	if fn.IsIntrinsic() {
		return core.Call(fn, args) // simple-builtin-N: no bytecode to dispatch
	}

	f, err := core.Thread.PushFrame(fn, fn.Code.NumLocals)
	if err != nil {
		return object.Error, err
	}
	copy(f.Locals, args)

	cont, result, err := t.Dispatch(core, f)
	core.Thread.PopFrame()
	switch cont {
	case interp.Return, interp.Yield:
		return result, nil
	default:
		return object.Error, err
	}
}
