package frame

import (
	"fmt"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/object"
)

// RecursionError reports the stack-overflow condition spec §4.5
// describes: "before pushing a frame, the thread compares the would-be
// new stack pointer to a pre-computed limit; on failure it raises a
// recursion error and unwinds."
type RecursionError struct {
	Depth int
	Limit int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("frame: maximum recursion depth exceeded (%d >= limit %d)", e.Depth, e.Limit)
}

// ExceptionState is the thread-local pending-exception record spec §7
// describes: "(type, value, traceback, previous state)".
type ExceptionState struct {
	Type      interface{}
	Value     interface{}
	Traceback interface{}
	Previous  *ExceptionState
}

// Thread owns the current frame chain and the pending-exception state
// (spec §4.5, §7). Exactly one Thread executes user code at a time
// (spec §5); additional Threads exist only to contend for the import
// lock before they may run code.
type Thread struct {
	top   *Frame
	depth int

	// MaxDepth bounds frame nesting (spec §4.5's "pre-computed limit").
	MaxDepth int

	Pending *ExceptionState
}

// NewThread creates a thread with the given recursion-depth limit.
func NewThread(maxDepth int) *Thread {
	return &Thread{MaxDepth: maxDepth}
}

// PushFrame allocates and links a new frame for calling fn, checking
// the recursion limit first.
func (t *Thread) PushFrame(fn *bytecode.Function, nlocals int) (*Frame, error) {
	if t.depth >= t.MaxDepth {
		return nil, &RecursionError{Depth: t.depth, Limit: t.MaxDepth}
	}
	f := New(t.top, fn, nlocals)
	t.top = f
	t.depth++
	return f, nil
}

// PopFrame unlinks and returns the current top frame, restoring the
// caller's frame as top.
func (t *Thread) PopFrame() *Frame {
	f := t.top
	t.top = f.Prev
	t.depth--
	return f
}

// Top returns the currently executing frame, or nil if the thread is
// not executing.
func (t *Thread) Top() *Frame { return t.top }

// Depth returns the current frame-chain depth.
func (t *Thread) Depth() int { return t.depth }

// Roots returns every value reachable from this thread's live frame
// chain: each frame's locals and value stack (spec §4.2 step 1: "the
// thread's frame chain and value stacks").
func (t *Thread) Roots() []object.Ref {
	var out []object.Ref
	for f := t.top; f != nil; f = f.Prev {
		out = append(out, f.Locals...)
		out = append(out, f.ValueStack()...)
	}
	return out
}

// RaiseStateEnter pushes a new pending-exception state, linking the
// previous one (spec §7: "the three-tuple... is pushed... control
// resumes at the handler's pc" and recovery "unwinds to whatever state
// was current on entry to the handler").
func (t *Thread) RaiseStateEnter(typ, value, traceback interface{}) {
	t.Pending = &ExceptionState{Type: typ, Value: value, Traceback: traceback, Previous: t.Pending}
}

// RaiseStateRestore unwinds back to the pending state recorded when a
// handler was entered, implementing spec §7's recovery rule.
func (t *Thread) RaiseStateRestore(saved *ExceptionState) {
	t.Pending = saved
}
