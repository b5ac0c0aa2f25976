package generator

import "github.com/skybison/corevm/bytecode"

// liveLocalsFrom computes, conservatively, which local slots might still
// be read somewhere reachable from pc onward, for a resumed generator
// frame. It is a forward reachability walk rather than
// asyncify/internal/engine/liveness.go's backward dataflow pass, because
// this bytecode has no structured block/loop nesting to exploit — only
// flat jump targets — so the cheapest sound approximation is: walk every
// reachable instruction, and any LOAD_FAST seen marks its slot live.
// STORE_FAST is not treated as a kill (that would require knowing which
// paths dominate), so this is an over-approximation, never an
// under-approximation: every local capable of affecting the rest of the
// computation is kept, and some that are overwritten before any read may
// be kept as well.
//
// A visited-PC bitset stands in for asyncify's loop-header handling: the
// first time a backward edge is retaken, the set of locals seen so far
// might loop around through another path, so hitting an already-visited
// pc simply stops that walk branch (its effects were already folded in
// from the first visit).
func liveLocalsFrom(code *bytecode.Code, pc int) *localSet {
	live := newLocalSet(code.NumLocals)
	if code.NumLocals == 0 || pc >= len(code.Bytecode) {
		return live
	}

	visited := newLocalSet(len(code.Bytecode))
	stack := []int{pc}

	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]

		if cur < 0 || cur >= len(code.Bytecode) || visited.has(cur) {
			continue
		}
		visited.set(cur)

		inst, next := bytecode.DecodeAt(code.Bytecode, cur)
		switch inst.Op {
		case bytecode.OpLoadFast:
			live.set(int(inst.Arg))
			stack = append(stack, next)
		case bytecode.OpJumpAbsolute:
			stack = append(stack, int(inst.Arg))
		case bytecode.OpJumpForward:
			stack = append(stack, next+int(inst.Arg))
		case bytecode.OpPopJumpIfFalse:
			stack = append(stack, int(inst.Arg), next)
		case bytecode.OpSetupExcept, bytecode.OpSetupFinally, bytecode.OpSetupLoop:
			stack = append(stack, int(inst.Arg), next)
		case bytecode.OpReturnValue:
			// no successor
		default:
			stack = append(stack, next)
		}
	}
	return live
}
