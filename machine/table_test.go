package machine

import (
	"testing"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/interp"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

type testGlobals struct{ m map[string]object.Ref }

func (g *testGlobals) Lookup(name string) (object.Ref, bool) { v, ok := g.m[name]; return v, ok }
func (g *testGlobals) Set(name string, v object.Ref)         { g.m[name] = v }

func asm(instructions ...[2]int) []byte {
	var out []byte
	for _, in := range instructions {
		out = append(out, byte(in[0]), byte(in[1]))
	}
	return out
}

// TestMachineMatchesInterpOnScenarioA is an instance of invariant 7
// (spec §8): the same bytecode program run through interp.Interp and
// through machine.Table must produce the identical final value.
func TestMachineMatchesInterpOnScenarioA(t *testing.T) {
	code := &bytecode.Code{
		StackSize: 4,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadImmediate), 3},
			[2]int{int(bytecode.OpLoadImmediate), 4},
			[2]int{int(bytecode.OpBinaryAddAnamorphic), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}

	refResult := runViaInterp(t, code)
	machResult := runViaMachine(t, code)

	if refResult.SmallInt() != machResult.SmallInt() {
		t.Fatalf("interp = %v, machine = %v", refResult, machResult)
	}
	if refResult.SmallInt() != 7 {
		t.Fatalf("got %d, want 7", refResult.SmallInt())
	}
}

func TestMachineOverflowFallsBackToGenericStub(t *testing.T) {
	code := &bytecode.Code{
		StackSize: 4,
		Consts:    []object.Ref{object.NewSmallInt(object.MaxSmallInt), object.NewSmallInt(1)},
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadConst), 0},
			[2]int{int(bytecode.OpLoadConst), 1},
			[2]int{int(bytecode.OpBinaryAddSmallInt), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	result := runViaMachine(t, code)
	if result.IsSmallInt() {
		t.Fatal("expected promotion to a heap large integer via the generic-stub fallback")
	}
}

func TestOpcodeCountingMode(t *testing.T) {
	core := interp.New(heap.New(1<<20), runtimetables.New(), 64)
	tbl := NewTable()
	tbl.Counting = true

	code := &bytecode.Code{
		StackSize: 4,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadImmediate), 1},
			[2]int{int(bytecode.OpPopTop), 0},
			[2]int{int(bytecode.OpLoadImmediate), 2},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	fn := bytecode.NewFunction("f", code, &testGlobals{m: map[string]object.Ref{}}, nil)
	if _, err := tbl.Call(core, fn, nil); err != nil {
		t.Fatal(err)
	}
	if tbl.Counts[bytecode.OpLoadImmediate] != 2 {
		t.Fatalf("LOAD_IMMEDIATE count = %d, want 2", tbl.Counts[bytecode.OpLoadImmediate])
	}
	if tbl.Counts[bytecode.OpPopTop] != 1 {
		t.Fatalf("POP_TOP count = %d, want 1", tbl.Counts[bytecode.OpPopTop])
	}
}

func TestLayoutRoundTripsThroughAssembler(t *testing.T) {
	tbl := NewTable()
	buf := tbl.Layout()

	specialized, count := ParseLayout(buf)
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
	for _, op := range []bytecode.Op{
		bytecode.OpLoadConst, bytecode.OpJumpAbsolute, bytecode.OpPopTop,
		bytecode.OpBinaryAddSmallInt, bytecode.OpLoadAttrInstance,
	} {
		if !specialized[op] {
			t.Fatalf("expected %v to be marked specialized", op)
		}
	}
	if specialized[bytecode.OpReturnValue] {
		t.Fatal("OpReturnValue has no fast path, expected unspecialized")
	}
}

func runViaInterp(t *testing.T, code *bytecode.Code) object.Ref {
	t.Helper()
	core := interp.New(heap.New(1<<20), runtimetables.New(), 64)
	fn := bytecode.NewFunction("f", code, &testGlobals{m: map[string]object.Ref{}}, nil)
	result, err := core.Call(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func runViaMachine(t *testing.T, code *bytecode.Code) object.Ref {
	t.Helper()
	core := interp.New(heap.New(1<<20), runtimetables.New(), 64)
	tbl := NewTable()
	fn := bytecode.NewFunction("f", code, &testGlobals{m: map[string]object.Ref{}}, nil)
	result, err := tbl.Call(core, fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	return result
}
