package interp

import (
	"testing"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

type testGlobals struct{ m map[string]object.Ref }

func (g *testGlobals) Lookup(name string) (object.Ref, bool) { v, ok := g.m[name]; return v, ok }
func (g *testGlobals) Set(name string, v object.Ref)         { g.m[name] = v }

func newTestInterp() *Interp {
	h := heap.New(1 << 20)
	tables := runtimetables.New()
	return New(h, tables, 256)
}

func asm(instructions ...[2]int) []byte {
	var out []byte
	for _, in := range instructions {
		out = append(out, byte(in[0]), byte(in[1]))
	}
	return out
}

// TestScenarioASmallIntAddition implements spec §8 scenario A:
// LOAD_IMMEDIATE 3; LOAD_IMMEDIATE 4; BINARY_ADD; RETURN_VALUE -> 7.
func TestScenarioASmallIntAddition(t *testing.T) {
	i := newTestInterp()
	code := &bytecode.Code{
		StackSize: 4,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadImmediate), 3},
			[2]int{int(bytecode.OpLoadImmediate), 4},
			[2]int{int(bytecode.OpBinaryAddAnamorphic), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	fn := bytecode.NewFunction("f", code, &testGlobals{m: map[string]object.Ref{}}, nil)

	result, err := i.Call(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsSmallInt() || result.SmallInt() != 7 {
		t.Fatalf("got %v, want small int 7", result)
	}

	// The anamorphic add site must have specialized to BINARY_ADD_SMALLINT
	// after running once with two small-int operands.
	if bytecode.Op(fn.Bytecode[4]) != bytecode.OpBinaryAddSmallInt {
		t.Fatalf("add site did not specialize: %v", bytecode.Op(fn.Bytecode[4]))
	}
}

// TestScenarioBOverflowPromotion implements spec §8 scenario B: adding
// the maximum small integer to 1 promotes to a heap large integer equal
// to MaxSmallInt + 1.
func TestScenarioBOverflowPromotion(t *testing.T) {
	i := newTestInterp()
	h := i.Heap

	code := &bytecode.Code{
		StackSize: 4,
		Consts:    []object.Ref{object.NewSmallInt(object.MaxSmallInt), object.NewSmallInt(1)},
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadConst), 0},
			[2]int{int(bytecode.OpLoadConst), 1},
			[2]int{int(bytecode.OpBinaryAddAnamorphic), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	fn := bytecode.NewFunction("f", code, &testGlobals{m: map[string]object.Ref{}}, nil)

	result, err := i.Call(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsSmallInt() {
		t.Fatalf("expected promotion to a heap large integer, got small int %d", result.SmallInt())
	}
	if !isLargeInt(h, result) {
		t.Fatal("result is not tagged as a large integer")
	}
	got := refToBig(h, result)
	want := uint64(object.MaxSmallInt) + 1
	if got.Sign() < 0 || got.Uint64() != want {
		t.Fatalf("got %v, want %d", got, want)
	}
}

func TestLoadStoreFastAndGlobal(t *testing.T) {
	i := newTestInterp()
	code := &bytecode.Code{
		NumLocals: 1,
		StackSize: 4,
		Names:     []string{"g"},
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadFast), 0},
			[2]int{int(bytecode.OpStoreGlobal), 0},
			[2]int{int(bytecode.OpLoadGlobal), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	globals := &testGlobals{m: map[string]object.Ref{}}
	fn := bytecode.NewFunction("f", code, globals, nil)

	result, err := i.Call(fn, []object.Ref{object.NewSmallInt(42)})
	if err != nil {
		t.Fatal(err)
	}
	if result.SmallInt() != 42 {
		t.Fatalf("got %v", result)
	}
}

func TestRecursiveCallThroughMakeCallable(t *testing.T) {
	i := newTestInterp()
	globals := &testGlobals{m: map[string]object.Ref{}}

	inner := bytecode.NewFunction("inner", &bytecode.Code{
		StackSize: 2,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadFast), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
		NumLocals: 1,
	}, globals, nil)
	innerRef := i.MakeCallable(inner)
	globals.Set("inner", innerRef)

	outer := bytecode.NewFunction("outer", &bytecode.Code{
		StackSize: 4,
		Names:     []string{"inner"},
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadGlobal), 0},
			[2]int{int(bytecode.OpLoadImmediate), 9},
			[2]int{int(bytecode.OpCallFunction), 1},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}, globals, nil)

	result, err := i.Call(outer, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.SmallInt() != 9 {
		t.Fatalf("got %v, want 9", result)
	}
}

func TestRaiseUnwindsToExceptHandler(t *testing.T) {
	i := newTestInterp()
	globals := &testGlobals{m: map[string]object.Ref{}}
	code := &bytecode.Code{
		StackSize: 4,
		Consts:    []object.Ref{object.NewSmallInt(1), object.NewSmallInt(2)},
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadConst), 0},
			[2]int{int(bytecode.OpSetupExcept), 6}, // handler at pc 6
			[2]int{int(bytecode.OpRaiseVarargs), 0},
			[2]int{int(bytecode.OpPopTop), 0}, // handler: pop the error sentinel
			[2]int{int(bytecode.OpLoadConst), 1},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	fn := bytecode.NewFunction("f", code, globals, nil)
	result, err := i.Call(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.SmallInt() != 2 {
		t.Fatalf("got %v, want 2 (handler ran)", result)
	}
}

func TestUnhandledRaisePropagatesAsError(t *testing.T) {
	i := newTestInterp()
	globals := &testGlobals{m: map[string]object.Ref{}}
	code := &bytecode.Code{
		StackSize: 4,
		Bytecode: asm(
			[2]int{int(bytecode.OpRaiseVarargs), 0},
		),
	}
	fn := bytecode.NewFunction("f", code, globals, nil)
	_, err := i.Call(fn, nil)
	if err == nil {
		t.Fatal("expected an unhandled-exception error")
	}
}
