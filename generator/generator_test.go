package generator

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

// TestSendRoundTrip exercises yield-then-resume: the generator yields 1,
// then the value sent back in becomes the result the function returns.
func TestSendRoundTrip(t *testing.T) {
	code := &bytecode.Code{
		NumLocals: 1,
		StackSize: 4,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadImmediate), 1},
			[2]int{int(bytecode.OpYieldValue), 0},
			[2]int{int(bytecode.OpStoreFast), 0},
			[2]int{int(bytecode.OpLoadFast), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	fn := bytecode.NewFunction("gen", code, &testGlobals{m: map[string]object.Ref{}}, nil)

	core := interp.New(heap.New(1<<20), runtimetables.New(), 64)
	table := NewTable(core)
	ref := table.New(fn)

	yielded, ok, err := table.Send(ref, object.None)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a yield, got generator completion")
	}
	if yielded.SmallInt() != 1 {
		t.Fatalf("yielded = %v, want 1", yielded.SmallInt())
	}

	final, ok, err := table.Send(ref, object.NewSmallInt(42))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected completion, got another yield")
	}
	if final.SmallInt() != 42 {
		t.Fatalf("final = %v, want 42", final.SmallInt())
	}

	if _, _, err := table.Send(ref, object.None); err == nil {
		t.Fatal("expected an error sending into an exhausted generator")
	}
}

func TestLiveLocalsFromDropsDeadSlots(t *testing.T) {
	code := &bytecode.Code{
		NumLocals: 2,
		Bytecode: asm(
			[2]int{int(bytecode.OpLoadFast), 0},
			[2]int{int(bytecode.OpReturnValue), 0},
		),
	}
	live := liveLocalsFrom(code, 0)
	if !live.has(0) {
		t.Fatal("slot 0 is read before RETURN_VALUE, expected live")
	}
	if live.has(1) {
		t.Fatal("slot 1 is never read, expected dead")
	}
}
