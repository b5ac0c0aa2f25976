package runtime

import (
	"bytes"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/object"
)

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func i32le(v int32) []byte { return u32le(uint32(v)) }

// moduleBlob assembles a minimal persisted module (spec §6 header plus a
// single 'c'-tagged code object) whose body is a two-instruction
// LOAD_IMMEDIATE/RETURN_VALUE sequence returning constant.
func moduleBlob(t *testing.T, constant int) []byte {
	t.Helper()
	var buf bytes.Buffer

	buf.Write(u32le(0xC0DE0001))
	buf.Write(u32le(0))
	buf.Write(u32le(0))

	buf.WriteByte('c')
	buf.WriteByte('i')
	buf.Write(i32le(0)) // argcount
	buf.WriteByte('i')
	buf.Write(i32le(0)) // kwonlyargcount
	buf.WriteByte('i')
	buf.Write(i32le(0)) // nlocals
	buf.WriteByte('i')
	buf.Write(i32le(4)) // stacksize
	buf.WriteByte('i')
	buf.Write(i32le(0)) // flags

	body := []byte{byte(bytecode.OpLoadImmediate), byte(constant), byte(bytecode.OpReturnValue), 0}
	buf.WriteByte('s')
	buf.Write(i32le(int32(len(body))))
	buf.Write(body)

	buf.WriteByte(')') // consts: empty small tuple
	buf.WriteByte(0)
	buf.WriteByte(')') // names
	buf.WriteByte(0)
	buf.WriteByte(')') // varnames
	buf.WriteByte(0)
	buf.WriteByte(')') // freevars
	buf.WriteByte(0)
	buf.WriteByte(')') // cellvars
	buf.WriteByte(0)

	buf.WriteByte('z') // filename
	buf.WriteByte(8)
	buf.WriteString("<string>")

	buf.WriteByte('z') // name
	buf.WriteByte(6)
	buf.WriteString("module")

	buf.WriteByte('i') // firstlineno
	buf.Write(i32le(1))

	buf.WriteByte('s') // lnotab: no entries
	buf.Write(i32le(0))

	return buf.Bytes()
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(Config{HeapBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	return rt
}

// TestEvalDecodesAndRunsTopLevelCode checks that decoding a
// persisted module and running its top-level code yields the constant
// its single RETURN_VALUE produces.
func TestEvalDecodesAndRunsTopLevelCode(t *testing.T) {
	rt := newTestRuntime(t)
	result, err := rt.Eval(moduleBlob(t, 7), "m")
	if err != nil {
		t.Fatal(err)
	}
	if result.SmallInt() != 7 {
		t.Fatalf("result = %v, want 7", result.SmallInt())
	}
	if _, ok := rt.Tables.Modules.Get("m"); !ok {
		t.Fatal("expected module m to be installed after Eval")
	}
}

// TestEvalAllocatesAcrossScavenge checks that running modules with a
// forced scavenge before each one still produces correct results, since
// every live value is reachable through Runtime.Roots.
func TestEvalAllocatesAcrossScavenge(t *testing.T) {
	rt := newTestRuntime(t)
	for i := 0; i < 64; i++ {
		rt.Heap.Scavenge()
		result, err := rt.Eval(moduleBlob(t, i%100), "m")
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if result.SmallInt() != i%100 {
			t.Fatalf("iteration %d: result = %v, want %d", i, result.SmallInt(), i%100)
		}
	}
}

// TestImportSerializesConcurrentFirstImports is scenario F at the
// runtime layer: two goroutines importing the same not-yet-loaded
// module converge on one decode-and-run and the same module namespace.
func TestImportSerializesConcurrentFirstImports(t *testing.T) {
	rt := newTestRuntime(t)
	var loads int32
	load := func() ([]byte, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return moduleBlob(t, 9), nil
	}

	var wg sync.WaitGroup
	results := make([]*struct {
		ok  bool
		err error
	}, 2)
	mods := make([]any, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			m, err := rt.Import("dep", load)
			results[idx] = &struct {
				ok  bool
				err error
			}{ok: err == nil, err: err}
			mods[idx] = m
		}(i)
	}
	wg.Wait()

	if loads != 1 {
		t.Fatalf("load ran %d times, want 1", loads)
	}
	for i, r := range results {
		if !r.ok {
			t.Fatalf("import %d failed: %v", i, r.err)
		}
	}
	if mods[0] != mods[1] {
		t.Fatal("expected both imports to observe the same module namespace")
	}
}

// TestSendDelegatesToGeneratorTable exercises the generator entry point
// at the runtime layer.
func TestSendDelegatesToGeneratorTable(t *testing.T) {
	rt := newTestRuntime(t)
	code := &bytecode.Code{
		NumLocals: 0,
		StackSize: 4,
		Bytecode: []byte{
			byte(bytecode.OpLoadImmediate), 5,
			byte(bytecode.OpYieldValue), 0,
			byte(bytecode.OpReturnValue), 0,
		},
	}
	fn := bytecode.NewFunction("g", code, noopGlobals{}, nil)
	ref := rt.NewGenerator(fn)

	yielded, ok, err := rt.Send(ref, object.None)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || yielded.SmallInt() != 5 {
		t.Fatalf("yielded = %v, ok = %v, want 5, true", yielded, ok)
	}

	final, ok, err := rt.Send(ref, object.None)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected generator completion")
	}
	_ = final
}

type noopGlobals struct{}

func (noopGlobals) Lookup(name string) (object.Ref, bool) { return object.None, false }
func (noopGlobals) Set(name string, v object.Ref)          {}
