package bytecode

import (
	"testing"

	"github.com/skybison/corevm/object"
)

type fakeGlobals struct{ m map[string]object.Ref }

func (g *fakeGlobals) Lookup(name string) (object.Ref, bool) { v, ok := g.m[name]; return v, ok }
func (g *fakeGlobals) Set(name string, v object.Ref)         { g.m[name] = v }

func TestNewFunctionCopiesBytecodeIndependently(t *testing.T) {
	code := &Code{Bytecode: []byte{byte(OpLoadAttrAnamorphic), 0}}
	fn := NewFunction("f", code, &fakeGlobals{m: map[string]object.Ref{}}, nil)

	fn.Bytecode[0] = byte(OpLoadAttrInstance)
	if code.Bytecode[0] != byte(OpLoadAttrAnamorphic) {
		t.Fatal("specializing a function's bytecode must not mutate the shared Code object")
	}
}

func TestSpecializeRewritesAnamorphicInPlace(t *testing.T) {
	code := &Code{Bytecode: []byte{byte(OpLoadAttrAnamorphic), 0}}
	fn := NewFunction("f", code, &fakeGlobals{m: map[string]object.Ref{}}, nil)

	fn.Specialize(0, false)
	if Op(fn.Bytecode[0]) != OpLoadAttrInstance {
		t.Fatalf("got %v, want LOAD_ATTR_INSTANCE", Op(fn.Bytecode[0]))
	}

	// Invariant 8: never rewritten back to anamorphic. A later, redundant
	// Specialize call on an already-specialized site must not touch it.
	fn.Specialize(0, true)
	if Op(fn.Bytecode[0]) != OpLoadAttrInstance {
		t.Fatal("an already-specialized site must not be rewritten again")
	}
}

func TestIntrinsicFunctionHasNoCode(t *testing.T) {
	fn := NewIntrinsic("len", func(args []object.Ref, kwargs map[string]object.Ref) (object.Ref, error) {
		return object.NewSmallInt(int64(len(args))), nil
	})
	if !fn.IsIntrinsic() {
		t.Fatal("expected intrinsic function")
	}
	v, err := fn.Intrinsic([]object.Ref{object.Zero, object.Zero}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := v.SmallInt(); n != 2 {
		t.Fatalf("got %d, want 2", n)
	}
}
