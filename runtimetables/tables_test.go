package runtimetables

import "testing"

func TestNewReservesBuiltinLayoutIDsInOrder(t *testing.T) {
	tbl := New()
	for id := uint32(0); id < numReservedLayouts; id++ {
		l := tbl.BuiltinLayout(id)
		if l.ID() != id {
			t.Fatalf("builtin layout %d has id %d", id, l.ID())
		}
	}
	if FirstUserLayoutID != numReservedLayouts {
		t.Fatalf("FirstUserLayoutID = %d, want %d", FirstUserLayoutID, numReservedLayouts)
	}
}

func TestBuiltinLayoutPanicsPastReservedRange(t *testing.T) {
	tbl := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an id past the reserved range")
		}
	}()
	tbl.BuiltinLayout(numReservedLayouts)
}

func TestSymbolsIdentityComparable(t *testing.T) {
	tbl := New()
	a := tbl.Symbols.Get("__init__")
	b := tbl.Symbols.Get("__init__")
	if a != b {
		t.Fatal("repeated Get of the same symbol must return the identical Name")
	}
	c := tbl.Names.Intern("__init__")
	if a != c {
		t.Fatal("a well-known symbol must be the same Name as interning its text directly")
	}
}

func TestSymbolsGetPanicsForUnregistered(t *testing.T) {
	tbl := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unregistered symbol")
		}
	}()
	tbl.Symbols.Get("__not_a_real_symbol__")
}
