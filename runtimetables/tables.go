package runtimetables

import (
	"github.com/skybison/corevm/intern"
	"github.com/skybison/corevm/layout"
)

// Tables bundles the four process-wide tables spec §4.4 enumerates,
// constructed once per runtime (spec §9: "there is exactly one runtime
// per process").
type Tables struct {
	Names   *intern.Table
	Layouts *layout.Registry
	Modules *Modules
	Symbols *Symbols

	// builtinLayouts holds the pristine root layout for each reserved
	// layout id (LayoutSmallInt..LayoutDictIterator), created during
	// Bootstrap before any application layout is allocated.
	builtinLayouts [numReservedLayouts]*layout.Layout
}

// New constructs an empty Tables and reserves the 31 built-in layout
// ids in the fixed order spec §4.4 requires, before any caller can
// allocate an application layout.
func New() *Tables {
	t := &Tables{
		Names:   intern.New(),
		Layouts: layout.NewRegistry(),
		Modules: NewModules(),
	}
	t.Symbols = NewSymbols(t.Names)
	for id := uint32(0); id < numReservedLayouts; id++ {
		t.builtinLayouts[id] = t.Layouts.NewRootLayout(id, 0, true)
	}
	return t
}

// BuiltinLayout returns the pristine layout reserved for one of the
// built-in type constants (LayoutSmallInt, LayoutTuple, ...).
func (t *Tables) BuiltinLayout(id uint32) *layout.Layout {
	if id >= numReservedLayouts {
		panic("runtimetables: not a reserved built-in layout id")
	}
	return t.builtinLayouts[id]
}
