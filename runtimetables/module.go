package runtimetables

import (
	"sync"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/object"
)

// Module is a single entry in the modules dict: a name-qualified
// namespace of global bindings (spec §3: "the bound globals dict" a
// Function closes over; spec §4.4: "Modules dict: a mapping from
// module name to module object").
type Module struct {
	Name string

	mu      sync.RWMutex
	globals map[string]object.Ref
}

// NewModule creates an empty module namespace.
func NewModule(name string) *Module {
	return &Module{Name: name, globals: make(map[string]object.Ref)}
}

// Lookup and Set satisfy bytecode.Globals.
func (m *Module) Lookup(name string) (object.Ref, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.globals[name]
	return v, ok
}

func (m *Module) Set(name string, v object.Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globals[name] = v
}

var _ bytecode.Globals = (*Module)(nil)

// Roots returns every value this module's globals hold, for a GC root
// scan (spec §4.2 step 1: "the modules dict" is a root source).
func (m *Module) Roots() []object.Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]object.Ref, 0, len(m.globals))
	for _, v := range m.globals {
		out = append(out, v)
	}
	return out
}

// NativeInitializer builds one built-in module's globals from Go code
// rather than from a frozen bytecode blob (spec §4.4: "native module
// initializers registered in a table").
type NativeInitializer func(m *Module)

// Modules is the process-(or per-runtime-)wide name -> Module dict.
type Modules struct {
	mu   sync.RWMutex
	byName map[string]*Module

	nativeInits map[string]NativeInitializer
}

// NewModules creates an empty modules dict.
func NewModules() *Modules {
	return &Modules{
		byName:      make(map[string]*Module),
		nativeInits: make(map[string]NativeInitializer),
	}
}

// RegisterNative records a native initializer for a built-in module
// name, to be run the first time that module is imported.
func (ms *Modules) RegisterNative(name string, init NativeInitializer) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.nativeInits[name] = init
}

// Get returns the already-initialized module by name, if present.
func (ms *Modules) Get(name string) (*Module, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	m, ok := ms.byName[name]
	return m, ok
}

// GetOrInit returns the existing module, or runs its registered native
// initializer (if any) and installs the result. Callers importing a
// frozen-bytecode module instead create it with NewModule and store it
// via Store once its top-level code has executed. The initializer runs
// while the dict's lock is held, so concurrent first calls for the same
// name run it once; it covers native initializers only, while importlock
// serializes frozen-bytecode imports (spec §5).
func (ms *Modules) GetOrInit(name string) (*Module, bool) {
	if m, ok := ms.Get(name); ok {
		return m, true
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if m, ok := ms.byName[name]; ok {
		return m, true
	}
	init, ok := ms.nativeInits[name]
	if !ok {
		return nil, false
	}
	m := NewModule(name)
	init(m)
	ms.byName[name] = m
	return m, true
}

// Roots returns the combined roots of every installed module.
func (ms *Modules) Roots() []object.Ref {
	ms.mu.RLock()
	mods := make([]*Module, 0, len(ms.byName))
	for _, m := range ms.byName {
		mods = append(mods, m)
	}
	ms.mu.RUnlock()

	var out []object.Ref
	for _, m := range mods {
		out = append(out, m.Roots()...)
	}
	return out
}

// Store installs an already-built module under name, overwriting any
// previous entry (used after running a frozen-bytecode module's
// top-level code).
func (ms *Modules) Store(name string, m *Module) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.byName[name] = m
}
