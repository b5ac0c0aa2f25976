package runtime

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/cache"
	"github.com/skybison/corevm/errors"
	"github.com/skybison/corevm/generator"
	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/importlock"
	"github.com/skybison/corevm/interp"
	"github.com/skybison/corevm/machine"
	"github.com/skybison/corevm/marshal"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// Config configures a Runtime at construction (teacher idiom:
// engine.Config / engine.WazeroEngine's NewWazeroEngineWithConfig).
type Config struct {
	// HeapBytes sizes each of the two semispaces. Required.
	HeapBytes int

	// MaxRecursionDepth bounds frame nesting (spec §4.5). Zero means a
	// conservative built-in default.
	MaxRecursionDepth int

	// CacheRoot, if non-empty, turns on the on-disk bytecode cache
	// (spec §6): Eval stores each module's source bytes under their
	// content hash; a cache hit still decodes those bytes.
	CacheRoot string

	// UseMachine selects the handler-threaded dispatcher (spec §4.8)
	// over the reference interpreter's plain switch loop as the
	// top-level call driver. Both share the same core state; this only
	// picks which one drives CALL_FUNCTION's opcode loop.
	UseMachine bool

	// HashSeed pins the identity-hash seed (spec §9's reproducibility
	// open question); zero leaves the heap's own process-random default.
	HashSeed uint64

	Logger *zap.Logger
}

const defaultMaxRecursionDepth = 1000

// Runtime is the one-per-process object gluing every package together
// (spec §9: "there is exactly one runtime per process"): it owns the
// heap, the runtime tables, the import lock, the decoder inputs, the
// on-disk cache, the generator table, and both interpreter front ends.
type Runtime struct {
	cfg Config
	log *zap.Logger

	Heap   *heap.Heap
	Tables *runtimetables.Tables
	Interp *interp.Interp
	Mach   *machine.Table
	Gens   *generator.Table

	imports *importlock.Lock[*runtimetables.Module]
	cache   *cache.Cache
}

// New constructs a Runtime, wiring the heap's GC root provider back to
// this Runtime before returning it (heap.SetRootProvider must be called
// before any allocation can trigger an automatic scavenge).
func New(cfg Config) (*Runtime, error) {
	if cfg.HeapBytes <= 0 {
		return nil, errors.InvalidData(errors.PhaseMachine, nil, "runtime: HeapBytes must be positive")
	}
	maxDepth := cfg.MaxRecursionDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxRecursionDepth
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := heap.New(cfg.HeapBytes)
	h.SetLogger(log)
	if cfg.HashSeed != 0 {
		h.SetHashSeed(cfg.HashSeed)
	}

	tables := runtimetables.New()
	core := interp.New(h, tables, maxDepth)

	rt := &Runtime{
		cfg:     cfg,
		log:     log,
		Heap:    h,
		Tables:  tables,
		Interp:  core,
		Mach:    machine.NewTable(),
		Gens:    generator.NewTable(core),
		imports: importlock.New[*runtimetables.Module](),
	}
	h.SetRootProvider(rt)

	if cfg.CacheRoot != "" {
		c, err := cache.New(cfg.CacheRoot)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseMachine, errors.KindUnhandled, err, "runtime: opening bytecode cache")
		}
		rt.cache = c
	}

	return rt, nil
}

// Roots satisfies heap.RootProvider (spec §4.2 step 1): the executing
// thread's frame chain and value stacks, the modules dict, and every
// suspended generator's retained snapshot.
func (rt *Runtime) Roots() []object.Ref {
	var out []object.Ref
	out = append(out, rt.Interp.Thread.Roots()...)
	out = append(out, rt.Tables.Modules.Roots()...)
	out = append(out, rt.Gens.Roots()...)
	return out
}

// decode runs source through the marshal decoder, persisting source
// into the on-disk cache when one is configured (spec §6) so a later
// process, given the same content-addressed key, can load the module
// bytes back off disk instead of wherever source originally came from
// (network fetch, remote module store). A cache hit re-reads the same
// bytes through the pooled buffer path rather than skipping decode:
// decode itself is cheap byte parsing, not the expensive step this
// cache exists to avoid.
func (rt *Runtime) decode(source []byte) (*bytecode.Code, error) {
	raw := source
	if rt.cache != nil {
		if cached, ok, err := rt.cache.Load(source); err != nil {
			rt.log.Warn("bytecode cache read failed", zap.Error(err))
		} else if ok {
			raw = cached
		} else if err := rt.cache.Store(source, source); err != nil {
			rt.log.Warn("bytecode cache write failed", zap.Error(err))
		}
	}

	dec := marshal.NewDecoder(bytes.NewReader(raw), rt.Heap, rt.Tables.Names)
	code, err := dec.Decode()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "runtime: decoding module")
	}
	return code, nil
}

// Decode runs source through the marshal decoder (and the on-disk
// cache, if configured) without executing it, for callers that want to
// drive a frame themselves (e.g. cmd/corevmtrace's single-step debugger).
func (rt *Runtime) Decode(source []byte) (*bytecode.Code, error) {
	return rt.decode(source)
}

// Eval decodes source as a persisted module (spec §6) and runs its
// top-level code as a fresh module named name, returning the module's
// last-expression value (the top-level code's RETURN_VALUE result).
// The module is installed into the modules dict under name so a later
// Import can find it without re-running its initializer.
func (rt *Runtime) Eval(source []byte, name string) (object.Ref, error) {
	code, err := rt.decode(source)
	if err != nil {
		return object.Error, err
	}
	result, _, err := rt.run(code, name)
	return result, err
}

func (rt *Runtime) run(code *bytecode.Code, name string) (object.Ref, *runtimetables.Module, error) {
	mod := runtimetables.NewModule(name)
	fn := bytecode.NewFunction(name, code, mod, nil)

	var (
		result object.Ref
		runErr error
	)
	if rt.cfg.UseMachine {
		result, runErr = rt.callWithMachine(fn, nil)
	} else {
		result, runErr = rt.Interp.Call(fn, nil)
	}
	if runErr != nil {
		return object.Error, nil, runErr
	}
	rt.Tables.Modules.Store(name, mod)
	return result, mod, nil
}

// callWithMachine drives fn's top-level call through the
// handler-threaded dispatcher instead of the reference interpreter's
// plain loop (spec §4.8).
func (rt *Runtime) callWithMachine(fn *bytecode.Function, args []object.Ref) (object.Ref, error) {
	return rt.Mach.Call(rt.Interp, fn, args)
}

// Import resolves name through the process-wide import lock (spec §5):
// concurrent first-imports of the same name serialize on one mutex, so
// only one of them actually decodes and runs load, and every caller
// (including the one that lost the race) observes the same resulting
// module namespace.
func (rt *Runtime) Import(name string, load func() ([]byte, error)) (*runtimetables.Module, error) {
	return rt.imports.Import(name, func() (*runtimetables.Module, error) {
		if m, ok := rt.Tables.Modules.Get(name); ok {
			return m, nil
		}
		source, err := load()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseImport, errors.KindUnhandled, err, fmt.Sprintf("runtime: loading module %q", name))
		}
		code, err := rt.decode(source)
		if err != nil {
			return nil, err
		}
		_, mod, err := rt.run(code, name)
		if err != nil {
			return nil, err
		}
		return mod, nil
	})
}

// Send resumes the generator identified by ref (spec's yield/send
// protocol), delegating to the shared generator table.
func (rt *Runtime) Send(ref object.Ref, sent object.Ref) (value object.Ref, ok bool, err error) {
	return rt.Gens.Send(ref, sent)
}

// NewGenerator allocates a not-yet-started generator over fn.
func (rt *Runtime) NewGenerator(fn *bytecode.Function) object.Ref {
	return rt.Gens.New(fn)
}

// Scavenge forces an out-of-band collection cycle, exposed for tests
// and for the debug TUI (cmd/corevmtrace) rather than for normal use:
// the heap scavenges automatically as allocation demands it.
func (rt *Runtime) Scavenge() heap.Stats {
	return rt.Heap.Scavenge()
}

var _ heap.RootProvider = (*Runtime)(nil)
