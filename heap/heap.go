package heap

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/skybison/corevm/object"
)

// FatalError reports the failure spec §4.2 calls out: the promoted live set
// genuinely exceeds one semispace. It is a programming-visible abort, not a
// recoverable condition (spec §7, "fatal runtime error").
type FatalError struct {
	Requested int
	Capacity  int
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("heap: out of memory (live set %d bytes exceeds semispace capacity %d bytes)", e.Requested, e.Capacity)
}

// RootProvider enumerates every Ref a scavenge must treat as reachable: the
// thread's frame chain and value stacks, the modules table, the interned
// set, the layout table, and the symbols table (spec §4.2 step 1).
type RootProvider interface {
	Roots() []object.Ref
}

// Stats summarizes one scavenge cycle, returned for tests and for the debug
// TUI (cmd/corevmtrace), the same reporting shape as resource.Event.
type Stats struct {
	Copied      int // live cells copied to to-space
	Reclaimed   int // handles dropped because nothing reached them
	WeakCleared int // weak refs whose callback was enqueued this cycle
	BytesLive   int
}

// Heap is a pair of equal-sized semispaces plus the handle table that makes
// Go-side indirection do the work a raw forwarding pointer does in the
// original.
type Heap struct {
	mu sync.Mutex

	capacityBytes int
	usedBytes     int

	active []*cell // "from" space; allocation always targets this slice
	handle map[object.Handle]int
	next   object.Handle
	free   []object.Handle

	roots RootProvider
	weak  *WeakTable
	hash  *hashState

	log *zap.Logger
}

// New creates a heap whose each semispace may hold up to capacityBytes of
// estimated live data.
func New(capacityBytes int) *Heap {
	return &Heap{
		capacityBytes: capacityBytes,
		handle:        make(map[object.Handle]int),
		next:          1, // handle 0 is reserved, never issued
		weak:          newWeakTable(),
		hash:          newHashState(),
		log:           zap.NewNop(),
	}
}

// SetLogger attaches a logger; defaults to a no-op logger (teacher idiom:
// engine.Logger()).
func (h *Heap) SetLogger(l *zap.Logger) {
	if l != nil {
		h.log = l
	}
}

// SetRootProvider wires the component that enumerates GC roots. It must be
// called before any allocation can trigger an automatic scavenge.
func (h *Heap) SetRootProvider(rp RootProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots = rp
}

// SetHashSeed pins the identity-hash seed for byte payloads, addressing
// spec §9's open question about reproducibility: callers that need
// deterministic hashes across runs supply a fixed seed; callers that do not
// care can leave the default process-random seed in place.
func (h *Heap) SetHashSeed(seed uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hash.setSeed(seed)
}

func (h *Heap) allocHandle(idx int) object.Handle {
	var hd object.Handle
	if n := len(h.free); n > 0 {
		hd = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		hd = h.next
		h.next++
	}
	h.handle[hd] = idx
	return hd
}

func (h *Heap) cellOf(hd object.Handle) (*cell, bool) {
	idx, ok := h.handle[hd]
	if !ok {
		return nil, false
	}
	return h.active[idx], true
}

// allocate inserts c into the active space, scavenging first if the bump
// allocator would cross the semispace boundary (spec §4.2).
func (h *Heap) allocate(c *cell) object.Ref {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := c.approxSize()
	if h.usedBytes+size > h.capacityBytes {
		h.scavengeLocked()
		if h.usedBytes+size > h.capacityBytes {
			panic(&FatalError{Requested: h.usedBytes + size, Capacity: h.capacityBytes})
		}
	}

	idx := len(h.active)
	h.active = append(h.active, c)
	h.usedBytes += size
	hd := h.allocHandle(idx)
	return object.NewHeapRef(hd)
}

// NewByteArray allocates a raw byte payload (format: byte array).
func (h *Heap) NewByteArray(data []byte) object.Ref {
	return h.NewByteArrayTyped(0, data)
}

// NewByteArrayTyped is NewByteArray with an explicit layout id, used for
// byte-array-backed values that are not plain strings (e.g. a large
// integer's sign-and-magnitude encoding).
func (h *Heap) NewByteArrayTyped(layoutID uint32, data []byte) object.Ref {
	buf := append([]byte(nil), data...)
	c := &cell{header: object.NewHeader(object.FormatByteArray, layoutID, 0, clampCount(len(buf))), bytes: buf}
	return h.allocate(c)
}

// NewTuple allocates a fixed reference array (format: reference array).
func (h *Heap) NewTuple(elems []object.Ref) object.Ref {
	buf := append([]object.Ref(nil), elems...)
	c := &cell{header: object.NewHeader(object.FormatReferenceArray, 0, 0, clampCount(len(buf))), refs: buf}
	return h.allocate(c)
}

// NewInstance allocates a reference instance: layoutID in-object attribute
// slots (refs[:n]) followed by the overflow tuple reference (refs[n], the
// spec-mandated last slot). overflow must itself be a tuple Ref (typically
// the empty tuple).
func (h *Heap) NewInstance(layoutID uint32, inObject []object.Ref, overflow object.Ref) object.Ref {
	refs := make([]object.Ref, 0, len(inObject)+1)
	refs = append(refs, inObject...)
	refs = append(refs, overflow)
	c := &cell{header: object.NewHeader(object.FormatReferenceInstance, layoutID, 0, clampCount(len(refs)))}
	c.refs = refs
	return h.allocate(c)
}

func clampCount(n int) uint8 {
	if n >= object.CountOverflow {
		return object.CountOverflow
	}
	return uint8(n)
}

// Header returns the header word of the object ref points at.
func (h *Heap) Header(ref object.Ref) object.Ref {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cellOf(ref.HeapHandle())
	if !ok {
		panic("heap: dereferencing a collected or invalid handle")
	}
	return c.header
}

// Bytes returns the payload of a byte-array-formatted object.
func (h *Heap) Bytes(ref object.Ref) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cellOf(ref.HeapHandle())
	if !ok {
		panic("heap: dereferencing a collected or invalid handle")
	}
	return c.bytes
}

// Refs returns the payload of a reference-array/instance-formatted object.
func (h *Heap) Refs(ref object.Ref) []object.Ref {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cellOf(ref.HeapHandle())
	if !ok {
		panic("heap: dereferencing a collected or invalid handle")
	}
	return c.refs
}

// SetRef overwrites one element of a reference-array/instance payload, used
// by attribute stores and list mutation.
func (h *Heap) SetRef(ref object.Ref, index int, value object.Ref) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.cellOf(ref.HeapHandle())
	if !ok {
		panic("heap: dereferencing a collected or invalid handle")
	}
	c.refs[index] = value
}

// Scavenge runs a full collection cycle (spec §4.2) and returns stats for
// diagnostics. Safe to call directly (e.g. from tests exercising invariant
// 6) in addition to the automatic trigger inside allocate.
func (h *Heap) Scavenge() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scavengeLocked()
}

func (h *Heap) scavengeLocked() Stats {
	var roots []object.Ref
	if h.roots != nil {
		roots = h.roots.Roots()
	}

	toSpace := make([]*cell, 0, len(h.active))
	copied := make(map[object.Handle]int, len(h.handle))
	var queue []object.Handle

	var copyLive func(object.Handle)
	copyLive = func(hd object.Handle) {
		if _, done := copied[hd]; done {
			return
		}
		idx, ok := h.handle[hd]
		if !ok {
			return
		}
		newIdx := len(toSpace)
		toSpace = append(toSpace, h.active[idx])
		copied[hd] = newIdx
		queue = append(queue, hd)
	}

	for _, r := range roots {
		if r.IsHeap() {
			copyLive(r.HeapHandle())
		}
	}
	// Cheney scan: walk to-space from the front, discovering more live
	// objects as we go, until the queue is exhausted.
	for qi := 0; qi < len(queue); qi++ {
		c := toSpace[copied[queue[qi]]]
		for _, r := range c.refs {
			if r.IsHeap() {
				copyLive(r.HeapHandle())
			}
		}
	}

	cleared := h.weak.sweep(copied)

	reclaimed := len(h.handle) - len(copied)
	bytesLive := 0
	for _, c := range toSpace {
		bytesLive += c.approxSize()
	}

	h.active = toSpace
	h.handle = copied
	h.usedBytes = bytesLive
	h.free = nil

	stats := Stats{Copied: len(toSpace), Reclaimed: reclaimed, WeakCleared: cleared, BytesLive: bytesLive}
	h.log.Debug("scavenge complete",
		zap.Int("copied", stats.Copied),
		zap.Int("reclaimed", stats.Reclaimed),
		zap.Int("weak_cleared", stats.WeakCleared),
		zap.Int("bytes_live", stats.BytesLive),
	)
	return stats
}

// Weak returns the heap's weak-reference table.
func (h *Heap) Weak() *WeakTable { return h.weak }
