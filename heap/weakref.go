package heap

import (
	"sync"

	"github.com/skybison/corevm/object"
)

// WeakRef is a weak reference plus the callback to run once its referent is
// collected (spec §3 "Weak references are singly linked through a 'link'
// field during GC, then drained after scavenge"). The Go encoding keeps the
// queue explicit instead of threading a link field through cell storage,
// which only matters when cells are raw bytes.
type WeakRef struct {
	target  object.Handle
	cleared bool
	cb      func(*WeakRef)
}

// Referent returns the current target, or (object.None, false) once cleared.
func (w *WeakRef) Referent() (object.Ref, bool) {
	if w.cleared {
		return object.None, false
	}
	return object.NewHeapRef(w.target), true
}

// WeakTable tracks every live WeakRef and the queue of callbacks a scavenge
// has enqueued but not yet run (spec: "subsequent interpreter returns drain
// that queue"). The observer/notify shape is adapted from
// resource.UnifiedTable's lifecycle events (resource/table.go): there,
// dropping a handle notifies observers; here, collecting a referent enqueues
// exactly one callback invocation.
type WeakTable struct {
	mu      sync.Mutex
	live    map[*WeakRef]struct{}
	pending []*WeakRef
}

func newWeakTable() *WeakTable {
	return &WeakTable{live: make(map[*WeakRef]struct{})}
}

// Register creates a weak reference to target, which must be a heap Ref.
// cb is invoked at most once, with w as its sole argument, once a scavenge
// determines target is unreachable (spec scenario E).
func (t *WeakTable) Register(target object.Ref, cb func(w *WeakRef)) *WeakRef {
	if !target.IsHeap() {
		panic("heap: weak references may only target heap objects")
	}
	w := &WeakRef{target: target.HeapHandle(), cb: cb}
	t.mu.Lock()
	t.live[w] = struct{}{}
	t.mu.Unlock()
	return w
}

// sweep is called once per scavenge with the set of handles that survived.
// Any live weak ref whose target did not survive is cleared and queued;
// it returns the number cleared this cycle. A weak ref already cleared on
// a prior cycle is left alone so its callback never runs twice (spec
// scenario E: "a second forced collection does not invoke cb").
func (t *WeakTable) sweep(copied map[object.Handle]int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cleared := 0
	for w := range t.live {
		if w.cleared {
			continue
		}
		if _, ok := copied[w.target]; ok {
			continue
		}
		w.cleared = true
		t.pending = append(t.pending, w)
		cleared++
	}
	return cleared
}

// Drain runs every queued callback exactly once and empties the queue.
// Neither a scavenge nor the interpreter calls it; the caller runs it.
func (t *WeakTable) Drain() int {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, w := range pending {
		if w.cb != nil {
			w.cb(w)
		}
	}
	return len(pending)
}
