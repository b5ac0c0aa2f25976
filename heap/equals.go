package heap

import (
	"bytes"

	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// Equals implements spec §4.1's equals(a, b): pointer (handle) equality for
// everything except long strings, which delegate to a byte-wise comparison.
// Every other byte-array-format heap type — large ints, floats, complex,
// and plain byte arrays — stays identity-only even though they share the
// same header format as strings.
func (h *Heap) Equals(a, b object.Ref) bool {
	if a == b {
		return true
	}
	if a.Tag() != b.Tag() {
		return false
	}
	if a.Tag() != object.TagHeap {
		return false // distinct immediates of the same tag are distinct values
	}

	h.mu.Lock()
	ca, aok := h.cellOf(a.HeapHandle())
	cb, bok := h.cellOf(b.HeapHandle())
	h.mu.Unlock()
	if !aok || !bok {
		return false
	}
	if ca.format() != object.FormatByteArray || cb.format() != object.FormatByteArray {
		return false
	}
	if ca.header.HeaderLayoutID() != runtimetables.LayoutStr || cb.header.HeaderLayoutID() != runtimetables.LayoutStr {
		return false
	}
	return bytes.Equal(ca.bytes, cb.bytes)
}
