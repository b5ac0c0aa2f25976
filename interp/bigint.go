package interp

import (
	"math/big"

	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// Large integers are the heap promotion target for arithmetic that
// overflows the small-integer tag range (spec §4.1: "arithmetic that
// would overflow the tag range must promote to the large-integer heap
// object"). No example repo in the pack carries an arbitrary-precision
// integer library (the closest, coreos/go-semver, is a semver parser,
// not a bignum type), so this is grounded on the standard library's
// math/big rather than a third-party dependency — see DESIGN.md.
//
// Representation: a byte-array-formatted heap object whose payload is a
// one-byte sign (0 non-negative, 1 negative) followed by the magnitude
// in big-endian bytes (big.Int.Bytes()).

func encodeBigInt(h *heap.Heap, v *big.Int) object.Ref {
	mag := v.Bytes()
	buf := make([]byte, 1+len(mag))
	if v.Sign() < 0 {
		buf[0] = 1
	}
	copy(buf[1:], mag)
	return h.NewByteArrayTyped(runtimetables.LayoutLargeInt, buf)
}

func decodeBigInt(h *heap.Heap, ref object.Ref) *big.Int {
	buf := h.Bytes(ref)
	v := new(big.Int).SetBytes(buf[1:])
	if len(buf) > 0 && buf[0] == 1 {
		v.Neg(v)
	}
	return v
}

func isLargeInt(h *heap.Heap, ref object.Ref) bool {
	if !ref.IsHeap() {
		return false
	}
	hdr := h.Header(ref)
	return hdr.HeaderFormat() == object.FormatByteArray && hdr.HeaderLayoutID() == runtimetables.LayoutLargeInt
}

func newLargeInt(h *heap.Heap, v *big.Int) object.Ref {
	return encodeBigInt(h, v)
}

func refToBig(h *heap.Heap, ref object.Ref) *big.Int {
	if ref.IsSmallInt() {
		return big.NewInt(ref.SmallInt())
	}
	return decodeBigInt(h, ref)
}

// addNumeric implements BINARY_ADD's small-int fast path and its
// overflow promotion (spec §4.6 specialization rule, scenario B).
func addNumeric(h *heap.Heap, a, b object.Ref) object.Ref {
	if a.IsSmallInt() && b.IsSmallInt() {
		sum := a.SmallInt() + b.SmallInt()
		if object.FitsSmallInt(sum) {
			return object.NewSmallInt(sum)
		}
		return newLargeInt(h, new(big.Int).Add(big.NewInt(a.SmallInt()), big.NewInt(b.SmallInt())))
	}
	return newLargeInt(h, new(big.Int).Add(refToBig(h, a), refToBig(h, b)))
}
