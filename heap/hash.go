package heap

import (
	"hash/maphash"

	"github.com/skybison/corevm/object"
)

// hashState holds the seed used to compute identity hashes for byte
// payloads. No third-party SipHash implementation appears anywhere in the
// example pack, so this is one of the few places this module reaches for
// the standard library instead: hash/maphash is Go's own keyed,
// SipHash-family string hash, which is the closest available analogue to
// the original's "fixed-key SipHash over the payload" (spec §3). See
// DESIGN.md for the justification ledger entry.
//
// maphash deliberately does not expose a way to pin its seed from an
// arbitrary value (it randomizes per-process to resist hash-flooding), so
// "configurable" determinism (spec §9's open question) is implemented by
// switching to a plain FNV-1a over the payload, offset by the caller's seed,
// whenever SetHashSeed has been called; the process-random maphash seed
// remains the default for callers who never ask for reproducibility.
// headerHashMask keeps a hash within the header word's 30-bit hash field.
const headerHashMask = 1<<30 - 1

type hashState struct {
	pinned  bool
	pin     uint64
	seed    maphash.Seed
	counter uint32
}

func newHashState() *hashState {
	return &hashState{seed: maphash.MakeSeed(), counter: 1}
}

// setSeed pins deterministic hashing, resolving spec §9's open question in
// favor of "configurable".
func (s *hashState) setSeed(v uint64) {
	s.pinned = true
	s.pin = v
}

func (s *hashState) hashBytes(b []byte) uint32 {
	var raw uint64
	if s.pinned {
		raw = fnv1a(b, s.pin)
	} else {
		raw = maphash.Bytes(s.seed, b)
	}
	v := uint32(raw) ^ uint32(raw>>32)
	v &= headerHashMask
	if v == 0 {
		v = 1
	}
	return v
}

func fnv1a(b []byte, offset uint64) uint64 {
	const prime = 1099511628211
	h := offset ^ 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}

func (s *hashState) freshSequential() uint32 {
	v := s.counter
	s.counter++
	if s.counter == 0 {
		s.counter = 1
	}
	v &= headerHashMask
	if v == 0 {
		v = 1
	}
	return v
}

// IdentityHash implements spec §4.1's identity-hash(ref) contract: a
// non-zero value, stored lazily into the header on first request for heap
// objects, content-derived for byte arrays and long strings so equal
// strings hash equally.
func (h *Heap) IdentityHash(ref object.Ref) uint32 {
	switch ref.Tag() {
	case object.TagSmallInt:
		v := uint32(ref.SmallInt()) & headerHashMask
		if v == 0 {
			return 1
		}
		return v
	case object.TagBool:
		if ref.BoolValue() {
			return 2
		}
		return 1
	case object.TagNone:
		return 1
	case object.TagError:
		return 1
	case object.TagSmallString:
		return h.hashBytesLocked(ref.SmallStringBytes())
	case object.TagHeap:
		return h.identityHashHeap(ref)
	default:
		panic("heap: IdentityHash called on a non-value ref")
	}
}

func (h *Heap) hashBytesLocked(b []byte) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hash.hashBytes(b)
}

func (h *Heap) identityHashHeap(ref object.Ref) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.cellOf(ref.HeapHandle())
	if !ok {
		panic("heap: dereferencing a collected or invalid handle")
	}

	if existing := c.header.HeaderHash(); existing != 0 {
		return existing
	}

	var hashVal uint32
	if c.format() == object.FormatByteArray {
		hashVal = h.hash.hashBytes(c.bytes)
	} else {
		hashVal = h.hash.freshSequential()
	}
	c.header = c.header.WithHeaderHash(hashVal)
	return hashVal
}
