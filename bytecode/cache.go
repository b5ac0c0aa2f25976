package bytecode

// CacheKind is the state of a Cache, one inline-cache slot attached to a
// single call site (one per instruction Pos). Empty caches have Kind CacheEmpty; a first miss
// fills the monomorphic entry, a second distinct layout promotes to
// polymorphic, and a cache already polymorphic evicts its oldest entry
// to admit a new one past polyCapacity (spec invariant 8).
type CacheKind uint8

const (
	CacheEmpty CacheKind = iota
	CacheMonomorphic
	CachePolymorphic
)

const polyCapacity = 4

// polyEntry pairs the layout id this entry specializes for with the
// cached value (an attribute offset, a resolved function, etc. — the
// cache is agnostic to what Value means, callers interpret it).
type polyEntry struct {
	layoutID uint32
	value    uint64
}

// Cache is an inline cache attached to one bytecode site.
type Cache struct {
	kind CacheKind

	monoLayoutID uint32
	monoValue    uint64

	poly    []polyEntry
	nextEvt int // index of the next entry FIFO eviction will replace
}

// Kind reports the cache's current specialization state.
func (c *Cache) Kind() CacheKind { return c.kind }

// Lookup returns the cached value for layoutID, if any entry (mono or
// poly) matches it.
func (c *Cache) Lookup(layoutID uint32) (uint64, bool) {
	switch c.kind {
	case CacheMonomorphic:
		if c.monoLayoutID == layoutID {
			return c.monoValue, true
		}
	case CachePolymorphic:
		for _, e := range c.poly {
			if e.layoutID == layoutID {
				return e.value, true
			}
		}
	}
	return 0, false
}

// Fill records value for layoutID, promoting the cache's state as
// necessary: empty -> monomorphic on first fill, monomorphic ->
// polymorphic the first time a second distinct layout appears, and
// FIFO eviction of the oldest polymorphic entry once four are already
// present and a fifth distinct layout arrives.
func (c *Cache) Fill(layoutID uint32, value uint64) {
	switch c.kind {
	case CacheEmpty:
		c.kind = CacheMonomorphic
		c.monoLayoutID = layoutID
		c.monoValue = value

	case CacheMonomorphic:
		if c.monoLayoutID == layoutID {
			c.monoValue = value
			return
		}
		c.kind = CachePolymorphic
		c.poly = []polyEntry{
			{layoutID: c.monoLayoutID, value: c.monoValue},
			{layoutID: layoutID, value: value},
		}

	case CachePolymorphic:
		for i, e := range c.poly {
			if e.layoutID == layoutID {
				c.poly[i].value = value
				return
			}
		}
		if len(c.poly) < polyCapacity {
			c.poly = append(c.poly, polyEntry{layoutID: layoutID, value: value})
			return
		}
		c.poly[c.nextEvt] = polyEntry{layoutID: layoutID, value: value}
		c.nextEvt = (c.nextEvt + 1) % polyCapacity
	}
}

// Len reports how many distinct layouts are currently cached.
func (c *Cache) Len() int {
	switch c.kind {
	case CacheMonomorphic:
		return 1
	case CachePolymorphic:
		return len(c.poly)
	default:
		return 0
	}
}

// CacheTable holds one Cache per specializable instruction, keyed by
// the instruction's byte position in the owning Code's bytecode.
type CacheTable struct {
	byPos map[int]*Cache
}

// NewCacheTable creates an empty cache table.
func NewCacheTable() *CacheTable {
	return &CacheTable{byPos: make(map[int]*Cache)}
}

// At returns the Cache for the instruction at pos, creating an empty
// one on first reference.
func (t *CacheTable) At(pos int) *Cache {
	if c, ok := t.byPos[pos]; ok {
		return c
	}
	c := &Cache{}
	t.byPos[pos] = c
	return c
}
