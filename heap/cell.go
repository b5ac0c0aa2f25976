package heap

import "github.com/skybison/corevm/object"

// cell is the heap-internal storage for one allocated object: a header word
// plus whichever payload its format calls for. Byte arrays and the packed
// data-array formats use bytes; tuples and instances use refs, with an
// instance's overflow attribute tuple reference always the last element of
// refs (spec §3, "Instance entity").
type cell struct {
	header object.Ref
	bytes  []byte
	refs   []object.Ref
}

func (c *cell) format() object.Format { return c.header.HeaderFormat() }

// approxSize estimates the cell's footprint for the semispace budget. It
// does not need to be exact, only monotonic in payload size, since it only
// gates when a scavenge runs.
func (c *cell) approxSize() int {
	const headerWords = 8
	return headerWords + len(c.bytes) + len(c.refs)*8
}
