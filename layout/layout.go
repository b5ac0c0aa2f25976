package layout

import "github.com/skybison/corevm/intern"

// Flags packs the attribute metadata spec §3 lists: in-object, deleted,
// fixed-offset, read-only.
type Flags uint8

const (
	FlagInObject Flags = 1 << iota
	FlagDeleted
	FlagFixedOffset
	FlagReadOnly
)

func (f Flags) IsInObject() bool   { return f&FlagInObject != 0 }
func (f Flags) IsDeleted() bool    { return f&FlagDeleted != 0 }
func (f Flags) IsFixedOffset() bool { return f&FlagFixedOffset != 0 }
func (f Flags) IsReadOnly() bool   { return f&FlagReadOnly != 0 }

// AttributeInfo records where one attribute lives: in-object slot index, or
// overflow-tuple index, according to Flags.IsInObject.
type AttributeInfo struct {
	Offset int
	Flags  Flags
}

type attrEntry struct {
	name intern.Name
	info AttributeInfo
}

// Layout is one immutable node in the hidden-class DAG (spec §3 "Layout
// entity"). Zero value is not valid; use Registry.NewRootLayout.
type Layout struct {
	id           uint32
	describedType uint32
	sealed       bool

	inObject []attrEntry // ordered; includes deleted entries, offsets never reused
	overflow []attrEntry // ordered; deletion shifts later indices down

	numInObjectSlots int

	additions   map[intern.Name]*Layout
	deletions   map[intern.Name]*Layout
	transitions map[uint32]*Layout
}

func (l *Layout) ID() uint32            { return l.id }
func (l *Layout) DescribedType() uint32 { return l.describedType }
func (l *Layout) Sealed() bool          { return l.sealed }
func (l *Layout) NumInObjectSlots() int { return l.numInObjectSlots }

// InObjectAttributes returns a snapshot of the in-object attribute table,
// in insertion order (including deleted entries, matching spec's "ordered
// sequence of (interned name, attribute-info) pairs").
func (l *Layout) InObjectAttributes() []struct {
	Name intern.Name
	Info AttributeInfo
} {
	out := make([]struct {
		Name intern.Name
		Info AttributeInfo
	}, len(l.inObject))
	for i, e := range l.inObject {
		out[i].Name, out[i].Info = e.name, e.info
	}
	return out
}

// OverflowAttributes returns a snapshot of the overflow attribute table.
func (l *Layout) OverflowAttributes() []struct {
	Name intern.Name
	Info AttributeInfo
} {
	out := make([]struct {
		Name intern.Name
		Info AttributeInfo
	}, len(l.overflow))
	for i, e := range l.overflow {
		out[i].Name, out[i].Info = e.name, e.info
	}
	return out
}

// FindAttribute implements spec §4.3: an O(n) scan of the in-object table
// then the overflow table, by interned-name identity. A deleted in-object
// entry is skipped in favor of any later, live entry with the same name
// (the outcome of delete-then-readd, spec invariant 5).
func FindAttribute(l *Layout, name intern.Name) (AttributeInfo, bool) {
	for _, e := range l.inObject {
		if e.name == name && !e.info.Flags.IsDeleted() {
			return e.info, true
		}
	}
	for _, e := range l.overflow {
		if e.name == name {
			return e.info, true
		}
	}
	return AttributeInfo{}, false
}

func cloneEntries(entries []attrEntry) []attrEntry {
	return append([]attrEntry(nil), entries...)
}
