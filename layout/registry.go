package layout

import (
	"fmt"
	"sync"

	"github.com/skybison/corevm/intern"
	"github.com/skybison/corevm/object"
)

// Registry owns layout-id allocation and the add/delete/transition
// operations that build the DAG (spec §4.3, §4.4's "Layouts array"). It is
// the one place new Layout values come from; Layout itself exposes no
// public constructor.
type Registry struct {
	mu      sync.Mutex
	byID    []*Layout
	nextID  uint32
}

// NewRegistry creates an empty registry. The first 31 ids are reserved for
// immediates and built-in types per spec §4.4; callers (runtimetables)
// drive that reservation by calling NewRootLayout 31 times during bootstrap
// before handing out any application layouts.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) allocID() uint32 {
	if r.nextID > object.MaxLayoutID {
		panic(fmt.Sprintf("layout: layout id space exhausted (max %d)", object.MaxLayoutID))
	}
	id := r.nextID
	r.nextID++
	return id
}

// NewRootLayout creates a fresh, edge-free layout describing a type, with
// numInObjectSlots fixed in-object attribute slots reserved. sealed forbids
// any dynamic attribute (spec: "sealed flag (overflow set to none) for
// types that forbid dynamic attributes").
func (r *Registry) NewRootLayout(describedType uint32, numInObjectSlots int, sealed bool) *Layout {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := &Layout{
		id:               r.allocID(),
		describedType:    describedType,
		sealed:           sealed,
		numInObjectSlots: numInObjectSlots,
		additions:        make(map[intern.Name]*Layout),
		deletions:        make(map[intern.Name]*Layout),
		transitions:      make(map[uint32]*Layout),
	}
	r.byID = append(r.byID, l)
	return l
}

// ByID returns the layout registered under id, or nil.
func (r *Registry) ByID(id uint32) *Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

func (r *Registry) register(l *Layout) {
	l.id = r.allocID()
	r.byID = append(r.byID, l)
}

// AddAttribute implements spec §4.3: follow the cached addition edge if one
// exists; otherwise build a successor with one more entry, in-object while
// a fixed slot remains, overflow afterward, and cache the edge. Sealed
// layouts never gain an overflow attribute.
func (r *Registry) AddAttribute(l *Layout, name intern.Name, flags Flags) (*Layout, AttributeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := l.additions[name]; ok {
		info, found := FindAttribute(existing, name)
		if !found {
			panic("layout: addition edge points to a layout without the named attribute")
		}
		return existing, info
	}

	next := &Layout{
		describedType:    l.describedType,
		sealed:           l.sealed,
		numInObjectSlots: l.numInObjectSlots,
		inObject:         cloneEntries(l.inObject),
		overflow:         cloneEntries(l.overflow),
		additions:        make(map[intern.Name]*Layout),
		deletions:        make(map[intern.Name]*Layout),
		transitions:      make(map[uint32]*Layout),
	}

	var info AttributeInfo
	if len(next.inObject) < next.numInObjectSlots {
		info = AttributeInfo{Offset: len(next.inObject), Flags: flags | FlagInObject}
		next.inObject = append(next.inObject, attrEntry{name: name, info: info})
	} else {
		if next.sealed {
			panic("layout: cannot add a dynamic attribute to a sealed layout")
		}
		info = AttributeInfo{Offset: len(next.overflow), Flags: flags &^ FlagInObject}
		next.overflow = append(next.overflow, attrEntry{name: name, info: info})
	}

	r.register(next)
	l.additions[name] = next
	return next, info
}

// DeleteAttribute implements spec §4.3's asymmetric delete: an in-object
// slot is marked deleted but keeps its offset reserved (so a later re-add
// lands at a new offset, per invariant 5); an overflow attribute is removed
// outright and later entries shift down.
func (r *Registry) DeleteAttribute(l *Layout, name intern.Name) (*Layout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := l.deletions[name]; ok {
		return existing, true
	}

	inIdx := -1
	for i, e := range l.inObject {
		if e.name == name && !e.info.Flags.IsDeleted() {
			inIdx = i
			break
		}
	}
	if inIdx >= 0 {
		next := &Layout{
			describedType:    l.describedType,
			sealed:           l.sealed,
			numInObjectSlots: l.numInObjectSlots,
			inObject:         cloneEntries(l.inObject),
			overflow:         cloneEntries(l.overflow),
			additions:        make(map[intern.Name]*Layout),
			deletions:        make(map[intern.Name]*Layout),
			transitions:      make(map[uint32]*Layout),
		}
		next.inObject[inIdx].info.Flags |= FlagDeleted
		r.register(next)
		l.deletions[name] = next
		return next, true
	}

	ovIdx := -1
	for i, e := range l.overflow {
		if e.name == name {
			ovIdx = i
			break
		}
	}
	if ovIdx < 0 {
		return nil, false
	}

	next := &Layout{
		describedType:    l.describedType,
		sealed:           l.sealed,
		numInObjectSlots: l.numInObjectSlots,
		inObject:         cloneEntries(l.inObject),
		additions:        make(map[intern.Name]*Layout),
		deletions:        make(map[intern.Name]*Layout),
		transitions:      make(map[uint32]*Layout),
	}
	next.overflow = make([]attrEntry, 0, len(l.overflow)-1)
	for i, e := range l.overflow {
		if i == ovIdx {
			continue
		}
		if i > ovIdx {
			e.info.Offset--
		}
		next.overflow = append(next.overflow, e)
	}
	r.register(next)
	l.deletions[name] = next
	return next, true
}

// TransitionType implements spec §4.3's cached __class__ reassignment edge.
func (r *Registry) TransitionType(l *Layout, newType uint32) *Layout {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := l.transitions[newType]; ok {
		return existing
	}
	next := &Layout{
		describedType:    newType,
		sealed:           l.sealed,
		numInObjectSlots: l.numInObjectSlots,
		inObject:         cloneEntries(l.inObject),
		overflow:         cloneEntries(l.overflow),
		additions:        make(map[intern.Name]*Layout),
		deletions:        make(map[intern.Name]*Layout),
		transitions:      make(map[uint32]*Layout),
	}
	r.register(next)
	l.transitions[newType] = next
	return next
}
