// Package intern implements the interned-name table (spec §4.4): a set of
// strings such that two names naming the same text are the same Go value,
// so every consumer — the layout DAG's attribute tables, the bytecode
// names tuple, the symbols table — can compare names with `==` instead of a
// byte-wise string compare.
//
// This is grounded in the append-only, identity-keyed lookup tables in
// linker/namespace.go (resolved entities are cached by name so repeat
// resolution is a map hit) generalized from "resolved import" values to
// bare interned strings.
package intern

import "sync"

// entry is the canonical backing store for one interned string. Two Names
// are equal (by ==) iff they wrap the same *entry.
type entry struct {
	text string
}

// Name is an interned string: comparable by identity.
type Name struct {
	e *entry
}

// Text returns the interned string's bytes.
func (n Name) Text() string {
	if n.e == nil {
		return ""
	}
	return n.e.text
}

// IsZero reports whether n is the zero Name (never produced by Table.Intern).
func (n Name) IsZero() bool { return n.e == nil }

func (n Name) String() string { return n.Text() }

// Table is the process-wide (or, in tests, per-runtime) interned-string set.
// A small string (object.Ref's inline string form) is its own interned
// representation per spec §4.4 and never needs a Table entry; Table exists
// for the long-string and symbol case.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty interning table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// Intern returns the canonical Name for s, creating it on first use.
func (t *Table) Intern(s string) Name {
	t.mu.RLock()
	if e, ok := t.entries[s]; ok {
		t.mu.RUnlock()
		return Name{e}
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[s]; ok {
		return Name{e}
	}
	e := &entry{text: s}
	t.entries[s] = e
	return Name{e}
}

// Len returns the number of distinct interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
