package runtimetables

import "github.com/skybison/corevm/intern"

// wellKnownSymbols lists every name the runtime itself refers to by
// identity rather than by looked-up string (spec §4.4: "a pre-built
// vector of interned strings for every name the runtime refers to by
// identity, so comparisons can use ref ==").
var wellKnownSymbols = []string{
	"__init__",
	"__new__",
	"__class__",
	"__call__",
	"__repr__",
	"__str__",
	"__eq__",
	"__ne__",
	"__lt__",
	"__le__",
	"__gt__",
	"__ge__",
	"__hash__",
	"__len__",
	"__getitem__",
	"__setitem__",
	"__iter__",
	"__next__",
	"__add__",
	"__radd__",
	"__sub__",
	"__rsub__",
	"__mul__",
	"__rmul__",
	"__enter__",
	"__exit__",
	"__name__",
	"__doc__",
	"__module__",
	"__dict__",
}

// Symbols holds the interned Name for every well-known symbol, indexed
// by the same string so callers look them up once at bootstrap and then
// compare by identity thereafter.
type Symbols struct {
	byText map[string]intern.Name
}

// NewSymbols interns every well-known symbol into names and returns the
// resulting lookup table.
func NewSymbols(names *intern.Table) *Symbols {
	s := &Symbols{byText: make(map[string]intern.Name, len(wellKnownSymbols))}
	for _, text := range wellKnownSymbols {
		s.byText[text] = names.Intern(text)
	}
	return s
}

// Get returns the pre-interned Name for a well-known symbol. Panics if
// text was not registered in wellKnownSymbols — every symbol the
// runtime itself dereferences by identity must be listed there.
func (s *Symbols) Get(text string) intern.Name {
	n, ok := s.byText[text]
	if !ok {
		panic("runtimetables: " + text + " is not a registered well-known symbol")
	}
	return n
}
