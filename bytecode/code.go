package bytecode

import "github.com/skybison/corevm/object"

// Flags packs the bit-flags a Code object carries (spec §3 "Code object
// entity"). SimpleCall is computed by the runtime once the function
// wrapping this code is known, never by the compiler.
type Flags uint16

const (
	FlagOptimized Flags = 1 << iota
	FlagNewLocals
	FlagVarargs
	FlagVarKeywordArgs
	FlagGenerator
	FlagCoroutine
	FlagNoFree
	FlagSimpleCall
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Code is the immutable container produced by the compiler (or the
// marshal reader) and wrapped by a Function at call time (spec §3).
type Code struct {
	ArgCount       int
	KwOnlyArgCount int
	NumLocals      int
	StackSize      int
	Flags          Flags

	Bytecode []byte

	Consts   []object.Ref
	Names    []string
	VarNames []string
	FreeVars []string
	CellVars []string

	Filename string
	Name     string

	FirstLine int
	// LineTable holds (pc-delta, line-delta) byte pairs (spec §6). A
	// line-delta is a signed 8-bit quantity; pc deltas accumulate until
	// they first exceed the queried pc.
	LineTable []byte
}

// LineForPC walks LineTable accumulating pc and line deltas until the
// accumulated pc first exceeds pc, returning the line active at pc
// (spec §6's line-number table decode rule).
func (c *Code) LineForPC(pc int) int {
	line := c.FirstLine
	accPC := 0
	for i := 0; i+1 < len(c.LineTable); i += 2 {
		pcDelta := int(c.LineTable[i])
		lineDelta := int(int8(c.LineTable[i+1]))
		if accPC+pcDelta > pc {
			return line
		}
		accPC += pcDelta
		line += lineDelta
	}
	return line
}

// SimpleCall reports whether this code object permits the fast calling
// convention: no varargs/varkeywordargs, no keyword-only parameters,
// and an exact positional arity (spec §3: "set by the runtime, not the
// compiler, when argument shape permits").
func (c *Code) SimpleCall() bool {
	return !c.Flags.Has(FlagVarargs) && !c.Flags.Has(FlagVarKeywordArgs) && c.KwOnlyArgCount == 0
}
