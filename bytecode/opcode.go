package bytecode

// Op is one opcode byte. Opcodes come in "anamorphic" (no cache filled
// yet), "monomorphic", and "polymorphic" variants for every site the
// interpreter specializes (spec §4.6).
type Op byte

const (
	OpPopTop Op = iota
	OpExtendedArg

	OpLoadConst
	OpLoadImmediate // arg is a signed small integer baked directly into the instruction

	OpLoadFast
	OpStoreFast
	OpLoadGlobal
	OpStoreGlobal

	OpLoadAttrAnamorphic
	OpLoadAttrInstance               // monomorphic: in-object attribute, cache value is the offset
	OpLoadAttrInstanceTypeBoundMethod // monomorphic: resolves to a method, cache value is the function
	OpLoadAttrPolymorphic

	OpStoreAttrAnamorphic
	OpStoreAttrInstanceOverflow

	OpBinarySubscrAnamorphic
	OpBinarySubscrList

	OpBinaryAddAnamorphic
	OpBinaryAddSmallInt

	OpJumpAbsolute
	OpJumpForward
	OpPopJumpIfFalse

	OpSetupExcept
	OpSetupFinally
	OpSetupLoop
	OpPopBlock
	OpPopExcept

	OpCallFunction
	OpReturnValue
	OpRaiseVarargs
	OpYieldValue

	OpBuildTuple
	OpMakeFunction

	opCount
)

var names = [opCount]string{
	OpPopTop:                          "POP_TOP",
	OpExtendedArg:                     "EXTENDED_ARG",
	OpLoadConst:                       "LOAD_CONST",
	OpLoadImmediate:                   "LOAD_IMMEDIATE",
	OpLoadFast:                        "LOAD_FAST",
	OpStoreFast:                       "STORE_FAST",
	OpLoadGlobal:                      "LOAD_GLOBAL",
	OpStoreGlobal:                     "STORE_GLOBAL",
	OpLoadAttrAnamorphic:              "LOAD_ATTR_ANAMORPHIC",
	OpLoadAttrInstance:                "LOAD_ATTR_INSTANCE",
	OpLoadAttrInstanceTypeBoundMethod: "LOAD_ATTR_INSTANCE_TYPE_BOUND_METHOD",
	OpLoadAttrPolymorphic:             "LOAD_ATTR_POLYMORPHIC",
	OpStoreAttrAnamorphic:             "STORE_ATTR_ANAMORPHIC",
	OpStoreAttrInstanceOverflow:       "STORE_ATTR_INSTANCE_OVERFLOW",
	OpBinarySubscrAnamorphic:          "BINARY_SUBSCR_ANAMORPHIC",
	OpBinarySubscrList:                "BINARY_SUBSCR_LIST",
	OpBinaryAddAnamorphic:             "BINARY_ADD_ANAMORPHIC",
	OpBinaryAddSmallInt:               "BINARY_ADD_SMALLINT",
	OpJumpAbsolute:                    "JUMP_ABSOLUTE",
	OpJumpForward:                     "JUMP_FORWARD",
	OpPopJumpIfFalse:                  "POP_JUMP_IF_FALSE",
	OpSetupExcept:                     "SETUP_EXCEPT",
	OpSetupFinally:                    "SETUP_FINALLY",
	OpSetupLoop:                       "SETUP_LOOP",
	OpPopBlock:                        "POP_BLOCK",
	OpPopExcept:                       "POP_EXCEPT",
	OpCallFunction:                    "CALL_FUNCTION",
	OpReturnValue:                     "RETURN_VALUE",
	OpRaiseVarargs:                    "RAISE_VARARGS",
	OpYieldValue:                      "YIELD_VALUE",
	OpBuildTuple:                      "BUILD_TUPLE",
	OpMakeFunction:                    "MAKE_FUNCTION",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN_OP"
}

// anamorphicToSpecialized maps an anamorphic opcode to the two specialized
// variants it can be rewritten to once its cache has been filled: the
// monomorphic form and the polymorphic form. Returned ok is false for
// opcodes that are never specialized.
func anamorphicToSpecialized(op Op) (mono, poly Op, ok bool) {
	switch op {
	case OpLoadAttrAnamorphic:
		return OpLoadAttrInstance, OpLoadAttrPolymorphic, true
	case OpStoreAttrAnamorphic:
		return OpStoreAttrInstanceOverflow, OpStoreAttrInstanceOverflow, true
	case OpBinarySubscrAnamorphic:
		return OpBinarySubscrList, OpBinarySubscrList, true
	case OpBinaryAddAnamorphic:
		return OpBinaryAddSmallInt, OpBinaryAddSmallInt, true
	default:
		return 0, 0, false
	}
}

// IsAnamorphic reports whether op still awaits its first specialization.
func IsAnamorphic(op Op) bool {
	_, _, ok := anamorphicToSpecialized(op)
	return ok
}

// Instruction is one decoded (op, arg) pair (spec §4.6: "Opcodes are pairs
// (op, arg) of two bytes each").
type Instruction struct {
	Op  Op
	Arg uint32
	// Pos is the byte offset of this instruction's op byte in the owning
	// Code/Function's bytecode, used to key the inline-cache tuple.
	Pos int
}

// DecodeAt decodes the instruction at pc, accumulating any EXTENDED_ARG
// prefixes that precede it (spec §6: "argument is extended by prior
// EXTENDED_ARG opcodes accumulating left-shifted bytes", the same
// accumulate-and-shift shape as wasm/leb128.go's continuation bytes). It
// returns the instruction and the pc of the following instruction.
func DecodeAt(code []byte, pc int) (Instruction, int) {
	start := pc
	var arg uint32
	for {
		op := Op(code[pc])
		a := uint32(code[pc+1])
		pc += 2
		if op == OpExtendedArg {
			arg = (arg | a) << 8
			continue
		}
		return Instruction{Op: op, Arg: arg | a, Pos: start}, pc
	}
}
