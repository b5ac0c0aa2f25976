package runtimetables

// Built-in layout ids, reserved in a fixed order (spec §4.4: "the first
// 31 ids are reserved for immediates and built-in types"). Application
// layouts are allocated starting at FirstUserLayoutID.
const (
	LayoutSmallInt uint32 = iota
	LayoutBool
	LayoutNone
	LayoutError
	LayoutSmallString
	LayoutByteArray
	LayoutStr
	LayoutTuple
	LayoutList
	LayoutDict
	LayoutSet
	LayoutFunction
	LayoutCode
	LayoutModule
	LayoutType
	LayoutLargeInt
	LayoutFloat
	LayoutComplex
	LayoutBoundMethod
	LayoutGenerator
	LayoutWeakRef
	LayoutException
	LayoutTraceback
	LayoutFrame
	LayoutCell
	LayoutRange
	LayoutSlice
	LayoutBytesIterator
	LayoutListIterator
	LayoutTupleIterator
	LayoutDictIterator

	numReservedLayouts
)

// FirstUserLayoutID is the first layout id available to application
// classes, after the 31 reserved built-in slots.
const FirstUserLayoutID = numReservedLayouts
