package main

import (
	"fmt"

	"github.com/skybison/corevm/object"
)

// renderRef formats a Ref for the trace view without needing the full
// type system's repr machinery: the handful of tag kinds a debugger
// session actually needs to eyeball.
func renderRef(r object.Ref) string {
	switch {
	case r.IsNone():
		return "None"
	case r.IsBool():
		return fmt.Sprintf("%t", r.BoolValue())
	case r.IsSmallInt():
		return fmt.Sprintf("%d", r.SmallInt())
	case r.IsSmallString():
		return fmt.Sprintf("%q", string(r.SmallStringBytes()))
	case r.IsError():
		return "<error>"
	case r.IsHeap():
		return fmt.Sprintf("<heap #%d>", r.HeapHandle())
	default:
		return fmt.Sprintf("<ref %#x>", uint64(r))
	}
}

func renderRefs(rs []object.Ref) string {
	out := "["
	for i, r := range rs {
		if i > 0 {
			out += ", "
		}
		out += renderRef(r)
	}
	return out + "]"
}
