// Package layout implements the hidden-class model (spec §4.3): an
// immutable DAG of Layout nodes, each describing where an instance's
// attributes live, with structural sharing guaranteed by append-only
// addition/deletion/transition edges.
//
// Grounded in original_source/runtime/layout.h's exact AttributeInfo bit
// packing (kept here as a plain struct rather than a packed word, since
// unlike the original this AttributeInfo is never itself stored as a
// heap.object.Ref — see DESIGN.md) and in linker/namespace.go's pattern of
// append-only, name-keyed resolution caches for the edge maps.
package layout
