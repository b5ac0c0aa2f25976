// Package heap implements the bump-allocated semispace heap and Cheney
// scavenger (spec §4.2).
//
// Rather than tagging raw pointers — which Go's own garbage collector does
// not let a library do safely — a heap Ref's payload (object.Handle) is an
// indirection key into the heap's handle table, the same shape as the
// teacher's resource.UnifiedTable handle table (resource/table.go) used to
// hand WASM components stable integer handles to Go values it owns. A
// scavenge updates the handle table, not the Ref itself; spec §9's own
// design note for porting the moving GC to a modern systems language
// ("model as handle-scope-owned indirections; the slot is updated by GC")
// describes exactly this shape.
package heap
