// Package cache implements the opt-in, content-addressed bytecode
// cache spec §6 describes: entries live at <cache-root>/<16-hex-digit-
// hash>, keyed by a stable hash of the input source. Compilation itself
// is out of scope (spec §1 keeps the compiler an external collaborator)
// — this package only locates and reads a previously-written marshalled
// module blob for a given source, or reports a miss, and lets a caller
// that did compile a fresh one write it back.
//
// Buffer reuse on the read path is grounded in
// component/reader_pool.go's sync.Pool of *bytes.Reader / scratch
// buffers ("pool readers to reduce allocations" on a hot decode path).
package cache
