// Package marshal decodes the persisted module format spec §6 describes:
// a three-word little-endian header (magic, timestamp, source size)
// followed by a tag-dispatched code object. Reader only — nothing in
// this codebase ever writes the format, matching spec's "consumed only,
// never written".
//
// The tag table's scalar fields (ints, lengths, the 8-byte float words)
// are fixed little-endian widths, not LEB128 — there is no variable-
// width integer anywhere in the persisted format itself, so this
// package does not reuse wasm/leb128.go's ReadLEB128u/s family
// directly. It instead mirrors wasm/internal/binary/writer.go's
// WriteU32LE idiom (the same one machine.Assembler.U32LE already
// follows) for every fixed-width read. Marshal stores the code bytes
// and line table as read, without calling bytecode.DecodeAt or
// bytecode.Code.LineForPC itself: both of those are already shaped
// exactly like the persisted
// bytecode and line-number table spec §6 describes, so a decoded
// *bytecode.Code needs no translation before interp/machine can run
// it.
//
// Back-references mirror component/decoder.go's reference list: any
// tag with the high bit set (0x80) registers its decoded value for a
// later 'r' tag to look up by index.
package marshal
