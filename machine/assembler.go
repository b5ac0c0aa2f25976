package machine

import "encoding/binary"

// Label identifies a not-yet-resolved jump target in an Assembler
// buffer, grounded in wasm/encode.go's "reserve a length placeholder,
// backpatch once the real value is known" idiom.
type Label struct {
	resolved bool
	target   int
	fixups   []int // byte offsets of u32 placeholders awaiting target
}

// Assembler is a growable code buffer with label support (spec §4.8's
// "assembler buffer": emit bytes, patch labels, fix up branches). It
// never emits real machine code in this port — see package doc — it is
// exercised here purely as a generic growable-buffer-with-fixups
// utility, the same shape wasm/internal/binary.Writer provides for the
// WASM encoder.
type Assembler struct {
	buf []byte
}

// NewAssembler creates an empty assembler buffer.
func NewAssembler() *Assembler { return &Assembler{} }

// Byte appends one byte.
func (a *Assembler) Byte(b byte) { a.buf = append(a.buf, b) }

// Bytes appends a byte slice.
func (a *Assembler) Bytes(b []byte) { a.buf = append(a.buf, b...) }

// U32LE appends a little-endian uint32.
func (a *Assembler) U32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
}

// Len returns the current buffer length.
func (a *Assembler) Len() int { return len(a.buf) }

// Finish returns the assembled buffer. Must be called only after every
// Label referenced by Patch has been Bind-ed.
func (a *Assembler) Finish() []byte {
	return a.buf
}

// NewLabel creates an unresolved label.
func (a *Assembler) NewLabel() *Label { return &Label{} }

// Bind fixes l's target to the assembler's current write position and
// backpatches every placeholder previously emitted by Patch.
func (a *Assembler) Bind(l *Label) {
	l.resolved = true
	l.target = len(a.buf)
	for _, off := range l.fixups {
		binary.LittleEndian.PutUint32(a.buf[off:off+4], uint32(l.target))
	}
	l.fixups = nil
}

// Patch emits a 4-byte placeholder for a reference to l: if l is
// already bound, the real target is written immediately; otherwise the
// placeholder's offset is recorded for Bind to fix up later.
func (a *Assembler) Patch(l *Label) {
	off := len(a.buf)
	a.U32LE(0)
	if l.resolved {
		binary.LittleEndian.PutUint32(a.buf[off:off+4], uint32(l.target))
		return
	}
	l.fixups = append(l.fixups, off)
}
