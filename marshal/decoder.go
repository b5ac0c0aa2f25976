package marshal

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/errors"
	"github.com/skybison/corevm/heap"
	"github.com/skybison/corevm/intern"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtimetables"
)

// Header is the three-word preamble spec §6 describes, each field a
// plain little-endian uint32 ahead of the tagged stream.
type Header struct {
	Magic      uint32
	Timestamp  uint32
	SourceSize uint32
}

// Decoder reads one persisted module (header + code object) from r.
// Names, when non-nil, is used to intern ascii/short-ascii values whose
// tag marks them interned (spec: "a"/"A", "z"/"Z" — the capital variant
// intern), so that two modules sharing an identifier string end up with
// the same intern.Name identity.
type Decoder struct {
	r     *bufio.Reader
	h     *heap.Heap
	names *intern.Table

	refs []any
}

// NewDecoder builds a Decoder. h backs any heap allocation (strings,
// tuples, large integers) the decoded constant pool needs; names, if
// non-nil, receives interned identifiers.
func NewDecoder(r io.Reader, h *heap.Heap, names *intern.Table) *Decoder {
	return &Decoder{r: bufio.NewReader(r), h: h, names: names}
}

// Decode reads the header and the root code object.
func (d *Decoder) Decode() (*bytecode.Code, error) {
	hdr, err := d.readHeader()
	if err != nil {
		return nil, err
	}
	_ = hdr // header fields are informational (magic/timestamp/size), not behavior-affecting

	raw, err := d.readByte()
	if err != nil {
		return nil, err
	}
	code, err := d.decodeCode(raw)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (d *Decoder) readHeader() (Header, error) {
	magic, err := d.readU32LE()
	if err != nil {
		return Header{}, err
	}
	ts, err := d.readU32LE()
	if err != nil {
		return Header{}, err
	}
	size, err := d.readU32LE()
	if err != nil {
		return Header{}, err
	}
	return Header{Magic: magic, Timestamp: ts, SourceSize: size}, nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "reading tag byte")
	}
	return b, nil
}

func (d *Decoder) readU32LE() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "reading u32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *Decoder) readI32LE() (int32, error) {
	v, err := d.readU32LE()
	return int32(v), err
}

func (d *Decoder) readU8() (byte, error) { return d.readByte() }

func (d *Decoder) readF64LE() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "reading f64")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func (d *Decoder) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "negative length")
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "reading payload bytes")
	}
	return buf, nil
}

// register records v in the back-reference list when raw's high bit is
// set (spec: "Any tag with the high bit set additionally registers the
// decoded object in a reference list").
func (d *Decoder) register(raw byte, v any) {
	if raw&refFlag != 0 {
		d.refs = append(d.refs, v)
	}
}

func (d *Decoder) resolveRef() (any, error) {
	idx, err := d.readI32LE()
	if err != nil {
		return nil, err
	}
	if int(idx) < 0 || int(idx) >= len(d.refs) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, []string{"refs"}, int(idx), len(d.refs))
	}
	return d.refs[idx], nil
}

// decodeValue decodes one tagged value as an object.Ref, for positions
// that must yield a runtime value (a constant-pool entry, or a tuple
// element nested inside one).
func (d *Decoder) decodeValue(raw byte) (object.Ref, error) {
	t := tag(raw &^ refFlag)
	switch t {
	case tagNull:
		return object.None, nil
	case tagNone:
		return object.None, nil
	case tagFalse:
		return object.NewBool(false), nil
	case tagTrue:
		return object.NewBool(true), nil
	case tagInt:
		n, err := d.readI32LE()
		if err != nil {
			return object.Error, err
		}
		v := object.NewSmallInt(int64(n))
		d.register(raw, v)
		return v, nil
	case tagFloat:
		f, err := d.readF64LE()
		if err != nil {
			return object.Error, err
		}
		v := d.newFloat(f)
		d.register(raw, v)
		return v, nil
	case tagComplex:
		re, err := d.readF64LE()
		if err != nil {
			return object.Error, err
		}
		im, err := d.readF64LE()
		if err != nil {
			return object.Error, err
		}
		v := d.newComplex(re, im)
		d.register(raw, v)
		return v, nil
	case tagLargeInt:
		v, err := d.decodeLargeInt()
		if err != nil {
			return object.Error, err
		}
		d.register(raw, v)
		return v, nil
	case tagBytes:
		n, err := d.readI32LE()
		if err != nil {
			return object.Error, err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return object.Error, err
		}
		v := d.h.NewByteArray(buf)
		d.register(raw, v)
		return v, nil
	case tagASCII, tagASCIIInterned:
		n, err := d.readI32LE()
		if err != nil {
			return object.Error, err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return object.Error, err
		}
		v := d.newString(buf, t == tagASCIIInterned)
		d.register(raw, v)
		return v, nil
	case tagShortASCII, tagShortASCIIInterned:
		n, err := d.readU8()
		if err != nil {
			return object.Error, err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return object.Error, err
		}
		v := d.newString(buf, t == tagShortASCIIInterned)
		d.register(raw, v)
		return v, nil
	case tagUnicode:
		n, err := d.readI32LE()
		if err != nil {
			return object.Error, err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return object.Error, err
		}
		v := d.newString(buf, false)
		d.register(raw, v)
		return v, nil
	case tagSmallTuple, tagTuple:
		elems, err := d.decodeValueSlice(t == tagSmallTuple)
		if err != nil {
			return object.Error, err
		}
		v := d.h.NewTuple(elems)
		d.register(raw, v)
		return v, nil
	case tagRef:
		v, err := d.resolveRef()
		if err != nil {
			return object.Error, err
		}
		ref, ok := v.(object.Ref)
		if !ok {
			return object.Error, errors.InvalidData(errors.PhaseDecode, []string{"r"}, "back-reference does not resolve to a value")
		}
		return ref, nil
	case tagCode:
		return object.Error, errors.Unsupported(errors.PhaseDecode, "nested code objects are not a constant-pool value")
	default:
		return object.Error, errors.InvalidData(errors.PhaseDecode, nil, "unknown tag "+t.String())
	}
}

// decodeValueSlice reads a tuple's length-prefixed element sequence and
// decodes every element as a value.
func (d *Decoder) decodeValueSlice(short bool) ([]object.Ref, error) {
	n, err := d.tupleLength(short)
	if err != nil {
		return nil, err
	}
	out := make([]object.Ref, 0, n)
	for i := 0; i < n; i++ {
		raw, err := d.readByte()
		if err != nil {
			return nil, err
		}
		v, err := d.decodeValue(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) tupleLength(short bool) (int, error) {
	if short {
		n, err := d.readU8()
		return int(n), err
	}
	n, err := d.readI32LE()
	return int(n), err
}

// decodeString reads one tagged string entry and returns the raw text,
// used for Code's Names/VarNames/FreeVars/CellVars fields (plain Go
// strings, never wrapped into a heap value).
func (d *Decoder) decodeString(raw byte) (string, error) {
	t := tag(raw &^ refFlag)
	switch t {
	case tagASCII, tagASCIIInterned:
		n, err := d.readI32LE()
		if err != nil {
			return "", err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return "", err
		}
		s := string(buf)
		if t == tagASCIIInterned && d.names != nil {
			d.names.Intern(s)
		}
		d.register(raw, s)
		return s, nil
	case tagShortASCII, tagShortASCIIInterned:
		n, err := d.readU8()
		if err != nil {
			return "", err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return "", err
		}
		s := string(buf)
		if t == tagShortASCIIInterned && d.names != nil {
			d.names.Intern(s)
		}
		d.register(raw, s)
		return s, nil
	case tagUnicode:
		n, err := d.readI32LE()
		if err != nil {
			return "", err
		}
		buf, err := d.readN(int(n))
		if err != nil {
			return "", err
		}
		s := string(buf)
		d.register(raw, s)
		return s, nil
	case tagRef:
		v, err := d.resolveRef()
		if err != nil {
			return "", err
		}
		s, ok := v.(string)
		if !ok {
			return "", errors.InvalidData(errors.PhaseDecode, []string{"r"}, "back-reference does not resolve to a string")
		}
		return s, nil
	default:
		return "", errors.InvalidData(errors.PhaseDecode, nil, "expected string tag, got "+t.String())
	}
}

// decodeStringSlice reads a tuple of string-tagged entries.
func (d *Decoder) decodeStringSlice() ([]string, error) {
	raw, err := d.readByte()
	if err != nil {
		return nil, err
	}
	t := tag(raw &^ refFlag)
	short := t == tagSmallTuple
	if t != tagSmallTuple && t != tagTuple {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "expected tuple tag, got "+t.String())
	}
	n, err := d.tupleLength(short)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sraw, err := d.readByte()
		if err != nil {
			return nil, err
		}
		s, err := d.decodeString(sraw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeInt reads one 'i'-tagged scalar field (argcount, flags, and
// friends on the code object), not a constant-pool value.
func (d *Decoder) decodeInt(raw byte) (int32, error) {
	if tag(raw&^refFlag) != tagInt {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "expected int tag, got "+tag(raw&^refFlag).String())
	}
	return d.readI32LE()
}

func (d *Decoder) decodeCode(raw byte) (*bytecode.Code, error) {
	if tag(raw&^refFlag) != tagCode {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "expected code tag, got "+tag(raw&^refFlag).String())
	}

	c := &bytecode.Code{}

	field := func() (byte, error) { return d.readByte() }

	r, err := field()
	if err != nil {
		return nil, err
	}
	argCount, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.ArgCount = int(argCount)

	if r, err = field(); err != nil {
		return nil, err
	}
	kwOnly, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.KwOnlyArgCount = int(kwOnly)

	if r, err = field(); err != nil {
		return nil, err
	}
	nlocals, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.NumLocals = int(nlocals)

	if r, err = field(); err != nil {
		return nil, err
	}
	stackSize, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.StackSize = int(stackSize)

	if r, err = field(); err != nil {
		return nil, err
	}
	flags, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.Flags = bytecode.Flags(flags)

	if r, err = field(); err != nil {
		return nil, err
	}
	if tag(r&^refFlag) != tagBytes {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"code"}, "expected bytes tag for code body")
	}
	n, err := d.readI32LE()
	if err != nil {
		return nil, err
	}
	c.Bytecode, err = d.readN(int(n))
	if err != nil {
		return nil, err
	}

	if r, err = field(); err != nil {
		return nil, err
	}
	if tag(r&^refFlag) != tagSmallTuple && tag(r&^refFlag) != tagTuple {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"consts"}, "expected tuple tag")
	}
	c.Consts, err = d.decodeValueSlice(tag(r&^refFlag) == tagSmallTuple)
	if err != nil {
		return nil, err
	}

	if c.Names, err = d.decodeStringSlice(); err != nil {
		return nil, err
	}
	if c.VarNames, err = d.decodeStringSlice(); err != nil {
		return nil, err
	}
	if c.FreeVars, err = d.decodeStringSlice(); err != nil {
		return nil, err
	}
	if c.CellVars, err = d.decodeStringSlice(); err != nil {
		return nil, err
	}

	if r, err = field(); err != nil {
		return nil, err
	}
	if c.Filename, err = d.decodeString(r); err != nil {
		return nil, err
	}

	if r, err = field(); err != nil {
		return nil, err
	}
	if c.Name, err = d.decodeString(r); err != nil {
		return nil, err
	}

	if r, err = field(); err != nil {
		return nil, err
	}
	firstLine, err := d.decodeInt(r)
	if err != nil {
		return nil, err
	}
	c.FirstLine = int(firstLine)

	if r, err = field(); err != nil {
		return nil, err
	}
	if tag(r&^refFlag) != tagBytes {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{"lnotab"}, "expected bytes tag")
	}
	n, err = d.readI32LE()
	if err != nil {
		return nil, err
	}
	c.LineTable, err = d.readN(int(n))
	if err != nil {
		return nil, err
	}

	d.register(raw, c)
	return c, nil
}

// decodeLargeInt reads the sign-and-magnitude arbitrary-precision
// representation (int32 length, then that many 16-bit little-endian
// "digits", spec §6) and re-encodes it the same way
// interp/bigint.go tags a promoted small int: a byte-array-formatted
// heap value carrying a sign byte followed by big-endian magnitude
// bytes, tagged runtimetables.LayoutLargeInt. Kept independent of the
// interp package (which owns promotion, not decoding) to avoid a
// decode-time dependency on the interpreter.
func (d *Decoder) decodeLargeInt() (object.Ref, error) {
	n, err := d.readI32LE()
	if err != nil {
		return object.Error, err
	}
	negative := n < 0
	count := int(n)
	if negative {
		count = -count
	}
	digits := make([]uint64, count)
	for i := 0; i < count; i++ {
		lo, err := d.readN(2)
		if err != nil {
			return object.Error, err
		}
		digits[i] = uint64(lo[0]) | uint64(lo[1])<<8
	}

	// Digits are little-endian (digits[0] is the least-significant
	// 15-bit chunk), so fold from the most-significant digit down.
	mag := new(big.Int)
	base := big.NewInt(1 << 15)
	digit := new(big.Int)
	for i := count - 1; i >= 0; i-- {
		digit.SetUint64(digits[i])
		mag.Mul(mag, base)
		mag.Add(mag, digit)
	}
	if negative {
		mag.Neg(mag)
	}

	sign := byte(0)
	if mag.Sign() < 0 {
		sign = 1
	}
	magBytes := new(big.Int).Abs(mag).Bytes()
	buf := make([]byte, 0, 1+len(magBytes))
	buf = append(buf, sign)
	buf = append(buf, magBytes...)
	return d.h.NewByteArrayTyped(runtimetables.LayoutLargeInt, buf), nil
}

// newFloat tags a decoded 64-bit float as an 8-byte byte array
// (format: byte array) carrying the IEEE-754 bit pattern, little-endian,
// under runtimetables.LayoutFloat.
func (d *Decoder) newFloat(f float64) object.Ref {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return d.h.NewByteArrayTyped(runtimetables.LayoutFloat, buf[:])
}

// newComplex tags a decoded complex pair as 16 bytes (real, then
// imaginary, both little-endian) under runtimetables.LayoutComplex.
func (d *Decoder) newComplex(re, im float64) object.Ref {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(re))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(im))
	return d.h.NewByteArrayTyped(runtimetables.LayoutComplex, buf[:])
}

// newString allocates a heap string unless the payload is short enough
// to pack into the small-string immediate (spec: short ascii still
// being heap-worthy only once it outgrows the 7-byte inline budget).
// interned strings additionally register with d.names so repeated
// decodes of the same identifier converge on one intern.Name.
func (d *Decoder) newString(buf []byte, interned bool) object.Ref {
	if interned && d.names != nil {
		d.names.Intern(string(buf))
	}
	if v, ok := object.NewSmallString(buf); ok {
		return v
	}
	return d.h.NewByteArrayTyped(runtimetables.LayoutStr, buf)
}
