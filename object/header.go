package object

// Format enumerates the handful of heap object encodings. Every non-
// immediate value carries one in its header, so the scavenger can walk it
// without a per-class descriptor (spec §3).
type Format uint8

const (
	FormatByteArray      Format = iota // raw bytes
	FormatDataArray16                  // packed 16-bit elements
	FormatDataArray32                  // packed 32-bit elements
	FormatDataArray64                  // packed 64-bit elements
	FormatDataArray128                 // packed 128-bit elements
	FormatReferenceArray                // tuple shape: a flat array of Refs
	FormatDataInstance                  // instance with no overflow attribute slot
	FormatReferenceInstance              // instance with a layout-described attribute table
)

func (f Format) String() string {
	switch f {
	case FormatByteArray:
		return "byte-array"
	case FormatDataArray16:
		return "data-array16"
	case FormatDataArray32:
		return "data-array32"
	case FormatDataArray64:
		return "data-array64"
	case FormatDataArray128:
		return "data-array128"
	case FormatReferenceArray:
		return "reference-array"
	case FormatDataInstance:
		return "data-instance"
	case FormatReferenceInstance:
		return "reference-instance"
	default:
		return "unknown-format"
	}
}

// Header bit layout, packed identically to original_source/runtime/
// objects.h's RawHeader: tag(3) | format(3) | layoutId(20) | hash(30) |
// count(8), low bit first.
const (
	headerFormatOffset = 3
	headerFormatSize   = 3
	headerFormatMask   = (1 << headerFormatSize) - 1

	headerLayoutIDOffset = 6
	headerLayoutIDSize   = 20
	headerLayoutIDMask   = (1 << headerLayoutIDSize) - 1

	headerHashOffset = 26
	headerHashSize   = 30
	headerHashMask   = (1 << headerHashSize) - 1

	headerCountOffset = 56
	headerCountSize   = 8
	headerCountMask   = (1 << headerCountSize) - 1

	// MaxLayoutID is the largest layout id the 20-bit field can hold.
	MaxLayoutID = (1 << headerLayoutIDSize) - 1

	// CountOverflow is the count-field sentinel meaning "the real count
	// overflows into a preceding word" (spec §3).
	CountOverflow = headerCountMask
)

// NewHeader packs a header word. count == CountOverflow signals that the
// true element/attribute count is stored in the word immediately preceding
// the header rather than in the 8-bit field.
func NewHeader(format Format, layoutID uint32, hash uint32, count uint8) Ref {
	if layoutID > MaxLayoutID {
		panic("object: layout id overflows header field")
	}
	if hash > headerHashMask {
		panic("object: identity hash overflows header field")
	}
	word := uint64(tagHeader)
	word |= uint64(format) << headerFormatOffset
	word |= uint64(layoutID) << headerLayoutIDOffset
	word |= uint64(hash) << headerHashOffset
	word |= uint64(count) << headerCountOffset
	return Ref(word)
}

func (r Ref) requireHeader() {
	if !r.IsHeader() {
		panic("object: header accessor called on non-header ref")
	}
}

// HeaderFormat decodes the format field.
func (r Ref) HeaderFormat() Format {
	r.requireHeader()
	return Format((uint64(r) >> headerFormatOffset) & headerFormatMask)
}

// HeaderLayoutID decodes the layout id field.
func (r Ref) HeaderLayoutID() uint32 {
	r.requireHeader()
	return uint32((uint64(r) >> headerLayoutIDOffset) & headerLayoutIDMask)
}

// HeaderHash decodes the identity-hash field.
func (r Ref) HeaderHash() uint32 {
	r.requireHeader()
	return uint32((uint64(r) >> headerHashOffset) & headerHashMask)
}

// HeaderCount decodes the count field. Callers must check HeaderCountIsOverflow
// first if they need the true count for a large object.
func (r Ref) HeaderCount() uint8 {
	r.requireHeader()
	return uint8((uint64(r) >> headerCountOffset) & headerCountMask)
}

// HeaderCountIsOverflow reports the count-overflow sentinel.
func (r Ref) HeaderCountIsOverflow() bool {
	return r.HeaderCount() == CountOverflow
}

// WithHeaderHash returns a copy of the header with its hash field replaced.
// Used when an identity hash is computed lazily on first request.
func (r Ref) WithHeaderHash(hash uint32) Ref {
	r.requireHeader()
	if hash > headerHashMask {
		panic("object: identity hash overflows header field")
	}
	cleared := uint64(r) &^ (uint64(headerHashMask) << headerHashOffset)
	return Ref(cleared | uint64(hash)<<headerHashOffset)
}

// WithHeaderLayoutID returns a copy of the header with its layout id field
// replaced. Used when __class__ is reassigned and the layout transitions.
func (r Ref) WithHeaderLayoutID(layoutID uint32) Ref {
	r.requireHeader()
	if layoutID > MaxLayoutID {
		panic("object: layout id overflows header field")
	}
	cleared := uint64(r) &^ (uint64(headerLayoutIDMask) << headerLayoutIDOffset)
	return Ref(cleared | uint64(layoutID)<<headerLayoutIDOffset)
}
