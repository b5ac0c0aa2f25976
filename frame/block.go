package frame

// BlockKind distinguishes the four block-stack entry kinds spec §4.5
// packs into "{kind: loop | except | except-handler | finally (2
// bits)...}".
type BlockKind uint8

const (
	BlockLoop BlockKind = iota
	BlockExcept
	BlockExceptHandler
	BlockFinally
)

// Block is one block-stack entry (spec §4.5: "handler-pc (30 bits),
// value-stack-level (25 bits)" packed alongside Kind into a single
// machine word in the original; represented here as a plain struct
// since Go frames are not laid out as a raw byte region).
type Block struct {
	Kind            BlockKind
	HandlerPC       int
	ValueStackLevel int
}
