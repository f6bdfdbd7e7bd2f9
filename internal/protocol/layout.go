// Package protocol defines the data layout shared between the daemon and
// display clients. The shared-memory region is a fixed, pointer-free byte
// layout so that a reader in another process can interpret it without any
// coordination beyond the seqlock counter.
package protocol

import "encoding/binary"

// Shared-memory region layout, little-endian throughout:
//
//	offset 0   sequence counter (u64, seqlock)
//	offset 8   dirty flag (u8)
//	offset 9   error-mode flag (u8)
//	offset 10  cursor x (u16)
//	offset 12  cursor y (u16)
//	offset 14  padding (2 bytes)
//	offset 16  cells, Width*Height records of CellSize bytes each
const (
	HeaderSize = 16

	OffSequence  = 0
	OffDirty     = 8
	OffErrorMode = 9
	OffCursorX   = 10
	OffCursorY   = 12

	// Cell record: codepoint u32, fg u32, bg u32, flags u8, 3 pad bytes.
	CellSize = 16

	CellOffCodepoint = 0
	CellOffFg        = 4
	CellOffBg        = 8
	CellOffFlags     = 12
)

// Style flag bits carried in a Cell's flags byte.
const (
	FlagBold uint8 = 1 << iota
	FlagItalic
	FlagUnderline
	FlagReverse
	FlagDim
	FlagStrike
	FlagBlink
	FlagHidden
)

// Default colors are packed ARGB sentinels. Resets must restore these exact
// values; a zeroed cell is not a default cell.
const (
	DefaultFg uint32 = 0xFFCCCCCC
	DefaultBg uint32 = 0xFF000000
)

// Default grid dimensions for the shared region. The region size is fixed at
// daemon start; sessions with smaller grids are blitted top-left.
const (
	DefaultGridWidth  = 200
	DefaultGridHeight = 100
)

// RegionSize returns the total byte size of a shared region for a grid of
// the given dimensions.
func RegionSize(width, height int) int {
	return HeaderSize + width*height*CellSize
}

// Cell is the cross-process cell record. Plain old data, no pointers.
type Cell struct {
	Codepoint uint32
	Fg        uint32
	Bg        uint32
	Flags     uint8
}

// BlankCell returns a cell holding a space in the default colors.
func BlankCell() Cell {
	return Cell{Codepoint: ' ', Fg: DefaultFg, Bg: DefaultBg}
}

// EncodeCell writes c into buf, which must be at least CellSize bytes.
func EncodeCell(buf []byte, c Cell) {
	binary.LittleEndian.PutUint32(buf[CellOffCodepoint:], c.Codepoint)
	binary.LittleEndian.PutUint32(buf[CellOffFg:], c.Fg)
	binary.LittleEndian.PutUint32(buf[CellOffBg:], c.Bg)
	buf[CellOffFlags] = c.Flags
	buf[CellOffFlags+1] = 0
	buf[CellOffFlags+2] = 0
	buf[CellOffFlags+3] = 0
}

// DecodeCell reads a cell record from buf.
func DecodeCell(buf []byte) Cell {
	return Cell{
		Codepoint: binary.LittleEndian.Uint32(buf[CellOffCodepoint:]),
		Fg:        binary.LittleEndian.Uint32(buf[CellOffFg:]),
		Bg:        binary.LittleEndian.Uint32(buf[CellOffBg:]),
		Flags:     buf[CellOffFlags],
	}
}

// Snapshot is a consistent copy of one terminal grid, either captured from an
// engine for publication or read back out of shared memory.
type Snapshot struct {
	Width     int
	Height    int
	Cells     []Cell
	CursorX   int
	CursorY   int
	Dirty     bool
	ErrorMode bool
}

// NewSnapshot allocates a blank snapshot of the given dimensions.
func NewSnapshot(width, height int) *Snapshot {
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = BlankCell()
	}
	return &Snapshot{Width: width, Height: height, Cells: cells}
}

// CellAt returns the cell at (x, y), or a blank cell when out of bounds.
func (s *Snapshot) CellAt(x, y int) Cell {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return BlankCell()
	}
	return s.Cells[y*s.Width+x]
}

// Compile-time layout pins. These fail to build if the constants drift.
const (
	_ = uint(CellSize - CellOffFlags - 4)
	_ = uint(CellOffFlags + 4 - CellSize)
	_ = uint(HeaderSize - OffCursorY - 4)
)
