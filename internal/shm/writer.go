package shm

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/scarab-term/scarab/internal/protocol"
)

// Writer publishes snapshots into a writable Region. A single goroutine owns
// the Writer; the seqlock only protects against concurrent readers.
type Writer struct {
	region *Region
	seq    uint64
}

// NewWriter wraps a writable region. The header is zeroed so readers start
// from sequence 0.
func NewWriter(r *Region) (*Writer, error) {
	if !r.writable {
		return nil, fmt.Errorf("shm: region %s is read-only", r.path)
	}
	for i := 0; i < protocol.HeaderSize; i++ {
		r.data[i] = 0
	}
	return &Writer{region: r}, nil
}

func (w *Writer) seqWord() *uint64 {
	return (*uint64)(unsafe.Pointer(&w.region.data[protocol.OffSequence]))
}

// Publish writes a full snapshot into the region under the sequence lock.
// The snapshot dimensions must match the region.
func (w *Writer) Publish(snap *protocol.Snapshot) error {
	if snap.Width != w.region.width || snap.Height != w.region.height {
		return fmt.Errorf("shm: snapshot %dx%d does not match region %dx%d",
			snap.Width, snap.Height, w.region.width, w.region.height)
	}

	w.beginWrite()
	data := w.region.data
	data[protocol.OffDirty] = boolByte(snap.Dirty)
	data[protocol.OffErrorMode] = boolByte(snap.ErrorMode)
	binary.LittleEndian.PutUint16(data[protocol.OffCursorX:], uint16(snap.CursorX))
	binary.LittleEndian.PutUint16(data[protocol.OffCursorY:], uint16(snap.CursorY))
	off := protocol.HeaderSize
	for i := range snap.Cells {
		protocol.EncodeCell(data[off:off+protocol.CellSize], snap.Cells[i])
		off += protocol.CellSize
	}
	w.endWrite()
	return nil
}

// beginWrite bumps the sequence to an odd value so readers know a write is in
// progress.
func (w *Writer) beginWrite() {
	w.seq++
	atomic.StoreUint64(w.seqWord(), w.seq)
}

// endWrite bumps the sequence back to even, committing the write.
func (w *Writer) endWrite() {
	w.seq++
	atomic.StoreUint64(w.seqWord(), w.seq)
}

// Sequence returns the last published sequence number.
func (w *Writer) Sequence() uint64 { return w.seq }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
