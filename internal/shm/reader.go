package shm

import (
	"encoding/binary"
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/scarab-term/scarab/internal/protocol"
)

// ErrBusy is returned when a consistent snapshot could not be taken within
// the retry budget because the writer kept publishing.
var ErrBusy = errors.New("shm: writer busy, no stable snapshot")

// snapshotRetries bounds how many times a read is retried before giving up.
const snapshotRetries = 64

// Reader takes consistent snapshots from a Region using the sequence lock.
type Reader struct {
	region *Region
}

// NewReader wraps a region for seqlock reads. Works on both writable and
// read-only regions.
func NewReader(r *Region) *Reader {
	return &Reader{region: r}
}

func (r *Reader) seqWord() *uint64 {
	return (*uint64)(unsafe.Pointer(&r.region.data[protocol.OffSequence]))
}

// Snapshot copies the grid out of shared memory. It retries until it observes
// the same even sequence number before and after the copy, or fails with
// ErrBusy after the retry budget is spent.
func (r *Reader) Snapshot() (*protocol.Snapshot, error) {
	snap := protocol.NewSnapshot(r.region.width, r.region.height)
	for attempt := 0; attempt < snapshotRetries; attempt++ {
		before := atomic.LoadUint64(r.seqWord())
		if before%2 != 0 {
			continue
		}
		r.copyInto(snap)
		after := atomic.LoadUint64(r.seqWord())
		if after == before {
			return snap, nil
		}
	}
	return nil, ErrBusy
}

// Sequence returns the current sequence word. Odd means a write is in flight.
func (r *Reader) Sequence() uint64 {
	return atomic.LoadUint64(r.seqWord())
}

func (r *Reader) copyInto(snap *protocol.Snapshot) {
	data := r.region.data
	snap.Dirty = data[protocol.OffDirty] != 0
	snap.ErrorMode = data[protocol.OffErrorMode] != 0
	snap.CursorX = int(binary.LittleEndian.Uint16(data[protocol.OffCursorX:]))
	snap.CursorY = int(binary.LittleEndian.Uint16(data[protocol.OffCursorY:]))
	off := protocol.HeaderSize
	for i := range snap.Cells {
		snap.Cells[i] = protocol.DecodeCell(data[off : off+protocol.CellSize])
		off += protocol.CellSize
	}
}
