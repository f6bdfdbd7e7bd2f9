package session

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/scarab-term/scarab/internal/logging"
	"github.com/scarab-term/scarab/internal/protocol"
	"github.com/scarab-term/scarab/internal/shm"
)

// frameInterval is the publication cadence, roughly 60 frames per second.
const frameInterval = 16 * time.Millisecond

// Compositor periodically publishes the active session's grid into shared
// memory. Frames identical to the previous one are skipped by content hash,
// so an idle terminal costs no seqlock churn.
type Compositor struct {
	manager *Manager
	writer  *shm.Writer
	width   int
	height  int

	lastHash uint64
	scratch  []byte
}

// NewCompositor binds a manager to a shared-memory writer of the given grid
// dimensions.
func NewCompositor(manager *Manager, writer *shm.Writer, width, height int) *Compositor {
	return &Compositor{
		manager: manager,
		writer:  writer,
		width:   width,
		height:  height,
		scratch: make([]byte, protocol.CellSize),
	}
}

// Run publishes frames until ctx is cancelled.
func (c *Compositor) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.publishFrame()
		}
	}
}

func (c *Compositor) publishFrame() {
	active := c.manager.Active()
	if active == nil {
		return
	}

	var snap *protocol.Snapshot
	if msg := active.ErrorState(); msg != "" {
		snap = shm.ErrorSnapshot(c.width, c.height, msg)
	} else {
		snap = active.Snapshot(c.width, c.height)
	}

	h := c.hashSnapshot(snap)
	if h == c.lastHash {
		return
	}

	if err := c.writer.Publish(snap); err != nil {
		logging.Error("publish frame: %v", err)
		return
	}
	c.lastHash = h
}

// hashSnapshot hashes the packed cell content plus cursor and flags.
func (c *Compositor) hashSnapshot(snap *protocol.Snapshot) uint64 {
	d := xxhash.New()
	for i := range snap.Cells {
		protocol.EncodeCell(c.scratch, snap.Cells[i])
		d.Write(c.scratch)
	}
	protocol.EncodeCell(c.scratch, protocol.Cell{
		Codepoint: uint32(snap.CursorX),
		Fg:        uint32(snap.CursorY),
		Bg:        boolBit(snap.ErrorMode),
	})
	d.Write(c.scratch)
	return d.Sum64()
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
