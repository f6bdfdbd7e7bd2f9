package images

import "errors"

// MaxTransferSize caps a single chunked transfer at 16 MiB. A transfer that
// exceeds the cap is discarded and further chunks for it fail until a new
// transfer starts.
const MaxTransferSize = 16 << 20

// ErrTransferTooLarge is returned when an in-flight transfer exceeds
// MaxTransferSize.
var ErrTransferTooLarge = errors.New("images: chunked transfer exceeds size limit")

// transfer is one in-flight chunked transmission. Continuation chunks carry
// only m (and optionally i), so the opening chunk's command holds the
// format, dimensions, and placement for the whole transfer.
type transfer struct {
	opener *KittyCommand
	data   []byte
}

// ChunkedTransfers accumulates multi-part image payloads keyed by image ID.
// A transfer whose chunks carry no ID goes into a single anonymous slot.
// Not safe for concurrent use; each session owns one.
type ChunkedTransfers struct {
	pending map[uint32]*transfer
	anon    *transfer
}

// NewChunkedTransfers returns an empty accumulator.
func NewChunkedTransfers() *ChunkedTransfers {
	return &ChunkedTransfers{pending: make(map[uint32]*transfer)}
}

// Add merges one transmit chunk into the accumulator. When the transfer
// completes, the opening chunk's command is returned with the reassembled
// payload attached; while more chunks are expected the result is nil.
func (t *ChunkedTransfers) Add(cmd *KittyCommand) (*KittyCommand, error) {
	cur := t.lookup(cmd)
	if cur == nil {
		if !cmd.MoreChunks {
			// Single-shot transmission.
			return cmd, nil
		}
		if len(cmd.Payload) > MaxTransferSize {
			return nil, ErrTransferTooLarge
		}
		t.store(cmd, &transfer{opener: cmd, data: cmd.Payload})
		return nil, nil
	}

	if len(cur.data)+len(cmd.Payload) > MaxTransferSize {
		t.drop(cmd)
		return nil, ErrTransferTooLarge
	}
	cur.data = append(cur.data, cmd.Payload...)
	if cmd.MoreChunks {
		return nil, nil
	}
	t.drop(cmd)
	cur.opener.Payload = cur.data
	cur.opener.MoreChunks = false
	return cur.opener, nil
}

func (t *ChunkedTransfers) lookup(cmd *KittyCommand) *transfer {
	if cmd.HasImageID {
		return t.pending[cmd.ImageID]
	}
	return t.anon
}

func (t *ChunkedTransfers) store(cmd *KittyCommand, tr *transfer) {
	if cmd.HasImageID {
		t.pending[cmd.ImageID] = tr
	} else {
		t.anon = tr
	}
}

func (t *ChunkedTransfers) drop(cmd *KittyCommand) {
	if cmd.HasImageID {
		delete(t.pending, cmd.ImageID)
	} else {
		t.anon = nil
	}
}

// Pending returns the number of incomplete transfers.
func (t *ChunkedTransfers) Pending() int {
	n := len(t.pending)
	if t.anon != nil {
		n++
	}
	return n
}

// Clear drops all incomplete transfers.
func (t *ChunkedTransfers) Clear() {
	clear(t.pending)
	t.anon = nil
}
