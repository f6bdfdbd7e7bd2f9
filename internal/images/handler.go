package images

import "fmt"

// Handler wires the protocol parsers to a registry. A session owns one and
// feeds it from the escape-sequence engine's graphics callbacks. Errors are
// reported for logging; the caller absorbs them without disturbing the grid.
type Handler struct {
	registry  *Registry
	transfers *ChunkedTransfers

	// nextID assigns IDs to transmissions that omit i=.
	nextID uint32
}

// NewHandler returns a handler with an empty registry.
func NewHandler() *Handler {
	return &Handler{
		registry:  NewRegistry(),
		transfers: NewChunkedTransfers(),
	}
}

// Registry exposes the stored images and placements.
func (h *Handler) Registry() *Registry {
	return h.registry
}

// HandleGraphics processes one APC graphics payload (the bytes after
// "ESC _ G").
func (h *Handler) HandleGraphics(payload []byte) error {
	cmd, err := ParseKitty(payload)
	if err != nil {
		return err
	}

	switch cmd.Action {
	case ActionDelete:
		if cmd.HasImageID {
			h.registry.Delete(cmd.ImageID)
		}
		return nil

	case ActionPut:
		if !cmd.HasImageID {
			return fmt.Errorf("images: put without image id")
		}
		return h.registry.Place(placementFor(cmd))

	case ActionTransmit, ActionTransmitAndDisplay:
		// On a multi-chunk transfer the format, dimensions, and placement
		// all come from the opening chunk's command.
		done, err := h.transfers.Add(cmd)
		if err != nil || done == nil {
			return err
		}
		cmd = done
		id := cmd.ImageID
		if !cmd.HasImageID {
			h.nextID++
			id = h.nextID | 1<<31 // keep clear of client-chosen IDs
		}
		if err := cmd.ValidatePayload(cmd.Payload); err != nil {
			return err
		}
		h.registry.Store(id, cmd.Format, cmd.SourceWidth, cmd.SourceHeight, cmd.Payload)
		if cmd.Action == ActionTransmitAndDisplay {
			p := placementFor(cmd)
			p.ImageID = id
			return h.registry.Place(p)
		}
		return nil
	}
	return nil
}

// HandleInline processes one OSC 1337 body. The decoded file is stored with
// a fresh ID and placed at the cursor.
func (h *Handler) HandleInline(body string) error {
	img, err := ParseInline(body)
	if err != nil {
		return err
	}
	if !img.Inline {
		// Download-only transfers have no grid placement.
		return nil
	}
	h.nextID++
	id := h.nextID | 1<<31
	h.registry.Store(id, FormatPNG, 0, 0, img.Data)
	cols, rows := 0, 0
	if img.Width.Mode == SizeCells {
		cols = int(img.Width.Value)
	}
	if img.Height.Mode == SizeCells {
		rows = int(img.Height.Value)
	}
	return h.registry.Place(Placement{
		ImageID:     id,
		PlacementID: id,
		Col:         -1,
		Row:         -1,
		Cols:        cols,
		Rows:        rows,
	})
}

func placementFor(cmd *KittyCommand) Placement {
	return Placement{
		ImageID:     cmd.ImageID,
		PlacementID: cmd.PlacementID,
		Col:         cmd.GridX,
		Row:         cmd.GridY,
		Cols:        cmd.Columns,
		Rows:        cmd.Rows,
		ZIndex:      cmd.ZIndex,
	}
}
