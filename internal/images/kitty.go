// Package images parses the kitty graphics and iTerm2 inline image protocols
// and tracks decoded images for placement on the grid.
package images

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Format is the pixel format of a transmitted image.
type Format uint8

const (
	FormatPNG  Format = iota // f=100
	FormatRGB                // f=24
	FormatRGBA               // f=32
)

// Action is the graphics command verb.
type Action uint8

const (
	ActionTransmitAndDisplay Action = iota // a=T (default)
	ActionTransmit                         // a=t
	ActionPut                              // a=p
	ActionDelete                           // a=d
)

// Medium is the transmission medium.
type Medium uint8

const (
	MediumDirect   Medium = iota // t=d (default)
	MediumFile                   // t=f
	MediumTempFile               // t=t
	MediumShared                 // t=s
)

// KittyCommand is one parsed graphics escape sequence.
type KittyCommand struct {
	Action Action
	Format Format
	Medium Medium

	// MoreChunks is true when m=1: the payload is a fragment and the command
	// completes on a later m=0 sequence with the same image ID.
	MoreChunks bool

	ImageID     uint32
	HasImageID  bool
	PlacementID uint32

	SourceWidth  int // s, pixels
	SourceHeight int // v, pixels
	Columns      int // c, display columns
	Rows         int // r, display rows
	OffsetX      int // x, pixels within source
	OffsetY      int // y, pixels within source
	GridX        int // X, terminal column (-1 = cursor)
	GridY        int // Y, terminal row (-1 = cursor)
	ZIndex       int // z, stacking order

	// Payload holds the base64-decoded data, possibly partial when
	// MoreChunks is set.
	Payload []byte
}

// ParseKitty parses the body of an APC graphics sequence: the bytes between
// "ESC _ G" and "ESC \". Key=value pairs are comma-separated; an optional
// base64 payload follows the first ';'. Unknown keys are skipped so newer
// protocol revisions degrade gracefully.
func ParseKitty(body []byte) (*KittyCommand, error) {
	cmd := &KittyCommand{GridX: -1, GridY: -1}

	// The first ';' splits control data from the base64 payload. The payload
	// may itself end in '=' padding, so it must not be scanned for keys.
	control, payload, _ := strings.Cut(string(body), ";")
	for _, kv := range strings.Split(control, ",") {
		if kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		cmd.applyKey(key, value)
	}

	if payload != "" {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("images: kitty payload: %w", err)
		}
		cmd.Payload = data
	}
	return cmd, nil
}

func (cmd *KittyCommand) applyKey(key, value string) {
	switch key {
	case "a":
		switch value {
		case "t":
			cmd.Action = ActionTransmit
		case "T":
			cmd.Action = ActionTransmitAndDisplay
		case "p":
			cmd.Action = ActionPut
		case "d":
			cmd.Action = ActionDelete
		}
	case "f":
		switch value {
		case "24":
			cmd.Format = FormatRGB
		case "32":
			cmd.Format = FormatRGBA
		case "100":
			cmd.Format = FormatPNG
		}
	case "t":
		switch value {
		case "d":
			cmd.Medium = MediumDirect
		case "f":
			cmd.Medium = MediumFile
		case "t":
			cmd.Medium = MediumTempFile
		case "s":
			cmd.Medium = MediumShared
		}
	case "m":
		cmd.MoreChunks = value == "1"
	case "i":
		if id, err := strconv.ParseUint(value, 10, 32); err == nil {
			cmd.ImageID = uint32(id)
			cmd.HasImageID = true
		}
	case "p":
		if id, err := strconv.ParseUint(value, 10, 32); err == nil {
			cmd.PlacementID = uint32(id)
		}
	case "s":
		cmd.SourceWidth = atoiOrZero(value)
	case "v":
		cmd.SourceHeight = atoiOrZero(value)
	case "c":
		cmd.Columns = atoiOrZero(value)
	case "r":
		cmd.Rows = atoiOrZero(value)
	case "x":
		cmd.OffsetX = atoiOrZero(value)
	case "y":
		cmd.OffsetY = atoiOrZero(value)
	case "X":
		if n, err := strconv.Atoi(value); err == nil {
			cmd.GridX = n
		}
	case "Y":
		if n, err := strconv.Atoi(value); err == nil {
			cmd.GridY = n
		}
	case "z":
		if n, err := strconv.Atoi(value); err == nil {
			cmd.ZIndex = n
		}
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ValidatePayload checks that a raw pixel payload matches the declared
// dimensions. PNG payloads carry their own dimensions and always pass.
func (cmd *KittyCommand) ValidatePayload(data []byte) error {
	var bpp int
	switch cmd.Format {
	case FormatRGB:
		bpp = 3
	case FormatRGBA:
		bpp = 4
	default:
		return nil
	}
	want := cmd.SourceWidth * cmd.SourceHeight * bpp
	if len(data) != want {
		return fmt.Errorf("images: raw payload is %d bytes, want %d for %dx%d",
			len(data), want, cmd.SourceWidth, cmd.SourceHeight)
	}
	return nil
}
