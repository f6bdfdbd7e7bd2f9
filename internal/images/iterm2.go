package images

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// SizeMode distinguishes the forms an iTerm2 dimension can take.
type SizeMode uint8

const (
	SizeAuto    SizeMode = iota // "auto" or unparseable
	SizeCells                   // bare number
	SizePixels                  // "Npx"
	SizePercent                 // "N%"
)

// Size is a width or height specification from an inline image sequence.
type Size struct {
	Mode  SizeMode
	Value float64
}

// InlineImage is a parsed OSC 1337 File sequence.
type InlineImage struct {
	// Data holds the decoded file contents (PNG, JPEG, GIF, ...).
	Data []byte

	Width  Size
	Height Size

	PreserveAspectRatio bool
	Inline              bool
	DoNotMoveCursor     bool

	// Filename is the base64-decoded name argument, empty if absent.
	Filename string
}

// ParseInline parses the body of an OSC 1337 sequence (everything after
// "1337;"). The body must be "File=" followed by semicolon-separated
// arguments, a ':' separator, and the base64 file contents.
func ParseInline(body string) (*InlineImage, error) {
	content, ok := strings.CutPrefix(body, "File=")
	if !ok {
		return nil, fmt.Errorf("images: inline sequence missing File= prefix")
	}

	args, payload, ok := strings.Cut(content, ":")
	if !ok {
		return nil, fmt.Errorf("images: inline sequence missing ':' separator")
	}

	img := &InlineImage{
		PreserveAspectRatio: true,
		Inline:              true,
	}
	for _, arg := range strings.Split(args, ";") {
		if arg == "" {
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		switch key {
		case "name":
			if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
				img.Filename = string(decoded)
			}
		case "width":
			img.Width = parseSize(value)
		case "height":
			img.Height = parseSize(value)
		case "preserveAspectRatio":
			img.PreserveAspectRatio = value == "1"
		case "inline":
			img.Inline = value == "1"
		case "doNotMoveCursor":
			img.DoNotMoveCursor = value == "1"
		case "size":
			// Byte-count hint; the decoded length is authoritative.
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("images: inline payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("images: inline image has empty data")
	}
	img.Data = data
	return img, nil
}

// parseSize parses "auto", "N" (cells), "Npx" (pixels), or "N%" (percent).
// Unparseable values fall back to auto.
func parseSize(s string) Size {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return Size{Mode: SizeAuto}
	}
	if rest, ok := strings.CutSuffix(s, "%"); ok {
		if v, err := strconv.ParseFloat(rest, 64); err == nil {
			return Size{Mode: SizePercent, Value: v}
		}
	}
	if rest, ok := strings.CutSuffix(s, "px"); ok {
		if v, err := strconv.ParseUint(rest, 10, 32); err == nil {
			return Size{Mode: SizePixels, Value: float64(v)}
		}
	}
	if v, err := strconv.ParseUint(s, 10, 16); err == nil {
		return Size{Mode: SizeCells, Value: float64(v)}
	}
	return Size{Mode: SizeAuto}
}
