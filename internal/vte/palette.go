package vte

import "github.com/scarab-term/scarab/internal/protocol"

// Packed ARGB values for the default foreground and background. Readers treat
// these as sentinels, so SGR reset must restore them rather than zero.
const (
	DefaultFg = protocol.DefaultFg
	DefaultBg = protocol.DefaultBg
)

// ansiPalette holds the 16 base colors: normal 0-7, bright 8-15.
var ansiPalette = [16]uint32{
	0xFF000000, 0xFFCD0000, 0xFF00CD00, 0xFFCDCD00,
	0xFF0000EE, 0xFFCD00CD, 0xFF00CDCD, 0xFFE5E5E5,
	0xFF7F7F7F, 0xFFFF0000, 0xFF00FF00, 0xFFFFFF00,
	0xFF5C5CFF, 0xFFFF00FF, 0xFF00FFFF, 0xFFFFFFFF,
}

// palette256 maps a 256-color index to packed ARGB.
func palette256(idx uint32) uint32 {
	switch {
	case idx < 16:
		return ansiPalette[idx]
	case idx < 232:
		// 6x6x6 color cube
		i := idx - 16
		r := (i / 36) * 51
		g := ((i % 36) / 6) * 51
		b := (i % 6) * 51
		return 0xFF000000 | r<<16 | g<<8 | b
	case idx < 256:
		// Grayscale ramp
		level := 8 + (idx-232)*10
		return 0xFF000000 | level<<16 | level<<8 | level
	default:
		return DefaultFg
	}
}

// packColor converts a Color to packed ARGB, using def for the default
// sentinel.
func packColor(c Color, def uint32) uint32 {
	switch c.Type {
	case ColorIndexed:
		return palette256(c.Value)
	case ColorRGB:
		return 0xFF000000 | (c.Value & 0x00FFFFFF)
	default:
		return def
	}
}
