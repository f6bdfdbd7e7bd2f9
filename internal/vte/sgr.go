package vte

func (p *Parser) executeSGR() {
	if len(p.params) == 0 {
		p.params = []int{0}
	}

	for i := 0; i < len(p.params); i++ {
		param := p.params[i]
		switch param {
		case 0: // Reset
			p.eng.CurrentStyle = Style{}
		case 1:
			p.eng.CurrentStyle.Bold = true
		case 2:
			p.eng.CurrentStyle.Dim = true
		case 3:
			p.eng.CurrentStyle.Italic = true
		case 4:
			p.eng.CurrentStyle.Underline = true
		case 5, 6:
			p.eng.CurrentStyle.Blink = true
		case 7:
			p.eng.CurrentStyle.Reverse = true
		case 8:
			p.eng.CurrentStyle.Hidden = true
		case 9:
			p.eng.CurrentStyle.Strike = true
		case 21:
			p.eng.CurrentStyle.Bold = false
		case 22:
			p.eng.CurrentStyle.Bold = false
			p.eng.CurrentStyle.Dim = false
		case 23:
			p.eng.CurrentStyle.Italic = false
		case 24:
			p.eng.CurrentStyle.Underline = false
		case 25:
			p.eng.CurrentStyle.Blink = false
		case 27:
			p.eng.CurrentStyle.Reverse = false
		case 28:
			p.eng.CurrentStyle.Hidden = false
		case 29:
			p.eng.CurrentStyle.Strike = false
		case 30, 31, 32, 33, 34, 35, 36, 37: // FG colors 0-7
			p.eng.CurrentStyle.Fg = Color{Type: ColorIndexed, Value: uint32(param - 30)}
		case 38: // Extended FG
			i = p.parseExtendedColor(i, &p.eng.CurrentStyle.Fg)
		case 39: // Default FG
			p.eng.CurrentStyle.Fg = Color{Type: ColorDefault}
		case 40, 41, 42, 43, 44, 45, 46, 47: // BG colors 0-7
			p.eng.CurrentStyle.Bg = Color{Type: ColorIndexed, Value: uint32(param - 40)}
		case 48: // Extended BG
			i = p.parseExtendedColor(i, &p.eng.CurrentStyle.Bg)
		case 49: // Default BG
			p.eng.CurrentStyle.Bg = Color{Type: ColorDefault}
		case 90, 91, 92, 93, 94, 95, 96, 97: // Bright FG
			p.eng.CurrentStyle.Fg = Color{Type: ColorIndexed, Value: uint32(param - 90 + 8)}
		case 100, 101, 102, 103, 104, 105, 106, 107: // Bright BG
			p.eng.CurrentStyle.Bg = Color{Type: ColorIndexed, Value: uint32(param - 100 + 8)}
		}
	}
}

// parseExtendedColor handles 38/48 sequences ("38;5;n" and "38;2;r;g;b").
// Returns the index of the last parameter consumed.
func (p *Parser) parseExtendedColor(i int, color *Color) int {
	if i+1 >= len(p.params) {
		return i
	}
	switch p.params[i+1] {
	case 2: // RGB
		if i+4 < len(p.params) {
			r := clampByte(p.params[i+2])
			g := clampByte(p.params[i+3])
			b := clampByte(p.params[i+4])
			color.Type = ColorRGB
			color.Value = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			return i + 4
		}
	case 5: // 256 color
		if i+2 < len(p.params) {
			color.Type = ColorIndexed
			color.Value = uint32(clampByte(p.params[i+2]))
			return i + 2
		}
	}
	return i + 1
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
