package vte

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser states
type parseState int

const (
	stateGround parseState = iota
	stateEscape
	stateCSI
	stateCSIParam
	stateOSC
	stateOSCEsc
	stateDCS
	stateDCSEsc
	stateAPC
	stateAPCEsc
)

// maxStringBuf bounds OSC/APC accumulation so an unterminated string sequence
// cannot grow without limit. Graphics payloads are large, hence the size.
const maxStringBuf = 32 << 20

// Parser handles escape sequence parsing. All input is absorbed: an
// unrecognized or malformed sequence resets the state machine without
// touching the grid.
type Parser struct {
	eng   *Engine
	state parseState

	// CSI sequence building
	params          []int
	paramBuf        strings.Builder
	intermediate    byte
	csiIntermediate byte

	// OSC / APC sequence building
	oscBuf strings.Builder
	apcBuf []byte

	// UTF-8 decoding state
	utf8Buf [4]byte
	utf8Len int // expected length
	utf8Pos int // current position
}

// NewParser creates a parser bound to eng.
func NewParser(eng *Engine) *Parser {
	return &Parser{
		eng:    eng,
		state:  stateGround,
		params: make([]int, 0, 16),
	}
}

// Parse processes bytes from PTY output. State carries over between calls.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		p.parseByte(b)
	}
}

func (p *Parser) parseByte(b byte) {
	switch p.state {
	case stateGround:
		p.parseGround(b)
	case stateEscape:
		p.parseEscape(b)
	case stateCSI:
		p.parseCSI(b)
	case stateCSIParam:
		p.parseCSIParam(b)
	case stateOSC:
		p.parseOSC(b)
	case stateOSCEsc:
		// ESC \ (ST) ends the string; anything else aborts it and starts
		// a fresh escape sequence.
		if b == '\\' {
			p.executeOSC()
			p.oscBuf.Reset()
			p.state = stateGround
		} else {
			p.oscBuf.Reset()
			p.state = stateEscape
			p.parseEscape(b)
		}
	case stateDCS:
		if b == 0x1b {
			p.state = stateDCSEsc
		}
	case stateDCSEsc:
		p.state = stateGround
		if b != '\\' {
			// Not ST; reprocess as a fresh escape.
			p.state = stateEscape
			p.parseEscape(b)
		}
	case stateAPC:
		p.parseAPC(b)
	case stateAPCEsc:
		if b == '\\' {
			p.executeAPC()
			p.apcBuf = p.apcBuf[:0]
			p.state = stateGround
		} else {
			p.apcBuf = p.apcBuf[:0]
			p.state = stateEscape
			p.parseEscape(b)
		}
	}
}

func (p *Parser) parseGround(b byte) {
	// Handle UTF-8 continuation if we're in the middle of a sequence
	if p.utf8Len > 0 {
		if b >= 0x80 && b <= 0xBF {
			p.utf8Buf[p.utf8Pos] = b
			p.utf8Pos++
			if p.utf8Pos == p.utf8Len {
				r := decodeUTF8(p.utf8Buf[:p.utf8Len])
				p.eng.putChar(r)
				p.utf8Len = 0
				p.utf8Pos = 0
			}
			return
		}
		// Invalid continuation - reset and process this byte normally
		p.utf8Len = 0
		p.utf8Pos = 0
	}

	switch {
	case b == 0x1b: // ESC
		p.state = stateEscape
	case b == '\n':
		p.eng.newline()
	case b == '\r':
		p.eng.carriageReturn()
	case b == '\t':
		p.eng.tab()
	case b == '\b':
		p.eng.backspace()
	case b == 0x07: // BEL
		// Ignore
	case b == 0x0e, b == 0x0f: // SI/SO (charset switching)
		// Ignore
	case b >= 0x20 && b < 0x7f: // Printable ASCII
		p.eng.putChar(rune(b))
	case b >= 0xC0 && b <= 0xDF: // 2-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 2
		p.utf8Pos = 1
	case b >= 0xE0 && b <= 0xEF: // 3-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 3
		p.utf8Pos = 1
	case b >= 0xF0 && b <= 0xF7: // 4-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 4
		p.utf8Pos = 1
	}
}

// decodeUTF8 decodes a UTF-8 byte sequence into a rune.
func decodeUTF8(b []byte) rune {
	switch len(b) {
	case 2:
		return rune(b[0]&0x1F)<<6 | rune(b[1]&0x3F)
	case 3:
		return rune(b[0]&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
	case 4:
		return rune(b[0]&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F)
	default:
		return 0xFFFD
	}
}

func (p *Parser) parseEscape(b byte) {
	switch b {
	case '[': // CSI
		p.state = stateCSI
		p.params = p.params[:0]
		p.paramBuf.Reset()
		p.intermediate = 0
		p.csiIntermediate = 0
	case ']': // OSC
		p.state = stateOSC
		p.oscBuf.Reset()
	case 'P': // DCS
		p.state = stateDCS
	case '_': // APC (graphics protocol)
		p.state = stateAPC
		p.apcBuf = p.apcBuf[:0]
	case '(', ')': // Charset designation
		p.state = stateGround // Ignore next char
	case '7': // DECSC - save cursor
		p.eng.saveCursor()
		p.state = stateGround
	case '8': // DECRC - restore cursor
		p.eng.restoreCursor()
		p.state = stateGround
	case 'M': // RI - reverse index
		if p.eng.CursorY == p.eng.ScrollTop {
			p.eng.scrollDown(1)
		} else if p.eng.CursorY > 0 {
			p.eng.CursorY--
		}
		p.state = stateGround
	case 'D': // IND - index
		p.eng.newline()
		p.state = stateGround
	case 'E': // NEL - next line
		p.eng.carriageReturn()
		p.eng.newline()
		p.state = stateGround
	case 'c': // RIS - reset
		p.eng.CurrentStyle = Style{}
		p.eng.CursorX = 0
		p.eng.CursorY = 0
		p.state = stateGround
	case '=', '>': // DECKPAM/DECKPNM
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) parseCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.paramBuf.WriteByte(b)
		p.state = stateCSIParam
	case b == ';':
		p.pushParam()
		p.state = stateCSIParam
	case b == '?', b == '>', b == '!', b == '<':
		p.intermediate = b
		p.state = stateCSIParam
	case b >= 0x20 && b <= 0x2f: // Intermediate bytes
		p.csiIntermediate = b
		p.state = stateCSIParam
	case b >= 0x40 && b <= 0x7e: // Final byte
		p.pushParam()
		p.executeCSI(b)
		p.state = stateGround
	case b == 0x1b: // Escape interrupts
		p.state = stateEscape
	default:
		p.state = stateGround
	}
}

func (p *Parser) parseCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.paramBuf.WriteByte(b)
	case b == ';':
		p.pushParam()
	case b == ':': // Sub-parameter separator
		p.paramBuf.WriteByte(b)
	case b >= 0x20 && b <= 0x2f:
		p.csiIntermediate = b
	case b >= 0x40 && b <= 0x7e: // Final byte
		p.pushParam()
		p.executeCSI(b)
		p.state = stateGround
	case b == 0x1b:
		p.state = stateEscape
	default:
		p.state = stateGround
	}
}

func (p *Parser) pushParam() {
	if p.paramBuf.Len() > 0 {
		s := p.paramBuf.String()
		// Sub-parameters arrive colon-separated ("38:2:255:128:0")
		if strings.Contains(s, ":") {
			for _, part := range strings.Split(s, ":") {
				val, _ := strconv.Atoi(part)
				p.params = append(p.params, val)
			}
		} else {
			val, _ := strconv.Atoi(s)
			p.params = append(p.params, val)
		}
	} else {
		p.params = append(p.params, 0)
	}
	p.paramBuf.Reset()
}

func (p *Parser) getParam(idx, def int) int {
	if idx < len(p.params) && p.params[idx] != 0 {
		return p.params[idx]
	}
	return def
}

func (p *Parser) executeCSI(final byte) {
	switch final {
	case 'A': // CUU - cursor up
		p.eng.moveCursor(-p.getParam(0, 1), 0)
	case 'B': // CUD - cursor down
		p.eng.moveCursor(p.getParam(0, 1), 0)
	case 'C': // CUF - cursor forward
		p.eng.moveCursor(0, p.getParam(0, 1))
	case 'D': // CUB - cursor back
		p.eng.moveCursor(0, -p.getParam(0, 1))
	case 'E': // CNL - cursor next line
		p.eng.CursorX = 0
		p.eng.moveCursor(p.getParam(0, 1), 0)
	case 'F': // CPL - cursor previous line
		p.eng.CursorX = 0
		p.eng.moveCursor(-p.getParam(0, 1), 0)
	case 'G': // CHA - cursor horizontal absolute
		p.eng.CursorX = p.getParam(0, 1) - 1
		p.eng.clampCursor()
	case 'H', 'f': // CUP - cursor position
		p.eng.setCursorPos(p.getParam(0, 1), p.getParam(1, 1))
	case 'J': // ED - erase display
		p.eng.eraseDisplay(p.getParam(0, 0))
	case 'K': // EL - erase line
		p.eng.eraseLine(p.getParam(0, 0))
	case 'L': // IL - insert lines
		p.eng.insertLines(p.getParam(0, 1))
	case 'M': // DL - delete lines
		p.eng.deleteLines(p.getParam(0, 1))
	case 'P': // DCH - delete chars
		p.eng.deleteChars(p.getParam(0, 1))
	case 'S': // SU - scroll up
		p.eng.scrollUp(p.getParam(0, 1))
	case 'T': // SD - scroll down
		p.eng.scrollDown(p.getParam(0, 1))
	case 'X': // ECH - erase chars
		p.eng.eraseChars(p.getParam(0, 1))
	case '@': // ICH - insert chars
		p.eng.insertChars(p.getParam(0, 1))
	case 'd': // VPA - vertical position absolute
		p.eng.CursorY = p.getParam(0, 1) - 1
		p.eng.clampCursor()
	case 'm': // SGR
		p.executeSGR()
	case 'n': // DSR - device status report
		p.executeDSR()
	case 'r': // DECSTBM - set scrolling region
		p.eng.setScrollRegion(p.getParam(0, 1), p.getParam(1, p.eng.Height))
	case 's': // SCP - save cursor position
		p.eng.saveCursor()
	case 'u': // RCP - restore cursor position
		p.eng.restoreCursor()
	case 'c': // DA - device attributes
		if p.intermediate == '>' {
			p.eng.respond([]byte("\x1b[>1;10;0c"))
		} else if p.intermediate == 0 {
			p.eng.respond([]byte("\x1b[?62;22c"))
		}
	case 'h': // SM/DECSET
		p.executeMode(true)
	case 'l': // RM/DECRST
		p.executeMode(false)
	case 't': // Window operations
		// Ignore
	}
}

func (p *Parser) executeDSR() {
	if len(p.params) == 0 {
		return
	}
	switch p.params[0] {
	case 5: // Status report - respond "OK"
		p.eng.respond([]byte("\x1b[0n"))
	case 6: // Cursor position report, 1-indexed
		p.eng.respond([]byte(fmt.Sprintf("\x1b[%d;%dR", p.eng.CursorY+1, p.eng.CursorX+1)))
	}
}

func (p *Parser) executeMode(set bool) {
	if p.intermediate != '?' {
		return
	}
	for _, param := range p.params {
		switch param {
		case 1: // DECCKM
			// Ignore
		case 7: // DECAWM - always on
		case 12, 25: // Cursor blink/visibility
			// Ignore
		case 47, 1047, 1049: // Alternate screen buffer
			if set {
				p.eng.enterAltScreen()
			} else {
				p.eng.exitAltScreen()
			}
		case 2004: // Bracketed paste
			// Ignore
		}
	}
}

func (p *Parser) parseOSC(b byte) {
	switch b {
	case 0x07: // BEL terminates
		p.executeOSC()
		p.oscBuf.Reset()
		p.state = stateGround
	case 0x1b:
		p.state = stateOSCEsc
	default:
		if p.oscBuf.Len() < maxStringBuf {
			p.oscBuf.WriteByte(b)
		}
	}
}

func (p *Parser) executeOSC() {
	s := p.oscBuf.String()
	// Inline images: OSC 1337 ; File=... . Other OSC codes (titles, color
	// queries) are absorbed.
	if body, ok := strings.CutPrefix(s, "1337;"); ok && p.eng.onInlineImage != nil {
		p.eng.onInlineImage(body)
	}
}

func (p *Parser) parseAPC(b byte) {
	if b == 0x1b {
		p.state = stateAPCEsc
		return
	}
	if len(p.apcBuf) < maxStringBuf {
		p.apcBuf = append(p.apcBuf, b)
	}
}

func (p *Parser) executeAPC() {
	// Graphics sequences start with 'G'. Anything else is absorbed.
	if len(p.apcBuf) > 0 && p.apcBuf[0] == 'G' && p.eng.onGraphics != nil {
		p.eng.onGraphics(p.apcBuf[1:])
	}
}
