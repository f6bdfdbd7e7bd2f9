package vte

import "github.com/scarab-term/scarab/internal/protocol"

const MaxScrollback = 10000

// ResponseWriter is called when the terminal needs to send a response back to
// the PTY (DSR, DA, etc.).
type ResponseWriter func([]byte)

// GraphicsHandler receives the payload of an APC graphics sequence
// (everything between ESC _ and ESC \).
type GraphicsHandler func(payload []byte)

// InlineImageHandler receives the body of an OSC 1337 sequence (everything
// after "1337;").
type InlineImageHandler func(body string)

// Engine is the escape-sequence state machine plus the grid it mutates.
type Engine struct {
	// Screen buffer (visible area)
	Screen [][]Cell

	// Scrollback buffer (oldest at index 0)
	Scrollback [][]Cell

	// Cursor position (0-indexed)
	CursorX, CursorY int

	// Dimensions
	Width, Height int

	// Alt screen mode (vim, etc.)
	AltScreen    bool
	altScreenBuf [][]Cell
	altCursorX   int
	altCursorY   int

	// Scrolling region (for DECSTBM)
	ScrollTop    int
	ScrollBottom int

	// Current style for new characters
	CurrentStyle Style

	// Saved cursor state (for DECSC/DECRC)
	SavedCursorX int
	SavedCursorY int
	SavedStyle   Style

	parser *Parser

	responseWriter ResponseWriter
	onGraphics     GraphicsHandler
	onInlineImage  InlineImageHandler

	dirty bool
}

// New creates an Engine with the given dimensions.
func New(width, height int) *Engine {
	e := &Engine{
		Width:        width,
		Height:       height,
		ScrollTop:    0,
		ScrollBottom: height,
	}
	e.Screen = e.makeScreen(width, height)
	e.Scrollback = make([][]Cell, 0, MaxScrollback)
	e.parser = NewParser(e)
	return e
}

func (e *Engine) makeScreen(width, height int) [][]Cell {
	screen := make([][]Cell, height)
	for i := range screen {
		screen[i] = MakeBlankLine(width)
	}
	return screen
}

// Write processes output bytes from the PTY. Parser state persists across
// calls, so escape sequences may be split at any byte boundary.
func (e *Engine) Write(data []byte) {
	e.parser.Parse(data)
}

// Resize changes the grid dimensions, pushing overflow lines to scrollback
// when the height shrinks.
func (e *Engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == e.Width && height == e.Height {
		return
	}

	if height < e.Height && !e.AltScreen {
		overflow := e.Height - height
		for i := 0; i < overflow; i++ {
			if len(e.Screen) > 0 {
				e.Scrollback = append(e.Scrollback, e.Screen[0])
				e.Screen = e.Screen[1:]
			}
		}
		e.trimScrollback()
	}

	newScreen := e.makeScreen(width, height)
	for y := 0; y < min(height, len(e.Screen)); y++ {
		copy(newScreen[y], e.Screen[y][:min(width, len(e.Screen[y]))])
	}
	e.Screen = newScreen

	e.Width = width
	e.Height = height

	if e.ScrollBottom > height || e.ScrollBottom == 0 {
		e.ScrollBottom = height
	}
	if e.ScrollTop >= e.ScrollBottom {
		e.ScrollTop = 0
	}

	if e.CursorX >= width {
		e.CursorX = width - 1
	}
	if e.CursorY >= height {
		e.CursorY = height - 1
	}

	if e.altScreenBuf != nil {
		newAlt := e.makeScreen(width, height)
		for y := 0; y < min(height, len(e.altScreenBuf)); y++ {
			copy(newAlt[y], e.altScreenBuf[y][:min(width, len(e.altScreenBuf[y]))])
		}
		e.altScreenBuf = newAlt
	}
	e.markDirty()
}

// SetResponseWriter sets the callback for terminal query responses.
func (e *Engine) SetResponseWriter(w ResponseWriter) {
	e.responseWriter = w
}

// SetGraphicsHandler sets the callback for APC graphics payloads.
func (e *Engine) SetGraphicsHandler(h GraphicsHandler) {
	e.onGraphics = h
}

// SetInlineImageHandler sets the callback for OSC 1337 inline image bodies.
func (e *Engine) SetInlineImageHandler(h InlineImageHandler) {
	e.onInlineImage = h
}

func (e *Engine) respond(data []byte) {
	if e.responseWriter != nil {
		e.responseWriter(data)
	}
}

// Dirty reports whether the grid changed since the last Snapshot.
func (e *Engine) Dirty() bool { return e.dirty }

func (e *Engine) markDirty() { e.dirty = true }

// Snapshot packs the visible grid into the shared-memory cell format and
// clears the dirty flag. Cells beyond the snapshot grid are left blank when
// the engine is smaller than the target dimensions; content is cropped when
// it is larger.
func (e *Engine) Snapshot(w, h int) *protocol.Snapshot {
	snap := protocol.NewSnapshot(w, h)
	snap.Dirty = e.dirty
	e.dirty = false

	for y := 0; y < min(h, len(e.Screen)); y++ {
		line := e.Screen[y]
		for x := 0; x < min(w, len(line)); x++ {
			snap.Cells[y*w+x] = packCell(line[x])
		}
	}
	snap.CursorX = min(e.CursorX, w-1)
	snap.CursorY = min(e.CursorY, h-1)
	return snap
}

// packCell converts an engine cell to the packed wire format.
func packCell(c Cell) protocol.Cell {
	out := protocol.Cell{
		Fg: packColor(c.Style.Fg, DefaultFg),
		Bg: packColor(c.Style.Bg, DefaultBg),
	}
	if c.Width != 0 {
		out.Codepoint = uint32(c.Rune)
	}
	if c.Style.Bold {
		out.Flags |= protocol.FlagBold
	}
	if c.Style.Italic {
		out.Flags |= protocol.FlagItalic
	}
	if c.Style.Underline {
		out.Flags |= protocol.FlagUnderline
	}
	if c.Style.Reverse {
		out.Flags |= protocol.FlagReverse
	}
	if c.Style.Dim {
		out.Flags |= protocol.FlagDim
	}
	if c.Style.Strike {
		out.Flags |= protocol.FlagStrike
	}
	if c.Style.Blink {
		out.Flags |= protocol.FlagBlink
	}
	if c.Style.Hidden {
		out.Flags |= protocol.FlagHidden
	}
	return out
}

func (e *Engine) trimScrollback() {
	if len(e.Scrollback) > MaxScrollback {
		e.Scrollback = e.Scrollback[len(e.Scrollback)-MaxScrollback:]
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
