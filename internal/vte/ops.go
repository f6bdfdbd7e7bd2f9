package vte

import "github.com/mattn/go-runewidth"

// putChar places a character at the current cursor position.
func (e *Engine) putChar(r rune) {
	width := runewidth.RuneWidth(r)

	// Combining characters (width 0) do not advance the cursor. The cell
	// format stores a single codepoint, so they are dropped.
	if width == 0 {
		return
	}

	// Wide characters: if at last column, pad with a space and wrap first to
	// avoid splitting the glyph.
	if width == 2 && e.CursorX == e.Width-1 {
		if e.CursorY >= 0 && e.CursorY < len(e.Screen) {
			e.Screen[e.CursorY][e.CursorX] = Cell{
				Rune:  ' ',
				Style: e.CurrentStyle,
				Width: 1,
			}
		}
		e.CursorX = 0
		e.CursorY++
		if e.CursorY >= e.ScrollBottom {
			e.scrollUp(1)
			e.CursorY = e.ScrollBottom - 1
		}
	}

	// Normal auto-wrap check
	if e.CursorX >= e.Width {
		e.CursorX = 0
		e.CursorY++
		if e.CursorY >= e.ScrollBottom {
			e.scrollUp(1)
			e.CursorY = e.ScrollBottom - 1
		}
	}

	if e.CursorY >= 0 && e.CursorY < len(e.Screen) &&
		e.CursorX >= 0 && e.CursorX < len(e.Screen[e.CursorY]) {

		current := e.Screen[e.CursorY][e.CursorX]

		// Overwriting a continuation cell orphans the wide char before it.
		if current.Width == 0 && e.CursorX > 0 {
			e.Screen[e.CursorY][e.CursorX-1] = DefaultCell()
		}

		// Overwriting a wide char orphans its continuation.
		if current.Width == 2 && e.CursorX+1 < e.Width {
			e.Screen[e.CursorY][e.CursorX+1] = DefaultCell()
		}

		e.Screen[e.CursorY][e.CursorX] = Cell{
			Rune:  r,
			Style: e.CurrentStyle,
			Width: width,
		}

		if width == 2 && e.CursorX+1 < e.Width {
			next := e.Screen[e.CursorY][e.CursorX+1]
			if next.Width == 2 && e.CursorX+2 < e.Width {
				e.Screen[e.CursorY][e.CursorX+2] = DefaultCell()
			}
			e.Screen[e.CursorY][e.CursorX+1] = Cell{
				Style: e.CurrentStyle,
				Width: 0, // Continuation cell
			}
		}
	}

	e.markDirty()
	e.CursorX += width
}

// newline moves cursor down, scrolling if needed.
func (e *Engine) newline() {
	e.CursorY++
	if e.CursorY >= e.ScrollBottom {
		e.scrollUp(1)
		e.CursorY = e.ScrollBottom - 1
	}
	e.markDirty()
}

// carriageReturn moves cursor to beginning of line.
func (e *Engine) carriageReturn() {
	e.CursorX = 0
	e.markDirty()
}

// tab moves cursor to next tab stop (every 8 columns).
func (e *Engine) tab() {
	e.CursorX = ((e.CursorX / 8) + 1) * 8
	if e.CursorX >= e.Width {
		e.CursorX = e.Width - 1
	}
	e.markDirty()
}

// backspace moves cursor back one.
func (e *Engine) backspace() {
	if e.CursorX > 0 {
		e.CursorX--
	}
	e.markDirty()
}

// scrollUp scrolls the screen up by n lines, capturing to scrollback.
func (e *Engine) scrollUp(n int) {
	if n <= 0 {
		return
	}

	regionHeight := e.ScrollBottom - e.ScrollTop
	if n > regionHeight {
		n = regionHeight
	}

	// Capture lines to scrollback (only when not in alt screen)
	if !e.AltScreen {
		top := e.ScrollTop
		bottom := top + n
		if bottom > e.ScrollBottom {
			bottom = e.ScrollBottom
		}
		for i := top; i < bottom; i++ {
			if i < len(e.Screen) {
				e.Scrollback = append(e.Scrollback, CopyLine(e.Screen[i]))
			}
		}
		e.trimScrollback()
	}

	// Shift screen content up within scroll region
	for i := e.ScrollTop; i < e.ScrollBottom-n; i++ {
		if i+n < len(e.Screen) {
			e.Screen[i] = e.Screen[i+n]
		}
	}

	// Fill bottom with blank lines
	for i := e.ScrollBottom - n; i < e.ScrollBottom; i++ {
		if i >= 0 && i < len(e.Screen) {
			e.Screen[i] = MakeBlankLine(e.Width)
		}
	}
	e.markDirty()
}

// scrollDown scrolls the screen down by n lines (reverse scroll).
func (e *Engine) scrollDown(n int) {
	if n <= 0 {
		return
	}

	regionHeight := e.ScrollBottom - e.ScrollTop
	if n > regionHeight {
		n = regionHeight
	}

	for i := e.ScrollBottom - 1; i >= e.ScrollTop+n; i-- {
		if i-n >= 0 && i < len(e.Screen) {
			e.Screen[i] = e.Screen[i-n]
		}
	}

	for i := e.ScrollTop; i < e.ScrollTop+n; i++ {
		if i >= 0 && i < len(e.Screen) {
			e.Screen[i] = MakeBlankLine(e.Width)
		}
	}
	e.markDirty()
}

// eraseDisplay clears parts of the display.
func (e *Engine) eraseDisplay(mode int) {
	switch mode {
	case 0: // Cursor to end
		if e.CursorY < len(e.Screen) {
			for x := e.CursorX; x < e.Width && x < len(e.Screen[e.CursorY]); x++ {
				e.Screen[e.CursorY][x] = DefaultCell()
			}
		}
		for y := e.CursorY + 1; y < e.Height && y < len(e.Screen); y++ {
			e.Screen[y] = MakeBlankLine(e.Width)
		}
	case 1: // Start to cursor
		for y := 0; y < e.CursorY && y < len(e.Screen); y++ {
			e.Screen[y] = MakeBlankLine(e.Width)
		}
		if e.CursorY < len(e.Screen) {
			for x := 0; x <= e.CursorX && x < len(e.Screen[e.CursorY]); x++ {
				e.Screen[e.CursorY][x] = DefaultCell()
			}
		}
	case 2, 3: // Entire display (3 also clears scrollback)
		for y := 0; y < e.Height && y < len(e.Screen); y++ {
			e.Screen[y] = MakeBlankLine(e.Width)
		}
		if mode == 3 {
			e.Scrollback = e.Scrollback[:0]
		}
	}
	e.markDirty()
}

// eraseLine clears parts of the current line.
func (e *Engine) eraseLine(mode int) {
	if e.CursorY >= len(e.Screen) {
		return
	}
	switch mode {
	case 0: // Cursor to end
		for x := e.CursorX; x < e.Width && x < len(e.Screen[e.CursorY]); x++ {
			e.Screen[e.CursorY][x] = DefaultCell()
		}
	case 1: // Start to cursor
		for x := 0; x <= e.CursorX && x < len(e.Screen[e.CursorY]); x++ {
			e.Screen[e.CursorY][x] = DefaultCell()
		}
	case 2: // Entire line
		e.Screen[e.CursorY] = MakeBlankLine(e.Width)
	}
	e.markDirty()
}

func (e *Engine) clampCursor() {
	if e.CursorX < 0 {
		e.CursorX = 0
	}
	if e.CursorX >= e.Width {
		e.CursorX = e.Width - 1
	}
	if e.CursorY < 0 {
		e.CursorY = 0
	}
	if e.CursorY >= e.Height {
		e.CursorY = e.Height - 1
	}
}

// setCursorPos sets cursor position (1-indexed input).
func (e *Engine) setCursorPos(row, col int) {
	e.CursorY = row - 1
	e.CursorX = col - 1
	e.clampCursor()
	e.markDirty()
}

// moveCursor moves cursor relative to current position.
func (e *Engine) moveCursor(dy, dx int) {
	e.CursorX += dx
	e.CursorY += dy
	e.clampCursor()
	e.markDirty()
}

// setScrollRegion sets the scrolling region (1-indexed input).
func (e *Engine) setScrollRegion(top, bottom int) {
	t := top - 1
	b := bottom

	if t < 0 {
		t = 0
	}
	if b > e.Height {
		b = e.Height
	}
	if t >= b {
		return
	}

	e.ScrollTop = t
	e.ScrollBottom = b
	e.CursorX = 0
	e.CursorY = 0
	e.markDirty()
}

// enterAltScreen switches to the alternate screen buffer.
func (e *Engine) enterAltScreen() {
	if e.AltScreen {
		return
	}
	e.AltScreen = true
	e.altCursorX = e.CursorX
	e.altCursorY = e.CursorY
	e.altScreenBuf = e.Screen
	e.Screen = e.makeScreen(e.Width, e.Height)
	e.CursorX = 0
	e.CursorY = 0
	e.markDirty()
}

// exitAltScreen returns to the main screen buffer.
func (e *Engine) exitAltScreen() {
	if !e.AltScreen {
		return
	}
	e.AltScreen = false
	e.Screen = e.altScreenBuf
	e.altScreenBuf = nil
	e.CursorX = e.altCursorX
	e.CursorY = e.altCursorY
	e.markDirty()
}

// saveCursor saves cursor position and attributes.
func (e *Engine) saveCursor() {
	e.SavedCursorX = e.CursorX
	e.SavedCursorY = e.CursorY
	e.SavedStyle = e.CurrentStyle
}

// restoreCursor restores cursor position and attributes.
func (e *Engine) restoreCursor() {
	e.CursorX = e.SavedCursorX
	e.CursorY = e.SavedCursorY
	e.CurrentStyle = e.SavedStyle
	e.markDirty()
}

// insertLines inserts n blank lines at cursor, pushing content down.
func (e *Engine) insertLines(n int) {
	if e.CursorY < e.ScrollTop || e.CursorY >= e.ScrollBottom {
		return
	}
	if maxN := e.ScrollBottom - e.CursorY; n > maxN {
		n = maxN
	}
	for i := e.ScrollBottom - 1; i >= e.CursorY+n; i-- {
		if i < len(e.Screen) && i-n >= 0 {
			e.Screen[i] = e.Screen[i-n]
		}
	}
	for i := e.CursorY; i < e.CursorY+n && i < e.ScrollBottom; i++ {
		if i < len(e.Screen) {
			e.Screen[i] = MakeBlankLine(e.Width)
		}
	}
	e.markDirty()
}

// deleteLines deletes n lines at cursor, pulling content up.
func (e *Engine) deleteLines(n int) {
	if e.CursorY < e.ScrollTop || e.CursorY >= e.ScrollBottom {
		return
	}
	if maxN := e.ScrollBottom - e.CursorY; n > maxN {
		n = maxN
	}
	for i := e.CursorY; i < e.ScrollBottom-n; i++ {
		if i+n < len(e.Screen) {
			e.Screen[i] = e.Screen[i+n]
		}
	}
	for i := e.ScrollBottom - n; i < e.ScrollBottom; i++ {
		if i >= 0 && i < len(e.Screen) {
			e.Screen[i] = MakeBlankLine(e.Width)
		}
	}
	e.markDirty()
}

// insertChars inserts n blank chars at cursor, shifting content right.
func (e *Engine) insertChars(n int) {
	if e.CursorY >= len(e.Screen) || n <= 0 {
		return
	}
	line := e.Screen[e.CursorY]
	for i := e.Width - 1; i >= e.CursorX+n; i-- {
		if i < len(line) && i-n >= 0 {
			line[i] = line[i-n]
		}
	}
	for i := e.CursorX; i < e.CursorX+n && i < e.Width; i++ {
		if i >= 0 && i < len(line) {
			line[i] = DefaultCell()
		}
	}
	normalizeLine(line)
	e.markDirty()
}

// deleteChars deletes n chars at cursor, shifting content left.
func (e *Engine) deleteChars(n int) {
	if e.CursorY >= len(e.Screen) || n <= 0 {
		return
	}
	line := e.Screen[e.CursorY]
	for i := e.CursorX; i < e.Width-n; i++ {
		if i >= 0 && i+n < len(line) {
			line[i] = line[i+n]
		}
	}
	for i := e.Width - n; i < e.Width; i++ {
		if i >= 0 && i < len(line) {
			line[i] = DefaultCell()
		}
	}
	normalizeLine(line)
	e.markDirty()
}

// eraseChars erases n chars at cursor without shifting.
func (e *Engine) eraseChars(n int) {
	if e.CursorY >= len(e.Screen) || n <= 0 {
		return
	}
	line := e.Screen[e.CursorY]
	for i := e.CursorX; i < e.CursorX+n && i < e.Width; i++ {
		if i >= 0 && i < len(line) {
			line[i] = DefaultCell()
		}
	}
	normalizeLine(line)
	e.markDirty()
}

// normalizeLine ensures wide characters (Width==2) and continuation cells
// (Width==0) stay paired after in-place line edits.
func normalizeLine(line []Cell) {
	for i := 0; i < len(line); i++ {
		switch line[i].Width {
		case 0:
			if i == 0 || line[i-1].Width != 2 {
				line[i] = DefaultCell()
			}
		case 2:
			if i+1 >= len(line) || line[i+1].Width != 0 {
				line[i] = DefaultCell()
			}
		}
	}
}
