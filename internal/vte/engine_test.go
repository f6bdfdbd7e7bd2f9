package vte

import (
	"strings"
	"testing"

	"github.com/scarab-term/scarab/internal/protocol"
)

func screenText(e *Engine, row int) string {
	var b strings.Builder
	for _, cell := range e.Screen[row] {
		if cell.Width == 0 {
			continue
		}
		b.WriteRune(cell.Rune)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestPlainText(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("hello world"))
	if got := screenText(e, 0); got != "hello world" {
		t.Errorf("row 0 = %q, want %q", got, "hello world")
	}
	if e.CursorX != 11 || e.CursorY != 0 {
		t.Errorf("cursor = (%d,%d), want (11,0)", e.CursorX, e.CursorY)
	}
}

func TestSGRColors(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("Hello \x1b[31mRed\x1b[0m World"))

	if got := screenText(e, 0); got != "Hello Red World" {
		t.Errorf("row 0 = %q, want %q", got, "Hello Red World")
	}
	red := e.Screen[0][6]
	if red.Style.Fg.Type != ColorIndexed || red.Style.Fg.Value != 1 {
		t.Errorf("cell 6 fg = %+v, want indexed 1", red.Style.Fg)
	}
	after := e.Screen[0][10]
	if after.Style.Fg.Type != ColorDefault {
		t.Errorf("cell after reset should have default fg, got %+v", after.Style.Fg)
	}
}

func TestSGRAttributes(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("\x1b[1;4;7mX\x1b[0mY"))
	x := e.Screen[0][0].Style
	if !x.Bold || !x.Underline || !x.Reverse {
		t.Errorf("X style = %+v, want bold+underline+reverse", x)
	}
	y := e.Screen[0][1].Style
	if y.Bold || y.Underline || y.Reverse {
		t.Errorf("Y style should be reset, got %+v", y)
	}
}

func TestSGRTrueColorAnd256(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("\x1b[38;2;10;20;30mA\x1b[48;5;196mB"))
	a := e.Screen[0][0].Style.Fg
	if a.Type != ColorRGB || a.Value != 0x000A141E {
		t.Errorf("truecolor fg = %+v, want RGB 0A141E", a)
	}
	b := e.Screen[0][1].Style.Bg
	if b.Type != ColorIndexed || b.Value != 196 {
		t.Errorf("256 bg = %+v, want indexed 196", b)
	}
}

func TestLineWrap(t *testing.T) {
	e := New(10, 5)
	e.Write([]byte("0123456789AB"))
	if got := screenText(e, 0); got != "0123456789" {
		t.Errorf("row 0 = %q", got)
	}
	if got := screenText(e, 1); got != "AB" {
		t.Errorf("row 1 = %q, want AB", got)
	}
}

func TestScrollIntoScrollback(t *testing.T) {
	e := New(10, 3)
	e.Write([]byte("one\r\ntwo\r\nthree\r\nfour"))
	if len(e.Scrollback) != 1 {
		t.Fatalf("scrollback length = %d, want 1", len(e.Scrollback))
	}
	var b strings.Builder
	for _, cell := range e.Scrollback[0] {
		b.WriteRune(cell.Rune)
	}
	if got := strings.TrimRight(b.String(), " "); got != "one" {
		t.Errorf("scrollback line = %q, want one", got)
	}
	if got := screenText(e, 2); got != "four" {
		t.Errorf("bottom row = %q, want four", got)
	}
}

func TestCursorMovement(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("\x1b[5;10H"))
	if e.CursorX != 9 || e.CursorY != 4 {
		t.Errorf("cursor = (%d,%d), want (9,4)", e.CursorX, e.CursorY)
	}
	e.Write([]byte("\x1b[2A\x1b[3D"))
	if e.CursorX != 6 || e.CursorY != 2 {
		t.Errorf("cursor = (%d,%d), want (6,2)", e.CursorX, e.CursorY)
	}
	// Movement clamps at the edges.
	e.Write([]byte("\x1b[99A\x1b[99D"))
	if e.CursorX != 0 || e.CursorY != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0) after clamped movement", e.CursorX, e.CursorY)
	}
}

func TestEraseDisplay(t *testing.T) {
	e := New(10, 3)
	e.Write([]byte("aaaa\r\nbbbb\r\ncccc"))
	e.Write([]byte("\x1b[2J"))
	for y := 0; y < 3; y++ {
		if got := screenText(e, y); got != "" {
			t.Errorf("row %d = %q after ED 2, want empty", y, got)
		}
	}
}

func TestEraseLineModes(t *testing.T) {
	e := New(10, 2)
	e.Write([]byte("abcdefghij"))
	e.CursorX, e.CursorY = 4, 0
	e.Write([]byte("\x1b[1K")) // erase to start, inclusive
	if e.Screen[0][4].Rune != ' ' || e.Screen[0][0].Rune != ' ' {
		t.Errorf("EL 1 should blank cells 0-4")
	}
	if e.Screen[0][5].Rune != 'f' {
		t.Errorf("EL 1 should keep cell 5, got %q", e.Screen[0][5].Rune)
	}
	e.CursorX = 7
	e.Write([]byte("\x1b[K")) // erase to end
	if e.Screen[0][7].Rune != ' ' || e.Screen[0][9].Rune != ' ' {
		t.Errorf("EL 0 should blank cells 7-9")
	}
	if e.Screen[0][6].Rune != 'g' {
		t.Errorf("EL 0 should keep cell 6, got %q", e.Screen[0][6].Rune)
	}
}

func TestAltScreenRoundtrip(t *testing.T) {
	e := New(20, 5)
	e.Write([]byte("main content"))
	e.Write([]byte("\x1b[?1049h"))
	if !e.AltScreen {
		t.Fatalf("alt screen should be active")
	}
	if got := screenText(e, 0); got != "" {
		t.Errorf("alt screen should start blank, got %q", got)
	}
	e.Write([]byte("alt content"))
	e.Write([]byte("\x1b[?1049l"))
	if e.AltScreen {
		t.Fatalf("alt screen should be inactive")
	}
	if got := screenText(e, 0); got != "main content" {
		t.Errorf("main screen = %q, want %q", got, "main content")
	}
}

func TestLegacyAltScreenModes(t *testing.T) {
	for _, mode := range []string{"47", "1047"} {
		e := New(20, 5)
		e.Write([]byte("\x1b[?" + mode + "h"))
		if !e.AltScreen {
			t.Errorf("mode %s: alt screen should be active", mode)
		}
		e.Write([]byte("\x1b[?" + mode + "l"))
		if e.AltScreen {
			t.Errorf("mode %s: alt screen should be inactive", mode)
		}
	}
}

func TestWideCharOccupiesTwoCells(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("日本"))
	if e.Screen[0][0].Rune != '日' || e.Screen[0][0].Width != 2 {
		t.Errorf("cell 0 = %+v, want wide 日", e.Screen[0][0])
	}
	if e.Screen[0][1].Width != 0 {
		t.Errorf("cell 1 should be a continuation cell, got %+v", e.Screen[0][1])
	}
	if e.Screen[0][2].Rune != '本' {
		t.Errorf("cell 2 = %+v, want 本", e.Screen[0][2])
	}
	if e.CursorX != 4 {
		t.Errorf("cursor = %d, want 4", e.CursorX)
	}
}

func TestWideCharWrapsAtLastColumn(t *testing.T) {
	e := New(4, 3)
	e.Write([]byte("abc日"))
	// No room for a wide char in the last column: pad and wrap.
	if got := screenText(e, 0); got != "abc" {
		t.Errorf("row 0 = %q, want abc", got)
	}
	if e.Screen[1][0].Rune != '日' {
		t.Errorf("row 1 cell 0 = %+v, want 日", e.Screen[1][0])
	}
}

func TestSplitEscapeSequenceAcrossWrites(t *testing.T) {
	e := New(80, 24)
	for _, b := range []byte("\x1b[3") {
		e.Write([]byte{b})
	}
	for _, b := range []byte("1mRed") {
		e.Write([]byte{b})
	}
	if got := screenText(e, 0); got != "Red" {
		t.Errorf("row 0 = %q, want Red", got)
	}
	if fg := e.Screen[0][0].Style.Fg; fg.Type != ColorIndexed || fg.Value != 1 {
		t.Errorf("split SGR lost: fg = %+v", fg)
	}
}

func TestSplitUTF8AcrossWrites(t *testing.T) {
	e := New(80, 24)
	raw := []byte("é") // 2 bytes
	e.Write(raw[:1])
	e.Write(raw[1:])
	if e.Screen[0][0].Rune != 'é' {
		t.Errorf("cell 0 = %q, want é", e.Screen[0][0].Rune)
	}
}

func TestOSCTitleBELAndST(t *testing.T) {
	e := New(80, 24)
	e.Write([]byte("\x1b]0;my title\x07after-bel"))
	if got := screenText(e, 0); got != "after-bel" {
		t.Errorf("row 0 = %q, want after-bel", got)
	}
	e.Write([]byte("\r\x1b[K\x1b]0;other\x1b\\after-st"))
	if got := screenText(e, 0); got != "after-st" {
		t.Errorf("row 0 = %q, want after-st", got)
	}
}

func TestOSCAbortedByNewEscape(t *testing.T) {
	e := New(80, 24)
	// An OSC cut short by a fresh escape must not swallow the CSI
	// introducer that aborted it.
	e.Write([]byte("\x1b]0;title\x1b[31mred"))
	if got := screenText(e, 0); got != "red" {
		t.Errorf("row 0 = %q, want red", got)
	}
	fg := e.Screen[0][0].Style.Fg
	if fg.Type != ColorIndexed || fg.Value != 1 {
		t.Errorf("cell 0 fg = %+v, want indexed 1", fg)
	}
}

func TestDeviceStatusReport(t *testing.T) {
	e := New(80, 24)
	var responses [][]byte
	e.SetResponseWriter(func(data []byte) {
		responses = append(responses, append([]byte(nil), data...))
	})
	e.Write([]byte("\x1b[5;10H\x1b[6n"))
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if got := string(responses[0]); got != "\x1b[5;10R" {
		t.Errorf("CPR = %q, want ESC[5;10R", got)
	}
}

func TestScrollRegion(t *testing.T) {
	e := New(10, 5)
	e.Write([]byte("\x1b[2;4r")) // rows 2-4 (1-indexed)
	if e.ScrollTop != 1 || e.ScrollBottom != 4 {
		t.Errorf("region = [%d,%d), want [1,4)", e.ScrollTop, e.ScrollBottom)
	}
}

func TestResizePreservesContent(t *testing.T) {
	e := New(20, 5)
	e.Write([]byte("keep me"))
	e.Resize(30, 8)
	if got := screenText(e, 0); got != "keep me" {
		t.Errorf("row 0 after grow = %q", got)
	}
	e.Resize(5, 2)
	if e.CursorX >= 5 || e.CursorY >= 2 {
		t.Errorf("cursor (%d,%d) out of bounds after shrink", e.CursorX, e.CursorY)
	}
}

func TestSnapshotPacksColors(t *testing.T) {
	e := New(20, 5)
	e.Write([]byte("\x1b[31mR\x1b[0mD"))
	snap := e.Snapshot(20, 5)

	r := snap.CellAt(0, 0)
	if r.Codepoint != 'R' {
		t.Errorf("cell 0 codepoint = %d, want R", r.Codepoint)
	}
	if r.Fg != 0xFFCD0000 {
		t.Errorf("red fg = %08X, want FFCD0000", r.Fg)
	}
	d := snap.CellAt(1, 0)
	if d.Fg != protocol.DefaultFg || d.Bg != protocol.DefaultBg {
		t.Errorf("default cell colors = %08X/%08X", d.Fg, d.Bg)
	}
}

func TestSnapshotClampsToGrid(t *testing.T) {
	e := New(300, 200)
	e.Write([]byte("x"))
	snap := e.Snapshot(protocol.DefaultGridWidth, protocol.DefaultGridHeight)
	if snap.Width != protocol.DefaultGridWidth || snap.Height != protocol.DefaultGridHeight {
		t.Errorf("snapshot = %dx%d", snap.Width, snap.Height)
	}
	if snap.CursorX >= snap.Width || snap.CursorY >= snap.Height {
		t.Errorf("cursor (%d,%d) outside grid", snap.CursorX, snap.CursorY)
	}
}

func TestDirtyTracking(t *testing.T) {
	e := New(20, 5)
	e.Write([]byte("x"))
	if !e.Dirty() {
		t.Fatalf("write should mark dirty")
	}
	e.Snapshot(20, 5)
	if e.Dirty() {
		t.Errorf("snapshot should clear dirty")
	}
}

func TestBrokenSequencesAbsorbed(t *testing.T) {
	inputs := []string{
		"\x1b[999;999;999m",
		"\x1b[;;;H",
		"\x1b]99;junk\x07",
		"\x1bP garbage\x1b\\",
		"\x1b_Gmalformed\x1b\\",
		"\xff\xfe\xfd",
		"\x1b[38;2m",
		"\x1b[?9999h",
	}
	for _, in := range inputs {
		e := New(20, 5)
		e.Write([]byte(in))
		e.Write([]byte("ok"))
		// The engine must keep accepting input after garbage.
		found := false
		for y := 0; y < 5; y++ {
			if strings.Contains(screenText(e, y), "ok") {
				found = true
			}
		}
		if !found {
			t.Errorf("input %q wedged the parser", in)
		}
	}
}
