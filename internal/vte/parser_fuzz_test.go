package vte

import "testing"

func FuzzParser(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte("\x1b[31mred\x1b[0m"))
	f.Add([]byte("\x1b[?1049h\x1b[H\x1b[2J"))
	f.Add([]byte("\x1b]1337;File=inline=1:QUJD\x07"))
	f.Add([]byte("\x1b_Ga=T,f=24,s=1,v=1;AAAA\x1b\\"))
	f.Add([]byte("日本語\x1b[5;5H\x1b[38;2;1;2;3m"))
	f.Fuzz(func(t *testing.T, data []byte) {
		e := New(80, 24)
		e.Write(data)

		// Whatever came in, the engine must stay inside its grid.
		if e.CursorX < 0 || e.CursorX > e.Width || e.CursorY < 0 || e.CursorY >= e.Height {
			t.Fatalf("cursor (%d,%d) escaped %dx%d grid", e.CursorX, e.CursorY, e.Width, e.Height)
		}
		if len(e.Screen) != e.Height {
			t.Fatalf("screen has %d rows, want %d", len(e.Screen), e.Height)
		}
		for i, row := range e.Screen {
			if len(row) != e.Width {
				t.Fatalf("row %d has %d cells, want %d", i, len(row), e.Width)
			}
		}
	})
}

func FuzzParserByteAtATime(f *testing.F) {
	f.Add([]byte("\x1b[1;31mX\x1b[0m"))
	f.Add([]byte("wide 日 char"))
	f.Fuzz(func(t *testing.T, data []byte) {
		whole := New(80, 24)
		whole.Write(data)

		split := New(80, 24)
		for _, b := range data {
			split.Write([]byte{b})
		}

		// Chunking must not change the result.
		for y := range whole.Screen {
			for x := range whole.Screen[y] {
				if whole.Screen[y][x].Rune != split.Screen[y][x].Rune {
					t.Fatalf("cell (%d,%d) differs: %q vs %q", x, y,
						whole.Screen[y][x].Rune, split.Screen[y][x].Rune)
				}
			}
		}
	})
}
