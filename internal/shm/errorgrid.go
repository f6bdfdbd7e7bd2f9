package shm

import (
	"strings"

	"github.com/scarab-term/scarab/internal/protocol"
)

// errorFg and errorBg are the colors used for error banners: white on black.
const (
	errorFg = 0xFFFFFFFF
	errorBg = 0xFF000000
)

// ErrorSnapshot builds a full grid showing msg word-wrapped from the top-left
// corner, with the error-mode flag set. Words longer than the grid width are
// broken mid-word.
func ErrorSnapshot(w, h int, msg string) *protocol.Snapshot {
	snap := protocol.NewSnapshot(w, h)
	snap.Dirty = true
	snap.ErrorMode = true

	x, y := 0, 0
	put := func(r rune) {
		if y >= h {
			return
		}
		c := &snap.Cells[y*w+x]
		c.Codepoint = uint32(r)
		c.Fg = errorFg
		c.Bg = errorBg
		x++
		if x >= w {
			x, y = 0, y+1
		}
	}
	for _, word := range strings.Fields(msg) {
		n := len([]rune(word))
		if x > 0 && x+n > w && n <= w {
			x, y = 0, y+1
		}
		for _, r := range word {
			put(r)
		}
		if x > 0 && x < w {
			put(' ')
		}
		if y >= h {
			break
		}
	}
	return snap
}

// PublishError publishes an error banner for msg into the region.
func (w *Writer) PublishError(msg string) error {
	return w.Publish(ErrorSnapshot(w.region.width, w.region.height, msg))
}
