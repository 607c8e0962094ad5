package monitor

import (
	"io"
	"strings"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	clearLine   = "\x1b[K"
	clearBelow  = "\x1b[J"
)

// PlainRenderer redraws the dashboard in place on a plain terminal or pipe.
// Only the first frame clears the screen; later frames clear line by line.
type PlainRenderer struct {
	w       io.Writer
	width   int
	started bool
}

// NewPlainRenderer writes frames to w at the given width.
func NewPlainRenderer(w io.Writer, width int) *PlainRenderer {
	return &PlainRenderer{w: w, width: width}
}

// Render writes one frame.
func (r *PlainRenderer) Render(s *Snapshot) error {
	var b strings.Builder
	if !r.started {
		b.WriteString(clearScreen)
		r.started = true
	}
	b.WriteString(cursorHome)
	for _, line := range strings.Split(strings.TrimRight(Render(s, r.width), "\n"), "\n") {
		b.WriteString(line)
		b.WriteString(clearLine)
		b.WriteString("\n")
	}
	b.WriteString(clearBelow)

	_, err := io.WriteString(r.w, b.String())
	return err
}
