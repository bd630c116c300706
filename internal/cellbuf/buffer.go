package cellbuf

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

// Buffer is the double-buffered grid: Begin/Compose/End phases over two
// equally-sized cell grids, per spec.md §4.5.
type Buffer struct {
	rows, cols int
	current    []Cell
	previous   []Cell

	forceFull bool

	cursorX, cursorY int
	cursorShape      int // DECSCUSR 0..6
	cursorVisible    bool
}

// New allocates a buffer sized rows x cols, blank-filled, forced to a full
// redraw on the first End.
func New(rows, cols int) *Buffer {
	b := &Buffer{
		cursorVisible: true,
	}
	b.Resize(rows, cols)
	return b
}

// Resize reallocates both grids and sets force-full for the next frame, per
// spec.md §4.5 "Resize".
func (b *Buffer) Resize(rows, cols int) {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	b.rows, b.cols = rows, cols
	size := rows * cols
	b.current = make([]Cell, size)
	b.previous = make([]Cell, size)
	for i := range b.current {
		b.current[i] = blank
		b.previous[i] = blank
	}
	b.forceFull = true
}

// Dimensions returns the buffer's current size.
func (b *Buffer) Dimensions() (rows, cols int) { return b.rows, b.cols }

// Begin swaps current into previous and clears current to blank cells,
// per spec.md §4.5 phase 1.
func (b *Buffer) Begin() {
	b.current, b.previous = b.previous, b.current
	for i := range b.current {
		b.current[i] = blank
	}
}

// ForceFullRedraw marks the next End as a full redraw regardless of diff.
func (b *Buffer) ForceFullRedraw() { b.forceFull = true }

// SetCell writes one cell into the current grid. Out-of-bounds writes are
// silently discarded, per spec.md §4.5 phase 2.
func (b *Buffer) SetCell(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= b.cols || y >= b.rows {
		return
	}
	b.current[y*b.cols+x] = c
}

// SetCursor records where the cursor should land at the end of the frame
// and whether it should be visible, shaped per DECSCUSR code.
func (b *Buffer) SetCursor(x, y, shape int, visible bool) {
	b.cursorX, b.cursorY = x, y
	b.cursorShape = shape
	b.cursorVisible = visible
}

// at returns the cell at (x, y) in grid, assuming bounds already checked.
func (b *Buffer) at(grid []Cell, x, y int) Cell { return grid[y*b.cols+x] }

// End runs the end-phase algorithm and writes the resulting byte stream to
// w in a single Write call, per spec.md §4.5's "one vectored write" and
// "no control sequence split across write calls" invariants.
func (b *Buffer) End(w io.Writer) error {
	var buf bytes.Buffer

	buf.WriteString("\033[?2026h") // begin synchronized update
	buf.WriteString("\033[?25l")   // hide cursor

	fullRedraw := b.forceFull
	b.forceFull = false

	for y := 0; y < b.rows; y++ {
		x := 0
		for x < b.cols {
			cur := b.at(b.current, x, y)
			prev := b.at(b.previous, x, y)
			if !fullRedraw && cur.Equal(prev) {
				x++
				continue
			}
			x = b.emitRun(&buf, y, x, fullRedraw)
		}
	}

	fmt.Fprintf(&buf, "\033[%d;%dH", b.cursorY+1, b.cursorX+1)
	fmt.Fprintf(&buf, "\033[%d q", b.cursorShape) // DECSCUSR
	if b.cursorVisible {
		buf.WriteString("\033[?25h")
	}
	buf.WriteString("\033[?2026l") // end synchronized update

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return err
	}
	if n != buf.Len() {
		return fmt.Errorf("partial frame write: %d/%d bytes", n, buf.Len())
	}
	return nil
}

// emitRun writes one run of changed (or, if fullRedraw, all) cells starting
// at (startX, y), positioning the cursor once and redeclaring SGR fully at
// the run's first cell, per spec.md §4.5's end-phase algorithm. Returns the
// column just past the run.
func (b *Buffer) emitRun(buf *bytes.Buffer, y, startX int, fullRedraw bool) int {
	x := startX
	first := b.at(b.current, x, y)

	fmt.Fprintf(buf, "\033[%d;%dH", y+1, x+1)
	buf.WriteString(sgrFor(first))
	writeRune(buf, first.Rune)
	lastEmitted := first
	x++

	for x < b.cols {
		cur := b.at(b.current, x, y)
		prev := b.at(b.previous, x, y)
		if !fullRedraw && cur.Equal(prev) {
			break
		}
		if cur.Fg != lastEmitted.Fg || cur.Bg != lastEmitted.Bg || cur.Style != lastEmitted.Style {
			buf.WriteString(sgrFor(cur))
			lastEmitted = cur
		}
		writeRune(buf, cur.Rune)
		x++
	}
	return x
}

func writeRune(buf *bytes.Buffer, r rune) {
	if r == 0 {
		r = ' '
	}
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	buf.Write(tmp[:n])
}

// sgrFor fully redeclares every style attribute active for c, never relying
// on previously emitted SGR state (spec.md §4.5: "never rely on previous
// SGR state").
func sgrFor(c Cell) string {
	var buf bytes.Buffer
	buf.WriteString("\033[0m")

	if c.Style&StyleBold != 0 {
		buf.WriteString("\033[1m")
	}
	if c.Style&StyleDim != 0 {
		buf.WriteString("\033[2m")
	}
	if c.Style&StyleItalic != 0 {
		buf.WriteString("\033[3m")
	}
	if c.Style&StyleUnderline != 0 {
		buf.WriteString("\033[4m")
	}
	if c.Style&StyleBlink != 0 {
		buf.WriteString("\033[5m")
	}
	if c.Style&StyleReverse != 0 {
		buf.WriteString("\033[7m")
	}
	if c.Style&StyleStrikethrough != 0 {
		buf.WriteString("\033[9m")
	}
	if c.Style&StyleInvisible != 0 {
		buf.WriteString("\033[8m")
	}

	if seq := colorSGR(c.Fg, false); seq != "" {
		buf.WriteString(seq)
	}
	if seq := colorSGR(c.Bg, true); seq != "" {
		buf.WriteString(seq)
	}
	return buf.String()
}

// colorSGR encodes c per spec.md §4.5's "Colour encoding" table: indexed
// 0-7 -> 3x/4x, 8-15 -> 9x/10x, 16-255 -> 38;5;n/48;5;n, rgb ->
// 38;2;r;g;b/48;2;r;g;b.
func colorSGR(c Color, bg bool) string {
	switch c.Kind {
	case ColorIndexed:
		switch {
		case c.Index < 8:
			base := 30
			if bg {
				base = 40
			}
			return fmt.Sprintf("\033[%dm", base+int(c.Index))
		case c.Index < 16:
			base := 90
			if bg {
				base = 100
			}
			return fmt.Sprintf("\033[%dm", base+int(c.Index)-8)
		default:
			kind := 38
			if bg {
				kind = 48
			}
			return fmt.Sprintf("\033[%d;5;%dm", kind, c.Index)
		}
	case ColorRGB:
		kind := 38
		if bg {
			kind = 48
		}
		return fmt.Sprintf("\033[%d;2;%d;%d;%dm", kind, c.R, c.G, c.B)
	default:
		return ""
	}
}

// StartupReset emits the one-time G0/G1 charset selection (US-ASCII) and
// scrollback clear spec.md §4.5 says must happen only at application start,
// never mid-frame.
func StartupReset(w io.Writer) error {
	seq := []byte("\033(B\017\033[3J\033[2J\033[H")
	n, err := w.Write(seq)
	if err != nil {
		return err
	}
	if n != len(seq) {
		return fmt.Errorf("partial startup reset write: %d/%d bytes", n, len(seq))
	}
	return nil
}
