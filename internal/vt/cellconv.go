package vt

import (
	"strconv"
	"strings"

	"github.com/vito/midterm"

	"hexa/internal/cellbuf"
)

// RowCells converts one row of a midterm terminal into cellbuf.Cells, for
// the renderer to diff against its previous frame. Grounded on the
// teacher's Client.RenderLineFrom (same vt.Content[row] rune line plus
// vt.Format.Regions(row) region iteration), but instead of calling
// region.F.Render() to emit ANSI text directly, the rendered SGR string is
// parsed back into cellbuf's structured Color/StyleFlags so the renderer's
// own minimal-diff logic (spec.md §4.5) decides what to re-emit.
func RowCells(term *midterm.Terminal, row, cols int) []cellbuf.Cell {
	cells := make([]cellbuf.Cell, cols)
	if row < 0 || row >= len(term.Content) {
		return cells
	}
	line := term.Content[row]

	pos := 0
	for region := range term.Format.Regions(row) {
		style := parseSGR(region.F.Render())
		end := pos + region.Size
		if end > cols {
			end = cols
		}
		for x := pos; x < end; x++ {
			c := style
			if x < len(line) {
				c.Rune = line[x]
			} else {
				c.Rune = ' '
			}
			cells[x] = c
		}
		pos = end
		if pos >= cols {
			break
		}
	}
	return cells
}

// parseSGR interprets an SGR escape sequence (e.g. "\x1b[1;38;5;200m") into
// a cellbuf.Cell's color/style fields. Unknown/unsupported codes are
// ignored rather than rejected, since Render() may include terminal-library
// internals this renderer doesn't need to track.
func parseSGR(seq string) cellbuf.Cell {
	cell := cellbuf.Cell{Fg: cellbuf.DefaultColor, Bg: cellbuf.DefaultColor}

	seq = strings.TrimPrefix(seq, "\x1b[")
	seq = strings.TrimSuffix(seq, "m")
	if seq == "" {
		return cell
	}

	parts := strings.Split(seq, ";")
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		codes = append(codes, n)
	}

	for i := 0; i < len(codes); i++ {
		code := codes[i]
		switch {
		case code == 0:
			cell.Style = 0
			cell.Fg, cell.Bg = cellbuf.DefaultColor, cellbuf.DefaultColor
		case code == 1:
			cell.Style |= cellbuf.StyleBold
		case code == 2:
			cell.Style |= cellbuf.StyleDim
		case code == 3:
			cell.Style |= cellbuf.StyleItalic
		case code == 4:
			cell.Style |= cellbuf.StyleUnderline
		case code == 5:
			cell.Style |= cellbuf.StyleBlink
		case code == 7:
			cell.Style |= cellbuf.StyleReverse
		case code == 8:
			cell.Style |= cellbuf.StyleInvisible
		case code == 9:
			cell.Style |= cellbuf.StyleStrikethrough
		case code >= 30 && code <= 37:
			cell.Fg = cellbuf.IndexedColor(uint8(code - 30))
		case code >= 40 && code <= 47:
			cell.Bg = cellbuf.IndexedColor(uint8(code - 40))
		case code >= 90 && code <= 97:
			cell.Fg = cellbuf.IndexedColor(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			cell.Bg = cellbuf.IndexedColor(uint8(code - 100 + 8))
		case code == 38 && i+2 < len(codes) && codes[i+1] == 5:
			cell.Fg = cellbuf.IndexedColor(uint8(codes[i+2]))
			i += 2
		case code == 48 && i+2 < len(codes) && codes[i+1] == 5:
			cell.Bg = cellbuf.IndexedColor(uint8(codes[i+2]))
			i += 2
		case code == 38 && i+4 < len(codes) && codes[i+1] == 2:
			cell.Fg = cellbuf.RGBColor(uint8(codes[i+2]), uint8(codes[i+3]), uint8(codes[i+4]))
			i += 4
		case code == 48 && i+4 < len(codes) && codes[i+1] == 2:
			cell.Bg = cellbuf.RGBColor(uint8(codes[i+2]), uint8(codes[i+3]), uint8(codes[i+4]))
			i += 4
		case code == 39:
			cell.Fg = cellbuf.DefaultColor
		case code == 49:
			cell.Bg = cellbuf.DefaultColor
		}
	}
	return cell
}
