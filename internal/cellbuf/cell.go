// Package cellbuf implements the differential renderer: a double-buffered
// grid of terminal cells, a minimal-diff end-phase algorithm that emits one
// SGR-redeclare-per-run, and a single atomic write per frame.
//
// No teacher file implements this: the teacher's RenderScreen/RenderLine
// (internal/terminal/wrapper.go, internal/overlay/render.go) redraw every
// row from scratch every frame with a leading "\033[2K". This package
// builds to the algorithm spec.md §4.5 mandates instead, reusing the
// teacher's SGR-region-iteration style (RenderLineFrom's
// lastFormat-tracked loop over midterm.Format.Regions) for the "redeclare
// at run start, re-emit only when style changes" discipline.
package cellbuf

// ColorKind selects how a Color's value should be interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed           // 0-255, palette index
	ColorRGB
)

// Color is a terminal color in one of three encodings, per spec.md §4.5's
// "Colour encoding" rule.
type Color struct {
	Kind       ColorKind
	Index      uint8 // valid when Kind == ColorIndexed
	R, G, B    uint8 // valid when Kind == ColorRGB
}

// DefaultColor is the terminal's default fg/bg (no SGR color code emitted).
var DefaultColor = Color{Kind: ColorDefault}

// IndexedColor builds a 0-255 palette color.
func IndexedColor(idx uint8) Color { return Color{Kind: ColorIndexed, Index: idx} }

// RGBColor builds a 24-bit truecolor color.
func RGBColor(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// StyleFlags are boolean SGR attributes packed into one byte.
type StyleFlags uint8

const (
	StyleBold StyleFlags = 1 << iota
	StyleDim
	StyleItalic
	StyleUnderline
	StyleBlink
	StyleReverse
	StyleStrikethrough
	StyleInvisible
)

// Cell is one terminal grid position: a single codepoint plus its style.
// A frame's Begin phase clears every current-grid cell to blank: a space
// with default fg/bg.
type Cell struct {
	Rune  rune
	Fg    Color
	Bg    Color
	Style StyleFlags
}

// blank is the space cell Begin clears to.
var blank = Cell{Rune: ' '}

// Equal reports whether two cells render identically.
func (c Cell) Equal(o Cell) bool {
	return c.Rune == o.Rune && c.Fg == o.Fg && c.Bg == o.Bg && c.Style == o.Style
}
