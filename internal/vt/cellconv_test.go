package vt

import (
	"testing"

	"hexa/internal/cellbuf"
)

func TestParseSGREmptySequenceIsDefault(t *testing.T) {
	got := parseSGR("")
	want := cellbuf.Cell{Fg: cellbuf.DefaultColor, Bg: cellbuf.DefaultColor}
	if got != want {
		t.Errorf("parseSGR(\"\") = %+v, want %+v", got, want)
	}
}

func TestParseSGRResetClearsStyleAndColor(t *testing.T) {
	got := parseSGR("\x1b[0m")
	if got.Style != 0 || got.Fg != cellbuf.DefaultColor || got.Bg != cellbuf.DefaultColor {
		t.Errorf("parseSGR(reset) = %+v, want zero style and default colors", got)
	}
}

func TestParseSGRBoldAndUnderlineCombine(t *testing.T) {
	got := parseSGR("\x1b[1;4m")
	want := cellbuf.StyleBold | cellbuf.StyleUnderline
	if got.Style != want {
		t.Errorf("Style = %v, want %v", got.Style, want)
	}
}

func TestParseSGRBasicIndexedColors(t *testing.T) {
	got := parseSGR("\x1b[31;42m")
	if got.Fg != cellbuf.IndexedColor(1) {
		t.Errorf("Fg = %+v, want IndexedColor(1)", got.Fg)
	}
	if got.Bg != cellbuf.IndexedColor(2) {
		t.Errorf("Bg = %+v, want IndexedColor(2)", got.Bg)
	}
}

func TestParseSGRBrightIndexedColors(t *testing.T) {
	got := parseSGR("\x1b[91;102m")
	if got.Fg != cellbuf.IndexedColor(9) {
		t.Errorf("Fg = %+v, want IndexedColor(9)", got.Fg)
	}
	if got.Bg != cellbuf.IndexedColor(10) {
		t.Errorf("Bg = %+v, want IndexedColor(10)", got.Bg)
	}
}

func TestParseSGR256PaletteColor(t *testing.T) {
	got := parseSGR("\x1b[38;5;200m")
	if got.Fg != cellbuf.IndexedColor(200) {
		t.Errorf("Fg = %+v, want IndexedColor(200)", got.Fg)
	}
}

func TestParseSGRTruecolor(t *testing.T) {
	got := parseSGR("\x1b[38;2;10;20;30m")
	want := cellbuf.RGBColor(10, 20, 30)
	if got.Fg != want {
		t.Errorf("Fg = %+v, want %+v", got.Fg, want)
	}
}

func TestParseSGRDefaultColorCodes(t *testing.T) {
	got := parseSGR("\x1b[31;39;42;49m")
	if got.Fg != cellbuf.DefaultColor || got.Bg != cellbuf.DefaultColor {
		t.Errorf("Fg/Bg = %+v/%+v, want both DefaultColor (39/49 reset them)", got.Fg, got.Bg)
	}
}

func TestParseSGRConcealSetsInvisible(t *testing.T) {
	got := parseSGR("\x1b[8m")
	if got.Style != cellbuf.StyleInvisible {
		t.Errorf("Style = %v, want StyleInvisible", got.Style)
	}
}

func TestParseSGRIgnoresUnknownCodes(t *testing.T) {
	got := parseSGR("\x1b[999m")
	want := cellbuf.Cell{Fg: cellbuf.DefaultColor, Bg: cellbuf.DefaultColor}
	if got != want {
		t.Errorf("parseSGR(unknown code) = %+v, want %+v", got, want)
	}
}
