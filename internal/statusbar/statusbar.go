// Package statusbar renders the multiplexer's bottom row from a
// declarative list of modules, each an opaque content string plus
// alignment and style.
//
// Grounded on the teacher's Client.RenderBar (segment concatenation: style,
// label, gap-fill, right-aligned tail), generalized from one fixed
// mode/status/help layout to an ordered module list so the frontend can
// declare what the bar shows without this package knowing about panes,
// tabs, or sessions.
package statusbar

import (
	"strings"

	"github.com/muesli/termenv"
)

// Align selects which side of the bar a module's content is packed
// against. Left modules are drawn in order from column 0; right modules
// are drawn in order from the right edge, innermost first.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Style carries a module's colors/weight, resolved through termenv so the
// same opaque names (ANSI index, hex RGB, "") work across terminal color
// profiles.
type Style struct {
	Fg     string
	Bg     string
	Bold   bool
	Invert bool
}

// Module is one bar segment. Content is treated as an opaque string: the
// bar never interprets it (no truncation-aware word wrap, no markup) beyond
// the width accounting needed to lay segments out.
type Module struct {
	Content string
	Align   Align
	Style   Style
}

// Bar is the ordered list of modules drawn on one row.
type Bar struct {
	Modules []Module
	profile termenv.Profile
}

// New creates a bar that resolves styles against profile. Pass
// termenv.ColorProfile() for the controlling terminal's actual profile.
func New(profile termenv.Profile) *Bar {
	return &Bar{profile: profile}
}

// Render lays out all modules into a single line exactly width cells wide
// (padded with spaces), left modules packed from column 0 and right
// modules packed from the right edge. If content overflows, the right
// modules are dropped entirely; if the left modules alone still overflow,
// their plain (unstyled) text is cut to width runes.
func (b *Bar) Render(width int) string {
	var left, right []string
	for _, m := range b.Modules {
		styled := b.style(m)
		if m.Align == AlignLeft {
			left = append(left, styled)
		} else {
			right = append(right, styled)
		}
	}

	leftPlain := joinPlain(b.Modules, AlignLeft)
	rightPlain := joinPlain(b.Modules, AlignRight)

	leftStr := strings.Join(left, "")
	rightStr := strings.Join(right, "")

	gap := width - len([]rune(leftPlain)) - len([]rune(rightPlain))
	if gap < 0 {
		// Not enough room: drop the right side entirely rather than
		// interleave garbled output.
		rightStr = ""
		gap = width - len([]rune(leftPlain))
		if gap < 0 {
			runes := []rune(leftPlain)
			if width < len(runes) {
				return string(runes[:width])
			}
			gap = 0
		}
	}

	return leftStr + strings.Repeat(" ", gap) + rightStr
}

func joinPlain(modules []Module, align Align) string {
	var sb strings.Builder
	for _, m := range modules {
		if m.Align == align {
			sb.WriteString(m.Content)
		}
	}
	return sb.String()
}

func (b *Bar) style(m Module) string {
	s := termenv.String(m.Content)
	if m.Style.Bold {
		s = s.Bold()
	}
	if m.Style.Invert {
		s = s.Reverse()
	}
	if m.Style.Fg != "" {
		s = s.Foreground(b.profile.Color(m.Style.Fg))
	}
	if m.Style.Bg != "" {
		s = s.Background(b.profile.Color(m.Style.Bg))
	}
	return s.String()
}
