// Package screen models what the terminal should display: a grid of
// styled cells plus a cursor position. Screens are compared by the
// renderer to compute minimal updates, so every type here is a plain
// value with no terminal I/O.
package screen

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Attrs is a set of text attributes.
type Attrs uint8

const (
	Bold Attrs = 1 << iota
	Dim
	Italic
	Underline
	Reverse
)

var attrNames = []struct {
	attr Attrs
	name string
}{
	{Bold, "bold"},
	{Dim, "dim"},
	{Italic, "italic"},
	{Underline, "underline"},
	{Reverse, "reverse"},
}

func (a Attrs) String() string {
	var names []string
	for _, n := range attrNames {
		if a&n.attr != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseAttrs parses a "|" or space separated attribute list, as written by
// String or in a theme file. Unknown names are ignored.
func ParseAttrs(s string) Attrs {
	var a Attrs
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ' ' || r == ',' }) {
		for _, n := range attrNames {
			if n.name == f {
				a |= n.attr
			}
		}
	}
	return a
}

// Style is the rendering attributes of a cell. Colors are x/ansi colour
// values (BasicColor, IndexedColor, TrueColor) or any other color.Color;
// nil means the terminal default. Style is comparable.
type Style struct {
	Fg    color.Color
	Bg    color.Color
	Attrs Attrs
}

// IsZero reports whether s is the terminal's default rendition.
func (s Style) IsZero() bool {
	return s.Fg == nil && s.Bg == nil && s.Attrs == 0
}

// Over layers s on top of base: colours set in s win, attributes combine.
func (s Style) Over(base Style) Style {
	if s.Fg == nil {
		s.Fg = base.Fg
	}
	if s.Bg == nil {
		s.Bg = base.Bg
	}
	s.Attrs |= base.Attrs
	return s
}

// SGR returns the x/ansi style that selects s from a reset state.
func (s Style) SGR() ansi.Style {
	var st ansi.Style
	if s.Attrs&Bold != 0 {
		st = st.Bold()
	}
	if s.Attrs&Dim != 0 {
		st = st.Faint()
	}
	if s.Attrs&Italic != 0 {
		st = st.Italic(true)
	}
	if s.Attrs&Underline != 0 {
		st = st.Underline(true)
	}
	if s.Attrs&Reverse != 0 {
		st = st.Reverse(true)
	}
	if s.Fg != nil {
		st = st.ForegroundColor(s.Fg)
	}
	if s.Bg != nil {
		st = st.BackgroundColor(s.Bg)
	}
	return st
}
