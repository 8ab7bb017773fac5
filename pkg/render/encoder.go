package render

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"

	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/termcap"
)

// Translation maps each style used in a render pass to the SGR sequence
// the terminal can actually display. It is built once per pass so the
// per-cell cost is a map lookup.
type Translation struct {
	caps   termcap.Caps
	seqs   map[screen.Style]string
	glyphs bool
}

// NewTranslation precomputes the sequences for every style on s. Styles
// that must be degraded are logged once each.
func NewTranslation(caps termcap.Caps, s *screen.Screen, logger *slog.Logger) *Translation {
	t := &Translation{
		caps: caps,
		seqs: map[screen.Style]string{},
	}
	var degraded []string
	for r := range s.Rows() {
		for _, cell := range s.Row(r) {
			if _, ok := t.seqs[cell.Style]; ok {
				continue
			}
			d := Degrade(caps.Profile, cell.Style)
			if d != cell.Style {
				degraded = append(degraded, styleName(cell.Style)+" -> "+styleName(d))
			}
			t.seqs[cell.Style] = sgr(d)
			if !caps.UTF8 && !t.glyphs && !isASCII(cell.Content) {
				t.glyphs = true
			}
		}
	}
	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, d := range degraded {
			logger.Debug("degrading style", "error", ErrCapabilityMismatch, "profile", caps.Profile.String(), "style", d)
		}
		if t.glyphs {
			logger.Debug("replacing non-ASCII glyphs", "error", ErrCapabilityMismatch)
		}
	}
	return t
}

// Degrade reduces a style to what the colour profile can show. Colours
// are mapped to the nearest palette entry; without colour support only
// text attributes survive, and without a terminal nothing does.
func Degrade(p colorprofile.Profile, s screen.Style) screen.Style {
	if p == colorprofile.NoTTY {
		return screen.Style{}
	}
	if s.Fg != nil {
		s.Fg = p.Convert(s.Fg)
	}
	if s.Bg != nil {
		s.Bg = p.Convert(s.Bg)
	}
	return s
}

func sgr(s screen.Style) string {
	if s.IsZero() {
		return ansi.ResetStyle
	}
	return append(ansi.Style{}.Reset(), s.SGR()...).String()
}

func styleName(s screen.Style) string {
	if s.IsZero() {
		return "default"
	}
	return strings.TrimSuffix(strings.TrimPrefix(s.SGR().String(), "\x1b["), "m")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (t *Translation) sequence(s screen.Style) string {
	if seq, ok := t.seqs[s]; ok {
		return seq
	}
	// Styles not on the screen the table was built from.
	seq := sgr(Degrade(t.caps.Profile, s))
	t.seqs[s] = seq
	return seq
}

func (t *Translation) glyph(c screen.Cell) string {
	if t.caps.UTF8 || isASCII(c.Content) {
		return c.Content
	}
	return strings.Repeat("?", c.Width)
}

// Encoder turns ops into terminal bytes while tracking where the hardware
// cursor ends up. Positions are relative to the first row of the region.
// A column equal to the width means the terminal has a wrap pending; a
// negative column means the column is unknown.
type Encoder struct {
	cols int
	tr   *Translation

	row, col int
	style    screen.Style

	buf strings.Builder
}

// NewEncoder returns an encoder for a region cols wide whose cursor is at
// row, col.
func NewEncoder(cols int, tr *Translation, row, col int) *Encoder {
	return &Encoder{cols: cols, tr: tr, row: row, col: col}
}

// Position returns the tracked hardware cursor position.
func (e *Encoder) Position() (row, col int) { return e.row, e.col }

// String returns the bytes encoded so far.
func (e *Encoder) String() string { return e.buf.String() }

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int { return e.buf.Len() }

// WriteRaw appends bytes that do not move the cursor, such as mode
// switches.
func (e *Encoder) WriteRaw(s string) { e.buf.WriteString(s) }

// Encode appends the bytes for ops.
func (e *Encoder) Encode(ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpMoveTo:
			e.moveTo(op.Row, op.Col)
		case OpWrite:
			e.write(op.Cells)
		case OpEraseLine:
			e.resetStyle()
			e.buf.WriteString(ansi.EraseLineRight)
		case OpEraseBelow:
			e.resetStyle()
			e.buf.WriteString(ansi.EraseScreenBelow)
		case OpScrollUp:
			for range op.N {
				e.buf.WriteByte('\n')
			}
		case OpScrollDown:
			for range op.N {
				e.buf.WriteString(ansi.ReverseIndex)
			}
		case OpGrow:
			e.resetStyle()
			for range op.N {
				e.buf.WriteString("\r\n" + ansi.EraseLineRight)
			}
			e.row += op.N
			e.col = 0
		case OpClearScreen:
			e.resetStyle()
			e.buf.WriteString(ansi.CursorHomePosition + ansi.EraseEntireScreen)
			e.row, e.col = 0, 0
		}
	}
}

// Finish resets the pen style so the terminal is left in its default
// rendition.
func (e *Encoder) Finish() {
	e.resetStyle()
}

func (e *Encoder) resetStyle() {
	if !e.style.IsZero() {
		e.buf.WriteString(ansi.ResetStyle)
		e.style = screen.Style{}
	}
}

func (e *Encoder) moveTo(row, col int) {
	switch {
	case row < e.row:
		e.buf.WriteString(ansi.CursorUp(e.row - row))
	case row > e.row:
		e.buf.WriteString(ansi.CursorDown(row - e.row))
	}
	e.row = row
	if col == e.col {
		return
	}
	if col == 0 {
		e.buf.WriteByte('\r')
	} else {
		e.buf.WriteString(ansi.CursorHorizontalAbsolute(col + 1))
	}
	e.col = col
}

func (e *Encoder) write(cells []screen.Cell) {
	for _, c := range cells {
		if c.IsContinuation() {
			continue
		}
		if c.Style != e.style {
			e.buf.WriteString(e.tr.sequence(c.Style))
			e.style = c.Style
		}
		e.buf.WriteString(e.tr.glyph(c))
		e.col += c.Width
	}
	// The terminal holds the cursor on the last column until the next
	// printable character, so e.col == e.cols stays distinct from any
	// real column and forces an explicit move.
	e.col = min(e.col, e.cols)
}
