package screen

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// CanvasOptions configures a Canvas.
type CanvasOptions struct {
	// TabWidth is the distance between tab stops. Default 8.
	TabWidth int
	// Width measures clusters. Default ClusterWidth(false).
	Width WidthFunc
}

// Canvas is a composition surface of fixed width and unbounded height.
// Text is painted at a pen position, wrapping at the right margin; the
// renderer then cuts a terminal-sized Window out of it.
type Canvas struct {
	cols     int
	tabWidth int
	width    WidthFunc

	lines  [][]Cell
	pen    Position
	cursor Position
	marked bool
}

// NewCanvas returns an empty canvas with one blank row.
func NewCanvas(cols int, opts CanvasOptions) *Canvas {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 8
	}
	if opts.Width == nil {
		opts.Width = ClusterWidth(false)
	}
	c := &Canvas{
		cols:     max(cols, 1),
		tabWidth: opts.TabWidth,
		width:    opts.Width,
	}
	c.line(0)
	return c
}

// Cols returns the canvas width.
func (c *Canvas) Cols() int { return c.cols }

// Height returns the number of rows painted so far.
func (c *Canvas) Height() int { return len(c.lines) }

// Pen returns where the next cluster will be painted. Col may equal Cols
// when the row is full and the wrap has not happened yet.
func (c *Canvas) Pen() Position { return c.pen }

// Cursor returns the marked cursor position, or the pen if none was marked.
func (c *Canvas) Cursor() Position {
	if c.marked {
		return c.cursor
	}
	return c.normalize(c.pen)
}

// MarkCursor records the pen as the desired cursor position. A pen past
// the right margin resolves to the start of the next row.
func (c *Canvas) MarkCursor() {
	c.cursor = c.normalize(c.pen)
	c.line(c.cursor.Row)
	c.marked = true
}

func (c *Canvas) normalize(p Position) Position {
	if p.Col >= c.cols {
		return Position{Row: p.Row + 1}
	}
	return p
}

func (c *Canvas) line(row int) []Cell {
	for len(c.lines) <= row {
		l := make([]Cell, c.cols)
		for i := range l {
			l[i] = Blank
		}
		c.lines = append(c.lines, l)
	}
	return c.lines[row]
}

// Newline moves the pen to the start of the next row.
func (c *Canvas) Newline() {
	c.pen = Position{Row: c.pen.Row + 1}
	c.line(c.pen.Row)
}

// Write paints text, wrapping at the right margin. Newlines start a new
// row, tabs advance to the next tab stop, and control characters are
// shown in caret notation.
func (c *Canvas) Write(text string, style Style) {
	state := -1
	for text != "" {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		c.WriteCluster(cluster, style)
	}
}

// WriteCluster paints a single grapheme cluster.
func (c *Canvas) WriteCluster(cluster string, style Style) {
	r, _ := utf8.DecodeRuneInString(cluster)
	switch {
	case cluster == "\n" || cluster == "\r\n":
		c.Newline()
	case r == '\t':
		if c.pen.Col >= c.cols {
			c.Newline()
		}
		stop := min((c.pen.Col/c.tabWidth+1)*c.tabWidth, c.cols)
		for c.pen.Col < stop {
			c.put(" ", 1, style)
		}
	case isControl(r):
		for _, ch := range caret(r) {
			c.put(string(ch), 1, style)
		}
	default:
		c.put(cluster, c.width(cluster), style)
	}
}

func (c *Canvas) put(cluster string, w int, style Style) {
	if w == 0 {
		// Zero-width clusters attach to whatever precedes them.
		if c.pen.Col > 0 {
			line := c.line(c.pen.Row)
			col := c.pen.Col - 1
			if line[col].IsContinuation() && col > 0 {
				col--
			}
			line[col].Content += cluster
		}
		return
	}
	if w > c.cols {
		cluster, w = string(utf8.RuneError), 1
	}
	if c.pen.Col+w > c.cols {
		// A cursor marked just before the wrapped cluster follows it.
		follow := c.marked && c.cursor == c.pen
		c.Newline()
		if follow {
			c.cursor = c.pen
		}
	}
	line := c.line(c.pen.Row)
	line[c.pen.Col] = Cell{Content: cluster, Width: w, Style: style}
	if w > 1 {
		line[c.pen.Col+1] = continuation(style)
	}
	c.pen.Col += w
}

// WriteClipped paints text on the current row without wrapping, stopping
// before the first cluster that would end past limit columns from the
// pen. It returns the number of columns painted.
func (c *Canvas) WriteClipped(text string, style Style, limit int) int {
	limit = min(limit, c.cols-c.pen.Col)
	used := 0
	state := -1
	for text != "" {
		var cluster string
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		if cluster == "\n" || cluster == "\r\n" || cluster == "\t" {
			cluster = " "
		}
		r, _ := utf8.DecodeRuneInString(cluster)
		w := c.width(cluster)
		if isControl(r) {
			cluster, w = caret(r), 2
		}
		if used+w > limit {
			break
		}
		if isControl(r) {
			for _, ch := range cluster {
				c.put(string(ch), 1, style)
			}
		} else {
			c.put(cluster, w, style)
		}
		used += w
	}
	return used
}

// Pad paints blanks from the pen up to column col on the current row.
func (c *Canvas) Pad(col int, style Style) {
	col = min(col, c.cols)
	for c.pen.Col < col {
		c.put(" ", 1, style)
	}
}

// Window cuts rows [top, top+rows) out of the canvas. Rows past the
// painted content are blank. The cursor is translated into the window.
func (c *Canvas) Window(top, rows int) *Screen {
	s := NewScreen(rows, c.cols)
	for r := range rows {
		if top+r < 0 || top+r >= len(c.lines) {
			continue
		}
		copy(s.Row(r), c.lines[top+r])
	}
	cur := c.Cursor()
	s.Cursor = Position{Row: cur.Row - top, Col: cur.Col}
	return s
}

// String dumps the painted rows, trailing blanks removed.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Lines returns the painted text of each row.
func (c *Canvas) Lines() []string {
	out := make([]string, len(c.lines))
	for i, l := range c.lines {
		var sb strings.Builder
		for _, cell := range l {
			sb.WriteString(cell.Content)
		}
		out[i] = strings.TrimRight(sb.String(), " ")
	}
	return out
}
