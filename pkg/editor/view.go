package editor

import (
	"sort"
	"strings"

	"github.com/vito/shline/pkg/screen"
)

type paintMode int

const (
	// paintLive draws everything: selection, ghost text, menu.
	paintLive paintMode = iota
	// paintFinal draws the line as it is left in the scrollback.
	paintFinal
	// paintInterrupted is paintFinal plus a ^C marker.
	paintInterrupted
)

// glyph records where a buffer cluster was painted.
type glyph struct {
	row, col   int
	start, end int
}

// spanCache holds the classifier's spans for the last text it saw.
type spanCache struct {
	text  string
	spans []Span
	valid bool
}

func (s *spanCache) get(c SyntaxClassifier, text string) []Span {
	if c == nil {
		return nil
	}
	if !s.valid || s.text != text {
		spans := c.Classify(text)
		sort.SliceStable(spans, func(i, j int) bool {
			return spans[i].Start < spans[j].Start
		})
		*s = spanCache{text: text, spans: spans, valid: true}
	}
	return s.spans
}

// paint composes the edit region: prompt, buffer, ghost suggestion and
// completion menu.
func (e *Editor) paint(mode paintMode) *screen.Canvas {
	cols, rows := e.renderer.Size()
	c := screen.NewCanvas(cols, screen.CanvasOptions{
		TabWidth: e.cfg.TabWidth,
		Width:    e.width,
	})
	l := &e.line
	buf := l.buf
	live := mode == paintLive

	cursor := buf.Cursor().Byte
	spans := l.spans.get(e.classifier, buf.Text())
	region, selecting := l.region()
	selecting = selecting && live

	c.WriteStyled(l.prompt.Primary)
	l.layout = l.layout[:0]

	off, si := 0, 0
	for _, cluster := range buf.Clusters() {
		if off == cursor {
			c.MarkCursor()
		}
		end := off + len(cluster)
		pen := c.Pen()

		if cluster == "\n" || cluster == "\r\n" {
			l.layout = append(l.layout, glyph{row: pen.Row, col: pen.Col, start: off, end: end})
			c.Newline()
			c.WriteStyled(l.prompt.Continuation)
			off = end
			continue
		}

		var style screen.Style
		for si < len(spans) && spans[si].End <= off {
			si++
		}
		if si < len(spans) && spans[si].Start <= off {
			style = spans[si].Style
		}
		if selecting && off >= region.Start && off < region.End {
			style = e.cfg.Theme.Selection.Over(style)
		}
		c.WriteCluster(cluster, style)
		if after := c.Pen(); after.Row != pen.Row {
			// Wrapped before painting.
			pen = screen.Position{Row: after.Row}
		}
		l.layout = append(l.layout, glyph{row: pen.Row, col: pen.Col, start: off, end: end})
		off = end
	}
	if off == cursor {
		c.MarkCursor()
	}
	pen := c.Pen()
	if pen.Col >= cols {
		pen = screen.Position{Row: pen.Row + 1}
	}
	l.layout = append(l.layout, glyph{row: pen.Row, col: pen.Col, start: off, end: off})

	switch mode {
	case paintLive:
		if ghost := e.visibleSuggestion(); ghost != "" {
			c.Write(ghost, e.cfg.Theme.Suggestion)
		}
		e.paintMenu(c, cols, rows)
	case paintInterrupted:
		c.Write("^C", e.cfg.Theme.Interrupt)
	}
	return c
}

// paintMenu draws the completion menu below the buffer.
func (e *Editor) paintMenu(c *screen.Canvas, cols, rows int) {
	l := &e.line
	l.menuTop, l.menuFirst, l.menuShown = -1, 0, 0
	if l.menu == nil {
		return
	}
	// Leave a row for the input and three for the border and the
	// position line.
	height := max(1, min(e.cfg.MenuHeight, rows-4))
	labels := l.menu.labels()
	box, first := renderMenuBox(labels, l.menu.index, height, cols, e.cfg.Theme, !e.caps.UTF8)

	c.Newline()
	l.menuTop = c.Pen().Row + 1
	l.menuFirst = first
	l.menuShown = min(height, len(labels))
	for i, line := range strings.Split(box, "\n") {
		if i > 0 {
			c.Newline()
		}
		c.WriteStyled(screen.ParseStyled(line))
	}
}

// offsetAt maps a canvas cell to the buffer offset of the cluster painted
// there. Clicks left of a row's text land on its first cluster and clicks
// right of it on its end.
func offsetAt(layout []glyph, row, col int) (int, bool) {
	found := false
	var best glyph
	for _, g := range layout {
		if g.row < row {
			continue
		}
		if g.row > row {
			break
		}
		if !found || g.col <= col {
			best, found = g, true
		}
		if g.col > col {
			break
		}
	}
	return best.start, found
}
