package render

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/termcap"
)

// RenderStats captures metrics for a single render pass.
type RenderStats struct {
	// DiffTime is how long computing the operations took.
	DiffTime time.Duration

	// WriteTime is how long it took to write the escape sequences to the
	// terminal.
	WriteTime time.Duration

	// TotalTime is the wall-clock duration of the whole pass.
	TotalTime time.Duration

	// ContentRows is the height of the composed content.
	ContentRows int

	// VisibleRows is how many of those rows fit on the terminal.
	VisibleRows int

	// Top is the first content row shown.
	Top int

	// RowsChanged is the number of rows that produced any output.
	RowsChanged int

	// FullRedraw is true when the region was repainted from scratch.
	FullRedraw bool

	// BytesWritten is the number of bytes sent to the terminal.
	BytesWritten int

	// ScrollLines is how far the window moved; negative scrolled back.
	ScrollLines int

	// Grown is how many rows were appended to the region.
	Grown int
}

// renderStatsJSON is the JSONL record written by the stats writer.
type renderStatsJSON struct {
	Ts           int64 `json:"ts"`
	TotalUs      int64 `json:"total_us"`
	DiffUs       int64 `json:"diff_us"`
	WriteUs      int64 `json:"write_us"`
	ContentRows  int   `json:"content_rows"`
	VisibleRows  int   `json:"visible_rows"`
	Top          int   `json:"top"`
	RowsChanged  int   `json:"rows_changed"`
	FullRedraw   bool  `json:"full_redraw"`
	BytesWritten int   `json:"bytes_written"`
	ScrollLines  int   `json:"scroll_lines"`
	Grown        int   `json:"grown"`
}

// Options configures a Renderer.
type Options struct {
	Caps termcap.Caps

	// FullRowThreshold is passed to Diff.
	FullRowThreshold float64

	// StatsWriter, if set, receives one JSON line of RenderStats per pass.
	StatsWriter io.Writer

	Logger *slog.Logger
}

type redraw int

const (
	redrawNone redraw = iota
	redrawRegion
	redrawScreen
)

// Renderer draws successive canvases into an inline region of the
// terminal, starting at the row the cursor is on when the first pass
// runs. It is not safe for concurrent use; the editor renders from its
// event loop only.
type Renderer struct {
	out  io.Writer
	opts Options

	cols, rows int

	// prev is what the region shows, one row per visible region row.
	// Nil before the first pass and after Finish.
	prev *screen.Screen
	// top is the first content row shown in the region.
	top int
	// hwRow and hwCol track the hardware cursor relative to the region.
	hwRow, hwCol int

	// anchored is set once region row 0 is known to be screen row 0.
	anchored bool

	pending     redraw
	fullRedraws int
	last        RenderStats
}

// NewRenderer returns a renderer writing to out, a terminal of the given
// size.
func NewRenderer(out io.Writer, cols, rows int, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{
		out:   out,
		opts:  opts,
		cols:  max(cols, 1),
		rows:  max(rows, 1),
		hwCol: -1,
	}
}

// Size returns the terminal size the renderer draws for.
func (r *Renderer) Size() (cols, rows int) { return r.cols, r.rows }

// Resize records new terminal dimensions. The terminal may have reflowed
// the region, so the next pass erases and repaints it.
func (r *Renderer) Resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if cols == r.cols && rows == r.rows {
		return
	}
	r.cols, r.rows = cols, rows
	r.hwRow = min(r.hwRow, rows-1)
	r.hwCol = -1
	r.anchored = false
	r.pending = max(r.pending, redrawRegion)
}

// Invalidate forces the next pass to repaint the region from scratch.
func (r *Renderer) Invalidate() {
	r.pending = max(r.pending, redrawRegion)
}

// ClearScreen makes the next pass clear the whole screen and draw the
// region at the top.
func (r *Renderer) ClearScreen() {
	r.pending = redrawScreen
}

// FullRedraws returns how many passes repainted the region from scratch.
func (r *Renderer) FullRedraws() int { return r.fullRedraws }

// Stats returns the statistics of the last successful pass.
func (r *Renderer) Stats() RenderStats { return r.last }

// Active reports whether a region is on screen.
func (r *Renderer) Active() bool { return r.prev != nil }

// ContentRow maps a screen row, as reported by a mouse event, to a canvas
// row of the last pass. It fails while the region's position on screen is
// unknown: before it has filled the screen or been drawn after a clear.
func (r *Renderer) ContentRow(y int) (int, bool) {
	if r.prev == nil || !r.anchored || y < 0 || y >= r.prev.Rows() {
		return 0, false
	}
	return r.top + y, true
}

// window picks the first content row to show: as close to the previous
// choice as possible while keeping the cursor visible.
func window(prevTop, height, visible, cursorRow int) int {
	top := min(max(prevTop, 0), height-visible)
	if cursorRow < top {
		top = cursorRow
	}
	if cursorRow >= top+visible {
		top = cursorRow - visible + 1
	}
	return min(max(top, 0), height-visible)
}

// Render draws c, whose width must match the renderer's columns. On
// failure the renderer state is left as it was before the call and the
// error matches ErrTerminalIO.
func (r *Renderer) Render(c *screen.Canvas) error {
	start := time.Now()
	var stats RenderStats

	cols, rows := r.cols, r.rows
	height := c.Height()
	visible := min(height, rows)
	cursor := c.Cursor()

	prev, prevTop, hwRow, hwCol := r.prev, r.top, r.hwRow, r.hwCol
	top := window(prevTop, height, visible, cursor.Row)

	var ops []Op
	full := prev == nil || r.pending != redrawNone || prev.Cols() != cols
	if full {
		switch {
		case r.pending == redrawScreen:
			ops = append(ops, Op{Kind: OpClearScreen})
		case prev == nil:
			ops = append(ops, MoveTo(0, 0), Op{Kind: OpEraseBelow})
			hwRow, hwCol = 0, -1
		default:
			ops = append(ops, MoveTo(0, 0), Op{Kind: OpEraseBelow})
		}
		// The region restarts as a single blank row showing the new top.
		prev = screen.NewScreen(1, cols)
		prevTop = top
		stats.FullRedraw = true
	} else {
		prev = prev.Clone()
	}

	// Scrolling back needs the region to fill the screen so its first row
	// is the top margin; a region showing anything but content row 0
	// always does.
	if d := top - prevTop; d < 0 {
		ops = append(ops, MoveTo(0, 0), Op{Kind: OpScrollDown, N: -d})
		prev.ScrollDown(-d)
		stats.ScrollLines = d
	}

	if grow := visible - prev.Rows(); grow > 0 {
		ops = append(ops, MoveTo(prev.Rows()-1, 0), Op{Kind: OpGrow, N: grow})
		prev = extend(prev, visible)
		stats.Grown = grow
	}

	// Moving forward needs the region's last row on the bottom margin,
	// which holds once the region is as tall as the screen.
	if d := top - prevTop; d > 0 {
		ops = append(ops, MoveTo(visible-1, 0), Op{Kind: OpScrollUp, N: d})
		prev.ScrollUp(d)
		stats.ScrollLines = d
	}

	if visible < prev.Rows() {
		ops = append(ops, MoveTo(visible, 0), Op{Kind: OpEraseBelow})
		prev = truncate(prev, visible)
	}

	next := c.Window(top, visible)
	diffStart := time.Now()
	diff := Diff(prev, next, DiffOptions{FullRowThreshold: r.opts.FullRowThreshold})
	stats.RowsChanged = changedRows(diff)
	ops = append(ops, diff...)

	enc := NewEncoder(cols, NewTranslation(r.opts.Caps, next, r.opts.Logger), hwRow, hwCol)
	if r.opts.Caps.SyncOutput {
		enc.WriteRaw(ansi.SetModeSynchronizedOutput)
	} else {
		enc.WriteRaw(ansi.HideCursor)
	}
	enc.Encode(ops)
	enc.Finish()
	if r.opts.Caps.SyncOutput {
		enc.WriteRaw(ansi.ResetModeSynchronizedOutput)
	} else {
		enc.WriteRaw(ansi.ShowCursor)
	}
	stats.DiffTime = time.Since(diffStart)

	writeStart := time.Now()
	if err := r.write(enc.String()); err != nil {
		return err
	}
	stats.WriteTime = time.Since(writeStart)

	switch {
	case r.pending == redrawScreen:
		r.anchored = true
	case r.prev == nil:
		r.anchored = false
	}
	if visible == rows {
		r.anchored = true
	}
	r.prev = next
	r.top = top
	r.hwRow, r.hwCol = enc.Position()
	if full {
		r.fullRedraws++
	}
	r.pending = redrawNone

	stats.ContentRows = height
	stats.VisibleRows = visible
	stats.Top = top
	stats.BytesWritten = enc.Len()
	stats.TotalTime = time.Since(start)
	r.last = stats
	r.emitStats(stats)
	return nil
}

// Finish moves the cursor to a fresh line below the region and forgets
// it, leaving the terminal ready for other output. The next Render starts
// a new region.
func (r *Renderer) Finish() error {
	if r.prev == nil {
		return nil
	}
	enc := NewEncoder(r.cols, NewTranslation(r.opts.Caps, r.prev, nil), r.hwRow, r.hwCol)
	enc.Encode([]Op{MoveTo(r.prev.Rows()-1, 0), {Kind: OpGrow, N: 1}})
	enc.Finish()
	if err := r.write(enc.String()); err != nil {
		return err
	}
	r.reset()
	return nil
}

// Abandon forgets the region without touching the terminal, e.g. after
// something else has drawn over it.
func (r *Renderer) Abandon() {
	r.reset()
}

func (r *Renderer) reset() {
	r.prev = nil
	r.top = 0
	r.hwRow, r.hwCol = 0, -1
	r.anchored = false
	r.pending = redrawNone
}

func (r *Renderer) write(s string) error {
	n, err := io.WriteString(r.out, s)
	if err == nil && n < len(s) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &TerminalIOError{Op: "write", Err: err}
	}
	return nil
}

func (r *Renderer) emitStats(stats RenderStats) {
	if r.opts.StatsWriter == nil {
		return
	}
	rec := renderStatsJSON{
		Ts:           time.Now().UnixMilli(),
		TotalUs:      stats.TotalTime.Microseconds(),
		DiffUs:       stats.DiffTime.Microseconds(),
		WriteUs:      stats.WriteTime.Microseconds(),
		ContentRows:  stats.ContentRows,
		VisibleRows:  stats.VisibleRows,
		Top:          stats.Top,
		RowsChanged:  stats.RowsChanged,
		FullRedraw:   stats.FullRedraw,
		BytesWritten: stats.BytesWritten,
		ScrollLines:  stats.ScrollLines,
		Grown:        stats.Grown,
	}
	data, _ := json.Marshal(rec)
	data = append(data, '\n')
	r.opts.StatsWriter.Write(data) //nolint:errcheck
}

func extend(s *screen.Screen, rows int) *screen.Screen {
	out := screen.NewScreen(rows, s.Cols())
	for r := range s.Rows() {
		copy(out.Row(r), s.Row(r))
	}
	out.Cursor = s.Cursor
	return out
}

func truncate(s *screen.Screen, rows int) *screen.Screen {
	out := screen.NewScreen(rows, s.Cols())
	for r := range rows {
		copy(out.Row(r), s.Row(r))
	}
	out.Cursor = s.Cursor
	return out
}

func changedRows(ops []Op) int {
	seen := map[int]bool{}
	for _, op := range ops[:len(ops)-1] {
		if op.Kind == OpMoveTo {
			seen[op.Row] = true
		}
	}
	return len(seen)
}
