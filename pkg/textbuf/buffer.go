// Package textbuf implements the editable line buffer: a gap buffer holding
// UTF-8 text, a cursor that is always on a grapheme-cluster boundary and is
// reported in byte, codepoint, cluster and (row, column) form, and a
// grouped undo/redo log.
package textbuf

import (
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Options configures a Buffer. Zero values select defaults.
type Options struct {
	// TabWidth is the distance between tab stops. Default 8.
	TabWidth int

	// HistoryLimit caps the number of undo groups retained. Default 500.
	HistoryLimit int

	// CoalesceWindow is the idle time after which consecutive edits start a
	// new undo group. Default 1s.
	CoalesceWindow time.Duration

	// Width returns the display width of a grapheme cluster. Defaults to
	// the width reported by uniseg.
	Width func(cluster string) int

	// Now is the clock used for undo coalescing.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TabWidth <= 0 {
		o.TabWidth = 8
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 500
	}
	if o.CoalesceWindow <= 0 {
		o.CoalesceWindow = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Range is a half-open byte range [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int { return r.End - r.Start }

// Cursor is the cursor position expressed in every coordinate space the
// editor needs. All fields describe the same position.
type Cursor struct {
	Byte    int
	Rune    int
	Cluster int
	Row     int
	Col     int
}

// Buffer is an editable text buffer. It is not safe for concurrent use; the
// editor owns it from a single goroutine.
type Buffer struct {
	opts Options

	gap    gapBuffer
	cursor int
	idx    *index

	// preferred is the visual column kept across vertical moves, or -1.
	preferred int

	log     undoLog
	version uint64
}

// New returns an empty buffer.
func New(opts Options) *Buffer {
	opts = opts.withDefaults()
	return &Buffer{
		opts:      opts,
		gap:       newGapBuffer(minGap),
		preferred: -1,
		log: undoLog{
			limit:  opts.HistoryLimit,
			window: opts.CoalesceWindow,
			now:    opts.Now,
		},
	}
}

func (b *Buffer) index() *index {
	if b.idx == nil {
		b.idx = buildIndex(b.gap.String(), b.opts.Width)
	}
	return b.idx
}

func (b *Buffer) touch() {
	b.idx = nil
	b.version++
}

// Text returns the buffer contents.
func (b *Buffer) Text() string { return b.index().text }

// Len returns the content length in bytes.
func (b *Buffer) Len() int { return b.gap.Len() }

// Empty reports whether the buffer has no content.
func (b *Buffer) Empty() bool { return b.gap.Len() == 0 }

// Version increments on every content or cursor change.
func (b *Buffer) Version() uint64 { return b.version }

// TabWidth returns the configured tab stop distance.
func (b *Buffer) TabWidth() int { return b.opts.TabWidth }

// Slice returns the text in r, which must be within bounds.
func (b *Buffer) Slice(r Range) string {
	return b.Text()[r.Start:r.End]
}

// Clusters returns the grapheme clusters of the buffer in order.
func (b *Buffer) Clusters() []string {
	idx := b.index()
	out := make([]string, idx.clusters())
	for i := range out {
		out[i] = idx.cluster(i)
	}
	return out
}

// Rows returns the number of logical rows. An empty buffer has one.
func (b *Buffer) Rows() int { return len(b.index().lines) }

// RowRange returns the byte range of logical row, excluding its newline.
func (b *Buffer) RowRange(row int) Range {
	idx := b.index()
	start, end := idx.rowRange(row)
	return Range{Start: idx.bounds[start], End: idx.bounds[end]}
}

// Cursor returns the current cursor position.
func (b *Buffer) Cursor() Cursor {
	return b.position(b.cursor)
}

func (b *Buffer) position(off int) Cursor {
	idx := b.index()
	ci := idx.clusterOf(off)
	return Cursor{
		Byte:    off,
		Rune:    idx.runes[ci],
		Cluster: ci,
		Row:     idx.rowOf(ci),
		Col:     idx.column(ci, b.opts.TabWidth),
	}
}

// VisualPosition returns the cursor's logical row and visual column.
func (b *Buffer) VisualPosition() (row, col int) {
	c := b.Cursor()
	return c.Row, c.Col
}

// PositionOf converts a byte offset into a Cursor without moving the cursor.
func (b *Buffer) PositionOf(off int) (Cursor, error) {
	if err := b.checkBoundary(off); err != nil {
		return Cursor{}, err
	}
	return b.position(off), nil
}

// IsBoundary reports whether off is a grapheme-cluster boundary.
func (b *Buffer) IsBoundary(off int) bool {
	if off < 0 || off > b.Len() {
		return false
	}
	return b.index().isBoundary(off)
}

func (b *Buffer) checkBoundary(off int) error {
	if !b.IsBoundary(off) {
		return errors.Wrapf(ErrBoundaryViolation, "offset %d (len %d)", off, b.Len())
	}
	return nil
}

// ClusterAt returns the byte range of the cluster containing off.
func (b *Buffer) ClusterAt(off int) Range {
	idx := b.index()
	ci := idx.clusterOf(off)
	if ci >= idx.clusters() {
		return Range{Start: b.Len(), End: b.Len()}
	}
	return Range{Start: idx.bounds[ci], End: idx.bounds[ci+1]}
}

// snap returns off if it is a boundary, else the next boundary after it.
func (b *Buffer) snap(off int) int {
	idx := b.index()
	ci := idx.clusterOf(off)
	if idx.bounds[ci] == off {
		return off
	}
	return idx.bounds[ci+1]
}

// SetCursor moves the cursor to byte offset off.
func (b *Buffer) SetCursor(off int) error {
	if err := b.checkBoundary(off); err != nil {
		return err
	}
	if off != b.cursor {
		b.cursor = off
		b.version++
	}
	b.preferred = -1
	b.log.seal()
	return nil
}

// Insert inserts text at the cursor and advances the cursor past it.
func (b *Buffer) Insert(text string) error {
	return b.insert(text, false)
}

// InsertAtomic is like Insert but records the insertion as its own undo
// group, e.g. for pasted text.
func (b *Buffer) InsertAtomic(text string) error {
	return b.insert(text, true)
}

func (b *Buffer) insert(text string, atomic bool) error {
	if !utf8.ValidString(text) {
		return errors.Wrapf(ErrInvalidEncoding, "insert %q", text)
	}
	if text == "" {
		return nil
	}
	before := b.cursor
	b.gap.Insert(before, text)
	b.touch()
	b.cursor = b.snap(before + len(text))
	b.preferred = -1
	b.log.record(kindInsert, edit{
		off:      before,
		inserted: text,
		before:   before,
		after:    b.cursor,
	}, atomic)
	return nil
}

// Delete removes the bytes in r. Both ends must be cluster boundaries.
func (b *Buffer) Delete(r Range) error {
	if r.Start > r.End {
		return errors.Wrapf(ErrBoundaryViolation, "inverted range %d..%d", r.Start, r.End)
	}
	if err := b.checkBoundary(r.Start); err != nil {
		return err
	}
	if err := b.checkBoundary(r.End); err != nil {
		return err
	}
	if r.Len() == 0 {
		return nil
	}
	before := b.cursor
	deleted := b.gap.Slice(r.Start, r.End)
	b.gap.Delete(r.Start, r.End)
	b.touch()
	switch {
	case b.cursor >= r.End:
		b.cursor -= r.Len()
	case b.cursor > r.Start:
		b.cursor = r.Start
	}
	b.cursor = b.snap(b.cursor)
	b.preferred = -1
	b.log.record(kindDelete, edit{
		off:     r.Start,
		deleted: deleted,
		before:  before,
		after:   b.cursor,
	}, false)
	return nil
}

// DeleteBackward deletes from the previous unit boundary to the cursor and
// returns the removed text.
func (b *Buffer) DeleteBackward(unit Unit) (string, error) {
	r := Range{Start: b.PrevBoundary(b.cursor, unit), End: b.cursor}
	text := b.Slice(r)
	return text, b.Delete(r)
}

// DeleteForward deletes from the cursor to the next unit boundary and
// returns the removed text.
func (b *Buffer) DeleteForward(unit Unit) (string, error) {
	r := Range{Start: b.cursor, End: b.NextBoundary(b.cursor, unit)}
	text := b.Slice(r)
	return text, b.Delete(r)
}

// Replace substitutes text for r as a single undo step and leaves the cursor
// after the inserted text.
func (b *Buffer) Replace(r Range, text string) error {
	if !utf8.ValidString(text) {
		return errors.Wrapf(ErrInvalidEncoding, "replace %q", text)
	}
	if r.Start > r.End {
		return errors.Wrapf(ErrBoundaryViolation, "inverted range %d..%d", r.Start, r.End)
	}
	if err := b.checkBoundary(r.Start); err != nil {
		return err
	}
	if err := b.checkBoundary(r.End); err != nil {
		return err
	}
	b.replace(r, text)
	return nil
}

func (b *Buffer) replace(r Range, text string) {
	before := b.cursor
	deleted := b.gap.Slice(r.Start, r.End)
	b.gap.Delete(r.Start, r.End)
	b.gap.Insert(r.Start, text)
	b.touch()
	b.cursor = b.snap(r.Start + len(text))
	b.preferred = -1
	b.log.record(kindReplace, edit{
		off:      r.Start,
		deleted:  deleted,
		inserted: text,
		before:   before,
		after:    b.cursor,
	}, true)
}

// SetText replaces the whole buffer and puts the cursor at the end. The
// replacement is one undo step.
func (b *Buffer) SetText(text string) error {
	if !utf8.ValidString(text) {
		return errors.Wrapf(ErrInvalidEncoding, "set %q", text)
	}
	if text == b.Text() {
		return b.SetCursor(b.Len())
	}
	b.replace(Range{Start: 0, End: b.Len()}, text)
	return nil
}

// Transpose swaps the cluster before the cursor with the one after it, or
// the two clusters before the cursor when it sits at the end of a row.
// Reports false when there is nothing to swap.
func (b *Buffer) Transpose() bool {
	idx := b.index()
	ci := idx.clusterOf(b.cursor)
	_, rowEnd := idx.rowRange(idx.rowOf(ci))
	if ci >= rowEnd {
		ci--
	}
	if ci < 1 || ci >= idx.clusters() {
		return false
	}
	left, right := idx.cluster(ci-1), idx.cluster(ci)
	if isNewline(left) || isNewline(right) {
		return false
	}
	r := Range{Start: idx.bounds[ci-1], End: idx.bounds[ci+1]}
	b.replace(r, right+left)
	return true
}

// Reset clears the contents, the cursor, and the undo log.
func (b *Buffer) Reset() {
	b.gap.Reset()
	b.cursor = 0
	b.preferred = -1
	b.log.reset()
	b.touch()
}
