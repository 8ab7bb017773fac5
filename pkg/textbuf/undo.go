package textbuf

import "time"

type editKind int

const (
	kindInsert editKind = iota
	kindDelete
	kindReplace
)

// edit is a single reversible change at byte offset off.
type edit struct {
	off      int
	deleted  string
	inserted string
	before   int
	after    int
}

// group is one undo step: a run of coalesced edits.
type group struct {
	kind   editKind
	edits  []edit
	at     time.Time
	sealed bool
}

// undoLog is a linear history of groups. Groups before pos are undoable;
// groups from pos on are redoable and are discarded by the next new edit.
type undoLog struct {
	groups []group
	pos    int
	limit  int
	window time.Duration
	now    func() time.Time
}

func (l *undoLog) record(kind editKind, e edit, atomic bool) {
	l.groups = l.groups[:l.pos]
	now := l.now()

	if n := len(l.groups); n > 0 && !atomic {
		last := &l.groups[n-1]
		if !last.sealed &&
			last.kind == kind &&
			now.Sub(last.at) <= l.window &&
			contiguous(kind, last.edits[len(last.edits)-1], e) {
			last.edits = append(last.edits, e)
			last.at = now
			return
		}
		last.sealed = true
	}

	l.groups = append(l.groups, group{
		kind:   kind,
		edits:  []edit{e},
		at:     now,
		sealed: atomic,
	})
	if len(l.groups) > l.limit {
		l.groups = l.groups[len(l.groups)-l.limit:]
	}
	l.pos = len(l.groups)
}

// contiguous reports whether next continues prev: typing forward, or
// deleting backward or forward from the same point.
func contiguous(kind editKind, prev, next edit) bool {
	switch kind {
	case kindInsert:
		return next.off == prev.off+len(prev.inserted)
	case kindDelete:
		return next.off+len(next.deleted) == prev.off || next.off == prev.off
	default:
		return false
	}
}

func (l *undoLog) seal() {
	if n := len(l.groups); n > 0 {
		l.groups[n-1].sealed = true
	}
}

func (l *undoLog) reset() {
	l.groups = nil
	l.pos = 0
}

// CanUndo reports whether Undo would change the buffer.
func (b *Buffer) CanUndo() bool { return b.log.pos > 0 }

// CanRedo reports whether Redo would change the buffer.
func (b *Buffer) CanRedo() bool { return b.log.pos < len(b.log.groups) }

// Undo reverts the most recent group and restores the cursor to where it
// was before that group began.
func (b *Buffer) Undo() bool {
	if !b.CanUndo() {
		return false
	}
	b.log.seal()
	b.log.pos--
	g := b.log.groups[b.log.pos]
	for i := len(g.edits) - 1; i >= 0; i-- {
		e := g.edits[i]
		b.gap.Delete(e.off, e.off+len(e.inserted))
		b.gap.Insert(e.off, e.deleted)
	}
	b.cursor = g.edits[0].before
	b.preferred = -1
	b.touch()
	return true
}

// Redo reapplies the most recently undone group.
func (b *Buffer) Redo() bool {
	if !b.CanRedo() {
		return false
	}
	g := b.log.groups[b.log.pos]
	b.log.pos++
	for _, e := range g.edits {
		b.gap.Delete(e.off, e.off+len(e.deleted))
		b.gap.Insert(e.off, e.inserted)
	}
	b.cursor = g.edits[len(g.edits)-1].after
	b.preferred = -1
	b.touch()
	return true
}

// Seal closes the current undo group so the next edit starts a new one.
func (b *Buffer) Seal() { b.log.seal() }

// ResetHistory discards all undo and redo state.
func (b *Buffer) ResetHistory() { b.log.reset() }
