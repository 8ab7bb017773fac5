package editor

import (
	"context"
	"strings"

	"github.com/vito/shline/pkg/keys"
	"github.com/vito/shline/pkg/textbuf"
)

// outcome is how the current line ends.
type outcome struct {
	line string
	err  error
}

// histNav tracks Up/Down travel through history. pos == Len() is the
// line being edited, saved in draft while an older entry is shown.
type histNav struct {
	active bool
	pos    int
	draft  string
}

type suggestion struct {
	line, text string
}

// lineState is everything that belongs to the line being edited. It is
// only touched from the ReadLine goroutine.
// yankState covers the last yanked text with cluster-aligned ends. head
// and tail are neighbouring bytes that fused with the text into one
// cluster; yank-pop puts them back around the replacement.
type yankState struct {
	r    textbuf.Range
	head string
	tail string
}

type lineState struct {
	provider PromptProvider
	prompt   Prompt

	buf   *textbuf.Buffer
	mark  int
	kills *killRing
	last  Action
	// yank is what the last yank inserted, replaced by yank-pop.
	yank yankState

	hist    histNav
	menu    *menu
	suggest suggestion
	spans   spanCache

	// layout is where each cluster of the buffer was painted last.
	layout []glyph
	// menuTop is the canvas row of the first visible menu item, or -1.
	menuTop   int
	menuFirst int
	menuShown int

	bell bool
	done *outcome
}

func newLineState(buf *textbuf.Buffer, killRingSize int) lineState {
	return lineState{
		buf:     buf,
		mark:    -1,
		kills:   newKillRing(killRingSize),
		menuTop: -1,
	}
}

// reset prepares for the next line. The kill ring survives.
func (l *lineState) reset() {
	l.buf.Reset()
	*l = lineState{
		buf:     l.buf,
		mark:    -1,
		kills:   l.kills,
		menuTop: -1,
	}
}

// region returns the range between mark and cursor.
func (l *lineState) region() (textbuf.Range, bool) {
	if l.mark < 0 || l.mark > l.buf.Len() {
		return textbuf.Range{}, false
	}
	cur := l.buf.Cursor().Byte
	r := textbuf.Range{Start: min(l.mark, cur), End: max(l.mark, cur)}
	return r, r.Len() > 0
}

// handle applies one input event.
func (e *Editor) handle(ev keys.Event) {
	switch ev.Kind {
	case keys.KindRune, keys.KindKey, keys.KindModified:
		if e.menuKey(ev) {
			return
		}
		e.run(e.keymap.Lookup(ev), ev)
	case keys.KindPaste:
		e.closeMenu()
		text := strings.ReplaceAll(ev.Text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		e.edited(func() bool {
			return e.line.buf.InsertAtomic(text) == nil
		})
		e.line.last = ActionSelfInsert
	case keys.KindMouse:
		e.mouse(ev.Mouse)
	case keys.KindResize:
		e.renderer.Resize(ev.Cols, ev.Rows)
	case keys.KindTimeout:
		e.logger.Debug("incomplete input discarded", "err", ev.Err())
	case keys.KindWake:
	}
}

// edited runs fn and, if the text changed, drops state that described the
// old text.
func (e *Editor) edited(fn func() bool) {
	before := e.line.buf.Text()
	if !fn() {
		e.line.bell = true
		return
	}
	if e.line.buf.Text() != before {
		e.line.mark = -1
		e.requestSuggestion()
	}
}

// run performs action in response to ev.
func (e *Editor) run(action Action, ev keys.Event) {
	buf := e.line.buf
	last := e.line.last
	e.line.last = action

	if action != ActionAccept && action != ActionComplete && action != ActionCompletePrev {
		e.closeMenu()
	}

	switch action {
	case ActionNone:
		e.logger.Debug("unbound key", "key", ev.String())
		e.line.bell = true
		e.line.last = last
	case ActionSelfInsert:
		e.edited(func() bool {
			return buf.Insert(string(ev.Rune)) == nil
		})
	case ActionNewline:
		e.edited(func() bool { return buf.Insert("\n") == nil })
	case ActionAccept:
		if e.line.menu != nil {
			e.applyMenu()
			return
		}
		text := buf.Text()
		if e.cfg.IsComplete != nil && !e.cfg.IsComplete(text) {
			e.edited(func() bool { return buf.Insert("\n") == nil })
			return
		}
		e.line.done = &outcome{line: text}

	case ActionBackwardChar:
		e.move(textbuf.Backward, textbuf.UnitCluster)
	case ActionForwardChar:
		if !e.acceptSuggestion() {
			e.move(textbuf.Forward, textbuf.UnitCluster)
		}
	case ActionBackwardWord:
		e.move(textbuf.Backward, textbuf.UnitWord)
	case ActionForwardWord:
		e.move(textbuf.Forward, textbuf.UnitWord)
	case ActionLineStart:
		e.move(textbuf.Backward, textbuf.UnitLine)
	case ActionLineEnd:
		if !e.acceptSuggestion() {
			e.move(textbuf.Forward, textbuf.UnitLine)
		}
	case ActionBufferStart:
		e.move(textbuf.Backward, textbuf.UnitBuffer)
	case ActionBufferEnd:
		e.move(textbuf.Forward, textbuf.UnitBuffer)
	case ActionUp:
		if !buf.Move(textbuf.Up, textbuf.UnitLine) {
			e.historyPrev()
		}
	case ActionDown:
		if !buf.Move(textbuf.Down, textbuf.UnitLine) {
			e.historyNext()
		}
	case ActionHistoryPrev:
		e.historyPrev()
	case ActionHistoryNext:
		e.historyNext()

	case ActionDeleteBackwardChar:
		e.edited(func() bool {
			text, err := buf.DeleteBackward(textbuf.UnitCluster)
			return err == nil && text != ""
		})
	case ActionDeleteForwardChar:
		e.edited(func() bool {
			text, err := buf.DeleteForward(textbuf.UnitCluster)
			return err == nil && text != ""
		})
	case ActionDeleteCharOrEOF:
		if buf.Empty() {
			e.line.done = &outcome{err: &AbortError{Reason: ReasonEOF}}
			return
		}
		e.edited(func() bool {
			text, err := buf.DeleteForward(textbuf.UnitCluster)
			return err == nil && text != ""
		})

	case ActionKillBackwardWord:
		cur := buf.Cursor().Byte
		e.kill(textbuf.Range{Start: buf.PrevBoundary(cur, textbuf.UnitWord), End: cur}, last, true)
	case ActionKillForwardWord:
		cur := buf.Cursor().Byte
		e.kill(textbuf.Range{Start: cur, End: buf.NextBoundary(cur, textbuf.UnitWord)}, last, false)
	case ActionKillLineStart:
		cur := buf.Cursor().Byte
		start := buf.PrevBoundary(cur, textbuf.UnitLine)
		if start == cur && cur > 0 {
			// At the start of a row, join it to the previous one.
			start = buf.PrevBoundary(cur, textbuf.UnitCluster)
		}
		e.kill(textbuf.Range{Start: start, End: cur}, last, true)
	case ActionKillLineEnd:
		cur := buf.Cursor().Byte
		end := buf.NextBoundary(cur, textbuf.UnitLine)
		if end == cur {
			end = buf.NextBoundary(cur, textbuf.UnitCluster)
		}
		e.kill(textbuf.Range{Start: cur, End: end}, last, false)
	case ActionKillRegionOrWord:
		if r, ok := e.line.region(); ok {
			e.kill(r, last, buf.Cursor().Byte == r.End)
			return
		}
		cur := buf.Cursor().Byte
		e.kill(textbuf.Range{Start: buf.PrevBoundary(cur, textbuf.UnitWord), End: cur}, last, true)
	case ActionCopyRegion:
		r, ok := e.line.region()
		if !ok {
			e.line.bell = true
			return
		}
		e.line.kills.push(buf.Slice(r), false, false)
		e.line.mark = -1

	case ActionYank:
		text, ok := e.line.kills.top()
		if !ok {
			e.line.bell = true
			return
		}
		e.yank(text)
	case ActionYankPop:
		if last != ActionYank && last != ActionYankPop {
			e.line.bell = true
			return
		}
		text, ok := e.line.kills.rotate()
		if !ok {
			e.line.bell = true
			return
		}
		y := e.line.yank
		start := y.r.Start + len(y.head)
		e.edited(func() bool {
			if buf.Replace(y.r, y.head+text+y.tail) != nil {
				return false
			}
			e.markYank(start, text)
			return true
		})

	case ActionTranspose:
		e.edited(buf.Transpose)
	case ActionUndo:
		e.edited(buf.Undo)
	case ActionRedo:
		e.edited(buf.Redo)
	case ActionSetMark:
		e.line.mark = buf.Cursor().Byte
	case ActionClearScreen:
		e.renderer.ClearScreen()

	case ActionComplete:
		if e.line.menu != nil {
			e.line.menu.step(1)
			return
		}
		if e.completer == nil {
			e.edited(func() bool { return buf.Insert("\t") == nil })
			return
		}
		e.requestCompletion()
	case ActionCompletePrev:
		if e.line.menu != nil {
			e.line.menu.step(-1)
			return
		}
		e.line.bell = true
	case ActionAcceptSuggestion:
		if !e.acceptSuggestion() {
			e.line.bell = true
		}
	case ActionCancel:
		e.line.mark = -1
		e.line.suggest = suggestion{}
	case ActionInterrupt:
		e.interrupt()
	}
}

func (e *Editor) move(dir textbuf.Direction, unit textbuf.Unit) {
	if !e.line.buf.Move(dir, unit) {
		e.line.bell = true
	}
}

// kill deletes r into the kill ring. Consecutive kills build one entry.
func (e *Editor) kill(r textbuf.Range, last Action, backward bool) {
	buf := e.line.buf
	if r.Len() == 0 {
		e.line.bell = true
		return
	}
	text := buf.Slice(r)
	e.edited(func() bool {
		return buf.Delete(r) == nil
	})
	e.line.kills.push(text, last.killing(), backward)
}

func (e *Editor) yank(text string) {
	buf := e.line.buf
	start := buf.Cursor().Byte
	e.edited(func() bool {
		if buf.InsertAtomic(text) != nil {
			return false
		}
		e.markYank(start, text)
		return true
	})
}

// markYank records text, just inserted at start, widened to the clusters
// it landed in. The cursor sits on the boundary after it.
func (e *Editor) markYank(start int, text string) {
	buf := e.line.buf
	from, end := start, buf.Cursor().Byte
	if !buf.IsBoundary(from) {
		from = buf.ClusterAt(from).Start
	}
	full := buf.Slice(textbuf.Range{Start: from, End: end})
	e.line.yank = yankState{
		r:    textbuf.Range{Start: from, End: end},
		head: full[:start-from],
		tail: full[start-from+len(text):],
	}
}

func (e *Editor) historyPrev() {
	h := e.history
	if h == nil || h.Len() == 0 {
		e.line.bell = true
		return
	}
	nav := &e.line.hist
	if !nav.active {
		*nav = histNav{active: true, pos: h.Len(), draft: e.line.buf.Text()}
	}
	if nav.pos == 0 {
		e.line.bell = true
		return
	}
	entry, ok := h.Entry(nav.pos - 1)
	if !ok {
		e.line.bell = true
		return
	}
	nav.pos--
	e.showHistory(entry)
}

func (e *Editor) historyNext() {
	nav := &e.line.hist
	if e.history == nil || !nav.active {
		e.line.bell = true
		return
	}
	nav.pos++
	if nav.pos >= e.history.Len() {
		draft := nav.draft
		*nav = histNav{}
		e.showHistory(draft)
		return
	}
	entry, ok := e.history.Entry(nav.pos)
	if !ok {
		e.line.bell = true
		return
	}
	e.showHistory(entry)
}

func (e *Editor) showHistory(text string) {
	e.edited(func() bool {
		return e.line.buf.SetText(text) == nil
	})
}

// requestSuggestion asks the suggester, on a worker, for a line extending
// the current text.
func (e *Editor) requestSuggestion() {
	e.line.suggest = suggestion{}
	if e.suggester == nil {
		return
	}
	line := e.line.buf.Text()
	if line == "" {
		return
	}
	e.Go(func(ctx context.Context) error {
		text, ok := e.suggester.Suggest(ctx, line)
		if !ok || ctx.Err() != nil {
			return nil
		}
		e.Dispatch(func() {
			if e.line.buf.Text() == line {
				e.line.suggest = suggestion{line: line, text: text}
			}
		})
		return nil
	})
}

// visibleSuggestion returns the ghost text to show after the cursor.
func (e *Editor) visibleSuggestion() string {
	s := e.line.suggest
	buf := e.line.buf
	if s.text == "" || s.line != buf.Text() || buf.Cursor().Byte != buf.Len() {
		return ""
	}
	if len(s.text) <= len(s.line) || !strings.HasPrefix(s.text, s.line) {
		return ""
	}
	return s.text[len(s.line):]
}

func (e *Editor) acceptSuggestion() bool {
	rest := e.visibleSuggestion()
	if rest == "" {
		return false
	}
	e.edited(func() bool {
		return e.line.buf.Insert(rest) == nil
	})
	return true
}
