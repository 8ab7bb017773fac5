package editor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"charm.land/lipgloss/v2"

	"github.com/vito/shline/pkg/keys"
	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/textbuf"
)

// menu is the open completion menu. Its candidates replace the byte
// range [comp.Start, comp.End) of the buffer.
type menu struct {
	comp  Completion
	index int
}

func (m *menu) step(n int) {
	count := len(m.comp.Candidates)
	m.index = ((m.index+n)%count + count) % count
}

func (m *menu) labels() []string {
	labels := make([]string, len(m.comp.Candidates))
	for i, c := range m.comp.Candidates {
		labels[i] = c.Label()
	}
	return labels
}

func (e *Editor) closeMenu() {
	e.line.menu = nil
}

// requestCompletion runs the completion source on a worker. The result is
// dropped if the buffer changed in the meantime.
func (e *Editor) requestCompletion() {
	buf := e.line.buf
	version, line, cursor := buf.Version(), buf.Text(), buf.Cursor().Byte
	e.Go(func(ctx context.Context) error {
		comp, err := e.completer.Complete(ctx, line, cursor)
		if err != nil {
			return err
		}
		e.Dispatch(func() {
			if buf.Version() != version {
				e.logger.Debug("discarding stale completion", "line", line)
				return
			}
			e.applyCompletion(comp)
		})
		return nil
	})
}

// applyCompletion inserts a single candidate outright, or extends the
// buffer to the candidates' common prefix and opens the menu.
func (e *Editor) applyCompletion(comp Completion) {
	buf := e.line.buf
	r := textbuf.Range{Start: comp.Start, End: comp.End}
	if r.Start > r.End || !buf.IsBoundary(r.Start) || !buf.IsBoundary(r.End) {
		e.logger.Debug("completion range out of bounds", "start", comp.Start, "end", comp.End, "len", buf.Len())
		e.line.bell = true
		return
	}

	switch len(comp.Candidates) {
	case 0:
		e.line.bell = true
	case 1:
		text := comp.Candidates[0].Text
		e.edited(func() bool { return buf.Replace(r, text) == nil })
	default:
		texts := make([]string, len(comp.Candidates))
		for i, c := range comp.Candidates {
			texts[i] = c.Text
		}
		if prefix := commonPrefix(texts); len(prefix) > r.Len() && buf.Slice(r) != prefix {
			e.edited(func() bool { return buf.Replace(r, prefix) == nil })
			comp.End = comp.Start + len(prefix)
		}
		e.line.menu = &menu{comp: comp}
	}
}

func (e *Editor) applyMenu() {
	m := e.line.menu
	e.closeMenu()
	r := textbuf.Range{Start: m.comp.Start, End: m.comp.End}
	text := m.comp.Candidates[m.index].Text
	e.edited(func() bool { return e.line.buf.Replace(r, text) == nil })
}

// menuKey handles navigation keys while the menu is open. Any other key
// closes the menu and is handled normally.
func (e *Editor) menuKey(ev keys.Event) bool {
	m := e.line.menu
	if m == nil {
		return false
	}
	switch ev.Chord() {
	case keys.Chord{Key: keys.KeyTab}, keys.Chord{Key: keys.KeyDown}, keys.Chord{Rune: 'n', Mod: keys.ModCtrl}:
		m.step(1)
	case keys.Chord{Key: keys.KeyTab, Mod: keys.ModShift}, keys.Chord{Key: keys.KeyUp}, keys.Chord{Rune: 'p', Mod: keys.ModCtrl}:
		m.step(-1)
	case keys.Chord{Key: keys.KeyEnter}:
		e.applyMenu()
	case keys.Chord{Key: keys.KeyEscape}:
		e.closeMenu()
	default:
		e.closeMenu()
		return false
	}
	return true
}

// mouse scrolls the menu with the wheel; a left click picks a menu item
// or moves the cursor.
func (e *Editor) mouse(m keys.Mouse) {
	if m.Action == keys.MouseWheel {
		if e.line.menu == nil {
			return
		}
		if m.Button == keys.MouseWheelUp {
			e.line.menu.step(-1)
		} else {
			e.line.menu.step(1)
		}
		return
	}
	if m.Action != keys.MousePress || m.Button != keys.MouseLeft {
		return
	}
	row, ok := e.renderer.ContentRow(m.Y)
	if !ok {
		e.logger.Debug("click outside known region", "x", m.X, "y", m.Y)
		return
	}
	if menu := e.line.menu; menu != nil && e.line.menuTop >= 0 {
		if n := row - e.line.menuTop; n >= 0 && n < e.line.menuShown {
			menu.index = e.line.menuFirst + n
			e.applyMenu()
			return
		}
	}
	if off, ok := offsetAt(e.line.layout, row, m.X); ok {
		e.closeMenu()
		if err := e.line.buf.SetCursor(off); err != nil {
			e.line.bell = true
		}
	}
}

func commonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, item := range items[1:] {
		for !strings.HasPrefix(item, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func lipglossStyle(s screen.Style) lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.Fg != nil {
		st = st.Foreground(s.Fg)
	}
	if s.Bg != nil {
		st = st.Background(s.Bg)
	}
	if s.Attrs&screen.Bold != 0 {
		st = st.Bold(true)
	}
	if s.Attrs&screen.Dim != 0 {
		st = st.Faint(true)
	}
	if s.Attrs&screen.Reverse != 0 {
		st = st.Reverse(true)
	}
	return st
}

// renderMenuBox renders the completion dropdown as a bordered box. It
// returns the box and the index of the first visible item.
func renderMenuBox(items []string, index, maxVisible, width int, theme Theme, ascii bool) (string, int) {
	visible := min(len(items), maxVisible)
	start := 0
	if index >= visible {
		start = index - visible + 1
	}
	end := start + visible

	// Size the box from all items so it doesn't resize while scrolling.
	maxW := 0
	for _, item := range items {
		if w := lipgloss.Width(item); w > maxW {
			maxW = w
		}
	}
	if maxW > 60 {
		maxW = 60
	}
	if maxW+4 > width {
		maxW = width - 4
	}
	if maxW < 4 {
		maxW = 4
	}

	menuStyle := lipglossStyle(theme.Menu)
	selectedStyle := lipglossStyle(theme.MenuSelected)
	var menuLines []string
	for i := start; i < end && i < len(items); i++ {
		item := items[i]
		if lipgloss.Width(item) > maxW {
			item = truncate(item, maxW-3) + "..."
		}
		padded := " " + item + strings.Repeat(" ", maxW-lipgloss.Width(item)) + " "
		if i == index {
			menuLines = append(menuLines, selectedStyle.Render(padded))
		} else {
			menuLines = append(menuLines, menuStyle.Render(padded))
		}
	}

	if len(items) > visible {
		info := fmt.Sprintf(" %d/%d ", index+1, len(items))
		menuLines = append(menuLines, lipglossStyle(theme.MenuInfo).Render(info))
	}

	border := lipgloss.RoundedBorder()
	if ascii {
		border = lipgloss.ASCIIBorder()
	}
	boxStyle := lipgloss.NewStyle().Border(border)
	if theme.MenuBorder.Fg != nil {
		boxStyle = boxStyle.BorderForeground(theme.MenuBorder.Fg)
	}
	inner := strings.Join(menuLines, "\n")
	return boxStyle.Render(inner), start
}

// truncate cuts s to at most w display columns.
func truncate(s string, w int) string {
	var sb strings.Builder
	used := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if used+rw > w {
			break
		}
		sb.WriteRune(r)
		used += rw
	}
	return sb.String()
}
