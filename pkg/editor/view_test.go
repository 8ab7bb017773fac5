package editor

import (
	"io"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/render/vttest"
	"github.com/vito/shline/pkg/screen"
)

type classifierFunc func(string) []Span

func (f classifierFunc) Classify(text string) []Span { return f(text) }

func newPaintEditor(t *testing.T, text string, opts ...Option) *Editor {
	t.Helper()
	ed, err := New(vttest.NewTerm(30, 10), Config{Env: testEnv}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ed.Close() })
	ed.renderer = render.NewRenderer(io.Discard, 30, 10, render.Options{Caps: ed.Caps()})
	ed.line.prompt = StaticPrompt("$ ", "> ").Prompt()
	require.NoError(t, ed.line.buf.SetText(text))
	return ed
}

func TestPaintMenu(t *testing.T) {
	ed := newPaintEditor(t, "echo one\ntwo")
	ed.line.menu = &menu{comp: Completion{
		Start: 9, End: 12,
		Candidates: []Candidate{{Text: "alpha"}, {Text: "beta"}},
	}}

	c := ed.paint(paintLive)
	golden.Assert(t, c.String(), "paint_menu.golden")
	assert.Equal(t, 3, ed.line.menuTop)
	assert.Equal(t, 2, ed.line.menuShown)

	// The final paint leaves no menu behind.
	c = ed.paint(paintFinal)
	assert.Equal(t, "$ echo one\n> two", c.String())
}

func TestPaintInterrupted(t *testing.T) {
	ed := newPaintEditor(t, "sleep")
	c := ed.paint(paintInterrupted)
	assert.Equal(t, "$ sleep^C", c.String())
}

func TestPaintStyles(t *testing.T) {
	bold := screen.Style{Attrs: screen.Bold}
	ed := newPaintEditor(t, "echo one", WithClassifier(classifierFunc(func(text string) []Span {
		return []Span{{Start: 5, End: len(text), Style: bold}}
	})))
	ed.line.mark = 0
	require.NoError(t, ed.line.buf.SetCursor(4))

	c := ed.paint(paintLive)
	s := c.Window(0, c.Height())

	assert.NotZero(t, s.Cell(0, 2).Style.Attrs&screen.Reverse, "selected")
	assert.Zero(t, s.Cell(0, 6).Style.Attrs&screen.Reverse, "unselected")
	assert.NotZero(t, s.Cell(0, 7).Style.Attrs&screen.Bold, "classified")
	assert.Equal(t, screen.Position{Row: 0, Col: 6}, s.Cursor)

	// The region is not left highlighted in the scrollback.
	c = ed.paint(paintFinal)
	s = c.Window(0, c.Height())
	assert.Zero(t, s.Cell(0, 2).Style.Attrs&screen.Reverse)
}

func TestOffsetAt(t *testing.T) {
	ed := newPaintEditor(t, "echo one\ntwo")
	ed.paint(paintLive)
	layout := ed.line.layout

	for _, tc := range []struct {
		row, col int
		want     int
	}{
		{0, 0, 0},
		{0, 4, 2},
		{0, 29, 8},
		{1, 3, 10},
		{1, 20, 12},
	} {
		off, ok := offsetAt(layout, tc.row, tc.col)
		assert.True(t, ok)
		assert.Equal(t, tc.want, off, "row %d col %d", tc.row, tc.col)
	}

	_, ok := offsetAt(layout, 5, 0)
	assert.False(t, ok)
}

func TestRenderMenuBoxScrolls(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	box, first := renderMenuBox(items, 4, 2, 30, DefaultTheme(), true)
	assert.Equal(t, 3, first)

	text := ansi.Strip(box)
	assert.Contains(t, text, "5/5")
	assert.Contains(t, text, "| e ")
	assert.NotContains(t, text, " a ")
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "fo", commonPrefix([]string{"foo", "fob", "fo"}))
	assert.Equal(t, "", commonPrefix([]string{"abc", "xyz"}))
	assert.Equal(t, "h", commonPrefix([]string{"hé", "hè"}))
}
