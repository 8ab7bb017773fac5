package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vito/shline/pkg/screen"
)

func screenOf(cols int, lines ...string) *screen.Screen {
	c := screen.NewCanvas(cols, screen.CanvasOptions{})
	for i, l := range lines {
		if i > 0 {
			c.Newline()
		}
		c.Write(l, screen.Style{})
	}
	s := c.Window(0, len(lines))
	s.Cursor = screen.Position{}
	return s
}

func opStrings(ops []Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

func TestDiffIdentical(t *testing.T) {
	s := screenOf(10, "abc", "def")
	assert.Equal(t, []string{"move(0,0)"}, opStrings(Diff(s, s.Clone(), DiffOptions{})))
}

func TestDiffSingleInsertTouchesOneRow(t *testing.T) {
	prev := screenOf(20, "first", "echo hllo", "third")
	next := screenOf(20, "first", "echo hello", "third")
	next.Cursor = screen.Position{Row: 1, Col: 7}

	ops := Diff(prev, next, DiffOptions{})
	for _, op := range ops {
		if op.Kind == OpMoveTo {
			assert.Equal(t, 1, op.Row, "%v", opStrings(ops))
		}
		assert.NotEqual(t, OpEraseBelow, op.Kind)
	}
	assert.Equal(t, []string{`move(1,6)`, `write("ello")`, `move(1,7)`}, opStrings(ops))
}

func TestDiffFullRowAboveThreshold(t *testing.T) {
	prev := screenOf(10, "aaaaaaaa")
	next := screenOf(10, "bbbbbb")

	assert.Equal(t, []string{
		`move(0,0)`, `write("bbbbbb")`, `erase-line`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))

	// A looser threshold turns the same change into runs.
	assert.Equal(t, []string{
		`move(0,0)`, `write("bbbbbb  ")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{FullRowThreshold: 0.9})))
}

func TestDiffMergesNearbyRuns(t *testing.T) {
	prev := screenOf(20, "abcdefghij")
	next := screenOf(20, "XbcdXfghiY")

	assert.Equal(t, []string{
		`move(0,0)`, `write("XbcdX")`, `move(0,9)`, `write("Y")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))
}

func TestDiffTrailingRunUsesErase(t *testing.T) {
	prev := screenOf(6, "abcdef")
	next := screenOf(6, "abcdX")

	assert.Equal(t, []string{
		`move(0,4)`, `write("X")`, `erase-line`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))
}

func TestDiffRewritesWholeWideCells(t *testing.T) {
	prev := screenOf(10, "a日b")
	next := screenOf(10, "a本b")
	assert.Equal(t, []string{
		`move(0,1)`, `write("本")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))

	// Replacing a wide cell with narrow ones rewrites both columns.
	next = screenOf(10, "axyb")
	assert.Equal(t, []string{
		`move(0,1)`, `write("xy")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))

	// Changing only the cell after a wide cell leaves the wide cell alone.
	next = screenOf(10, "a日c")
	assert.Equal(t, []string{
		`move(0,3)`, `write("c")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))
}

func TestDiffUnknownPrevRewritesEverything(t *testing.T) {
	next := screenOf(10, "abc", "")
	assert.Equal(t, []string{
		`move(0,0)`, `write("abc")`, `erase-line`,
		`move(1,0)`, `erase-line`,
		`move(0,0)`,
	}, opStrings(Diff(nil, next, DiffOptions{})))
}

func TestDiffStyleChangeCounts(t *testing.T) {
	prev := screenOf(10, "abc")
	next := prev.Clone()
	next.Set(0, 1, screen.Cell{Content: "b", Width: 1, Style: screen.Style{Attrs: screen.Bold}})

	assert.Equal(t, []string{
		`move(0,1)`, `write("b")`, `move(0,0)`,
	}, opStrings(Diff(prev, next, DiffOptions{})))
}
