package render

import (
	"fmt"
	"strings"

	"github.com/vito/shline/pkg/screen"
)

// OpKind tags the variant held by an Op.
type OpKind int

const (
	// OpMoveTo moves the cursor to Row, Col of the region.
	OpMoveTo OpKind = iota
	// OpWrite writes Cells starting at the cursor.
	OpWrite
	// OpEraseLine erases from the cursor to the end of the row.
	OpEraseLine
	// OpEraseBelow erases from the cursor to the end of the screen.
	OpEraseBelow
	// OpScrollUp scrolls the terminal up N rows with line feeds at the
	// bottom margin. The cursor must be on the last row.
	OpScrollUp
	// OpScrollDown scrolls the terminal down N rows with reverse index at
	// the top margin. The cursor must be on the first row.
	OpScrollDown
	// OpGrow appends N blank rows below the cursor's row with line feeds,
	// scrolling the terminal when the region reaches the bottom.
	OpGrow
	// OpClearScreen erases the whole screen and homes the cursor.
	OpClearScreen
)

// Op is one terminal operation produced by the diff engine.
type Op struct {
	Kind     OpKind
	Row, Col int
	N        int
	Cells    []screen.Cell
}

// MoveTo returns an OpMoveTo.
func MoveTo(row, col int) Op { return Op{Kind: OpMoveTo, Row: row, Col: col} }

func (op Op) String() string {
	switch op.Kind {
	case OpMoveTo:
		return fmt.Sprintf("move(%d,%d)", op.Row, op.Col)
	case OpWrite:
		var sb strings.Builder
		for _, c := range op.Cells {
			sb.WriteString(c.Content)
		}
		return fmt.Sprintf("write(%q)", sb.String())
	case OpEraseLine:
		return "erase-line"
	case OpEraseBelow:
		return "erase-below"
	case OpScrollUp:
		return fmt.Sprintf("scroll-up(%d)", op.N)
	case OpScrollDown:
		return fmt.Sprintf("scroll-down(%d)", op.N)
	case OpGrow:
		return fmt.Sprintf("grow(%d)", op.N)
	case OpClearScreen:
		return "clear-screen"
	default:
		return fmt.Sprintf("Op(%d)", int(op.Kind))
	}
}

// DefaultFullRowThreshold is the fraction of differing cells above which a
// row is rewritten whole.
const DefaultFullRowThreshold = 0.5

// mergeGap is the longest run of unchanged cells worth rewriting to join
// two changed runs; anything longer costs more than a cursor move.
const mergeGap = 3

// DiffOptions tunes Diff.
type DiffOptions struct {
	// FullRowThreshold is the fraction of a row's cells that must differ
	// before the row is rewritten whole. Default DefaultFullRowThreshold.
	FullRowThreshold float64
}

// Diff computes the operations turning prev into next. Unchanged rows
// produce nothing. The last op always moves the cursor to next.Cursor. A
// nil prev, or one of different size, means the terminal content is
// unknown and every row is rewritten.
func Diff(prev, next *screen.Screen, opts DiffOptions) []Op {
	threshold := opts.FullRowThreshold
	if threshold <= 0 {
		threshold = DefaultFullRowThreshold
	}
	known := prev != nil && prev.Rows() == next.Rows() && prev.Cols() == next.Cols()

	var ops []Op
	for r := range next.Rows() {
		if !known {
			ops = appendFullRow(ops, r, next.Row(r))
			continue
		}
		if prev.RowEqual(next, r) {
			continue
		}
		ops = appendRowDiff(ops, r, prev.Row(r), next.Row(r), threshold)
	}
	return append(ops, MoveTo(next.Cursor.Row, next.Cursor.Col))
}

func lastNonBlank(cells []screen.Cell) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i] != screen.Blank {
			return i
		}
	}
	return -1
}

func appendFullRow(ops []Op, row int, cells []screen.Cell) []Op {
	ops = append(ops, MoveTo(row, 0))
	last := lastNonBlank(cells)
	if last >= 0 {
		ops = append(ops, Op{Kind: OpWrite, Cells: cells[:last+1]})
	}
	if last < len(cells)-1 {
		ops = append(ops, Op{Kind: OpEraseLine})
	}
	return ops
}

// changedCells marks the columns that must be rewritten. Both halves of a
// wide cell, old or new, are rewritten together.
func changedCells(old, cells []screen.Cell) ([]bool, int) {
	cols := len(cells)
	changed := make([]bool, cols)
	for c := range cols {
		if old[c] != cells[c] {
			changed[c] = true
		}
	}
	for c := range cols {
		if !changed[c] {
			continue
		}
		for _, line := range [][]screen.Cell{old, cells} {
			if line[c].Width > 1 && c+1 < cols {
				changed[c+1] = true
			}
			if line[c].IsContinuation() && c > 0 {
				changed[c-1] = true
			}
		}
	}
	// A second pass catches leads marked only through their continuation.
	for c := cols - 1; c >= 0; c-- {
		if changed[c] && cells[c].IsContinuation() && c > 0 {
			changed[c-1] = true
		}
	}
	n := 0
	for _, ch := range changed {
		if ch {
			n++
		}
	}
	return changed, n
}

func appendRowDiff(ops []Op, row int, old, cells []screen.Cell, threshold float64) []Op {
	changed, n := changedCells(old, cells)
	if n == 0 {
		return ops
	}
	cols := len(cells)
	if float64(n) > threshold*float64(cols) {
		return appendFullRow(ops, row, cells)
	}

	for c := 0; c < cols; {
		if !changed[c] {
			c++
			continue
		}
		start, end := c, c
		for next := end + 1; next < cols; next++ {
			if changed[next] {
				end = next
				continue
			}
			if next-end > mergeGap {
				break
			}
		}
		// Never end a run on the lead half of a wide cell.
		if cells[end].Width > 1 && end+1 < cols {
			end++
		}

		ops = append(ops, MoveTo(row, start))
		if end == cols-1 {
			last := start + lastNonBlank(cells[start:end+1])
			if last >= start {
				ops = append(ops, Op{Kind: OpWrite, Cells: cells[start : last+1]})
			}
			if last < end {
				ops = append(ops, Op{Kind: OpEraseLine})
			}
		} else {
			ops = append(ops, Op{Kind: OpWrite, Cells: cells[start : end+1]})
		}
		c = end + 1
	}
	return ops
}
