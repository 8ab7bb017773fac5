package screen

import (
	"strings"
)

// Position is a zero-based row and column.
type Position struct {
	Row, Col int
}

// Screen is a fixed-size grid of cells plus the desired cursor position.
type Screen struct {
	rows, cols int
	cells      []Cell

	// Cursor is where the hardware cursor should rest after drawing.
	Cursor Position
}

// NewScreen returns a blank screen.
func NewScreen(rows, cols int) *Screen {
	rows = max(rows, 0)
	cols = max(cols, 0)
	s := &Screen{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}
	s.Clear()
	return s
}

// Rows returns the screen height.
func (s *Screen) Rows() int { return s.rows }

// Cols returns the screen width.
func (s *Screen) Cols() int { return s.cols }

// Clear blanks every cell and homes the cursor.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = Blank
	}
	s.Cursor = Position{}
}

// Cell returns the cell at row, col. Out-of-range positions read as blank.
func (s *Screen) Cell(row, col int) Cell {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return Blank
	}
	return s.cells[row*s.cols+col]
}

// Set writes a cell. A wide cell also claims the column to its right; one
// that does not fit before the right margin is replaced by a blank.
// Overwriting either half of an existing wide cell blanks the other half.
func (s *Screen) Set(row, col int, c Cell) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return
	}
	if c.Width > 1 && col+1 >= s.cols {
		c = Cell{Content: " ", Width: 1, Style: c.Style}
	}
	s.unlink(row, col)
	if c.Width > 1 {
		s.unlink(row, col+1)
	}
	line := s.Row(row)
	line[col] = c
	if c.Width > 1 {
		line[col+1] = continuation(c.Style)
	}
}

// unlink blanks the other half of a wide cell at row, col, if any.
func (s *Screen) unlink(row, col int) {
	line := s.Row(row)
	switch {
	case line[col].IsContinuation() && col > 0:
		line[col-1] = Cell{Content: " ", Width: 1, Style: line[col-1].Style}
	case line[col].Width > 1 && col+1 < s.cols:
		line[col+1] = Cell{Content: " ", Width: 1, Style: line[col+1].Style}
	}
}

// Row returns the cells of one row. The slice aliases the screen.
func (s *Screen) Row(row int) []Cell {
	return s.cells[row*s.cols : (row+1)*s.cols]
}

// RowEqual reports whether row r of s and o hold the same cells.
func (s *Screen) RowEqual(o *Screen, r int) bool {
	if s.cols != o.cols {
		return false
	}
	a, b := s.Row(r), o.Row(r)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both screens have the same size, cells and cursor.
func (s *Screen) Equal(o *Screen) bool {
	if s.rows != o.rows || s.cols != o.cols || s.Cursor != o.Cursor {
		return false
	}
	for r := range s.rows {
		if !s.RowEqual(o, r) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Screen) Clone() *Screen {
	c := &Screen{rows: s.rows, cols: s.cols, Cursor: s.Cursor}
	c.cells = make([]Cell, len(s.cells))
	copy(c.cells, s.cells)
	return c
}

// ScrollUp shifts the content up by n rows, as the terminal does when it
// scrolls at the bottom margin. Rows entering at the bottom are blank.
func (s *Screen) ScrollUp(n int) {
	s.shift(-n)
}

// ScrollDown shifts the content down by n rows, as a reverse index at the
// top margin does. Rows entering at the top are blank.
func (s *Screen) ScrollDown(n int) {
	s.shift(n)
}

func (s *Screen) shift(n int) {
	if n == 0 || s.cols == 0 {
		return
	}
	if n >= s.rows || -n >= s.rows {
		for i := range s.cells {
			s.cells[i] = Blank
		}
		return
	}
	if n > 0 {
		copy(s.cells[n*s.cols:], s.cells[:(s.rows-n)*s.cols])
		for i := range n * s.cols {
			s.cells[i] = Blank
		}
		return
	}
	n = -n
	copy(s.cells, s.cells[n*s.cols:])
	for i := (s.rows - n) * s.cols; i < len(s.cells); i++ {
		s.cells[i] = Blank
	}
}

// Text returns the content of one row with trailing blanks removed.
func (s *Screen) Text(row int) string {
	var sb strings.Builder
	for _, c := range s.Row(row) {
		sb.WriteString(c.Content)
	}
	return strings.TrimRight(sb.String(), " ")
}

// String dumps the screen as text, one line per row.
func (s *Screen) String() string {
	lines := make([]string, s.rows)
	for r := range s.rows {
		lines[r] = s.Text(r)
	}
	return strings.Join(lines, "\n")
}

// Dump is like String but replaces the cursor cell with a block and frames each
// row so trailing blanks stay visible. Used by snapshot tests.
func (s *Screen) Dump() string {
	var sb strings.Builder
	for r := range s.rows {
		sb.WriteByte('|')
		for c, cell := range s.Row(r) {
			if s.Cursor == (Position{r, c}) {
				sb.WriteString("█")
				if cell.Width > 1 {
					sb.WriteByte(' ')
				}
				continue
			}
			sb.WriteString(cell.Content)
		}
		if s.Cursor.Row == r && s.Cursor.Col >= s.cols {
			sb.WriteString("█")
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
