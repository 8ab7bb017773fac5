// Package vttest provides a small terminal emulator and a fake
// render.Terminal for testing code that draws to a terminal.
package vttest

import (
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// Emulator is a minimal terminal emulator understanding the sequences the
// renderer emits. Lines scrolled off the top are kept in Scrollback so
// tests can check that native scrolling happened.
type Emulator struct {
	cols, rows int
	grid       [][]string
	row, col   int
	pending    bool
	Scrollback []string

	// Homes counts absolute cursor positioning, which the inline
	// renderer only uses to clear the screen.
	Homes int

	// Bells counts BEL characters.
	Bells int
}

// NewEmulator returns a blank screen with the cursor at the top left.
func NewEmulator(cols, rows int) *Emulator {
	v := &Emulator{cols: cols, rows: rows}
	v.grid = make([][]string, rows)
	for r := range v.grid {
		v.grid[r] = v.blankRow()
	}
	return v
}

func (v *Emulator) blankRow() []string {
	row := make([]string, v.cols)
	for i := range row {
		row[i] = " "
	}
	return row
}

func (v *Emulator) Write(p []byte) (int, error) {
	v.Feed(string(p))
	return len(p), nil
}

// Feed interprets s as terminal output.
func (v *Emulator) Feed(s string) {
	for len(s) > 0 {
		switch s[0] {
		case '\r':
			v.col, v.pending = 0, false
			s = s[1:]
		case '\n':
			v.lineFeed()
			s = s[1:]
		case '\a':
			v.Bells++
			s = s[1:]
		case 0x1b:
			switch {
			case strings.HasPrefix(s, "\x1bM"):
				v.reverseIndex()
				s = s[2:]
			case strings.HasPrefix(s, "\x1b["):
				i := 2
				for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
					i++
				}
				if i == len(s) {
					return
				}
				v.csi(s[2:i], s[i])
				s = s[i+1:]
			default:
				s = s[2:]
			}
		default:
			cluster, rest, width, _ := uniseg.FirstGraphemeClusterInString(s, -1)
			v.print(cluster, width)
			s = rest
		}
	}
}

func (v *Emulator) csi(params string, final byte) {
	if strings.HasPrefix(params, "?") {
		return
	}
	n := 1
	if params != "" && !strings.Contains(params, ";") {
		n, _ = strconv.Atoi(params)
	}
	switch final {
	case 'A':
		v.row = max(0, v.row-n)
		v.pending = false
	case 'B':
		v.row = min(v.rows-1, v.row+n)
		v.pending = false
	case 'G':
		v.col = min(max(n-1, 0), v.cols-1)
		v.pending = false
	case 'H':
		v.Homes++
		v.row, v.col, v.pending = 0, 0, false
	case 'K':
		for c := v.col; c < v.cols; c++ {
			v.grid[v.row][c] = " "
		}
	case 'J':
		if params == "2" {
			for r := range v.grid {
				v.grid[r] = v.blankRow()
			}
			return
		}
		for c := v.col; c < v.cols; c++ {
			v.grid[v.row][c] = " "
		}
		for r := v.row + 1; r < v.rows; r++ {
			v.grid[r] = v.blankRow()
		}
	}
}

func (v *Emulator) print(cluster string, width int) {
	if v.pending {
		v.col, v.pending = 0, false
		v.lineFeed()
	}
	if v.col+width > v.cols {
		v.col = 0
		v.lineFeed()
	}
	v.grid[v.row][v.col] = cluster
	if width == 2 {
		v.grid[v.row][v.col+1] = ""
	}
	v.col += width
	if v.col >= v.cols {
		v.col, v.pending = v.cols-1, true
	}
}

func (v *Emulator) lineFeed() {
	if v.row < v.rows-1 {
		v.row++
		return
	}
	v.Scrollback = append(v.Scrollback, v.Text(0))
	copy(v.grid, v.grid[1:])
	v.grid[v.rows-1] = v.blankRow()
}

func (v *Emulator) reverseIndex() {
	if v.row > 0 {
		v.row--
		return
	}
	copy(v.grid[1:], v.grid[:v.rows-1])
	v.grid[0] = v.blankRow()
}

// Text returns row r with trailing blanks removed.
func (v *Emulator) Text(r int) string {
	return strings.TrimRight(strings.Join(v.grid[r], ""), " ")
}

// Lines returns the text of every row.
func (v *Emulator) Lines() []string {
	out := make([]string, v.rows)
	for r := range v.rows {
		out[r] = v.Text(r)
	}
	return out
}

// Cursor returns the visible cursor position; a pending wrap shows on the
// last column.
func (v *Emulator) Cursor() (int, int) {
	return v.row, v.col
}

// Resize changes the dimensions without reflowing, keeping the top-left
// content and clamping the cursor.
func (v *Emulator) Resize(cols, rows int) {
	old := v.grid
	v.cols, v.rows = cols, rows
	v.grid = make([][]string, rows)
	for r := range v.grid {
		v.grid[r] = v.blankRow()
		if r < len(old) {
			copy(v.grid[r], old[r])
		}
	}
	v.row = min(v.row, rows-1)
	v.col = min(v.col, cols-1)
	v.pending = false
}
