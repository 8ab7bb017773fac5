package textbuf

import (
	"sort"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// index is the derived layout of the buffer contents: cluster boundaries,
// codepoint counts, and logical line starts. It is rebuilt lazily after a
// mutation and discarded with the buffer.
type index struct {
	text string

	// bounds holds the byte offset of every cluster start, followed by
	// len(text).
	bounds []int
	// runes[i] is the number of codepoints before bounds[i].
	runes []int
	// widths[i] is the display width of cluster i. Tabs and newlines are
	// resolved when computing columns.
	widths []int
	// lines holds the cluster index at which each logical row starts.
	lines []int
}

func buildIndex(text string, width func(string) int) *index {
	idx := &index{
		text:  text,
		lines: []int{0},
	}
	state := -1
	rest := text
	off, runes := 0, 0
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		idx.bounds = append(idx.bounds, off)
		idx.runes = append(idx.runes, runes)
		if width != nil {
			w = width(cluster)
		}
		idx.widths = append(idx.widths, w)
		off += len(cluster)
		runes += utf8.RuneCountInString(cluster)
		if isNewline(cluster) {
			idx.lines = append(idx.lines, len(idx.bounds))
		}
	}
	idx.bounds = append(idx.bounds, off)
	idx.runes = append(idx.runes, runes)
	return idx
}

func isNewline(cluster string) bool {
	return cluster == "\n" || cluster == "\r\n"
}

// clusters returns the number of clusters.
func (idx *index) clusters() int {
	return len(idx.bounds) - 1
}

// clusterOf returns the index of the cluster containing byte offset off. For
// off == len(text) it returns clusters().
func (idx *index) clusterOf(off int) int {
	i := sort.SearchInts(idx.bounds, off)
	if i < len(idx.bounds) && idx.bounds[i] == off {
		return i
	}
	return i - 1
}

func (idx *index) isBoundary(off int) bool {
	i := sort.SearchInts(idx.bounds, off)
	return i < len(idx.bounds) && idx.bounds[i] == off
}

func (idx *index) cluster(i int) string {
	return idx.text[idx.bounds[i]:idx.bounds[i+1]]
}

// rowOf returns the logical row containing cluster index ci.
func (idx *index) rowOf(ci int) int {
	return sort.Search(len(idx.lines), func(i int) bool {
		return idx.lines[i] > ci
	}) - 1
}

// rowRange returns the cluster range [start, end) of row, excluding the
// terminating newline.
func (idx *index) rowRange(row int) (int, int) {
	start := idx.lines[row]
	end := idx.clusters()
	if row+1 < len(idx.lines) {
		end = idx.lines[row+1] - 1
	}
	return start, end
}

// advance returns the column after cluster i when it starts at col.
func (idx *index) advance(i, col, tabWidth int) int {
	if idx.text[idx.bounds[i]] == '\t' && idx.bounds[i+1]-idx.bounds[i] == 1 {
		return (col/tabWidth + 1) * tabWidth
	}
	return col + idx.widths[i]
}

// column returns the visual column of cluster index ci within its row.
func (idx *index) column(ci, tabWidth int) int {
	start, _ := idx.rowRange(idx.rowOf(ci))
	col := 0
	for i := start; i < ci; i++ {
		col = idx.advance(i, col, tabWidth)
	}
	return col
}
