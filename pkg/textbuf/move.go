package textbuf

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Unit is the granularity of a cursor movement or deletion.
type Unit int

const (
	// UnitCodepoint steps one codepoint, then snaps to the next cluster
	// boundary in the direction of travel.
	UnitCodepoint Unit = iota
	UnitCluster
	UnitWord
	UnitLine
	UnitBuffer
)

func (u Unit) String() string {
	switch u {
	case UnitCodepoint:
		return "codepoint"
	case UnitCluster:
		return "cluster"
	case UnitWord:
		return "word"
	case UnitLine:
		return "line"
	case UnitBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Direction is the direction of a cursor movement.
type Direction int

const (
	Backward Direction = iota
	Forward
	Up
	Down
)

// Move moves the cursor and reports whether it changed position. Any move
// closes the current undo group.
func (b *Buffer) Move(dir Direction, unit Unit) bool {
	b.log.seal()

	var target int
	switch dir {
	case Backward:
		target = b.PrevBoundary(b.cursor, unit)
	case Forward:
		target = b.NextBoundary(b.cursor, unit)
	case Up, Down:
		return b.moveVertical(dir)
	}
	b.preferred = -1
	if target == b.cursor {
		return false
	}
	b.cursor = target
	b.version++
	return true
}

// PrevBoundary returns the nearest unit boundary before off, or off itself
// when there is none.
func (b *Buffer) PrevBoundary(off int, unit Unit) int {
	idx := b.index()
	if off <= 0 {
		return 0
	}
	switch unit {
	case UnitCodepoint:
		_, size := utf8.DecodeLastRuneInString(idx.text[:off])
		return idx.bounds[idx.clusterOf(off-size)]
	case UnitCluster:
		ci := idx.clusterOf(off)
		if idx.bounds[ci] < off {
			return idx.bounds[ci]
		}
		return idx.bounds[ci-1]
	case UnitWord:
		start := 0
		forEachWord(idx.text, func(r Range) bool {
			if r.Start >= off {
				return false
			}
			start = r.Start
			return true
		})
		return start
	case UnitLine:
		start, _ := idx.rowRange(idx.rowOf(idx.clusterOf(off)))
		return idx.bounds[start]
	default:
		return 0
	}
}

// NextBoundary returns the nearest unit boundary after off, or off itself
// when there is none.
func (b *Buffer) NextBoundary(off int, unit Unit) int {
	idx := b.index()
	n := len(idx.text)
	if off >= n {
		return n
	}
	switch unit {
	case UnitCodepoint:
		_, size := utf8.DecodeRuneInString(idx.text[off:])
		return b.snap(off + size)
	case UnitCluster:
		return idx.bounds[idx.clusterOf(off)+1]
	case UnitWord:
		end := n
		forEachWord(idx.text, func(r Range) bool {
			if r.End > off {
				end = r.End
				return false
			}
			return true
		})
		return end
	case UnitLine:
		_, end := idx.rowRange(idx.rowOf(idx.clusterOf(off)))
		return idx.bounds[end]
	default:
		return n
	}
}

// forEachWord calls fn with the range of every word segment that contains
// a letter or digit, stopping when fn returns false.
func forEachWord(text string, fn func(Range) bool) {
	state := -1
	rest := text
	off := 0
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		r := Range{Start: off, End: off + len(word)}
		off = r.End
		if isWordLike(word) && !fn(r) {
			return
		}
	}
}

func isWordLike(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func (b *Buffer) moveVertical(dir Direction) bool {
	idx := b.index()
	cur := b.Cursor()
	row := cur.Row - 1
	if dir == Down {
		row = cur.Row + 1
	}
	if row < 0 || row >= len(idx.lines) {
		return false
	}
	if b.preferred < 0 {
		b.preferred = cur.Col
	}
	start, end := idx.rowRange(row)
	ci, col := start, 0
	for ci < end {
		next := idx.advance(ci, col, b.opts.TabWidth)
		if next > b.preferred {
			break
		}
		col = next
		ci++
	}
	b.cursor = idx.bounds[ci]
	b.version++
	return true
}
