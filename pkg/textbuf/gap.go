package textbuf

const minGap = 64

// gapBuffer stores bytes with a movable gap at the edit point so that
// repeated insertions and deletions near the cursor are amortized O(1).
//
// Callers only ever move the gap to grapheme-cluster boundaries, so the gap
// never splits a codepoint.
type gapBuffer struct {
	data     []byte
	gapStart int
	gapEnd   int
}

func newGapBuffer(capacity int) gapBuffer {
	capacity = max(capacity, minGap)
	return gapBuffer{
		data:   make([]byte, capacity),
		gapEnd: capacity,
	}
}

// Len returns the number of content bytes.
func (g *gapBuffer) Len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

func (g *gapBuffer) gapLen() int {
	return g.gapEnd - g.gapStart
}

// moveGap positions the gap so that it starts at logical offset pos.
func (g *gapBuffer) moveGap(pos int) {
	switch {
	case pos < g.gapStart:
		n := g.gapStart - pos
		copy(g.data[g.gapEnd-n:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart = pos
		g.gapEnd -= n
	case pos > g.gapStart:
		n := pos - g.gapStart
		copy(g.data[g.gapStart:g.gapStart+n], g.data[g.gapEnd:g.gapEnd+n])
		g.gapStart += n
		g.gapEnd += n
	}
}

// grow ensures the gap can hold at least n bytes.
func (g *gapBuffer) grow(n int) {
	if g.gapLen() >= n {
		return
	}
	size := max(2*len(g.data), len(g.data)+n+minGap)
	data := make([]byte, size)
	copy(data, g.data[:g.gapStart])
	tail := g.data[g.gapEnd:]
	gapEnd := size - len(tail)
	copy(data[gapEnd:], tail)
	g.data = data
	g.gapEnd = gapEnd
}

func (g *gapBuffer) Insert(pos int, p string) {
	g.moveGap(pos)
	g.grow(len(p))
	copy(g.data[g.gapStart:], p)
	g.gapStart += len(p)
}

func (g *gapBuffer) Delete(start, end int) {
	g.moveGap(start)
	g.gapEnd += end - start
}

func (g *gapBuffer) Slice(start, end int) string {
	if end <= g.gapStart {
		return string(g.data[start:end])
	}
	if start >= g.gapStart {
		return string(g.data[start+g.gapLen() : end+g.gapLen()])
	}
	return string(g.data[start:g.gapStart]) + string(g.data[g.gapEnd:end+g.gapLen()])
}

func (g *gapBuffer) String() string {
	return g.Slice(0, g.Len())
}

// Reset empties the buffer and releases oversized storage.
func (g *gapBuffer) Reset() {
	*g = newGapBuffer(minGap)
}
