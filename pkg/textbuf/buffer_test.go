package textbuf

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDeleteRoundTrip(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("hello world"))

	before := b.Text()
	require.NoError(t, b.SetCursor(5))
	require.NoError(t, b.Insert(", there"))
	assert.Equal(t, "hello, there world", b.Text())

	require.NoError(t, b.Delete(Range{Start: 5, End: 12}))
	assert.Equal(t, before, b.Text())
	assert.Equal(t, 5, b.Cursor().Byte)
}

// Inserting S at a cluster boundary and deleting the same byte range
// restores the buffer. When S fuses with a neighbouring cluster (a leading
// combining mark, a regional indicator pairing up, a trailing ZWJ) the
// range no longer ends on boundaries and Delete refuses it, leaving the
// buffer as it was after the insert.
func TestInsertDeleteRoundTripRandom(t *testing.T) {
	var restored, fused int
	for seed := int64(1); seed <= 500; seed++ {
		rng := rand.New(rand.NewSource(seed))

		var base strings.Builder
		for range rng.Intn(6) {
			base.WriteString(fragments[rng.Intn(len(fragments))])
		}
		var ins strings.Builder
		for range 1 + rng.Intn(3) {
			ins.WriteString(fragments[rng.Intn(len(fragments))])
		}
		text, s := base.String(), ins.String()

		b := New(Options{})
		require.NoError(t, b.SetText(text))
		bounds := []int{0}
		for _, c := range b.Clusters() {
			bounds = append(bounds, bounds[len(bounds)-1]+len(c))
		}
		p := bounds[rng.Intn(len(bounds))]

		require.NoError(t, b.SetCursor(p), "seed %d", seed)
		require.NoError(t, b.Insert(s), "seed %d", seed)
		inserted := text[:p] + s + text[p:]
		require.Equal(t, inserted, b.Text(), "seed %d", seed)

		r := Range{Start: p, End: p + len(s)}
		if b.IsBoundary(r.Start) && b.IsBoundary(r.End) {
			require.NoError(t, b.Delete(r), "seed %d", seed)
			assert.Equal(t, text, b.Text(), "seed %d: insert %q at %d into %q", seed, s, p, text)
			restored++
		} else {
			require.ErrorIs(t, b.Delete(r), ErrBoundaryViolation, "seed %d", seed)
			assert.Equal(t, inserted, b.Text(), "seed %d", seed)
			fused++
		}
	}
	assert.Positive(t, restored)
	assert.Positive(t, fused)
}

func TestInsertFusingWithNeighbourIsNotRoundTrippable(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.SetText("ex"))
	require.NoError(t, b.SetCursor(1))
	require.NoError(t, b.Insert("\u0301"))
	assert.Equal(t, "e\u0301x", b.Text())

	err := b.Delete(Range{Start: 1, End: 3})
	require.ErrorIs(t, err, ErrBoundaryViolation)
	assert.Equal(t, "e\u0301x", b.Text())

	require.NoError(t, b.Delete(b.ClusterAt(0)))
	assert.Equal(t, "x", b.Text())
}

func TestCursorCoordinatesPrecomposed(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("h\u00e9llo"))

	assert.True(t, b.Move(Backward, UnitCluster))
	assert.True(t, b.Move(Backward, UnitCluster))

	assert.Equal(t, Cursor{Byte: 4, Rune: 3, Cluster: 3, Row: 0, Col: 3}, b.Cursor())
}

func TestCursorCoordinatesDecomposed(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("he\u0301llo"))

	assert.True(t, b.Move(Backward, UnitCluster))
	assert.True(t, b.Move(Backward, UnitCluster))

	assert.Equal(t, Cursor{Byte: 5, Rune: 4, Cluster: 3, Row: 0, Col: 3}, b.Cursor())
}

func TestCodepointMoveSnapsToCluster(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("ae\u0301"))

	assert.True(t, b.Move(Backward, UnitCodepoint))
	assert.Equal(t, 1, b.Cursor().Byte)

	assert.True(t, b.Move(Forward, UnitCodepoint))
	assert.Equal(t, 4, b.Cursor().Byte)
}

func TestInsertInvalidEncoding(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("ok"))

	err := b.Insert("bad\xffbytes")
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Equal(t, "ok", b.Text())
	assert.Equal(t, 2, b.Cursor().Byte)
}

func TestDeleteInsideClusterIsRejected(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("e\u0301x"))

	err := b.Delete(Range{Start: 1, End: 3})
	require.ErrorIs(t, err, ErrBoundaryViolation)
	assert.Equal(t, "e\u0301x", b.Text())

	err = b.Delete(Range{Start: 0, End: 10})
	require.ErrorIs(t, err, ErrBoundaryViolation)

	require.NoError(t, b.Delete(Range{Start: 0, End: 3}))
	assert.Equal(t, "x", b.Text())
}

func TestInsertCombiningMarkExtendsCluster(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("e"))
	require.NoError(t, b.Insert("\u0301"))

	c := b.Cursor()
	assert.Equal(t, 3, c.Byte)
	assert.Equal(t, 1, c.Cluster)
	assert.Equal(t, 1, c.Col)
}

func TestInsertBeforeCombiningMarkSnapsForward(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("\u0301x"))
	require.NoError(t, b.SetCursor(0))
	require.NoError(t, b.Insert("e"))

	assert.Equal(t, "e\u0301x", b.Text())
	assert.Equal(t, 3, b.Cursor().Byte)
	assert.True(t, b.IsBoundary(b.Cursor().Byte))
}

func TestSetCursorRejectsMidCluster(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("👍🏽"))

	err := b.SetCursor(4)
	require.ErrorIs(t, err, ErrBoundaryViolation)
	assert.Equal(t, len("👍🏽"), b.Cursor().Byte)
}

func TestWideClusterColumns(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("日本x"))

	assert.Equal(t, 5, b.Cursor().Col)
	b.Move(Backward, UnitCluster)
	assert.Equal(t, 4, b.Cursor().Col)
}

func TestTabColumns(t *testing.T) {
	b := New(Options{TabWidth: 4})
	require.NoError(t, b.Insert("a\tb"))

	assert.Equal(t, 5, b.Cursor().Col)
	b.Move(Backward, UnitCluster)
	assert.Equal(t, 4, b.Cursor().Col)
}

func TestWordMovement(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("echo hello-world  foo"))

	var stops []int
	for b.Move(Backward, UnitWord) {
		stops = append(stops, b.Cursor().Byte)
	}
	assert.Equal(t, []int{18, 11, 5, 0}, stops)

	stops = nil
	for b.Move(Forward, UnitWord) {
		stops = append(stops, b.Cursor().Byte)
	}
	assert.Equal(t, []int{4, 10, 16, 21}, stops)
}

func TestWordMovementKeepsCombiningMarks(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("cafe\u0301 ok"))
	require.NoError(t, b.SetCursor(0))

	assert.True(t, b.Move(Forward, UnitWord))
	assert.Equal(t, len("cafe\u0301"), b.Cursor().Byte)
}

func TestLineMovement(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("first\nsecond"))
	require.NoError(t, b.SetCursor(9))

	assert.True(t, b.Move(Backward, UnitLine))
	assert.Equal(t, 6, b.Cursor().Byte)
	assert.False(t, b.Move(Backward, UnitLine))

	assert.True(t, b.Move(Forward, UnitLine))
	assert.Equal(t, 12, b.Cursor().Byte)

	assert.True(t, b.Move(Backward, UnitBuffer))
	assert.Equal(t, 0, b.Cursor().Byte)
	assert.True(t, b.Move(Forward, UnitBuffer))
	assert.Equal(t, 12, b.Cursor().Byte)
}

func TestVerticalMovementKeepsPreferredColumn(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("abcdef\nab\nabcdef"))
	require.NoError(t, b.SetCursor(5))

	assert.True(t, b.Move(Down, UnitLine))
	assert.Equal(t, Cursor{Byte: 9, Rune: 9, Cluster: 9, Row: 1, Col: 2}, b.Cursor())

	assert.True(t, b.Move(Down, UnitLine))
	assert.Equal(t, 2, b.Cursor().Row)
	assert.Equal(t, 5, b.Cursor().Col)

	assert.False(t, b.Move(Down, UnitLine))

	assert.True(t, b.Move(Up, UnitLine))
	assert.True(t, b.Move(Up, UnitLine))
	assert.Equal(t, 5, b.Cursor().Byte)
	assert.False(t, b.Move(Up, UnitLine))
}

func TestDeleteBackwardAndForward(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("git commit --amend"))

	removed, err := b.DeleteBackward(UnitWord)
	require.NoError(t, err)
	assert.Equal(t, "amend", removed)
	assert.Equal(t, "git commit --", b.Text())

	require.NoError(t, b.SetCursor(0))
	removed, err = b.DeleteForward(UnitWord)
	require.NoError(t, err)
	assert.Equal(t, "git", removed)

	removed, err = b.DeleteForward(UnitLine)
	require.NoError(t, err)
	assert.Equal(t, " commit --", removed)
	assert.True(t, b.Empty())
}

func TestReplace(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("ls /us"))

	require.NoError(t, b.Replace(Range{Start: 3, End: 6}, "/usr/"))
	assert.Equal(t, "ls /usr/", b.Text())
	assert.Equal(t, 8, b.Cursor().Byte)

	assert.True(t, b.Undo())
	assert.Equal(t, "ls /us", b.Text())
}

func TestTranspose(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("teh"))

	assert.True(t, b.Transpose())
	assert.Equal(t, "the", b.Text())
	assert.Equal(t, 3, b.Cursor().Byte)

	require.NoError(t, b.SetCursor(1))
	assert.True(t, b.Transpose())
	assert.Equal(t, "hte", b.Text())
	assert.Equal(t, 2, b.Cursor().Byte)

	require.NoError(t, b.SetCursor(0))
	assert.False(t, b.Transpose())
}

func TestRowsAndRanges(t *testing.T) {
	b := New(Options{})
	assert.Equal(t, 1, b.Rows())

	require.NoError(t, b.Insert("one\ntwo\n"))
	assert.Equal(t, 3, b.Rows())
	assert.Equal(t, Range{Start: 4, End: 7}, b.RowRange(1))
	assert.Equal(t, Range{Start: 8, End: 8}, b.RowRange(2))
	assert.Equal(t, 2, b.Cursor().Row)
	assert.Equal(t, 0, b.Cursor().Col)
}

func TestLargeBufferGrowth(t *testing.T) {
	b := New(Options{})
	chunk := strings.Repeat("x", 100)
	for range 50 {
		require.NoError(t, b.Insert(chunk))
	}
	assert.Equal(t, 5000, b.Len())
	require.NoError(t, b.SetCursor(2500))
	require.NoError(t, b.Insert("|"))
	assert.Equal(t, "|", b.Slice(Range{Start: 2500, End: 2501}))
}

func TestReset(t *testing.T) {
	b := New(Options{})
	require.NoError(t, b.Insert("something"))
	b.Reset()

	assert.True(t, b.Empty())
	assert.Equal(t, Cursor{}, b.Cursor())
	assert.False(t, b.CanUndo())
}
