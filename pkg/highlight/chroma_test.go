package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCoversText(t *testing.T) {
	c := New("bash", "")
	text := `for f in *.go; do echo "$f" # list` + "\n" + `done`

	spans := c.Classify(text)
	require.NotEmpty(t, spans)

	prev := 0
	for _, s := range spans {
		assert.LessOrEqual(t, prev, s.Start, "ordered")
		assert.Less(t, s.Start, s.End, "non-empty")
		assert.LessOrEqual(t, s.End, len(text), "in bounds")
		assert.False(t, s.Style.IsZero())
		prev = s.End
	}
}

func TestClassifyKeyword(t *testing.T) {
	c := New("bash", "monokai")
	spans := c.Classify("if true; then :; fi")

	var found bool
	for _, s := range spans {
		if s.Start == 0 && s.End == 2 {
			found = true
		}
	}
	assert.True(t, found, "keyword 'if' is styled: %v", spans)
}

func TestClassifyEmpty(t *testing.T) {
	assert.Empty(t, New("nonsense", "nonsense").Classify(""))
}
