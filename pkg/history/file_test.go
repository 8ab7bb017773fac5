package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")

	s, err := OpenFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add("echo one"))
	require.NoError(t, s.Add("echo one"))
	require.NoError(t, s.Add("for x in a b\ndo echo \\$x\ndone"))
	assert.Equal(t, 2, s.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "echo one\nfor x in a b\\ndo echo \\\\$x\\ndone\n", string(data))

	s, err = OpenFile(path, 0)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	last, ok := s.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "for x in a b\ndo echo \\$x\ndone", last)

	_, ok = s.Entry(2)
	assert.False(t, ok)
}

func TestFileStoreLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	s, err := OpenFile(path, 3)
	require.NoError(t, err)

	for _, line := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		require.NoError(t, s.Add(line))
	}
	assert.Equal(t, 3, s.Len())
	first, _ := s.Entry(0)
	assert.Equal(t, "e", first)

	s, err = OpenFile(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	first, _ = s.Entry(0)
	assert.Equal(t, "e", first)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "e\nf\ng\n", string(data))
}

func TestFileStorePrefix(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "history"), 0)
	require.NoError(t, err)
	require.NoError(t, s.Add("git status"))
	require.NoError(t, s.Add("git commit"))
	require.NoError(t, s.Add("ls"))

	line, ok := s.Prefix("git")
	assert.True(t, ok)
	assert.Equal(t, "git commit", line)

	_, ok = s.Prefix("ls")
	assert.False(t, ok, "exact match is not an extension")

	line, ok = Suggester{Store: s}.Suggest(context.Background(), "git s")
	assert.True(t, ok)
	assert.Equal(t, "git status", line)

	_, ok = Suggester{Store: s}.Suggest(context.Background(), "  ")
	assert.False(t, ok)
}

func TestEscape(t *testing.T) {
	for _, s := range []string{"", `a\b`, "a\nb", `trailing\`, `\n literal`, "\\\n"} {
		assert.Equal(t, s, unescape(escape(s)), "%q", s)
	}
}
