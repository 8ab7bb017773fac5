package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T, path string, limit int) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path, limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openSQLite(t, path, 0)

	require.NoError(t, s.Add("make test"))
	require.NoError(t, s.Add("make test"))
	require.NoError(t, s.Add("make\nlint"))
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Close())

	s = openSQLite(t, path, 0)
	require.Equal(t, 2, s.Len())
	e, ok := s.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "make\nlint", e)
}

func TestSQLiteStorePrunes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s := openSQLite(t, path, 2)
	for _, line := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(line))
	}
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Close())

	s = openSQLite(t, path, 2)
	require.Equal(t, 2, s.Len())
	e, _ := s.Entry(0)
	assert.Equal(t, "b", e)
}

func TestSQLiteStoreSharedPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	a := openSQLite(t, path, 0)
	b := openSQLite(t, path, 0)

	require.NoError(t, a.Add("docker ps"))
	require.NoError(t, b.Add("docker build ."))

	line, ok := a.Prefix("docker")
	assert.True(t, ok)
	assert.Equal(t, "docker build .", line)

	_, ok = a.Prefix("docker build .")
	assert.False(t, ok)
}
