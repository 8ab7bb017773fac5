package complete

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/shline/pkg/editor"
)

func setup(t *testing.T) *PathSource {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"alpha.txt", "alps/inner", ".hidden", "my file"} {
		path := filepath.Join(dir, "work", f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "greet"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "grep-notes"), nil, 0644))

	return &PathSource{
		Dir:      filepath.Join(dir, "work"),
		PathList: bin,
		Builtins: []string{"cd", "exit"},
		Home:     filepath.Join(dir, "work"),
	}
}

func texts(c editor.Completion) []string {
	var out []string
	for _, cand := range c.Candidates {
		out = append(out, cand.Text)
	}
	return out
}

func TestCompleteCommands(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	c, err := s.Complete(ctx, "gr", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"greet "}, texts(c))
	assert.Equal(t, CategoryCommand, c.Candidates[0].Category)

	c, err = s.Complete(ctx, "ls | e", 6)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Start)
	assert.Equal(t, []string{"exit "}, texts(c))
}

func TestCompletePaths(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	c, err := s.Complete(ctx, "cat al", 6)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Start)
	assert.Equal(t, 6, c.End)
	assert.ElementsMatch(t, []string{"alpha.txt ", "alps/"}, texts(c))

	c, err = s.Complete(ctx, "cat alps/", 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"alps/inner "}, texts(c))

	c, err = s.Complete(ctx, "cat ~/alp", 9)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"~/alpha.txt ", "~/alps/"}, texts(c))

	c, err = s.Complete(ctx, "cat ", 4)
	require.NoError(t, err)
	assert.NotContains(t, texts(c), ".hidden ")

	c, err = s.Complete(ctx, "cat .h", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden "}, texts(c))
}

func TestCompleteEscapes(t *testing.T) {
	s := setup(t)

	c, err := s.Complete(context.Background(), "cat my", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{`my\ file `}, texts(c))

	line := `cat my\ f`
	c, err = s.Complete(context.Background(), line, len(line))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Start)
	assert.Equal(t, []string{`my\ file `}, texts(c))
}

func TestCompleteMissingDir(t *testing.T) {
	s := setup(t)
	c, err := s.Complete(context.Background(), "cat nope/x", 10)
	require.NoError(t, err)
	assert.Empty(t, c.Candidates)
}
