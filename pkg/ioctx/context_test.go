package ioctx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, io.Discard, Stdout(ctx))
	assert.Equal(t, io.Discard, Stderr(ctx))
	assert.Equal(t, slog.Default(), Logger(ctx))
}

func TestRoundTrip(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&errOut, nil))

	ctx := WithStdout(context.Background(), &out)
	ctx = WithStderr(ctx, &errOut)
	ctx = WithLogger(ctx, logger)

	assert.Same(t, &out, Stdout(ctx))
	assert.Same(t, &errOut, Stderr(ctx))
	assert.Same(t, logger, Logger(ctx))
}
