package keys

import "github.com/pkg/errors"

var (
	// ErrClosed is returned by ReadEvent after Close.
	ErrClosed = errors.New("keys: reader closed")

	// ErrDecodeTimeout describes a KindTimeout event: a pending prefix
	// expired without completing. It is informational, not a failure.
	ErrDecodeTimeout = errors.New("keys: escape sequence timed out")
)
