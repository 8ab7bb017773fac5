package textbuf

import "github.com/pkg/errors"

var (
	// ErrInvalidEncoding is returned when inserted text is not valid UTF-8.
	// The buffer is left unchanged.
	ErrInvalidEncoding = errors.New("invalid UTF-8 encoding")

	// ErrBoundaryViolation is returned when an offset is out of range or
	// does not fall on a grapheme-cluster boundary.
	ErrBoundaryViolation = errors.New("offset is not on a grapheme cluster boundary")
)
