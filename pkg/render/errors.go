package render

import (
	"github.com/pkg/errors"
)

var (
	// ErrTerminalIO is matched by errors returned when the terminal cannot
	// be written. It ends the current read.
	ErrTerminalIO = errors.New("terminal I/O error")

	// ErrCapabilityMismatch is logged, never returned, when a style or
	// glyph is degraded to fit the terminal.
	ErrCapabilityMismatch = errors.New("capability mismatch")
)

// TerminalIOError wraps the underlying I/O failure.
type TerminalIOError struct {
	Op  string
	Err error
}

func (e *TerminalIOError) Error() string {
	return "terminal " + e.Op + ": " + e.Err.Error()
}

func (e *TerminalIOError) Unwrap() error { return e.Err }

// Is makes every TerminalIOError match ErrTerminalIO.
func (e *TerminalIOError) Is(target error) bool { return target == ErrTerminalIO }
