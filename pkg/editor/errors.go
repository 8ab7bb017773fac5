package editor

import (
	"github.com/pkg/errors"
)

var (
	// ErrAborted matches every *AbortError.
	ErrAborted = errors.New("line editing aborted")

	// ErrClosed is returned by ReadLine after Close.
	ErrClosed = errors.New("editor closed")

	// ErrBusy is returned when ReadLine is called while another ReadLine is
	// running, or when Suspend or Close is called during one.
	ErrBusy = errors.New("editor is reading a line")
)

// Reason says why a line was abandoned.
type Reason int

const (
	// ReasonInterrupt is Ctrl+C or an external Abort.
	ReasonInterrupt Reason = iota
	// ReasonEOF is Ctrl+D on an empty line, or the end of input.
	ReasonEOF
)

func (r Reason) String() string {
	switch r {
	case ReasonInterrupt:
		return "interrupt"
	case ReasonEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// AbortError is returned by ReadLine when no line was entered.
type AbortError struct {
	Reason Reason
}

func (e *AbortError) Error() string {
	return "line editing aborted: " + e.Reason.String()
}

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

// IsEOF reports whether err ends input for good.
func IsEOF(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort) && abort.Reason == ReasonEOF
}

// IsInterrupt reports whether err is an interrupted line.
func IsInterrupt(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort) && abort.Reason == ReasonInterrupt
}
