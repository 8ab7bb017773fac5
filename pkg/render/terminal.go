// Package render draws the line editor's region of the terminal. It
// compares the previously drawn screen with the next one and writes only
// the difference, inline in the normal scrollback (no alternate screen).
// Content taller than the terminal scrolls with the terminal's own scroll
// operations so the scrollback stays intact.
package render

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/muesli/cancelreader"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal abstracts terminal I/O so the renderer and editor can be tested
// with a fake terminal.
type Terminal interface {
	// Write sends raw bytes to the terminal.
	io.Writer

	// Input returns the stream of raw input bytes. After CancelInput, the
	// next call returns a fresh stream.
	Input() io.Reader

	// CancelInput unblocks any pending read on the current input stream.
	// It reports whether a read was interrupted.
	CancelInput() bool

	// Size returns the terminal dimensions.
	Size() (cols, rows int)

	// MakeRaw switches the terminal to raw mode and returns a function
	// restoring the previous mode.
	MakeRaw() (restore func() error, err error)

	// Resized delivers a notification whenever the dimensions change.
	Resized() <-chan struct{}

	// IsTerminal reports whether both input and output are terminals.
	IsTerminal() bool

	// Close stops resize notifications and releases the input stream.
	Close() error
}

// ProcessTerminal is a Terminal backed by a pair of files, normally
// os.Stdin and os.Stdout. Dimensions are cached and refreshed on SIGWINCH
// to avoid an ioctl per render.
type ProcessTerminal struct {
	in, out *os.File

	inputMu sync.Mutex
	input   cancelreader.CancelReader

	sigCh   chan os.Signal
	resized chan struct{}
	stop    chan struct{}
	once    sync.Once

	sizeMu sync.RWMutex
	cols   int
	rows   int
}

// NewProcessTerminal returns a Terminal over os.Stdin and os.Stdout.
func NewProcessTerminal() *ProcessTerminal {
	return NewTerminal(os.Stdin, os.Stdout)
}

// NewTerminal returns a Terminal reading in and writing out.
func NewTerminal(in, out *os.File) *ProcessTerminal {
	t := &ProcessTerminal{
		in:      in,
		out:     out,
		sigCh:   make(chan os.Signal, 1),
		resized: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	t.refreshSize()

	signal.Notify(t.sigCh, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-t.sigCh:
				t.refreshSize()
				select {
				case t.resized <- struct{}{}:
				default:
				}
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (t *ProcessTerminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *ProcessTerminal) Input() io.Reader {
	t.inputMu.Lock()
	defer t.inputMu.Unlock()
	if t.input == nil {
		r, err := cancelreader.NewReader(t.in)
		if err != nil {
			// Not cancellable (e.g. a regular file); reads just block.
			return t.in
		}
		t.input = r
	}
	return t.input
}

func (t *ProcessTerminal) CancelInput() bool {
	t.inputMu.Lock()
	defer t.inputMu.Unlock()
	if t.input == nil {
		return false
	}
	ok := t.input.Cancel()
	_ = t.input.Close()
	t.input = nil
	return ok
}

func (t *ProcessTerminal) Size() (int, int) {
	t.sizeMu.RLock()
	c, r := t.cols, t.rows
	t.sizeMu.RUnlock()
	if c == 0 {
		c = 80
	}
	if r == 0 {
		r = 24
	}
	return c, r
}

// refreshSize queries the kernel for current terminal dimensions and
// caches them. Called at construction and on every SIGWINCH.
func (t *ProcessTerminal) refreshSize() {
	ws, err := unix.IoctlGetWinsize(int(t.out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return
	}
	t.sizeMu.Lock()
	if ws.Col > 0 {
		t.cols = int(ws.Col)
	}
	if ws.Row > 0 {
		t.rows = int(ws.Row)
	}
	t.sizeMu.Unlock()
}

func (t *ProcessTerminal) Resized() <-chan struct{} { return t.resized }

func (t *ProcessTerminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd())) && term.IsTerminal(int(t.out.Fd()))
}

func (t *ProcessTerminal) MakeRaw() (func() error, error) {
	fd := int(t.in.Fd())
	orig, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, errors.Wrap(err, "get termios")
	}

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return nil, errors.Wrap(err, "set raw")
	}

	return func() error {
		if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, orig); err != nil {
			return errors.Wrap(err, "restore termios")
		}
		return nil
	}, nil
}

func (t *ProcessTerminal) Close() error {
	t.once.Do(func() {
		signal.Stop(t.sigCh)
		close(t.stop)
		t.CancelInput()
	})
	return nil
}
