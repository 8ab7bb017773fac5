package vttest

import (
	"bytes"
	"io"
	"sync"

	"github.com/muesli/cancelreader"
)

// Term is a fake terminal: output goes to an Emulator, input comes from
// Type. It satisfies render.Terminal.
type Term struct {
	mu   sync.Mutex
	cond *sync.Cond

	emu        *Emulator
	out        bytes.Buffer
	cols, rows int

	queue  [][]byte
	eof    bool
	stream *stream

	resized     chan struct{}
	interactive bool
	raw         bool
	rawCalls    int
	closed      bool
}

// NewTerm returns an interactive fake terminal of the given size.
func NewTerm(cols, rows int) *Term {
	t := &Term{
		emu:         NewEmulator(cols, rows),
		cols:        cols,
		rows:        rows,
		resized:     make(chan struct{}, 1),
		interactive: true,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SetInteractive controls what IsTerminal reports.
func (t *Term) SetInteractive(v bool) {
	t.mu.Lock()
	t.interactive = v
	t.mu.Unlock()
}

// Type queues input bytes.
func (t *Term) Type(s string) {
	t.mu.Lock()
	t.queue = append(t.queue, []byte(s))
	t.mu.Unlock()
	t.cond.Broadcast()
}

// CloseInput makes reads return io.EOF once queued input is consumed.
func (t *Term) CloseInput() {
	t.mu.Lock()
	t.eof = true
	t.mu.Unlock()
	t.cond.Broadcast()
}

// SetSize changes the dimensions and sends a resize notification.
func (t *Term) SetSize(cols, rows int) {
	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.emu.Resize(cols, rows)
	t.mu.Unlock()
	select {
	case t.resized <- struct{}{}:
	default:
	}
}

func (t *Term) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Write(p)
	t.emu.Feed(string(p))
	return len(p), nil
}

// Output returns everything written so far.
func (t *Term) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.String()
}

// ResetOutput forgets the recorded output; the emulated screen is kept.
func (t *Term) ResetOutput() {
	t.mu.Lock()
	t.out.Reset()
	t.mu.Unlock()
}

// Lines returns the emulated screen rows.
func (t *Term) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.Lines()
}

// Cursor returns the emulated cursor position.
func (t *Term) Cursor() (row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.Cursor()
}

// Bells returns how many times the bell rang.
func (t *Term) Bells() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emu.Bells
}

// Raw reports whether the terminal is in raw mode.
func (t *Term) Raw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// RawCalls returns how many times MakeRaw was called.
func (t *Term) RawCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rawCalls
}

// Closed reports whether Close was called.
func (t *Term) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Term) Input() io.Reader {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stream == nil {
		t.stream = &stream{term: t}
	}
	return t.stream
}

func (t *Term) CancelInput() bool {
	t.mu.Lock()
	s := t.stream
	t.stream = nil
	if s != nil {
		s.canceled = true
	}
	t.mu.Unlock()
	t.cond.Broadcast()
	return s != nil
}

func (t *Term) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

func (t *Term) MakeRaw() (func() error, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = true
	t.rawCalls++
	return func() error {
		t.mu.Lock()
		t.raw = false
		t.mu.Unlock()
		return nil
	}, nil
}

func (t *Term) Resized() <-chan struct{} { return t.resized }

func (t *Term) IsTerminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interactive
}

func (t *Term) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// stream is one input stream; cancelling it leaves queued input for the
// next stream.
type stream struct {
	term     *Term
	canceled bool
	buf      []byte
}

func (s *stream) Read(p []byte) (int, error) {
	t := s.term
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(s.buf) == 0 {
		if s.canceled {
			return 0, cancelreader.ErrCanceled
		}
		if len(t.queue) > 0 {
			s.buf = t.queue[0]
			t.queue = t.queue[1:]
			break
		}
		if t.eof {
			return 0, io.EOF
		}
		t.cond.Wait()
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}
