package keys

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout is how long a lone ESC (or any other incomplete prefix)
// waits for more bytes before it is flushed.
const DefaultTimeout = 50 * time.Millisecond

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Timeout is the escape disambiguation timeout. Defaults to
	// DefaultTimeout.
	Timeout time.Duration

	// After starts a timer; tests substitute a manual clock. Defaults to
	// time.After.
	After func(time.Duration) <-chan time.Time

	Logger *slog.Logger
}

type chunk struct {
	data []byte
	err  error
}

// Reader produces one Event per ReadEvent call from a raw byte stream. A
// background goroutine pumps the stream; decoding and timeouts happen on
// the caller's goroutine.
type Reader struct {
	in      io.Reader
	dec     *Decoder
	timeout time.Duration
	after   func(time.Duration) <-chan time.Time
	logger  *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	chunks    chan chunk
	notify    chan Event
	wake      chan struct{}
	stop      chan struct{}

	queue  []Event
	err    error
	errors int
}

// NewReader returns a Reader decoding in.
func NewReader(in io.Reader, opts ReaderOptions) *Reader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reader{
		in:      in,
		dec:     NewDecoder(),
		timeout: opts.Timeout,
		after:   opts.After,
		logger:  opts.Logger,
		chunks:  make(chan chunk, 1),
		notify:  make(chan Event, 8),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (r *Reader) pump() {
	buf := make([]byte, 4096)
	for {
		n, err := r.in.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !r.send(chunk{data: data}) {
				return
			}
		}
		if err != nil {
			r.send(chunk{err: err})
			return
		}
	}
}

func (r *Reader) send(c chunk) bool {
	select {
	case r.chunks <- c:
		return true
	case <-r.stop:
		return false
	}
}

// Close makes ReadEvent return ErrClosed. The pump goroutine exits once
// its pending read returns, so the underlying stream should be cancelled
// or closed too.
func (r *Reader) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Notify injects an event, such as a resize, to be returned by a future
// ReadEvent. Safe to call from any goroutine.
func (r *Reader) Notify(ev Event) {
	select {
	case r.notify <- ev:
	default:
		r.logger.Debug("dropping notification; queue full", "event", ev.String())
	}
}

// Wake makes a blocked ReadEvent return a KindWake event. Multiple wakes
// before the next read collapse into one. Safe to call from any goroutine.
func (r *Reader) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Errors returns the decoder's malformed-input counter.
func (r *Reader) Errors() int { return r.dec.Errors() }

// State returns the decoder state, for diagnostics.
func (r *Reader) State() State { return r.dec.State() }

// ReadEvent blocks until one event is available, the context is done, or
// the input stream fails. Input errors (including io.EOF) are returned
// after any events decoded before them.
func (r *Reader) ReadEvent(ctx context.Context) (Event, error) {
	r.startOnce.Do(func() { go r.pump() })

	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			return ev, nil
		}
		if r.err != nil {
			return Event{}, r.err
		}
		select {
		case <-r.stop:
			return Event{}, ErrClosed
		default:
		}

		var timer <-chan time.Time
		if r.dec.Drain() {
			timer = r.after(r.timeout)
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-r.stop:
			return Event{}, ErrClosed
		case c := <-r.chunks:
			if len(c.data) > 0 {
				r.push(r.dec.Feed(c.data))
			}
			if c.err != nil {
				r.push(r.dec.Flush())
				r.err = c.err
			}
		case <-timer:
			r.push(r.dec.Expire())
		case ev := <-r.notify:
			return ev, nil
		case <-r.wake:
			return Event{Kind: KindWake}, nil
		}
	}
}

func (r *Reader) push(evs []Event) {
	r.queue = append(r.queue, evs...)
	if n := r.dec.Errors(); n != r.errors {
		r.logger.Debug("discarded malformed input", "total", n, "new", n-r.errors)
		r.errors = n
	}
}
