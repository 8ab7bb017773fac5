// Package editor is the line editor's coordinator. It owns the terminal
// while a line is being read, turns input events into buffer edits, and
// redraws the edit region after every event.
//
// All editing state lives on the goroutine calling ReadLine. Other
// goroutines talk to the editor through Dispatch, Abort and Go; their
// requests are queued in a mailbox and applied between input events, so
// none of the editing state needs a lock.
package editor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"

	"github.com/vito/shline/pkg/keys"
	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/termcap"
	"github.com/vito/shline/pkg/textbuf"
)

// State is the editor's lifecycle stage.
type State int

const (
	// StateUninitialized has not yet touched the terminal.
	StateUninitialized State = iota
	// StateActive holds the terminal in raw mode with input decoding
	// running.
	StateActive
	// StateSuspended has handed the terminal back, e.g. to run a command.
	StateSuspended
	// StateTerminated is final.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Option configures the collaborators of an Editor.
type Option func(*Editor)

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithHistory sets the history offered by Up and Down. Accepted lines are
// added to it.
func WithHistory(h HistoryStore) Option {
	return func(e *Editor) { e.history = h }
}

// WithCompletion sets the source consulted by Tab.
func WithCompletion(c CompletionSource) Option {
	return func(e *Editor) { e.completer = c }
}

// WithClassifier sets the syntax classifier used to style the buffer.
func WithClassifier(c SyntaxClassifier) Option {
	return func(e *Editor) { e.classifier = c }
}

// WithSuggester sets the source of ghost-text suggestions.
func WithSuggester(s Suggester) Option {
	return func(e *Editor) { e.suggester = s }
}

// Editor reads lines from a terminal. Create one with New and reuse it for
// every line.
type Editor struct {
	term   render.Terminal
	cfg    Config
	logger *slog.Logger
	keymap Keymap
	caps   termcap.Caps
	width  screen.WidthFunc

	history    HistoryStore
	completer  CompletionSource
	classifier SyntaxClassifier
	suggester  Suggester

	workers *workers

	// reading is held by ReadLine, Suspend and Close.
	reading  atomic.Bool
	abortReq atomic.Bool

	mu         sync.Mutex
	state      State
	mailbox    []func()
	reader     *keys.Reader
	stopResize chan struct{}

	guard    *render.RawGuard
	renderer *render.Renderer

	cooked      *cookedReader
	abortCooked chan struct{}

	// stats and decodeBase are guarded by mu. decodeBase carries the
	// decode errors of readers dropped by suspend.
	stats      Stats
	decodeBase int

	line lineState
}

// Stats is a snapshot of the editor's counters.
type Stats struct {
	// Lines is how many lines ReadLine has returned.
	Lines int
	// Renders counts render passes.
	Renders int
	// FullRedraws counts passes that repainted the whole region.
	FullRedraws int
	// DecodeErrors counts malformed or discarded input sequences.
	DecodeErrors int
	// LastRender describes the most recent pass.
	LastRender render.RenderStats
}

// New returns an editor for term. Capabilities are detected once, here.
func New(term render.Terminal, cfg Config, opts ...Option) (*Editor, error) {
	cfg = cfg.withDefaults()
	if cfg.Env == nil {
		cfg.Env = os.Environ()
	}

	e := &Editor{
		term:        term,
		cfg:         cfg,
		logger:      slog.Default(),
		keymap:      DefaultKeymap(),
		abortCooked: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	for chord, action := range cfg.Bindings {
		if err := e.keymap.Bind(chord, action); err != nil {
			return nil, err
		}
	}

	e.caps = termcap.Detect(term, cfg.Env, term.IsTerminal()).With(cfg.Caps)
	e.width = screen.ClusterWidth(e.caps.AmbiguousWide)
	e.workers = newWorkers(cfg.Workers, e.logger)
	e.line = newLineState(textbuf.New(textbuf.Options{
		TabWidth:       cfg.TabWidth,
		CoalesceWindow: cfg.CoalesceWindow,
		Width:          e.width,
	}), cfg.KillRingSize)

	e.logger.Debug("terminal capabilities",
		"term", e.caps.Term,
		"profile", e.caps.Profile.String(),
		"utf8", e.caps.UTF8,
		"interactive", e.caps.Interactive)
	return e, nil
}

// Caps returns the capabilities detected by New.
func (e *Editor) Caps() termcap.Caps { return e.caps }

// State returns the lifecycle stage.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stats returns the current counters. Safe to call from any goroutine.
func (e *Editor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// recordRender snapshots the renderer and decoder after a pass. It runs on
// the goroutine that owns both.
func (e *Editor) recordRender() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Renders++
	e.stats.LastRender = e.renderer.Stats()
	e.stats.FullRedraws = e.renderer.FullRedraws()
	if e.reader != nil {
		e.stats.DecodeErrors = e.decodeBase + e.reader.Errors()
	}
}

func (e *Editor) setState(s State) {
	e.mu.Lock()
	e.logger.Debug("editor state", "from", e.state.String(), "to", s.String())
	e.state = s
	e.mu.Unlock()
}

// ReadLine reads one line. It returns the line without its terminating
// Enter, or an error matching ErrAborted when the line was interrupted or
// input ended. When ctx is cancelled the line is abandoned and ctx.Err()
// returned.
//
// Only one ReadLine may run at a time; a concurrent call fails with
// ErrBusy.
func (e *Editor) ReadLine(ctx context.Context, pc PromptConfig) (string, error) {
	if !e.reading.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer e.reading.Store(false)
	e.abortReq.Store(false)

	state := e.State()
	if state == StateTerminated {
		return "", ErrClosed
	}

	prompt := pc.Prompt
	if prompt == nil {
		prompt = StaticPrompt("", "")
	}

	if e.cfg.DisableRaw || !e.term.IsTerminal() {
		select {
		case <-e.abortCooked:
		default:
		}
		line, err := e.readCooked(ctx, prompt)
		if err == nil {
			e.mu.Lock()
			e.stats.Lines++
			e.mu.Unlock()
		}
		return line, err
	}

	if state != StateActive {
		if err := e.activate(); err != nil {
			return "", err
		}
	}

	e.line.provider = prompt
	e.line.prompt = prompt.Prompt()
	if pc.Initial != "" {
		if err := e.line.buf.SetText(pc.Initial); err != nil {
			return "", errors.Wrap(err, "initial text")
		}
		e.line.buf.ResetHistory()
	}
	e.requestSuggestion()
	return e.edit(ctx)
}

// activate takes the terminal: raw mode, input modes, the input reader
// and resize notifications.
func (e *Editor) activate() error {
	guard, err := render.AcquireRaw(e.term)
	if err != nil {
		return &render.TerminalIOError{Op: "raw mode", Err: err}
	}
	e.guard = guard

	cols, rows := e.term.Size()
	if e.renderer == nil {
		e.renderer = render.NewRenderer(e.term, cols, rows, render.Options{
			Caps:             e.caps,
			FullRowThreshold: e.cfg.FullRowThreshold,
			StatsWriter:      e.cfg.StatsWriter,
			Logger:           e.logger,
		})
	} else {
		e.renderer.Resize(cols, rows)
	}

	if err := e.writeModes(true); err != nil {
		_ = guard.Release()
		e.guard = nil
		return err
	}

	reader := keys.NewReader(e.term.Input(), keys.ReaderOptions{
		Timeout: e.cfg.EscapeTimeout,
		Logger:  e.logger,
	})
	stop := make(chan struct{})

	e.mu.Lock()
	e.reader = reader
	e.stopResize = stop
	e.mu.Unlock()
	e.setState(StateActive)

	go e.watchResize(reader, stop)
	return nil
}

func (e *Editor) watchResize(r *keys.Reader, stop <-chan struct{}) {
	resized := e.term.Resized()
	for {
		select {
		case <-stop:
			return
		case _, ok := <-resized:
			if !ok {
				return
			}
			cols, rows := e.term.Size()
			r.Notify(keys.ResizeEvent(cols, rows))
		}
	}
}

// writeModes enables or disables the terminal input modes the editor
// relies on.
func (e *Editor) writeModes(on bool) error {
	var sb strings.Builder
	if e.caps.BracketedPaste {
		if on {
			sb.WriteString(ansi.SetModeBracketedPaste)
		} else {
			sb.WriteString(ansi.ResetModeBracketedPaste)
		}
	}
	if e.caps.Mouse && e.cfg.Mouse {
		if on {
			sb.WriteString(ansi.SetModeMouseNormal + ansi.SetModeMouseExtSgr)
		} else {
			sb.WriteString(ansi.ResetModeMouseExtSgr + ansi.ResetModeMouseNormal)
		}
	}
	if e.caps.KittyKeyboard {
		if on {
			sb.WriteString(ansi.PushKittyKeyboard(ansi.KittyDisambiguateEscapeCodes))
		} else {
			sb.WriteString(ansi.PopKittyKeyboard(1))
		}
	}
	if sb.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(e.term, sb.String()); err != nil {
		return &render.TerminalIOError{Op: "write", Err: err}
	}
	return nil
}

// Suspend hands the terminal back in cooked mode, e.g. before running a
// command. The next ReadLine or Resume takes it again.
func (e *Editor) Suspend() error {
	if !e.reading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.reading.Store(false)

	switch e.State() {
	case StateActive:
		return e.suspend()
	case StateTerminated:
		return ErrClosed
	default:
		return nil
	}
}

func (e *Editor) suspend() error {
	e.mu.Lock()
	reader, stop := e.reader, e.stopResize
	e.reader, e.stopResize = nil, nil
	if reader != nil {
		e.decodeBase += reader.Errors()
		e.stats.DecodeErrors = e.decodeBase
	}
	e.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if reader != nil {
		reader.Close()
	}
	e.term.CancelInput()

	var errs []error
	if err := e.writeModes(false); err != nil {
		errs = append(errs, err)
	}
	if e.renderer != nil {
		if err := e.renderer.Finish(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.guard.Release(); err != nil {
		errs = append(errs, &render.TerminalIOError{Op: "restore mode", Err: err})
	}
	e.guard = nil
	e.setState(StateSuspended)

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Resume takes the terminal back after Suspend without waiting for the
// next ReadLine.
func (e *Editor) Resume() error {
	if !e.reading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.reading.Store(false)

	switch e.State() {
	case StateActive:
		return nil
	case StateTerminated:
		return ErrClosed
	default:
		return e.activate()
	}
}

// Close restores the terminal and stops background work. The terminal
// itself is left open for its owner to close.
func (e *Editor) Close() error {
	if !e.reading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.reading.Store(false)

	var err error
	switch e.State() {
	case StateTerminated:
		return nil
	case StateActive:
		err = e.suspend()
	}
	e.workers.Close()
	e.setState(StateTerminated)

	e.mu.Lock()
	e.mailbox = nil
	e.mu.Unlock()
	return err
}

// Dispatch queues fn to run on the editor's goroutine before the next
// redraw. It is how background work publishes results. Safe to call from
// any goroutine; fn is dropped if the editor is closed.
func (e *Editor) Dispatch(fn func()) {
	e.mu.Lock()
	if e.state == StateTerminated {
		e.mu.Unlock()
		return
	}
	e.mailbox = append(e.mailbox, fn)
	reader := e.reader
	e.mu.Unlock()
	if reader != nil {
		reader.Wake()
	}
}

// Go runs job on the editor's worker pool. The job's context is cancelled
// when the current line is interrupted or the editor closes. Results must
// be published with Dispatch.
func (e *Editor) Go(job Job) {
	e.workers.Go(job)
}

// Abort interrupts the ReadLine in progress as if Ctrl+C had been pressed,
// and cancels background jobs. Safe to call from any goroutine, e.g. a
// signal handler.
func (e *Editor) Abort() {
	e.workers.Cancel()
	if !e.reading.Load() {
		return
	}
	e.abortReq.Store(true)
	select {
	case e.abortCooked <- struct{}{}:
	default:
	}
	e.mu.Lock()
	reader := e.reader
	e.mu.Unlock()
	if reader != nil {
		reader.Wake()
	}
}

// RefreshPrompt asks the prompt provider for a new prompt and redraws.
// Safe to call from any goroutine.
func (e *Editor) RefreshPrompt() {
	e.Dispatch(func() {
		if e.line.provider != nil {
			e.line.prompt = e.line.provider.Prompt()
		}
	})
}

func (e *Editor) drainMailbox() {
	for {
		e.mu.Lock()
		box := e.mailbox
		e.mailbox = nil
		e.mu.Unlock()
		if len(box) == 0 {
			return
		}
		for _, fn := range box {
			fn()
		}
	}
}

// edit runs the event loop until the line is finished.
func (e *Editor) edit(ctx context.Context) (string, error) {
	reader := e.currentReader()
	for {
		e.drainMailbox()
		if e.abortReq.Swap(false) {
			e.interrupt()
		}
		if e.line.done != nil {
			return e.finish()
		}
		if err := e.draw(); err != nil {
			return "", e.fail(err)
		}

		ev, err := reader.ReadEvent(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				e.line.done = &outcome{err: ctx.Err()}
			case errors.Is(err, io.EOF):
				e.line.done = &outcome{err: &AbortError{Reason: ReasonEOF}}
			default:
				return "", e.fail(&render.TerminalIOError{Op: "read", Err: err})
			}
			continue
		}
		e.handle(ev)
	}
}

func (e *Editor) currentReader() *keys.Reader {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reader
}

// draw renders the current state and rings the bell if an operation was
// rejected since the last pass.
func (e *Editor) draw() error {
	e.renderer.Resize(e.term.Size())
	if err := e.renderer.Render(e.paint(paintLive)); err != nil {
		return err
	}
	e.recordRender()
	if e.line.bell {
		e.line.bell = false
		if _, err := e.term.Write([]byte{ansi.BEL}); err != nil {
			return &render.TerminalIOError{Op: "write", Err: err}
		}
	}
	return nil
}

// finish draws the line one last time, without transient decorations,
// and leaves the cursor below it.
func (e *Editor) finish() (string, error) {
	out := e.line.done
	mode := paintFinal
	if IsInterrupt(out.err) {
		mode = paintInterrupted
	}
	if err := e.renderer.Render(e.paint(mode)); err != nil {
		return "", e.fail(err)
	}
	if err := e.renderer.Finish(); err != nil {
		return "", e.fail(err)
	}
	e.recordRender()
	if out.err == nil {
		e.mu.Lock()
		e.stats.Lines++
		e.mu.Unlock()
	}

	if out.err == nil && e.history != nil && strings.TrimSpace(out.line) != "" {
		line := out.line
		e.Go(func(context.Context) error {
			return e.history.Add(line)
		})
	}
	e.line.reset()
	return out.line, out.err
}

// fail abandons the line and the terminal after an I/O error.
func (e *Editor) fail(err error) error {
	e.logger.Debug("terminal failed", "err", err)
	e.renderer.Abandon()
	e.line.reset()
	if serr := e.suspend(); serr != nil {
		e.logger.Debug("suspend after failure", "err", serr)
	}
	return err
}

// interrupt ends the line the way Ctrl+C does.
func (e *Editor) interrupt() {
	e.workers.Cancel()
	e.line.done = &outcome{err: &AbortError{Reason: ReasonInterrupt}}
}
