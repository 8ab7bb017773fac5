package editor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/render/vttest"
	"github.com/vito/shline/pkg/screen"
)

var testEnv = []string{"TERM=xterm-256color", "LANG=en_US.UTF-8"}

func newTestEditor(t *testing.T, cfg Config, opts ...Option) (*Editor, *vttest.Term) {
	t.Helper()
	term := vttest.NewTerm(40, 10)
	ed := newEditorOn(t, term, cfg, opts...)
	return ed, term
}

func newEditorOn(t *testing.T, term render.Terminal, cfg Config, opts ...Option) *Editor {
	t.Helper()
	cfg.Env = testEnv
	if cfg.EscapeTimeout == 0 {
		cfg.EscapeTimeout = 10 * time.Millisecond
	}
	ed, err := New(term, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ed.Abort()
		_ = ed.Close()
	})
	return ed
}

type result struct {
	line string
	err  error
}

func readAsync(ed *Editor, prompt PromptProvider) <-chan result {
	ch := make(chan result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		line, err := ed.ReadLine(ctx, PromptConfig{Prompt: prompt})
		ch <- result{line: line, err: err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("ReadLine did not return")
		return result{}
	}
}

func readLine(t *testing.T, ed *Editor, term *vttest.Term, input string) result {
	t.Helper()
	term.Type(input)
	return await(t, readAsync(ed, StaticPrompt("$ ", "> ")))
}

func waitForLine(t *testing.T, term *vttest.Term, row int, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return term.Lines()[row] == want
	}, 5*time.Second, time.Millisecond, "row %d never became %q; screen: %q", row, want, term.Lines())
}

func screenContains(term *vttest.Term, s string) bool {
	for _, l := range term.Lines() {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

type memHistory struct {
	mu      sync.Mutex
	entries []string
}

func (h *memHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *memHistory) Entry(seq int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seq < 0 || seq >= len(h.entries) {
		return "", false
	}
	return h.entries[seq], true
}

func (h *memHistory) Add(line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, line)
	return nil
}

type staticCompleter []Candidate

func (s staticCompleter) Complete(_ context.Context, line string, cursor int) (Completion, error) {
	start := strings.LastIndexByte(line[:cursor], ' ') + 1
	var comp Completion
	comp.Start, comp.End = start, cursor
	for _, c := range s {
		if strings.HasPrefix(c.Text, line[start:cursor]) {
			comp.Candidates = append(comp.Candidates, c)
		}
	}
	return comp, nil
}

type prefixSuggester []string

func (p prefixSuggester) Suggest(_ context.Context, line string) (string, bool) {
	for _, s := range p {
		if strings.HasPrefix(s, line) {
			return s, true
		}
	}
	return "", false
}

func TestReadLine(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "echo hi\r")
	require.NoError(t, res.err)
	assert.Equal(t, "echo hi", res.line)

	assert.Equal(t, "$ echo hi", term.Lines()[0])
	row, col := term.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 0, col)

	// Raw mode is kept between lines so type-ahead is not echoed.
	assert.True(t, term.Raw())
	assert.Equal(t, StateActive, ed.State())
}

func TestStatsCountDecodeErrors(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "\x1b]0;title\x07ls\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ls", res.line)

	st := ed.Stats()
	assert.Equal(t, 1, st.Lines)
	assert.Equal(t, 1, st.DecodeErrors)
	assert.Positive(t, st.Renders)
	assert.Positive(t, st.LastRender.BytesWritten)

	require.NoError(t, ed.Suspend())
	assert.Equal(t, 1, ed.Stats().DecodeErrors)
}

func TestEditInsideLine(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "héllo\x1b[D\x1b[DX\r")
	require.NoError(t, res.err)
	assert.Equal(t, "hélXlo", res.line)
}

func TestTypeAheadSurvivesBetweenLines(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	term.Type("one\rtwo\r")
	res := await(t, readAsync(ed, StaticPrompt("$ ", "> ")))
	require.NoError(t, res.err)
	assert.Equal(t, "one", res.line)

	res = await(t, readAsync(ed, StaticPrompt("$ ", "> ")))
	require.NoError(t, res.err)
	assert.Equal(t, "two", res.line)
}

func TestInitialText(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	term.Type("!\r")
	ch := make(chan result, 1)
	go func() {
		line, err := ed.ReadLine(context.Background(), PromptConfig{
			Prompt:  StaticPrompt("$ ", "> "),
			Initial: "hello",
		})
		ch <- result{line, err}
	}()
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "hello!", res.line)
}

func TestKillAndYank(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	// Ctrl+W kills the previous word; Ctrl+A, Ctrl+Y yanks it at the start.
	res := readLine(t, ed, term, "foo bar baz\x17\x01\x19\r")
	require.NoError(t, res.err)
	assert.Equal(t, "bazfoo bar ", res.line)
}

func TestConsecutiveKillsMerge(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "a b\x17\x17\x19\r")
	require.NoError(t, res.err)
	assert.Equal(t, "a b", res.line)
}

func TestKillLineBothWays(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	// Ctrl+K from the middle, then Ctrl+U from the end of what is left.
	res := readLine(t, ed, term, "hello world\x01\x1bf\x0b\x15x\r")
	require.NoError(t, res.err)
	assert.Equal(t, "x", res.line)
}

func TestYankPop(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	// Two separate kills, then yank the newest and rotate to the older.
	res := readLine(t, ed, term, "one\x17two\x17\x19\x1by\r")
	require.NoError(t, res.err)
	assert.Equal(t, "one", res.line)
}

func TestYankPopBeforeCombiningMark(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	// The yanked "cd" fuses with the combining mark after it; yank-pop
	// still swaps it for "ab" and keeps the mark.
	res := readLine(t, ed, term, "ab\x17cd\x17\u0301\x01\x19\x1by\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ab\u0301", res.line)
	assert.Zero(t, term.Bells())
}

func TestYankPopRequiresYank(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "ab\x1by\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ab", res.line)
	assert.Equal(t, 1, term.Bells())
}

func TestRegionKillAndCopy(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	// Mark at 0, move forward a word, Alt+W copies "one", End, Ctrl+Y.
	res := readLine(t, ed, term, "one two\x01\x00\x1bf\x1bw\x05 \x19\r")
	require.NoError(t, res.err)
	assert.Equal(t, "one two one", res.line)

	// Mark, move, Ctrl+W kills just the region.
	res = readLine(t, ed, term, "one two\x00\x1bb\x17\r")
	require.NoError(t, res.err)
	assert.Equal(t, "one ", res.line)
}

func TestUndoRedo(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "abc\x1f\r")
	require.NoError(t, res.err)
	assert.Equal(t, "", res.line)

	res = readLine(t, ed, term, "abc\x1f\x1b/\r")
	require.NoError(t, res.err)
	assert.Equal(t, "abc", res.line)
}

func TestTranspose(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "ab\x14\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ba", res.line)
}

func TestTabWithoutCompleterInserts(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "a\tb\r")
	require.NoError(t, res.err)
	assert.Equal(t, "a\tb", res.line)
}

func TestInterrupt(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "partial\x03")
	assert.True(t, IsInterrupt(res.err))
	assert.ErrorIs(t, res.err, ErrAborted)
	assert.Empty(t, res.line)
	assert.Equal(t, "$ partial^C", term.Lines()[0])

	// The buffer and undo log start clean.
	res = readLine(t, ed, term, "\x1fok\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ok", res.line)
	assert.Equal(t, "$ ok", term.Lines()[1])
}

func TestCtrlDOnEmptyLineIsEOF(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "\x04")
	assert.True(t, IsEOF(res.err))
	assert.False(t, IsInterrupt(res.err))
}

func TestCtrlDDeletesForward(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "abc\x01\x04\x04\r")
	require.NoError(t, res.err)
	assert.Equal(t, "c", res.line)

	res = readLine(t, ed, term, "ab\x04\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ab", res.line)
	assert.Equal(t, 1, term.Bells())
}

func TestInputEOF(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	term.CloseInput()
	res := await(t, readAsync(ed, StaticPrompt("$ ", "> ")))
	assert.True(t, IsEOF(res.err))
}

func TestMultiline(t *testing.T) {
	ed, term := newTestEditor(t, Config{
		IsComplete: func(line string) bool {
			return !strings.HasSuffix(line, "\\")
		},
	})

	res := readLine(t, ed, term, "echo \\\rnext\r")
	require.NoError(t, res.err)
	assert.Equal(t, "echo \\\nnext", res.line)
	assert.Equal(t, []string{"$ echo \\", "> next"}, term.Lines()[:2])
}

func TestExplicitNewline(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "a\x1b\rb\nc\r")
	require.NoError(t, res.err)
	assert.Equal(t, "a\nb\nc", res.line)
}

func TestUpMovesWithinBufferBeforeHistory(t *testing.T) {
	hist := &memHistory{entries: []string{"old"}}
	ed, term := newTestEditor(t, Config{}, WithHistory(hist))

	// Up moves to the first row, then Up again recalls history.
	res := readLine(t, ed, term, "ab\ncd\x1b[AX\r")
	require.NoError(t, res.err)
	assert.Equal(t, "abX\ncd", res.line)
}

func TestHistoryNavigation(t *testing.T) {
	hist := &memHistory{entries: []string{"first", "second"}}
	ed, term := newTestEditor(t, Config{}, WithHistory(hist))

	res := readLine(t, ed, term, "\x1b[A\r")
	require.NoError(t, res.err)
	assert.Equal(t, "second", res.line)
	require.Eventually(t, func() bool { return hist.Len() == 3 }, 5*time.Second, time.Millisecond)

	res = readLine(t, ed, term, "\x1b[A\x1b[A\x1b[A\x1b[B\r")
	require.NoError(t, res.err)
	assert.Equal(t, "second", res.line)
	require.Eventually(t, func() bool { return hist.Len() == 4 }, 5*time.Second, time.Millisecond)

	// Down past the newest entry restores the draft.
	res = readLine(t, ed, term, "dr\x10\x0e\r")
	require.NoError(t, res.err)
	assert.Equal(t, "dr", res.line)
}

func TestHistoryIgnoresBlankLines(t *testing.T) {
	hist := &memHistory{}
	ed, term := newTestEditor(t, Config{}, WithHistory(hist))

	res := readLine(t, ed, term, "  \r")
	require.NoError(t, res.err)
	res = readLine(t, ed, term, "x\r")
	require.NoError(t, res.err)

	require.Eventually(t, func() bool { return hist.Len() == 1 }, 5*time.Second, time.Millisecond)
	entry, _ := hist.Entry(0)
	assert.Equal(t, "x", entry)
}

func TestSingleCompletion(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithCompletion(staticCompleter{
		{Text: "echo"},
		{Text: "exit"},
	}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("ec\t")
	waitForLine(t, term, 0, "$ echo")
	term.Type("\r")

	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "echo", res.line)
}

func TestCompletionMenu(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithCompletion(staticCompleter{
		{Text: "git-add"},
		{Text: "git-am"},
		{Text: "grep"},
	}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("gi\t")
	waitForLine(t, term, 0, "$ git-a")
	require.Eventually(t, func() bool {
		return screenContains(term, "git-add") && screenContains(term, "git-am")
	}, 5*time.Second, time.Millisecond)

	// Tab moves to the second candidate, Enter picks it, Enter accepts.
	term.Type("\t\r\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "git-am", res.line)
	assert.False(t, screenContains(term, "git-add"), "menu left behind: %q", term.Lines())
}

func TestCompletionMenuClosesOnOtherKeys(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithCompletion(staticCompleter{
		{Text: "git-add"},
		{Text: "git-am"},
	}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("g\t")
	require.Eventually(t, func() bool {
		return screenContains(term, "git-am")
	}, 5*time.Second, time.Millisecond)

	term.Type("x\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "git-ax", res.line)
}

func TestNoCandidatesRingsBell(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithCompletion(staticCompleter{{Text: "echo"}}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("zz\t")
	require.Eventually(t, func() bool { return term.Bells() == 1 }, 5*time.Second, time.Millisecond)
	term.Type("\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "zz", res.line)
}

func TestSuggestion(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithSuggester(prefixSuggester{"echo hello"}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("ec")
	waitForLine(t, term, 0, "$ echo hello")

	term.Type("\x1b[C\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "echo hello", res.line)
}

func TestSuggestionNotKeptOnAccept(t *testing.T) {
	ed, term := newTestEditor(t, Config{}, WithSuggester(prefixSuggester{"echo hello"}))

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("ec")
	waitForLine(t, term, 0, "$ echo hello")

	term.Type("\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "ec", res.line)
	assert.Equal(t, "$ ec", term.Lines()[0])
}

func TestBracketedPaste(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "\x1b[200~one\r\ntwo\x1b[201~\r")
	require.NoError(t, res.err)
	assert.Equal(t, "one\ntwo", res.line)
	assert.Contains(t, term.Output(), "\x1b[?2004h")
}

func TestAbortFromAnotherGoroutine(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("part")
	waitForLine(t, term, 0, "$ part")

	ed.Abort()
	res := await(t, ch)
	assert.True(t, IsInterrupt(res.err))
	assert.Equal(t, "$ part^C", term.Lines()[0])
}

func TestContextCancel(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan result, 1)
	go func() {
		line, err := ed.ReadLine(ctx, PromptConfig{Prompt: StaticPrompt("$ ", "> ")})
		ch <- result{line, err}
	}()
	waitForLine(t, term, 0, "$")
	cancel()

	res := await(t, ch)
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, StateActive, ed.State())
}

func TestDispatchAndRefreshPrompt(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	var mu sync.Mutex
	prompt := "a$ "
	provider := PromptFunc(func() Prompt {
		mu.Lock()
		defer mu.Unlock()
		return Prompt{Primary: []screen.Styled{screen.Plain(prompt)}}
	})

	ch := readAsync(ed, provider)
	waitForLine(t, term, 0, "a$")

	mu.Lock()
	prompt = "b$ "
	mu.Unlock()
	ed.RefreshPrompt()
	waitForLine(t, term, 0, "b$")

	ran := make(chan struct{})
	ed.Dispatch(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatched function never ran")
	}

	term.Type("\r")
	res := await(t, ch)
	require.NoError(t, res.err)
}

func TestAbortCancelsBackgroundJobs(t *testing.T) {
	ed, _ := newTestEditor(t, Config{})

	started := make(chan struct{})
	cancelled := make(chan struct{})
	ed.Go(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	<-started
	ed.Abort()

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not cancelled")
	}

	// Jobs started after the abort get a fresh context.
	done := make(chan error, 1)
	ed.Go(func(ctx context.Context) error {
		done <- ctx.Err()
		return nil
	})
	assert.NoError(t, <-done)
}

func TestSuspendResume(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "a\r")
	require.NoError(t, res.err)

	require.NoError(t, ed.Suspend())
	assert.False(t, term.Raw())
	assert.Equal(t, StateSuspended, ed.State())
	assert.Contains(t, term.Output(), "\x1b[?2004l")

	// Input typed while suspended is read once the editor takes over.
	res = readLine(t, ed, term, "b\r")
	require.NoError(t, res.err)
	assert.Equal(t, "b", res.line)
	assert.True(t, term.Raw())
	assert.Equal(t, 2, term.RawCalls())

	require.NoError(t, ed.Suspend())
	require.NoError(t, ed.Resume())
	assert.True(t, term.Raw())
	assert.Equal(t, StateActive, ed.State())
	assert.NoError(t, ed.Resume())
	assert.Equal(t, 3, term.RawCalls())
}

func TestClose(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	res := readLine(t, ed, term, "a\r")
	require.NoError(t, res.err)

	require.NoError(t, ed.Close())
	assert.Equal(t, StateTerminated, ed.State())
	assert.False(t, term.Raw())
	assert.False(t, term.Closed())

	_, err := ed.ReadLine(context.Background(), PromptConfig{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, ed.Resume(), ErrClosed)
	assert.NoError(t, ed.Close())
}

func TestBusy(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	waitForLine(t, term, 0, "$")

	_, err := ed.ReadLine(context.Background(), PromptConfig{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, ed.Suspend(), ErrBusy)
	assert.ErrorIs(t, ed.Close(), ErrBusy)

	ed.Abort()
	res := await(t, ch)
	assert.True(t, IsInterrupt(res.err))
}

func TestNonInteractive(t *testing.T) {
	ed, term := newTestEditor(t, Config{})
	term.SetInteractive(false)
	term.Type("one\r\ntwo")
	term.CloseInput()

	for _, want := range []string{"one", "two"} {
		line, err := ed.ReadLine(context.Background(), PromptConfig{Prompt: StaticPrompt("$ ", "> ")})
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := ed.ReadLine(context.Background(), PromptConfig{})
	assert.True(t, IsEOF(err))

	assert.Empty(t, term.Output())
	assert.Zero(t, term.RawCalls())
	assert.Equal(t, StateUninitialized, ed.State())
}

func TestDisableRawPrintsPrompt(t *testing.T) {
	ed, term := newTestEditor(t, Config{DisableRaw: true})
	term.Type("ls\n")

	line, err := ed.ReadLine(context.Background(), PromptConfig{Prompt: StaticPrompt("\x1b[1m$\x1b[0m ", "> ")})
	require.NoError(t, err)
	assert.Equal(t, "ls", line)
	assert.Equal(t, "$ ", term.Output())
	assert.Zero(t, term.RawCalls())
}

func TestResizeRedraws(t *testing.T) {
	ed, term := newTestEditor(t, Config{})

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("hello")
	waitForLine(t, term, 0, "$ hello")

	term.ResetOutput()
	term.SetSize(20, 5)
	require.Eventually(t, func() bool {
		return strings.Contains(term.Output(), "hello")
	}, 5*time.Second, time.Millisecond)

	term.Type("\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "hello", res.line)
}

func TestMouseClickMovesCursor(t *testing.T) {
	ed, term := newTestEditor(t, Config{Mouse: true})

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	// Ctrl+L puts the region at the top of the screen, so clicks map.
	term.Type("hello\x0c")
	waitForLine(t, term, 0, "$ hello")
	assert.Contains(t, term.Output(), "\x1b[?1000h")

	term.Type("\x1b[<0;3;1M\x1b[<0;3;1mX\r")
	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "Xhello", res.line)
}

func TestUnboundKeyRingsBell(t *testing.T) {
	ed, term := newTestEditor(t, Config{Bindings: map[string]string{"ctrl+t": "none"}})

	res := readLine(t, ed, term, "ab\x14\r")
	require.NoError(t, res.err)
	assert.Equal(t, "ab", res.line)
	assert.Equal(t, 1, term.Bells())
}

func TestCustomBinding(t *testing.T) {
	ed, term := newTestEditor(t, Config{Bindings: map[string]string{"ctrl+o": "accept-line"}})

	res := readLine(t, ed, term, "ok\x0f")
	require.NoError(t, res.err)
	assert.Equal(t, "ok", res.line)
}

func TestBadBinding(t *testing.T) {
	_, err := New(vttest.NewTerm(40, 10), Config{
		Env:      testEnv,
		Bindings: map[string]string{"ctrl+o": "launch-rockets"},
	})
	assert.Error(t, err)
}

// failingTerm stops accepting output once broken is set.
type failingTerm struct {
	*vttest.Term
	broken atomic.Bool
}

func (f *failingTerm) Write(p []byte) (int, error) {
	if f.broken.Load() {
		return 0, errors.New("broken pipe")
	}
	return f.Term.Write(p)
}

func TestTerminalWriteFailureEndsLine(t *testing.T) {
	term := &failingTerm{Term: vttest.NewTerm(40, 10)}
	ed := newEditorOn(t, term, Config{})

	ch := readAsync(ed, StaticPrompt("$ ", "> "))
	term.Type("a")
	waitForLine(t, term.Term, 0, "$ a")

	term.broken.Store(true)
	term.Type("b")
	res := await(t, ch)
	assert.ErrorIs(t, res.err, render.ErrTerminalIO)
	assert.Equal(t, StateSuspended, ed.State())
	assert.False(t, term.Raw())

	// A working terminal can be used again.
	term.broken.Store(false)
	res = readLine(t, ed, term.Term, "\r")
	require.NoError(t, res.err)
	assert.Equal(t, "", res.line)
}
