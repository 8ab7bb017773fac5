package editor

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/screen"
)

type cookedResult struct {
	line string
	err  error
}

// cookedReader reads whole lines when the input is not a terminal or raw
// mode is disabled. A read abandoned by context cancellation keeps running
// and its line is returned by the next call, so no input is lost.
type cookedReader struct {
	br      *bufio.Reader
	pending chan cookedResult
}

func (e *Editor) readCooked(ctx context.Context, prompt PromptProvider) (string, error) {
	if e.cooked == nil {
		e.cooked = &cookedReader{br: bufio.NewReader(e.term.Input())}
	}
	cr := e.cooked

	if e.term.IsTerminal() {
		text := screen.StyledText(prompt.Prompt().Primary)
		if _, err := io.WriteString(e.term, text); err != nil {
			return "", &render.TerminalIOError{Op: "write", Err: err}
		}
	}

	if cr.pending == nil {
		ch := make(chan cookedResult, 1)
		cr.pending = ch
		go func() {
			line, err := cr.br.ReadString('\n')
			ch <- cookedResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-e.abortCooked:
		return "", &AbortError{Reason: ReasonInterrupt}
	case res := <-cr.pending:
		cr.pending = nil
		line := strings.TrimSuffix(res.line, "\n")
		line = strings.TrimSuffix(line, "\r")
		switch {
		case res.err == nil:
			return line, nil
		case errors.Is(res.err, io.EOF):
			if res.line != "" {
				return line, nil
			}
			return "", &AbortError{Reason: ReasonEOF}
		default:
			return "", &render.TerminalIOError{Op: "read", Err: res.err}
		}
	}
}
