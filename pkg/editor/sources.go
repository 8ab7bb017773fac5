package editor

import (
	"context"

	"github.com/vito/shline/pkg/screen"
)

// Prompt is the pre-rendered prompt for one line: Primary precedes the
// first row of the buffer and Continuation every row after it.
type Prompt struct {
	Primary      []screen.Styled
	Continuation []screen.Styled
}

// PromptProvider supplies the prompt. It is called on the editor's
// goroutine at the start of each line and after RefreshPrompt, so it must
// not block; slow segments belong on a worker (see Editor.Go).
type PromptProvider interface {
	Prompt() Prompt
}

// PromptFunc adapts a function to PromptProvider.
type PromptFunc func() Prompt

func (f PromptFunc) Prompt() Prompt { return f() }

// StaticPrompt returns a provider for fixed prompt strings, which may
// carry SGR sequences.
func StaticPrompt(primary, continuation string) PromptProvider {
	p := Prompt{
		Primary:      screen.ParseStyled(primary),
		Continuation: screen.ParseStyled(continuation),
	}
	return PromptFunc(func() Prompt { return p })
}

// PromptConfig configures one ReadLine call.
type PromptConfig struct {
	Prompt PromptProvider

	// Initial pre-fills the buffer.
	Initial string
}

// Candidate is one completion.
type Candidate struct {
	// Text replaces the completed range.
	Text string
	// Display is shown in the menu; defaults to Text.
	Display string
	// Category labels the candidate, e.g. "command", "dir", "file".
	Category string
}

// Label returns what the menu shows for c.
func (c Candidate) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Text
}

// Completion is a set of candidates for the byte range [Start, End) of the
// line.
type Completion struct {
	Start, End int
	Candidates []Candidate
}

// CompletionSource generates candidates. It runs on a worker and should
// honour ctx.
type CompletionSource interface {
	Complete(ctx context.Context, line string, cursor int) (Completion, error)
}

// HistoryStore offers previous lines by sequence number, 0 being the
// oldest. Add is called from a worker; implementations must be safe for
// concurrent use.
type HistoryStore interface {
	Len() int
	Entry(seq int) (string, bool)
	Add(line string) error
}

// Span styles the byte range [Start, End) of the buffer.
type Span struct {
	Start, End int
	Style      screen.Style
}

// SyntaxClassifier maps buffer text to styled spans. It is called during
// rendering and must be fast; results are cached per text.
type SyntaxClassifier interface {
	Classify(text string) []Span
}

// Suggester proposes a whole line extending the current one, shown as a
// ghost after the cursor. It runs on a worker.
type Suggester interface {
	Suggest(ctx context.Context, line string) (string, bool)
}
