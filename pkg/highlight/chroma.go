// Package highlight classifies shell input into styled spans with Chroma.
package highlight

import (
	"image/color"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/vito/shline/pkg/editor"
	"github.com/vito/shline/pkg/screen"
)

// DefaultStyle is the Chroma style used when none is named.
const DefaultStyle = "monokai"

// Chroma is an editor.SyntaxClassifier backed by a Chroma lexer.
type Chroma struct {
	lexer chroma.Lexer
	style *chroma.Style
	base  chroma.Colour
}

// New returns a classifier for the named lexer and style. Unknown names
// fall back to the bash lexer and DefaultStyle.
func New(lexer, style string) *Chroma {
	l := lexers.Get(lexer)
	if l == nil {
		l = lexers.Get("bash")
	}
	if l == nil {
		l = lexers.Fallback
	}
	if style == "" {
		style = DefaultStyle
	}
	st := styles.Get(style)
	return &Chroma{
		lexer: chroma.Coalesce(l),
		style: st,
		base:  st.Get(chroma.Text).Colour,
	}
}

// Classify returns a span per token with a distinct style. Offsets are
// bytes into text.
func (c *Chroma) Classify(text string) []editor.Span {
	if text == "" {
		return nil
	}
	it, err := c.lexer.Tokenise(nil, text)
	if err != nil {
		return nil
	}

	var spans []editor.Span
	pos := 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		start := pos
		pos += len(tok.Value)
		if start >= len(text) {
			// Lexers may append a trailing newline.
			break
		}
		style, ok := c.tokenStyle(tok.Type)
		if !ok {
			continue
		}
		end := min(pos, len(text))
		if n := len(spans); n > 0 && spans[n-1].End == start && spans[n-1].Style == style {
			spans[n-1].End = end
			continue
		}
		spans = append(spans, editor.Span{Start: start, End: end, Style: style})
	}
	return spans
}

// tokenStyle maps a token type to a cell style. Tokens drawn in the
// style's plain text colour without attributes are left unstyled.
func (c *Chroma) tokenStyle(t chroma.TokenType) (screen.Style, bool) {
	entry := c.style.Get(t)

	var st screen.Style
	if entry.Bold == chroma.Yes {
		st.Attrs |= screen.Bold
	}
	if entry.Italic == chroma.Yes {
		st.Attrs |= screen.Italic
	}
	if entry.Underline == chroma.Yes {
		st.Attrs |= screen.Underline
	}
	if entry.Colour.IsSet() && entry.Colour != c.base {
		st.Fg = color.RGBA{R: entry.Colour.Red(), G: entry.Colour.Green(), B: entry.Colour.Blue(), A: 0xff}
	}
	return st, !st.IsZero()
}
