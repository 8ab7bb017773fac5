package screen

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Styled is a run of text painted in one style.
type Styled struct {
	Text  string
	Style Style
}

// Plain returns an unstyled run.
func Plain(text string) Styled { return Styled{Text: text} }

// ParseStyled splits s into runs, interpreting SGR sequences so that text
// styled elsewhere (lipgloss, a prompt theme) can be painted onto a canvas.
// Escape sequences other than SGR are dropped.
func ParseStyled(s string) []Styled {
	var (
		runs  []Styled
		cur   Style
		text  strings.Builder
		state byte
	)
	p := ansi.NewParser()
	flush := func() {
		if text.Len() > 0 {
			runs = append(runs, Styled{Text: text.String(), Style: cur})
			text.Reset()
		}
	}
	for s != "" {
		seq, _, n, newState := ansi.DecodeSequence(s, state, p)
		state = newState
		s = s[n:]
		if seq == "" {
			continue
		}
		switch b := seq[0]; {
		case b == 0x1b:
			cmd := ansi.Cmd(p.Command())
			if strings.HasPrefix(seq, "\x1b[") && cmd.Final() == 'm' && cmd.Prefix() == 0 && cmd.Intermediate() == 0 {
				next := applySGR(cur, p.Params())
				if next != cur {
					flush()
					cur = next
				}
			}
		case b == '\n' || b == '\t':
			text.WriteString(seq)
		case b < 0x20 || b == 0x7f:
		default:
			text.WriteString(seq)
		}
	}
	flush()
	return runs
}

// StyledText returns the concatenated text of runs.
func StyledText(runs []Styled) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

func applySGR(st Style, params ansi.Params) Style {
	if len(params) == 0 {
		return Style{}
	}
	for i := 0; i < len(params); i++ {
		switch p := params[i].Param(0); {
		case p == 0:
			st = Style{}
		case p == 1:
			st.Attrs |= Bold
		case p == 2:
			st.Attrs |= Dim
		case p == 3:
			st.Attrs |= Italic
		case p == 4:
			st.Attrs |= Underline
		case p == 7:
			st.Attrs |= Reverse
		case p == 22:
			st.Attrs &^= Bold | Dim
		case p == 23:
			st.Attrs &^= Italic
		case p == 24:
			st.Attrs &^= Underline
		case p == 27:
			st.Attrs &^= Reverse
		case p >= 30 && p <= 37:
			st.Fg = ansi.BasicColor(p - 30)
		case p >= 90 && p <= 97:
			st.Fg = ansi.BasicColor(p - 90 + 8)
		case p >= 40 && p <= 47:
			st.Bg = ansi.BasicColor(p - 40)
		case p >= 100 && p <= 107:
			st.Bg = ansi.BasicColor(p - 100 + 8)
		case p == 39:
			st.Fg = nil
		case p == 49:
			st.Bg = nil
		case p == 38 || p == 48 || p == 58:
			var c color.Color
			n := ansi.ReadStyleColor(params[i:], &c)
			if n == 0 {
				return st
			}
			switch p {
			case 38:
				st.Fg = c
			case 48:
				st.Bg = c
			}
			i += n - 1
		}
	}
	return st
}

// WriteStyled paints each run in its style.
func (c *Canvas) WriteStyled(runs []Styled) {
	for _, r := range runs {
		c.Write(r.Text, r.Style)
	}
}
