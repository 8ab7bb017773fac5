// Package termcap describes what the attached terminal can do. The
// description is negotiated once at startup and never changes afterwards;
// everything downstream degrades to it rather than probing the terminal.
package termcap

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/colorprofile"
)

// Feature names an optional terminal capability.
type Feature int

const (
	FeatureColor Feature = iota
	FeatureUTF8
	FeatureMouse
	FeatureBracketedPaste
	FeatureSyncOutput
	FeatureKittyKeyboard
)

func (f Feature) String() string {
	switch f {
	case FeatureColor:
		return "color"
	case FeatureUTF8:
		return "utf8"
	case FeatureMouse:
		return "mouse"
	case FeatureBracketedPaste:
		return "bracketed-paste"
	case FeatureSyncOutput:
		return "sync-output"
	case FeatureKittyKeyboard:
		return "kitty-keyboard"
	default:
		return fmt.Sprintf("Feature(%d)", int(f))
	}
}

// Caps is an immutable capability descriptor.
type Caps struct {
	// Profile is the colour depth.
	Profile colorprofile.Profile

	UTF8           bool
	Mouse          bool
	BracketedPaste bool
	SyncOutput     bool
	KittyKeyboard  bool

	// AmbiguousWide renders East Asian ambiguous-width characters as two
	// columns.
	AmbiguousWide bool

	// Interactive is false when input or output is not a terminal. Only
	// the line-at-a-time fallback runs in that case.
	Interactive bool

	// Term is the value of $TERM.
	Term string
}

// Supports reports whether the feature is available.
func (c Caps) Supports(f Feature) bool {
	switch f {
	case FeatureColor:
		return c.Profile > colorprofile.ASCII
	case FeatureUTF8:
		return c.UTF8
	case FeatureMouse:
		return c.Mouse
	case FeatureBracketedPaste:
		return c.BracketedPaste
	case FeatureSyncOutput:
		return c.SyncOutput
	case FeatureKittyKeyboard:
		return c.KittyKeyboard
	default:
		return false
	}
}

// Dumb is the descriptor for a terminal that can do nothing beyond
// printing ASCII.
var Dumb = Caps{Profile: colorprofile.ASCII, Term: "dumb"}

// Detect negotiates capabilities from the environment and the output
// stream. env is in os.Environ form.
func Detect(out io.Writer, env []string, interactive bool) Caps {
	vars := environ(env)
	term := vars["TERM"]

	if !interactive {
		return Caps{
			Profile: colorprofile.Detect(out, env),
			UTF8:    localeIsUTF8(vars),
			Term:    term,
		}
	}

	// The caller has already established that out is a terminal, which
	// colorprofile.Detect cannot see through wrapped writers.
	caps := Caps{
		Profile:     colorprofile.Env(env),
		UTF8:        localeIsUTF8(vars),
		Interactive: true,
		Term:        term,
	}
	if term == "" || term == "dumb" {
		caps.Profile = min(caps.Profile, colorprofile.ASCII)
		return caps
	}
	if caps.Profile != colorprofile.TrueColor && vars["NO_COLOR"] == "" {
		caps.Profile = max(caps.Profile, colorprofile.Terminfo(term), colorprofile.Tmux(env))
	}
	// Anything xterm-compatible handles mouse reporting and bracketed
	// paste; the linux console does neither.
	if term != "linux" && !strings.HasPrefix(term, "vt") {
		caps.Mouse = true
		caps.BracketedPaste = true
	}

	program := vars["TERM_PROGRAM"]
	switch {
	case strings.Contains(term, "kitty"), strings.Contains(term, "ghostty"),
		program == "ghostty", program == "WezTerm":
		caps.SyncOutput = true
		caps.KittyKeyboard = true
	case strings.HasPrefix(term, "foot"), strings.HasPrefix(term, "alacritty"),
		strings.HasPrefix(term, "contour"), program == "iTerm.app",
		program == "vscode", vars["WT_SESSION"] != "":
		caps.SyncOutput = true
	case strings.HasPrefix(term, "tmux"), vars["TMUX"] != "":
		// tmux supports mode 2026 from 3.4; older versions ignore it.
		caps.SyncOutput = true
	}
	return caps
}

func environ(env []string) map[string]string {
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = v
		}
	}
	return vars
}

// localeIsUTF8 follows the POSIX precedence: LC_ALL, then LC_CTYPE, then
// LANG. An unset locale is treated as UTF-8.
func localeIsUTF8(vars map[string]string) bool {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v, ok := vars[name]
		if !ok || v == "" {
			continue
		}
		if v == "C" || v == "POSIX" {
			return false
		}
		v = strings.ToLower(v)
		return strings.Contains(v, "utf-8") || strings.Contains(v, "utf8")
	}
	return true
}
