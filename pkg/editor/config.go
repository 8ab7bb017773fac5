package editor

import (
	"io"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/vito/shline/pkg/keys"
	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/termcap"
)

// Config is the editor's configuration surface. Zero values select
// defaults.
type Config struct {
	// DisableRaw turns the interactive editor off: ReadLine reads whole
	// lines in the terminal's cooked mode.
	DisableRaw bool

	// EscapeTimeout is how long a lone ESC waits for the rest of a
	// sequence. Default keys.DefaultTimeout.
	EscapeTimeout time.Duration

	// Caps forces capabilities on or off after detection.
	Caps termcap.Overrides

	// Env is the environment used for capability detection. Default
	// os.Environ().
	Env []string

	// TabWidth is the distance between tab stops. Default 8.
	TabWidth int

	// CoalesceWindow is the idle time that starts a new undo group.
	// Default 1s.
	CoalesceWindow time.Duration

	// FullRowThreshold is the fraction of changed cells above which a row
	// is rewritten whole. Default render.DefaultFullRowThreshold.
	FullRowThreshold float64

	// MenuHeight caps the visible completion candidates. Default 8.
	MenuHeight int

	// KillRingSize caps the kill ring. Default 16.
	KillRingSize int

	// Workers bounds concurrent background jobs. Default 4.
	Workers int

	// Mouse enables mouse reporting where the terminal supports it.
	Mouse bool

	// Bindings maps chords ("ctrl+x", "alt+enter") to action names,
	// overriding the default keymap. The action "none" unbinds.
	Bindings map[string]string

	// IsComplete decides whether Enter accepts the line; when it reports
	// false a newline is inserted instead.
	IsComplete func(line string) bool

	Theme Theme

	// StatsWriter receives one JSON line of render statistics per pass.
	StatsWriter io.Writer
}

func (c Config) withDefaults() Config {
	if c.EscapeTimeout <= 0 {
		c.EscapeTimeout = keys.DefaultTimeout
	}
	if c.TabWidth <= 0 {
		c.TabWidth = 8
	}
	if c.CoalesceWindow <= 0 {
		c.CoalesceWindow = time.Second
	}
	if c.FullRowThreshold <= 0 {
		c.FullRowThreshold = render.DefaultFullRowThreshold
	}
	if c.MenuHeight <= 0 {
		c.MenuHeight = 8
	}
	if c.KillRingSize <= 0 {
		c.KillRingSize = 16
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Theme == (Theme{}) {
		c.Theme = DefaultTheme()
	}
	return c
}

// Theme styles the parts of the edit region the editor draws itself.
type Theme struct {
	// Selection is layered over the active region between mark and cursor.
	Selection screen.Style
	// Suggestion styles the ghost text after the cursor.
	Suggestion screen.Style
	// Interrupt styles the ^C left behind by an interrupted line.
	Interrupt screen.Style

	Menu         screen.Style
	MenuSelected screen.Style
	MenuBorder   screen.Style
	MenuInfo     screen.Style
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{
		Selection:    screen.Style{Attrs: screen.Reverse},
		Suggestion:   screen.Style{Fg: ansi.IndexedColor(241)},
		Interrupt:    screen.Style{Fg: ansi.IndexedColor(241)},
		Menu:         screen.Style{Fg: ansi.IndexedColor(252), Bg: ansi.IndexedColor(237)},
		MenuSelected: screen.Style{Fg: ansi.IndexedColor(255), Bg: ansi.IndexedColor(63), Attrs: screen.Bold},
		MenuBorder:   screen.Style{Fg: ansi.IndexedColor(63)},
		MenuInfo:     screen.Style{Fg: ansi.IndexedColor(241)},
	}
}
