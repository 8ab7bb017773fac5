// Package config loads shline.toml: editor settings, key bindings and the
// theme.
package config

import (
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/vito/shline/pkg/editor"
	"github.com/vito/shline/pkg/screen"
	"github.com/vito/shline/pkg/termcap"
)

// FileName is the name searched for in the working directory and its
// parents.
const FileName = "shline.toml"

// File is the contents of shline.toml.
type File struct {
	Editor    EditorSection     `toml:"editor"`
	History   HistorySection    `toml:"history"`
	Highlight HighlightSection  `toml:"highlight"`
	Prompt    PromptSection     `toml:"prompt"`
	Bindings  map[string]string `toml:"bindings"`
	Theme     map[string]Style  `toml:"theme"`
}

type EditorSection struct {
	DisableRaw    bool          `toml:"disable_raw"`
	EscapeTimeout time.Duration `toml:"escape_timeout"`
	TabWidth      int           `toml:"tab_width"`
	UndoWindow    time.Duration `toml:"undo_window"`
	MenuHeight    int           `toml:"menu_height"`
	KillRingSize  int           `toml:"kill_ring_size"`
	Mouse         bool          `toml:"mouse"`
	Color         string        `toml:"color"`
	AmbiguousWide *bool         `toml:"ambiguous_wide"`
}

type HistorySection struct {
	// File is a flat history file; DB a SQLite database. DB wins when
	// both are set.
	File  string `toml:"file"`
	DB    string `toml:"db"`
	Limit int    `toml:"limit"`
}

type HighlightSection struct {
	Disable bool   `toml:"disable"`
	Lexer   string `toml:"lexer"`
	Style   string `toml:"style"`
}

type PromptSection struct {
	Primary      string `toml:"primary"`
	Continuation string `toml:"continuation"`
}

// Style is a theme entry. Colours are hex strings ("#ff8800"); Attrs is a
// list such as "bold|underline".
type Style struct {
	Fg    string `toml:"fg"`
	Bg    string `toml:"bg"`
	Attrs string `toml:"attrs"`
}

// Load parses the file at path. Relative history paths are resolved
// against the file's directory.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errors.Errorf("%s: unknown key %s", path, undec[0])
	}
	dir := filepath.Dir(path)
	for _, p := range []*string{&f.History.File, &f.History.DB} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &f, nil
}

// Find searches dir and its parents for shline.toml, stopping at a .git
// boundary, then falls back to $XDG_CONFIG_HOME/shline/shline.toml. It
// returns ("", nil, nil) when there is no file.
func Find(dir string) (string, *File, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			f, err := Load(path)
			if err != nil {
				return "", nil, err
			}
			return path, f, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	path := filepath.Join(configDir(), FileName)
	if _, err := os.Stat(path); err != nil {
		return "", nil, nil
	}
	f, err := Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, f, nil
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "shline")
}

// Apply layers the file's settings over cfg.
func (f *File) Apply(cfg *editor.Config) error {
	e := f.Editor
	cfg.DisableRaw = cfg.DisableRaw || e.DisableRaw
	cfg.Mouse = cfg.Mouse || e.Mouse
	if e.EscapeTimeout > 0 {
		cfg.EscapeTimeout = e.EscapeTimeout
	}
	if e.TabWidth > 0 {
		cfg.TabWidth = e.TabWidth
	}
	if e.UndoWindow > 0 {
		cfg.CoalesceWindow = e.UndoWindow
	}
	if e.MenuHeight > 0 {
		cfg.MenuHeight = e.MenuHeight
	}
	if e.KillRingSize > 0 {
		cfg.KillRingSize = e.KillRingSize
	}
	if e.Color != "" {
		p, err := termcap.ParseProfile(e.Color)
		if err != nil {
			return errors.Wrap(err, "editor.color")
		}
		cfg.Caps.Profile = &p
	}
	if e.AmbiguousWide != nil {
		cfg.Caps.AmbiguousWide = e.AmbiguousWide
	}

	if len(f.Bindings) > 0 {
		merged := make(map[string]string, len(cfg.Bindings)+len(f.Bindings))
		for k, v := range f.Bindings {
			merged[k] = v
		}
		for k, v := range cfg.Bindings {
			merged[k] = v
		}
		cfg.Bindings = merged
	}

	if len(f.Theme) > 0 {
		theme := cfg.Theme
		if theme == (editor.Theme{}) {
			theme = editor.DefaultTheme()
		}
		if err := applyTheme(&theme, f.Theme); err != nil {
			return err
		}
		cfg.Theme = theme
	}
	return nil
}

func applyTheme(theme *editor.Theme, entries map[string]Style) error {
	fields := map[string]*screen.Style{
		"selection":     &theme.Selection,
		"suggestion":    &theme.Suggestion,
		"interrupt":     &theme.Interrupt,
		"menu":          &theme.Menu,
		"menu_selected": &theme.MenuSelected,
		"menu_border":   &theme.MenuBorder,
		"menu_info":     &theme.MenuInfo,
	}
	for name, entry := range entries {
		dst, ok := fields[name]
		if !ok {
			return errors.Errorf("theme: unknown element %q", name)
		}
		st, err := entry.Parse()
		if err != nil {
			return errors.Wrapf(err, "theme.%s", name)
		}
		*dst = st
	}
	return nil
}

// Parse converts the entry to a cell style.
func (s Style) Parse() (screen.Style, error) {
	var st screen.Style
	var err error
	if st.Fg, err = parseColor(s.Fg); err != nil {
		return st, err
	}
	if st.Bg, err = parseColor(s.Bg); err != nil {
		return st, err
	}
	st.Attrs = screen.ParseAttrs(s.Attrs)
	return st, nil
}

func parseColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, errors.Wrapf(err, "colour %q", s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
