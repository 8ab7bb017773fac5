package termcap

import (
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/pkg/errors"
)

// Overrides force capabilities regardless of what was detected. Nil
// fields leave the detected value alone.
type Overrides struct {
	Profile        *colorprofile.Profile
	UTF8           *bool
	Mouse          *bool
	BracketedPaste *bool
	SyncOutput     *bool
	KittyKeyboard  *bool
	AmbiguousWide  *bool
}

// With returns a copy of c with the overrides applied. Overrides can only
// enable features on an interactive terminal.
func (c Caps) With(o Overrides) Caps {
	if o.Profile != nil {
		c.Profile = *o.Profile
	}
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v && (c.Interactive || !*v)
		}
	}
	set(&c.Mouse, o.Mouse)
	set(&c.BracketedPaste, o.BracketedPaste)
	set(&c.SyncOutput, o.SyncOutput)
	set(&c.KittyKeyboard, o.KittyKeyboard)
	if o.UTF8 != nil {
		c.UTF8 = *o.UTF8
	}
	if o.AmbiguousWide != nil {
		c.AmbiguousWide = *o.AmbiguousWide
	}
	return c
}

// ParseProfile parses a colour profile name as accepted by --color.
func ParseProfile(s string) (colorprofile.Profile, error) {
	switch strings.ToLower(s) {
	case "truecolor", "24bit", "true":
		return colorprofile.TrueColor, nil
	case "256", "ansi256":
		return colorprofile.ANSI256, nil
	case "16", "ansi":
		return colorprofile.ANSI, nil
	case "none", "ascii", "off":
		return colorprofile.ASCII, nil
	default:
		return colorprofile.Unknown, errors.Errorf("unknown color profile %q", s)
	}
}

// Bool returns a pointer to v, for building Overrides.
func Bool(v bool) *bool { return &v }
