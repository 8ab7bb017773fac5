// Package keys decodes raw terminal input bytes into key, mouse, paste and
// resize events. Decoding is a byte-at-a-time state machine; a lone ESC is
// disambiguated from the start of an escape sequence with a short timeout
// driven by Reader.
package keys

import (
	"fmt"
	"strings"
)

// Kind tags the variant held by an Event.
type Kind int

const (
	// KindRune is a printable codepoint with no modifiers.
	KindRune Kind = iota
	// KindKey is a named key with no modifiers.
	KindKey
	// KindModified is a codepoint or named key with at least one modifier.
	KindModified
	// KindMouse is a mouse press, release, motion or wheel event.
	KindMouse
	// KindResize reports new terminal dimensions.
	KindResize
	// KindTimeout reports that a pending sequence expired without producing
	// a key.
	KindTimeout
	// KindPaste carries bracketed-paste content.
	KindPaste
	// KindWake is returned when the reader is woken without input.
	KindWake
)

func (k Kind) String() string {
	switch k {
	case KindRune:
		return "rune"
	case KindKey:
		return "key"
	case KindModified:
		return "modified"
	case KindMouse:
		return "mouse"
	case KindResize:
		return "resize"
	case KindTimeout:
		return "timeout"
	case KindPaste:
		return "paste"
	case KindWake:
		return "wake"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Key names a non-printing key.
type Key int

const (
	KeyNone Key = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	// KeyUnknown is a recognised escape sequence with no mapping. The raw
	// bytes are kept in Event.Raw.
	KeyUnknown
)

var keyNames = map[Key]string{
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyEscape:    "esc",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyInsert:    "insert",
	KeyDelete:    "delete",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdown",
	KeyF1:        "f1",
	KeyF2:        "f2",
	KeyF3:        "f3",
	KeyF4:        "f4",
	KeyF5:        "f5",
	KeyF6:        "f6",
	KeyF7:        "f7",
	KeyF8:        "f8",
	KeyF9:        "f9",
	KeyF10:       "f10",
	KeyF11:       "f11",
	KeyF12:       "f12",
	KeyUnknown:   "unknown",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return ""
}

// KeyByName returns the key with the given name, as used in key bindings.
func KeyByName(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return KeyNone, false
}

// Mod is a set of keyboard modifiers.
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
)

// Contains reports whether m includes all of other.
func (m Mod) Contains(other Mod) bool { return m&other == other }

func (m Mod) String() string {
	var parts []string
	if m.Contains(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Contains(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Contains(ModShift) {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// MouseAction distinguishes the kinds of mouse report.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMotion
	MouseWheel
)

// MouseButton identifies the button involved in a mouse report.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Mouse is a decoded mouse report. X and Y are zero-based cell coordinates
// relative to the terminal's top-left corner.
type Mouse struct {
	Action MouseAction
	Button MouseButton
	X, Y   int
}

// Event is a decoded input event. Kind selects which fields are meaningful:
//
//   - KindRune: Rune
//   - KindKey: Key, plus Raw for KeyUnknown
//   - KindModified: Mod, and Rune or Key
//   - KindMouse: Mouse and Mod
//   - KindResize: Cols and Rows
//   - KindPaste: Text
type Event struct {
	Kind  Kind
	Rune  rune
	Key   Key
	Mod   Mod
	Mouse Mouse
	Cols  int
	Rows  int
	Text  string
	Raw   []byte
}

// RuneEvent returns the event for a typed codepoint with modifiers.
func RuneEvent(r rune, mod Mod) Event {
	if mod != 0 {
		return Event{Kind: KindModified, Rune: r, Mod: mod}
	}
	return Event{Kind: KindRune, Rune: r}
}

// KeyEvent returns the event for a named key with modifiers.
func KeyEvent(k Key, mod Mod) Event {
	if mod != 0 {
		return Event{Kind: KindModified, Key: k, Mod: mod}
	}
	return Event{Kind: KindKey, Key: k}
}

// ResizeEvent returns a resize notification.
func ResizeEvent(cols, rows int) Event {
	return Event{Kind: KindResize, Cols: cols, Rows: rows}
}

// withMod adds modifiers to a key or rune event, re-tagging it as needed.
func (e Event) withMod(mod Mod) Event {
	if mod == 0 {
		return e
	}
	switch e.Kind {
	case KindRune, KindKey, KindModified:
		e.Mod |= mod
		e.Kind = KindModified
	case KindMouse:
		e.Mod |= mod
	}
	return e
}

// Chord returns the key identity of a rune, key or modified event for use
// as a binding lookup.
func (e Event) Chord() Chord {
	return Chord{Key: e.Key, Rune: e.Rune, Mod: e.Mod}
}

func (e Event) String() string {
	switch e.Kind {
	case KindRune, KindKey, KindModified:
		return e.Chord().String()
	case KindMouse:
		return fmt.Sprintf("mouse(%d,%d,%d@%d,%d)", e.Mouse.Action, e.Mouse.Button, e.Mod, e.Mouse.X, e.Mouse.Y)
	case KindResize:
		return fmt.Sprintf("resize(%dx%d)", e.Cols, e.Rows)
	case KindPaste:
		return fmt.Sprintf("paste(%d bytes)", len(e.Text))
	default:
		return e.Kind.String()
	}
}

// Chord is a key plus modifiers: the unit of a key binding.
type Chord struct {
	Key  Key
	Rune rune
	Mod  Mod
}

func (c Chord) String() string {
	var name string
	switch {
	case c.Key != KeyNone:
		name = c.Key.String()
	case c.Rune == ' ':
		name = "space"
	default:
		name = string(c.Rune)
	}
	if c.Mod == 0 {
		return name
	}
	return c.Mod.String() + "+" + name
}

// ParseChord parses a binding such as "ctrl+a", "alt+enter" or "f5".
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(s), "+")
	var c Chord
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl", "c":
			c.Mod |= ModCtrl
		case "alt", "meta", "m":
			c.Mod |= ModAlt
		case "shift", "s":
			c.Mod |= ModShift
		default:
			return Chord{}, fmt.Errorf("unknown modifier %q in %q", p, s)
		}
	}
	name := parts[len(parts)-1]
	if k, ok := KeyByName(name); ok {
		c.Key = k
		return c, nil
	}
	if name == "space" {
		c.Rune = ' '
		return c, nil
	}
	runes := []rune(name)
	if len(runes) != 1 {
		return Chord{}, fmt.Errorf("unknown key %q in %q", name, s)
	}
	c.Rune = runes[0]
	return c, nil
}

// Err returns ErrDecodeTimeout for a KindTimeout event and nil otherwise.
func (e Event) Err() error {
	if e.Kind == KindTimeout {
		return ErrDecodeTimeout
	}
	return nil
}
