package editor

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/vito/shline/pkg/keys"
)

// Action is an editing command a chord can be bound to.
type Action int

const (
	ActionNone Action = iota
	ActionSelfInsert
	ActionAccept
	ActionNewline
	ActionBackwardChar
	ActionForwardChar
	ActionBackwardWord
	ActionForwardWord
	ActionLineStart
	ActionLineEnd
	ActionBufferStart
	ActionBufferEnd
	ActionUp
	ActionDown
	ActionHistoryPrev
	ActionHistoryNext
	ActionDeleteBackwardChar
	ActionDeleteForwardChar
	ActionDeleteCharOrEOF
	ActionKillBackwardWord
	ActionKillForwardWord
	ActionKillLineStart
	ActionKillLineEnd
	ActionKillRegionOrWord
	ActionCopyRegion
	ActionYank
	ActionYankPop
	ActionTranspose
	ActionUndo
	ActionRedo
	ActionSetMark
	ActionClearScreen
	ActionComplete
	ActionCompletePrev
	ActionAcceptSuggestion
	ActionCancel
	ActionInterrupt
)

var actionNames = map[Action]string{
	ActionNone:               "none",
	ActionSelfInsert:         "self-insert",
	ActionAccept:             "accept-line",
	ActionNewline:            "newline",
	ActionBackwardChar:       "backward-char",
	ActionForwardChar:        "forward-char",
	ActionBackwardWord:       "backward-word",
	ActionForwardWord:        "forward-word",
	ActionLineStart:          "beginning-of-line",
	ActionLineEnd:            "end-of-line",
	ActionBufferStart:        "beginning-of-buffer",
	ActionBufferEnd:          "end-of-buffer",
	ActionUp:                 "up",
	ActionDown:               "down",
	ActionHistoryPrev:        "previous-history",
	ActionHistoryNext:        "next-history",
	ActionDeleteBackwardChar: "backward-delete-char",
	ActionDeleteForwardChar:  "delete-char",
	ActionDeleteCharOrEOF:    "delete-char-or-eof",
	ActionKillBackwardWord:   "backward-kill-word",
	ActionKillForwardWord:    "kill-word",
	ActionKillLineStart:      "backward-kill-line",
	ActionKillLineEnd:        "kill-line",
	ActionKillRegionOrWord:   "kill-region",
	ActionCopyRegion:         "copy-region",
	ActionYank:               "yank",
	ActionYankPop:            "yank-pop",
	ActionTranspose:          "transpose-chars",
	ActionUndo:               "undo",
	ActionRedo:               "redo",
	ActionSetMark:            "set-mark",
	ActionClearScreen:        "clear-screen",
	ActionComplete:           "complete",
	ActionCompletePrev:       "complete-previous",
	ActionAcceptSuggestion:   "accept-suggestion",
	ActionCancel:             "cancel",
	ActionInterrupt:          "interrupt",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return ActionNone, errors.Errorf("unknown action %q", name)
}

// ActionNames lists every action name, sorted.
func ActionNames() []string {
	names := make([]string, 0, len(actionNames))
	for _, n := range actionNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// killing reports whether a adds to the kill ring, so consecutive kills
// accumulate into one entry.
func (a Action) killing() bool {
	switch a {
	case ActionKillBackwardWord, ActionKillForwardWord,
		ActionKillLineStart, ActionKillLineEnd, ActionKillRegionOrWord:
		return true
	}
	return false
}

// Keymap binds chords to actions.
type Keymap map[keys.Chord]Action

var defaultBindings = map[string]Action{
	"enter":         ActionAccept,
	"alt+enter":     ActionNewline,
	"ctrl+j":        ActionNewline,
	"tab":           ActionComplete,
	"shift+tab":     ActionCompletePrev,
	"esc":           ActionCancel,
	"left":          ActionBackwardChar,
	"ctrl+b":        ActionBackwardChar,
	"right":         ActionForwardChar,
	"ctrl+f":        ActionForwardChar,
	"alt+b":         ActionBackwardWord,
	"alt+left":      ActionBackwardWord,
	"ctrl+left":     ActionBackwardWord,
	"alt+f":         ActionForwardWord,
	"alt+right":     ActionForwardWord,
	"ctrl+right":    ActionForwardWord,
	"home":          ActionLineStart,
	"ctrl+a":        ActionLineStart,
	"end":           ActionLineEnd,
	"ctrl+e":        ActionLineEnd,
	"alt+<":         ActionBufferStart,
	"alt+>":         ActionBufferEnd,
	"up":            ActionUp,
	"down":          ActionDown,
	"ctrl+p":        ActionHistoryPrev,
	"ctrl+n":        ActionHistoryNext,
	"pgup":          ActionHistoryPrev,
	"pgdown":        ActionHistoryNext,
	"backspace":     ActionDeleteBackwardChar,
	"ctrl+h":        ActionDeleteBackwardChar,
	"delete":        ActionDeleteForwardChar,
	"ctrl+d":        ActionDeleteCharOrEOF,
	"alt+backspace": ActionKillBackwardWord,
	"alt+d":         ActionKillForwardWord,
	"ctrl+delete":   ActionKillForwardWord,
	"ctrl+u":        ActionKillLineStart,
	"ctrl+k":        ActionKillLineEnd,
	"ctrl+w":        ActionKillRegionOrWord,
	"alt+w":         ActionCopyRegion,
	"ctrl+y":        ActionYank,
	"alt+y":         ActionYankPop,
	"ctrl+t":        ActionTranspose,
	"ctrl+_":        ActionUndo,
	"ctrl+z":        ActionUndo,
	"alt+/":         ActionRedo,
	"alt+_":         ActionRedo,
	"ctrl+space":    ActionSetMark,
	"ctrl+l":        ActionClearScreen,
	"ctrl+c":        ActionInterrupt,
}

// DefaultKeymap returns the emacs-style bindings.
func DefaultKeymap() Keymap {
	km := Keymap{}
	for chord, action := range defaultBindings {
		c, err := keys.ParseChord(chord)
		if err != nil {
			panic(err)
		}
		km[c] = action
	}
	return km
}

// Bind binds chord to the named action. "none" removes the binding.
func (km Keymap) Bind(chord, action string) error {
	c, err := keys.ParseChord(chord)
	if err != nil {
		return errors.Wrap(err, "bind")
	}
	a, err := ParseAction(action)
	if err != nil {
		return errors.Wrapf(err, "bind %s", chord)
	}
	if a == ActionNone {
		delete(km, c)
		return nil
	}
	km[c] = a
	return nil
}

// Lookup returns the action for a key event. Unbound printable runes
// insert themselves.
func (km Keymap) Lookup(ev keys.Event) Action {
	if a, ok := km[ev.Chord()]; ok {
		return a
	}
	switch {
	case ev.Kind == keys.KindRune:
		return ActionSelfInsert
	case ev.Kind == keys.KindModified && ev.Mod == keys.ModShift && ev.Key == keys.KeyNone:
		return ActionSelfInsert
	}
	return ActionNone
}
