package keys

import (
	"strconv"
	"strings"
)

// Raw input sequences for common keys, as sent by xterm-compatible
// terminals in raw mode.
const (
	SeqUp    = "\x1b[A"
	SeqDown  = "\x1b[B"
	SeqRight = "\x1b[C"
	SeqLeft  = "\x1b[D"

	SeqHome  = "\x1b[H"
	SeqEnd   = "\x1b[F"
	SeqHome2 = "\x1b[1~"
	SeqEnd2  = "\x1b[4~"

	SeqInsert   = "\x1b[2~"
	SeqDelete   = "\x1b[3~"
	SeqPageUp   = "\x1b[5~"
	SeqPageDown = "\x1b[6~"

	SeqShiftTab = "\x1b[Z"

	SeqAltLeft   = "\x1b[1;3D"
	SeqAltRight  = "\x1b[1;3C"
	SeqCtrlLeft  = "\x1b[1;5D"
	SeqCtrlRight = "\x1b[1;5C"

	SeqPasteStart = "\x1b[200~"
	SeqPasteEnd   = "\x1b[201~"
)

type tableEntry struct {
	key Key
	mod Mod
}

// sequenceTable maps unmodified sequences (without the leading ESC) to keys.
// Modified variants are normalised to these forms before lookup.
var sequenceTable = map[string]tableEntry{
	"[A": {key: KeyUp},
	"[B": {key: KeyDown},
	"[C": {key: KeyRight},
	"[D": {key: KeyLeft},
	"[H": {key: KeyHome},
	"[F": {key: KeyEnd},
	"[Z": {key: KeyTab, mod: ModShift},
	"[P": {key: KeyF1},
	"[Q": {key: KeyF2},
	"[R": {key: KeyF3},
	"[S": {key: KeyF4},

	"OA": {key: KeyUp},
	"OB": {key: KeyDown},
	"OC": {key: KeyRight},
	"OD": {key: KeyLeft},
	"OH": {key: KeyHome},
	"OF": {key: KeyEnd},
	"OM": {key: KeyEnter},
	"OP": {key: KeyF1},
	"OQ": {key: KeyF2},
	"OR": {key: KeyF3},
	"OS": {key: KeyF4},

	"[1~":  {key: KeyHome},
	"[2~":  {key: KeyInsert},
	"[3~":  {key: KeyDelete},
	"[4~":  {key: KeyEnd},
	"[5~":  {key: KeyPageUp},
	"[6~":  {key: KeyPageDown},
	"[7~":  {key: KeyHome},
	"[8~":  {key: KeyEnd},
	"[11~": {key: KeyF1},
	"[12~": {key: KeyF2},
	"[13~": {key: KeyF3},
	"[14~": {key: KeyF4},
	"[15~": {key: KeyF5},
	"[17~": {key: KeyF6},
	"[18~": {key: KeyF7},
	"[19~": {key: KeyF8},
	"[20~": {key: KeyF9},
	"[21~": {key: KeyF10},
	"[23~": {key: KeyF11},
	"[24~": {key: KeyF12},
}

// lookupSequence resolves a complete CSI or SS3 sequence body (everything
// after ESC) through the static table, decoding the xterm modifier
// parameter ("1;5A" is Ctrl+Up, "3;2~" is Shift+Delete).
func lookupSequence(body string) (Event, bool) {
	if len(body) < 2 {
		return Event{}, false
	}
	intro := body[:1]
	final := body[len(body)-1]
	params := body[1 : len(body)-1]
	if strings.ContainsAny(params, "<=>?") {
		return Event{}, false
	}

	var mod Mod
	canonical := body
	parts := strings.Split(params, ";")
	switch {
	case len(parts) == 2:
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return Event{}, false
		}
		mod = decodeModifier(m)
		if final == '~' {
			canonical = intro + parts[0] + "~"
		} else {
			canonical = intro + string(final)
		}
	case len(parts) == 1 && params != "" && final != '~':
		// Old SS3 form: ESC O 5 A.
		m, err := strconv.Atoi(params)
		if err != nil {
			return Event{}, false
		}
		mod = decodeModifier(m)
		canonical = intro + string(final)
	case len(parts) > 2:
		return Event{}, false
	}

	entry, ok := sequenceTable[canonical]
	if !ok {
		return Event{}, false
	}
	return KeyEvent(entry.key, entry.mod|mod), true
}

// decodeModifier converts an xterm modifier parameter (1 + bitmask) to Mod.
func decodeModifier(param int) Mod {
	bits := param - 1
	if bits <= 0 {
		return 0
	}
	var mod Mod
	if bits&1 != 0 {
		mod |= ModShift
	}
	if bits&(2|8) != 0 {
		mod |= ModAlt
	}
	if bits&4 != 0 {
		mod |= ModCtrl
	}
	return mod
}

// controlEvent maps a C0 control byte or DEL to an event.
func controlEvent(b byte) Event {
	switch b {
	case 0x0d:
		return KeyEvent(KeyEnter, 0)
	case 0x09:
		return KeyEvent(KeyTab, 0)
	case 0x7f:
		return KeyEvent(KeyBackspace, 0)
	case 0x1b:
		return KeyEvent(KeyEscape, 0)
	case 0x00:
		return RuneEvent(' ', ModCtrl)
	case 0x1c, 0x1d, 0x1e, 0x1f:
		return RuneEvent(rune(b)+'\\'-0x1c, ModCtrl)
	default:
		return RuneEvent(rune(b)+'a'-1, ModCtrl)
	}
}
