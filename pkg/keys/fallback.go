package keys

import (
	"unicode"

	uv "github.com/charmbracelet/ultraviolet"
)

var uvKeys = map[rune]Key{
	uv.KeyUp:        KeyUp,
	uv.KeyDown:      KeyDown,
	uv.KeyLeft:      KeyLeft,
	uv.KeyRight:     KeyRight,
	uv.KeyHome:      KeyHome,
	uv.KeyEnd:       KeyEnd,
	uv.KeyInsert:    KeyInsert,
	uv.KeyDelete:    KeyDelete,
	uv.KeyPgUp:      KeyPageUp,
	uv.KeyPgDown:    KeyPageDown,
	uv.KeyEnter:     KeyEnter,
	uv.KeyTab:       KeyTab,
	uv.KeyBackspace: KeyBackspace,
	uv.KeyEscape:    KeyEscape,
	uv.KeyF1:        KeyF1,
	uv.KeyF2:        KeyF2,
	uv.KeyF3:        KeyF3,
	uv.KeyF4:        KeyF4,
	uv.KeyF5:        KeyF5,
	uv.KeyF6:        KeyF6,
	uv.KeyF7:        KeyF7,
	uv.KeyF8:        KeyF8,
	uv.KeyF9:        KeyF9,
	uv.KeyF10:       KeyF10,
	uv.KeyF11:       KeyF11,
	uv.KeyF12:       KeyF12,
}

var uvButtons = map[uv.MouseButton]MouseButton{
	uv.MouseNone:      MouseNone,
	uv.MouseLeft:      MouseLeft,
	uv.MouseMiddle:    MouseMiddle,
	uv.MouseRight:     MouseRight,
	uv.MouseWheelUp:   MouseWheelUp,
	uv.MouseWheelDown: MouseWheelDown,
}

// decodeFallback hands a complete sequence the static table does not know
// to ultraviolet's decoder, which understands the kitty keyboard protocol,
// SGR and X10 mouse reports, and modifyOtherKeys.
func decodeFallback(seq []byte) (Event, bool) {
	var dec uv.EventDecoder
	n, ev := dec.Decode(seq)
	if n != len(seq) {
		return Event{}, false
	}
	return fromUV(ev)
}

func fromUV(ev uv.Event) (Event, bool) {
	switch e := ev.(type) {
	case uv.KeyPressEvent:
		return fromUVKey(uv.Key(e))
	case uv.MouseClickEvent:
		return fromUVMouse(uv.Mouse(e), MousePress), true
	case uv.MouseReleaseEvent:
		return fromUVMouse(uv.Mouse(e), MouseRelease), true
	case uv.MouseMotionEvent:
		return fromUVMouse(uv.Mouse(e), MouseMotion), true
	case uv.MouseWheelEvent:
		return fromUVMouse(uv.Mouse(e), MouseWheel), true
	case uv.PasteEvent:
		return Event{Kind: KindPaste, Text: e.Content}, true
	default:
		return Event{}, false
	}
}

func fromUVMod(m uv.KeyMod) Mod {
	var mod Mod
	if m.Contains(uv.ModShift) {
		mod |= ModShift
	}
	if m.Contains(uv.ModAlt) || m.Contains(uv.ModMeta) {
		mod |= ModAlt
	}
	if m.Contains(uv.ModCtrl) {
		mod |= ModCtrl
	}
	return mod
}

func fromUVKey(k uv.Key) (Event, bool) {
	mod := fromUVMod(k.Mod)
	if key, ok := uvKeys[k.Code]; ok {
		return KeyEvent(key, mod), true
	}
	if k.Code == uv.KeySpace {
		return RuneEvent(' ', mod), true
	}
	if k.Code < uv.KeyExtended && unicode.IsPrint(k.Code) {
		return RuneEvent(k.Code, mod), true
	}
	return Event{}, false
}

func fromUVMouse(m uv.Mouse, action MouseAction) Event {
	return Event{
		Kind: KindMouse,
		Mod:  fromUVMod(m.Mod),
		Mouse: Mouse{
			Action: action,
			Button: uvButtons[m.Button],
			X:      m.X,
			Y:      m.Y,
		},
	}
}
