package keys

import (
	"bytes"
	"unicode/utf8"
)

// State is the decoder's position in the input grammar.
type State int

const (
	// StateIdle expects the first byte of a new event.
	StateIdle State = iota
	// StateUTF8 expects continuation bytes of a multi-byte codepoint.
	StateUTF8
	// StateEscape has seen ESC and awaits the next byte.
	StateEscape
	// StateCSI accumulates a CSI, SS3 or string sequence, or paste content.
	StateCSI
	// StateTimeoutWait holds an incomplete prefix after the input ran dry.
	// The next byte resumes the interrupted state; Expire flushes it.
	StateTimeoutWait
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUTF8:
		return "utf8"
	case StateEscape:
		return "escape"
	case StateCSI:
		return "csi"
	case StateTimeoutWait:
		return "timeout-wait"
	default:
		return "unknown"
	}
}

type seqMode int

const (
	modeCSI seqMode = iota
	modeSS3
	modeString
	modeX10
	modePaste
)

const (
	maxSequence = 64
	maxString   = 4096
	maxPaste    = 1 << 20
)

// Decoder turns raw terminal bytes into events. It holds no clock: the
// caller signals that input has paused with Drain and that the escape
// timeout expired with Expire.
//
// Every byte either contributes to exactly one emitted event or is
// discarded with the error counter incremented.
type Decoder struct {
	state  State
	resume State
	mode   seqMode

	buf   []byte
	need  int
	alt   bool
	paste []byte

	errors int
	out    []Event
}

// NewDecoder returns a decoder in StateIdle.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// State returns the current state.
func (d *Decoder) State() State { return d.state }

// Pending reports whether a partial sequence is buffered.
func (d *Decoder) Pending() bool { return d.state != StateIdle }

// Errors returns how many malformed or discarded sequences were seen.
func (d *Decoder) Errors() int { return d.errors }

// Feed decodes p and returns the events it completed.
func (d *Decoder) Feed(p []byte) []Event {
	for _, b := range p {
		d.step(b)
	}
	out := d.out
	d.out = nil
	return out
}

// Drain marks the end of the currently available input. A pending prefix
// moves the decoder to StateTimeoutWait; it reports whether that happened.
// An open bracketed paste is not a prefix: it waits for its end marker
// however long the input pauses.
func (d *Decoder) Drain() bool {
	if d.pasting() {
		return false
	}
	if d.state == StateIdle || d.state == StateTimeoutWait {
		return d.state == StateTimeoutWait
	}
	d.resume = d.state
	d.state = StateTimeoutWait
	return true
}

// Expire flushes the pending prefix once the escape timeout has passed
// without further input. A lone ESC becomes the Escape key; ESC followed by
// '[' or 'O' becomes Alt+'[' or Alt+'O'; anything else is discarded and
// reported as a single KindTimeout event. An open paste is left alone.
func (d *Decoder) Expire() []Event {
	if d.pasting() {
		return nil
	}
	state := d.state
	if state == StateTimeoutWait {
		state = d.resume
	}
	switch state {
	case StateIdle:
		return nil
	case StateEscape:
		d.emit(KeyEvent(KeyEscape, 0))
	case StateUTF8:
		d.errors++
		d.emit(RuneEvent(utf8.RuneError, 0))
	case StateCSI:
		switch {
		case (d.mode == modeCSI || d.mode == modeSS3) && len(d.buf) == 2:
			d.emit(RuneEvent(rune(d.buf[1]), ModAlt))
		default:
			d.errors++
			d.emit(Event{Kind: KindTimeout})
		}
	}
	d.reset()
	out := d.out
	d.out = nil
	return out
}

// Flush ends the input: an unterminated paste is emitted as it stands and
// any other pending prefix is expired.
func (d *Decoder) Flush() []Event {
	if d.pasting() {
		d.emit(Event{Kind: KindPaste, Text: string(d.paste)})
		d.reset()
		out := d.out
		d.out = nil
		return out
	}
	return d.Expire()
}

func (d *Decoder) pasting() bool {
	return d.state == StateCSI && d.mode == modePaste
}

func (d *Decoder) reset() {
	d.state = StateIdle
	d.resume = StateIdle
	d.mode = modeCSI
	d.buf = d.buf[:0]
	d.need = 0
	d.alt = false
	d.paste = nil
}

func (d *Decoder) emit(ev Event) {
	if d.alt {
		ev = ev.withMod(ModAlt)
	}
	d.out = append(d.out, ev)
}

func (d *Decoder) step(b byte) {
	if d.state == StateTimeoutWait {
		d.state = d.resume
	}
	switch d.state {
	case StateIdle:
		d.idle(b)
	case StateUTF8:
		d.continuation(b)
	case StateEscape:
		d.escape(b)
	case StateCSI:
		d.sequence(b)
	}
}

func (d *Decoder) idle(b byte) {
	switch {
	case b == 0x1b:
		d.state = StateEscape
		d.buf = append(d.buf[:0], b)
	case b < 0x20 || b == 0x7f:
		d.emit(controlEvent(b))
		d.reset()
	case b < 0x80:
		d.emit(RuneEvent(rune(b), 0))
		d.reset()
	case b >= 0xc2 && b <= 0xdf:
		d.startUTF8(b, 1)
	case b >= 0xe0 && b <= 0xef:
		d.startUTF8(b, 2)
	case b >= 0xf0 && b <= 0xf4:
		d.startUTF8(b, 3)
	default:
		d.errors++
		d.emit(RuneEvent(utf8.RuneError, 0))
		d.reset()
	}
}

func (d *Decoder) startUTF8(b byte, need int) {
	d.state = StateUTF8
	d.buf = append(d.buf[:0], b)
	d.need = need
}

func (d *Decoder) continuation(b byte) {
	if b&0xc0 != 0x80 {
		d.errors++
		d.emit(RuneEvent(utf8.RuneError, 0))
		d.reset()
		d.idle(b)
		return
	}
	d.buf = append(d.buf, b)
	d.need--
	if d.need > 0 {
		return
	}
	r, _ := utf8.DecodeRune(d.buf)
	if r == utf8.RuneError {
		// Overlong or surrogate encodings.
		d.errors++
	}
	d.emit(RuneEvent(r, 0))
	d.reset()
}

func (d *Decoder) escape(b byte) {
	switch b {
	case '[':
		d.state = StateCSI
		d.mode = modeCSI
		d.buf = append(d.buf, b)
	case 'O':
		d.state = StateCSI
		d.mode = modeSS3
		d.buf = append(d.buf, b)
	case ']', 'P', '_', '^', 'X':
		d.state = StateCSI
		d.mode = modeString
		d.buf = append(d.buf, b)
	case 0x1b:
		// The first ESC stood alone; the second starts over.
		d.emit(KeyEvent(KeyEscape, 0))
		d.buf = append(d.buf[:0], b)
	default:
		d.state = StateIdle
		d.buf = d.buf[:0]
		d.alt = true
		d.idle(b)
	}
}

func (d *Decoder) sequence(b byte) {
	switch d.mode {
	case modePaste:
		d.paste = append(d.paste, b)
		if bytes.HasSuffix(d.paste, []byte(SeqPasteEnd)) {
			text := d.paste[:len(d.paste)-len(SeqPasteEnd)]
			d.emit(Event{Kind: KindPaste, Text: string(text)})
			d.reset()
		} else if len(d.paste) > maxPaste {
			d.splitPaste()
		}
		return
	case modeString:
		d.buf = append(d.buf, b)
		n := len(d.buf)
		if b == 0x07 || (b == '\\' && d.buf[n-2] == 0x1b) || n > maxString {
			// Terminal reports (OSC, DCS, APC) carry nothing for the editor.
			d.errors++
			d.reset()
		}
		return
	case modeX10:
		d.buf = append(d.buf, b)
		if len(d.buf) == len("\x1b[M")+3 {
			d.finishFallback()
		}
		return
	case modeSS3:
		if b < 0x20 || b == 0x7f {
			d.errors++
			d.reset()
			d.idle(b)
			return
		}
		d.buf = append(d.buf, b)
		if b >= '0' && b <= '9' && len(d.buf) < maxSequence {
			return
		}
		d.finish()
		return
	}

	switch {
	case b >= 0x40 && b <= 0x7e:
		d.buf = append(d.buf, b)
		switch string(d.buf) {
		case SeqPasteStart:
			d.mode = modePaste
			d.paste = d.paste[:0]
			return
		case "\x1b[M":
			d.mode = modeX10
			return
		}
		d.finish()
	case b >= 0x20 && b <= 0x3f:
		d.buf = append(d.buf, b)
		if len(d.buf) > maxSequence {
			d.errors++
			d.reset()
		}
	default:
		// A control byte aborts the sequence and is decoded on its own.
		d.errors++
		d.reset()
		d.idle(b)
	}
}

// splitPaste emits the bulk of an oversized paste and keeps collecting.
// The tail that could still begin the end marker stays buffered, and the
// cut never lands inside a UTF-8 sequence.
func (d *Decoder) splitPaste() {
	cut := len(d.paste) - (len(SeqPasteEnd) - 1)
	for cut > 0 && !utf8.RuneStart(d.paste[cut]) {
		cut--
	}
	d.emit(Event{Kind: KindPaste, Text: string(d.paste[:cut])})
	d.paste = append(d.paste[:0], d.paste[cut:]...)
}

// finish resolves a complete CSI or SS3 sequence.
func (d *Decoder) finish() {
	if ev, ok := lookupSequence(string(d.buf[1:])); ok {
		d.emit(ev)
		d.reset()
		return
	}
	d.finishFallback()
}

func (d *Decoder) finishFallback() {
	if ev, ok := decodeFallback(d.buf); ok {
		d.emit(ev)
	} else {
		raw := make([]byte, len(d.buf))
		copy(raw, d.buf)
		d.emit(Event{Kind: KindKey, Key: KeyUnknown, Raw: raw})
	}
	d.reset()
}
