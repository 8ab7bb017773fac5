package editor

// killRing holds killed text, newest last. Yank-pop walks backwards from
// the newest entry.
type killRing struct {
	entries []string
	max     int
	yank    int
}

func newKillRing(max int) *killRing {
	return &killRing{max: max}
}

// push records killed text. When merge is set the text joins the newest
// entry instead, before it for backward kills and after it otherwise.
func (k *killRing) push(text string, merge, backward bool) {
	if text == "" {
		return
	}
	if merge && len(k.entries) > 0 {
		last := len(k.entries) - 1
		if backward {
			k.entries[last] = text + k.entries[last]
		} else {
			k.entries[last] += text
		}
		k.yank = last
		return
	}
	k.entries = append(k.entries, text)
	if len(k.entries) > k.max {
		k.entries = k.entries[len(k.entries)-k.max:]
	}
	k.yank = len(k.entries) - 1
}

// top returns the newest entry and rewinds yank-pop to it.
func (k *killRing) top() (string, bool) {
	if len(k.entries) == 0 {
		return "", false
	}
	k.yank = len(k.entries) - 1
	return k.entries[k.yank], true
}

// rotate returns the entry before the last one yanked, wrapping around.
func (k *killRing) rotate() (string, bool) {
	if len(k.entries) == 0 {
		return "", false
	}
	k.yank--
	if k.yank < 0 {
		k.yank = len(k.entries) - 1
	}
	return k.entries[k.yank], true
}
