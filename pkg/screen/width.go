package screen

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// WidthFunc returns the number of columns a grapheme cluster occupies.
type WidthFunc func(cluster string) int

// ClusterWidth returns the width function for a terminal. Control
// characters are two columns wide because they are shown in caret
// notation. With ambiguousWide, East Asian ambiguous characters take two
// columns as they do on CJK-configured terminals.
func ClusterWidth(ambiguousWide bool) WidthFunc {
	return func(cluster string) int {
		r, _ := utf8.DecodeRuneInString(cluster)
		if isControl(r) {
			return 2
		}
		if ambiguousWide && runewidth.IsAmbiguousWidth(r) {
			return 2
		}
		return uniseg.StringWidth(cluster)
	}
}

// StringWidth sums the cluster widths of s under width.
func StringWidth(s string, width WidthFunc) int {
	var n int
	state := -1
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		n += width(cluster)
	}
	return n
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0)
}

// caret returns the caret notation for a control character. C1 controls
// are shown by their 7-bit equivalents.
func caret(r rune) string {
	switch {
	case r == 0x7f:
		return "^?"
	case r < 0x20:
		return "^" + string(rune(r+'@'))
	default:
		return "^" + string(rune(r-0x80+'@'))
	}
}
