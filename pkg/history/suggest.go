package history

import (
	"context"
	"strings"
)

// Prefixer finds the newest history entry extending a prefix.
type Prefixer interface {
	Prefix(prefix string) (string, bool)
}

// Suggester proposes the newest history entry that extends the current
// line. Blank lines get no suggestion.
type Suggester struct {
	Store Prefixer
}

func (s Suggester) Suggest(ctx context.Context, line string) (string, bool) {
	if strings.TrimSpace(line) == "" || ctx.Err() != nil {
		return "", false
	}
	return s.Store.Prefix(line)
}
