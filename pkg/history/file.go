// Package history provides the line history stores used by the editor: a
// flat file and a SQLite database. Both suppress consecutive duplicates and
// answer prefix lookups for inline suggestions.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultLimit is the number of entries kept when none is configured.
const DefaultLimit = 1000

// DefaultDir returns the directory history files live in, respecting
// XDG_DATA_HOME (default ~/.local/share/shline).
func DefaultDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "shline")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "shline")
}

// FileStore keeps history in memory and appends each new entry to a file,
// one escaped entry per line.
type FileStore struct {
	path  string
	limit int

	mu      sync.Mutex
	entries []string
	// written counts lines in the file, which may exceed len(entries)
	// until the next compaction.
	written int
}

// OpenFile loads the history file at path. A missing file is an empty
// history. limit <= 0 means DefaultLimit.
func OpenFile(path string, limit int) (*FileStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &FileStore{path: path, limit: limit}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		s.entries = append(s.entries, unescape(line))
		s.written++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	if len(s.entries) > limit {
		s.entries = s.entries[len(s.entries)-limit:]
		if err := s.rewrite(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *FileStore) Entry(seq int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < 0 || seq >= len(s.entries) {
		return "", false
	}
	return s.entries[seq], true
}

// Add appends line unless it repeats the newest entry.
func (s *FileStore) Add(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.entries); n > 0 && s.entries[n-1] == line {
		return nil
	}
	s.entries = append(s.entries, line)
	if len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}

	// Let the file grow to twice the limit before compacting it.
	if s.written >= 2*s.limit {
		return s.rewrite()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "create history dir")
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "open history")
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, escape(line)); err != nil {
		return errors.Wrap(err, "append history")
	}
	s.written++
	return nil
}

// Prefix returns the newest entry that extends prefix.
func (s *FileStore) Prefix(prefix string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if e := s.entries[i]; len(e) > len(prefix) && strings.HasPrefix(e, prefix) {
			return e, true
		}
	}
	return "", false
}

// rewrite replaces the file with the in-memory entries.
func (s *FileStore) rewrite() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "create history dir")
	}
	var buf strings.Builder
	for _, entry := range s.entries {
		buf.WriteString(escape(entry))
		buf.WriteByte('\n')
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), 0600); err != nil {
		return errors.Wrap(err, "write history")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace history")
	}
	s.written = len(s.entries)
	return nil
}

// escape makes an entry fit on one line: newlines become \n and
// backslashes \\.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func unescape(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			buf.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			buf.WriteByte('\n')
			i++
		case '\\':
			buf.WriteByte('\\')
			i++
		default:
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}
