// Package complete offers command and file path completion for shell input.
package complete

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vito/shline/pkg/editor"
)

const (
	CategoryCommand = "command"
	CategoryDir     = "dir"
	CategoryFile    = "file"
)

// PathSource completes command names from $PATH in command position and
// file paths elsewhere.
type PathSource struct {
	// Dir resolves relative paths; empty means the process working
	// directory at completion time.
	Dir string
	// PathList is searched for commands; empty means $PATH.
	PathList string
	// Builtins are offered as commands alongside $PATH executables.
	Builtins []string
	// Home expands a leading ~; empty means $HOME.
	Home string

	mu       sync.Mutex
	commands []string
	indexed  bool
}

var _ editor.CompletionSource = (*PathSource)(nil)

// Index scans PathList for executables. Complete calls it on first use;
// calling it early from a worker avoids the delay.
func (s *PathSource) Index(ctx context.Context) error {
	pathList := s.PathList
	if pathList == "" {
		pathList = os.Getenv("PATH")
	}
	dirs := filepath.SplitList(pathList)
	found := make([][]string, len(dirs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, dir := range dirs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found[i] = executables(dir)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	seen := map[string]bool{}
	var commands []string
	for _, name := range s.Builtins {
		if !seen[name] {
			seen[name] = true
			commands = append(commands, name)
		}
	}
	for _, names := range found {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				commands = append(commands, name)
			}
		}
	}
	sort.Strings(commands)

	s.mu.Lock()
	s.commands = commands
	s.indexed = true
	s.mu.Unlock()
	return nil
}

func executables(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = os.Stat(filepath.Join(dir, ent.Name())); err != nil || info.IsDir() {
				continue
			}
		}
		if info.Mode().Perm()&0111 != 0 {
			names = append(names, ent.Name())
		}
	}
	return names
}

// Complete returns candidates for the word before the cursor.
func (s *PathSource) Complete(ctx context.Context, line string, cursor int) (editor.Completion, error) {
	start := wordStart(line, cursor)
	word := unescape(line[start:cursor])
	comp := editor.Completion{Start: start, End: cursor}

	if commandPosition(line, start) && !strings.Contains(word, "/") {
		s.mu.Lock()
		indexed := s.indexed
		s.mu.Unlock()
		if !indexed {
			if err := s.Index(ctx); err != nil {
				return comp, err
			}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		i := sort.SearchStrings(s.commands, word)
		for ; i < len(s.commands) && strings.HasPrefix(s.commands[i], word); i++ {
			comp.Candidates = append(comp.Candidates, editor.Candidate{
				Text:     escape(s.commands[i]) + " ",
				Display:  s.commands[i],
				Category: CategoryCommand,
			})
		}
		return comp, nil
	}

	cands, err := s.paths(line[start:cursor])
	comp.Candidates = cands
	return comp, err
}

// paths lists directory entries matching raw, the word as typed.
func (s *PathSource) paths(raw string) ([]editor.Candidate, error) {
	rawDir, base := "", unescape(raw)
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		rawDir, base = raw[:i+1], unescape(raw[i+1:])
	}

	dir := unescape(rawDir)
	switch {
	case dir == "":
		dir = "."
	case strings.HasPrefix(dir, "~/"):
		home := s.Home
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		dir = filepath.Join(home, dir[2:])
	}
	if !filepath.IsAbs(dir) {
		root := s.Dir
		if root == "" {
			var err error
			if root, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		dir = filepath.Join(root, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Nothing to offer for a directory that doesn't exist.
		return nil, nil
	}
	var cands []editor.Candidate
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		isDir := ent.IsDir()
		if ent.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
				isDir = info.IsDir()
			}
		}
		c := editor.Candidate{Display: name, Category: CategoryFile}
		if isDir {
			c.Text = rawDir + escape(name) + "/"
			c.Display += "/"
			c.Category = CategoryDir
		} else {
			c.Text = rawDir + escape(name) + " "
		}
		cands = append(cands, c)
	}
	return cands, nil
}

// wordStart finds the start of the shell word ending at cursor. Escaped
// blanks stay inside the word.
func wordStart(line string, cursor int) int {
	start := 0
	for i := 0; i < cursor; i++ {
		switch line[i] {
		case '\\':
			i++
		case ' ', '\t', '\n', ';', '|', '&', '(', ')', '<', '>', '`':
			start = i + 1
		}
	}
	return min(start, cursor)
}

// commandPosition reports whether a word starting at start names a command.
func commandPosition(line string, start int) bool {
	for i := start - 1; i >= 0; i-- {
		switch line[i] {
		case ' ', '\t':
			continue
		case '\n', ';', '|', '&', '(', '`':
			return true
		default:
			return false
		}
	}
	return true
}

const special = " \t\\'\"$`;|&()<>*?[]#~!{}"

func escape(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if strings.ContainsRune(special, r) && !(r == '~' && i > 0) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
