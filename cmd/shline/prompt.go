package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/vito/shline/pkg/config"
	"github.com/vito/shline/pkg/editor"
	"github.com/vito/shline/pkg/screen"
)

var (
	cwdStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// prompt shows the working directory, the git branch and the last exit
// status. The branch is looked up on a worker and the prompt redrawn when
// it arrives.
type prompt struct {
	ed   *editor.Editor
	conf config.PromptSection

	mu     sync.Mutex
	cwd    string
	branch string
	status int
}

var _ editor.PromptProvider = (*prompt)(nil)

func newPrompt(ed *editor.Editor, conf config.PromptSection) *prompt {
	return &prompt{ed: ed, conf: conf}
}

func (p *prompt) setStatus(status int) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// refresh re-reads the working directory and starts a branch lookup.
func (p *prompt) refresh() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}
	p.mu.Lock()
	changed := cwd != p.cwd
	p.cwd = cwd
	if changed {
		p.branch = ""
	}
	p.mu.Unlock()

	p.ed.Go(func(ctx context.Context) error {
		branch, err := gitBranch(ctx, cwd)
		if err != nil {
			return err
		}
		p.ed.Dispatch(func() {
			p.mu.Lock()
			stale := p.cwd != cwd || p.branch == branch
			if !stale {
				p.branch = branch
			}
			p.mu.Unlock()
			if !stale {
				p.ed.RefreshPrompt()
			}
		})
		return nil
	})
}

func gitBranch(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		// Not a repository.
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *prompt) Prompt() editor.Prompt {
	cont := p.conf.Continuation
	if cont == "" {
		cont = "> "
	}
	if p.conf.Primary != "" {
		return editor.Prompt{
			Primary:      screen.ParseStyled(p.conf.Primary),
			Continuation: screen.ParseStyled(cont),
		}
	}

	p.mu.Lock()
	cwd, branch, status := p.cwd, p.branch, p.status
	p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(cwdStyle.Render(shortenHome(cwd)))
	if branch != "" {
		sb.WriteString(" " + branchStyle.Render("("+branch+")"))
	}
	if status != 0 {
		sb.WriteString(" " + failStyle.Render("["+strconv.Itoa(status)+"]"))
	}
	sb.WriteString(" $ ")
	return editor.Prompt{
		Primary:      screen.ParseStyled(sb.String()),
		Continuation: screen.ParseStyled(cont),
	}
}

func shortenHome(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dir
	}
	if dir == home {
		return "~"
	}
	if rel, ok := strings.CutPrefix(dir, home+string(filepath.Separator)); ok {
		return "~/" + rel
	}
	return dir
}
