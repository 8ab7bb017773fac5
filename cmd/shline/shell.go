package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"charm.land/lipgloss/v2"

	"github.com/vito/shline/pkg/complete"
	"github.com/vito/shline/pkg/config"
	"github.com/vito/shline/pkg/editor"
	"github.com/vito/shline/pkg/highlight"
	"github.com/vito/shline/pkg/history"
	"github.com/vito/shline/pkg/ioctx"
	"github.com/vito/shline/pkg/render"
	"github.com/vito/shline/pkg/termcap"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
)

var (
	linesRead   = expvar.NewInt("lines_read")
	commandsRun = expvar.NewInt("commands_run")
)

var builtins = []string{"cd", "exit"}

// historyStore is what the shell needs from either history backend.
type historyStore interface {
	editor.HistoryStore
	history.Prefixer
}

func setupLogging(cfg Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = io.Discard
	closer := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// loadSettings merges shline.toml with the flags; flags that were set
// explicitly win.
func loadSettings(cfg Config, changed func(string) bool) (editor.Config, *config.File, error) {
	var file *config.File
	var err error
	if cfg.ConfigFile != "" {
		file, err = config.Load(cfg.ConfigFile)
	} else {
		cwd, _ := os.Getwd()
		_, file, err = config.Find(cwd)
	}
	if err != nil {
		return editor.Config{}, nil, err
	}
	if file == nil {
		file = &config.File{}
	}

	var ecfg editor.Config
	if err := file.Apply(&ecfg); err != nil {
		return editor.Config{}, nil, err
	}
	if changed("timeout") {
		ecfg.EscapeTimeout = cfg.EscapeTimeout
	}
	if changed("tab-width") {
		ecfg.TabWidth = cfg.TabWidth
	}
	if changed("color") {
		p, err := termcap.ParseProfile(cfg.Color)
		if err != nil {
			return editor.Config{}, nil, err
		}
		ecfg.Caps.Profile = &p
	}
	if changed("mouse") {
		ecfg.Mouse = cfg.Mouse
	}
	if changed("no-raw") {
		ecfg.DisableRaw = cfg.NoRaw
	}
	if changed("history-file") {
		file.History.File = cfg.HistoryFile
	}
	if changed("history-db") {
		file.History.DB = cfg.HistoryDB
	}
	ecfg.IsComplete = lineComplete
	return ecfg, file, nil
}

func openHistory(ctx context.Context, h config.HistorySection) (historyStore, func(), error) {
	if h.DB != "" {
		db, err := history.OpenSQLite(ctx, h.DB, h.Limit)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	path := h.File
	if path == "" {
		path = filepath.Join(history.DefaultDir(), "history")
	}
	store, err := history.OpenFile(path, h.Limit)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func runShell(ctx context.Context, cfg Config, changed func(string) bool) error {
	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = ioctx.WithLogger(ctx, logger)

	ecfg, file, err := loadSettings(cfg, changed)
	if err != nil {
		return err
	}

	if cfg.RenderLog != "" {
		f, err := os.OpenFile(cfg.RenderLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("open render log: %w", err)
		}
		defer f.Close() //nolint:errcheck // best-effort close of debug log
		ecfg.StatsWriter = f
	}

	hist, closeHist, err := openHistory(ctx, file.History)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer closeHist()

	paths := &complete.PathSource{Builtins: builtins}
	opts := []editor.Option{
		editor.WithLogger(logger),
		editor.WithHistory(hist),
		editor.WithCompletion(paths),
		editor.WithSuggester(history.Suggester{Store: hist}),
	}
	if !file.Highlight.Disable {
		opts = append(opts, editor.WithClassifier(highlight.New(file.Highlight.Lexer, file.Highlight.Style)))
	}

	term := render.NewProcessTerminal()
	defer term.Close() //nolint:errcheck

	ed, err := editor.New(term, ecfg, opts...)
	if err != nil {
		return err
	}
	defer ed.Close() //nolint:errcheck

	if cfg.DebugAddr != "" {
		if err := setupDebugHandlers(cfg.DebugAddr, ed); err != nil {
			return fmt.Errorf("debug handlers: %w", err)
		}
	}

	ed.Go(paths.Index)

	sh := &shell{
		ed:     ed,
		prompt: newPrompt(ed, file.Prompt),
		stdout: ioctx.Stdout(ctx),
		stderr: ioctx.Stderr(ctx),
		logger: logger,
	}
	defer sh.forwardInterrupts(ctx)()
	if term.IsTerminal() {
		fmt.Fprintln(sh.stdout, bannerStyle.Render("shline")+statusStyle.Render(" · ctrl+d to exit"))
	}
	return sh.loop(ctx)
}

// exitStatus ends the process with a status set by the exit builtin.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type shell struct {
	ed     *editor.Editor
	prompt *prompt
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	status int

	// child is set while a command owns the terminal.
	child atomic.Bool
}

// forwardInterrupts turns SIGINT into Editor.Abort for the life of the
// shell. Raw mode delivers ^C as a key; this covers cooked input and
// signals sent from elsewhere. The returned func stops forwarding.
func (s *shell) forwardInterrupts(ctx context.Context) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-sigs:
				if s.child.Load() {
					continue
				}
				s.logger.Debug("interrupt")
				s.ed.Abort()
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func (s *shell) loop(ctx context.Context) error {
	for {
		s.prompt.refresh()
		line, err := s.ed.ReadLine(ctx, editor.PromptConfig{Prompt: s.prompt})
		switch {
		case editor.IsInterrupt(err):
			continue
		case editor.IsEOF(err):
			return nil
		case err != nil:
			return err
		}
		linesRead.Add(1)

		if strings.TrimSpace(line) == "" {
			continue
		}
		done, err := s.run(ctx, line)
		if err != nil {
			fmt.Fprintln(s.stderr, errorStyle.Render(err.Error()))
		}
		if done {
			if s.status != 0 {
				return exitStatus(s.status)
			}
			return nil
		}
	}
}

// run executes one line. It reports whether the shell should exit.
func (s *shell) run(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "exit":
		if len(fields) > 1 {
			code, err := strconv.Atoi(fields[1])
			if err != nil {
				return false, fmt.Errorf("exit: %s: numeric argument required", fields[1])
			}
			s.status = code
		}
		return true, nil
	case "cd":
		dir := ""
		if len(fields) > 1 {
			dir = fields[1]
		}
		return false, s.cd(dir)
	}

	if err := s.ed.Suspend(); err != nil {
		return false, err
	}
	defer func() {
		if err := s.ed.Resume(); err != nil {
			s.logger.Warn("resume editor", "error", err)
		}
	}()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", line)
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	// The child handles ^C itself; the shell survives it.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigs)

	commandsRun.Add(1)
	s.child.Store(true)
	err := cmd.Run()
	s.child.Store(false)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		s.status = 0
	case errors.As(err, &exitErr):
		s.status = exitErr.ExitCode()
		fmt.Fprintln(s.stderr, statusStyle.Render(fmt.Sprintf("exit status %d", s.status)))
	default:
		return false, err
	}
	s.prompt.setStatus(s.status)
	return false, nil
}

func (s *shell) cd(dir string) error {
	if dir == "" || dir == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = home
	} else if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, rest)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	return nil
}

// lineComplete reports whether Enter should accept line: an unfinished
// quote or a trailing backslash continues it on the next row.
func lineComplete(line string) bool {
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		}
	}
	return quote == 0 && !escaped
}
