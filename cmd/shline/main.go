package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/vito/shline/pkg/ioctx"
)

// Config holds the command-line flags.
type Config struct {
	Debug         bool
	DebugAddr     string
	LogFile       string
	RenderLog     string
	ConfigFile    string
	HistoryFile   string
	HistoryDB     string
	EscapeTimeout time.Duration
	Color         string
	TabWidth      int
	Mouse         bool
	NoRaw         bool
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "shline [flags]",
		Short: "A small interactive shell built on the shline line editor",
		Long: `shline reads command lines with a full-featured line editor and runs
each one with sh -c. It exists to exercise the editor: multi-line input,
history, completion, suggestions and syntax highlighting.`,
		Example: `  # Start the shell
  shline

  # Log editor internals to a file
  shline --debug --log-file /tmp/shline.log

  # Share history between shells through SQLite
  shline --history-db ~/.local/share/shline/history.db

  # Show what the terminal sends for each key
  shline keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), cfg, cmd.Flags().Changed)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Write logs to this file (discarded if not specified)")
	flags.StringVar(&cfg.DebugAddr, "debug-addr", "", "Serve pprof and expvar on this address")
	flags.DurationVar(&cfg.EscapeTimeout, "timeout", 0, "How long a lone ESC waits for the rest of a sequence")
	flags.StringVar(&cfg.Color, "color", "", "Force a colour profile: truecolor, 256, 16 or none")
	flags.IntVar(&cfg.TabWidth, "tab-width", 0, "Distance between tab stops")
	rootCmd.Flags().StringVar(&cfg.ConfigFile, "config", "", "Path to shline.toml (searched for if not specified)")
	rootCmd.Flags().StringVar(&cfg.RenderLog, "render-log", "", "Write per-frame render statistics as JSON lines to this file")
	rootCmd.Flags().StringVar(&cfg.HistoryFile, "history-file", "", "Flat history file")
	rootCmd.Flags().StringVar(&cfg.HistoryDB, "history-db", "", "SQLite history database (takes precedence over --history-file)")
	rootCmd.Flags().BoolVar(&cfg.Mouse, "mouse", false, "Enable mouse reporting")
	rootCmd.Flags().BoolVar(&cfg.NoRaw, "no-raw", false, "Read lines in cooked mode without the editor")

	rootCmd.AddCommand(keysCmd(&cfg), renderStatsCmd())

	ctx := context.Background()
	ctx = ioctx.WithStdout(ctx, os.Stdout)
	ctx = ioctx.WithStderr(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			var status exitStatus
			if errors.As(err, &status) {
				return
			}
			_, _ = fmt.Fprintln(w, errorStyle.Render(err.Error()))
		}),
	); err != nil {
		var status exitStatus
		if errors.As(err, &status) {
			os.Exit(int(status))
		}
		os.Exit(1)
	}
}
