package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/vito/shline/pkg/ioctx"
	"github.com/vito/shline/pkg/keys"
	"github.com/vito/shline/pkg/render"
)

func keysCmd(cfg *Config) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the decoded event for each key press",
		Long: `keys puts the terminal in raw mode and prints every input event as the
editor's decoder sees it. Press ctrl+c twice in a row to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := setupLogging(*cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			ctx := ioctx.WithLogger(cmd.Context(), logger)
			return dumpKeys(ctx, render.NewProcessTerminal(), *cfg, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the whole event structure")
	return cmd
}

func dumpKeys(ctx context.Context, term render.Terminal, cfg Config, verbose bool) error {
	defer term.Close() //nolint:errcheck

	guard, err := render.AcquireRaw(term)
	if err != nil {
		return err
	}
	defer guard.Release() //nolint:errcheck

	r := keys.NewReader(term.Input(), keys.ReaderOptions{
		Timeout: cfg.EscapeTimeout,
		Logger:  ioctx.Logger(ctx),
	})
	defer r.Close()

	out := ioctx.Stdout(ctx)
	// Raw mode has no output post-processing.
	say := func(s string) { _, _ = io.WriteString(out, s+"\r\n") }
	say("press ctrl+c twice to quit")

	var lastInterrupt bool
	for {
		ev, err := r.ReadEvent(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, keys.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		if verbose {
			say(fmt.Sprintf("%# v", pretty.Formatter(ev)))
		} else {
			say(fmt.Sprintf("%-10s %s %q", ev.Kind, ev, ev.Raw))
		}

		interrupt := ev.Chord() == keys.Chord{Rune: 'c', Mod: keys.ModCtrl}
		if interrupt && lastInterrupt {
			return nil
		}
		lastInterrupt = interrupt
	}
}
