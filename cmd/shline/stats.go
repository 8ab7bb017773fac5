package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/vito/shline/pkg/ioctx"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	fullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// frame is one record of the --render-log file.
type frame struct {
	Ts           int64 `json:"ts"`
	TotalUs      int64 `json:"total_us"`
	DiffUs       int64 `json:"diff_us"`
	WriteUs      int64 `json:"write_us"`
	ContentRows  int   `json:"content_rows"`
	VisibleRows  int   `json:"visible_rows"`
	RowsChanged  int   `json:"rows_changed"`
	FullRedraw   bool  `json:"full_redraw"`
	BytesWritten int   `json:"bytes_written"`
	ScrollLines  int   `json:"scroll_lines"`
}

func renderStatsCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "render-stats FILE",
		Short: "Summarize a --render-log file",
		Long: `render-stats reads the JSON lines written by --render-log and prints
frame timings and output volume. With --follow it prints each new frame as
the shell renders it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ioctx.Stdout(cmd.Context())
			if follow {
				return followFrames(cmd.Context(), args[0], out)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck
			frames, err := readFrames(f)
			if err != nil {
				return err
			}
			summarize(out, frames)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Print frames as they are appended")
	return cmd
}

func readFrames(r io.Reader) ([]frame, error) {
	var frames []frame
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var fr frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			continue
		}
		frames = append(frames, fr)
	}
	return frames, sc.Err()
}

func summarize(w io.Writer, frames []frame) {
	row := func(label string, value any) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label)), valueStyle.Render(fmt.Sprint(value)))
	}
	row("frames", len(frames))
	if len(frames) == 0 {
		return
	}

	totals := make([]int64, len(frames))
	var full, bytes, rows, scrolled int
	for i, fr := range frames {
		totals[i] = fr.TotalUs
		if fr.FullRedraw {
			full++
		}
		bytes += fr.BytesWritten
		rows += fr.RowsChanged
		scrolled += fr.ScrollLines
	}
	slices.Sort(totals)
	pct := func(p int) time.Duration {
		return time.Duration(totals[(len(totals)-1)*p/100]) * time.Microsecond
	}

	row("full redraws", full)
	row("p50", pct(50))
	row("p95", pct(95))
	row("max", pct(100))
	row("bytes", bytes)
	row("bytes/frame", bytes/len(frames))
	row("rows/frame", fmt.Sprintf("%.1f", float64(rows)/float64(len(frames))))
	row("scrolled", scrolled)
}

func printFrame(w io.Writer, fr frame) {
	line := fmt.Sprintf("%8s  diff %-8s write %-8s rows %2d/%-2d  %5d bytes",
		time.Duration(fr.TotalUs)*time.Microsecond,
		time.Duration(fr.DiffUs)*time.Microsecond,
		time.Duration(fr.WriteUs)*time.Microsecond,
		fr.RowsChanged, fr.VisibleRows, fr.BytesWritten)
	if fr.FullRedraw {
		line += fullStyle.Render("  full")
	}
	fmt.Fprintln(w, line)
}

// followFrames tails path, starting at its end and reopening it when it is
// truncated by a new shell.
func followFrames(ctx context.Context, path string, w io.Writer) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		f, err := os.Open(path)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
				continue
			}
		}
		f.Seek(0, io.SeekEnd) //nolint:errcheck

		br := bufio.NewReader(f)
		var partial []byte
		for reopen := false; !reopen; {
			for {
				chunk, err := br.ReadBytes('\n')
				partial = append(partial, chunk...)
				if err != nil {
					break
				}
				var fr frame
				if json.Unmarshal(partial, &fr) == nil {
					printFrame(w, fr)
				}
				partial = partial[:0]
			}

			select {
			case <-ctx.Done():
				f.Close()
				return nil
			case <-tick.C:
			}

			info, err := f.Stat()
			pos, _ := f.Seek(0, io.SeekCurrent)
			reopen = err != nil || info.Size() < pos
		}
		f.Close()
	}
}
