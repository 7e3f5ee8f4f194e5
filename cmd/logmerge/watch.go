package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"logmerge/internal/render"
	"logmerge/internal/watcher"
)

const watchDebounce = 100 * time.Millisecond

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

var watchCmd = &cobra.Command{
	Use:   "watch LEFT RIGHT",
	Short: "Merge two log files and re-print whenever either changes",
	Args:  cobra.ExactArgs(2),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := render.New(cfg.Format, outputWidth())
	if err != nil {
		return err
	}

	w, err := watcher.New(args, watchDebounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	go w.Start(ctx)

	return watchLoop(cmd.OutOrStdout(), r, args[0], args[1], w.Changes(), term.IsTerminal(int(os.Stdout.Fd())))
}

// watchLoop renders once, then again after every change until changes is
// closed. Parse errors are reported and the loop keeps waiting, since the
// file is likely mid-write.
func watchLoop(out io.Writer, r render.Renderer, leftPath, rightPath string, changes <-chan string, clearFirst bool) error {
	show := func() error {
		rows, err := mergeFiles(leftPath, rightPath)
		if err != nil {
			slog.Warn("Merge failed, waiting for next change", "error", err)
			return nil
		}
		if clearFirst {
			if _, err := io.WriteString(out, clearScreen); err != nil {
				return err
			}
		}
		return r.Render(out, leftPath, rightPath, rows)
	}

	if err := show(); err != nil {
		return err
	}
	for path := range changes {
		slog.Debug("Log changed", "path", path)
		if err := show(); err != nil {
			return err
		}
	}
	return nil
}
