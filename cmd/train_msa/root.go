package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/neurlang/msahmm/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "train_msa",
		Short:         "Train a profile alignment model on a set of sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("history", "memory", "history store backend: memory, redis or sqlite")
	root.PersistentFlags().String("history-dsn", "", "redis:// URL or sqlite path of the history store")
	root.PersistentFlags().Bool("log-json", false, "log JSON even on a terminal")
	root.PersistentFlags().Bool("debug", false, "log library internals at debug level")

	root.AddCommand(newFitCmd(), newHistoryCmd(), newDevicesCmd())
	return root
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newLogger logs text on a terminal and JSON elsewhere
func newLogger(cmd *cobra.Command) *slog.Logger {
	w := cmd.ErrOrStderr()
	forceJSON, _ := cmd.Flags().GetBool("log-json")
	debug, _ := cmd.Flags().GetBool("debug")
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		logging.SetLevel(slog.LevelDebug)
	}
	return logging.NewWithWriter(w, level, forceJSON || !isTerminal(w))
}
