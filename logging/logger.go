// Package logging provides the slog loggers used across msahmm.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	internalLevel slog.LevelVar
	internalOnce  sync.Once
	internal      *slog.Logger
)

// New creates a configured application logger.
// It writes to Stderr and standardizes the "error" key to "err".
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, false)
}

// NewWithWriter creates a logger writing text, or JSON when json is set, to w.
func NewWithWriter(w io.Writer, level slog.Leveler, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Internal returns the process-wide logger used by library packages
// (pipeline, devices, session). Its level is controlled by SetLevel and Quiet.
func Internal() *slog.Logger {
	internalOnce.Do(func() {
		internalLevel.Set(slog.LevelInfo)
		internal = NewWithWriter(os.Stderr, &internalLevel, false)
	})
	return internal
}

// Level reports the current level of the internal logger.
func Level() slog.Level {
	Internal()
	return internalLevel.Level()
}

// SetLevel sets the internal logger level and returns the previous one.
func SetLevel(l slog.Level) slog.Level {
	prev := Level()
	internalLevel.Set(l)
	return prev
}

// Quiet lowers the internal logger to errors only. The returned function
// restores the previous level and must be deferred by the caller.
func Quiet() (restore func()) {
	prev := SetLevel(slog.LevelError)
	return func() {
		internalLevel.Set(prev)
	}
}
