package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuietRestoresLevel(t *testing.T) {
	prev := SetLevel(slog.LevelDebug)
	defer SetLevel(prev)

	restore := Quiet()
	assert.Equal(t, slog.LevelError, Level())
	restore()
	assert.Equal(t, slog.LevelDebug, Level())
}

func TestNewWithWriterRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, slog.LevelInfo, false)
	l.Info("step failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), "err=boom")

	buf.Reset()
	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, slog.LevelInfo, true).Info("epoch", "loss", 1.5)
	assert.Contains(t, buf.String(), `"loss":1.5`)
}
