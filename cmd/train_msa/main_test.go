package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/msahmm/logging"
)

const fasta = `>seq1 first
MKVLAAGIVG
>seq2
MKVLSAG-LVG
>seq3
mrvlaggiv
>seq4
MKILAAGV
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFasta(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seqs.fasta")
	require.NoError(t, os.WriteFile(path, []byte(fasta), 0o644))
	return path
}

func TestFitAndHistory(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	dsn := "redis://" + mr.Addr() + "/0"

	out, err := execute(t, "fit",
		"--fasta", writeFasta(t),
		"--model-length", "3",
		"--batch-size", "256",
		"--epochs", "1",
		"--seed", "3",
		"--evaluate",
		"--history", "redis",
		"--history-dsn", dsn)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "4 sequences, 30 steps")
	assert.True(t, strings.HasPrefix(lines[1], "seq1\t-"), lines[1])
	assert.True(t, strings.HasPrefix(lines[4], "seq4\t-"), lines[4])

	out, err = execute(t, "history", "--history", "redis", "--history-dsn", dsn)
	require.NoError(t, err)
	ids := strings.Fields(out)
	require.Len(t, ids, 1)
	assert.Contains(t, lines[0], ids[0])

	out, err = execute(t, "history", ids[0], "--history", "redis", "--history-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "epoch 1\t30 steps")
}

func TestFitConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model_length: 2\nbatch_size: 64\nepochs: 1\nuse_substitution: false\n"), 0o644))

	out, err := execute(t, "fit", "--fasta", writeFasta(t), "--config", cfg, "--verbose=false")
	require.NoError(t, err)
	assert.Contains(t, out, "4 sequences, 30 steps")
}

func TestFitDebug(t *testing.T) {
	prev := logging.Level()
	t.Cleanup(func() { logging.SetLevel(prev) })

	_, err := execute(t, "fit", "--fasta", writeFasta(t), "--model-length", "2", "--verbose=false", "--debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, logging.Level())
}

func TestFitErrors(t *testing.T) {
	_, err := execute(t, "fit", "--model-length", "3")
	assert.Error(t, err)

	_, err = execute(t, "fit", "--fasta", writeFasta(t))
	assert.ErrorContains(t, err, "model length")

	_, err = execute(t, "fit", "--fasta", writeFasta(t), "--model-length", "3", "--history", "nope")
	assert.ErrorContains(t, err, "unsupported history backend")

	_, err = execute(t, "fit", "--fasta", writeFasta(t), "--model-length", "3", "--lr", "0")
	assert.ErrorContains(t, err, "learning rate")
}

func TestDevices(t *testing.T) {
	out, err := execute(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "CPU:0")
	assert.Contains(t, out, "strategy: single-device")
}
