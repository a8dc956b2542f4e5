package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer/profile"
)

const runFile = `
model_length: 40
batch_size: 64
epochs: 2
use_substitution: false
verbose: false
seed: 11
replicas: 2
alignment:
  alpha_single: 2
  use_prior: true
  emission_init: [0.5, 0, -0.5]
  trainable_kernels:
    emission_kernel: "false"
substitution:
  tau_init: -1.5
history:
  kind: redis
  dsn: redis://localhost:6379/0
metrics_addr: ":9090"
`

func TestTrainerConfig(t *testing.T) {
	f, err := Parse([]byte(runFile))
	require.NoError(t, err)
	assert.Equal(t, "redis", f.History.Kind)
	assert.Equal(t, ":9090", f.MetricsAddr)

	cfg, err := f.Trainer()
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.ModelLength)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, float32(0.1), cfg.LearningRate)
	assert.Equal(t, 2, cfg.Epochs)
	assert.False(t, cfg.UseSubstitution)
	assert.True(t, cfg.UsePrior)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, 2, cfg.Replicas)

	d := profile.DefaultParams()
	assert.Equal(t, float32(2), cfg.Alignment.AlphaSingle)
	assert.Equal(t, d.AlphaFlank, cfg.Alignment.AlphaFlank)
	assert.Equal(t, []float32{0.5, 0, -0.5}, cfg.Alignment.EmissionInit)
	assert.Equal(t, map[string]bool{profile.EmissionKernel: false}, cfg.Alignment.TrainableKernels)
	assert.Equal(t, float32(-1.5), cfg.Substitution.TauInit)
}

func TestDefaults(t *testing.T) {
	f, err := Parse([]byte("model_length: 10\n"))
	require.NoError(t, err)
	cfg, err := f.Trainer()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Epochs)
	assert.True(t, cfg.UseSubstitution)
	assert.True(t, cfg.UsePrior)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, profile.DefaultParams(), cfg.Alignment)
}

func TestAlignmentPriorFlag(t *testing.T) {
	tests := []struct {
		name string
		file string
		want bool
	}{
		{"default", "model_length: 3\n", true},
		{"alignment only", "model_length: 3\nalignment:\n  use_prior: false\n", false},
		{"top level only", "model_length: 3\nuse_prior: false\n", false},
		{"top level wins", "model_length: 3\nuse_prior: true\nalignment:\n  use_prior: false\n", true},
		{"top level wins off", "model_length: 3\nuse_prior: false\nalignment:\n  use_prior: true\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.file))
			require.NoError(t, err)
			cfg, err := f.Trainer()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.UsePrior)
			assert.Equal(t, tt.want, cfg.Alignment.UsePrior)
		})
	}
}

func TestRejectsUnknownHyperparameter(t *testing.T) {
	f, err := Parse([]byte("alignment:\n  alpha_singel: 2\n"))
	require.NoError(t, err)
	_, err = f.Trainer()
	assert.True(t, errors.Is(err, errs.ErrConfiguration), "got %v", err)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("model_length: ["))
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(runFile), 0o644))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, f.ModelLength)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
