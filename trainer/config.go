package trainer

import (
	"log/slog"

	"github.com/neurlang/msahmm/device"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer/profile"
	"github.com/neurlang/msahmm/logging"
	"github.com/neurlang/msahmm/net/msa"
)

// Config is the immutable configuration of one Fit call
type Config struct {
	ModelLength     int                    // match states of the alignment transform
	Alignment       msa.AlignmentParams    // alignment hyperparameters
	Substitution    msa.SubstitutionParams // substitution hyperparameters
	UseSubstitution bool                   // route sequences through the substitution transform
	UsePrior        bool                   // overrides Alignment.UsePrior
	BatchSize       int                    // sequences per optimizer step (default: 256)
	LearningRate    float32                // Adam step size (default: 0.1)
	Epochs          int                    // number of epochs (default: 4)
	Verbose         bool                   // log progress to Logger
	Debug           bool                   // keep the internal log level instead of raising it to error for the run

	Seed     int64 // shuffle seed, 0 seeds from the clock
	Workers  int   // encode workers of the batch pipeline, 0 for the host default
	Prefetch int   // batches prepared ahead, 0 for the pipeline default
	Replicas int   // when positive, force the data-parallel strategy over this many replicas

	Devices   device.Lister // nil uses device.System
	Factories msa.Factories // zero value uses the reference transforms
	Metrics   *Metrics      // optional
	Logger    *slog.Logger  // progress logger, nil logs to stderr when Verbose
	RunID     string        // history run id, empty for a random one
}

// DefaultConfig returns the configuration of a run with the given model length
func DefaultConfig(modelLength int) Config {
	return Config{
		ModelLength:     modelLength,
		Alignment:       profile.DefaultParams(),
		UseSubstitution: true,
		UsePrior:        true,
		BatchSize:       256,
		LearningRate:    0.1,
		Epochs:          4,
		Verbose:         true,
	}
}

func (c Config) validate() error {
	if c.ModelLength <= 0 {
		return errs.Configuration("model length %d must be positive", c.ModelLength)
	}
	if c.BatchSize <= 0 {
		return errs.Configuration("batch size %d must be positive", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return errs.Configuration("epoch count %d must be positive", c.Epochs)
	}
	if !(c.LearningRate > 0) {
		return errs.Configuration("learning rate %v must be positive", c.LearningRate)
	}
	if c.Replicas < 0 {
		return errs.Configuration("replica count %d is negative", c.Replicas)
	}
	return nil
}

func (c Config) alignment() msa.AlignmentParams {
	p := c.Alignment
	p.UsePrior = c.UsePrior
	return p
}

// quiet raises the internal log level for the duration of a run unless Debug
// is set. The returned function restores it.
func (c Config) quiet() (restore func()) {
	if c.Debug {
		return func() {}
	}
	return logging.Quiet()
}

func (c Config) devices() device.Lister {
	if c.Devices != nil {
		return c.Devices
	}
	return device.System
}

func (c Config) logger() *slog.Logger {
	if !c.Verbose {
		return logging.NewNop()
	}
	if c.Logger != nil {
		return c.Logger
	}
	return logging.New(slog.LevelInfo)
}
