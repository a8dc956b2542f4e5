package trainer

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/device"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/history"
	"github.com/neurlang/msahmm/layer"
	"github.com/neurlang/msahmm/net/msa"
)

// MinStepsPerEpoch is the least number of optimizer steps in one epoch
const MinStepsPerEpoch = 30

// StepsPerEpoch returns max(30, floor(250*sqrt(n)/batchSize)) for n training
// sequences
func StepsPerEpoch(n, batchSize int) int {
	if n <= 0 || batchSize <= 0 {
		return MinStepsPerEpoch
	}
	steps := int(250 * math.Sqrt(float64(n)) / float64(batchSize))
	if steps < MinStepsPerEpoch {
		return MinStepsPerEpoch
	}
	return steps
}

// ResetTrainingState releases every parameter built by earlier runs in this
// process. It is safe to call when nothing was built.
func ResetTrainingState() {
	layer.Default().Reset()
}

// Fit trains a model on the sequences of store selected by indices, nil for
// all of them. It returns the trained model and the loss of every step.
//
// Errors are not retried. When a step fails the model returned alongside the
// error holds the parameters of the last applied update and must be discarded.
func Fit(store datasets.SequenceStore, indices []int, cfg Config) (model *msa.Model, hist *history.History, err error) {
	ResetTrainingState()
	defer cfg.quiet()()

	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	if indices == nil {
		indices = datasets.AllIndices(store)
	}
	if len(indices) == 0 {
		return nil, nil, errs.Configuration("no sequences to train on")
	}
	if err := datasets.CheckIndices(store, indices); err != nil {
		return nil, nil, err
	}
	_, numSeq := datasets.Groups(indices)
	log := cfg.logger()

	devs, err := cfg.devices().List()
	if err != nil {
		if !errors.Is(err, errs.ErrDevice) {
			err = errs.Device(err, "enumerate devices")
		}
		return nil, nil, err
	}
	strategy, err := newStrategy(cfg, devs, numSeq)
	if err != nil {
		return nil, nil, err
	}
	cfg.Metrics.observeStrategy(strategy.Replicas())

	steps := StepsPerEpoch(len(indices), cfg.BatchSize)
	opts := []datasets.Option{datasets.WithWorkers(cfg.Workers)}
	if cfg.Seed != 0 {
		opts = append(opts, datasets.WithSeed(cfg.Seed))
	}
	if cfg.Prefetch > 0 {
		opts = append(opts, datasets.WithPrefetch(cfg.Prefetch))
	}
	stream, err := datasets.MakeBatches(store, cfg.BatchSize, true, indices, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	hist = history.New(cfg.RunID)
	model = strategy.Model()
	log.Info("training",
		"run", hist.RunID,
		"sequences", len(indices),
		"subsets", numSeq,
		"gpus", device.Count(devs, device.GPU),
		"strategy", strategy.Name(),
		"replicas", strategy.Replicas(),
		"steps_per_epoch", steps,
		"epochs", cfg.Epochs)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		hist.StartEpoch()
		for step := 0; step < steps; step++ {
			b, err := stream.Next()
			if err != nil {
				return model, hist, err
			}
			start := time.Now()
			loss, err := strategy.RunStep(b)
			if err != nil {
				return model, hist, errors.Wrapf(err, "epoch %d step %d", epoch+1, step+1)
			}
			hist.Record(float64(loss))
			cfg.Metrics.observeStep(loss, time.Since(start))
		}
		cfg.Metrics.observeEpoch()
		log.Info("epoch", "epoch", epoch+1, "of", cfg.Epochs, "loss", hist.EpochMean(epoch))
	}
	return model, hist, nil
}
