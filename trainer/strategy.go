package trainer

import (
	"github.com/chewxy/math32"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/device"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer"
	"github.com/neurlang/msahmm/learning"
	"github.com/neurlang/msahmm/net/msa"
	"github.com/neurlang/msahmm/parallel"
)

// ExecutionStrategy runs one optimizer step on a batch. It is selected once
// per Fit and owns the model being trained.
type ExecutionStrategy interface {
	Name() string
	Replicas() int
	Model() *msa.Model
	RunStep(b *datasets.Batch) (float32, error)
}

// newStrategy builds the model under the strategy matching the device list:
// data-parallel over every accelerator when there is more than one, or over
// cfg.Replicas replicas when set, single-device otherwise.
func newStrategy(cfg Config, devs []device.Device, numSeq int) (ExecutionStrategy, error) {
	replicas := cfg.Replicas
	if gpus := device.Count(devs, device.GPU); replicas == 0 && gpus > 1 {
		replicas = gpus
	}
	build := func() (*msa.Model, error) {
		m, _, _, err := cfg.Factories.Assemble(numSeq, cfg.ModelLength, cfg.alignment(), cfg.Substitution, cfg.UseSubstitution)
		return m, err
	}
	master, err := build()
	if err != nil {
		return nil, err
	}
	opt, err := learning.NewAdam(learning.HyperParameters{LearningRate: cfg.LearningRate})
	if err != nil {
		return nil, err
	}
	if replicas == 0 {
		return &singleDevice{model: master, opt: opt}, nil
	}
	d := &dataParallel{master: master, opt: opt, replicas: make([]*msa.Model, replicas)}
	for r := range d.replicas {
		if d.replicas[r], err = build(); err != nil {
			return nil, errs.Device(err, "build replica %d of %d", r, replicas)
		}
		if err := d.replicas[r].CopyParameters(master); err != nil {
			return nil, errs.Device(err, "mirror replica %d", r)
		}
	}
	return d, nil
}

// negativeMean returns the loss contribution -sum(ll)/n and its gradient with
// respect to every log-likelihood
func negativeMean(ll []float32, n int) (loss float32, dLoglik []float32) {
	dLoglik = make([]float32, len(ll))
	scale := 1 / float32(n)
	for i, v := range ll {
		loss -= v * scale
		dLoglik[i] = -scale
	}
	return
}

func finite(loss float32) error {
	if math32.IsNaN(loss) || math32.IsInf(loss, 0) {
		return errs.Numeric("loss is %v", loss)
	}
	return nil
}

// singleDevice trains one model in the calling goroutine
type singleDevice struct {
	model *msa.Model
	opt   *learning.Adam
}

func (s *singleDevice) Name() string {
	return "single-device"
}

func (s *singleDevice) Replicas() int {
	return 1
}

func (s *singleDevice) Model() *msa.Model {
	return s.model
}

func (s *singleDevice) RunStep(b *datasets.Batch) (float32, error) {
	s.model.ZeroGrad()
	ll, err := s.model.Forward(msa.InputsOf(b))
	if err != nil {
		return 0, err
	}
	loss, dLoglik := negativeMean(ll, b.Len())
	if err := finite(loss); err != nil {
		return loss, err
	}
	if err := s.model.Backward(dLoglik); err != nil {
		return loss, err
	}
	return loss, s.opt.Step(s.model.Parameters())
}

// dataParallel mirrors the master parameters into every replica, lets each
// replica compute gradients on its shard of the batch concurrently, and
// applies the summed gradient to the master once all replicas are done.
type dataParallel struct {
	master   *msa.Model
	replicas []*msa.Model
	opt      *learning.Adam
}

func (d *dataParallel) Name() string {
	return "data-parallel"
}

func (d *dataParallel) Replicas() int {
	return len(d.replicas)
}

func (d *dataParallel) Model() *msa.Model {
	return d.master
}

func (d *dataParallel) RunStep(b *datasets.Batch) (float32, error) {
	n := b.Len()
	shards := parallel.Shard(n, len(d.replicas))
	partial := make([]float32, len(shards))

	err := parallel.All(len(shards), func(r int) error {
		rep := d.replicas[r]
		if err := rep.CopyParameters(d.master); err != nil {
			return err
		}
		rep.ZeroGrad()
		ll, err := rep.Forward(msa.InputsOf(b.Slice(shards[r][0], shards[r][1])))
		if err != nil {
			return err
		}
		var dLoglik []float32
		partial[r], dLoglik = negativeMean(ll, n)
		if err := finite(partial[r]); err != nil {
			return err
		}
		return rep.Backward(dLoglik)
	})
	if err != nil {
		return 0, err
	}

	// reduce in replica order
	var loss float32
	d.master.ZeroGrad()
	for r := range shards {
		loss += partial[r]
		if err := layer.AccumulateGrads(d.master.Parameters(), d.replicas[r].Parameters()); err != nil {
			return loss, err
		}
	}
	if err := finite(loss); err != nil {
		return loss, err
	}
	return loss, d.opt.Step(d.master.Parameters())
}
