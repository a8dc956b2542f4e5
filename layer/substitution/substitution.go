// Package substitution implements a reference substitution transform: the
// equal-rate substitution process over the standard amino acids, evaluated at
// a trainable evolutionary time per sequence subset.
//
// The transition matrix is the closed-form matrix exponential
// P(t) = exp(-t) I + (1 - exp(-t)) J/20, applied at masked positions only.
package substitution

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer"
	"github.com/neurlang/msahmm/tensor"
)

// TauKernel is the name of the per-subset time parameter
const TauKernel = "tau_kernel"

const standard = datasets.StandardAminoAcids

// Params holds the substitution transform hyperparameters
type Params struct {
	TauInit float32 `mapstructure:"tau_init" yaml:"tau_init"` // initial time kernel, time = softplus(kernel)
	Frozen  bool    `mapstructure:"frozen" yaml:"frozen"`     // keep the time kernels fixed
}

// Substitution is the reference substituter
type Substitution struct {
	tau *layer.Parameter

	// forward cache
	x, mask tensor.D3
	subset  []int32
	decay   []float32 // exp(-t) per subset
}

// New creates a substitution transform with one time kernel per sequence subset
func New(numSeq int, params Params) (*Substitution, error) {
	if numSeq <= 0 {
		return nil, errs.Configuration("sequence count %d must be positive", numSeq)
	}
	o := &Substitution{tau: layer.NewParameter(TauKernel, numSeq)}
	o.tau.Trainable = !params.Frozen
	for i := range o.tau.Value.Data {
		o.tau.Value.Data[i] = params.TauInit
	}
	return o, nil
}

// MustNew creates a substitution transform or panics
func MustNew(numSeq int, params Params) *Substitution {
	o, err := New(numSeq, params)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// Parameters returns the time kernels
func (o *Substitution) Parameters() []*layer.Parameter {
	return []*layer.Parameter{o.tau}
}

// Time returns the evolutionary time of subset g
func (o *Substitution) Time(g int) float32 {
	return softplus(o.tau.Value.Data[g])
}

func softplus(v float32) float32 {
	if v > 20 {
		return v
	}
	return math32.Log1p(math32.Exp(v))
}

func sigmoid(v float32) float32 {
	return 1 / (1 + math32.Exp(-v))
}

func (o *Substitution) check(x, mask tensor.D3, subset []int32) error {
	if x.Dims[2] < standard {
		return fmt.Errorf("substitution: one-hot width %d below %d", x.Dims[2], standard)
	}
	if mask.Dims != [3]int{x.Dims[0], x.Dims[1], 1} {
		return fmt.Errorf("substitution: mask shape %v does not match sequences %v", mask.Dims, x.Dims)
	}
	if len(subset) != x.Dims[0] {
		return fmt.Errorf("substitution: %d subset indices for batch of %d", len(subset), x.Dims[0])
	}
	for _, g := range subset {
		if g < 0 || int(g) >= o.tau.Len() {
			return errs.Index("subset index %d outside [0, %d)", g, o.tau.Len())
		}
	}
	return nil
}

// Forward substitutes the standard amino acid positions of x
func (o *Substitution) Forward(x, mask tensor.D3, subset []int32) (tensor.D3, error) {
	if err := o.check(x, mask, subset); err != nil {
		return tensor.D3{}, err
	}
	o.x, o.mask, o.subset = x, mask, subset
	if len(o.decay) != o.tau.Len() {
		o.decay = make([]float32, o.tau.Len())
	}
	for g := range o.decay {
		o.decay[g] = math32.Exp(-o.Time(g))
	}

	y := x.Clone()
	for i := 0; i < x.Dims[0]; i++ {
		e := o.decay[subset[i]]
		for j := 0; j < x.Dims[1]; j++ {
			m := mask.At(i, j, 0)
			if m == 0 {
				continue
			}
			row := x.Row(i, j)[:standard]
			var sigma float32
			for _, v := range row {
				sigma += v
			}
			out := y.Row(i, j)[:standard]
			for s, v := range row {
				sub := e*v + (1-e)*sigma/standard
				out[s] = m*sub + (1-m)*v
			}
		}
	}
	return y, nil
}

// Backward accumulates the time kernel gradient
func (o *Substitution) Backward(dy tensor.D3) error {
	if o.decay == nil {
		return fmt.Errorf("substitution: backward before forward")
	}
	if err := dy.SameShape(o.x); err != nil {
		return fmt.Errorf("substitution: %v", err)
	}
	grad := o.tau.Grad.Data
	for i := 0; i < o.x.Dims[0]; i++ {
		g := o.subset[i]
		e := o.decay[g]
		var acc float32
		for j := 0; j < o.x.Dims[1]; j++ {
			m := o.mask.At(i, j, 0)
			if m == 0 {
				continue
			}
			row := o.x.Row(i, j)[:standard]
			var sigma float32
			for _, v := range row {
				sigma += v
			}
			drow := dy.Row(i, j)[:standard]
			var dt float32
			for s, v := range row {
				dt += drow[s] * e * (sigma/standard - v)
			}
			acc += m * dt
		}
		grad[g] += acc * sigmoid(o.tau.Value.Data[g])
	}
	return nil
}
