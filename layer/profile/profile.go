// Package profile implements a reference alignment transform: a mixture of
// match-state emission profiles scoring every non-terminal position of a
// sequence, with the terminal symbol absorbed with probability one.
//
// It satisfies layer.Aligner so the training core can run end to end; it does
// not implement the profile HMM forward algorithm.
package profile

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer"
	"github.com/neurlang/msahmm/tensor"
)

// EmissionKernel is the name of the emission parameter
const EmissionKernel = "emission_kernel"

// width is the number of emitting symbols, every symbol except the terminal one
const width = datasets.AlphabetSize - 1

// Profile is the reference aligner
type Profile struct {
	length int
	numSeq int
	params Params

	emission *layer.Parameter

	// forward cache
	x  tensor.D3
	sm []float32 // (length, width) softmax of the emission kernel
	q  []float32 // (batch, seqlen, length) per-state emission probability
	p  []float32 // (batch, seqlen) position likelihood
}

// MustNew creates a new profile or panics
func MustNew(length, numSeq int, params Params) *Profile {
	o, err := New(length, numSeq, params)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a profile with length match states for a run over numSeq sequences
func New(length, numSeq int, params Params) (*Profile, error) {
	if length <= 0 {
		return nil, errs.Configuration("model length %d must be positive", length)
	}
	if numSeq <= 0 {
		return nil, errs.Configuration("sequence count %d must be positive", numSeq)
	}
	if params.DirichletMixCompCount < 0 {
		return nil, errs.Configuration("dirichlet mixture component count %d is negative", params.DirichletMixCompCount)
	}
	if params.UsePrior && params.AlphaSingle <= 0 {
		return nil, errs.Configuration("alpha_single %v must be positive when the prior is used", params.AlphaSingle)
	}
	if params.AlphaFlank < 0 || params.AlphaFrag < 0 {
		return nil, errs.Configuration("prior strengths must not be negative")
	}
	o := &Profile{
		length:   length,
		numSeq:   numSeq,
		params:   params,
		emission: layer.NewParameter(EmissionKernel, length*width),
	}
	o.emission.Trainable = params.trainable(EmissionKernel)
	if err := o.initEmission(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Profile) initEmission() error {
	data := o.emission.Value.Data
	switch len(o.params.EmissionInit) {
	case 0:
	case width:
		for k := 0; k < o.length; k++ {
			copy(data[k*width:(k+1)*width], o.params.EmissionInit)
		}
	case len(data):
		copy(data, o.params.EmissionInit)
	default:
		return errs.Configuration("emission_init has %d values, want %d or %d",
			len(o.params.EmissionInit), width, len(data))
	}
	if o.params.Jitter != 0 {
		r := rand.New(rand.NewSource(o.params.Seed))
		for i := range data {
			data[i] += o.params.Jitter * (2*r.Float32() - 1)
		}
	}
	return nil
}

// Length returns the number of match states
func (o *Profile) Length() int {
	return o.length
}

// Parameters returns the emission kernel
func (o *Profile) Parameters() []*layer.Parameter {
	return []*layer.Parameter{o.emission}
}

// softmax fills o.sm with the row-wise softmax of the emission kernel
func (o *Profile) softmax() {
	if len(o.sm) != o.length*width {
		o.sm = make([]float32, o.length*width)
	}
	e := o.emission.Value.Data
	for k := 0; k < o.length; k++ {
		row := e[k*width : (k+1)*width]
		out := o.sm[k*width : (k+1)*width]
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		var sum float32
		for s, v := range row {
			out[s] = math32.Exp(v - max)
			sum += out[s]
		}
		for s := range out {
			out[s] /= sum
		}
	}
}

// logPrior returns the symmetric Dirichlet log density (up to a constant) of
// the emission distributions
func (o *Profile) logPrior() float32 {
	if !o.params.UsePrior {
		return 0
	}
	var sum float32
	for _, v := range o.sm {
		sum += math32.Log(v)
	}
	return (o.params.AlphaSingle - 1) * sum
}

// Forward returns the log-likelihood of every sequence of x
func (o *Profile) Forward(x tensor.D3) ([]float32, error) {
	if x.Dims[2] != datasets.AlphabetSize {
		return nil, fmt.Errorf("profile: one-hot width %d, want %d", x.Dims[2], datasets.AlphabetSize)
	}
	batch, seqlen := x.Dims[0], x.Dims[1]
	o.softmax()
	o.x = x
	o.q = make([]float32, batch*seqlen*o.length)
	o.p = make([]float32, batch*seqlen)

	sm := blas32.General{Rows: o.length, Cols: width, Stride: width, Data: o.sm}
	prior := o.logPrior() / float32(o.numSeq)
	inv := 1 / float32(o.length)
	var ll = make([]float32, batch)
	for i := 0; i < batch; i++ {
		if seqlen == 0 {
			ll[i] = prior
			continue
		}
		xi := x.Matrix(i)
		xi.Cols = width
		xi.Data = xi.Data[:(seqlen-1)*xi.Stride+width]
		qi := blas32.General{Rows: seqlen, Cols: o.length, Stride: o.length, Data: o.q[i*seqlen*o.length : (i+1)*seqlen*o.length]}
		blas32.Gemm(blas.NoTrans, blas.Trans, 1, xi, sm, 0, qi)

		var sum float32
		for j := 0; j < seqlen; j++ {
			var m float32
			for _, v := range qi.Data[j*o.length : (j+1)*o.length] {
				m += v
			}
			p := m*inv + x.At(i, j, width)
			o.p[i*seqlen+j] = p
			sum += math32.Log(p)
		}
		ll[i] = sum + prior
	}
	return ll, nil
}

// Backward accumulates the emission gradient and returns the input gradient
func (o *Profile) Backward(dLoglik []float32) (tensor.D3, error) {
	if o.p == nil {
		return tensor.D3{}, fmt.Errorf("profile: backward before forward")
	}
	x := o.x
	batch, seqlen := x.Dims[0], x.Dims[1]
	if len(dLoglik) != batch {
		return tensor.D3{}, fmt.Errorf("profile: %d upstream gradients for batch of %d", len(dLoglik), batch)
	}
	inv := 1 / float32(o.length)

	// mean emission probability of every symbol across states
	var c = make([]float32, width)
	for k := 0; k < o.length; k++ {
		for s := 0; s < width; s++ {
			c[s] += o.sm[k*width+s] * inv
		}
	}

	dx := tensor.NewD3ZerosLike(x)
	var a = make([]float32, width)    // sum_ij w_ij x_ijs
	var g = make([]float32, o.length) // sum_ij w_ij q_ijk
	var dsum float32
	for i := 0; i < batch; i++ {
		dsum += dLoglik[i]
		for j := 0; j < seqlen; j++ {
			w := dLoglik[i] / o.p[i*seqlen+j]
			row := x.Row(i, j)
			drow := dx.Row(i, j)
			for s := 0; s < width; s++ {
				drow[s] = w * c[s]
				a[s] += w * row[s]
			}
			drow[width] = w
			q := o.q[(i*seqlen+j)*o.length : (i*seqlen+j+1)*o.length]
			for k, v := range q {
				g[k] += w * v
			}
		}
	}

	grad := o.emission.Grad.Data
	var priorScale float32
	if o.params.UsePrior {
		priorScale = dsum / float32(o.numSeq) * (o.params.AlphaSingle - 1)
	}
	for k := 0; k < o.length; k++ {
		for s := 0; s < width; s++ {
			sm := o.sm[k*width+s]
			grad[k*width+s] += inv*sm*(a[s]-g[k]) + priorScale*(1-float32(width)*sm)
		}
	}
	return dx, nil
}
