package layer

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Parameter is one trainable kernel with its gradient accumulator
type Parameter struct {
	Name      string
	Value     blas32.Vector
	Grad      blas32.Vector
	Trainable bool
}

// NewParameter allocates a zeroed trainable parameter of size n and tracks
// it in the default session
func NewParameter(name string, n int) *Parameter {
	p := &Parameter{
		Name:      name,
		Value:     blas32.Vector{N: n, Inc: 1, Data: make([]float32, n)},
		Grad:      blas32.Vector{N: n, Inc: 1, Data: make([]float32, n)},
		Trainable: true,
	}
	Default().track(p)
	return p
}

// Len returns the number of scalars in p
func (p *Parameter) Len() int {
	return p.Value.N
}

// ZeroGrad clears the gradient accumulator
func (p *Parameter) ZeroGrad() {
	for i := range p.Grad.Data {
		p.Grad.Data[i] = 0
	}
}

// CopyFrom copies the values of q into p
func (p *Parameter) CopyFrom(q *Parameter) error {
	if p.Value.N != q.Value.N {
		return fmt.Errorf("parameter %s: size %d != %d", p.Name, p.Value.N, q.Value.N)
	}
	blas32.Copy(q.Value, p.Value)
	return nil
}

// ZeroGrads clears the gradient of every parameter
func ZeroGrads(params []*Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// CopyValues copies every value of src into dst. Both must list parameters of
// the same sizes in the same order.
func CopyValues(dst, src []*Parameter) error {
	if len(dst) != len(src) {
		return fmt.Errorf("parameter count %d != %d", len(dst), len(src))
	}
	for i := range dst {
		if err := dst[i].CopyFrom(src[i]); err != nil {
			return err
		}
	}
	return nil
}

// AccumulateGrads adds every gradient of src into dst
func AccumulateGrads(dst, src []*Parameter) error {
	if len(dst) != len(src) {
		return fmt.Errorf("parameter count %d != %d", len(dst), len(src))
	}
	for i := range dst {
		if dst[i].Grad.N != src[i].Grad.N {
			return fmt.Errorf("parameter %s: gradient size %d != %d", dst[i].Name, dst[i].Grad.N, src[i].Grad.N)
		}
		blas32.Axpy(1, src[i].Grad, dst[i].Grad)
	}
	return nil
}
