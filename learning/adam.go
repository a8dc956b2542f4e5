// Package learning implements the gradient-based optimizer of a training run
package learning

import "fmt"

import "github.com/chewxy/math32"

import "github.com/neurlang/msahmm/errs"
import "github.com/neurlang/msahmm/layer"

type moments struct {
	m, v []float32
}

// Adam is the Adam optimizer. It keeps one pair of moment estimates per
// parameter and is not safe for concurrent use.
type Adam struct {
	h     HyperParameters
	step  int
	state map[*layer.Parameter]*moments
}

// NewAdam creates an Adam optimizer; zero hyperparameters take their defaults
func NewAdam(h HyperParameters) (*Adam, error) {
	h = h.withDefaults()
	if h.LearningRate < 0 || h.Beta1 < 0 || h.Beta1 >= 1 || h.Beta2 < 0 || h.Beta2 >= 1 || h.Epsilon < 0 {
		return nil, errs.Configuration("invalid adam hyperparameters %+v", h)
	}
	return &Adam{h: h, state: make(map[*layer.Parameter]*moments)}, nil
}

// HyperParameters returns the effective hyperparameters
func (a *Adam) HyperParameters() HyperParameters {
	return a.h
}

// Steps returns the number of updates applied so far
func (a *Adam) Steps() int {
	return a.step
}

// Step applies one update to every trainable parameter from its accumulated gradient
func (a *Adam) Step(params []*layer.Parameter) error {
	a.step++
	t := float32(a.step)
	c1 := 1 - math32.Pow(a.h.Beta1, t)
	c2 := 1 - math32.Pow(a.h.Beta2, t)
	lr := a.h.LearningRate * math32.Sqrt(c2) / c1
	for _, p := range params {
		if !p.Trainable {
			continue
		}
		st := a.state[p]
		if st == nil {
			st = &moments{m: make([]float32, p.Len()), v: make([]float32, p.Len())}
			a.state[p] = st
		}
		if len(st.m) != p.Len() {
			return fmt.Errorf("adam: parameter %s changed size", p.Name)
		}
		for i, g := range p.Grad.Data {
			st.m[i] = a.h.Beta1*st.m[i] + (1-a.h.Beta1)*g
			st.v[i] = a.h.Beta2*st.v[i] + (1-a.h.Beta2)*g*g
			p.Value.Data[i] -= lr * st.m[i] / (math32.Sqrt(st.v[i]) + a.h.Epsilon)
		}
	}
	return nil
}
