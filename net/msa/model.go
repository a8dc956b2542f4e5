// Package msa assembles the alignment and substitution transforms into one
// trainable model
package msa

import (
	"fmt"

	"github.com/neurlang/msahmm/datasets"
	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/layer"
	"github.com/neurlang/msahmm/layer/profile"
	"github.com/neurlang/msahmm/layer/substitution"
	"github.com/neurlang/msahmm/tensor"
)

// Input and output names of the model
const (
	InputSequences = "sequences"
	InputMask      = "mask"
	InputSubset    = "subset"
	OutputLoglik   = "loglik"
)

// AlignmentParams are the hyperparameters of the alignment transform
type AlignmentParams = profile.Params

// SubstitutionParams are the hyperparameters of the substitution transform
type SubstitutionParams = substitution.Params

// AlignerFactory constructs the alignment transform
type AlignerFactory func(modelLength, numSeq int, p AlignmentParams) (layer.Aligner, error)

// SubstituterFactory constructs the substitution transform
type SubstituterFactory func(numSeq int, p SubstitutionParams) (layer.Substituter, error)

// Factories selects the transform implementations; nil fields use the
// reference transforms
type Factories struct {
	Aligner     AlignerFactory
	Substituter SubstituterFactory
}

func (f Factories) aligner() AlignerFactory {
	if f.Aligner != nil {
		return f.Aligner
	}
	return func(modelLength, numSeq int, p AlignmentParams) (layer.Aligner, error) {
		return profile.New(modelLength, numSeq, p)
	}
}

func (f Factories) substituter() SubstituterFactory {
	if f.Substituter != nil {
		return f.Substituter
	}
	return func(numSeq int, p SubstitutionParams) (layer.Substituter, error) {
		return substitution.New(numSeq, p)
	}
}

// Inputs are the three named model inputs
type Inputs struct {
	Sequences tensor.D3 // (batch, length, AlphabetSize)
	Mask      tensor.D3 // (batch, length, 1)
	Subset    []int32   // (batch)
}

// InputsOf returns the model inputs carried by a batch
func InputsOf(b *datasets.Batch) Inputs {
	return Inputs{Sequences: b.Sequences, Mask: b.Mask, Subset: b.Subset}
}

// Model is the composed computation: sequences, mask and subset in, one
// log-likelihood per sequence out
type Model struct {
	aligner         layer.Aligner
	substituter     layer.Substituter
	useSubstitution bool
	modelLength     int
	numSeq          int
}

// Assemble builds the model of a run over numSeq sequences. With
// useSubstitution the sequences pass through the substituter before the
// aligner, otherwise they reach the aligner unchanged and the substituter's
// parameters are not part of the model.
func Assemble(numSeq, modelLength int, ap AlignmentParams, sp SubstitutionParams, useSubstitution bool) (*Model, layer.Aligner, layer.Substituter, error) {
	return Factories{}.Assemble(numSeq, modelLength, ap, sp, useSubstitution)
}

// Assemble builds the model with the transforms made by f
func (f Factories) Assemble(numSeq, modelLength int, ap AlignmentParams, sp SubstitutionParams, useSubstitution bool) (*Model, layer.Aligner, layer.Substituter, error) {
	if modelLength <= 0 {
		return nil, nil, nil, errs.Configuration("model length %d must be positive", modelLength)
	}
	if numSeq <= 0 {
		return nil, nil, nil, errs.Configuration("sequence count %d must be positive", numSeq)
	}
	al, err := f.aligner()(modelLength, numSeq, ap)
	if err != nil {
		return nil, nil, nil, err
	}
	sub, err := f.substituter()(numSeq, sp)
	if err != nil {
		return nil, nil, nil, err
	}
	m := &Model{
		aligner:         al,
		substituter:     sub,
		useSubstitution: useSubstitution,
		modelLength:     modelLength,
		numSeq:          numSeq,
	}
	return m, al, sub, nil
}

// InputNames returns the names of the model inputs in order
func (m *Model) InputNames() []string {
	return []string{InputSequences, InputMask, InputSubset}
}

// OutputName returns the name of the model output
func (m *Model) OutputName() string {
	return OutputLoglik
}

// UsesSubstitution reports whether the substituter is part of the graph
func (m *Model) UsesSubstitution() bool {
	return m.useSubstitution
}

// ModelLength returns the model length the aligner was built with
func (m *Model) ModelLength() int {
	return m.modelLength
}

// NumSeq returns the sequence count the model was built for
func (m *Model) NumSeq() int {
	return m.numSeq
}

// Aligner returns the alignment transform
func (m *Model) Aligner() layer.Aligner {
	return m.aligner
}

// Substituter returns the substitution transform, also when it is unused
func (m *Model) Substituter() layer.Substituter {
	return m.substituter
}

// Parameters returns the trainable state of the graph in a stable order
func (m *Model) Parameters() []*layer.Parameter {
	params := append([]*layer.Parameter(nil), m.aligner.Parameters()...)
	if m.useSubstitution {
		params = append(params, m.substituter.Parameters()...)
	}
	return params
}

// ZeroGrad clears every gradient of the model
func (m *Model) ZeroGrad() {
	layer.ZeroGrads(m.Parameters())
}

// CopyParameters sets the parameter values of m to those of src
func (m *Model) CopyParameters(src *Model) error {
	return layer.CopyValues(m.Parameters(), src.Parameters())
}

func (m *Model) check(in Inputs) error {
	b, l := in.Sequences.Dims[0], in.Sequences.Dims[1]
	if in.Sequences.Dims[2] != datasets.AlphabetSize {
		return errs.Configuration("input %s: width %d, want %d", InputSequences, in.Sequences.Dims[2], datasets.AlphabetSize)
	}
	if in.Mask.Dims != [3]int{b, l, 1} {
		return errs.Configuration("input %s: shape %v, want [%d %d 1]", InputMask, in.Mask.Dims, b, l)
	}
	if len(in.Subset) != b {
		return errs.Configuration("input %s: %d entries, want %d", InputSubset, len(in.Subset), b)
	}
	return nil
}

// Forward evaluates the log-likelihood of every sequence
func (m *Model) Forward(in Inputs) ([]float32, error) {
	if err := m.check(in); err != nil {
		return nil, err
	}
	x := in.Sequences
	if m.useSubstitution {
		var err error
		if x, err = m.substituter.Forward(in.Sequences, in.Mask, in.Subset); err != nil {
			return nil, err
		}
	}
	ll, err := m.aligner.Forward(x)
	if err != nil {
		return nil, err
	}
	if len(ll) != in.Sequences.Dims[0] {
		return nil, fmt.Errorf("%s: %d values for batch of %d", OutputLoglik, len(ll), in.Sequences.Dims[0])
	}
	return ll, nil
}

// Backward propagates the gradient of the last Forward output to every parameter
func (m *Model) Backward(dLoglik []float32) error {
	dx, err := m.aligner.Backward(dLoglik)
	if err != nil {
		return err
	}
	if m.useSubstitution {
		return m.substituter.Backward(dx)
	}
	return nil
}
