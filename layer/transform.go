package layer

import "github.com/neurlang/msahmm/tensor"

// Transform is a differentiable function owning trainable parameters. The
// optimizer collects gradients from every Transform uniformly.
type Transform interface {

	// Parameters returns the parameters in a stable order
	Parameters() []*Parameter
}

// Aligner maps a one-hot sequence batch to one log-likelihood per sequence
type Aligner interface {
	Transform

	// Forward returns the log-likelihood of every sequence of x (batch, length, S).
	Forward(x tensor.D3) ([]float32, error)

	// Backward accumulates parameter gradients for the upstream gradient of
	// the last Forward output and returns the gradient with respect to its input.
	Backward(dLoglik []float32) (tensor.D3, error)
}

// Substituter transforms a one-hot sequence batch under an evolutionary-time
// dependent substitution process
type Substituter interface {
	Transform

	// Forward returns a batch with the shape of x. mask is (batch, length, 1),
	// subset holds the time-parameter group of every sequence.
	Forward(x, mask tensor.D3, subset []int32) (tensor.D3, error)

	// Backward accumulates parameter gradients for the upstream gradient of
	// the last Forward output.
	Backward(dy tensor.D3) error
}
