package learning

// HyperParameters configures the Adam optimizer
type HyperParameters struct {
	LearningRate float32 // step size (default: 0.1)
	Beta1        float32 // decay of the first moment estimate (default: 0.9)
	Beta2        float32 // decay of the second moment estimate (default: 0.999)
	Epsilon      float32 // denominator fuzz (default: 1e-7)
}

// DefaultHyperParameters returns the defaults used by a training run
func DefaultHyperParameters() HyperParameters {
	return HyperParameters{
		LearningRate: 0.1,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// withDefaults fills zero fields with the defaults
func (h HyperParameters) withDefaults() HyperParameters {
	d := DefaultHyperParameters()
	if h.LearningRate == 0 {
		h.LearningRate = d.LearningRate
	}
	if h.Beta1 == 0 {
		h.Beta1 = d.Beta1
	}
	if h.Beta2 == 0 {
		h.Beta2 = d.Beta2
	}
	if h.Epsilon == 0 {
		h.Epsilon = d.Epsilon
	}
	return h
}
