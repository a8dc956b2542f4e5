package profile

// Params holds the alignment transform hyperparameters. The field names follow
// the hyperparameter dictionary keys accepted by the training configuration.
type Params struct {
	EmissionInit   []float32 `mapstructure:"emission_init" yaml:"emission_init"`     // emission kernel init, one row or one row per match state
	TransitionInit float32   `mapstructure:"transition_init" yaml:"transition_init"` // transition kernel init
	FlankInit      float32   `mapstructure:"flank_init" yaml:"flank_init"`           // flanking state kernel init

	AlphaFlank  float32 `mapstructure:"alpha_flank" yaml:"alpha_flank"`   // prior strength on flanking transitions
	AlphaSingle float32 `mapstructure:"alpha_single" yaml:"alpha_single"` // Dirichlet concentration on match emissions
	AlphaFrag   float32 `mapstructure:"alpha_frag" yaml:"alpha_frag"`     // prior strength on fragment transitions

	UsePrior              bool `mapstructure:"use_prior" yaml:"use_prior"`                               // add the log prior to the log-likelihood
	DirichletMixCompCount int  `mapstructure:"dirichlet_mix_comp_count" yaml:"dirichlet_mix_comp_count"` // mixture components of the emission prior

	TrainableKernels map[string]bool `mapstructure:"trainable_kernels" yaml:"trainable_kernels"` // kernel name -> trainable, missing means trainable

	Seed   int64   `mapstructure:"seed" yaml:"seed"`     // seed of the emission init jitter
	Jitter float32 `mapstructure:"jitter" yaml:"jitter"` // amplitude of the emission init jitter
}

// DefaultParams returns the parameters used when the configuration names none
func DefaultParams() Params {
	return Params{
		TransitionInit:        -3,
		FlankInit:             0,
		AlphaFlank:            7000,
		AlphaSingle:           1.5,
		AlphaFrag:             1000,
		UsePrior:              true,
		DirichletMixCompCount: 1,
		Jitter:                0.01,
	}
}

// trainable reports whether the kernel name is trainable
func (p Params) trainable(name string) bool {
	t, ok := p.TrainableKernels[name]
	return !ok || t
}
