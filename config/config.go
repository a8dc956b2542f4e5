// Package config loads the YAML description of a training run
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/trainer"
)

// History selects where the loss history of a run is stored
type History struct {
	Kind string `yaml:"kind"` // memory, redis or sqlite
	DSN  string `yaml:"dsn"`  // redis:// URL or sqlite path
}

// File is the structure of a run file. Zero or missing fields keep the
// trainer defaults.
type File struct {
	ModelLength     int     `yaml:"model_length"`
	BatchSize       int     `yaml:"batch_size"`
	LearningRate    float32 `yaml:"learning_rate"`
	Epochs          int     `yaml:"epochs"`
	UseSubstitution *bool   `yaml:"use_substitution"`
	UsePrior        *bool   `yaml:"use_prior"`
	Verbose         *bool   `yaml:"verbose"`

	Seed     int64 `yaml:"seed"`
	Workers  int   `yaml:"workers"`
	Prefetch int   `yaml:"prefetch"`
	Replicas int   `yaml:"replicas"`

	Alignment    map[string]interface{} `yaml:"alignment"`    // alignment hyperparameter dictionary
	Substitution map[string]interface{} `yaml:"substitution"` // substitution hyperparameter dictionary

	History     History `yaml:"history"`
	MetricsAddr string  `yaml:"metrics_addr"` // serve /metrics on this address when set
}

// Parse decodes a run file
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errs.Configuration("parse run file: %v", err)
	}
	return &f, nil
}

// Load reads and decodes the run file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	return Parse(data)
}

// decodeParams overlays a hyperparameter dictionary on the defaults in out.
// Unknown keys are rejected.
func decodeParams(name string, in map[string]interface{}, out interface{}) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return errs.Configuration("%s hyperparameters: %v", name, err)
	}
	return nil
}

// Trainer returns the training configuration described by f
func (f *File) Trainer() (trainer.Config, error) {
	cfg := trainer.DefaultConfig(f.ModelLength)
	if f.BatchSize != 0 {
		cfg.BatchSize = f.BatchSize
	}
	if f.LearningRate != 0 {
		cfg.LearningRate = f.LearningRate
	}
	if f.Epochs != 0 {
		cfg.Epochs = f.Epochs
	}
	if f.UseSubstitution != nil {
		cfg.UseSubstitution = *f.UseSubstitution
	}
	if f.UsePrior != nil {
		cfg.UsePrior = *f.UsePrior
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	cfg.Seed = f.Seed
	cfg.Workers = f.Workers
	cfg.Prefetch = f.Prefetch
	cfg.Replicas = f.Replicas

	if err := decodeParams("alignment", f.Alignment, &cfg.Alignment); err != nil {
		return cfg, err
	}
	// the top-level use_prior wins over the one in the alignment dictionary
	if _, ok := f.Alignment["use_prior"]; ok && f.UsePrior == nil {
		cfg.UsePrior = cfg.Alignment.UsePrior
	}
	cfg.Alignment.UsePrior = cfg.UsePrior
	if err := decodeParams("substitution", f.Substitution, &cfg.Substitution); err != nil {
		return cfg, err
	}
	return cfg, nil
}
