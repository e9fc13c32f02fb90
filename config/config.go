// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config loads the YAML training configuration.
//
// The diffusion core consumes only T, beta, param_dim and prop_dim; the
// remaining keys parameterize the training loop, the reference models
// and checkpointing, and are passed through to those collaborators.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drift-ml/drift/diffusion"
)

// Checkpoint configures snapshot writing.
type Checkpoint struct {
	// Path is the checkpoint directory.
	Path string `yaml:"path"`

	// Every saves a snapshot every N optimizer steps.
	Every int `yaml:"every"`
}

// Config is the full YAML configuration surface.
type Config struct {
	// T is the number of diffusion steps.
	T int `yaml:"T"`

	// Beta is the [min, max] pair of the linear noise schedule.
	Beta []float64 `yaml:"beta"`

	// ParamDim is the conditioning vector width.
	ParamDim int `yaml:"param_dim"`

	// PropDim is the property vector width used by energy guidance.
	PropDim int `yaml:"prop_dim"`

	// Network shape hyperparameters for the reference models.
	ModelChannels        int   `yaml:"model_channels"`
	AttentionResolutions []int `yaml:"attention_resolutions"`

	// Training loop hyperparameters.
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`
	Epochs    int     `yaml:"epochs"`
	Device    string  `yaml:"device"`

	Checkpoint Checkpoint `yaml:"checkpoint"`

	// Consume resumes training from ConsumePath.
	Consume     bool   `yaml:"consume"`
	ConsumePath string `yaml:"consume_path"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keys the diffusion core depends on. Collaborator
// keys are not constrained here beyond basic sanity.
func (c *Config) Validate() error {
	if c.T <= 0 {
		return fmt.Errorf("T must be positive, got %d", c.T)
	}
	if len(c.Beta) != 2 {
		return fmt.Errorf("beta must be a [min, max] pair, got %d values", len(c.Beta))
	}
	if c.Beta[0] >= c.Beta[1] {
		return fmt.Errorf("beta min %g must be below max %g", c.Beta[0], c.Beta[1])
	}
	if c.ParamDim < 0 || c.PropDim < 0 {
		return fmt.Errorf("param_dim/prop_dim must be non-negative, got %d/%d", c.ParamDim, c.PropDim)
	}
	if c.BatchSize < 0 || c.Epochs < 0 {
		return fmt.Errorf("batch_size/epochs must be non-negative, got %d/%d", c.BatchSize, c.Epochs)
	}
	if c.Consume && c.ConsumePath == "" {
		return fmt.Errorf("consume is set but consume_path is empty")
	}
	return nil
}

// Schedule constructs the noise schedule described by T and beta.
func (c *Config) Schedule() (*diffusion.Schedule, error) {
	return diffusion.NewSchedule(c.T, c.Beta[0], c.Beta[1])
}
