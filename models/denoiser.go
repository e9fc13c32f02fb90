// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides small, fully trainable reference
// implementations of the two pluggable capabilities: a conditional
// denoising network and an energy network for guided sampling. They are
// MLP backbones, not production architectures; anything satisfying the
// diffusion interfaces can replace them.
package models

import (
	"fmt"
	"math/rand"

	"github.com/drift-ml/drift/diffusion"
	"github.com/drift-ml/drift/nn"
	"github.com/drift-ml/drift/tensor"
)

// DenoiserConfig describes a CondDenoiser.
type DenoiserConfig struct {
	// SampleShape is the per-item sample shape, e.g. {1, 16, 16}.
	SampleShape tensor.Shape

	// ParamDim is the conditioning vector width.
	ParamDim int

	// TimeDim is the sinusoidal timestep embedding width.
	TimeDim int

	// Hidden is the width of the two hidden layers.
	Hidden int
}

// CondDenoiser predicts noise from (noisy sample, step index, conditioning
// vector): the flattened sample, the sinusoidal time embedding and the
// conditioning vector are concatenated and pushed through two SiLU hidden
// layers, then projected back to the sample shape.
//
// Forward passes cache activations for Backward, so a single CondDenoiser
// must not serve concurrent calls; give each goroutine its own instance or
// serialize access.
type CondDenoiser struct {
	cfg     DenoiserConfig
	flatDim int
	timeEmb *nn.TimestepEmbedding

	l1, l2, l3 *nn.Linear
	a1, a2     *nn.SiLU
}

var _ diffusion.Denoiser = (*CondDenoiser)(nil)

// NewCondDenoiser creates a CondDenoiser with Xavier-initialized weights
// drawn from rng.
func NewCondDenoiser(cfg DenoiserConfig, rng *rand.Rand) (*CondDenoiser, error) {
	if err := cfg.SampleShape.Validate(); err != nil {
		return nil, fmt.Errorf("sample shape: %w", err)
	}
	if cfg.ParamDim <= 0 || cfg.TimeDim <= 0 || cfg.Hidden <= 0 {
		return nil, fmt.Errorf("param/time/hidden dims must be positive, got %d/%d/%d",
			cfg.ParamDim, cfg.TimeDim, cfg.Hidden)
	}

	flat := cfg.SampleShape.NumElements()
	in := flat + cfg.TimeDim + cfg.ParamDim

	return &CondDenoiser{
		cfg:     cfg,
		flatDim: flat,
		timeEmb: nn.NewTimestepEmbedding(cfg.TimeDim),
		l1:      nn.NewLinear("l1", in, cfg.Hidden, rng),
		a1:      nn.NewSiLU(),
		l2:      nn.NewLinear("l2", cfg.Hidden, cfg.Hidden, rng),
		a2:      nn.NewSiLU(),
		l3:      nn.NewLinear("l3", cfg.Hidden, flat, rng),
	}, nil
}

// Predict implements diffusion.Denoiser.
func (m *CondDenoiser) Predict(x *tensor.Tensor[float32], t []int, cond *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("samples must be batched, got shape %v", shape)
	}
	batch := shape[0]
	perItem := x.NumElements() / batch
	if perItem != m.flatDim {
		return nil, fmt.Errorf("sample has %d elements per item, model expects %d", perItem, m.flatDim)
	}
	if len(t) != batch {
		return nil, fmt.Errorf("got %d step indices for batch of %d", len(t), batch)
	}
	condShape := cond.Shape()
	if len(condShape) != 2 || condShape[0] != batch || condShape[1] != m.cfg.ParamDim {
		return nil, fmt.Errorf("conditioning shape %v, want [%d %d]", condShape, batch, m.cfg.ParamDim)
	}

	in := m.assemble(x, t, cond)
	h := m.a1.Forward(m.l1.Forward(in))
	h = m.a2.Forward(m.l2.Forward(h))
	out := m.l3.Forward(h)

	return out.Reshape(shape...), nil
}

// assemble concatenates [flattened x | time embedding | cond] per item.
func (m *CondDenoiser) assemble(x *tensor.Tensor[float32], t []int, cond *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	batch := x.Shape()[0]
	emb := m.timeEmb.Embed(t)

	width := m.flatDim + m.cfg.TimeDim + m.cfg.ParamDim
	in := tensor.Zeros[float32](tensor.Shape{batch, width})
	id, xd, ed, cd := in.Data(), x.Data(), emb.Data(), cond.Data()
	for i := 0; i < batch; i++ {
		base := i * width
		copy(id[base:], xd[i*m.flatDim:(i+1)*m.flatDim])
		copy(id[base+m.flatDim:], ed[i*m.cfg.TimeDim:(i+1)*m.cfg.TimeDim])
		copy(id[base+m.flatDim+m.cfg.TimeDim:], cd[i*m.cfg.ParamDim:(i+1)*m.cfg.ParamDim])
	}
	return in
}

// Backward propagates the loss gradient with respect to the prediction
// through the network, accumulating parameter gradients. Must follow a
// Predict call on the same batch.
func (m *CondDenoiser) Backward(gradOut *tensor.Tensor[float32]) {
	batch := gradOut.Shape()[0]
	g := gradOut.Reshape(batch, m.flatDim)
	g = m.l3.Backward(g)
	g = m.l2.Backward(m.a2.Backward(g))
	_ = m.l1.Backward(m.a1.Backward(g))
}

// Parameters returns all trainable parameters.
func (m *CondDenoiser) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, l := range []*nn.Linear{m.l1, m.l2, m.l3} {
		params = append(params, l.Parameters()...)
	}
	return params
}

// StateDict returns the model weights for checkpointing.
func (m *CondDenoiser) StateDict() map[string]*tensor.RawTensor {
	return nn.StateDictOf(m.Parameters())
}

// LoadStateDict restores the model weights from a checkpoint.
func (m *CondDenoiser) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nn.LoadStateDictInto(m.Parameters(), stateDict)
}
