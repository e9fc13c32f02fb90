// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim implements the optimizers used to train the reference
// models. Optimizers consume the gradients that layer Backward passes
// accumulate on nn.Parameter and update the parameter values in place.
//
// Example:
//
//	opt := optim.NewAdamW(model.Parameters(), optim.AdamWConfig{LR: 2e-4})
//	for epoch := range epochs {
//	    loss, grad, _ := trainer.LossGrad(batch, cond, rng)
//	    model.Backward(grad)
//	    opt.Step()
//	    opt.ZeroGrad()
//	}
package optim

import (
	"github.com/drift-ml/drift/nn"
	"github.com/drift-ml/drift/tensor"
)

// Optimizer is the base interface for optimization algorithms.
type Optimizer interface {
	// Step applies one update using the gradients currently accumulated
	// on the parameters.
	Step()

	// ZeroGrad clears all parameter gradients. Call before the next
	// backward pass to prevent accumulation across iterations.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64

	// StateDict returns the optimizer state (moment buffers, step
	// counter) for checkpointing.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores optimizer state from a checkpoint.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

func zeroAll(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
