// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package diffusion implements the denoising-diffusion core: the noise
// schedule, the forward-corruption training loss, and the deterministic
// DDIM reverse sampler with optional energy-based guidance.
//
// The package is deliberately free of network internals. The denoising
// network and the energy network are pluggable capabilities behind the
// Denoiser and EnergyModel interfaces; any implementation with the right
// call contract works, from the bundled reference MLPs (package models)
// to an external service.
//
// Typical use:
//
//	sched, err := diffusion.NewSchedule(1000, 1e-4, 0.02)
//	if err != nil { ... }
//
//	// Training: the trainer builds the loss, the driver owns the update.
//	trainer := diffusion.NewTrainer(sched, model, paramDim)
//	loss, err := trainer.Loss(x0, cond, rng)
//
//	// Sampling: deterministic DDIM over a strided schedule.
//	sampler := diffusion.NewSampler(sched, model)
//	steps := diffusion.Timesteps(sched.Steps(), 50)
//	out, err := sampler.Sample(ctx, initNoise, cond, steps, nil)
//
// All randomness is drawn from explicit *rand.Rand sources threaded through
// calls, so trajectories are reproducible given a seed.
package diffusion
