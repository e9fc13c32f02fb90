package diffusion

import (
	"context"
	"fmt"

	"github.com/drift-ml/drift/tensor"
)

// Sampler generates samples with the deterministic DDIM reverse process:
// it walks a descending sequence of step indices, estimates the clean
// sample from the model's noise prediction at each step, and recombines at
// the next target step without injecting any fresh noise. Determinism is
// the defining property: the same initial noise, conditioning, step
// sequence and model reproduce the output bit for bit.
//
// Independent trajectories share only the read-only Schedule, so a single
// Sampler may serve concurrent Sample calls.
type Sampler struct {
	schedule *Schedule
	model    Denoiser
}

// NewSampler creates a Sampler over a schedule and denoising model.
func NewSampler(schedule *Schedule, model Denoiser) *Sampler {
	return &Sampler{schedule: schedule, model: model}
}

// SampleOptions carries the optional knobs of a sampling call.
type SampleOptions struct {
	// Guidance enables energy-guided sampling when non-nil.
	Guidance *Guidance

	// Progress, when non-nil, is called after each completed reverse step
	// with the number of finished steps and the total.
	Progress func(done, total int)
}

// Sample runs the reverse process from initial noise init over the given
// strictly descending step sequence and returns the final clean-sample
// estimate.
//
// init has shape [batch, ...sample dims] and is typically drawn as
// standard-normal noise; cond has shape [batch, paramDim]. The step
// sequence must be strictly descending with every index in [0, T), or the
// call fails wrapping ErrInvalidStepSequence. The sequence may be strided
// (see Timesteps) to trade quality for speed.
//
// Cancellation is cooperative: ctx is checked between steps, so an aborted
// call never leaves a half-applied update and never touches the schedule.
func (s *Sampler) Sample(ctx context.Context, init, cond *tensor.Tensor[float32], steps []int, opts *SampleOptions) (*tensor.Tensor[float32], error) {
	if err := s.validateSteps(steps); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &SampleOptions{}
	}
	if err := opts.Guidance.validate(); err != nil {
		return nil, err
	}

	batch := init.Shape()[0]
	stepIdx := make([]int, batch)

	x := init.Clone()
	for i, t := range steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Steer the conditioning vector against the target property
		// before querying the model. Unguided calls pass cond through.
		condStep, err := opts.Guidance.steer(cond, s.schedule.SqrtOneMinusAlphaBar(t))
		if err != nil {
			return nil, err
		}

		for j := range stepIdx {
			stepIdx[j] = t
		}
		eps, err := s.model.Predict(x, stepIdx, condStep)
		if err != nil {
			return nil, fmt.Errorf("denoiser predict at step %d: %w", t, err)
		}
		if !eps.Shape().Equal(x.Shape()) {
			return nil, fmt.Errorf("%w: prediction shape %v, want %v", ErrShapeMismatch, eps.Shape(), x.Shape())
		}

		x0hat := s.cleanEstimate(x, eps, t)
		if i == len(steps)-1 {
			x = x0hat
		} else {
			x = s.recombine(x0hat, eps, steps[i+1])
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(steps))
		}
	}
	return x, nil
}

// cleanEstimate computes x0̂ = (x_t - sqrt(1-alphaBar[t])*ε̂) / sqrt(alphaBar[t]).
func (s *Sampler) cleanEstimate(xt, eps *tensor.Tensor[float32], t int) *tensor.Tensor[float32] {
	a := float32(s.schedule.SqrtAlphaBar(t))
	b := float32(s.schedule.SqrtOneMinusAlphaBar(t))

	out := tensor.Zeros[float32](xt.Shape())
	xd, ed, od := xt.Data(), eps.Data(), out.Data()
	for i := range od {
		od[i] = (xd[i] - b*ed[i]) / a
	}
	return out
}

// recombine computes x_{t'} = sqrt(alphaBar[t'])*x0̂ + sqrt(1-alphaBar[t'])*ε̂,
// the deterministic DDIM step to the earlier target step t'.
func (s *Sampler) recombine(x0hat, eps *tensor.Tensor[float32], tPrev int) *tensor.Tensor[float32] {
	a := float32(s.schedule.SqrtAlphaBar(tPrev))
	b := float32(s.schedule.SqrtOneMinusAlphaBar(tPrev))

	out := tensor.Zeros[float32](x0hat.Shape())
	xd, ed, od := x0hat.Data(), eps.Data(), out.Data()
	for i := range od {
		od[i] = a*xd[i] + b*ed[i]
	}
	return out
}

func (s *Sampler) validateSteps(steps []int) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: empty step sequence", ErrInvalidStepSequence)
	}
	for i, t := range steps {
		if t < 0 || t >= s.schedule.Steps() {
			return fmt.Errorf("%w: step %d out of range [0, %d)", ErrInvalidStepSequence, t, s.schedule.Steps())
		}
		if i > 0 && t >= steps[i-1] {
			return fmt.Errorf("%w: steps must be strictly descending, got %d after %d", ErrInvalidStepSequence, t, steps[i-1])
		}
	}
	return nil
}

// Timesteps builds an evenly strided, strictly descending step sequence of
// length n covering [0, T-1]. The first entry is T-1 and the last is 0, so
// a trajectory always ends at the clean-sample step.
func Timesteps(total, n int) []int {
	if n <= 0 || total <= 0 {
		return nil
	}
	if n >= total {
		steps := make([]int, total)
		for i := range steps {
			steps[i] = total - 1 - i
		}
		return steps
	}
	if n == 1 {
		return []int{total - 1}
	}

	steps := make([]int, 0, n)
	prev := -1
	for i := 0; i < n; i++ {
		t := (total - 1) * (n - 1 - i) / (n - 1)
		if t == prev {
			continue // rounding collision on tiny schedules
		}
		steps = append(steps, t)
		prev = t
	}
	return steps
}
