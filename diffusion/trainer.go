package diffusion

import (
	"fmt"
	"math/rand"

	"github.com/drift-ml/drift/tensor"
)

// Trainer builds the denoising training loss: forward corruption, target
// construction and the mean-squared error between injected and predicted
// noise. It owns no gradient or optimizer mechanics; the external training
// driver decides what to do with the loss and its gradient.
//
// A Trainer is stateless between calls apart from the shared read-only
// Schedule, so batches may be processed from multiple goroutines as long
// as each call gets its own random source.
type Trainer struct {
	schedule *Schedule
	model    Denoiser
	paramDim int
}

// NewTrainer creates a Trainer over a schedule and denoising model.
// paramDim is the required width of conditioning vectors.
func NewTrainer(schedule *Schedule, model Denoiser, paramDim int) *Trainer {
	return &Trainer{schedule: schedule, model: model, paramDim: paramDim}
}

// Loss computes the batch training loss for clean samples x0 with their
// conditioning vectors cond.
//
// Per batch item it draws a step index t uniformly from [0, T) and noise
// ε ~ N(0, 1) from rng, forms the noisy sample
//
//	x_t = sqrt(alphaBar[t])*x0 + sqrt(1-alphaBar[t])*ε,
//
// queries the model for ε̂ and accumulates the elementwise squared error
// between ε and ε̂. The returned loss is the mean over the whole batch.
func (tr *Trainer) Loss(x0, cond *tensor.Tensor[float32], rng *rand.Rand) (float32, error) {
	loss, _, err := tr.lossImpl(x0, cond, rng, false)
	return loss, err
}

// LossGrad computes the same loss as Loss and additionally returns its
// gradient with respect to the model prediction, 2*(ε̂-ε)/N, shaped like
// x0. The training driver feeds this into the model's backward pass; the
// loss functional itself stays free of update mechanics.
func (tr *Trainer) LossGrad(x0, cond *tensor.Tensor[float32], rng *rand.Rand) (float32, *tensor.Tensor[float32], error) {
	return tr.lossImpl(x0, cond, rng, true)
}

func (tr *Trainer) lossImpl(x0, cond *tensor.Tensor[float32], rng *rand.Rand, wantGrad bool) (float32, *tensor.Tensor[float32], error) {
	if len(x0.Shape()) < 2 {
		return 0, nil, fmt.Errorf("%w: samples must be batched, got shape %v", ErrShapeMismatch, x0.Shape())
	}
	batch := x0.Shape()[0]
	if err := tr.checkCond(cond, batch); err != nil {
		return 0, nil, err
	}

	// Per-item step index and noise draw, both from the explicit source.
	steps := make([]int, batch)
	for i := range steps {
		steps[i] = rng.Intn(tr.schedule.Steps())
	}
	noise := tensor.Randn[float32](x0.Shape(), rng)

	xt := tr.Corrupt(x0, noise, steps)

	pred, err := tr.model.Predict(xt, steps, cond)
	if err != nil {
		return 0, nil, fmt.Errorf("denoiser predict: %w", err)
	}
	if !pred.Shape().Equal(x0.Shape()) {
		return 0, nil, fmt.Errorf("%w: prediction shape %v, want %v", ErrShapeMismatch, pred.Shape(), x0.Shape())
	}

	diff := pred.Sub(noise)
	sq := diff.Mul(diff)
	loss := sq.Mean()

	if !wantGrad {
		return loss, nil, nil
	}
	grad := diff.MulScalar(2.0 / float32(diff.NumElements()))
	return loss, grad, nil
}

// Corrupt applies the forward process at the given per-item step indices:
// x_t = sqrt(alphaBar[t])*x0 + sqrt(1-alphaBar[t])*noise. Exposed so the
// round-trip law (corrupt then reverse with the true noise recovers x0)
// can be exercised directly.
func (tr *Trainer) Corrupt(x0, noise *tensor.Tensor[float32], steps []int) *tensor.Tensor[float32] {
	batch := x0.Shape()[0]
	perItem := x0.NumElements() / batch

	xt := tensor.Zeros[float32](x0.Shape())
	xd, nd, od := x0.Data(), noise.Data(), xt.Data()
	for i := 0; i < batch; i++ {
		a := float32(tr.schedule.SqrtAlphaBar(steps[i]))
		b := float32(tr.schedule.SqrtOneMinusAlphaBar(steps[i]))
		base := i * perItem
		for j := base; j < base+perItem; j++ {
			od[j] = a*xd[j] + b*nd[j]
		}
	}
	return xt
}

func (tr *Trainer) checkCond(cond *tensor.Tensor[float32], batch int) error {
	shape := cond.Shape()
	if len(shape) != 2 || shape[0] != batch {
		return fmt.Errorf("%w: conditioning shape %v, want [%d %d]", ErrShapeMismatch, shape, batch, tr.paramDim)
	}
	if shape[1] != tr.paramDim {
		return fmt.Errorf("%w: conditioning width %d, want %d", ErrShapeMismatch, shape[1], tr.paramDim)
	}
	return nil
}
