package diffusion

import "github.com/drift-ml/drift/tensor"

// Denoiser is the pluggable denoising-network capability.
//
// Implementations must be deterministic: identical inputs and parameters
// must produce identical predictions, or DDIM trajectories lose their
// reproducibility guarantee. Any internal randomness (dropout and the
// like) must be disabled at prediction time.
type Denoiser interface {
	// Predict returns the predicted noise for a batch of noisy samples.
	//
	// x has shape [batch, ...sample dims], t holds one step index per
	// batch item, and cond has shape [batch, paramDim]. The returned
	// tensor must have exactly the shape of x.
	Predict(x *tensor.Tensor[float32], t []int, cond *tensor.Tensor[float32]) (*tensor.Tensor[float32], error)
}

// EnergyModel scores (conditioning, property) pairs. Lower energy means the
// conditioning vector is a better match for the target property; the
// gradient with respect to the conditioning vector supplies the guidance
// signal for steered sampling.
type EnergyModel interface {
	// Energy returns a scalar score for the pair.
	Energy(cond, prop []float32) (float32, error)

	// EnergyGrad returns the gradient of Energy with respect to cond,
	// as a slice of the same length as cond.
	EnergyGrad(cond, prop []float32) ([]float32, error)
}
