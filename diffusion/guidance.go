package diffusion

import (
	"fmt"

	"github.com/drift-ml/drift/tensor"
)

// Guidance biases the reverse process toward samples whose conditioning
// vector scores a lower energy against the target property.
//
// At each reverse step t the conditioning vector is steered before the
// model is queried:
//
//	cond' = cond - Scale * sqrt(1-alphaBar[t]) * ∇E(cond, Target)
//
// the classifier-guidance-style combination with the gradient taken in
// conditioning space, where it is well-defined for every sample shape.
// Scale zero reduces exactly to the unguided step: the gradient is never
// evaluated and cond passes through untouched.
type Guidance struct {
	// Model scores (conditioning, property) pairs.
	Model EnergyModel

	// Target is the desired property vector to steer toward.
	Target []float32

	// Scale is the non-negative guidance strength. The single external
	// tunable; the sqrt(1-alphaBar[t]) factor is applied internally.
	Scale float64
}

func (g *Guidance) validate() error {
	if g == nil {
		return nil
	}
	if g.Model == nil {
		return fmt.Errorf("diffusion: guidance requires an energy model")
	}
	if g.Scale < 0 {
		return fmt.Errorf("diffusion: guidance scale must be non-negative, got %g", g.Scale)
	}
	return nil
}

// steer returns the conditioning tensor to use for the current reverse
// step. noiseCoeff is sqrt(1-alphaBar[t]) at that step. A nil Guidance or
// zero Scale returns cond unchanged.
func (g *Guidance) steer(cond *tensor.Tensor[float32], noiseCoeff float64) (*tensor.Tensor[float32], error) {
	if g == nil || g.Scale == 0 {
		return cond, nil
	}

	shape := cond.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: conditioning shape %v, want [batch paramDim]", ErrShapeMismatch, shape)
	}
	batch, dim := shape[0], shape[1]
	weight := float32(g.Scale * noiseCoeff)

	out := cond.Clone()
	od := out.Data()
	for i := 0; i < batch; i++ {
		grad, err := g.Model.EnergyGrad(cond.Row(i), g.Target)
		if err != nil {
			return nil, fmt.Errorf("energy gradient: %w", err)
		}
		if len(grad) != dim {
			return nil, fmt.Errorf("%w: energy gradient length %d, want %d", ErrShapeMismatch, len(grad), dim)
		}
		for j := 0; j < dim; j++ {
			od[i*dim+j] -= weight * grad[j]
		}
	}
	return out, nil
}
