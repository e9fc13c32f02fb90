package models

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/drift-ml/drift/diffusion"
)

// EnergyFunc is a black-box scalar energy over (conditioning, property)
// pairs.
type EnergyFunc func(cond, prop []float32) (float32, error)

// FiniteDiffEnergy adapts a black-box EnergyFunc into a
// diffusion.EnergyModel by estimating the conditioning gradient with
// central finite differences. Useful when the energy comes from an
// external scorer with no analytic gradient, and in tests as an
// independent check of analytic backward passes.
type FiniteDiffEnergy struct {
	fn EnergyFunc
}

var _ diffusion.EnergyModel = (*FiniteDiffEnergy)(nil)

// NewFiniteDiffEnergy wraps fn.
func NewFiniteDiffEnergy(fn EnergyFunc) *FiniteDiffEnergy {
	return &FiniteDiffEnergy{fn: fn}
}

// Energy implements diffusion.EnergyModel.
func (f *FiniteDiffEnergy) Energy(cond, prop []float32) (float32, error) {
	return f.fn(cond, prop)
}

// EnergyGrad implements diffusion.EnergyModel via fd.Gradient with
// central differences.
func (f *FiniteDiffEnergy) EnergyGrad(cond, prop []float32) ([]float32, error) {
	x := make([]float64, len(cond))
	for i, v := range cond {
		x[i] = float64(v)
	}

	var innerErr error
	objective := func(p []float64) float64 {
		c := make([]float32, len(p))
		for i, v := range p {
			c[i] = float32(v)
		}
		e, err := f.fn(c, prop)
		if err != nil && innerErr == nil {
			innerErr = err
		}
		return float64(e)
	}

	// Step sized for float32-precision energies: large enough that
	// rounding noise does not dominate the difference quotient.
	dst := make([]float64, len(x))
	fd.Gradient(dst, objective, x, &fd.Settings{Formula: fd.Central, Step: 1e-3})
	if innerErr != nil {
		return nil, fmt.Errorf("energy evaluation: %w", innerErr)
	}

	grad := make([]float32, len(dst))
	for i, v := range dst {
		grad[i] = float32(v)
	}
	return grad, nil
}
