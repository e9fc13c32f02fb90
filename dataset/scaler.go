package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/drift-ml/drift/tensor"
)

// Scaler standardizes a 2-D table column-wise to zero mean and unit
// variance. Conditioning parameters and properties live on very
// different scales, so both are standardized before training and
// predictions are mapped back with Inverse.
type Scaler struct {
	mean []float64
	std  []float64
}

// FitScaler computes per-column statistics over x, shaped [n, dim].
// Columns with zero variance get a unit scale so Transform stays
// finite.
func FitScaler(x *tensor.Tensor[float32]) (*Scaler, error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[0] == 0 {
		return nil, fmt.Errorf("scaler input shape %v, want non-empty [n dim]", shape)
	}
	n, dim := shape[0], shape[1]

	s := &Scaler{
		mean: make([]float64, dim),
		std:  make([]float64, dim),
	}
	col := make([]float64, n)
	data := x.Data()
	for j := 0; j < dim; j++ {
		for i := 0; i < n; i++ {
			col[i] = float64(data[i*dim+j])
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || n == 1 {
			std = 1
		}
		s.mean[j] = mean
		s.std[j] = std
	}
	return s, nil
}

// Dim returns the number of columns the scaler was fitted on.
func (s *Scaler) Dim() int { return len(s.mean) }

// Transform standardizes x column-wise into a new tensor.
func (s *Scaler) Transform(x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return s.apply(x, func(v float64, j int) float64 {
		return (v - s.mean[j]) / s.std[j]
	})
}

// Inverse maps standardized values back to the original scale.
func (s *Scaler) Inverse(x *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return s.apply(x, func(v float64, j int) float64 {
		return v*s.std[j] + s.mean[j]
	})
}

func (s *Scaler) apply(x *tensor.Tensor[float32], f func(v float64, j int) float64) (*tensor.Tensor[float32], error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != s.Dim() {
		return nil, fmt.Errorf("input shape %v, want [n %d]", shape, s.Dim())
	}
	dim := shape[1]

	out := x.Clone()
	data := out.Data()
	for i := range data {
		data[i] = float32(f(float64(data[i]), i%dim))
	}
	return out, nil
}
