package nn

import (
	"math"

	"github.com/drift-ml/drift/tensor"
)

// SiLU is the sigmoid-weighted linear unit, silu(x) = x * sigmoid(x).
// Stateless apart from the Forward cache used by Backward.
type SiLU struct {
	lastInput *tensor.Tensor[float32]
}

// NewSiLU creates a SiLU activation.
func NewSiLU() *SiLU {
	return &SiLU{}
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// Forward applies silu elementwise and caches the input.
func (s *SiLU) Forward(x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	s.lastInput = x
	out := tensor.Zeros[float32](x.Shape())
	xd, od := x.Data(), out.Data()
	for i := range od {
		od[i] = xd[i] * sigmoid(xd[i])
	}
	return out
}

// Backward multiplies the upstream gradient by the silu derivative,
// d/dx = sig(x) * (1 + x*(1 - sig(x))).
func (s *SiLU) Backward(gradOut *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if s.lastInput == nil {
		panic("SiLU.Backward called before Forward")
	}
	out := tensor.Zeros[float32](gradOut.Shape())
	xd, gd, od := s.lastInput.Data(), gradOut.Data(), out.Data()
	for i := range od {
		sg := sigmoid(xd[i])
		od[i] = gd[i] * sg * (1 + xd[i]*(1-sg))
	}
	return out
}

// Parameters returns nil: activations are not trainable.
func (s *SiLU) Parameters() []*Parameter {
	return nil
}
