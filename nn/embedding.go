package nn

import (
	"math"

	"github.com/drift-ml/drift/tensor"
)

// maxPeriod controls the minimum frequency of the sinusoidal embedding.
const maxPeriod = 10000.0

// TimestepEmbedding encodes diffusion step indices as sinusoidal position
// embeddings: the first half of the vector holds cosines, the second half
// sines, over geometrically spaced frequencies. Odd dimensions are padded
// with a trailing zero. No trainable parameters.
type TimestepEmbedding struct {
	dim   int
	freqs []float64
}

// NewTimestepEmbedding creates an embedding of the given output dimension.
func NewTimestepEmbedding(dim int) *TimestepEmbedding {
	half := dim / 2
	freqs := make([]float64, half)
	for i := range freqs {
		freqs[i] = math.Exp(-math.Log(maxPeriod) * float64(i) / float64(half))
	}
	return &TimestepEmbedding{dim: dim, freqs: freqs}
}

// Dim returns the embedding width.
func (e *TimestepEmbedding) Dim() int {
	return e.dim
}

// Embed returns a [len(steps), dim] tensor of embeddings, one row per
// step index.
func (e *TimestepEmbedding) Embed(steps []int) *tensor.Tensor[float32] {
	half := len(e.freqs)
	out := tensor.Zeros[float32](tensor.Shape{len(steps), e.dim})
	od := out.Data()
	for i, t := range steps {
		base := i * e.dim
		for j, f := range e.freqs {
			arg := float64(t) * f
			od[base+j] = float32(math.Cos(arg))
			od[base+half+j] = float32(math.Sin(arg))
		}
		// Odd dim leaves the final column zero.
	}
	return out
}
