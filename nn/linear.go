package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/drift-ml/drift/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b, where
// x is [batch, in], W is [out, in] and b is [out].
//
// Weights are initialized with Xavier/Glorot uniform from the supplied
// random source; biases start at zero.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out, in]
	bias        *Parameter // [out]

	lastInput *tensor.Tensor[float32] // cached by Forward for Backward
}

// NewLinear creates a Linear layer. name prefixes the parameter names in
// the state dict ("<name>.weight", "<name>.bias").
func NewLinear(name string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := xavier(tensor.Shape{outFeatures, inFeatures}, inFeatures, outFeatures, rng)
	bias := tensor.Zeros[float32](tensor.Shape{outFeatures})

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", weight),
		bias:        NewParameter(name+".bias", bias),
	}
}

// xavier draws from U(-a, a) with a = sqrt(6 / (fanIn + fanOut)).
func xavier(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor[float32] {
	t := tensor.Zeros[float32](shape)
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return t
}

// Forward computes y = x @ W.T + b and caches x for Backward.
// Input shape [batch, in], output shape [batch, out].
func (l *Linear) Forward(x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected [batch %d], got %v", l.inFeatures, shape))
	}
	l.lastInput = x

	out := x.MatMul(l.weight.Tensor().Transpose())
	od, bd := out.Data(), l.bias.Tensor().Data()
	batch := shape[0]
	for i := 0; i < batch; i++ {
		for j := 0; j < l.outFeatures; j++ {
			od[i*l.outFeatures+j] += bd[j]
		}
	}
	return out
}

// Backward consumes the gradient with respect to the output ([batch, out]),
// accumulates dW = gradOut.T @ x and db = column sums into the parameter
// gradients, and returns the gradient with respect to the input
// ([batch, in]). Requires a preceding Forward on this layer.
func (l *Linear) Backward(gradOut *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if l.lastInput == nil {
		panic("Linear.Backward called before Forward")
	}

	l.weight.AccumGrad(gradOut.Transpose().MatMul(l.lastInput))

	batch := gradOut.Shape()[0]
	biasGrad := tensor.Zeros[float32](tensor.Shape{l.outFeatures})
	gd, bd := gradOut.Data(), biasGrad.Data()
	for i := 0; i < batch; i++ {
		for j := 0; j < l.outFeatures; j++ {
			bd[j] += gd[i*l.outFeatures+j]
		}
	}
	l.bias.AccumGrad(biasGrad)

	return gradOut.MatMul(l.weight.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}
