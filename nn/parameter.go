package nn

import (
	"github.com/drift-ml/drift/tensor"
)

// Parameter is a trainable tensor with an accumulated gradient.
//
// Gradients are accumulated by layer Backward passes and consumed by an
// optimizer; ZeroGrad resets them between steps.
type Parameter struct {
	name string
	data *tensor.Tensor[float32]
	grad *tensor.Tensor[float32]
}

// NewParameter creates a named parameter wrapping the given tensor.
// The gradient starts out zeroed with the same shape.
func NewParameter(name string, data *tensor.Tensor[float32]) *Parameter {
	return &Parameter{
		name: name,
		data: data,
		grad: tensor.Zeros[float32](data.Shape()),
	}
}

// Name returns the parameter's name (the state-dict key).
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter's value tensor.
func (p *Parameter) Tensor() *tensor.Tensor[float32] {
	return p.data
}

// Grad returns the accumulated gradient tensor.
func (p *Parameter) Grad() *tensor.Tensor[float32] {
	return p.grad
}

// AccumGrad adds g into the accumulated gradient.
func (p *Parameter) AccumGrad(g *tensor.Tensor[float32]) {
	gd, ad := g.Data(), p.grad.Data()
	for i := range ad {
		ad[i] += gd[i]
	}
}

// ZeroGrad resets the accumulated gradient to zero.
func (p *Parameter) ZeroGrad() {
	data := p.grad.Data()
	for i := range data {
		data[i] = 0
	}
}
