package optim

import (
	"fmt"
	"math"

	"github.com/drift-ml/drift/nn"
	"github.com/drift-ml/drift/tensor"
)

// AdamW implements Adam with decoupled weight decay.
//
// Update rule per parameter element:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	w = w - lr * (mHat / (sqrt(vHat) + eps) + weightDecay*w)
//
// Unlike classic Adam's L2 term, the decay is applied directly to the
// weights, outside the moment estimates.
//
// Reference: "Decoupled Weight Decay Regularization" (Loshchilov & Hutter, 2017)
type AdamW struct {
	params      []*nn.Parameter
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64

	t int // timestep for bias correction
	m []*tensor.Tensor[float32]
	v []*tensor.Tensor[float32]
}

// AdamWConfig holds the AdamW hyperparameters. Zero values fall back to
// the defaults: LR 1e-3, Betas (0.9, 0.999), Eps 1e-8, WeightDecay 1e-4.
type AdamWConfig struct {
	LR          float64
	Betas       [2]float64
	Eps         float64
	WeightDecay float64
}

// NewAdamW creates an AdamW optimizer over the given parameters.
func NewAdamW(params []*nn.Parameter, config AdamWConfig) *AdamW {
	if config.LR == 0 {
		config.LR = 1e-3
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.WeightDecay == 0 {
		config.WeightDecay = 1e-4
	}

	m := make([]*tensor.Tensor[float32], len(params))
	v := make([]*tensor.Tensor[float32], len(params))
	for i, p := range params {
		m[i] = tensor.Zeros[float32](p.Tensor().Shape())
		v[i] = tensor.Zeros[float32](p.Tensor().Shape())
	}

	return &AdamW{
		params:      params,
		lr:          config.LR,
		beta1:       config.Betas[0],
		beta2:       config.Betas[1],
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           m,
		v:           v,
	}
}

// Step applies one AdamW update from the accumulated gradients.
func (a *AdamW) Step() {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for i, p := range a.params {
		w := p.Tensor().Data()
		g := p.Grad().Data()
		md := a.m[i].Data()
		vd := a.v[i].Data()

		for j := range w {
			gj := float64(g[j])
			mj := a.beta1*float64(md[j]) + (1-a.beta1)*gj
			vj := a.beta2*float64(vd[j]) + (1-a.beta2)*gj*gj
			md[j] = float32(mj)
			vd[j] = float32(vj)

			mHat := mj / bc1
			vHat := vj / bc2
			w[j] -= float32(a.lr * (mHat/(math.Sqrt(vHat)+a.eps) + a.weightDecay*float64(w[j])))
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *AdamW) ZeroGrad() {
	zeroAll(a.params)
}

// LR returns the learning rate.
func (a *AdamW) LR() float64 {
	return a.lr
}

// StateDict returns the moment buffers and step counter, keyed by
// parameter name ("<name>.m", "<name>.v") plus a scalar "t".
func (a *AdamW) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor, 2*len(a.params)+1)
	for i, p := range a.params {
		sd[p.Name()+".m"] = a.m[i].Raw().Clone()
		sd[p.Name()+".v"] = a.v[i].Raw().Clone()
	}
	step := tensor.Full[float32](tensor.Shape{1}, float32(a.t))
	sd["t"] = step.Raw()
	return sd
}

// LoadStateDict restores the moment buffers and step counter.
func (a *AdamW) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, p := range a.params {
		for _, part := range []struct {
			key string
			dst *tensor.Tensor[float32]
		}{
			{p.Name() + ".m", a.m[i]},
			{p.Name() + ".v", a.v[i]},
		} {
			raw, ok := stateDict[part.key]
			if !ok {
				return fmt.Errorf("missing %q in optimizer state", part.key)
			}
			if !raw.Shape().Equal(part.dst.Shape()) {
				return fmt.Errorf("%q shape mismatch: expected %v, got %v", part.key, part.dst.Shape(), raw.Shape())
			}
			copy(part.dst.Data(), raw.AsFloat32())
		}
	}

	step, ok := stateDict["t"]
	if !ok {
		return fmt.Errorf("missing step counter in optimizer state")
	}
	a.t = int(step.AsFloat32()[0])
	return nil
}
