package diffusion

import (
	"errors"

	"github.com/drift-ml/drift/tensor"
)

// zeroDenoiser predicts zero noise at every step.
type zeroDenoiser struct{}

func (zeroDenoiser) Predict(x *tensor.Tensor[float32], _ []int, _ *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return tensor.Zeros[float32](x.Shape()), nil
}

// oracleDenoiser recovers the exact injected noise from the noisy sample,
// the clean batch it was built from, and the schedule:
// ε = (x_t - sqrt(alphaBar[t])*x0) / sqrt(1-alphaBar[t]).
type oracleDenoiser struct {
	x0       *tensor.Tensor[float32]
	schedule *Schedule
}

func (d *oracleDenoiser) Predict(x *tensor.Tensor[float32], t []int, _ *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	batch := x.Shape()[0]
	perItem := x.NumElements() / batch

	out := tensor.Zeros[float32](x.Shape())
	xd, cd, od := x.Data(), d.x0.Data(), out.Data()
	for i := 0; i < batch; i++ {
		a := float32(d.schedule.SqrtAlphaBar(t[i]))
		b := float32(d.schedule.SqrtOneMinusAlphaBar(t[i]))
		for j := i * perItem; j < (i+1)*perItem; j++ {
			od[j] = (xd[j] - a*cd[j]) / b
		}
	}
	return out, nil
}

// affineDenoiser is an arbitrary but fully deterministic model: the
// prediction depends on the input, the step index and the conditioning
// vector, which makes it suitable for reproducibility tests.
type affineDenoiser struct{}

func (affineDenoiser) Predict(x *tensor.Tensor[float32], t []int, cond *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	batch := x.Shape()[0]
	perItem := x.NumElements() / batch
	dim := cond.Shape()[1]

	out := tensor.Zeros[float32](x.Shape())
	xd, od := x.Data(), out.Data()
	for i := 0; i < batch; i++ {
		var condSum float32
		for _, v := range cond.Row(i) {
			condSum += v
		}
		k := 0.3 + 1e-4*float32(t[i]) + 0.01*condSum
		for j := i * perItem; j < (i+1)*perItem; j++ {
			od[j] = k * xd[j] / (1 + xd[j]*xd[j]/float32(dim))
		}
	}
	return out, nil
}

// badShapeDenoiser violates the prediction-shape contract.
type badShapeDenoiser struct{}

func (badShapeDenoiser) Predict(x *tensor.Tensor[float32], _ []int, _ *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return tensor.Zeros[float32](tensor.Shape{1, 1}), nil
}

// failingDenoiser always errors.
type failingDenoiser struct{}

var errModelDown = errors.New("model unavailable")

func (failingDenoiser) Predict(*tensor.Tensor[float32], []int, *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	return nil, errModelDown
}

// quadraticEnergy is E(cond, prop) = 0.5*||cond - prop||^2 with the exact
// analytic gradient cond - prop. calls counts gradient evaluations.
type quadraticEnergy struct {
	calls int
}

func (q *quadraticEnergy) Energy(cond, prop []float32) (float32, error) {
	var e float32
	for i := range cond {
		d := cond[i] - prop[i]
		e += 0.5 * d * d
	}
	return e, nil
}

func (q *quadraticEnergy) EnergyGrad(cond, prop []float32) ([]float32, error) {
	q.calls++
	grad := make([]float32, len(cond))
	for i := range cond {
		grad[i] = cond[i] - prop[i]
	}
	return grad, nil
}
