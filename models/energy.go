package models

import (
	"fmt"
	"math/rand"

	"github.com/drift-ml/drift/diffusion"
	"github.com/drift-ml/drift/nn"
	"github.com/drift-ml/drift/tensor"
)

// EnergyConfig describes an EnergyNet.
type EnergyConfig struct {
	// ParamDim is the conditioning vector width.
	ParamDim int

	// PropDim is the property vector width.
	PropDim int

	// Hidden is the width of the hidden layer.
	Hidden int
}

// EnergyNet is the property half-model used for energy guidance: an MLP
// mapping a conditioning vector to a predicted property vector. The energy
// of a (conditioning, property) pair is half the squared distance between
// the prediction and the target,
//
//	E(cond, prop) = 0.5 * ||f(cond) - prop||^2,
//
// so the gradient with respect to cond is the Jacobian-transposed residual,
// obtained exactly by one backward pass.
type EnergyNet struct {
	cfg EnergyConfig

	l1, l2 *nn.Linear
	a1     *nn.SiLU
}

var _ diffusion.EnergyModel = (*EnergyNet)(nil)

// NewEnergyNet creates an EnergyNet with Xavier-initialized weights.
func NewEnergyNet(cfg EnergyConfig, rng *rand.Rand) (*EnergyNet, error) {
	if cfg.ParamDim <= 0 || cfg.PropDim <= 0 || cfg.Hidden <= 0 {
		return nil, fmt.Errorf("param/prop/hidden dims must be positive, got %d/%d/%d",
			cfg.ParamDim, cfg.PropDim, cfg.Hidden)
	}
	return &EnergyNet{
		cfg: cfg,
		l1:  nn.NewLinear("l1", cfg.ParamDim, cfg.Hidden, rng),
		a1:  nn.NewSiLU(),
		l2:  nn.NewLinear("l2", cfg.Hidden, cfg.PropDim, rng),
	}, nil
}

// Forward maps a batch of conditioning vectors [batch, paramDim] to
// predicted properties [batch, propDim].
func (e *EnergyNet) Forward(cond *tensor.Tensor[float32]) (*tensor.Tensor[float32], error) {
	shape := cond.Shape()
	if len(shape) != 2 || shape[1] != e.cfg.ParamDim {
		return nil, fmt.Errorf("conditioning shape %v, want [batch %d]", shape, e.cfg.ParamDim)
	}
	return e.l2.Forward(e.a1.Forward(e.l1.Forward(cond))), nil
}

// Energy implements diffusion.EnergyModel.
func (e *EnergyNet) Energy(cond, prop []float32) (float32, error) {
	pred, err := e.forwardOne(cond)
	if err != nil {
		return 0, err
	}
	if len(prop) != e.cfg.PropDim {
		return 0, fmt.Errorf("property length %d, want %d", len(prop), e.cfg.PropDim)
	}

	var energy float32
	for i, p := range pred.Data() {
		d := p - prop[i]
		energy += 0.5 * d * d
	}
	return energy, nil
}

// EnergyGrad implements diffusion.EnergyModel: the gradient of Energy with
// respect to cond via one backward pass with the residual as the upstream
// gradient. Parameter gradients accumulated along the way are discarded.
func (e *EnergyNet) EnergyGrad(cond, prop []float32) ([]float32, error) {
	pred, err := e.forwardOne(cond)
	if err != nil {
		return nil, err
	}
	if len(prop) != e.cfg.PropDim {
		return nil, fmt.Errorf("property length %d, want %d", len(prop), e.cfg.PropDim)
	}

	residual := tensor.Zeros[float32](tensor.Shape{1, e.cfg.PropDim})
	rd := residual.Data()
	for i, p := range pred.Data() {
		rd[i] = p - prop[i]
	}

	// Guidance must not disturb training state.
	saved := e.saveGrads()
	inGrad := e.l1.Backward(e.a1.Backward(e.l2.Backward(residual)))
	e.restoreGrads(saved)

	grad := make([]float32, e.cfg.ParamDim)
	copy(grad, inGrad.Data())
	return grad, nil
}

// TrainLoss computes the property-regression MSE over a batch and runs
// the backward pass, accumulating parameter gradients for an optimizer
// step. cond is [batch, paramDim], props is [batch, propDim].
func (e *EnergyNet) TrainLoss(cond, props *tensor.Tensor[float32]) (float32, error) {
	pred, err := e.Forward(cond)
	if err != nil {
		return 0, err
	}
	if !pred.Shape().Equal(props.Shape()) {
		return 0, fmt.Errorf("property shape %v, want %v", props.Shape(), pred.Shape())
	}

	diff := pred.Sub(props)
	loss := diff.Mul(diff).Mean()

	grad := diff.MulScalar(2.0 / float32(diff.NumElements()))
	_ = e.l1.Backward(e.a1.Backward(e.l2.Backward(grad)))
	return loss, nil
}

func (e *EnergyNet) forwardOne(cond []float32) (*tensor.Tensor[float32], error) {
	if len(cond) != e.cfg.ParamDim {
		return nil, fmt.Errorf("conditioning length %d, want %d", len(cond), e.cfg.ParamDim)
	}
	in, err := tensor.FromSlice(cond, tensor.Shape{1, e.cfg.ParamDim})
	if err != nil {
		return nil, err
	}
	return e.Forward(in)
}

func (e *EnergyNet) saveGrads() []*tensor.Tensor[float32] {
	params := e.Parameters()
	saved := make([]*tensor.Tensor[float32], len(params))
	for i, p := range params {
		saved[i] = p.Grad().Clone()
	}
	return saved
}

func (e *EnergyNet) restoreGrads(saved []*tensor.Tensor[float32]) {
	for i, p := range e.Parameters() {
		copy(p.Grad().Data(), saved[i].Data())
	}
}

// Parameters returns all trainable parameters.
func (e *EnergyNet) Parameters() []*nn.Parameter {
	return append(e.l1.Parameters(), e.l2.Parameters()...)
}

// StateDict returns the model weights for checkpointing.
func (e *EnergyNet) StateDict() map[string]*tensor.RawTensor {
	return nn.StateDictOf(e.Parameters())
}

// LoadStateDict restores the model weights from a checkpoint.
func (e *EnergyNet) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nn.LoadStateDictInto(e.Parameters(), stateDict)
}
