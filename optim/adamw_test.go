package optim

import (
	"math"
	"testing"

	"github.com/drift-ml/drift/nn"
	"github.com/drift-ml/drift/tensor"
)

func newScalarParam(t *testing.T, name string, value, grad float32) *nn.Parameter {
	t.Helper()
	data, err := tensor.FromSlice([]float32{value}, tensor.Shape{1})
	if err != nil {
		t.Fatal(err)
	}
	p := nn.NewParameter(name, data)
	g, err := tensor.FromSlice([]float32{grad}, tensor.Shape{1})
	if err != nil {
		t.Fatal(err)
	}
	p.AccumGrad(g)
	return p
}

// TestAdamW_FirstStep verifies the first update against hand computation.
func TestAdamW_FirstStep(t *testing.T) {
	p := newScalarParam(t, "x", 2.0, 0.5)
	opt := NewAdamW([]*nn.Parameter{p}, AdamWConfig{LR: 0.1, WeightDecay: 1e-4})

	opt.Step()

	// t=1: m = 0.1*0.5 = 0.05, v = 0.001*0.25 = 2.5e-4
	// mHat = 0.05/0.1 = 0.5, vHat = 2.5e-4/0.001 = 0.25
	// w = 2 - 0.1*(0.5/(sqrt(0.25)+1e-8) + 1e-4*2)
	//   = 2 - 0.1*(1.0 + 2e-4) = 1.89998
	want := 2.0 - 0.1*(0.5/(math.Sqrt(0.25)+1e-8)+1e-4*2.0)
	got := float64(p.Tensor().Data()[0])
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("after step: %v, want %v", got, want)
	}
}

// TestAdamW_DecoupledDecay: with zero gradient, only the decay term moves
// the weight.
func TestAdamW_DecoupledDecay(t *testing.T) {
	p := newScalarParam(t, "x", 10.0, 0.0)
	opt := NewAdamW([]*nn.Parameter{p}, AdamWConfig{LR: 0.1, WeightDecay: 0.01})

	opt.Step()

	want := 10.0 - 0.1*0.01*10.0
	got := float64(p.Tensor().Data()[0])
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("after decay-only step: %v, want %v", got, want)
	}
}

// TestAdamW_ZeroGrad clears accumulated gradients.
func TestAdamW_ZeroGrad(t *testing.T) {
	p := newScalarParam(t, "x", 1.0, 3.0)
	opt := NewAdamW([]*nn.Parameter{p}, AdamWConfig{})

	opt.ZeroGrad()
	if p.Grad().Data()[0] != 0 {
		t.Errorf("grad after ZeroGrad = %f", p.Grad().Data()[0])
	}
}

// TestAdamW_ConvergesOnQuadratic: minimizing (w-3)^2 walks w to 3.
func TestAdamW_ConvergesOnQuadratic(t *testing.T) {
	p := newScalarParam(t, "w", 0.0, 0.0)
	opt := NewAdamW([]*nn.Parameter{p}, AdamWConfig{LR: 0.05, WeightDecay: 1e-8})

	for i := 0; i < 2000; i++ {
		opt.ZeroGrad()
		w := p.Tensor().Data()[0]
		g, _ := tensor.FromSlice([]float32{2 * (w - 3)}, tensor.Shape{1})
		p.AccumGrad(g)
		opt.Step()
	}

	got := float64(p.Tensor().Data()[0])
	if math.Abs(got-3.0) > 1e-2 {
		t.Errorf("w after optimization = %f, want ~3", got)
	}
}

// TestAdamW_StateDictRoundTrip: a restored optimizer continues identically.
func TestAdamW_StateDictRoundTrip(t *testing.T) {
	step := func(opt *AdamW, p *nn.Parameter) {
		opt.ZeroGrad()
		g, _ := tensor.FromSlice([]float32{0.3}, tensor.Shape{1})
		p.AccumGrad(g)
		opt.Step()
	}

	p1 := newScalarParam(t, "x", 1.0, 0.0)
	opt1 := NewAdamW([]*nn.Parameter{p1}, AdamWConfig{LR: 0.01})
	step(opt1, p1)
	step(opt1, p1)
	sd := opt1.StateDict()
	value := p1.Tensor().Data()[0]

	// Restore into a fresh optimizer over a parameter at the same value.
	p2 := newScalarParam(t, "x", 0.0, 0.0)
	p2.Tensor().Data()[0] = value
	p2.ZeroGrad()
	opt2 := NewAdamW([]*nn.Parameter{p2}, AdamWConfig{LR: 0.01})
	if err := opt2.LoadStateDict(sd); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	step(opt1, p1)
	step(opt2, p2)

	if p1.Tensor().Data()[0] != p2.Tensor().Data()[0] {
		t.Errorf("restored optimizer diverged: %f vs %f", p1.Tensor().Data()[0], p2.Tensor().Data()[0])
	}
}

// TestAdamW_LoadStateDict_Validation tests missing-key errors.
func TestAdamW_LoadStateDict_Validation(t *testing.T) {
	p := newScalarParam(t, "x", 1.0, 0.0)
	opt := NewAdamW([]*nn.Parameter{p}, AdamWConfig{})

	if err := opt.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("expected error for empty optimizer state")
	}
}
