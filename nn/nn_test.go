package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/drift-ml/drift/tensor"
)

func floatNear(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// TestLinear_ForwardValues checks the affine map against hand-set weights.
func TestLinear_ForwardValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewLinear("l", 2, 2, rng)

	// W = [[1, 2], [3, 4]], b = [10, 20]
	copy(l.weight.Tensor().Data(), []float32{1, 2, 3, 4})
	copy(l.bias.Tensor().Data(), []float32{10, 20})

	x, _ := tensor.FromSlice([]float32{1, 1, 2, 3}, tensor.Shape{2, 2})
	y := l.Forward(x)

	// Row 0: [1+2+10, 3+4+20] = [13, 27]
	// Row 1: [2+6+10, 6+12+20] = [18, 38]
	want := []float32{13, 27, 18, 38}
	for i, w := range want {
		if y.Data()[i] != w {
			t.Errorf("y[%d] = %f, want %f", i, y.Data()[i], w)
		}
	}
}

// TestLinear_BackwardFiniteDifference verifies every gradient the layer
// produces (weight, bias, input) against central differences on a scalar
// loss L = sum(y^2)/2.
func TestLinear_BackwardFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	l := NewLinear("l", 3, 2, rng)
	x, _ := tensor.FromSlice([]float32{0.5, -0.2, 0.3, 1.0, 0.1, -0.7}, tensor.Shape{2, 3})

	loss := func() float64 {
		y := l.Forward(x)
		var s float64
		for _, v := range y.Data() {
			s += 0.5 * float64(v) * float64(v)
		}
		return s
	}

	// Analytic pass: dL/dy = y.
	y := l.Forward(x)
	inGrad := l.Backward(y)

	const h = 1e-3
	check := func(name string, data []float32, grad []float32) {
		for i := range data {
			orig := data[i]
			data[i] = orig + h
			up := loss()
			data[i] = orig - h
			down := loss()
			data[i] = orig

			numeric := (up - down) / (2 * h)
			if !floatNear(float64(grad[i]), numeric, 1e-2) {
				t.Errorf("%s[%d]: analytic %f, numeric %f", name, i, grad[i], numeric)
			}
		}
	}

	check("weight", l.weight.Tensor().Data(), l.weight.Grad().Data())
	check("bias", l.bias.Tensor().Data(), l.bias.Grad().Data())
	check("input", x.Data(), inGrad.Data())
}

// TestSiLU_DerivativeFiniteDifference verifies the SiLU backward pass.
func TestSiLU_DerivativeFiniteDifference(t *testing.T) {
	act := NewSiLU()
	x, _ := tensor.FromSlice([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{1, 5})

	_ = act.Forward(x)
	ones := tensor.Full[float32](x.Shape(), 1)
	grad := act.Backward(ones)

	const h = 1e-3
	silu := func(v float64) float64 { return v / (1 + math.Exp(-v)) }
	for i, v := range x.Data() {
		numeric := (silu(float64(v)+h) - silu(float64(v)-h)) / (2 * h)
		if !floatNear(float64(grad.Data()[i]), numeric, 1e-3) {
			t.Errorf("silu'(%f): analytic %f, numeric %f", v, grad.Data()[i], numeric)
		}
	}
}

// TestParameter_GradAccumulation tests AccumGrad and ZeroGrad.
func TestParameter_GradAccumulation(t *testing.T) {
	data, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	p := NewParameter("p", data)

	g, _ := tensor.FromSlice([]float32{0.5, 0.25}, tensor.Shape{2})
	p.AccumGrad(g)
	p.AccumGrad(g)

	if p.Grad().Data()[0] != 1.0 || p.Grad().Data()[1] != 0.5 {
		t.Errorf("accumulated grad = %v", p.Grad().Data())
	}

	p.ZeroGrad()
	if p.Grad().Data()[0] != 0 || p.Grad().Data()[1] != 0 {
		t.Error("ZeroGrad did not reset gradients")
	}
}

// TestTimestepEmbedding_Values checks the sinusoidal encoding.
func TestTimestepEmbedding_Values(t *testing.T) {
	emb := NewTimestepEmbedding(8)
	out := emb.Embed([]int{0, 100})

	if !out.Shape().Equal(tensor.Shape{2, 8}) {
		t.Fatalf("shape = %v, want [2 8]", out.Shape())
	}

	// t=0: all cosines are 1, all sines are 0.
	row0 := out.Row(0)
	for j := 0; j < 4; j++ {
		if row0[j] != 1 {
			t.Errorf("cos slot %d at t=0: %f, want 1", j, row0[j])
		}
		if row0[4+j] != 0 {
			t.Errorf("sin slot %d at t=0: %f, want 0", j, row0[4+j])
		}
	}

	// t=100, frequency 0 is 1.0: cos(100), sin(100).
	row1 := out.Row(1)
	if !floatNear(float64(row1[0]), math.Cos(100), 1e-5) {
		t.Errorf("cos(100) slot: %f", row1[0])
	}
	if !floatNear(float64(row1[4]), math.Sin(100), 1e-5) {
		t.Errorf("sin(100) slot: %f", row1[4])
	}
}

// TestTimestepEmbedding_OddDim checks zero padding for odd widths.
func TestTimestepEmbedding_OddDim(t *testing.T) {
	emb := NewTimestepEmbedding(5)
	out := emb.Embed([]int{7})
	if out.Row(0)[4] != 0 {
		t.Errorf("odd-dim pad slot = %f, want 0", out.Row(0)[4])
	}
}

// TestStateDict_RoundTrip tests snapshot and restore of a parameter list.
func TestStateDict_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	l := NewLinear("enc", 4, 3, rng)

	sd := StateDictOf(l.Parameters())
	if len(sd) != 2 {
		t.Fatalf("state dict size = %d, want 2", len(sd))
	}

	// Snapshot must be decoupled from further training.
	orig := l.weight.Tensor().Data()[0]
	l.weight.Tensor().Data()[0] = orig + 42

	fresh := NewLinear("enc", 4, 3, rand.New(rand.NewSource(99)))
	if err := LoadStateDictInto(fresh.Parameters(), sd); err != nil {
		t.Fatalf("LoadStateDictInto failed: %v", err)
	}
	if fresh.weight.Tensor().Data()[0] != orig {
		t.Errorf("restored weight = %f, want %f", fresh.weight.Tensor().Data()[0], orig)
	}
}

// TestLoadStateDict_Validation tests missing keys and shape mismatches.
func TestLoadStateDict_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	l := NewLinear("enc", 4, 3, rng)

	if err := LoadStateDictInto(l.Parameters(), map[string]*tensor.RawTensor{}); err == nil {
		t.Error("expected error for missing keys")
	}

	wrong := NewLinear("enc", 2, 2, rng)
	sd := StateDictOf(wrong.Parameters())
	if err := LoadStateDictInto(l.Parameters(), sd); err == nil {
		t.Error("expected error for shape mismatch")
	}
}
