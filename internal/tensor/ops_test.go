package tensor

import (
	"math"
	"testing"
)

// TestElementwiseOps tests the binary elementwise operations.
func TestElementwiseOps(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	b, _ := FromSlice([]float32{4, 3, 2, 1}, Shape{2, 2})

	tests := []struct {
		name string
		got  *Tensor[float32]
		want []float32
	}{
		{"add", a.Add(b), []float32{5, 5, 5, 5}},
		{"sub", a.Sub(b), []float32{-3, -1, 1, 3}},
		{"mul", a.Mul(b), []float32{4, 6, 6, 4}},
		{"div", a.Div(b), []float32{0.25, 2.0 / 3.0, 1.5, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.got.Data()
			for i, want := range tt.want {
				if math.Abs(float64(data[i]-want)) > 1e-6 {
					t.Errorf("element %d: got %f, want %f", i, data[i], want)
				}
			}
		})
	}
}

// TestElementwise_ShapeMismatchPanics tests that mismatched shapes panic.
func TestElementwise_ShapeMismatchPanics(t *testing.T) {
	a := Zeros[float32](Shape{2, 2})
	b := Zeros[float32](Shape{4})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for shape mismatch")
		}
	}()
	a.Add(b)
}

// TestScalarOps tests scalar broadcast operations.
func TestScalarOps(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, Shape{3})

	if got := a.MulScalar(2).Data(); got[2] != 6 {
		t.Errorf("MulScalar: got %v", got)
	}
	if got := a.AddScalar(1).Data(); got[0] != 2 {
		t.Errorf("AddScalar: got %v", got)
	}
	if got := a.SubScalar(1).Data(); got[0] != 0 {
		t.Errorf("SubScalar: got %v", got)
	}
	if got := a.DivScalar(2).Data(); got[1] != 1 {
		t.Errorf("DivScalar: got %v", got)
	}
}

// TestSqrt tests the elementwise square root.
func TestSqrt(t *testing.T) {
	a, _ := FromSlice([]float64{1, 4, 9, 16}, Shape{4})
	got := a.Sqrt().Data()
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sqrt[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestSumMean tests the reductions.
func TestSumMean(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if a.Sum() != 10 {
		t.Errorf("Sum = %f, want 10", a.Sum())
	}
	if a.Mean() != 2.5 {
		t.Errorf("Mean = %f, want 2.5", a.Mean())
	}
}

// TestMatMul tests 2-D matrix multiplication against hand-computed values.
func TestMatMul(t *testing.T) {
	// [2,3] @ [3,2] -> [2,2]
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b, _ := FromSlice([]float32{7, 8, 9, 10, 11, 12}, Shape{3, 2})

	got := a.MatMul(b)
	// Row 0: 1*7+2*9+3*11 = 58, 1*8+2*10+3*12 = 64
	// Row 1: 4*7+5*9+6*11 = 139, 4*8+5*10+6*12 = 154
	want := []float32{58, 64, 139, 154}
	for i, w := range want {
		if got.Data()[i] != w {
			t.Errorf("matmul[%d] = %f, want %f", i, got.Data()[i], w)
		}
	}
}

// TestMatMul_InnerDimMismatchPanics tests dimension validation.
func TestMatMul_InnerDimMismatchPanics(t *testing.T) {
	a := Zeros[float32](Shape{2, 3})
	b := Zeros[float32](Shape{2, 3})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for inner dimension mismatch")
		}
	}()
	a.MatMul(b)
}
