package tensor

import (
	"math"
	"math/rand"
	"testing"
)

// TestShape_NumElements tests element counting.
func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{3, 4}, 12},
		{"image batch", Shape{2, 1, 28, 28}, 1568},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.NumElements(); got != tt.want {
				t.Errorf("NumElements() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestShape_Validate tests rejection of non-positive dimensions.
func TestShape_Validate(t *testing.T) {
	if err := (Shape{3, 4}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{3, 0}).Validate(); err == nil {
		t.Error("zero dimension accepted")
	}
	if err := (Shape{-1, 4}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}

// TestShape_ComputeStrides tests row-major stride computation.
func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("strides = %v, want %v", strides, want)
			break
		}
	}
}

// TestFromSlice tests tensor construction from Go slices.
func TestFromSlice(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	tr, err := FromSlice(data, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if tr.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %f, want 6", tr.At(1, 2))
	}

	// Element count mismatch should error
	if _, err := FromSlice(data, Shape{2, 2}); err == nil {
		t.Error("expected error for mismatched element count")
	}
}

// TestTensor_SetAt tests indexed reads and writes.
func TestTensor_SetAt(t *testing.T) {
	tr := Zeros[float64](Shape{3, 3})
	tr.Set(2.5, 1, 1)
	if tr.At(1, 1) != 2.5 {
		t.Errorf("At(1,1) = %f, want 2.5", tr.At(1, 1))
	}
	if tr.At(0, 0) != 0 {
		t.Errorf("At(0,0) = %f, want 0", tr.At(0, 0))
	}
}

// TestTensor_Clone tests that clones do not share memory.
func TestTensor_Clone(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3}, Shape{3})
	b := a.Clone()
	b.Set(99, 0)

	if a.At(0) != 1 {
		t.Errorf("clone mutation leaked into original: %f", a.At(0))
	}
}

// TestTensor_Reshape tests view semantics of reshape.
func TestTensor_Reshape(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	b := a.Reshape(3, 2)

	if !b.Shape().Equal(Shape{3, 2}) {
		t.Errorf("reshaped shape = %v, want [3 2]", b.Shape())
	}
	// Reshape is a view: writes are visible through both tensors.
	b.Set(42, 0, 0)
	if a.At(0, 0) != 42 {
		t.Error("reshape should share underlying data")
	}
}

// TestRandn_Reproducible tests that identically seeded sources give
// identical draws.
func TestRandn_Reproducible(t *testing.T) {
	a := Randn[float32](Shape{64}, rand.New(rand.NewSource(7)))
	b := Randn[float32](Shape{64}, rand.New(rand.NewSource(7)))

	ad, bd := a.Data(), b.Data()
	for i := range ad {
		if ad[i] != bd[i] {
			t.Fatalf("draw %d differs: %f vs %f", i, ad[i], bd[i])
		}
	}
}

// TestRandn_Moments sanity-checks the mean and variance of draws.
func TestRandn_Moments(t *testing.T) {
	tr := Randn[float64](Shape{100000}, rand.New(rand.NewSource(1)))

	var sum, sumSq float64
	for _, v := range tr.Data() {
		sum += v
		sumSq += v * v
	}
	n := float64(tr.NumElements())
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean) > 0.02 {
		t.Errorf("mean = %f, want ~0", mean)
	}
	if math.Abs(variance-1.0) > 0.02 {
		t.Errorf("variance = %f, want ~1", variance)
	}
}

// TestRawTensor_TypedViews tests the zero-copy typed views.
func TestRawTensor_TypedViews(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	view := raw.AsFloat32()
	view[2] = 3.5
	if raw.AsFloat32()[2] != 3.5 {
		t.Error("typed view should alias the underlying buffer")
	}

	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on a float32 tensor should panic")
		}
	}()
	raw.AsFloat64()
}
