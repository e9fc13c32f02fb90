package tensor

import (
	"fmt"
	"math"

	"github.com/drift-ml/drift/internal/parallel"
)

// binary applies an elementwise binary op. Shapes must match exactly;
// broadcasting is not part of this tensor core (the diffusion math never
// needs it, and exact-shape ops keep the hot loops trivial).
func binary[T DType](a, b *Tensor[T], op func(x, y T) T) *Tensor[T] {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}
	out := Zeros[T](a.Shape())
	ad, bd, od := a.Data(), b.Data(), out.Data()
	for i := range od {
		od[i] = op(ad[i], bd[i])
	}
	return out
}

// Add returns the elementwise sum of two tensors.
func (t *Tensor[T]) Add(other *Tensor[T]) *Tensor[T] {
	return binary(t, other, func(x, y T) T { return x + y })
}

// Sub returns the elementwise difference of two tensors.
func (t *Tensor[T]) Sub(other *Tensor[T]) *Tensor[T] {
	return binary(t, other, func(x, y T) T { return x - y })
}

// Mul returns the elementwise (Hadamard) product of two tensors.
func (t *Tensor[T]) Mul(other *Tensor[T]) *Tensor[T] {
	return binary(t, other, func(x, y T) T { return x * y })
}

// Div returns the elementwise quotient of two tensors.
func (t *Tensor[T]) Div(other *Tensor[T]) *Tensor[T] {
	return binary(t, other, func(x, y T) T { return x / y })
}

// unary applies an elementwise unary op, returning a new tensor.
func unary[T DType](t *Tensor[T], op func(x T) T) *Tensor[T] {
	out := Zeros[T](t.Shape())
	td, od := t.Data(), out.Data()
	for i := range od {
		od[i] = op(td[i])
	}
	return out
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T]) MulScalar(scalar T) *Tensor[T] {
	return unary(t, func(x T) T { return x * scalar })
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T]) AddScalar(scalar T) *Tensor[T] {
	return unary(t, func(x T) T { return x + scalar })
}

// SubScalar subtracts a scalar from every element.
func (t *Tensor[T]) SubScalar(scalar T) *Tensor[T] {
	return unary(t, func(x T) T { return x - scalar })
}

// DivScalar divides every element by a scalar.
func (t *Tensor[T]) DivScalar(scalar T) *Tensor[T] {
	return unary(t, func(x T) T { return x / scalar })
}

// Sqrt returns the elementwise square root.
func (t *Tensor[T]) Sqrt() *Tensor[T] {
	return unary(t, func(x T) T { return T(math.Sqrt(float64(x))) })
}

// Sum returns the sum of all elements.
func (t *Tensor[T]) Sum() T {
	var sum T
	for _, v := range t.Data() {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean over all elements.
func (t *Tensor[T]) Mean() T {
	return t.Sum() / T(t.NumElements())
}

// Transpose returns the transpose of a 2-D tensor as a new tensor.
func (t *Tensor[T]) Transpose() *Tensor[T] {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Transpose requires a 2-D tensor, got %v", shape))
	}
	m, n := shape[0], shape[1]
	out := Zeros[T](Shape{n, m})
	td, od := t.Data(), out.Data()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			od[j*m+i] = td[i*n+j]
		}
	}
	return out
}

// MatMul performs 2-D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (t *Tensor[T]) MatMul(other *Tensor[T]) *Tensor[T] {
	a, b := t.Shape(), other.Shape()
	if len(a) != 2 || len(b) != 2 {
		panic(fmt.Sprintf("MatMul requires 2-D tensors, got %v and %v", a, b))
	}
	if a[1] != b[0] {
		panic(fmt.Sprintf("MatMul inner dimension mismatch: %v @ %v", a, b))
	}

	m, k, n := a[0], a[1], b[1]
	out := Zeros[T](Shape{m, n})
	ad, bd, od := t.Data(), other.Data(), out.Data()

	// Row-major i-k-j loop order keeps b's accesses sequential. Rows
	// write disjoint output slices, so the parallel fan-out does not
	// change the result.
	parallel.For(m, func(i int) {
		for p := 0; p < k; p++ {
			av := ad[i*k+p]
			if av == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				od[i*n+j] += av * bd[p*n+j]
			}
		}
	}, parallel.DefaultConfig())
	return out
}
