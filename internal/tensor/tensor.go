package tensor

import "fmt"

// Tensor is a generic tensor with element type T.
// It provides type-safe operations over multi-dimensional arrays.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{3, 4})
//	result := t.Add(t) // Type-safe addition
type Tensor[T DType] struct {
	raw *RawTensor
}

// New creates a Tensor from a RawTensor.
// Panics if the raw dtype does not match T.
func New[T DType](raw *RawTensor) *Tensor[T] {
	var dummy T
	if raw.DType() != inferDataType(dummy) {
		panic(fmt.Sprintf("raw tensor dtype is %s, want %s", raw.DType(), inferDataType(dummy)))
	}
	return &Tensor[T]{raw: raw}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*Tensor[T], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}

	t := New[T](raw)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T]) Raw() *RawTensor {
	return t.raw
}

// Data returns a typed slice view of the tensor's data (zero-copy).
//
// WARNING: modifications to the returned slice modify the tensor.
func (t *Tensor[T]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	default:
		panic("unsupported type")
	}
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T]) flatIndex(indices []int) int {
	if len(indices) != len(t.Shape()) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.Shape()), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape()[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.Shape()[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return &Tensor[T]{raw: t.raw.Clone()}
}

// Reshape returns a tensor viewing the same data with a new shape.
// The element count must be preserved.
func (t *Tensor[T]) Reshape(dims ...int) *Tensor[T] {
	newShape := Shape(dims)
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	raw := &RawTensor{
		data:   t.raw.data,
		shape:  newShape.Clone(),
		stride: newShape.ComputeStrides(),
		dtype:  t.raw.dtype,
	}
	return &Tensor[T]{raw: raw}
}

// Row returns a copy of row i of a 2-D tensor as a plain slice.
func (t *Tensor[T]) Row(i int) []T {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Row only works for 2-D tensors, got shape %v", shape))
	}
	if i < 0 || i >= shape[0] {
		panic(fmt.Sprintf("row %d out of bounds (size %d)", i, shape[0]))
	}
	row := make([]T, shape[1])
	copy(row, t.Data()[i*shape[1]:(i+1)*shape[1]])
	return row
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%v", t.raw.DType(), t.raw.Shape())
}
