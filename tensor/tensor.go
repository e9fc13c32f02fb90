// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in Drift.
//
// The package defines the core types used throughout the diffusion toolkit:
//   - Tensor[T]: generic, type-safe dense tensor (float32 or float64)
//   - RawTensor: low-level, type-erased tensor for serialization/state dicts
//   - Shape, DataType: core type definitions
//
// Example:
//
//	rng := rand.New(rand.NewSource(42))
//	x := tensor.Randn[float32](tensor.Shape{2, 1, 32, 32}, rng)
//	y := x.MulScalar(0.5)
package tensor

import (
	"math/rand"

	"github.com/drift-ml/drift/internal/tensor"
)

// Type aliases for the public API.

// DType is a constraint for tensor element types: float32 or float64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a generic type-safe dense tensor.
type Tensor[T DType] = tensor.Tensor[T]

// RawTensor is the low-level, type-erased tensor representation.
type RawTensor = tensor.RawTensor

// Creation functions.

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape) *Tensor[T] {
	return tensor.Zeros[T](shape)
}

// Full creates a tensor filled with a specific value.
func Full[T DType](shape Shape, value T) *Tensor[T] {
	return tensor.Full[T](shape, value)
}

// Randn creates a tensor with standard-normal values drawn from the
// supplied random source. Identically seeded sources yield identical
// tensors, which is what makes diffusion trajectories reproducible.
func Randn[T DType](shape Shape, rng *rand.Rand) *Tensor[T] {
	return tensor.Randn[T](shape, rng)
}

// FromSlice creates a tensor from a Go slice, copying the data.
func FromSlice[T DType](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice[T](data, shape)
}

// New creates a Tensor from a RawTensor.
func New[T DType](raw *RawTensor) *Tensor[T] {
	return tensor.New[T](raw)
}

// NewRaw creates a new RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}
