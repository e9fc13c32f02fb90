// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides in-memory training data handling: a Dataset
// bundling samples with their conditioning parameters and measured
// properties, shuffled mini-batch iteration, and per-column
// standardization for the parameter and property tables.
package dataset

import (
	"fmt"
	"math/rand"

	"github.com/drift-ml/drift/tensor"
)

// Dataset is an in-memory training set. Samples, Params and Props share
// the leading dimension; Props may be nil when no property labels exist.
type Dataset struct {
	samples *tensor.Tensor[float32]
	params  *tensor.Tensor[float32]
	props   *tensor.Tensor[float32]
}

// New validates the leading dimensions and builds a Dataset.
func New(samples, params, props *tensor.Tensor[float32]) (*Dataset, error) {
	if samples == nil || params == nil {
		return nil, fmt.Errorf("samples and params are required")
	}
	if len(samples.Shape()) < 2 {
		return nil, fmt.Errorf("samples must be batched, got shape %v", samples.Shape())
	}
	n := samples.Shape()[0]
	if len(params.Shape()) != 2 || params.Shape()[0] != n {
		return nil, fmt.Errorf("params shape %v, want [%d dim]", params.Shape(), n)
	}
	if props != nil {
		if len(props.Shape()) != 2 || props.Shape()[0] != n {
			return nil, fmt.Errorf("props shape %v, want [%d dim]", props.Shape(), n)
		}
	}
	return &Dataset{samples: samples, params: params, props: props}, nil
}

// Len returns the number of items.
func (d *Dataset) Len() int { return d.samples.Shape()[0] }

// Samples returns the full sample tensor.
func (d *Dataset) Samples() *tensor.Tensor[float32] { return d.samples }

// Params returns the full conditioning parameter table.
func (d *Dataset) Params() *tensor.Tensor[float32] { return d.params }

// Props returns the property table, or nil if absent.
func (d *Dataset) Props() *tensor.Tensor[float32] { return d.props }

// HasProps reports whether property labels are present.
func (d *Dataset) HasProps() bool { return d.props != nil }

// Batch is one mini-batch of training data. Props is nil when the
// dataset has no property labels.
type Batch struct {
	Samples *tensor.Tensor[float32]
	Params  *tensor.Tensor[float32]
	Props   *tensor.Tensor[float32]
}

// Gather copies the given items into a new Batch.
func (d *Dataset) Gather(indices []int) (Batch, error) {
	n := d.Len()
	for _, i := range indices {
		if i < 0 || i >= n {
			return Batch{}, fmt.Errorf("index %d out of range [0, %d)", i, n)
		}
	}

	b := Batch{
		Samples: gatherRows(d.samples, indices),
		Params:  gatherRows(d.params, indices),
	}
	if d.props != nil {
		b.Props = gatherRows(d.props, indices)
	}
	return b, nil
}

// Batches returns index slices covering the dataset in shuffled order.
// The final batch may be smaller; batches are never empty.
func (d *Dataset) Batches(batchSize int, rng *rand.Rand) ([][]int, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	perm := rng.Perm(d.Len())
	var batches [][]int
	for start := 0; start < len(perm); start += batchSize {
		end := min(start+batchSize, len(perm))
		batches = append(batches, perm[start:end])
	}
	return batches, nil
}

// gatherRows copies items along the leading dimension into a new tensor.
func gatherRows(t *tensor.Tensor[float32], indices []int) *tensor.Tensor[float32] {
	shape := t.Shape().Clone()
	itemSize := t.NumElements() / shape[0]
	shape[0] = len(indices)

	out := tensor.Zeros[float32](shape)
	od, td := out.Data(), t.Data()
	for j, i := range indices {
		copy(od[j*itemSize:(j+1)*itemSize], td[i*itemSize:(i+1)*itemSize])
	}
	return out
}
