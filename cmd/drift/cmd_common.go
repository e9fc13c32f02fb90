package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drift-ml/drift/config"
	"github.com/drift-ml/drift/dataset"
	"github.com/drift-ml/drift/internal/serialization"
	"github.com/drift-ml/drift/tensor"
)

// Defaults for keys the config may leave unset.
const (
	defaultBatchSize = 32
	defaultHidden    = 128
	defaultTimeDim   = 64
)

// loadDataset reads a training set from a .drift file holding tensors
// named "samples" and "params", plus an optional "props" table.
func loadDataset(path string) (*dataset.Dataset, error) {
	tensors, _, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	samples, err := float32Tensor(tensors, "samples")
	if err != nil {
		return nil, err
	}
	params, err := float32Tensor(tensors, "params")
	if err != nil {
		return nil, err
	}
	var props *tensor.Tensor[float32]
	if _, ok := tensors["props"]; ok {
		if props, err = float32Tensor(tensors, "props"); err != nil {
			return nil, err
		}
	}
	return dataset.New(samples, params, props)
}

func float32Tensor(tensors map[string]*tensor.RawTensor, name string) (*tensor.Tensor[float32], error) {
	raw, ok := tensors[name]
	if !ok {
		return nil, fmt.Errorf("dataset is missing tensor %q", name)
	}
	if raw.DType() != tensor.Float32 {
		return nil, fmt.Errorf("dataset tensor %q has dtype %s, want float32", name, raw.DType())
	}
	return tensor.New[float32](raw), nil
}

// hyper resolves the model hyperparameters from the config with
// fallbacks for unset keys.
func hyper(cfg *config.Config) (hidden, timeDim, batchSize int) {
	hidden = cfg.ModelChannels
	if hidden == 0 {
		hidden = defaultHidden
	}
	batchSize = cfg.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}
	return hidden, defaultTimeDim, batchSize
}

// parseFloats parses a comma-separated list like "0.1,-2,3.5".
func parseFloats(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseInts parses a comma-separated shape like "1,16,16".
func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
