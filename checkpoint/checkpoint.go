// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores training snapshots.
//
// A Manager owns a checkpoint directory for one training run. Feed it
// the loss after every optimizer step; it keeps "latest.drift" on a
// fixed cadence and "best.drift" whenever the loss improves. Snapshots
// bundle model weights and optimizer state in a single .drift file, so
// a resumed run continues bit-for-bit where it left off.
//
// Example:
//
//	mgr, err := checkpoint.NewManager(checkpoint.Config{Dir: "ckpt", Every: 500})
//	...
//	for step := range steps {
//		loss := trainStep()
//		err := mgr.Observe(loss, func() checkpoint.Snapshot {
//			return checkpoint.Snapshot{
//				Model:     model.StateDict(),
//				Optimizer: opt.StateDict(),
//				Epoch:     epoch,
//			}
//		})
//	}
package checkpoint

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/drift-ml/drift/internal/serialization"
	"github.com/drift-ml/drift/tensor"
)

// Well-known snapshot file names.
const (
	LatestName = "latest.drift"
	BestName   = "best.drift"
)

// Key prefixes separating the two state dicts inside one file.
const (
	modelPrefix = "model."
	optimPrefix = "optim."
)

// Snapshot is everything needed to resume a training run.
type Snapshot struct {
	// Model is the model state dict.
	Model map[string]*tensor.RawTensor

	// Optimizer is the optimizer state dict. May be nil for
	// inference-only exports.
	Optimizer map[string]*tensor.RawTensor

	// Epoch is the epoch the snapshot was taken in.
	Epoch int

	// Step is the global optimizer step count. Filled in by the
	// Manager on save.
	Step int64

	// Loss is the training loss at snapshot time. Filled in by the
	// Manager on save.
	Loss float64
}

// Config configures a Manager.
type Config struct {
	// Dir is the checkpoint directory. Created if missing.
	Dir string

	// Every saves latest.drift every N observed steps. Zero disables
	// cadence saves; best.drift is still written on improvement.
	Every int
}

// Manager tracks training progress and writes snapshots.
type Manager struct {
	cfg      Config
	runID    string
	step     int64
	epoch    int
	bestLoss float64
}

// NewManager creates the checkpoint directory and a Manager with a
// fresh run ID.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("checkpoint directory must be set")
	}
	if cfg.Every < 0 {
		return nil, fmt.Errorf("save cadence must be non-negative, got %d", cfg.Every)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &Manager{
		cfg:      cfg,
		runID:    uuid.NewString(),
		bestLoss: math.Inf(1),
	}, nil
}

// RunID returns the run identifier stamped into every snapshot.
func (m *Manager) RunID() string { return m.runID }

// BestLoss returns the best loss observed so far.
func (m *Manager) BestLoss() float64 { return m.bestLoss }

// SetEpoch records the current epoch for subsequent snapshots.
func (m *Manager) SetEpoch(epoch int) { m.epoch = epoch }

// Observe records one optimizer step with its loss and writes whatever
// snapshots are due. snap is only called when a save happens.
func (m *Manager) Observe(loss float64, snap func() Snapshot) error {
	m.step++

	due := m.cfg.Every > 0 && m.step%int64(m.cfg.Every) == 0
	improved := loss < m.bestLoss
	if !due && !improved {
		return nil
	}

	s := snap()
	s.Epoch = m.epoch
	s.Step = m.step
	s.Loss = loss

	if due {
		if err := m.Save(LatestName, s); err != nil {
			return err
		}
	}
	if improved {
		m.bestLoss = loss
		if err := m.Save(BestName, s); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a snapshot under the given file name in the checkpoint
// directory.
func (m *Manager) Save(name string, s Snapshot) error {
	merged := make(map[string]*tensor.RawTensor, len(s.Model)+len(s.Optimizer))
	for k, v := range s.Model {
		merged[modelPrefix+k] = v
	}
	for k, v := range s.Optimizer {
		merged[optimPrefix+k] = v
	}

	run := serialization.RunMeta{
		ID:    m.runID,
		Epoch: s.Epoch,
		Step:  s.Step,
		Loss:  s.Loss,
	}
	path := filepath.Join(m.cfg.Dir, name)
	if err := serialization.WriteFile(path, merged, run); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}
	return nil
}

// Resume loads a snapshot and primes the Manager to continue the same
// run: step counter, epoch, best loss and run ID are restored.
func (m *Manager) Resume(path string) (Snapshot, error) {
	s, run, err := load(path)
	if err != nil {
		return Snapshot{}, err
	}
	m.runID = run.ID
	m.step = run.Step
	m.epoch = run.Epoch
	m.bestLoss = run.Loss
	return s, nil
}

// Load reads a snapshot from path without touching any Manager state.
func Load(path string) (Snapshot, error) {
	s, _, err := load(path)
	return s, err
}

func load(path string) (Snapshot, serialization.RunMeta, error) {
	merged, header, err := serialization.ReadFile(path)
	if err != nil {
		return Snapshot{}, serialization.RunMeta{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	s := Snapshot{
		Model:     make(map[string]*tensor.RawTensor),
		Optimizer: make(map[string]*tensor.RawTensor),
		Epoch:     header.Run.Epoch,
		Step:      header.Run.Step,
		Loss:      header.Run.Loss,
	}
	for k, v := range merged {
		switch {
		case strings.HasPrefix(k, modelPrefix):
			s.Model[strings.TrimPrefix(k, modelPrefix)] = v
		case strings.HasPrefix(k, optimPrefix):
			s.Optimizer[strings.TrimPrefix(k, optimPrefix)] = v
		default:
			return Snapshot{}, serialization.RunMeta{}, fmt.Errorf("unexpected state key %q", k)
		}
	}
	if len(s.Optimizer) == 0 {
		s.Optimizer = nil
	}
	return s, header.Run, nil
}
