// Copyright 2026 Drift ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the building blocks for the reference networks that
// ship with Drift:
//   - Parameter: a named tensor with an accumulated gradient
//   - Linear: fully connected layer with a manual backward pass
//   - SiLU: the activation the reference models use throughout
//   - TimestepEmbedding: sinusoidal encoding of diffusion step indices
//   - Module: the state-dict contract shared with checkpointing
//
// Layers carry their own backward passes instead of relying on a recorded
// computation graph: each Forward caches what Backward needs, and Backward
// accumulates parameter gradients in place and returns the input gradient.
// That keeps the training path explicit and easy to verify against
// finite differences.
package nn
