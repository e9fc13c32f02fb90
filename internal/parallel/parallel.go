// Package parallel provides chunked parallel loops for the CPU tensor
// kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution.
type Config struct {
	Enabled      bool // run chunks on worker goroutines
	NumWorkers   int  // number of goroutines to fan out to
	MinChunkSize int  // minimum iterations per goroutine
}

// DefaultConfig sizes the pool from the CPU count. The chunk floor
// assumes each iteration is a full kernel row, not a single element.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// For executes f(i) for i in [0, n), chunked across workers. Each index
// is visited exactly once by exactly one goroutine, so kernels that
// write disjoint output slices per index stay bit-deterministic. Falls
// back to a plain loop when parallelism is disabled or n is small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
