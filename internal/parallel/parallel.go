// Package parallel provides chunked parallel execution for assembly loops.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Sequential returns a config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{NumWorkers: 1}
}

// chunkSize returns the items per chunk for n items, or n for sequential runs.
func (cfg Config) chunkSize(n int) int {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		return max(n, 1)
	}
	return max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
}

// NumChunks returns how many chunks ForChunks splits n items into.
func NumChunks(n int, cfg Config) int {
	if n <= 0 {
		return 0
	}
	size := cfg.chunkSize(n)
	return (n + size - 1) / size
}

// ForChunks calls f(chunk, start, end) for consecutive ranges covering [0, n).
// Chunk indices run from 0 to NumChunks(n, cfg)-1, so callers can give each
// chunk its own accumulator. Falls back to sequential execution if parallelism
// is disabled or n is too small.
func ForChunks(n int, f func(chunk, start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	size := cfg.chunkSize(n)
	if size >= n {
		f(0, 0, n)
		return
	}

	var wg sync.WaitGroup
	for chunk, start := 0, 0; start < n; chunk, start = chunk+1, start+size {
		end := min(start+size, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			f(c, s, e)
		}(chunk, start, end)
	}
	wg.Wait()
}
