package gpu

import "sync"

// OcclusionQuery counts the samples that passed the depth test between
// BeginOcclusionQuery and EndOcclusionQuery. Results arrive asynchronously.
type OcclusionQuery interface {
	Reset()
	// Samples returns the last resolved count; ok is false until a result is available.
	Samples() (samples uint64, ok bool)
}

// HostOcclusionQuery is resolved by whoever plays the GPU, usually a test.
type HostOcclusionQuery struct {
	mu        sync.Mutex
	samples   uint64
	available bool
	resets    int
}

func (q *HostOcclusionQuery) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.available = false
	q.resets++
}

func (q *HostOcclusionQuery) Samples() (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.samples, q.available
}

// Resolve publishes a result as the GPU would after the query's pass completed.
func (q *HostOcclusionQuery) Resolve(samples uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = samples
	q.available = true
}

func (q *HostOcclusionQuery) Resets() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.resets
}
