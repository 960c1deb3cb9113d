package features

import (
	"sync"
)

// Sampler keeps every Nth record that reaches it. A rate of 1 or less keeps
// everything.
type Sampler struct {
	mu      sync.Mutex
	rate    int
	counter uint64
	metrics SamplingMetrics
}

// SamplingMetrics tracks sampling statistics
type SamplingMetrics struct {
	TotalMessages   uint64
	SampledMessages uint64
	DroppedMessages uint64
}

// NewSampler creates a sampler that keeps one record in rate.
func NewSampler(rate int) *Sampler {
	return &Sampler{rate: rate}
}

// SetRate changes the rate. The counter keeps running.
func (s *Sampler) SetRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

// Rate returns the configured rate.
func (s *Sampler) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// ShouldLog counts the record and reports whether it is kept.
func (s *Sampler) ShouldLog() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalMessages++
	if s.rate <= 1 {
		s.metrics.SampledMessages++
		return true
	}

	s.counter++
	if s.counter%uint64(s.rate) == 0 {
		s.metrics.SampledMessages++
		return true
	}
	s.metrics.DroppedMessages++
	return false
}

// Metrics returns a copy of the counters.
func (s *Sampler) Metrics() SamplingMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Reset zeroes the counter and the metrics.
func (s *Sampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter = 0
	s.metrics = SamplingMetrics{}
}
