package profiler

import (
	"fmt"
	"math/rand"
)

// DefaultSampleRate is the construction default when no rate is configured.
// Deliberately a small fraction: profiling is meant to observe production
// traffic, not to measure every event.
const DefaultSampleRate = 0.01

// Sampler decides per event whether it is measured. The decision is
// stateless: one uniform draw compared against the configured probability,
// O(1), no shared mutable state. The rate is validated once at construction
// and never re-checked per call.
type Sampler struct {
	rate float64
}

// NewSampler creates a sampler for the given probability. Rates outside
// [0, 1] are a construction-time error.
func NewSampler(rate float64) (*Sampler, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("sample rate %v out of range [0, 1]", rate)
	}
	return &Sampler{rate: rate}, nil
}

// Rate returns the configured sampling probability.
func (s *Sampler) Rate() float64 {
	return s.rate
}

// ShouldSample reports whether the current event is measured. The extremes
// skip the random draw entirely: rate 0 (the disabled common case) and
// rate 1 cost a single comparison.
func (s *Sampler) ShouldSample() bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	return rand.Float64() < s.rate
}
