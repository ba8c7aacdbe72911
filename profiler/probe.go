package profiler

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/lcx/emberlog/log"
	"github.com/lcx/emberlog/pipeline"
)

// maxPlausibleDuration is the ceiling above which a recorded duration is
// treated as a caller-contract violation: still recorded as-is, but reported
// through the rate-limited warning path.
const maxPlausibleDuration = time.Minute

// Probe is the pass-through pipeline stage that feeds the aggregator. From
// the chain's point of view it is a no-op: the record is always forwarded
// unchanged and Process never fails.
//
// Disabled (the default) costs a single atomic branch per event. Enabled, it
// asks the sampler whether to measure: sampled-in events are timed from the
// record's start stamp and checked for marker usage, sampled-out events only
// bump the dropped counter. The sampler lives behind an atomic pointer so
// the rate can be swapped at runtime without pausing producers.
type Probe struct {
	enabled   atomic.Bool
	sampler   atomic.Pointer[Sampler]
	agg       *Aggregator
	logger    *log.ComponentLogger
	warnLimit *rate.Limiter
}

// NewProbe creates a probe recording into the given aggregator. The probe
// starts disabled. logger may be nil; contract-violation warnings are then
// dropped.
func NewProbe(agg *Aggregator, sampler *Sampler, logger *log.ComponentLogger) *Probe {
	p := &Probe{
		agg:    agg,
		logger: logger,
		// One warning per 10s with a small burst keeps a misbehaving
		// caller from flooding the log from the hot path.
		warnLimit: rate.NewLimiter(rate.Every(10*time.Second), 3),
	}
	p.sampler.Store(sampler)
	return p
}

// Name implements pipeline.Processor.
func (p *Probe) Name() string { return "probe" }

// Process implements pipeline.Processor. The record is returned unchanged in
// every state.
func (p *Probe) Process(rec pipeline.Record) (pipeline.Record, error) {
	if !p.enabled.Load() {
		return rec, nil
	}

	if !p.sampler.Load().ShouldSample() {
		p.agg.RecordDropped()
		return rec, nil
	}

	var elapsed time.Duration
	if start, ok := pipeline.StartedAt(rec); ok {
		elapsed = time.Since(start)
	}

	p.observe(elapsed, pipeline.HasMarker(rec))
	return rec, nil
}

// ObserveDuration records one sampled-in unit of work with a caller-supplied
// duration, for instrumentation outside the chain. Subject to the same
// enabled/sampling decision as Process.
func (p *Probe) ObserveDuration(d time.Duration, tagged bool) {
	if !p.enabled.Load() {
		return
	}
	if !p.sampler.Load().ShouldSample() {
		p.agg.RecordDropped()
		return
	}
	p.observe(d, tagged)
}

// observe records the measurement, flagging implausible durations through
// the rate-limited warning path. The value is recorded either way: dropping
// it would silently skew the rate counters.
func (p *Probe) observe(d time.Duration, tagged bool) {
	if (d < 0 || d > maxPlausibleDuration) && p.logger != nil && p.warnLimit.Allow() {
		p.logger.Warn().
			Str("operation", "record").
			Int64("duration_ns", int64(d)).
			Msg("implausible event duration recorded; misbehaving caller clock?")
	}

	p.agg.Record(uint64(d), tagged)
}

// Enable switches the probe on. Idempotent, never fails.
func (p *Probe) Enable() {
	p.enabled.Store(true)
}

// Disable switches the probe off. Idempotent, never fails. Takes effect
// immediately; there is nothing in flight to wait for.
func (p *Probe) Disable() {
	p.enabled.Store(false)
}

// Enabled reports the current state.
func (p *Probe) Enabled() bool {
	return p.enabled.Load()
}

// SetSampler swaps the sampling policy at runtime.
func (p *Probe) SetSampler(s *Sampler) {
	p.sampler.Store(s)
}

// SampleRate returns the current sampling probability.
func (p *Probe) SampleRate() float64 {
	return p.sampler.Load().Rate()
}
