// Package profiler implements sampled performance profiling for the event
// pipeline: a pass-through probe measures per-event latency and marker usage
// for a sampled subset of events, a mutex-guarded aggregator accumulates the
// raw counters, and a lifecycle wrapper exposes enable/disable/reset/metrics
// behind a fail-safe contract so a profiling fault can never break event
// delivery.
package profiler

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Aggregator accumulates raw profiling counters from any number of
// concurrent producers. A single mutex guards all counters plus the epoch
// start time, so a snapshot is always a matched set and a reset is a clean
// before/after split: an in-flight Record lands fully in one epoch, never
// partially in two. The critical section is a handful of integer operations
// plus one histogram bucket increment.
type Aggregator struct {
	mu            sync.Mutex
	messageCount  uint64
	totalDuration uint64 // nanoseconds, sampled-in events only
	taggedCount   uint64
	droppedCount  uint64
	hist          *hdrhistogram.Histogram
	start         time.Time
}

// NewAggregator creates an empty aggregator with the epoch starting now.
func NewAggregator() *Aggregator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &Aggregator{
		hist:  hdrhistogram.New(1, 60_000_000, 3),
		start: time.Now(),
	}
}

// Record counts one sampled-in event: the message counter, its processing
// duration in nanoseconds, and the tagged counter when the event carried a
// marker. Safe for concurrent use; never fails for any input, including
// implausible durations (validating here would put cost on the hot path the
// probe exists to keep cheap).
func (a *Aggregator) Record(durationNS uint64, tagged bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messageCount++
	a.totalDuration += durationNS
	if tagged {
		a.taggedCount++
	}

	us := int64(durationNS / 1000)
	if us < a.hist.LowestTrackableValue() {
		us = a.hist.LowestTrackableValue()
	}
	if us > a.hist.HighestTrackableValue() {
		us = a.hist.HighestTrackableValue()
	}
	_ = a.hist.RecordValue(us)
}

// RecordDropped counts one sampled-out event. Independent of Record.
func (a *Aggregator) RecordDropped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.droppedCount++
}

// Snapshot returns a consistent point-in-time copy of all counters plus the
// derived statistics. Taken under the same lock as Record, so message count
// and total duration are always a matched pair.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked(time.Now())
}

// snapshotLocked computes the snapshot at the given instant. Caller holds a.mu.
func (a *Aggregator) snapshotLocked(now time.Time) Snapshot {
	s := Snapshot{
		TotalMessages:   a.messageCount,
		TaggedMessages:  a.taggedCount,
		DroppedMessages: a.droppedCount,
		TotalDurationNS: a.totalDuration,
		StartTime:       a.start,
		CurrentTime:     now,
	}

	uptime := now.Sub(a.start).Seconds()
	if uptime > 0 {
		s.UptimeSeconds = uptime
	}

	if s.UptimeSeconds > 0 && a.messageCount > 0 {
		s.MessagesPerSecond = float64(a.messageCount) / s.UptimeSeconds
	}

	if a.messageCount > 0 {
		// Integer truncation first, then scale; display rounding is the
		// caller's concern.
		s.AvgLatencyMS = float64(a.totalDuration/a.messageCount) / 1e6
		s.TaggedOverheadPercent = 100 * float64(a.taggedCount) / float64(a.messageCount)
	}

	if a.hist.TotalCount() > 0 {
		s.P50LatencyMS = float64(a.hist.ValueAtQuantile(50)) / 1000
		s.P90LatencyMS = float64(a.hist.ValueAtQuantile(90)) / 1000
		s.P99LatencyMS = float64(a.hist.ValueAtQuantile(99)) / 1000
	}

	return s
}

// Reset atomically zeroes every counter, clears the latency histogram and
// re-stamps the epoch start. Concurrent readers never observe a partially
// reset state.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messageCount = 0
	a.totalDuration = 0
	a.taggedCount = 0
	a.droppedCount = 0
	a.hist.Reset()
	a.start = time.Now()
}
