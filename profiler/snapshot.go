package profiler

import (
	"time"
)

// Snapshot is a point-in-time, read-only copy of the profiling counters and
// their derived statistics. Derived fields are zero (never NaN or Inf) when
// their denominator is zero, so a snapshot taken right after construction or
// reset is always displayable.
type Snapshot struct {
	TotalMessages   uint64 `json:"total_messages"`
	TaggedMessages  uint64 `json:"tagged_messages"`
	DroppedMessages uint64 `json:"dropped_messages"`
	TotalDurationNS uint64 `json:"total_duration_ns"`

	UptimeSeconds         float64 `json:"uptime_seconds"`
	MessagesPerSecond     float64 `json:"messages_per_second"`
	AvgLatencyMS          float64 `json:"avg_latency_ms"`
	TaggedOverheadPercent float64 `json:"tagged_overhead_percent"`

	P50LatencyMS float64 `json:"p50_latency_ms"`
	P90LatencyMS float64 `json:"p90_latency_ms"`
	P99LatencyMS float64 `json:"p99_latency_ms"`

	StartTime   time.Time `json:"start_time"`
	CurrentTime time.Time `json:"current_time"`
}
