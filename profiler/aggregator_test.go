package profiler

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAggregatorBasicAggregation verifies counters and derived statistics
// for a known sequence of records.
func TestAggregatorBasicAggregation(t *testing.T) {
	a := NewAggregator()

	a.Record(1_000_000, false)
	a.Record(3_000_000, true)

	s := a.Snapshot()
	assert.Equal(t, uint64(2), s.TotalMessages)
	assert.Equal(t, uint64(4_000_000), s.TotalDurationNS)
	assert.Equal(t, uint64(1), s.TaggedMessages)
	assert.Equal(t, uint64(0), s.DroppedMessages)
	assert.Equal(t, 2.0, s.AvgLatencyMS)
	assert.Equal(t, 50.0, s.TaggedOverheadPercent)
}

// TestAggregatorDivisionSafety verifies derived statistics are zero, never
// NaN/Inf, on a fresh aggregator and again after reset.
func TestAggregatorDivisionSafety(t *testing.T) {
	a := NewAggregator()

	s := a.Snapshot()
	assert.Equal(t, 0.0, s.AvgLatencyMS)
	assert.Equal(t, 0.0, s.MessagesPerSecond)
	assert.Equal(t, 0.0, s.TaggedOverheadPercent)

	a.Record(5_000_000, true)
	a.Reset()

	s = a.Snapshot()
	assert.Equal(t, uint64(0), s.TotalMessages)
	assert.Equal(t, 0.0, s.AvgLatencyMS)
	assert.Equal(t, 0.0, s.MessagesPerSecond)
	assert.Equal(t, 0.0, s.TaggedOverheadPercent)
	assert.Equal(t, 0.0, s.P99LatencyMS)
}

// TestAggregatorResetClearsState verifies reset zeroes counters and
// re-stamps the epoch start.
func TestAggregatorResetClearsState(t *testing.T) {
	a := NewAggregator()
	a.Record(1_000_000, false)
	a.Record(3_000_000, true)
	a.RecordDropped()

	before := a.Snapshot()
	time.Sleep(time.Millisecond)
	a.Reset()
	after := a.Snapshot()

	assert.Equal(t, uint64(0), after.TotalMessages)
	assert.Equal(t, uint64(0), after.TaggedMessages)
	assert.Equal(t, uint64(0), after.DroppedMessages)
	assert.Equal(t, uint64(0), after.TotalDurationNS)
	assert.Equal(t, 0.0, after.AvgLatencyMS)
	assert.True(t, after.StartTime.After(before.StartTime), "reset must re-stamp start time")
}

// TestAggregatorDroppedIsIndependent verifies dropped events do not feed
// the sampled-in statistics.
func TestAggregatorDroppedIsIndependent(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < 10; i++ {
		a.RecordDropped()
	}

	s := a.Snapshot()
	assert.Equal(t, uint64(10), s.DroppedMessages)
	assert.Equal(t, uint64(0), s.TotalMessages)
	assert.Equal(t, 0.0, s.AvgLatencyMS)
}

// TestAggregatorConcurrentMonotonicity verifies no updates are lost under
// concurrent producers: final counters equal exactly what was recorded.
func TestAggregatorConcurrentMonotonicity(t *testing.T) {
	a := NewAggregator()

	const producers = 16
	const perProducer = 5000
	const durNS = 1000

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				a.Record(durNS, j%2 == 0)
			}
		}(i)
	}
	wg.Wait()

	s := a.Snapshot()
	assert.Equal(t, uint64(producers*perProducer), s.TotalMessages)
	assert.Equal(t, uint64(producers*perProducer*durNS), s.TotalDurationNS)
	assert.Equal(t, uint64(producers*perProducer/2), s.TaggedMessages)
}

// TestAggregatorTaggedInvariant verifies tagged <= total in every reachable
// state while producers and readers race.
func TestAggregatorTaggedInvariant(t *testing.T) {
	a := NewAggregator()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					a.Record(500, true)
					a.Record(500, false)
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		s := a.Snapshot()
		if s.TaggedMessages > s.TotalMessages {
			t.Fatalf("invariant violated: tagged %d > total %d", s.TaggedMessages, s.TotalMessages)
		}
	}

	close(stop)
	wg.Wait()
}

// TestAggregatorResetAtomicity verifies a reset racing with producers
// produces a clean epoch split: counters always remain a matched pair
// (every record contributes exactly durNS, so total must equal count*durNS
// in any observable state).
func TestAggregatorResetAtomicity(t *testing.T) {
	a := NewAggregator()

	const producers = 8
	const perProducer = 2000
	const durNS = 1000

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				a.Record(durNS, false)
			}
		}()
	}

	// Race resets and snapshots against the producers.
	for i := 0; i < 50; i++ {
		s := a.Snapshot()
		if s.TotalDurationNS != s.TotalMessages*durNS {
			t.Fatalf("torn snapshot: count %d, duration %d", s.TotalMessages, s.TotalDurationNS)
		}
		if i%10 == 0 {
			a.Reset()
		}
		time.Sleep(time.Millisecond)
	}
	wg.Wait()

	s := a.Snapshot()
	require.LessOrEqual(t, s.TotalMessages, uint64(producers*perProducer))
	assert.Equal(t, s.TotalMessages*durNS, s.TotalDurationNS)
}

// TestAggregatorPercentiles verifies the latency distribution fields.
func TestAggregatorPercentiles(t *testing.T) {
	a := NewAggregator()

	// 100 samples: 1ms..100ms.
	for i := 1; i <= 100; i++ {
		a.Record(uint64(i)*1_000_000, false)
	}

	s := a.Snapshot()
	assert.InDelta(t, 50.0, s.P50LatencyMS, 1.5)
	assert.InDelta(t, 90.0, s.P90LatencyMS, 1.5)
	assert.InDelta(t, 99.0, s.P99LatencyMS, 1.5)
}

// TestSnapshotJSONSchema verifies the serialized field names exposed to the
// command layer.
func TestSnapshotJSONSchema(t *testing.T) {
	a := NewAggregator()
	a.Record(2_000_000, true)

	data, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	requiredFields := []string{
		"total_messages", "tagged_messages", "dropped_messages",
		"total_duration_ns", "uptime_seconds", "messages_per_second",
		"avg_latency_ms", "tagged_overhead_percent",
		"p50_latency_ms", "p90_latency_ms", "p99_latency_ms",
		"start_time", "current_time",
	}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}
}

// BenchmarkAggregatorRecord measures the hot-path cost of one record.
func BenchmarkAggregatorRecord(b *testing.B) {
	a := NewAggregator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Record(1_500_000, i%8 == 0)
	}
}
