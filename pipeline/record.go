// Package pipeline defines the ordered event-processing chain that log events
// travel through before they are encoded and written to appenders. Every stage
// is a pass-through transformation over a key-value event record; stages may
// annotate the record but must always forward it.
package pipeline

import (
	"time"
)

// Record is a single in-flight event as seen by the processing chain.
// Keys starting with '_' are reserved for chain bookkeeping and are stripped
// before the record is encoded for output.
type Record map[string]any

// KeyStartedAt is the reserved key holding the time.Time at which the event
// was created. The profiling probe uses it to derive per-event latency.
const KeyStartedAt = "_started_at"

// MarkerKeys is the fixed set of field names whose presence marks an event as
// using visual enrichment. Detection is a plain map lookup per key; no
// traversal, no parsing.
var MarkerKeys = [...]string{"emoji", "icon", "visual_marker"}

// HasMarker reports whether the record carries any of the designated marker
// fields. Allocation-free.
func HasMarker(rec Record) bool {
	for _, k := range MarkerKeys {
		if _, ok := rec[k]; ok {
			return true
		}
	}
	return false
}

// IsInternalKey reports whether a key belongs to chain bookkeeping rather than
// event payload.
func IsInternalKey(k string) bool {
	return len(k) > 0 && k[0] == '_'
}

// StartedAt extracts the reserved start timestamp, if present.
func StartedAt(rec Record) (time.Time, bool) {
	v, ok := rec[KeyStartedAt]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Stamp sets the reserved start timestamp on the record.
func Stamp(rec Record, t time.Time) {
	rec[KeyStartedAt] = t
}
