package log

import (
	"encoding/json"
	"time"

	"github.com/lcx/emberlog/pipeline"
)

// LogEvent is a single structured log event under construction. Field methods
// accumulate into the event record; Msg finalizes the event and hands it to
// the owning logger, which runs the processing chain and writes the encoded
// record to its appenders.
//
// Events are pooled: a LogEvent must not be used after Msg returns. All
// methods are nil-receiver safe, so a level-filtered call site
// (logger.Debug() returning nil) costs nothing beyond the level check.
type LogEvent struct {
	logger Logger
	level  Level
	fields pipeline.Record
}

func newEvent(logger Logger) *LogEvent {
	return &LogEvent{
		logger: logger,
		fields: make(pipeline.Record, 8),
	}
}

// Reset clears the event for reuse from the pool.
func (e *LogEvent) Reset() {
	e.level = TraceLevel
	// Reallocate rather than range-delete: the old map may still be
	// referenced by a processor that replaced the record.
	e.fields = make(pipeline.Record, 8)
}

// Record exposes the underlying event record. Intended for the processing
// chain and tests, not for field construction at call sites.
func (e *LogEvent) Record() pipeline.Record {
	if e == nil {
		return nil
	}
	return e.fields
}

// Level returns the severity of the event.
func (e *LogEvent) Level() Level {
	if e == nil {
		return TraceLevel
	}
	return e.level
}

// Str adds a string field.
func (e *LogEvent) Str(key, val string) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Int adds an int field.
func (e *LogEvent) Int(key string, val int) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Int64 adds an int64 field.
func (e *LogEvent) Int64(key string, val int64) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Uint64 adds a uint64 field.
func (e *LogEvent) Uint64(key string, val uint64) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Float64 adds a float64 field.
func (e *LogEvent) Float64(key string, val float64) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Bool adds a bool field.
func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Err adds an error field under the conventional "error" key. A nil error
// adds nothing.
func (e *LogEvent) Err(err error) *LogEvent {
	if e == nil {
		return nil
	}
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

// Time adds a time field encoded as RFC3339Nano.
func (e *LogEvent) Time(key string, t *time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = t.Format(time.RFC3339Nano)
	return e
}

// Dur adds a duration field in milliseconds.
func (e *LogEvent) Dur(key string, d time.Duration) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = float64(d) / float64(time.Millisecond)
	return e
}

// Any adds an arbitrary field. The value must be JSON-encodable.
func (e *LogEvent) Any(key string, val any) *LogEvent {
	if e == nil {
		return nil
	}
	e.fields[key] = val
	return e
}

// Msg sets the event message and delivers the event. The event must not be
// used afterwards.
func (e *LogEvent) Msg(msg string) {
	if e == nil {
		return
	}
	e.fields["message"] = msg
	e.logger.OnEventEnd(e)
}

// encodeRecord serializes the record as a single JSON line, dropping the
// chain's internal bookkeeping keys. encoding/json sorts map keys, so output
// is deterministic for a given record.
func encodeRecord(rec pipeline.Record) []byte {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if pipeline.IsInternalKey(k) {
			continue
		}
		out[k] = v
	}

	buf, err := json.Marshal(out)
	if err != nil {
		// A non-encodable field value; fall back to a minimal line so the
		// event is not silently lost.
		buf, _ = json.Marshal(map[string]any{
			"level":   "error",
			"message": "emberlog: unencodable event: " + err.Error(),
		})
	}
	return append(buf, '\n')
}
