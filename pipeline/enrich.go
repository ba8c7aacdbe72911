package pipeline

import (
	"os"
)

// levelEmoji maps log level names to the visual marker attached by the
// emoji enricher. Levels without an entry stay unmarked.
var levelEmoji = map[string]string{
	"warn":  "⚠️",
	"error": "❌",
	"fatal": "💀",
}

// EmojiEnricher attaches a visual marker to events whose level carries one.
// It only ever adds the designated marker fields, so marked events are exactly
// the events HasMarker reports.
type EmojiEnricher struct {
	markers map[string]string
}

// NewEmojiEnricher creates an enricher using the default level marker table.
func NewEmojiEnricher() *EmojiEnricher {
	return &EmojiEnricher{markers: levelEmoji}
}

// NewEmojiEnricherWithMarkers creates an enricher with a custom level marker
// table, keyed by level name.
func NewEmojiEnricherWithMarkers(markers map[string]string) *EmojiEnricher {
	return &EmojiEnricher{markers: markers}
}

func (e *EmojiEnricher) Name() string { return "emoji" }

// Process attaches the marker for the record's level, if any.
func (e *EmojiEnricher) Process(rec Record) (Record, error) {
	level, ok := rec["level"].(string)
	if !ok {
		return rec, nil
	}
	if marker, ok := e.markers[level]; ok {
		rec["emoji"] = marker
	}
	return rec, nil
}

// HostEnricher attaches process identity fields (hostname, pid) to every
// record. Hostname is resolved once at construction.
type HostEnricher struct {
	hostname string
	pid      int
}

// NewHostEnricher creates a host enricher bound to the current process.
func NewHostEnricher() *HostEnricher {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &HostEnricher{hostname: hostname, pid: os.Getpid()}
}

func (e *HostEnricher) Name() string { return "host" }

// Process attaches hostname and pid without overwriting caller-set values.
func (e *HostEnricher) Process(rec Record) (Record, error) {
	if _, ok := rec["hostname"]; !ok {
		rec["hostname"] = e.hostname
	}
	if _, ok := rec["pid"]; !ok {
		rec["pid"] = e.pid
	}
	return rec, nil
}
