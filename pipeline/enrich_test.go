package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmojiEnricherMarksElevatedLevels(t *testing.T) {
	e := NewEmojiEnricher()

	rec, err := e.Process(Record{"level": "error", "message": "broken"})
	require.NoError(t, err)
	assert.Equal(t, "❌", rec["emoji"])
	assert.True(t, HasMarker(rec))

	rec, err = e.Process(Record{"level": "info", "message": "fine"})
	require.NoError(t, err)
	assert.False(t, HasMarker(rec))
}

func TestEmojiEnricherCustomMarkers(t *testing.T) {
	e := NewEmojiEnricherWithMarkers(map[string]string{"info": "ℹ️"})

	rec, err := e.Process(Record{"level": "info"})
	require.NoError(t, err)
	assert.Equal(t, "ℹ️", rec["emoji"])
}

func TestEmojiEnricherIgnoresMissingLevel(t *testing.T) {
	e := NewEmojiEnricher()

	rec, err := e.Process(Record{"message": "no level"})
	require.NoError(t, err)
	assert.False(t, HasMarker(rec))
}

func TestHostEnricher(t *testing.T) {
	e := NewHostEnricher()

	rec, err := e.Process(Record{})
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), rec["pid"])
	assert.NotEmpty(t, rec["hostname"])

	// Caller-set values are preserved.
	rec, err = e.Process(Record{"hostname": "pinned"})
	require.NoError(t, err)
	assert.Equal(t, "pinned", rec["hostname"])
}
