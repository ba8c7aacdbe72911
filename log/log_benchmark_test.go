package log

import (
	"path/filepath"
	"testing"

	"github.com/lcx/emberlog/pipeline"
)

// BenchmarkLogger_SyncFile measures synchronous file writing.
func BenchmarkLogger_SyncFile(b *testing.B) {
	tmpDir := b.TempDir()
	logPath := filepath.Join(tmpDir, "sync.log")

	logger := NewLogger(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         logPath,
		IsAsync:         false,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info().Str("key", "value").Int("number", 42).Msg("benchmark test message")
	}

	logger.Refresh()
}

// BenchmarkLogger_AsyncFile measures the buffered async write path.
func BenchmarkLogger_AsyncFile(b *testing.B) {
	tmpDir := b.TempDir()
	logPath := filepath.Join(tmpDir, "async.log")

	logger := NewLogger(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    true,
		LogPath:         logPath,
		IsAsync:         true,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info().Str("key", "value").Int("number", 42).Msg("benchmark test message")
	}

	logger.Refresh()
}

// BenchmarkLogger_FilteredOut measures the cost of a level-filtered call site.
func BenchmarkLogger_FilteredOut(b *testing.B) {
	logger := NewLogger(&LogCfg{
		LogLevel:        ErrorLevel,
		ConsoleAppender: false,
		FileAppender:    false,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug().Str("key", "value").Msg("never emitted")
	}
}

// BenchmarkLogger_WithChain measures the full pipeline path with enrichers.
func BenchmarkLogger_WithChain(b *testing.B) {
	logger := NewLogger(&LogCfg{
		LogLevel:        InfoLevel,
		ConsoleAppender: false,
		FileAppender:    false,
	})
	logger.AddProcessor(pipeline.NewHostEnricher())
	logger.AddProcessor(pipeline.NewEmojiEnricher())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Warn().Str("key", "value").Msg("benchmark test message")
	}
}
