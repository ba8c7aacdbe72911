package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogAppender writes encoded log lines to a destination. Write receives one
// complete encoded event per call. Refresh flushes any buffered output and is
// safe to call at any time.
type LogAppender interface { //nolint:revive
	Write(p []byte) (int, error)
	Refresh()
}

// ConsoleAppender writes log lines to stdout.
type ConsoleAppender struct {
	mu sync.Mutex
}

// NewConsoleAppender creates a console appender.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

func (a *ConsoleAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.Stdout.Write(p)
}

// Refresh is a no-op: stdout is unbuffered at this layer.
func (a *ConsoleAppender) Refresh() {}

// FileAppender writes log lines to a file with size-based rotation and an
// optional asynchronous write path. In async mode writes are queued on a
// bounded channel and flushed by a background goroutine; a full queue drops
// the line rather than blocking the producer.
type FileAppender struct {
	mu        sync.Mutex
	path      string
	splitMB   int
	file      *os.File
	written   int64
	async     bool
	queue     chan []byte
	flushReq  chan chan struct{}
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

const (
	defaultAsyncCacheSize = 1024
	defaultAsyncWriteMS   = 200
)

// NewFileAppender creates a file appender from the logger configuration.
// The target directory is created if missing. Open failures degrade to a
// stderr notice; the appender then drops writes instead of failing the host.
func NewFileAppender(cfg *LogCfg) *FileAppender {
	a := &FileAppender{
		path:    cfg.LogPath,
		splitMB: cfg.FileSplitMB,
		async:   cfg.IsAsync,
	}

	if err := a.open(); err != nil {
		fmt.Fprintf(os.Stderr, "emberlog: open log file %s: %v\n", a.path, err)
	}

	if a.async {
		cache := cfg.AsyncCacheSize
		if cache <= 0 {
			cache = defaultAsyncCacheSize
		}
		interval := cfg.AsyncWriteMillSec
		if interval <= 0 {
			interval = defaultAsyncWriteMS
		}
		a.queue = make(chan []byte, cache)
		a.flushReq = make(chan chan struct{})
		a.done = make(chan struct{})
		a.loopDone = make(chan struct{})
		go a.writeLoop(time.Duration(interval) * time.Millisecond)
	}

	return a
}

func (a *FileAppender) open() error {
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	a.file = f
	a.written = info.Size()
	return nil
}

func (a *FileAppender) Write(p []byte) (int, error) {
	if a.async {
		// Queue owns the buffer after send; copy because the caller's
		// buffer is pooled.
		line := make([]byte, len(p))
		copy(line, p)
		select {
		case a.queue <- line:
		default:
			// Bounded queue full: drop rather than block the producer.
		}
		return len(p), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.write(p)
}

// write appends one line and rotates if the size threshold is crossed.
// Caller holds a.mu.
func (a *FileAppender) write(p []byte) (int, error) {
	if a.file == nil {
		return len(p), nil
	}

	n, err := a.file.Write(p)
	a.written += int64(n)

	if a.splitMB > 0 && a.written >= int64(a.splitMB)*1024*1024 {
		a.rotate()
	}
	return n, err
}

// rotate renames the current file with a timestamp suffix and reopens.
// Caller holds a.mu.
func (a *FileAppender) rotate() {
	_ = a.file.Close()
	a.file = nil

	ext := filepath.Ext(a.path)
	base := a.path[:len(a.path)-len(ext)]
	rotated := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102-150405"), ext)
	if err := os.Rename(a.path, rotated); err != nil {
		fmt.Fprintf(os.Stderr, "emberlog: rotate log file %s: %v\n", a.path, err)
	}

	if err := a.open(); err != nil {
		fmt.Fprintf(os.Stderr, "emberlog: reopen log file %s: %v\n", a.path, err)
	}
}

// writeLoop drains the async queue on a fixed interval and serves Refresh
// barriers, until Close signals shutdown.
func (a *FileAppender) writeLoop(interval time.Duration) {
	defer close(a.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.drain()
		case done := <-a.flushReq:
			a.drain()
			close(done)
		case <-a.done:
			a.drain()
			return
		}
	}
}

func (a *FileAppender) drain() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		select {
		case line := <-a.queue:
			_, _ = a.write(line)
		default:
			return
		}
	}
}

// Refresh flushes queued lines (async mode) and syncs the file to disk.
// A no-op after Close.
func (a *FileAppender) Refresh() {
	if a.async {
		done := make(chan struct{})
		select {
		case a.flushReq <- done:
			<-done
		case <-a.loopDone:
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		_ = a.file.Sync()
	}
}

// Close stops the async writer goroutine after a final drain, syncs and
// closes the file. Safe to call more than once; lines written after Close
// are dropped.
func (a *FileAppender) Close() error {
	a.closeOnce.Do(func() {
		if a.async {
			close(a.done)
			<-a.loopDone
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.file != nil {
			_ = a.file.Sync()
			_ = a.file.Close()
			a.file = nil
		}
	})
	return nil
}
