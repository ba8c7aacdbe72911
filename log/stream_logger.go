package log

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcx/emberlog/config"
	"github.com/lcx/emberlog/pipeline"
)

// StreamLogger provides a thread-safe logging interface with configurable
// appenders and an ordered processing chain applied to every event before it
// is encoded. It is designed for high-frequency producers: the filtered path
// is a single atomic level check, events are pooled, and caller information
// is cached per program counter.
//
// Example usage:
//
//	logger := NewLogger(&LogCfg{
//	    LogLevel:        InfoLevel,
//	    ConsoleAppender: true,
//	})
//	logger.AddProcessor(pipeline.NewEmojiEnricher())
//	logger.Info().Str("module", "server").Int("connections", 42).Msg("server started")
type StreamLogger struct {
	appenders     []LogAppender          // Collection of appenders responsible for log output
	minLevel      atomic.Uint32          // Minimum log level that will be processed
	eventPool     *sync.Pool             // Object pool for LogEvent instances to minimize GC
	chain         *pipeline.Chain        // Ordered processing chain run on every event
	callerCache   sync.Map               // Cache for resolved caller information, keyed by pc
	configManager config.ConfigManager   // Configuration manager for hot-reload support
	currentConfig atomic.Pointer[LogCfg] // Current configuration, swapped whole on reload
}

// NewLogger creates a new StreamLogger instance with the provided
// configuration. If cfg is nil, defaults are used.
func NewLogger(cfg *LogCfg) *StreamLogger {
	if cfg == nil {
		cfg = getDefaultCfg()
	}

	cfg.buildWhiteListSet()

	logger := &StreamLogger{}
	logger.currentConfig.Store(cfg)
	logger.minLevel.Store(uint32(cfg.LogLevel))

	// Chain failures must not feed back into the logger itself.
	logger.chain = pipeline.NewChain(func(stage string, err error) {
		fmt.Fprintf(os.Stderr, "emberlog: pipeline stage %s failed: %v\n", stage, err)
	})

	// Initialize object pool for LogEvent instances to minimize garbage collection
	logger.eventPool = &sync.Pool{
		New: func() any {
			return newEvent(logger)
		},
	}

	// Configure appenders based on configuration
	if cfg.FileAppender {
		logger.AddAppender(NewFileAppender(cfg))
	}

	if cfg.ConsoleAppender {
		logger.AddAppender(NewConsoleAppender())
	}

	return logger
}

// NewLoggerWithConfigManager creates a new StreamLogger with hot-reload
// support: the logger registers itself as a configuration change listener
// and applies "logger" config updates without restart.
func NewLoggerWithConfigManager(cfg *LogCfg, configManager config.ConfigManager) *StreamLogger {
	logger := NewLogger(cfg)
	logger.configManager = configManager

	if configManager != nil {
		configManager.AddChangeListener(logger)
	}

	return logger
}

// OnConfigChanged implements config.ConfigChangeListener for hot-reload.
func (x *StreamLogger) OnConfigChanged(configName string, newConfig, _ config.Config) error {
	if configName != "logger" {
		return nil
	}

	newLogCfg, ok := newConfig.(*LogCfg)
	if !ok {
		return nil
	}

	x.updateConfig(newLogCfg)
	return nil
}

// updateConfig applies a new configuration. The whole config is published
// through one atomic pointer swap, so producers racing a hot reload read
// either the old or the new config in full, never a torn mix.
func (x *StreamLogger) updateConfig(newCfg *LogCfg) {
	newCfg.buildWhiteListSet()
	x.currentConfig.Store(newCfg)
	x.minLevel.Store(uint32(newCfg.LogLevel))

	x.Refresh()
}

// GetCurrentConfig returns the current logger configuration. The returned
// config must be treated as read-only.
func (x *StreamLogger) GetCurrentConfig() *LogCfg {
	return x.currentConfig.Load()
}

// checkLevel determines if a log level should be logged.
func (x *StreamLogger) checkLevel(level Level) bool {
	return Level(x.minLevel.Load()) <= level
}

// SetLevel changes the minimum level at runtime.
func (x *StreamLogger) SetLevel(level Level) {
	x.minLevel.Store(uint32(level))
}

// AddAppender adds a new log appender to the logger. Multiple appenders can
// be added, sending every event to all destinations.
func (x *StreamLogger) AddAppender(appender LogAppender) {
	x.appenders = append(x.appenders, appender)
}

// GetAppender returns the list of registered appenders.
func (x *StreamLogger) GetAppender() []LogAppender {
	return x.appenders
}

// AddProcessor appends a stage to the event processing chain.
func (x *StreamLogger) AddProcessor(p pipeline.Processor) {
	x.chain.Append(p)
}

// Pipeline exposes the processing chain, e.g. for inserting a profiling
// probe at a specific position.
func (x *StreamLogger) Pipeline() *pipeline.Chain {
	return x.chain
}

// Refresh triggers a refresh operation on all registered appenders.
// Useful after bursts of async writes or before shutdown.
func (x *StreamLogger) Refresh() {
	for _, appender := range x.appenders {
		appender.Refresh()
	}
}

// Close releases appenders that hold resources (open files, writer
// goroutines). The logger must not be used afterwards.
func (x *StreamLogger) Close() {
	for _, appender := range x.appenders {
		if c, ok := appender.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

// IgnoreCheckLevel reports whether level filtering is bypassed. Always false
// for the base logger; ComponentLogger overrides it for whitelisted
// components.
func (x *StreamLogger) IgnoreCheckLevel() bool {
	return false
}

// newEvent fetches a clean LogEvent from the pool.
func (x *StreamLogger) newEvent() *LogEvent {
	e := x.eventPool.Get().(*LogEvent)
	e.Reset()
	return e
}

// OnEventEnd finalizes an event: the processing chain runs over the record,
// the surviving record is encoded once and written to every appender, then
// the event returns to the pool. Fatal events panic after delivery.
func (x *StreamLogger) OnEventEnd(e *LogEvent) {
	rec := x.chain.Run(e.fields)

	buf := encodeRecord(rec)
	for _, appender := range x.appenders {
		_, _ = appender.Write(buf)
	}

	level := e.level
	x.eventPool.Put(e)

	if level == FatalLevel {
		panic("fatal log event")
	}
}

// Trace creates a new trace-level log event.
func (x *StreamLogger) Trace() *LogEvent {
	return x.log(TraceLevel)
}

// Debug creates a new debug-level log event.
func (x *StreamLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates a new info-level log event.
func (x *StreamLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a new warning-level log event.
func (x *StreamLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates a new error-level log event.
func (x *StreamLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a new fatal-level log event. After delivery the application
// terminates with a panic.
func (x *StreamLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}

// callerInfo holds resolved call-site information.
type callerInfo struct {
	file     string
	function string
	line     int
	rendered string
}

var _unknownCallerInfo = &callerInfo{file: "unknown", function: "unknown", rendered: "unknown"}

func newCallerInfo(file, function string, line int) *callerInfo {
	return &callerInfo{
		file:     file,
		function: function,
		line:     line,
		rendered: fmt.Sprintf("%s:%d(%s)", file, line, function),
	}
}

func (c *callerInfo) String() string {
	return c.rendered
}

// getCallerInfo resolves the call site of the logging function, caching the
// result per program counter.
func (x *StreamLogger) getCallerInfo(skip int) *callerInfo {
	pc, file, line, ok := runtime.Caller(3 + skip)
	if !ok {
		return _unknownCallerInfo
	}

	if cached, found := x.callerCache.Load(pc); found {
		return cached.(*callerInfo)
	}

	funcName := runtime.FuncForPC(pc).Name()
	function := funcName
	if dotIdx := strings.LastIndexByte(funcName, '.'); dotIdx != -1 {
		function = funcName[dotIdx+1:]
	}

	// Keep only the trailing <pkg>/<file> portion of the path.
	if lastSlash := strings.LastIndexByte(file, '/'); lastSlash > 0 {
		if secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/'); secondLastSlash >= 0 {
			file = file[secondLastSlash+1:]
		}
	}

	c := newCallerInfo(file, function, line)
	x.callerCache.Store(pc, c)
	return c
}

// log prepares a new log event with common fields: timestamp, level and
// optional caller info. Returns nil when the level is filtered out, which
// makes the whole fluent call chain a no-op.
func (x *StreamLogger) log(level Level) *LogEvent {
	return x.logWith(level, x.IgnoreCheckLevel())
}

// logWith is the shared event constructor; bypass skips level filtering
// (whitelisted components).
func (x *StreamLogger) logWith(level Level, bypass bool) *LogEvent {
	if !bypass && !x.checkLevel(level) {
		return nil
	}

	e := x.newEvent()
	e.level = level

	t := time.Now()
	pipeline.Stamp(e.fields, t)
	e.Time("time", &t)
	e.Str("level", level.String())

	if cfg := x.currentConfig.Load(); cfg.EnabledCallerInfo {
		e.Str("caller", x.getCallerInfo(cfg.CallerSkip).String())
	}

	return e
}
