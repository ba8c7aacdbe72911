package log

import (
	"fmt"
)

// LogCfg represents the logging configuration for the event pipeline.
// It covers output destinations, rotation, async writing and the component
// whitelist used to bypass level filtering for targeted debugging.
type LogCfg struct {
	// LogPath specifies the target log file path for file-based logging.
	// Supports relative and absolute paths with automatic directory creation.
	LogPath string `mapstructure:"path"`

	// LogLevel defines the minimum log level for filtering log entries.
	// Supports hot-reload without service restart for dynamic adjustment.
	LogLevel Level `mapstructure:"level"`

	// FileSplitMB determines the file rotation threshold in megabytes.
	// When the log file exceeds this size, rotation creates a new file.
	FileSplitMB int `mapstructure:"splitmb"`

	// IsAsync enables asynchronous log writing to prevent I/O blocking.
	IsAsync bool `mapstructure:"isasync"`

	// AsyncCacheSize limits the maximum buffered log entries in async mode.
	// Prevents memory overflow during traffic spikes or I/O slowdowns.
	// Default: 1024 entries when async mode is enabled.
	AsyncCacheSize int `mapstructure:"asynccachesize"`

	// AsyncWriteMillSec defines the async flush interval in milliseconds.
	// Default: 200ms.
	AsyncWriteMillSec int `mapstructure:"asyncwritemillsec"`

	// CallerSkip specifies the number of stack frames to skip for caller
	// information. Useful for wrapper functions or middleware layers.
	CallerSkip int `mapstructure:"callerSkip"`

	// FileAppender enables file-based logging output.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables console (stdout) logging output.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	// EnabledCallerInfo enables capturing file/function/line of the call site.
	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`

	// ComponentWhiteList lists component names that bypass log level
	// filtering. Enables verbose diagnostics for a single subsystem
	// (e.g. "profiler") without raising the global level. Hot-reloadable.
	ComponentWhiteList []string `mapstructure:"componentWhiteList"`

	// componentWhiteListSet is an internal cache for O(1) whitelist lookups.
	componentWhiteListSet map[string]struct{} `mapstructure:"-"`
}

// GetName implements the config.Config interface.
func (cfg *LogCfg) GetName() string {
	return "logger"
}

// Validate implements the config.Config interface.
func (cfg *LogCfg) Validate() error {
	if cfg.FileAppender && cfg.LogPath == "" {
		return fmt.Errorf("file appender enabled but log path is empty")
	}
	if cfg.FileSplitMB < 0 {
		return fmt.Errorf("invalid splitmb: %d", cfg.FileSplitMB)
	}
	if cfg.AsyncCacheSize < 0 {
		return fmt.Errorf("invalid asynccachesize: %d", cfg.AsyncCacheSize)
	}
	return nil
}

// buildWhiteListSet materializes the lookup set. The logger calls it once
// before publishing a config to concurrent readers; after that the config is
// read-only.
func (cfg *LogCfg) buildWhiteListSet() {
	if len(cfg.ComponentWhiteList) == 0 {
		cfg.componentWhiteListSet = nil
		return
	}
	set := make(map[string]struct{}, len(cfg.ComponentWhiteList))
	for _, name := range cfg.ComponentWhiteList {
		set[name] = struct{}{}
	}
	cfg.componentWhiteListSet = set
}

// IsInWhiteList checks if a component name is whitelisted with O(1) complexity.
// Never mutates the config; falls back to a linear scan when the set was not
// built (a config constructed outside the logger).
func (cfg *LogCfg) IsInWhiteList(component string) bool {
	if cfg.componentWhiteListSet != nil {
		_, exists := cfg.componentWhiteListSet[component]
		return exists
	}
	for _, name := range cfg.ComponentWhiteList {
		if name == component {
			return true
		}
	}
	return false
}

var _defaultCfg = &LogCfg{
	LogPath:         "./emberlog.log",
	LogLevel:        DebugLevel, // Default log level
	FileSplitMB:     50,
	IsAsync:         true,
	CallerSkip:      1,
	FileAppender:    false,
	ConsoleAppender: true,
}

// getDefaultCfg returns a private copy so callers may mutate it freely.
func getDefaultCfg() *LogCfg {
	cfg := *_defaultCfg
	return &cfg
}
