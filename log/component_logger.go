package log

// ComponentLogger binds a component name into every event it produces, so a
// subsystem's diagnostics carry a stable "component" field for filtering and
// correlation. Components on the configuration whitelist bypass level
// filtering entirely, which enables verbose debugging of a single subsystem
// (e.g. the profiler) in an otherwise quiet process.
type ComponentLogger struct {
	*StreamLogger
	component string
}

// NewComponentLogger creates a logger for the named component on top of an
// existing StreamLogger. The component shares the parent's appenders and
// processing chain.
func NewComponentLogger(parent *StreamLogger, component string) *ComponentLogger {
	if parent == nil {
		parent = _defaultLogger
	}

	return &ComponentLogger{
		StreamLogger: parent,
		component:    component,
	}
}

// inWhiteList resolves the whitelist against the current configuration on
// every event, so a hot reload reaches component loggers that already exist.
func (x *ComponentLogger) inWhiteList() bool {
	cfg := x.GetCurrentConfig()
	return cfg != nil && cfg.IsInWhiteList(x.component)
}

// log creates an event with the component field already populated.
func (x *ComponentLogger) log(level Level) *LogEvent {
	e := x.StreamLogger.logWith(level, x.inWhiteList())
	if e == nil {
		return nil
	}
	return e.Str("component", x.component)
}

// IgnoreCheckLevel reports whether this component bypasses level filtering.
func (x *ComponentLogger) IgnoreCheckLevel() bool {
	return x.inWhiteList()
}

// Trace creates a new trace-level log event for this component.
func (x *ComponentLogger) Trace() *LogEvent {
	return x.log(TraceLevel)
}

// Debug creates a new debug-level log event for this component.
func (x *ComponentLogger) Debug() *LogEvent {
	return x.log(DebugLevel)
}

// Info creates a new info-level log event for this component.
func (x *ComponentLogger) Info() *LogEvent {
	return x.log(InfoLevel)
}

// Warn creates a new warning-level log event for this component.
func (x *ComponentLogger) Warn() *LogEvent {
	return x.log(WarnLevel)
}

// Error creates a new error-level log event for this component.
func (x *ComponentLogger) Error() *LogEvent {
	return x.log(ErrorLevel)
}

// Fatal creates a new fatal-level log event for this component.
func (x *ComponentLogger) Fatal() *LogEvent {
	return x.log(FatalLevel)
}
