package profiler

import (
	"github.com/lcx/emberlog/log"
)

// ComponentName is the stable identity the profiler registers and logs under.
const ComponentName = "profiler"

// Profiler owns one Aggregator plus one Probe and exposes the external
// contract: Enable, Disable, Reset and Metrics. The three control operations
// are fail-safe: any internal panic is caught, logged with component context
// and swallowed. Profiling must be strictly additive; a profiling fault may
// stop metrics from advancing, but it must never break event processing. On
// failure the observable behavior is indistinguishable from profiling being
// disabled, plus a log line explaining why.
//
// A new Profiler is always disabled; the sampling rate and the on/off state
// are independent axes.
type Profiler struct {
	agg    *Aggregator
	probe  *Probe
	logger *log.ComponentLogger
}

// NewProfiler creates a disabled profiler from the given configuration.
// A nil cfg uses defaults (rate DefaultSampleRate). An out-of-range sample
// rate is rejected here, synchronously; construction is the only place the
// subsystem validates strictly.
func NewProfiler(cfg *Cfg, logger *log.ComponentLogger) (*Profiler, error) {
	if cfg == nil {
		cfg = defaultCfg()
	}

	sampler, err := NewSampler(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator()
	return &Profiler{
		agg:    agg,
		probe:  NewProbe(agg, sampler, logger),
		logger: logger,
	}, nil
}

// Probe returns the pipeline stage to insert into the host processing chain.
func (p *Profiler) Probe() *Probe {
	return p.probe
}

// Enable switches profiling on. Idempotent; never propagates a failure.
func (p *Profiler) Enable() {
	defer p.recoverOp("enable")
	p.probe.Enable()
}

// Disable switches profiling off, immediately and synchronously. Idempotent;
// never propagates a failure.
func (p *Profiler) Disable() {
	defer p.recoverOp("disable")
	p.probe.Disable()
}

// Enabled reports whether the probe is currently measuring.
func (p *Profiler) Enabled() bool {
	return p.probe.Enabled()
}

// Reset zeroes all counters and starts a new epoch. Never propagates a
// failure; a failed reset leaves the old epoch in place with a log line.
func (p *Profiler) Reset() {
	defer p.recoverOp("reset")
	p.agg.Reset()
}

// Metrics returns a consistent snapshot of the current epoch. Safe to call
// concurrently with ongoing recording.
func (p *Profiler) Metrics() Snapshot {
	return p.agg.Snapshot()
}

// SetSampleRate swaps the sampling probability at runtime. The rate is
// validated like at construction; an invalid rate is rejected and the
// current sampler stays in place.
func (p *Profiler) SetSampleRate(rateVal float64) error {
	sampler, err := NewSampler(rateVal)
	if err != nil {
		return err
	}
	p.probe.SetSampler(sampler)
	return nil
}

// SampleRate returns the current sampling probability.
func (p *Profiler) SampleRate() float64 {
	return p.probe.SampleRate()
}

// FactoryName implements the plugin registry contract.
func (p *Profiler) FactoryName() string {
	return FactoryName
}

// PluginInfo exposes registration metadata for the component registry.
func (p *Profiler) PluginInfo() map[string]any {
	return map[string]any{
		"type":        string(TypeProfiling),
		"sample_rate": p.SampleRate(),
	}
}

// recoverOp is the fail-safe boundary for the control operations.
func (p *Profiler) recoverOp(operation string) {
	if r := recover(); r != nil {
		if p.logger != nil {
			p.logger.Error().
				Str("operation", operation).
				Any("panic", r).
				Msg("profiler operation failed; continuing without it")
		}
	}
}
