package profiler

import (
	"fmt"

	"github.com/lcx/emberlog/config"
	"github.com/lcx/emberlog/log"
	"github.com/lcx/emberlog/plugin"
)

// TypeProfiling is the registry type the profiler registers under.
const TypeProfiling = plugin.Profiling

// FactoryName is the registry factory name of the sampled profiler.
const FactoryName = "sampling"

// The factory is registered at package load so the registry can build the
// profiler from configuration and callers can retrieve the live instance by
// name.
func init() {
	plugin.RegisterPlugin(&factory{})
}

// factory implements the sampled-profiler plugin factory.
type factory struct{}

// Type identifies the plugin as a profiling implementation.
func (f *factory) Type() plugin.Type {
	return TypeProfiling
}

// Name returns the canonical plugin name.
func (f *factory) Name() string {
	return FactoryName
}

// Setup builds a new disabled Profiler from the provided configuration
// payload. The probe must still be inserted into a processing chain by the
// pipeline owner; the registry only manages identity and lifecycle.
func (f *factory) Setup(v map[string]any) (plugin.Plugin, error) {
	cfg := defaultCfg()
	if err := config.Decode(v, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.NewComponentLogger(log.DefaultLogger(), ComponentName)
	return NewProfiler(cfg, logger)
}

// Destroy releases resources associated with the plugin instance. The
// profiler holds nothing beyond memory; disabling is enough.
func (f *factory) Destroy(p plugin.Plugin, _ any) error {
	prof, ok := p.(*Profiler)
	if !ok {
		return fmt.Errorf("expected *profiler.Profiler, got %T", p)
	}
	prof.Disable()
	return nil
}

// Reload applies configuration updates for hot-reload scenarios: only the
// sampling rate changes, counters and enabled state are preserved.
func (f *factory) Reload(p plugin.Plugin, v map[string]any) error {
	prof, ok := p.(*Profiler)
	if !ok {
		return fmt.Errorf("expected *profiler.Profiler, got %T", p)
	}

	cfg := defaultCfg()
	if err := config.Decode(v, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return prof.SetSampleRate(cfg.SampleRate)
}

// CanDelete reports whether the plugin instance can be safely deleted.
// The profiler is always safe to delete: it owns no connections and drops
// no data anyone depends on.
func (f *factory) CanDelete(plugin.Plugin) bool {
	return true
}
