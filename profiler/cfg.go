package profiler

import (
	"fmt"
)

// Cfg is the profiler configuration surface: a single sampling probability.
// The enabled/disabled state is not part of the configuration. A constructed
// profiler is always disabled until something explicitly opts in, independent
// of the configured rate.
type Cfg struct {
	// SampleRate is the probability in [0, 1] that an event is measured
	// while the profiler is enabled. Default: 0.01.
	SampleRate float64 `mapstructure:"samplerate"`
}

// GetName implements the config.Config interface.
func (c *Cfg) GetName() string {
	return "profiler"
}

// Validate implements the config.Config interface. This is the only place
// the subsystem validates input strictly; the recording path accepts
// anything.
func (c *Cfg) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("samplerate %v out of range [0, 1]", c.SampleRate)
	}
	return nil
}

func defaultCfg() *Cfg {
	return &Cfg{SampleRate: DefaultSampleRate}
}
