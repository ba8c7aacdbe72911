package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/ratelimit"

	"github.com/lcx/emberlog/log"
	"github.com/lcx/emberlog/pipeline"
	"github.com/lcx/emberlog/profiler"
)

// runBench drives synthetic events through the full pipeline: logger ->
// enrichers -> profiling probe -> appenders, then prints the profiler's
// metrics snapshot to stdout as indented JSON.
func runBench(_ *cobra.Command, _ []string) error {
	if benchEvents <= 0 {
		return fmt.Errorf("--events must be positive, got %d", benchEvents)
	}
	if benchMarkerRatio < 0 || benchMarkerRatio > 1 {
		return fmt.Errorf("--marker-ratio %v out of range [0, 1]", benchMarkerRatio)
	}

	logCfg := &log.LogCfg{
		LogLevel:     log.DebugLevel,
		FileAppender: benchOutFile != "",
		LogPath:      benchOutFile,
		FileSplitMB:  50,
	}
	if err := logCfg.Validate(); err != nil {
		return err
	}
	logger := log.NewLogger(logCfg)

	prof, err := profiler.NewProfiler(&profiler.Cfg{SampleRate: benchSampleRate},
		log.NewComponentLogger(logger, profiler.ComponentName))
	if err != nil {
		return err
	}

	logger.AddProcessor(pipeline.NewEmojiEnricher())
	logger.AddProcessor(pipeline.NewHostEnricher())
	// The probe sits last so it sees the fully enriched record.
	logger.AddProcessor(prof.Probe())

	prof.Enable()

	var pacer ratelimit.Limiter
	if benchRate > 0 {
		pacer = ratelimit.New(benchRate)
	}

	for i := 0; i < benchEvents; i++ {
		if pacer != nil {
			pacer.Take()
		}
		if rand.Float64() < benchMarkerRatio {
			logger.Warn().Int("seq", i).Str("source", "bench").Msg("synthetic warning event")
		} else {
			logger.Info().Int("seq", i).Str("source", "bench").Msg("synthetic event")
		}
	}

	prof.Disable()
	logger.Refresh()
	logger.Close()

	out, err := json.MarshalIndent(prof.Metrics(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
