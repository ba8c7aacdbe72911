package main

import (
	"github.com/spf13/cobra"
)

var (
	benchEvents      int
	benchRate        int
	benchSampleRate  float64
	benchMarkerRatio float64
	benchOutFile     string

	rootCmd = &cobra.Command{
		Use:   "emberlog",
		Short: "Structured event pipeline with sampled profiling",
		Long: `emberlog drives the structured event pipeline from the command line:
synthetic events flow through the enrichment chain and the profiling probe,
and the profiler's metrics snapshot is printed as JSON.`,
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Feed synthetic events through the pipeline and print the profiling snapshot",
		RunE:  runBench,
	}
)

func init() {
	benchCmd.Flags().IntVarP(&benchEvents, "events", "n", 10000, "number of synthetic events to emit")
	benchCmd.Flags().IntVarP(&benchRate, "rate", "r", 0, "pace events at this many per second (0 = unpaced)")
	benchCmd.Flags().Float64VarP(&benchSampleRate, "sample-rate", "s", 1.0, "profiling sample rate in [0, 1]")
	benchCmd.Flags().Float64VarP(&benchMarkerRatio, "marker-ratio", "m", 0.2, "fraction of events emitted at warn level (which carry a visual marker)")
	benchCmd.Flags().StringVarP(&benchOutFile, "out", "o", "", "write the formatted event stream to this file (default: discard)")

	rootCmd.AddCommand(benchCmd)
}
