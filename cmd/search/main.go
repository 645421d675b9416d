// Command search runs range-filtered top-K queries against a previously
// built index and reports query time, peak thread count, QPS and recall
// against a precomputed groundtruth.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fannsbench/unify/internal/bench"
	"github.com/fannsbench/unify/internal/logging"
)

func main() {
	var (
		queryPath   = flag.String("query_path", "", "Query vectors in .fvecs format")
		rangesFile  = flag.String("query_ranges_file", "", "Query ranges (low-high per line)")
		groundtruth = flag.String("groundtruth_file", "", "Groundtruth in .ivecs format")
		indexFile   = flag.String("index_file", "", "Path to the saved index")
		efSearch    = flag.Int("ef_search", 0, "Search ef parameter (positive integer)")
	)
	flag.Parse()

	if *queryPath == "" || *rangesFile == "" || *groundtruth == "" || *indexFile == "" {
		fmt.Fprintln(os.Stderr, "Error: missing required arguments")
		flag.Usage()
		os.Exit(1)
	}
	if *efSearch <= 0 {
		fmt.Fprintln(os.Stderr, "Error: ef_search must be a positive integer")
		os.Exit(1)
	}

	cfg, err := bench.LoadEnvConfig()
	if err != nil {
		fatalf("%v", err)
	}
	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fatalf("%v", err)
	}

	report, err := bench.RunSearch(bench.SearchParams{
		QueryPath:       *queryPath,
		RangesPath:      *rangesFile,
		GroundtruthPath: *groundtruth,
		IndexPath:       *indexFile,
		EfSearch:        *efSearch,
		MonitorInterval: cfg.MonitorInterval,
	}, logger)
	if err != nil {
		fatalf("%v", err)
	}

	bench.WriteSearchReport(os.Stdout, report)
	if err := bench.WriteFootprint(os.Stdout); err != nil {
		logger.Warn().Err(err).Msg("memory footprint unavailable")
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
