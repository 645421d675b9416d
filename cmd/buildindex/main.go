// Command buildindex constructs a slot-partitioned range-filtered ANN index
// from a vector dataset and an attribute column, reporting build time, peak
// thread count and memory footprint.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fannsbench/unify/internal/bench"
	"github.com/fannsbench/unify/internal/logging"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <data.bin> <attribute_values.txt> <output_index> <M> <ef_construction> <num_slots> <random_seed>\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  data.bin             - Input vectors in .bin format")
	fmt.Fprintln(w, "  attribute_values.txt - One attribute value per line (integer)")
	fmt.Fprintln(w, "  output_index         - Path to save the index")
	fmt.Fprintln(w, "  M                    - Max links per graph node")
	fmt.Fprintln(w, "  ef_construction      - Construction ef parameter")
	fmt.Fprintln(w, "  num_slots            - Number of slots for partitioning")
	fmt.Fprintln(w, "  random_seed          - Random seed for index construction")
}

func main() {
	if len(os.Args) != 8 {
		usage(os.Stderr)
		os.Exit(1)
	}

	m, err := strconv.Atoi(os.Args[4])
	if err != nil {
		fatalf("invalid M %q: %v", os.Args[4], err)
	}
	efConstruction, err := strconv.Atoi(os.Args[5])
	if err != nil {
		fatalf("invalid ef_construction %q: %v", os.Args[5], err)
	}
	numSlots, err := strconv.Atoi(os.Args[6])
	if err != nil {
		fatalf("invalid num_slots %q: %v", os.Args[6], err)
	}
	seed, err := strconv.ParseUint(os.Args[7], 10, 64)
	if err != nil {
		fatalf("invalid random_seed %q: %v", os.Args[7], err)
	}

	cfg, err := bench.LoadEnvConfig()
	if err != nil {
		fatalf("%v", err)
	}
	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		fatalf("%v", err)
	}

	report, err := bench.RunBuild(bench.BuildParams{
		DataPath:        os.Args[1],
		AttributesPath:  os.Args[2],
		IndexPath:       os.Args[3],
		M:               m,
		EfConstruction:  efConstruction,
		NumSlots:        numSlots,
		Seed:            seed,
		MonitorInterval: cfg.MonitorInterval,
	}, logger)
	if err != nil {
		fatalf("%v", err)
	}

	bench.WriteBuildReport(os.Stdout, report)
	if err := bench.WriteFootprint(os.Stdout); err != nil {
		logger.Warn().Err(err).Msg("memory footprint unavailable")
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
