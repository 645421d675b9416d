package bench

import (
	"fmt"
	"io"

	"github.com/fannsbench/unify/internal/memory"
)

// BuildReport holds the measurements of one construction run.
type BuildReport struct {
	NumPoints    int
	Dim          int
	NumSlots     int
	BuildSeconds float64
	PeakThreads  int
}

// SearchReport holds the measurements of one query run.
type SearchReport struct {
	NumQueries   int
	QuerySeconds float64
	PeakThreads  int
	QPS          float64
	Recall       float64
}

// The label and number formatting below is the machine-parseable contract
// consumed by downstream tooling; do not change it.

// WriteBuildReport emits the stable build metric lines.
func WriteBuildReport(w io.Writer, r *BuildReport) {
	fmt.Fprintf(w, "BUILD_TIME_SECONDS: %g\n", r.BuildSeconds)
	fmt.Fprintf(w, "PEAK_THREADS: %d\n", r.PeakThreads)
}

// WriteSearchReport emits the stable search metric lines.
func WriteSearchReport(w io.Writer, r *SearchReport) {
	fmt.Fprintf(w, "Query time (s): %g\n", r.QuerySeconds)
	fmt.Fprintf(w, "Peak thread count: %d\n", r.PeakThreads)
	fmt.Fprintf(w, "QPS: %g\n", r.QPS)
	fmt.Fprintf(w, "Recall: %g\n", r.Recall)
}

// WriteFootprint emits the process memory footprint line. Footprint
// availability depends on /proc; failure is reported, not fatal, since the
// timing numbers above it are already out.
func WriteFootprint(w io.Writer) error {
	fp, err := memory.ReadFootprint()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "PEAK_MEMORY_FOOTPRINT_MB: %.2f\n", fp.PeakRSSMB())
	return nil
}
