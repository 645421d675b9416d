package bench

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/fannsbench/unify/internal/engine"
	"github.com/fannsbench/unify/internal/errors"
	"github.com/fannsbench/unify/internal/monitor"
	"github.com/fannsbench/unify/internal/vecio"
)

// searchProgressEvery controls how often query progress is logged.
const searchProgressEvery = 1000

// SearchParams configures one query run.
type SearchParams struct {
	QueryPath       string
	RangesPath      string
	GroundtruthPath string
	IndexPath       string
	EfSearch        int

	// MonitorInterval overrides the concurrency sampling period; zero keeps
	// the default.
	MonitorInterval time.Duration
}

// RunSearch executes the query protocol: untimed loading and validation,
// untimed index load, then a timed single-threaded pass issuing one
// range-filtered top-K search per query under the concurrency monitor.
// Recall and QPS are computed after the timed window closes.
func RunSearch(params SearchParams, logger zerolog.Logger) (*SearchReport, error) {
	if params.EfSearch <= 0 {
		return nil, errors.NewValidationError("bench.search", "ef_search must be a positive integer").
			WithContext("ef_search", params.EfSearch)
	}

	logger.Info().
		Str("query_path", params.QueryPath).
		Str("query_ranges", params.RangesPath).
		Str("groundtruth", params.GroundtruthPath).
		Str("index", params.IndexPath).
		Int("ef_search", params.EfSearch).
		Msg("query execution starting")

	// Loading and validation are not timed.
	queries, err := vecio.ReadFvecs(params.QueryPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("count", len(queries)).Msg("queries loaded")

	queryRanges, err := vecio.ReadRanges(params.RangesPath)
	if err != nil {
		return nil, err
	}
	if len(queryRanges) != len(queries) {
		return nil, errors.NewValidationError("bench.search", "query range/query count mismatch").
			WithContext("range_count", len(queryRanges)).
			WithContext("query_count", len(queries))
	}

	groundtruth, err := vecio.ReadIvecs(params.GroundtruthPath)
	if err != nil {
		return nil, err
	}
	if len(groundtruth) != len(queries) {
		return nil, errors.NewValidationError("bench.search", "groundtruth/query count mismatch").
			WithContext("groundtruth_count", len(groundtruth)).
			WithContext("query_count", len(queries))
	}

	idx, err := engine.Load(params.IndexPath)
	if err != nil {
		return nil, err
	}
	idx.SetEfSearch(params.EfSearch)
	logger.Info().Int("points", idx.Len()).Msg("index loaded")

	// Force single-threaded query execution for deterministic, comparable
	// per-query latency; the monitor goroutine only sleeps and samples.
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	logger.Info().Msg("starting query execution (timed)")
	mon := monitor.New(params.MonitorInterval)
	mon.Start()
	start := time.Now()

	results := make([][]uint32, len(queries))
	for i, q := range queries {
		candidates := idx.SearchRange(q, QueryK, queryRanges[i].Low, queryRanges[i].High)

		ids := make([]uint32, len(candidates))
		for j, c := range candidates {
			ids[j] = c.ID
		}
		results[i] = ids

		QueriesExecutedTotal.Inc()
		if (i+1)%searchProgressEvery == 0 {
			logger.Info().Int("processed", i+1).Int("total", len(queries)).Msg("query progress")
		}
	}

	elapsed := time.Since(start)
	mon.Stop()
	logger.Info().Msg("query execution complete")

	return &SearchReport{
		NumQueries:   len(queries),
		QuerySeconds: elapsed.Seconds(),
		PeakThreads:  mon.Peak(),
		QPS:          QPS(len(queries), elapsed),
		Recall:       Recall(results, groundtruth, QueryK),
	}, nil
}
