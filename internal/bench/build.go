package bench

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fannsbench/unify/internal/engine"
	"github.com/fannsbench/unify/internal/errors"
	"github.com/fannsbench/unify/internal/monitor"
	"github.com/fannsbench/unify/internal/slots"
	"github.com/fannsbench/unify/internal/vecio"
)

// buildProgressEvery controls how often construction progress is logged.
const buildProgressEvery = 10000

// BuildParams configures one construction run.
type BuildParams struct {
	DataPath       string
	AttributesPath string
	IndexPath      string
	M              int
	EfConstruction int
	NumSlots       int
	Seed           uint64

	// MonitorInterval overrides the concurrency sampling period; zero keeps
	// the default.
	MonitorInterval time.Duration
}

// RunBuild executes the construction protocol: untimed loading, validation
// and slot partitioning, then timed index construction and persistence under
// the concurrency monitor. Every failure is detected before the timed phase
// begins, so a failed run never reports timing numbers.
func RunBuild(params BuildParams, logger zerolog.Logger) (*BuildReport, error) {
	logger.Info().
		Str("data", params.DataPath).
		Str("attributes", params.AttributesPath).
		Str("output_index", params.IndexPath).
		Int("m", params.M).
		Int("ef_construction", params.EfConstruction).
		Int("num_slots", params.NumSlots).
		Uint64("seed", params.Seed).
		Msg("index construction starting")

	// Loading and preprocessing are not timed.
	vectors, dim, err := vecio.ReadBin(params.DataPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("count", len(vectors)).Int("dim", dim).Msg("vectors loaded")

	attrs, err := vecio.ReadAttributes(params.AttributesPath)
	if err != nil {
		return nil, err
	}
	if len(attrs) != len(vectors) {
		return nil, errors.NewValidationError("bench.build", "attribute/vector size mismatch").
			WithContext("vector_count", len(vectors)).
			WithContext("attribute_count", len(attrs))
	}
	logger.Info().Int("count", len(attrs)).Msg("attribute values loaded")

	ranges, err := slots.Partition(attrs, params.NumSlots)
	if err != nil {
		return nil, err
	}
	for i, r := range ranges {
		logger.Info().Int("slot", i).Int64("low", r.Low).Int64("high", r.High).Msg("slot range")
	}

	logger.Info().Msg("starting index construction (timed)")
	mon := monitor.New(params.MonitorInterval)
	mon.Start()
	start := time.Now()

	report, err := buildIndex(vectors, attrs, dim, ranges, params, logger)
	elapsed := time.Since(start)
	mon.Stop()
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("index construction complete")
	report.BuildSeconds = elapsed.Seconds()
	report.PeakThreads = mon.Peak()
	return report, nil
}

func buildIndex(vectors [][]float32, attrs []int64, dim int, ranges []slots.Range, params BuildParams, logger zerolog.Logger) (*BuildReport, error) {
	idx, err := engine.New(dim, ranges, engine.Options{
		M:              params.M,
		EfConstruction: params.EfConstruction,
		Seed:           params.Seed,
	})
	if err != nil {
		return nil, err
	}

	for i, vec := range vectors {
		if err := idx.Insert(vec, uint32(i), attrs[i]); err != nil {
			return nil, err
		}
		PointsInsertedTotal.Inc()
		if (i+1)%buildProgressEvery == 0 {
			logger.Info().Int("inserted", i+1).Int("total", len(vectors)).Msg("insertion progress")
		}
	}

	if err := idx.Save(params.IndexPath); err != nil {
		return nil, err
	}
	logger.Info().Str("path", params.IndexPath).Int("points", idx.Len()).Msg("index saved")

	return &BuildReport{
		NumPoints: len(vectors),
		Dim:       dim,
		NumSlots:  len(ranges),
	}, nil
}
