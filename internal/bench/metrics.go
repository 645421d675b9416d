package bench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters for benchmark progress
var (
	// PointsInsertedTotal counts vectors inserted during construction
	PointsInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unify_points_inserted_total",
			Help: "Total number of vectors inserted into the index",
		},
	)

	// QueriesExecutedTotal counts range-filtered searches issued
	QueriesExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unify_queries_executed_total",
			Help: "Total number of range-filtered queries executed",
		},
	)
)
