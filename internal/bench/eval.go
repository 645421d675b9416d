package bench

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// QueryK is the fixed top-K depth for every benchmark query.
const QueryK = 10

// Recall computes one aggregate recall over the whole run: the count of
// groundtruth identifiers found in the matching query's result set, summed
// across all queries, divided by numQueries*k. Not a per-query average: the
// two metrics diverge whenever hit rates vary across queries.
func Recall(results [][]uint32, groundtruth [][]uint32, k int) float64 {
	if len(results) == 0 || k <= 0 {
		return 0
	}

	var truePositives int
	for i, res := range results {
		found := roaring.BitmapOf(res...)
		for _, id := range groundtruth[i] {
			if found.Contains(id) {
				truePositives++
			}
		}
	}
	return float64(truePositives) / float64(len(results)*k)
}

// QPS computes query throughput over the timed window.
func QPS(numQueries int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(numQueries) / elapsed.Seconds()
}
