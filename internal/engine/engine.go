// Package engine implements a slot-partitioned range-filtered ANN index.
// Points are bucketed by attribute into equal-frequency slots, one HNSW
// graph per slot. A range-filtered query searches only the graphs whose slot
// overlaps the query interval and post-filters boundary slots by the stored
// per-point attribute.
package engine

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/fannsbench/unify/internal/errors"
	"github.com/fannsbench/unify/internal/slots"
)

// insertQueueDepth bounds the per-slot channel feeding each inserter
// goroutine.
const insertQueueDepth = 256

// Options holds the index construction hyperparameters.
type Options struct {
	// M is the maximum neighbor degree per graph node.
	M int
	// EfConstruction is the search breadth used while inserting.
	EfConstruction int
	// Seed derives the per-slot level-generation RNGs.
	Seed uint64
}

// Candidate is one search result: an identifier and its distance to the
// query, ordered ascending by distance in result lists.
type Candidate struct {
	ID       uint32
	Distance float32
}

type point struct {
	vec  []float32
	id   uint32
	attr int64
}

// slot owns one bucket of the attribute domain. Its ids/attrs/graph are
// written only by its inserter goroutine until Flush joins the workers.
type slot struct {
	rng   slots.Range
	graph *hnsw.Graph[uint32]
	ids   []uint32
	attrs map[uint32]int64
	in    chan point
}

// Index is a slot-partitioned range-filtered HNSW index.
type Index struct {
	dim      int
	efSearch int
	slots    []*slot
	wg       sync.WaitGroup
	flushed  bool
}

// New constructs an empty index over the given slot ranges. Insertion
// workers start immediately; call Flush (or Save, which flushes) once all
// points are inserted.
func New(dim int, ranges []slots.Range, opts Options) (*Index, error) {
	if dim <= 0 {
		return nil, errors.NewValidationError("engine.new", "dimension must be positive").
			WithContext("dim", dim)
	}
	if len(ranges) == 0 {
		return nil, errors.NewValidationError("engine.new", "at least one slot range required")
	}

	idx := &Index{
		dim:   dim,
		slots: make([]*slot, len(ranges)),
	}
	for i, r := range ranges {
		idx.slots[i] = &slot{
			rng:   r,
			graph: newGraph(opts, int64(i)),
			attrs: make(map[uint32]int64),
			in:    make(chan point, insertQueueDepth),
		}
	}
	idx.startInserters()
	return idx, nil
}

func newGraph(opts Options, slotIdx int64) *hnsw.Graph[uint32] {
	g := hnsw.NewGraph[uint32]()
	g.Distance = hnsw.EuclideanDistance
	if opts.M > 0 {
		g.M = opts.M
	}
	if opts.EfConstruction > 0 {
		g.EfSearch = opts.EfConstruction
	}
	// Distinct stream per slot so graphs stay deterministic under the
	// per-slot insertion concurrency.
	g.Rng = rand.New(rand.NewSource(int64(opts.Seed) + slotIdx))
	return g
}

// startInserters launches one goroutine per slot. hnsw graph mutation is not
// thread-safe, so each graph is touched by exactly one goroutine; point
// placement across slots still proceeds in parallel.
func (idx *Index) startInserters() {
	for _, s := range idx.slots {
		idx.wg.Add(1)
		go func(s *slot) {
			defer idx.wg.Done()
			for p := range s.in {
				s.ids = append(s.ids, p.id)
				s.attrs[p.id] = p.attr
				s.graph.Add(hnsw.MakeNode(p.id, p.vec))
			}
		}(s)
	}
}

// Insert routes a point to the slot containing its attribute and enqueues it
// for insertion. Attributes outside the build-time domain clamp to the first
// or last slot. Insert must not be called after Flush.
func (idx *Index) Insert(vec []float32, id uint32, attr int64) error {
	if idx.flushed {
		return errors.NewValidationError("engine.insert", "index is flushed and immutable")
	}
	if len(vec) != idx.dim {
		return errors.NewValidationError("engine.insert", "vector dimension mismatch").
			WithContext("expected", idx.dim).WithContext("actual", len(vec))
	}
	idx.slots[idx.slotFor(attr)].in <- point{vec: vec, id: id, attr: attr}
	return nil
}

// slotFor returns the index of the first slot whose upper bound admits attr.
func (idx *Index) slotFor(attr int64) int {
	i := sort.Search(len(idx.slots), func(i int) bool {
		return attr <= idx.slots[i].rng.High
	})
	if i == len(idx.slots) {
		return len(idx.slots) - 1
	}
	return i
}

// Flush closes the insertion queues and waits for every pending point to
// land in its graph. The index is immutable afterwards.
func (idx *Index) Flush() {
	if idx.flushed {
		return
	}
	idx.flushed = true
	for _, s := range idx.slots {
		close(s.in)
	}
	idx.wg.Wait()
}

// SetEfSearch sets the query-time search breadth on every slot graph.
func (idx *Index) SetEfSearch(ef int) {
	idx.efSearch = ef
	for _, s := range idx.slots {
		s.graph.EfSearch = ef
	}
}

// Len reports the number of points currently held by the index.
func (idx *Index) Len() int {
	var n int
	for _, s := range idx.slots {
		n += len(s.ids)
	}
	return n
}

// Ranges returns the slot ranges the index was built with.
func (idx *Index) Ranges() []slots.Range {
	out := make([]slots.Range, len(idx.slots))
	for i, s := range idx.slots {
		out[i] = s.rng
	}
	return out
}

// SearchRange performs a top-k nearest-neighbor search restricted to points
// whose attribute lies in [low, high]. Results are ordered ascending by
// distance. Search runs entirely on the caller's goroutine so per-query
// latency stays deterministic.
func (idx *Index) SearchRange(vec []float32, k int, low, high int64) []Candidate {
	if k <= 0 || low > high {
		return nil
	}

	var merged []Candidate
	for _, s := range idx.slots {
		if !s.rng.Overlaps(low, high) || len(s.ids) == 0 {
			continue
		}

		// A slot fully inside the query interval needs no attribute
		// filtering; boundary slots are over-fetched to survive it.
		searchK := k
		if s.rng.Low < low || s.rng.High > high {
			searchK = overFetch(k, idx.efSearch, len(s.ids))
		}
		if searchK > len(s.ids) {
			searchK = len(s.ids)
		}

		for _, node := range s.graph.Search(vec, searchK) {
			attr, ok := s.attrs[node.Key]
			if !ok || attr < low || attr > high {
				continue
			}
			merged = append(merged, Candidate{
				ID:       node.Key,
				Distance: hnsw.EuclideanDistance(vec, node.Value),
			})
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Distance < merged[j].Distance })
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

func overFetch(k, efSearch, slotSize int) int {
	fetch := 4 * k
	if efSearch > fetch {
		fetch = efSearch
	}
	if fetch > slotSize {
		fetch = slotSize
	}
	return fetch
}
