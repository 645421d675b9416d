package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fannsbench/unify/internal/slots"
)

// buildLineIndex inserts n points on a line, point i at coordinate i with
// attribute i, partitioned into numSlots slots.
func buildLineIndex(t *testing.T, n, numSlots int) *Index {
	t.Helper()
	attrs := make([]int64, n)
	for i := range attrs {
		attrs[i] = int64(i)
	}
	ranges, err := slots.Partition(attrs, numSlots)
	require.NoError(t, err)

	idx, err := New(2, ranges, Options{M: 16, EfConstruction: 200, Seed: 42})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Insert([]float32{float32(i), 0}, uint32(i), int64(i)))
	}
	idx.Flush()
	idx.SetEfSearch(200)
	return idx
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, []slots.Range{{Low: 0, High: 1}}, Options{})
	require.Error(t, err)

	_, err = New(4, nil, Options{})
	require.Error(t, err)
}

func TestIndex_InsertAndCount(t *testing.T) {
	idx := buildLineIndex(t, 100, 4)
	assert.Equal(t, 100, idx.Len())
	assert.Len(t, idx.Ranges(), 4)
}

func TestIndex_InsertDimensionMismatch(t *testing.T) {
	idx, err := New(4, []slots.Range{{Low: 0, High: 10}}, Options{})
	require.NoError(t, err)
	defer idx.Flush()

	err = idx.Insert([]float32{1, 2}, 0, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestIndex_InsertAfterFlush(t *testing.T) {
	idx, err := New(2, []slots.Range{{Low: 0, High: 10}}, Options{})
	require.NoError(t, err)
	idx.Flush()

	require.Error(t, idx.Insert([]float32{1, 2}, 0, 5))
}

func TestIndex_SearchRangeHonorsFilter(t *testing.T) {
	idx := buildLineIndex(t, 100, 4)

	res := idx.SearchRange([]float32{35.2, 0}, 10, 30, 40)
	require.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), 10)

	for _, c := range res {
		assert.GreaterOrEqual(t, c.ID, uint32(30))
		assert.LessOrEqual(t, c.ID, uint32(40))
	}
	// Ordered ascending by distance.
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
	}
	// The closest in-range points must be present.
	ids := resultIDs(res)
	for _, want := range []uint32{33, 34, 35, 36, 37} {
		assert.Contains(t, ids, want)
	}
}

func TestIndex_SearchRangeAcrossSlotBoundary(t *testing.T) {
	idx := buildLineIndex(t, 100, 4)

	// [20, 80] spans several slot boundaries; everything returned must still
	// satisfy the filter.
	res := idx.SearchRange([]float32{50, 0}, 10, 20, 80)
	require.Len(t, res, 10)
	for _, c := range res {
		assert.GreaterOrEqual(t, c.ID, uint32(20))
		assert.LessOrEqual(t, c.ID, uint32(80))
	}
	assert.Contains(t, resultIDs(res), uint32(50))
}

func TestIndex_SearchRangeEmptyIntersection(t *testing.T) {
	idx := buildLineIndex(t, 50, 2)

	assert.Empty(t, idx.SearchRange([]float32{10, 0}, 10, 200, 300))
	assert.Empty(t, idx.SearchRange([]float32{10, 0}, 10, 40, 20)) // inverted
	assert.Empty(t, idx.SearchRange([]float32{10, 0}, 0, 0, 50))   // k == 0
}

func TestIndex_NarrowRangeReturnsFewerThanK(t *testing.T) {
	idx := buildLineIndex(t, 100, 4)

	res := idx.SearchRange([]float32{44, 0}, 10, 44, 46)
	require.NotEmpty(t, res)
	assert.LessOrEqual(t, len(res), 3)
	for _, c := range res {
		assert.GreaterOrEqual(t, c.ID, uint32(44))
		assert.LessOrEqual(t, c.ID, uint32(46))
	}
}

func TestIndex_AttributeOutsideDomainClamps(t *testing.T) {
	idx, err := New(1, []slots.Range{{Low: 0, High: 10}, {Low: 10, High: 20}}, Options{Seed: 1})
	require.NoError(t, err)

	require.NoError(t, idx.Insert([]float32{1}, 0, -100)) // below min: first slot
	require.NoError(t, idx.Insert([]float32{2}, 1, 500))  // above max: last slot
	idx.Flush()

	assert.Equal(t, 2, idx.Len())
	res := idx.SearchRange([]float32{1}, 10, -1000, 1000)
	assert.Len(t, res, 2)
}

func TestIndex_SaveLoadRoundtrip(t *testing.T) {
	idx := buildLineIndex(t, 80, 4)
	path := filepath.Join(t.TempDir(), "test.index")

	require.NoError(t, idx.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	loaded.SetEfSearch(200)

	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, idx.Ranges(), loaded.Ranges())

	want := resultIDs(idx.SearchRange([]float32{25.2, 0}, 10, 10, 40))
	got := resultIDs(loaded.SearchRange([]float32{25.2, 0}, 10, 10, 40))
	assert.ElementsMatch(t, want, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.index"))
	require.Error(t, err)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.index")
	require.NoError(t, os.WriteFile(path, []byte("not an index"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func resultIDs(res []Candidate) []uint32 {
	ids := make([]uint32, len(res))
	for i, c := range res {
		ids[i] = c.ID
	}
	return ids
}
