package vecio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fannsbench/unify/internal/slots"
)

func writeBinFile(t *testing.T, vectors [][]float32, dim int) string {
	t.Helper()
	buf := make([]byte, 0, 8+len(vectors)*dim*4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vectors)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	for _, vec := range vectors {
		for _, v := range vec {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func writeFvecsFile(t *testing.T, vectors [][]float32) string {
	t.Helper()
	var buf []byte
	for _, vec := range vectors {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vec)))
		for _, v := range vec {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	path := filepath.Join(t.TempDir(), "queries.fvecs")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func writeIvecsFile(t *testing.T, entries [][]uint32) string {
	t.Helper()
	var buf []byte
	for _, ids := range entries {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ids)))
		for _, id := range ids {
			buf = binary.LittleEndian.AppendUint32(buf, id)
		}
	}
	path := filepath.Join(t.TempDir(), "gt.ivecs")
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestReadBin(t *testing.T) {
	want := [][]float32{
		{1, 2, 3},
		{-0.5, 0.25, 4096},
	}
	path := writeBinFile(t, want, 3)

	vectors, dim, err := ReadBin(path)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)
	assert.Equal(t, want, vectors)
}

func TestReadBin_MissingFile(t *testing.T) {
	_, _, err := ReadBin(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}

func TestReadBin_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	buf := binary.LittleEndian.AppendUint32(nil, 10)
	buf = binary.LittleEndian.AppendUint32(buf, 4)
	// Header claims 10x4 floats but no payload follows.
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, _, err := ReadBin(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestReadFvecs(t *testing.T) {
	want := [][]float32{
		{0.5, 1.5},
		{2.5, 3.5},
		{-1, 0},
	}
	path := writeFvecsFile(t, want)

	vectors, err := ReadFvecs(path)
	require.NoError(t, err)
	assert.Equal(t, want, vectors)
}

func TestReadFvecs_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fvecs")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	vectors, err := ReadFvecs(path)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestReadFvecs_TruncatedBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fvecs")
	buf := binary.LittleEndian.AppendUint32(nil, 8) // promises 8 floats, delivers none
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, err := ReadFvecs(path)
	require.Error(t, err)
}

func TestReadIvecs(t *testing.T) {
	want := [][]uint32{
		{1, 2, 3, 4},
		{7},
		{},
	}
	path := writeIvecsFile(t, want)

	entries, err := ReadIvecs(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, want[0], entries[0])
	assert.Equal(t, want[1], entries[1])
	assert.Empty(t, entries[2])
}

func TestReadAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.txt")
	require.NoError(t, os.WriteFile(path, []byte("10\n-3\n42\n\n7\n"), 0o644))

	attrs, err := ReadAttributes(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, -3, 42, 7}, attrs)
}

func TestReadAttributes_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.txt")
	require.NoError(t, os.WriteFile(path, []byte("10\nnot-a-number\n"), 0o644))

	_, err := ReadAttributes(path)
	require.Error(t, err)
}

func TestReadRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.txt")
	require.NoError(t, os.WriteFile(path, []byte("10-50\n0-0\n3-999\n"), 0o644))

	ranges, err := ReadRanges(path)
	require.NoError(t, err)
	assert.Equal(t, []slots.Range{
		{Low: 10, High: 50},
		{Low: 0, High: 0},
		{Low: 3, High: 999},
	}, ranges)
}

func TestReadRanges_MissingSeparator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.txt")
	require.NoError(t, os.WriteFile(path, []byte("10:50\n"), 0o644))

	_, err := ReadRanges(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dash")
}
