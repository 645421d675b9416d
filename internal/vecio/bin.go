// Package vecio decodes the flat binary and textual dataset formats the
// benchmark consumes: .bin vector datasets, .fvecs query vectors, .ivecs
// groundtruth lists, and line-oriented attribute and range files.
package vecio

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/fannsbench/unify/internal/errors"
)

const binHeaderSize = 8 // int32 count + int32 dim

// ReadBin decodes a .bin vector dataset: a count/dimension header followed
// by count*dim little-endian float32 values. The file is memory-mapped while
// decoding; returned vectors are heap copies and outlive the mapping.
func ReadBin(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.WrapIOError(err, "vecio.read_bin", "unable to open file").
			WithContext("path", path)
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, 0, errors.WrapIOError(err, "vecio.read_bin", "unable to mmap file").
			WithContext("path", path)
	}
	defer data.Unmap()

	if len(data) < binHeaderSize {
		return nil, 0, errors.NewIOError("vecio.read_bin", "file too small for header").
			WithContext("path", path).WithContext("size", len(data))
	}

	count := int(int32(binary.LittleEndian.Uint32(data[0:4])))
	dim := int(int32(binary.LittleEndian.Uint32(data[4:8])))
	if count < 0 || dim <= 0 {
		return nil, 0, errors.NewIOError("vecio.read_bin", "invalid header").
			WithContext("count", count).WithContext("dim", dim)
	}

	need := binHeaderSize + count*dim*4
	if len(data) < need {
		return nil, 0, errors.NewIOError("vecio.read_bin", "file truncated").
			WithContext("expected_bytes", need).WithContext("actual_bytes", len(data))
	}

	vectors := make([][]float32, count)
	off := binHeaderSize
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, dim, nil
}
