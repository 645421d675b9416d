package vecio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/fannsbench/unify/internal/errors"
)

// ReadFvecs decodes a .fvecs file: each vector is an int32 dimension prefix
// followed by that many little-endian float32 values.
func ReadFvecs(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_fvecs", "unable to open file").
			WithContext("path", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var vectors [][]float32
	for {
		dim, err := readInt32(r)
		if err == io.EOF {
			return vectors, nil
		}
		if err != nil {
			return nil, errors.WrapIOError(err, "vecio.read_fvecs", "unable to read vector header").
				WithContext("path", path).WithContext("entry", len(vectors))
		}
		if dim <= 0 {
			return nil, errors.NewIOError("vecio.read_fvecs", "non-positive vector dimension").
				WithContext("path", path).WithContext("dim", dim)
		}

		vec := make([]float32, dim)
		for j := range vec {
			bits, err := readUint32(r)
			if err != nil {
				return nil, errors.WrapIOError(err, "vecio.read_fvecs", "unable to read vector body").
					WithContext("path", path).WithContext("entry", len(vectors))
			}
			vec[j] = math.Float32frombits(bits)
		}
		vectors = append(vectors, vec)
	}
}

// ReadIvecs decodes a .ivecs file: each entry is an int32 length prefix
// followed by that many little-endian int32 identifiers.
func ReadIvecs(path string) ([][]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_ivecs", "unable to open file").
			WithContext("path", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var entries [][]uint32
	for {
		n, err := readInt32(r)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, errors.WrapIOError(err, "vecio.read_ivecs", "unable to read entry header").
				WithContext("path", path).WithContext("entry", len(entries))
		}
		if n < 0 {
			return nil, errors.NewIOError("vecio.read_ivecs", "negative entry length").
				WithContext("path", path).WithContext("length", n)
		}

		ids := make([]uint32, n)
		for j := range ids {
			v, err := readUint32(r)
			if err != nil {
				return nil, errors.WrapIOError(err, "vecio.read_ivecs", "unable to read entry body").
					WithContext("path", path).WithContext("entry", len(entries))
			}
			ids[j] = v
		}
		entries = append(entries, ids)
	}
}

func readInt32(r io.Reader) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
