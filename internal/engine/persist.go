package engine

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/coder/hnsw"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/fannsbench/unify/internal/errors"
	"github.com/fannsbench/unify/internal/slots"
)

const (
	indexMagic   = uint32(0x554E4946) // "UNIF"
	indexVersion = uint32(1)
)

// Save persists the index to path as a zstd-compressed artifact: a header
// with the dimension and slot ranges, then per slot the point ids, their
// attributes, and the exported graph. Pending insertions are flushed first.
// The write goes to a temporary file renamed into place, so a crashed run
// never leaves a truncated artifact behind.
func (idx *Index) Save(path string) error {
	idx.Flush()

	// Export graphs to buffers in parallel; the compressed stream itself is
	// written sequentially.
	graphBufs := make([]*bytes.Buffer, len(idx.slots))
	var g errgroup.Group
	for i, s := range idx.slots {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := s.graph.Export(&buf); err != nil {
				return errors.WrapStorageError(err, "engine.save", "graph export failed").
					WithContext("slot", i)
			}
			graphBufs[i] = &buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.WrapIOError(err, "engine.save", "unable to create index file").
			WithContext("path", path)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.WrapStorageError(err, "engine.save", "zstd writer init failed")
	}

	if err := idx.writePayload(enc, graphBufs); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return errors.WrapStorageError(err, "engine.save", "zstd flush failed")
	}
	if err := f.Sync(); err != nil {
		return errors.WrapIOError(err, "engine.save", "fsync failed").WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIOError(err, "engine.save", "close failed").WithContext("path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapIOError(err, "engine.save", "rename failed").WithContext("path", path)
	}
	return nil
}

func (idx *Index) writePayload(w io.Writer, graphBufs []*bytes.Buffer) error {
	hdr := []any{
		indexMagic,
		indexVersion,
		uint32(idx.dim),
		uint32(len(idx.slots)),
		uint64(idx.Len()),
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.WrapStorageError(err, "engine.save", "header write failed")
		}
	}

	for _, s := range idx.slots {
		if err := binary.Write(w, binary.LittleEndian, s.rng.Low); err != nil {
			return errors.WrapStorageError(err, "engine.save", "range write failed")
		}
		if err := binary.Write(w, binary.LittleEndian, s.rng.High); err != nil {
			return errors.WrapStorageError(err, "engine.save", "range write failed")
		}
	}

	for i, s := range idx.slots {
		if err := binary.Write(w, binary.LittleEndian, uint64(len(s.ids))); err != nil {
			return errors.WrapStorageError(err, "engine.save", "slot size write failed")
		}
		for _, id := range s.ids {
			if err := binary.Write(w, binary.LittleEndian, id); err != nil {
				return errors.WrapStorageError(err, "engine.save", "id write failed")
			}
			if err := binary.Write(w, binary.LittleEndian, s.attrs[id]); err != nil {
				return errors.WrapStorageError(err, "engine.save", "attribute write failed")
			}
		}

		blob := graphBufs[i].Bytes()
		if err := binary.Write(w, binary.LittleEndian, uint64(len(blob))); err != nil {
			return errors.WrapStorageError(err, "engine.save", "graph size write failed")
		}
		if _, err := w.Write(blob); err != nil {
			return errors.WrapStorageError(err, "engine.save", "graph write failed")
		}
	}
	return nil
}

// Load reads an index artifact written by Save. The point count and slot
// layout are detected from the file; the caller only supplies the path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIOError(err, "engine.load", "unable to open index file").
			WithContext("path", path)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, errors.WrapStorageError(err, "engine.load", "zstd reader init failed")
	}
	defer dec.Close()

	var magic, version, dim, numSlots uint32
	var count uint64
	for _, v := range []any{&magic, &version, &dim, &numSlots, &count} {
		if err := binary.Read(dec, binary.LittleEndian, v); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "header read failed").
				WithContext("path", path)
		}
	}
	if magic != indexMagic {
		return nil, errors.NewStorageError("engine.load", "not a unify index file").
			WithContext("path", path)
	}
	if version != indexVersion {
		return nil, errors.NewStorageError("engine.load", "unsupported index version").
			WithContext("version", version)
	}
	if numSlots == 0 {
		return nil, errors.NewStorageError("engine.load", "index has no slots")
	}

	ranges := make([]slots.Range, numSlots)
	for i := range ranges {
		if err := binary.Read(dec, binary.LittleEndian, &ranges[i].Low); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "range read failed")
		}
		if err := binary.Read(dec, binary.LittleEndian, &ranges[i].High); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "range read failed")
		}
	}

	idx := &Index{
		dim:     int(dim),
		slots:   make([]*slot, numSlots),
		flushed: true,
	}
	graphBlobs := make([][]byte, numSlots)
	for i := range idx.slots {
		s := &slot{rng: ranges[i], attrs: make(map[uint32]int64)}

		var n uint64
		if err := binary.Read(dec, binary.LittleEndian, &n); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "slot size read failed").
				WithContext("slot", i)
		}
		s.ids = make([]uint32, n)
		for j := uint64(0); j < n; j++ {
			var attr int64
			if err := binary.Read(dec, binary.LittleEndian, &s.ids[j]); err != nil {
				return nil, errors.WrapStorageError(err, "engine.load", "id read failed").
					WithContext("slot", i)
			}
			if err := binary.Read(dec, binary.LittleEndian, &attr); err != nil {
				return nil, errors.WrapStorageError(err, "engine.load", "attribute read failed").
					WithContext("slot", i)
			}
			s.attrs[s.ids[j]] = attr
		}

		var blobLen uint64
		if err := binary.Read(dec, binary.LittleEndian, &blobLen); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "graph size read failed").
				WithContext("slot", i)
		}
		graphBlobs[i] = make([]byte, blobLen)
		if _, err := io.ReadFull(dec, graphBlobs[i]); err != nil {
			return nil, errors.WrapStorageError(err, "engine.load", "graph read failed").
				WithContext("slot", i)
		}
		idx.slots[i] = s
	}

	// Graph import dominates load time; rebuild the per-slot graphs in
	// parallel.
	var g errgroup.Group
	for i, s := range idx.slots {
		g.Go(func() error {
			graph := hnsw.NewGraph[uint32]()
			if err := graph.Import(bytes.NewReader(graphBlobs[i])); err != nil {
				return errors.WrapStorageError(err, "engine.load", "graph import failed").
					WithContext("slot", i)
			}
			s.graph = graph
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if got := idx.Len(); uint64(got) != count {
		return nil, errors.NewStorageError("engine.load", "point count mismatch").
			WithContext("expected", count).WithContext("actual", got)
	}
	return idx, nil
}
