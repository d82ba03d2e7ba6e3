package sstable

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kamishiro/lsmkv/internal/recordio"
)

// dataWriter accumulates records for a new segment's data file, tracking
// the byte offset each record starts at so the caller can sample the
// sparse index at a fixed stride.
type dataWriter struct {
	file   *os.File
	bw     *bufio.Writer
	offset int64
}

func newDataWriter(path string) (*dataWriter, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating segment data file %s: %w", path, err)
	}
	return &dataWriter{file: file, bw: bufio.NewWriter(file)}, nil
}

// append writes one record and returns the offset it started at.
func (dw *dataWriter) append(key, value []byte, tombstone bool) (int64, error) {
	startOffset := dw.offset
	n, err := recordio.Encode(dw.bw, key, value, tombstone)
	if err != nil {
		return 0, fmt.Errorf("appending segment record: %w", err)
	}
	dw.offset += int64(n)
	return startOffset, nil
}

// commit flushes, fsyncs, and closes the data file.
func (dw *dataWriter) commit() error {
	if err := dw.bw.Flush(); err != nil {
		return fmt.Errorf("flushing segment data file: %w", err)
	}
	if err := dw.file.Sync(); err != nil {
		return fmt.Errorf("syncing segment data file: %w", err)
	}
	return dw.file.Close()
}

// scanFrom decodes records starting at offset until it finds target,
// overshoots it, or reaches EOF — the bounded scan the sparse index makes
// possible (spec.md §4.6 read path, step 2-3).
func scanFrom(r io.ReaderAt, offset int64, target []byte) (value []byte, found, tombstone bool, err error) {
	for {
		key, val, ts, next, err := recordio.ReadAt(r, offset)
		if err != nil {
			if err == io.EOF {
				return nil, false, false, nil
			}
			return nil, false, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		cmp := compareBytes(key, target)
		switch {
		case cmp == 0:
			return val, true, ts, nil
		case cmp > 0:
			return nil, false, false, nil
		default:
			offset = next
		}
	}
}

func compareBytes(a, b []byte) int {
	switch {
	case string(a) < string(b):
		return -1
	case string(a) > string(b):
		return 1
	default:
		return 0
	}
}

// Iterator lazily decodes the whole data file in key order, the full-scan
// primitive compaction and fuzzy_get both need (spec.md §4.6 "read_iter").
type Iterator struct {
	file *os.File
	rr   *recordio.Reader
}

// IterRecord is one decoded record from an Iterator.
type IterRecord struct {
	Key       []byte
	Value     []byte
	Tombstone bool
}

// Next decodes the next record, or returns io.EOF at the end of the file.
func (it *Iterator) Next() (IterRecord, error) {
	key, value, tombstone, err := it.rr.Next()
	if err != nil {
		return IterRecord{}, err
	}
	return IterRecord{Key: key, Value: value, Tombstone: tombstone}, nil
}

// Close releases the iterator's file handle.
func (it *Iterator) Close() error {
	return it.file.Close()
}
