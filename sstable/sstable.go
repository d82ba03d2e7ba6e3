// Package sstable implements the immutable on-disk sorted run spec.md §4.6
// describes: a data file of length-prefixed records, a sparse index
// sidecar sampling one key per stride, and a bloom filter sidecar.
package sstable

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/kamishiro/lsmkv/bloom"
	"github.com/kamishiro/lsmkv/btree"
	"github.com/kamishiro/lsmkv/internal/recordio"
)

// SSTable is one immutable on-disk segment: a data file plus its sparse
// index and bloom filter, opened and ready for point lookups and
// full scans.
type SSTable struct {
	gen      int
	dir      string
	dataFile *os.File
	index    *sparseIndex
	filter   *bloom.Filter
}

// Generation returns the segment's generation number; higher is newer.
func (s *SSTable) Generation() int {
	return s.gen
}

// FlushFromMemtable writes a new segment from a sorted slice of memtable
// items (spec.md §4.6 write path): data file, sparse index at the given
// stride, and a bloom filter sized for len(items) at falsePositiveRate.
// Files are staged with a unique .tmp suffix and fsynced, then committed
// by renaming bloom, then index, then data last — the data-file rename is
// the sole commit point a directory listing can observe, so a crash mid-
// flush never exposes a partial segment (spec.md §4.6 step 5, §4.7).
func FlushFromMemtable(dir string, gen int, items []btree.Item, stride int, falsePositiveRate float64) (*SSTable, error) {
	if stride < 1 {
		stride = 1
	}

	staging := uuid.NewString()[:8]
	dataTmp := dataPath(dir, gen) + tmpSuffix + "." + staging
	indexTmp := indexPath(dir, gen) + tmpSuffix + "." + staging
	bloomTmp := bloomPath(dir, gen) + tmpSuffix + "." + staging

	dw, err := newDataWriter(dataTmp)
	if err != nil {
		return nil, err
	}

	n := uint(len(items))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, falsePositiveRate)
	index := newSparseIndex()

	var lastKey []byte
	for i, item := range items {
		if lastKey != nil && compareBytes(lastKey, item.Key) >= 0 {
			return nil, fmt.Errorf("%w: memtable items not strictly increasing", ErrInvariantViolation)
		}
		lastKey = item.Key

		offset, err := dw.append(item.Key, item.Entry.Value, item.Entry.Tombstone)
		if err != nil {
			return nil, err
		}
		if i%stride == 0 {
			index.append(item.Key, offset)
		}
		filter.Add(item.Key)
	}

	if err := dw.commit(); err != nil {
		return nil, err
	}
	if err := index.writeFile(indexTmp); err != nil {
		return nil, err
	}
	if err := filter.WriteFile(bloomTmp); err != nil {
		return nil, err
	}

	if err := os.Rename(bloomTmp, bloomPath(dir, gen)); err != nil {
		return nil, fmt.Errorf("committing bloom sidecar for segment %d: %w", gen, err)
	}
	if err := os.Rename(indexTmp, indexPath(dir, gen)); err != nil {
		return nil, fmt.Errorf("committing sparse index for segment %d: %w", gen, err)
	}
	if err := os.Rename(dataTmp, dataPath(dir, gen)); err != nil {
		return nil, fmt.Errorf("committing data file for segment %d: %w", gen, err)
	}

	dataFile, err := os.Open(dataPath(dir, gen))
	if err != nil {
		return nil, fmt.Errorf("reopening committed segment %d: %w", gen, err)
	}

	return &SSTable{gen: gen, dir: dir, dataFile: dataFile, index: index, filter: filter}, nil
}

// Open loads a previously committed segment's sidecars and holds its data
// file open for seeked reads. A missing or malformed sidecar is fatal: the
// segment is marked unusable rather than silently skipped (spec.md §4.6,
// §7).
func Open(dir string, gen int) (*SSTable, error) {
	index, err := loadSparseIndex(indexPath(dir, gen))
	if err != nil {
		return nil, err
	}

	filter, err := bloom.LoadFile(bloomPath(dir, gen))
	if err != nil {
		return nil, err
	}

	dataFile, err := os.Open(dataPath(dir, gen))
	if err != nil {
		return nil, fmt.Errorf("opening segment %d data file: %w", gen, err)
	}

	return &SSTable{gen: gen, dir: dir, dataFile: dataFile, index: index, filter: filter}, nil
}

// Get performs the three-stage lookup of spec.md §4.6: bloom filter gate,
// sparse index binary search, bounded forward scan. tombstone is true when
// the newest record for key in this segment is a deletion marker; the
// caller (LSMTree) decides whether that shadows an older value.
func (s *SSTable) Get(key []byte) (value []byte, found, tombstone bool, err error) {
	if !s.filter.Contains(key) {
		return nil, false, false, nil
	}

	offset := s.index.floor(key)
	return scanFrom(s.dataFile, offset, key)
}

// ReadIter opens a fresh, independent iterator over the whole data file in
// key order (spec.md §4.6 "read_iter"). Callers must Close it.
func (s *SSTable) ReadIter() (*Iterator, error) {
	file, err := os.Open(s.dataFile.Name())
	if err != nil {
		return nil, fmt.Errorf("opening segment %d for iteration: %w", s.gen, err)
	}
	return &Iterator{file: file, rr: recordio.NewReader(file)}, nil
}

// Close releases the segment's open file handle. The files themselves
// remain on disk.
func (s *SSTable) Close() error {
	return s.dataFile.Close()
}

// Remove deletes the segment's three on-disk files, used once a
// replacement segment from compaction has been committed.
func (s *SSTable) Remove() error {
	if err := s.dataFile.Close(); err != nil {
		return fmt.Errorf("closing segment %d before removal: %w", s.gen, err)
	}
	for _, p := range []string{dataPath(s.dir, s.gen), indexPath(s.dir, s.gen), bloomPath(s.dir, s.gen)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
