package sstable

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// sparseEntry is one (key, offset) sample in the sparse index — one per
// sparseIndexStride data-file records (spec.md §4.6).
type sparseEntry struct {
	key    []byte
	offset int64
}

type sparseIndex struct {
	entries []sparseEntry
}

func newSparseIndex() *sparseIndex {
	return &sparseIndex{}
}

func (si *sparseIndex) append(key []byte, offset int64) {
	si.entries = append(si.entries, sparseEntry{key: append([]byte{}, key...), offset: offset})
}

// floor returns the byte offset to start scanning from for target: the
// offset of the greatest indexed key <= target, or the start of the file
// if target precedes every indexed key.
func (si *sparseIndex) floor(target []byte) int64 {
	i := sort.Search(len(si.entries), func(i int) bool {
		return bytes.Compare(si.entries[i].key, target) > 0
	})
	if i == 0 {
		return 0
	}
	return si.entries[i-1].offset
}

func (si *sparseIndex) writeFile(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating sparse index %s: %w", path, err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	for _, e := range si.entries {
		var hdr [12]byte
		binary.BigEndian.PutUint32(hdr[0:4], uint32(len(e.key)))
		binary.BigEndian.PutUint64(hdr[4:12], uint64(e.offset))
		if _, err := bw.Write(hdr[:]); err != nil {
			return fmt.Errorf("writing sparse index %s: %w", path, err)
		}
		if _, err := bw.Write(e.key); err != nil {
			return fmt.Errorf("writing sparse index %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing sparse index %s: %w", path, err)
	}
	return file.Sync()
}

func loadSparseIndex(path string) (*sparseIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sparse index %s: %w", path, err)
	}
	defer file.Close()

	si := newSparseIndex()
	br := bufio.NewReader(file)
	var lastKey []byte
	for {
		var hdr [12]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: sparse index %s: %v", ErrCorrupt, path, err)
		}
		klen := binary.BigEndian.Uint32(hdr[0:4])
		offset := int64(binary.BigEndian.Uint64(hdr[4:12]))

		key := make([]byte, klen)
		if _, err := io.ReadFull(br, key); err != nil {
			return nil, fmt.Errorf("%w: sparse index %s: %v", ErrCorrupt, path, err)
		}

		if lastKey != nil && bytes.Compare(lastKey, key) >= 0 {
			return nil, fmt.Errorf("%w: sparse index %s: non-increasing keys", ErrInvariantViolation, path)
		}
		if offset < 0 {
			return nil, fmt.Errorf("%w: sparse index %s: negative offset", ErrCorrupt, path)
		}
		lastKey = key

		si.entries = append(si.entries, sparseEntry{key: key, offset: offset})
	}

	return si, nil
}
