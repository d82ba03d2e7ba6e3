package lsm

import (
	"fmt"
	"io"

	"github.com/kamishiro/lsmkv/btree"
	"github.com/kamishiro/lsmkv/heap"
	"github.com/kamishiro/lsmkv/sstable"
)

// runCompaction performs the k-way merge of spec.md §4.7: prime a min-heap
// with the head record of every segment's iterator (oldest segment has the
// lowest rank, newest the highest), repeatedly pop the smallest key,
// discard any other heap entries sharing that key (the newest-ranked one
// was already popped first by the comparator's tie-break), and emit the
// kept record unless it is a tombstone.
func runCompaction(dir string, gen int, segments []*sstable.SSTable) (*sstable.SSTable, error) {
	iters := make([]*sstable.Iterator, len(segments))
	for i, seg := range segments {
		it, err := seg.ReadIter()
		if err != nil {
			return nil, fmt.Errorf("opening segment %d for compaction: %w", seg.Generation(), err)
		}
		iters[i] = it
	}
	defer func() {
		for _, it := range iters {
			it.Close()
		}
	}()

	h := heap.New()
	for i, it := range iters {
		if err := pushNext(h, it, i); err != nil {
			return nil, err
		}
	}

	var merged []btree.Item
	for h.Len() > 0 {
		kept, ok := h.Pop()
		if !ok {
			break
		}
		if err := pushNext(h, iters[kept.SegmentIndex], kept.SegmentIndex); err != nil {
			return nil, err
		}

		for {
			next, ok := h.Peek()
			if !ok || string(next.Key) != string(kept.Key) {
				break
			}
			discarded, _ := h.Pop()
			if err := pushNext(h, iters[discarded.SegmentIndex], discarded.SegmentIndex); err != nil {
				return nil, err
			}
		}

		if kept.Tombstone {
			continue
		}
		merged = append(merged, btree.Item{
			Key:   kept.Key,
			Entry: btree.Entry{Value: kept.Value},
		})
	}

	return sstable.FlushFromMemtable(dir, gen, merged, defaultCompactionStride, defaultCompactionFPRate)
}

const (
	defaultCompactionStride = 100
	defaultCompactionFPRate = 0.01
)

// pushNext advances iters[segmentIndex] and pushes its next record into h,
// tagged with its segment's rank (its index — higher means newer). A clean
// end of iteration is not an error.
func pushNext(h *heap.MinHeap, it *sstable.Iterator, segmentIndex int) error {
	rec, err := it.Next()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("reading segment during compaction: %w", err)
	}
	h.Push(heap.Entry{
		Key:          rec.Key,
		Value:        rec.Value,
		Tombstone:    rec.Tombstone,
		SegmentIndex: segmentIndex,
		Rank:         segmentIndex,
	})
	return nil
}
