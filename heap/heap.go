// Package heap provides the k-way merge priority queue compaction drives
// (spec.md §4.3), backed by github.com/emirpasic/gods' binary heap — the
// same ecosystem dependency the teacher pulled in for its memtable, kept
// alive here for the concern it actually fits.
package heap

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// Entry is one in-flight record during a k-way segment merge: the record's
// key, which segment it came from, and that segment's recency rank (higher
// rank = newer). Ties on Key are broken by Rank so the newer segment's
// record surfaces first out of the heap.
type Entry struct {
	Key          []byte
	Value        []byte
	Tombstone    bool
	SegmentIndex int
	Rank         int
}

// MinHeap orders Entry values by Key ascending, then by Rank descending on
// a tie (spec.md §4.3: "newer segment wins").
type MinHeap struct {
	inner *binaryheap.Heap
}

// New returns an empty heap.
func New() *MinHeap {
	return &MinHeap{inner: binaryheap.NewWith(compare)}
}

func compare(a, b interface{}) int {
	ea, eb := a.(Entry), b.(Entry)
	switch {
	case string(ea.Key) < string(eb.Key):
		return -1
	case string(ea.Key) > string(eb.Key):
		return 1
	case ea.Rank > eb.Rank:
		return -1
	case ea.Rank < eb.Rank:
		return 1
	default:
		return 0
	}
}

// Push inserts an entry.
func (h *MinHeap) Push(e Entry) {
	h.inner.Push(e)
}

// Pop removes and returns the minimum entry. The second return is false if
// the heap is empty.
func (h *MinHeap) Pop() (Entry, bool) {
	v, ok := h.inner.Pop()
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Peek returns the minimum entry without removing it.
func (h *MinHeap) Peek() (Entry, bool) {
	v, ok := h.inner.Peek()
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Len returns the number of entries currently queued.
func (h *MinHeap) Len() int {
	return h.inner.Size()
}
