// Package memtable is the mutable, in-memory front end of an LSM tree: a
// sorted buffer of recent writes that is flushed to an immutable sstable
// segment once it crosses a size threshold (spec.md §4.5).
package memtable

import (
	"sync"

	"github.com/kamishiro/lsmkv/btree"
)

// MemTable guards a btree.BTree with a read-write lock and tracks the
// approximate byte size of its live (non-tombstone) entries. The LSM tree
// decides when to flush from Count, not from this byte size.
type MemTable struct {
	mu   sync.RWMutex
	tree *btree.BTree
	size uint64
}

// New creates an empty memtable whose backing B-Tree uses the given
// minimum degree.
func New(minDegree int) *MemTable {
	return &MemTable{tree: btree.New(minDegree)}
}

// Clear discards all entries, returning the memtable to empty.
func (mt *MemTable) Clear(minDegree int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.tree = btree.New(minDegree)
	mt.size = 0
}

// Put inserts or overwrites key's value.
func (mt *MemTable) Put(key, value []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.adjustSize(key, value, false)
	mt.tree.Put(key, value)
}

// Get looks up key. found is false if the memtable has no entry for key at
// all; tombstone is true if the newest entry for key is a deletion marker.
func (mt *MemTable) Get(key []byte) (value []byte, found, tombstone bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	entry, found := mt.tree.Search(key)
	if !found {
		return nil, false, false
	}
	return entry.Value, true, entry.Tombstone
}

// Del records a tombstone for key, shadowing any earlier value without
// removing the key from the tree.
func (mt *MemTable) Del(key []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.adjustSize(key, nil, true)
	mt.tree.Delete(key)
}

// adjustSize must be called with mt.mu held for writing, before the
// mutation it accounts for.
func (mt *MemTable) adjustSize(key, value []byte, tombstone bool) {
	entry, existed := mt.tree.Search(key)
	if existed && !entry.Tombstone {
		mt.size -= uint64(len(entry.Value))
	}
	if !tombstone {
		mt.size += uint64(len(value))
	}
}

// Size returns the approximate number of live value bytes held in memory.
// The flush threshold is compared against Count, not against this figure.
func (mt *MemTable) Size() uint64 {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	return mt.size
}

// Count returns the number of distinct keys, including tombstoned ones.
func (mt *MemTable) Count() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	return mt.tree.Size()
}

// Items returns every entry in ascending key order, the form sstable.
// FlushFromMemtable expects when writing a new segment.
func (mt *MemTable) Items() []btree.Item {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	return mt.tree.Items()
}
