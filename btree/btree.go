// Package btree implements a classical B-Tree keyed by raw byte slices
// (spec.md §4.4). It is dual-purpose: the durable standalone engine pairs
// it with a WAL (see package wal and package engine), and the LSM engine
// uses it directly as the memtable.
package btree

import "bytes"

// BTree is a B-Tree of minimum degree t: every non-root node holds between
// t-1 and 2t-1 keys, and no duplicate key ever exists in the tree.
type BTree struct {
	root *node
	t    int
	size int
}

// New returns an empty B-Tree with the given minimum degree. t must be >= 2.
func New(t int) *BTree {
	return &BTree{
		root: newNode(true),
		t:    t,
	}
}

// Size returns the number of keys in the tree (live entries and tombstones both
// count — a tombstone still occupies a slot until compaction removes it).
func (bt *BTree) Size() int {
	return bt.size
}

// Search descends from the root looking for key.
func (bt *BTree) Search(key []byte) (Entry, bool) {
	return search(bt.root, key)
}

func search(x *node, key []byte) (Entry, bool) {
	i := 0
	for i < len(x.keys) && bytes.Compare(key, x.keys[i]) > 0 {
		i++
	}
	if i < len(x.keys) && bytes.Equal(key, x.keys[i]) {
		return x.values[i], true
	}
	if x.leaf {
		return Entry{}, false
	}
	return search(x.children[i], key)
}

// Insert stores entry under key, updating it in place if key already
// exists. Root-splitting happens top-down before descending into a full
// child, per spec.md §4.4.
func (bt *BTree) Insert(key []byte, entry Entry) {
	if bt.update(bt.root, key, entry) {
		return
	}

	root := bt.root
	if len(root.keys) == 2*bt.t-1 {
		newRoot := newNode(false)
		newRoot.children = append(newRoot.children, root)
		bt.root = newRoot
		bt.splitChild(newRoot, 0)
		bt.insertNonFull(newRoot, key, entry)
	} else {
		bt.insertNonFull(root, key, entry)
	}
	bt.size++
}

// Put stores a live value under key. Convenience wrapper over Insert.
func (bt *BTree) Put(key, value []byte) {
	bt.Insert(key, Entry{Value: value})
}

// Delete inserts a tombstone for key, the B-Tree engine's deletion
// mechanism (spec.md §4.4: "Delete key-value pair by inserting a
// tombstone").
func (bt *BTree) Delete(key []byte) {
	bt.Insert(key, Entry{Tombstone: true})
}

func (bt *BTree) update(x *node, key []byte, entry Entry) bool {
	i := 0
	for i < len(x.keys) && bytes.Compare(key, x.keys[i]) > 0 {
		i++
	}
	if i < len(x.keys) && bytes.Equal(key, x.keys[i]) {
		x.values[i] = entry
		return true
	}
	if x.leaf {
		return false
	}
	return bt.update(x.children[i], key, entry)
}

func (bt *BTree) insertNonFull(x *node, key []byte, entry Entry) {
	i := len(x.keys) - 1
	if x.leaf {
		x.keys = append(x.keys, nil)
		x.values = append(x.values, Entry{})
		for i >= 0 && bytes.Compare(key, x.keys[i]) < 0 {
			x.keys[i+1] = x.keys[i]
			x.values[i+1] = x.values[i]
			i--
		}
		x.keys[i+1] = key
		x.values[i+1] = entry
		return
	}

	for i >= 0 && bytes.Compare(key, x.keys[i]) < 0 {
		i--
	}
	i++
	if len(x.children[i].keys) == 2*bt.t-1 {
		bt.splitChild(x, i)
		if bytes.Compare(key, x.keys[i]) > 0 {
			i++
		}
	}
	bt.insertNonFull(x.children[i], key, entry)
}

// splitChild splits the full child at index i of x into two nodes, moving
// the median key up into x.
func (bt *BTree) splitChild(x *node, i int) {
	t := bt.t
	y := x.children[i]
	z := newNode(y.leaf)

	x.children = insertChild(x.children, i+1, z)
	x.keys = insertKey(x.keys, i, y.keys[t-1])
	x.values = insertValue(x.values, i, y.values[t-1])

	z.keys = append([][]byte{}, y.keys[t:2*t-1]...)
	z.values = append([]Entry{}, y.values[t:2*t-1]...)
	y.keys = y.keys[:t-1]
	y.values = y.values[:t-1]

	if !y.leaf {
		z.children = append([]*node{}, y.children[t:2*t]...)
		y.children = y.children[:t]
	}
}

func insertChild(s []*node, i int, v *node) []*node {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertKey(s [][]byte, i int, v []byte) [][]byte {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertValue(s []Entry, i int, v Entry) []Entry {
	s = append(s, Entry{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Items returns every (key, entry) pair in strict ascending key order, the
// sorted iterator the memtable flush path consumes (spec.md §4.4, §4.7).
func (bt *BTree) Items() []Item {
	items := make([]Item, 0, bt.size)
	return appendItems(items, bt.root)
}

func appendItems(items []Item, x *node) []Item {
	if x.leaf {
		for i, k := range x.keys {
			items = append(items, Item{Key: k, Entry: x.values[i]})
		}
		return items
	}
	for i, k := range x.keys {
		items = appendItems(items, x.children[i])
		items = append(items, Item{Key: k, Entry: x.values[i]})
	}
	return appendItems(items, x.children[len(x.keys)])
}
