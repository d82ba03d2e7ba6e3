// Package lsm implements the LSM-Tree orchestrator of spec.md §4.7: the
// memtable, the ordered segment list, flush policy, compaction, and fuzzy
// search.
package lsm

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kamishiro/lsmkv/levenshtein"
	"github.com/kamishiro/lsmkv/memtable"
	"github.com/kamishiro/lsmkv/sstable"
	"github.com/kamishiro/lsmkv/wal"
)

// Options configures an LSMTree. Open uses the values as given and applies
// no defaults of its own; package db fills them from config.Options, whose
// defaults come from config.Default (spec.md §6).
type Options struct {
	MinDegree              int
	MemtableThreshold      uint64
	SparseIndexStride      int
	BloomFalsePositiveRate float64
	MemtableWALEnabled     bool

	// OnFlush and OnCompact, when set, are called after a flush or
	// compaction completes, so a caller (package db) can feed its metrics
	// registry without this package depending on it.
	OnFlush   func(memtableEntries, segments int)
	OnCompact func(duration time.Duration, segments int)
}

const memtableWALFileName = "memtable.wal"

// LSMTree owns the memtable, the ordered segment list (oldest to newest),
// and the optional memtable WAL.
type LSMTree struct {
	mu       sync.Mutex
	dir      string
	opts     Options
	memtable *memtable.MemTable
	segments []*sstable.SSTable
	nextGen  int
	log      *wal.WAL
	logger   *slog.Logger
}

// memtableApplier adapts memtable.MemTable's Put/Del to wal.Applier.
type memtableApplier struct {
	mt *memtable.MemTable
}

func (a memtableApplier) Put(key, value []byte) { a.mt.Put(key, value) }
func (a memtableApplier) Del(key []byte)        { a.mt.Del(key) }

// Open creates dir if absent, enumerates existing segments oldest-to-newest
// (spec.md §4.7 construction), opens each, and starts an empty memtable —
// replayed from the memtable WAL if one exists and is enabled.
func Open(dir string, opts Options, logger *slog.Logger) (*LSMTree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating LSM directory %s: %w", dir, err)
	}

	gens, err := sstable.ListGenerations(dir)
	if err != nil {
		return nil, err
	}

	segments := make([]*sstable.SSTable, 0, len(gens))
	for _, gen := range gens {
		sst, err := sstable.Open(dir, gen)
		if err != nil {
			return nil, err
		}
		segments = append(segments, sst)
	}

	nextGen := 0
	if len(gens) > 0 {
		nextGen = gens[len(gens)-1] + 1
	}

	mt := memtable.New(opts.MinDegree)

	var logFile *wal.WAL
	if opts.MemtableWALEnabled {
		path := filepath.Join(dir, memtableWALFileName)
		if err := wal.Replay(path, memtableApplier{mt: mt}); err != nil {
			return nil, fmt.Errorf("replaying memtable WAL %s: %w", path, err)
		}
		logFile, err = wal.Open(path)
		if err != nil {
			return nil, err
		}
	}

	return &LSMTree{
		dir:      dir,
		opts:     opts,
		memtable: mt,
		segments: segments,
		nextGen:  nextGen,
		log:      logFile,
		logger:   logger,
	}, nil
}

// Put appends the write to the memtable WAL (when enabled), then inserts
// (key, value) into the memtable. Flush is triggered once the memtable's
// entry count reaches the configured threshold (spec.md §4.7).
func (t *LSMTree) Put(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.appendWAL(wal.Record{Op: wal.OpPut, Key: key, Value: value}); err != nil {
		return err
	}
	t.memtable.Put(key, value)
	t.logger.Debug("put", "key", string(key))
	return t.maybeFlushLocked()
}

// Delete is a write of a tombstone; it never probes segments (spec.md
// §4.7).
func (t *LSMTree) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.appendWAL(wal.Record{Op: wal.OpDelete, Key: key}); err != nil {
		return err
	}
	t.memtable.Del(key)
	t.logger.Debug("delete", "key", string(key))
	return t.maybeFlushLocked()
}

func (t *LSMTree) appendWAL(rec wal.Record) error {
	if t.log == nil {
		return nil
	}
	return t.log.Append(rec)
}

func (t *LSMTree) maybeFlushLocked() error {
	if uint64(t.memtable.Count()) < t.opts.MemtableThreshold {
		return nil
	}
	return t.flushLocked()
}

// Get probes the memtable, then walks segments newest to oldest, each
// gated by its bloom filter (spec.md §4.7 read path).
func (t *LSMTree) Get(key []byte) (value []byte, found bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if value, found, tombstone := t.memtable.Get(key); found {
		if tombstone {
			return nil, false, nil
		}
		return value, true, nil
	}

	for i := len(t.segments) - 1; i >= 0; i-- {
		value, found, tombstone, err := t.segments[i].Get(key)
		if err != nil {
			return nil, false, err
		}
		if !found {
			continue
		}
		if tombstone {
			return nil, false, nil
		}
		return value, true, nil
	}

	return nil, false, nil
}

// FuzzyGet walks the memtable then every segment newest to oldest,
// recording the first (i.e. newest) observation of each key whose distance
// to searchKey is within maxDistance, then drops tombstoned results
// (spec.md §4.7 fuzzy_get).
func (t *LSMTree) FuzzyGet(searchKey []byte, maxDistance int) ([]KV, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{})
	var results []KV

	considerItem := func(key, value []byte, tombstone bool) error {
		k := string(key)
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}
		if levenshtein.Distance(searchKey, key) > maxDistance {
			return nil
		}
		if tombstone {
			return nil
		}
		results = append(results, KV{Key: key, Value: value})
		return nil
	}

	for _, item := range t.memtable.Items() {
		if err := considerItem(item.Key, item.Entry.Value, item.Entry.Tombstone); err != nil {
			return nil, err
		}
	}

	for i := len(t.segments) - 1; i >= 0; i-- {
		it, err := t.segments[i].ReadIter()
		if err != nil {
			return nil, err
		}
		for {
			rec, err := it.Next()
			if err != nil {
				break
			}
			if err := considerItem(rec.Key, rec.Value, rec.Tombstone); err != nil {
				it.Close()
				return nil, err
			}
		}
		it.Close()
	}

	return results, nil
}

// KV is one (key, value) pair returned by FuzzyGet.
type KV struct {
	Key   []byte
	Value []byte
}

// flushLocked writes the memtable's contents as a new segment, appends it
// to the segment list, and replaces the memtable with an empty one. Caller
// must hold t.mu.
func (t *LSMTree) flushLocked() error {
	items := t.memtable.Items()
	if len(items) == 0 {
		return nil
	}

	gen := t.nextGen
	sst, err := sstable.FlushFromMemtable(t.dir, gen, items, t.opts.SparseIndexStride, t.opts.BloomFalsePositiveRate)
	if err != nil {
		return fmt.Errorf("flushing memtable to segment %d: %w", gen, err)
	}

	t.segments = append(t.segments, sst)
	t.nextGen++
	t.memtable = memtable.New(t.opts.MinDegree)
	if t.log != nil {
		if err := t.log.Reset(); err != nil {
			return err
		}
	}
	t.logger.Debug("flushed memtable", "segment", gen, "entries", len(items))
	if t.opts.OnFlush != nil {
		t.opts.OnFlush(len(items), len(t.segments))
	}
	return nil
}

// Close flushes a non-empty memtable, then releases every segment's file
// handle (spec.md §4.7 close).
func (t *LSMTree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.flushLocked(); err != nil {
		return err
	}
	for _, sst := range t.segments {
		if err := sst.Close(); err != nil {
			return err
		}
	}
	if t.log != nil {
		return t.log.Close()
	}
	return nil
}

// Compact merges every current segment into one, via package-level
// runCompaction (see compaction.go).
func (t *LSMTree) Compact() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.segments) < 2 {
		return nil
	}

	start := time.Now()
	merged, err := runCompaction(t.dir, t.nextGen, t.segments)
	if err != nil {
		return err
	}

	old := t.segments
	t.segments = []*sstable.SSTable{merged}
	t.nextGen++

	for _, sst := range old {
		if err := sst.Remove(); err != nil {
			return err
		}
	}
	t.logger.Debug("compacted", "segments", len(old), "into", merged.Generation())
	if t.opts.OnCompact != nil {
		t.opts.OnCompact(time.Since(start), len(t.segments))
	}
	return nil
}
