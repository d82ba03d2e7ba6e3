// Package wal implements the append-only write-ahead log both the B-Tree
// engine and (optionally) the LSM memtable use for crash recovery
// (spec.md §4.5). Each record is a 1-byte op tag followed by the shared
// length-prefixed key/value encoding from package recordio; values are
// snappy-compressed on disk, the way dd0wney-graphdb's compressed WAL
// does it.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/golang/snappy"

	"github.com/kamishiro/lsmkv/internal/recordio"
)

// Op identifies the mutation a WAL record replays.
type Op uint8

const (
	// OpDelete tombstones a key.
	OpDelete Op = iota
	// OpPut stores a value under a key.
	OpPut
)

// Record is one WAL entry.
type Record struct {
	Op    Op
	Key   []byte
	Value []byte
}

// Applier receives replayed records. Both btree.BTree (via a thin adapter)
// and memtable.MemTable implement it.
type Applier interface {
	Put(key, value []byte)
	Del(key []byte)
}

// WAL is an append-only, fsync-on-write log of Put/Delete operations.
type WAL struct {
	mu   sync.Mutex
	file *os.File
	path string
	size int64
}

// Open opens or creates the log file at path.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening WAL %s: %w", path, err)
	}

	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat WAL %s: %w", path, err)
	}

	return &WAL{file: file, path: path, size: fi.Size()}, nil
}

// Append writes one record and fsyncs before returning — the durability
// point spec.md §5 requires: a put/delete is durable once this call
// succeeds.
func (w *WAL) Append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	bw := bufio.NewWriter(w.file)

	if err := bw.WriteByte(byte(rec.Op)); err != nil {
		return fmt.Errorf("appending WAL record: %w", err)
	}

	value := rec.Value
	tombstone := rec.Op == OpDelete
	if !tombstone {
		value = snappy.Encode(nil, rec.Value)
	}

	n, err := recordio.Encode(bw, rec.Key, value, tombstone)
	if err != nil {
		return fmt.Errorf("appending WAL record: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing WAL %s: %w", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("syncing WAL %s: %w", w.path, err)
	}

	w.size += int64(n) + 1
	return nil
}

// Size returns the current log size in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Replay reads every record from the start of the log and applies it to
// dst in order. A single trailing truncated record is tolerated (treated
// as absent, per spec.md §4.5); any other corruption is fatal.
func Replay(path string, dst Applier) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening WAL %s for replay: %w", path, err)
	}
	defer file.Close()

	rr := recordio.NewReader(file)
	for {
		opByte, err := rr.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("replaying WAL %s: %w", path, err)
		}

		key, value, tombstone, err := rr.Next()
		if err != nil {
			if err == io.EOF || errors.Is(err, recordio.ErrTruncated) {
				// A trailing partial record: benign, stop here.
				return nil
			}
			return fmt.Errorf("replaying WAL %s: %w", path, err)
		}

		switch Op(opByte) {
		case OpPut:
			decoded, err := snappy.Decode(nil, value)
			if err != nil {
				return fmt.Errorf("decompressing WAL %s record: %w", path, err)
			}
			dst.Put(key, decoded)
		case OpDelete:
			_ = tombstone
			dst.Del(key)
		default:
			return fmt.Errorf("replaying WAL %s: unknown op tag %d", path, opByte)
		}
	}
}

// Reset truncates the log to empty after its contents have been durably
// persisted elsewhere (a B-Tree snapshot, a flushed SSTable) — mirrors
// original_source/wal.py's clear(), adopted per SPEC_FULL.md §4.
func (w *WAL) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncating WAL %s: %w", w.path, err)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding WAL %s: %w", w.path, err)
	}
	w.size = 0
	return nil
}

// Close syncs and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("syncing WAL %s: %w", w.path, err)
	}
	return w.file.Close()
}
