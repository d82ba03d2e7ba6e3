package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kamishiro/lsmkv/btree"
	"github.com/kamishiro/lsmkv/internal/recordio"
)

const snapshotFileName = "snapshot"

// writeSnapshot persists every item in tree, tombstones included, to
// dir/snapshot via the
// usual tmp-then-rename discipline, so a crash mid-write never clobbers the
// previous snapshot (spec.md §4.4 "close persists a snapshot").
func writeSnapshot(dir string, tree *btree.BTree) error {
	path := snapshotPath(dir)
	tmp := path + ".tmp." + uuid.NewString()[:8]

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", tmp, err)
	}

	bw := bufio.NewWriter(file)
	for _, item := range tree.Items() {
		if _, err := recordio.Encode(bw, item.Key, item.Entry.Value, item.Entry.Tombstone); err != nil {
			file.Close()
			return fmt.Errorf("writing snapshot %s: %w", tmp, err)
		}
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flushing snapshot %s: %w", tmp, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("syncing snapshot %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing snapshot %s: %w", path, err)
	}
	return nil
}

// loadSnapshot replays dir/snapshot into tree, if present. A missing
// snapshot (first-ever open) is not an error.
func loadSnapshot(dir string, tree *btree.BTree) error {
	path := snapshotPath(dir)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer file.Close()

	rr := recordio.NewReader(file)
	for {
		key, value, tombstone, err := rr.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%w: reading snapshot %s: %v", ErrCorruption, path, err)
		}
		if tombstone {
			tree.Delete(key)
		} else {
			tree.Put(key, value)
		}
	}
}

func snapshotPath(dir string) string {
	return filepath.Join(dir, snapshotFileName)
}
