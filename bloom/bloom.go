// Package bloom implements the space-efficient probabilistic membership
// filter every SSTable carries as a sidecar: no false negatives, tunable
// false-positive rate.
package bloom

import (
	"fmt"
	"os"

	bbloom "github.com/bits-and-blooms/bloom"
)

// Filter wraps bits-and-blooms/bloom, which already implements the
// size/hash-count bit array and double-hashing derivation spec.md §4.1
// describes, and whose WriteTo/ReadFrom already serialize (m, k, bit array)
// as one self-describing blob.
type Filter struct {
	inner *bbloom.BloomFilter
}

// NewWithEstimates sizes a filter for n expected entries at the given
// target false-positive rate.
func NewWithEstimates(n uint, falsePositiveRate float64) *Filter {
	return &Filter{inner: bbloom.NewWithEstimates(n, falsePositiveRate)}
}

// Add records key as a member.
func (f *Filter) Add(key []byte) {
	f.inner.Add(key)
}

// Contains reports whether key is possibly present. false is a definite
// answer; true may be a false positive.
func (f *Filter) Contains(key []byte) bool {
	return f.inner.Test(key)
}

// WriteFile serializes the filter to path, fsyncing before returning so a
// crash never observes a partially written sidecar.
func (f *Filter) WriteFile(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening bloom sidecar %s: %w", path, err)
	}
	defer file.Close()

	if _, err := f.inner.WriteTo(file); err != nil {
		return fmt.Errorf("writing bloom sidecar %s: %w", path, err)
	}
	return file.Sync()
}

// LoadFile rehydrates a filter previously written with WriteFile. A
// malformed sidecar is a CorruptionError per spec.md §7: the caller must
// refuse to open the segment rather than treat the filter as absent.
func LoadFile(path string) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bloom sidecar %s: %w", path, err)
	}
	defer file.Close()

	inner := &bbloom.BloomFilter{}
	if _, err := inner.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("%w: bloom sidecar %s: %v", ErrCorrupt, path, err)
	}
	return &Filter{inner: inner}, nil
}
