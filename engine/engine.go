// Package engine defines the StorageEngine contract both backends satisfy
// (spec.md §4.8, §6) and the errors common to both.
package engine

import "errors"

// StorageEngine is the capability set {put, get, delete, close} both
// backends satisfy. FuzzyGet is declared here too; implementations that
// don't support it return ErrCapabilityUnsupported.
type StorageEngine interface {
	Put(key, value []byte) error
	Get(key []byte) (value []byte, found bool, err error)
	Delete(key []byte) error
	FuzzyGet(searchKey []byte, maxDistance int) ([]KV, error)
	Close() error
}

// KV is one (key, value) pair returned by FuzzyGet.
type KV struct {
	Key   []byte
	Value []byte
}

var (
	// ErrCapabilityUnsupported is returned by FuzzyGet on engines that
	// don't implement fuzzy search (the B-Tree engine, spec.md §4.8).
	ErrCapabilityUnsupported = errors.New("engine: capability unsupported")
	// ErrCorruption marks a fatal, unrecoverable on-disk format failure.
	ErrCorruption = errors.New("engine: corruption")
	// ErrInvariantViolation marks an internal assertion failure.
	ErrInvariantViolation = errors.New("engine: invariant violation")
)
