package sstable

import "errors"

var (
	// ErrCorrupt marks a segment whose data file or a sidecar failed a
	// length/format check. Fatal: the engine refuses to open the segment.
	ErrCorrupt = errors.New("sstable: corrupt segment")
	// ErrInvariantViolation marks an internal assertion failure, such as a
	// non-increasing key sequence where the format guarantees one.
	ErrInvariantViolation = errors.New("sstable: invariant violation")
)
