// Package db is the facade of spec.md §4.8: construction selects a backend
// by engine_type and dispatches every operation to it.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kamishiro/lsmkv/config"
	"github.com/kamishiro/lsmkv/engine"
	"github.com/kamishiro/lsmkv/metrics"
)

// ErrUnrecognizedEngineType is returned by Open for an engine_type outside
// {btree, lsmtree}.
var ErrUnrecognizedEngineType = errors.New("db: unrecognized engine_type")

// DB dispatches put/get/delete/fuzzy_get/close to the engine selected at
// construction time.
type DB struct {
	backend engine.StorageEngine
	metrics *metrics.Registry
}

// Open selects and opens the backend named by opts.EngineType.
func Open(opts config.Options, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := metrics.NewRegistry()

	switch opts.EngineType {
	case "btree":
		e, err := engine.OpenBTreeEngine(opts.Directory, opts.BTreeMinDegree, logger)
		if err != nil {
			return nil, err
		}
		return &DB{backend: e, metrics: reg}, nil
	case "lsmtree":
		e, err := newLSMAdapter(opts, logger, reg)
		if err != nil {
			return nil, err
		}
		return &DB{backend: e, metrics: reg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEngineType, opts.EngineType)
	}
}

// Put stores value under key.
func (d *DB) Put(key, value []byte) error {
	start := time.Now()
	err := d.backend.Put(key, value)
	d.metrics.RecordOperation("put", statusOf(err), time.Since(start))
	return err
}

// Get returns the live value for key, or found=false if absent.
func (d *DB) Get(key []byte) ([]byte, bool, error) {
	start := time.Now()
	value, found, err := d.backend.Get(key)
	d.metrics.RecordOperation("get", statusOf(err), time.Since(start))
	return value, found, err
}

// Delete tombstones key.
func (d *DB) Delete(key []byte) error {
	start := time.Now()
	err := d.backend.Delete(key)
	d.metrics.RecordOperation("delete", statusOf(err), time.Since(start))
	return err
}

// FuzzyGet delegates to the backend's fuzzy search, which returns
// engine.ErrCapabilityUnsupported on the B-Tree engine.
func (d *DB) FuzzyGet(searchKey []byte, maxDistance int) ([]engine.KV, error) {
	start := time.Now()
	results, err := d.backend.FuzzyGet(searchKey, maxDistance)
	d.metrics.RecordOperation("fuzzy_get", statusOf(err), time.Since(start))
	if err == nil {
		d.metrics.RecordFuzzyGet(len(results))
	}
	return results, err
}

// Close releases the backend's resources.
func (d *DB) Close() error {
	return d.backend.Close()
}

// Metrics exposes the DB's metrics registry for scraping.
func (d *DB) Metrics() *metrics.Registry {
	return d.metrics
}

// compactor is implemented by backends that support explicit compaction
// (the LSM engine; the B-Tree engine has no segments to merge).
type compactor interface {
	Compact() error
}

// Compact triggers the backend's compaction, if it supports one.
func (d *DB) Compact() error {
	c, ok := d.backend.(compactor)
	if !ok {
		return engine.ErrCapabilityUnsupported
	}
	return c.Compact()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
