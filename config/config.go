// Package config loads and validates engine construction options (spec.md
// §6), the way dd0wney-graphdb layers gopkg.in/yaml.v3 for parsing with
// go-playground/validator/v10 for constraint checking.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Options is the recognized configuration surface of spec.md §6.
type Options struct {
	EngineType             string  `yaml:"engine_type" validate:"required,oneof=btree lsmtree"`
	Directory              string  `yaml:"directory" validate:"required"`
	MemtableThreshold      uint64  `yaml:"memtable_threshold" validate:"omitempty,min=1"`
	BTreeMinDegree         int     `yaml:"btree_min_degree" validate:"omitempty,min=2"`
	BloomFalsePositiveRate float64 `yaml:"bloom_false_positive_rate" validate:"omitempty,gt=0,lt=1"`
	SparseIndexStride      int     `yaml:"sparse_index_stride" validate:"omitempty,min=1"`
	MemtableWALEnabled     bool    `yaml:"memtable_wal_enabled"`
}

var validate = validator.New()

// Default returns the recognized defaults of spec.md §6.
func Default() Options {
	return Options{
		EngineType:             "btree",
		Directory:              "data_dir",
		MemtableThreshold:      1000,
		BTreeMinDegree:         3,
		BloomFalsePositiveRate: 0.01,
		SparseIndexStride:      100,
		MemtableWALEnabled:     false,
	}
}

// Load reads a YAML config file at path, overlaying it on Default and
// validating the result.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks o against the struct tags above, formatting the first
// violation the way dd0wney-graphdb/pkg/validation/validator.go does.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		first := validationErrs[0]
		return fmt.Errorf("%s: failed %q constraint", first.Field(), first.Tag())
	}
	return nil
}
