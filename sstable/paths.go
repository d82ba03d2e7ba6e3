package sstable

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	dataSuffix  = ".data"
	indexSuffix = ".index"
	bloomSuffix = ".bloom"
	tmpSuffix   = ".tmp"
	stemPrefix  = "segment-"
)

func stem(dir string, gen int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d", stemPrefix, gen))
}

func dataPath(dir string, gen int) string  { return stem(dir, gen) + dataSuffix }
func indexPath(dir string, gen int) string { return stem(dir, gen) + indexSuffix }
func bloomPath(dir string, gen int) string { return stem(dir, gen) + bloomSuffix }

// ListGenerations scans dir for committed segment data files and returns
// their generation numbers sorted ascending (oldest first), the order
// spec.md §4.7 construction requires. Temporary (.tmp) files are ignored.
func ListGenerations(dir string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, stemPrefix+"*"+dataSuffix))
	if err != nil {
		return nil, fmt.Errorf("listing segments in %s: %w", dir, err)
	}

	gens := make([]int, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		trimmed := strings.TrimSuffix(strings.TrimPrefix(base, stemPrefix), dataSuffix)
		gen, err := strconv.Atoi(trimmed)
		if err != nil {
			continue
		}
		gens = append(gens, gen)
	}
	sort.Ints(gens)
	return gens, nil
}
