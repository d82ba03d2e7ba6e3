package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"DefaultValidates":            test_DefaultValidates,
		"LoadOverlaysOnDefault":       test_LoadOverlaysOnDefault,
		"ValidateRejectsBadEngineType": test_ValidateRejectsBadEngineType,
		"ValidateRejectsMissingDirectory": test_ValidateRejectsMissingDirectory,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_DefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func test_LoadOverlaysOnDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine_type: lsmtree\ndirectory: /tmp/kv\nmemtable_threshold: 500\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "lsmtree", opts.EngineType)
	require.Equal(t, "/tmp/kv", opts.Directory)
	require.Equal(t, uint64(500), opts.MemtableThreshold)
	require.Equal(t, 3, opts.BTreeMinDegree)
}

func test_ValidateRejectsBadEngineType(t *testing.T) {
	opts := Default()
	opts.EngineType = "not-a-real-engine"
	require.Error(t, opts.Validate())
}

func test_ValidateRejectsMissingDirectory(t *testing.T) {
	opts := Default()
	opts.Directory = ""
	require.Error(t, opts.Validate())
}
