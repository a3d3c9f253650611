// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultSetsExpectedValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, "./datadir", cfg.DataDir)
	require.Equal(t, 32525, cfg.StratumPort)
	require.Equal(t, uint64(200_000), cfg.Capacity)
	require.Equal(t, uint64(50000), cfg.EraEpochCount)
	require.True(t, cfg.EnableOptimisticExecution)
	require.False(t, cfg.EnableStateExpose)
	require.Equal(t, 30*time.Second, cfg.MaxFutureDrift)
}

func TestLoadTOMLOverridesOnlySpecifiedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mazze.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/mazze"
stratum_port = 40000
`), 0o644))

	cfg, err := LoadTOML(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/mazze", cfg.DataDir)
	require.Equal(t, 40000, cfg.StratumPort)
	// Untouched fields keep Default()'s values.
	require.Equal(t, uint64(200_000), cfg.Capacity)
	require.Equal(t, 30*time.Second, cfg.MaxFutureDrift)
}

func TestLoadTOMLMissingFileErrors(t *testing.T) {
	_, err := LoadTOML(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestLoadTOMLRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not == valid [[ toml"), 0o644))

	_, err := LoadTOML(path)
	require.Error(t, err)
}
