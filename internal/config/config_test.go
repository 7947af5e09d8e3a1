// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIterations(t *testing.T) {
	for in, want := range map[string]uint64{
		"10M":  10_000_000,
		"10m":  10_000_000,
		"500M": 500_000_000,
		"1.5k": 1_500,
		"2K":   2_000,
		"1G":   1_000_000_000,
		"42":   42,
		" 0 ":  0,
		// above 2^53, where a float64 would round
		"9007199254740993":     9007199254740993,
		"12345678901234567":    12345678901234567,
		"18446744073709551614": 18446744073709551614,
		"18446744073709551615": 18446744073709551615,
	} {
		got, err := ParseIterations(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "ten", "-5", "1.5", "10MH", "1e30G", "18446744073709551616", "+-1"} {
		_, err := ParseIterations(in)
		assert.Error(t, err, in)
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"MH": UnitMH, "mb": UnitMB, "MIB": UnitMiB, "Cpb": UnitCPB} {
		got, err := ParseUnit(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseUnit("GB")
	assert.ErrorIs(t, err, ErrUnit)

	assert.Equal(t, "MiB/s", UnitMiB.String())
	assert.Equal(t, "cpb", UnitCPB.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 3.59, NormalizeGHz(3.599))
	assert.Equal(t, 0.1, NormalizeGHz(0.1))
	assert.Zero(t, NormalizeGHz(0.09))
	assert.Zero(t, NormalizeGHz(1000))

	assert.Equal(t, 1, NormalizeThreads(0))
	assert.Equal(t, 1, NormalizeThreads(257))
	assert.Equal(t, 256, NormalizeThreads(256))
	assert.Equal(t, 8, NormalizeThreads(8))
}

func TestSettings(t *testing.T) {
	s, err := Default().Settings()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), s.Iterations)
	assert.Equal(t, UnitMH, s.Unit)
	assert.Equal(t, 1, s.Threads)
	assert.Equal(t, 1, s.Runs)
	assert.Zero(t, s.GHz)
	assert.False(t, s.JSON)

	cfg := Default()
	cfg.Format = "JSON"
	cfg.Threads = 999
	cfg.Runs = -3
	cfg.GHz = 4.2
	s, err = cfg.Settings()
	require.NoError(t, err)
	assert.True(t, s.JSON)
	assert.Equal(t, 1, s.Threads)
	assert.Equal(t, 1, s.Runs)
	assert.Equal(t, 4.2, s.GHz)

	cfg = Default()
	cfg.Format = "xml"
	_, err = cfg.Settings()
	assert.ErrorIs(t, err, ErrFormat)

	cfg = Default()
	cfg.Color = "sometimes"
	_, err = cfg.Settings()
	assert.ErrorIs(t, err, ErrColor)

	cfg = Default()
	cfg.Lanes = []int{1, 5}
	_, err = cfg.Settings()
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsha256bench.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
iterations: 50M
threads: 4
lanes: [2, 4]
log:
  level: debug
`), 0o600))

	cfg := Default()
	require.NoError(t, Load(path, &cfg))
	assert.Equal(t, "50M", cfg.Iterations)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, []int{2, 4}, cfg.Lanes)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched fields keep their defaults
	assert.Equal(t, "MH", cfg.Unit)
	assert.Equal(t, "human", cfg.Log.Format)

	require.NoError(t, os.WriteFile(path, []byte("iterations: 1M\nspeed: 3\n"), 0o600))
	assert.Error(t, Load(path, &cfg))

	assert.Error(t, Load(filepath.Join(dir, "missing.yml"), &cfg))
}
