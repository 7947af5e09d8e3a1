// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

// Package config holds the settings of the rsha256bench command.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the configuration as read from the config file and flags.
	Config struct {
		Iterations string  `yaml:"iterations,omitempty"`
		GHz        float64 `yaml:"ghz,omitempty"`
		Unit       string  `yaml:"unit,omitempty"`
		Threads    int     `yaml:"threads,omitempty"`
		Runs       int     `yaml:"runs,omitempty"`
		Lanes      []int   `yaml:"lanes,omitempty"`
		Reference  bool    `yaml:"reference,omitempty"`
		Pin        bool    `yaml:"pin,omitempty"`
		Format     string  `yaml:"format,omitempty"`
		Color      string  `yaml:"color,omitempty"`
		Log        Log     `yaml:"log,omitempty"`
	}

	// Log contains the configuration for the logger.
	Log struct {
		Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
		Format string `yaml:"format,omitempty"` // human or json
	}
)

// Unit is the measure the benchmark results are printed in.
type Unit int

const (
	UnitMH Unit = iota
	UnitMB
	UnitMiB
	UnitCPB
)

const (
	MinGHz     = 0.1
	MaxGHz     = 999.9
	MaxThreads = 256
)

var (
	// ErrUnit is returned for an unknown unit.
	ErrUnit = errors.New("unit must be one of MH, MB, MiB or cpb")
	// ErrFormat is returned for an unknown output format.
	ErrFormat = errors.New("format must be text or json")
	// ErrColor is returned for an unknown color mode.
	ErrColor = errors.New("color must be auto, always or never")
)

// Default returns the configuration used when neither a file nor flags
// override anything: 10M iterations, MH/s, one thread.
func Default() Config {
	return Config{
		Iterations: "10M",
		Unit:       "MH",
		Threads:    1,
		Runs:       1,
		Format:     "text",
		Color:      "auto",
		Log: Log{
			Level:  "warn",
			Format: "human",
		},
	}
}

// Load decodes the YAML file at path into cfg. Fields missing from the file
// keep their current value; unknown fields are an error.
func Load(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// String returns the rate suffix of the unit, for example "MH/s".
func (u Unit) String() string {
	switch u {
	case UnitMB:
		return "MB/s"
	case UnitMiB:
		return "MiB/s"
	case UnitCPB:
		return "cpb"
	default:
		return "MH/s"
	}
}

// ParseUnit parses MH, MB, MiB or cpb, ignoring case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "mh":
		return UnitMH, nil
	case "mb":
		return UnitMB, nil
	case "mib":
		return UnitMiB, nil
	case "cpb":
		return UnitCPB, nil
	}
	return 0, fmt.Errorf("%w, got %q", ErrUnit, s)
}

// ParseIterations parses an iteration count with an optional SI suffix,
// "10M" or "1.5k". The suffix is case-insensitive. Plain integers are exact
// over the whole uint64 range.
func ParseIterations(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	if n := len(s); n > 0 {
		// ParseSI reads m as milli and knows no K
		switch s[n-1] {
		case 'm', 'g':
			s = s[:n-1] + strings.ToUpper(s[n-1:])
		case 'K':
			s = s[:n-1] + "k"
		}
	}
	v, unit, err := humanize.ParseSI(s)
	if err != nil {
		return 0, fmt.Errorf("invalid iteration count %q: %w", s, err)
	}
	if unit != "" || v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
		return 0, fmt.Errorf("invalid iteration count %q", s)
	}
	return uint64(v), nil
}

// NormalizeGHz truncates the clock speed to two decimals, or returns 0 when
// it is outside MinGHz..MaxGHz.
func NormalizeGHz(ghz float64) float64 {
	if ghz < MinGHz || ghz > MaxGHz {
		return 0
	}
	return math.Trunc(ghz*100) / 100
}

// NormalizeThreads falls back to one thread for counts outside 1..MaxThreads.
func NormalizeThreads(t int) int {
	if t < 1 || t > MaxThreads {
		return 1
	}
	return t
}

// Settings are the validated values the benchmark runs with.
type Settings struct {
	Iterations uint64
	GHz        float64 // 0 when unknown
	Unit       Unit
	Threads    int
	Runs       int
	Lanes      []int
	Reference  bool
	Pin        bool
	JSON       bool
}

// Settings validates c and converts it into Settings.
func (c Config) Settings() (s Settings, err error) {
	if s.Iterations, err = ParseIterations(c.Iterations); err != nil {
		return Settings{}, err
	}
	if s.Unit, err = ParseUnit(c.Unit); err != nil {
		return Settings{}, err
	}
	switch strings.ToLower(c.Format) {
	case "", "text":
	case "json":
		s.JSON = true
	default:
		return Settings{}, fmt.Errorf("%w, got %q", ErrFormat, c.Format)
	}
	switch strings.ToLower(c.Color) {
	case "", "auto", "always", "never":
	default:
		return Settings{}, fmt.Errorf("%w, got %q", ErrColor, c.Color)
	}
	for _, l := range c.Lanes {
		if l < 1 || l > 4 {
			return Settings{}, fmt.Errorf("invalid lane count %d, must be between 1 and 4", l)
		}
	}

	s.GHz = NormalizeGHz(c.GHz)
	s.Threads = NormalizeThreads(c.Threads)
	s.Runs = c.Runs
	if s.Runs < 1 {
		s.Runs = 1
	}
	s.Lanes = c.Lanes
	s.Reference = c.Reference
	s.Pin = c.Pin
	return s, nil
}
