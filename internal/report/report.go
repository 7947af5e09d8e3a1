// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

// Package report prints benchmark results as text or JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/minio/rsha256-simd/internal/bench"
	"github.com/minio/rsha256-simd/internal/config"
	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiTitle  = "\033[1;97m"
	ansiGood   = "\033[1;32m"
	ansiWarn   = "\033[1;33m"
	ansiBad    = "\033[1;31m"
	ansiEraseL = "\033[2K\r"
)

type (
	// Parameters describe a benchmark, printed once before the results.
	Parameters struct {
		CPU          string      `json:"cpu"`
		Acceleration string      `json:"acceleration,omitempty"`
		Iterations   uint64      `json:"iterations"`
		GHz          float64     `json:"ghz,omitempty"`
		Unit         config.Unit `json:"-"`
		Threads      int         `json:"threads"`
		Runs         int         `json:"runs"`
	}

	// Speed is a rate converted to the requested unit.
	Speed struct {
		Value float64 `json:"value"`
		// PerTenthGHz is Value per 0.1 GHz of clock speed, zero without a
		// clock speed. Unused for cpb.
		PerTenthGHz float64 `json:"perTenthGHz,omitempty"`
		// CyclesPerByte is only set for cpb, Value then holds cycles per block.
		CyclesPerByte float64 `json:"cyclesPerByte,omitempty"`
	}

	// Reporter receives the events of a benchmark.
	Reporter interface {
		Start(p Parameters)
		Progress(kernel string, lanes int, s bench.Stage)
		Result(r bench.Result)
		Info(msg string)
		Error(msg string)
		Close() error
	}
)

// Compute converts hashes per second into unit. ghz is zero when unknown;
// cpb then cannot be computed and the zero Speed is returned.
func Compute(hps float64, unit config.Unit, ghz float64) (s Speed) {
	if hps <= 0 {
		return
	}
	switch unit {
	case config.UnitMB:
		s.Value = hps * 64 / 1e6
	case config.UnitMiB:
		s.Value = hps * 64 / 1048576
	case config.UnitCPB:
		if ghz == 0 {
			return
		}
		s.Value = ghz * 1e9 / hps
		s.CyclesPerByte = s.Value / 64
		return
	default:
		s.Value = hps / 1e6
	}
	if ghz > 0 {
		s.PerTenthGHz = s.Value / (ghz * 10)
	}
	return
}

// ColorEnabled resolves the color mode auto, always or never for w. In auto
// mode only a terminal gets colors.
func ColorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Text prints a human readable report, colored when enabled.
type Text struct {
	w     io.Writer
	color bool
	p     Parameters
	title string
}

// NewText returns a text reporter writing to w.
func NewText(w io.Writer, title string, color bool) *Text {
	return &Text{w: w, color: color, title: title}
}

func (t *Text) wrap(prefix, s string) string {
	if t.color {
		return prefix + s + ansiReset
	}
	return s
}

func (t *Text) Start(p Parameters) {
	t.p = p
	fmt.Fprintln(t.w, t.wrap(ansiTitle, "["+t.title+"]"))
	fmt.Fprintf(t.w, "- CPU: %s (%s)\n", p.CPU, orNA(p.Acceleration, "no acceleration"))

	ghz := "n/a"
	if p.GHz > 0 {
		ghz = fmt.Sprintf("%.2f", p.GHz)
	}
	fmt.Fprintf(t.w, "- Parameters: %s (iterations), %s GHz (cpu speed), %s (unit), %d (threads)\n",
		humanize.SI(float64(p.Iterations), "H"), ghz, p.Unit, p.Threads)

	if p.Unit == config.UnitCPB && p.Threads > 1 {
		t.Info("Detected -m cpb and -t <threads> larger than 1. Make sure benchmark locked to 1 CPU core.")
		t.Info("Throughput cpb values only valid if 1 thread and/or benchmark locked to 1 CPU core.")
	}
}

// Progress rewrites the current line, so it only prints on a terminal.
func (t *Text) Progress(kernel string, lanes int, s bench.Stage) {
	if !t.color {
		return
	}
	var msg string
	switch s {
	case bench.StageSpin:
		msg = fmt.Sprintf("Spin run of %s iterations", humanize.SI(float64(t.p.Iterations), "H"))
	case bench.StageTimed:
		msg = fmt.Sprintf("Benchmark of %s iterations (lanes x threads: %d times)",
			humanize.SI(float64(t.p.Iterations), "H"), lanes*t.p.Threads)
	case bench.StageConsistency:
		msg = "Consistency check of 0x and 1x iterations"
	}
	fmt.Fprintf(t.w, "%s- %-10s  %s ...", ansiEraseL, kernel+":", msg)
}

func (t *Text) Result(r bench.Result) {
	sp := Compute(r.HashesPerSecond(), t.p.Unit, t.p.GHz)
	name := r.Kernel + ":"

	verify := t.wrap(ansiWarn, "n/a")
	if r.Verified {
		verify = t.wrap(ansiGood, "ok")
	}

	var line string
	switch t.p.Unit {
	case config.UnitCPB:
		if t.p.GHz == 0 {
			line = fmt.Sprintf("- %-10s %s cycles per block (%s per byte)", name, t.wrap(ansiGood, "n/a"), t.wrap(ansiGood, "n/a"))
			break
		}
		line = fmt.Sprintf("- %-10s %s cycles per block (%s per byte)", name,
			t.wrap(ansiGood, fmt.Sprintf("%6.1f", sp.Value)), t.wrap(ansiGood, fmt.Sprintf("%4.2f", sp.CyclesPerByte)))
	default:
		unit := t.p.Unit.String()
		per := t.wrap(ansiGood, "n/a")
		if t.p.GHz > 0 {
			per = t.wrap(ansiGood, fmt.Sprintf("%7.3f", sp.PerTenthGHz))
		}
		line = fmt.Sprintf("- %-10s %s %s (%s %s/0.1GHz)", name,
			t.wrap(ansiGood, fmt.Sprintf("%9.2f", sp.Value)), unit, per, unit)
	}
	line += " [verify hash: " + verify + "]"
	if len(r.Durations) > 1 {
		mean, sd := r.Spread()
		line += fmt.Sprintf(" [%d runs, mean %.3fs, stddev %.3fs]", len(r.Durations), mean, sd)
	}
	if t.color {
		line = ansiEraseL + line
	}
	fmt.Fprintln(t.w, line)
}

func (t *Text) Info(msg string) {
	fmt.Fprintln(t.w, "- "+t.wrap(ansiWarn, "INFO: "+msg))
}

// Error prints msg highlighted as an error.
func (t *Text) Error(msg string) {
	if t.color {
		fmt.Fprint(t.w, "\n")
	}
	fmt.Fprintln(t.w, t.wrap(ansiBad, "ERROR: "+msg))
}

func (t *Text) Close() error {
	if t.p.Unit == config.UnitCPB && t.p.GHz == 0 {
		t.Info("Need -s <cpuspeed> parameter to calculate CPU cycles results.")
	}
	return nil
}

func orNA(s, na string) string {
	if s == "" {
		return na
	}
	return s
}

type (
	jsonReport struct {
		Parameters
		Unit    string       `json:"unit"`
		Results []jsonResult `json:"results"`
		Info    []string     `json:"info,omitempty"`
		Errors  []string     `json:"errors,omitempty"`
	}

	jsonResult struct {
		Kernel          string  `json:"kernel"`
		Lanes           int     `json:"lanes"`
		Threads         int     `json:"threads"`
		Seconds         float64 `json:"seconds"`
		Mean            float64 `json:"mean"`
		StdDev          float64 `json:"stddev"`
		Runs            int     `json:"runs"`
		HashesPerSecond float64 `json:"hashesPerSecond"`
		Speed           Speed   `json:"speed"`
		Verified        bool    `json:"verified"`
	}
)

// JSON collects the results and writes them as one document on Close.
type JSON struct {
	w   io.Writer
	rep jsonReport
}

// NewJSON returns a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w, rep: jsonReport{Results: []jsonResult{}}}
}

func (j *JSON) Start(p Parameters) {
	j.rep.Parameters = p
	j.rep.Unit = p.Unit.String()
}

func (j *JSON) Progress(string, int, bench.Stage) {}

func (j *JSON) Result(r bench.Result) {
	mean, sd := r.Spread()
	j.rep.Results = append(j.rep.Results, jsonResult{
		Kernel:          r.Kernel,
		Lanes:           r.Lanes,
		Threads:         r.Threads,
		Seconds:         r.Seconds(),
		Mean:            mean,
		StdDev:          sd,
		Runs:            len(r.Durations),
		HashesPerSecond: r.HashesPerSecond(),
		Speed:           Compute(r.HashesPerSecond(), j.rep.Parameters.Unit, j.rep.GHz),
		Verified:        r.Verified,
	})
}

func (j *JSON) Info(msg string) {
	j.rep.Info = append(j.rep.Info, msg)
}

func (j *JSON) Error(msg string) {
	j.rep.Errors = append(j.rep.Errors, msg)
}

func (j *JSON) Close() error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.rep)
}
