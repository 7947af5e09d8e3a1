// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

// Package bench measures the throughput of the recursive SHA256 kernels.
package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	rsha256 "github.com/minio/rsha256-simd"
	"github.com/montanaflynn/stats"
	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrElapsed is returned when a timed run took no measurable time.
var ErrElapsed = errors.New("elapsed time is zero")

type (
	// Options control a benchmark.
	Options struct {
		Iterations uint64
		Threads    int
		Runs       int
		Pin        bool
		// Spin runs one untimed pass first to bring the CPU up to speed.
		Spin bool
	}

	// Stage identifies what the runner is currently doing.
	Stage int

	// Result is the outcome of benchmarking one kernel.
	Result struct {
		Kernel     string          `json:"kernel"`
		Lanes      int             `json:"lanes"`
		Threads    int             `json:"threads"`
		Iterations uint64          `json:"iterations"`
		Durations  []time.Duration `json:"durations"`
		// Verified is set when every lane matched a known answer. Iteration
		// counts without a known answer leave it false.
		Verified bool `json:"verified"`
	}
)

const (
	StageConsistency Stage = iota
	StageSpin
	StageTimed
)

func (s Stage) String() string {
	switch s {
	case StageConsistency:
		return "consistency check of 0x and 1x iterations"
	case StageSpin:
		return "spin run"
	case StageTimed:
		return "benchmark"
	default:
		return "unknown"
	}
}

// Hashes returns the number of SHA256 compressions in one timed run.
func (r Result) Hashes() float64 {
	return float64(r.Iterations) * float64(r.Lanes) * float64(r.Threads)
}

// Seconds returns the median duration of the timed runs.
func (r Result) Seconds() float64 {
	m, err := stats.Median(r.secs())
	if err != nil {
		return 0
	}
	return m
}

// Spread returns the mean and standard deviation of the timed runs.
func (r Result) Spread() (mean, stddev float64) {
	data := r.secs()
	mean, _ = stats.Mean(data)
	stddev, _ = stats.StandardDeviation(data)
	return
}

// HashesPerSecond is the rate of the median run.
func (r Result) HashesPerSecond() float64 {
	s := r.Seconds()
	if s <= 0 {
		return 0
	}
	return r.Hashes() / s
}

func (r Result) secs() stats.Float64Data {
	data := make(stats.Float64Data, len(r.Durations))
	for i, d := range r.Durations {
		data[i] = d.Seconds()
	}
	return data
}

// Runner benchmarks kernels one after the other.
type Runner struct {
	opts     Options
	logger   *zap.SugaredLogger
	progress func(k rsha256.Kernel, s Stage)
}

// NewRunner returns a runner. Threads and Runs below one are raised to one.
func NewRunner(opts Options, logger *zap.Logger) *Runner {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Runs < 1 {
		opts.Runs = 1
	}
	return &Runner{
		opts:     opts,
		logger:   logger.Named("runner").Sugar(),
		progress: func(rsha256.Kernel, Stage) {},
	}
}

// OnProgress registers fn to be called whenever a new stage starts.
func (r *Runner) OnProgress(fn func(k rsha256.Kernel, s Stage)) {
	r.progress = fn
}

// Run checks k against the known answers and times Options.Runs passes of
// Options.Iterations iterations on every worker.
func (r *Runner) Run(ctx context.Context, k rsha256.Kernel) (Result, error) {
	res := Result{
		Kernel:     k.Name(),
		Lanes:      k.Lanes(),
		Threads:    r.opts.Threads,
		Iterations: r.opts.Iterations,
	}
	log := r.logger.With("kernel", k.Name())

	r.progress(k, StageConsistency)
	if err := rsha256.CheckConsistency(k); err != nil {
		return res, err
	}

	if r.opts.Spin {
		r.progress(k, StageSpin)
		buf := rsha256.Seeds(k.Lanes())
		k.Recurse(buf, r.opts.Iterations)
	}

	verified := rsha256.HasVector(r.opts.Iterations)
	for run := 0; run < r.opts.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.progress(k, StageTimed)
		d, err := r.timed(k)
		if err != nil {
			return res, err
		}
		log.Debugw("timed run", "run", run, "elapsed", d)
		res.Durations = append(res.Durations, d)
	}
	res.Verified = verified
	return res, nil
}

// timed runs every worker once and returns the wall time.
func (r *Runner) timed(k rsha256.Kernel) (time.Duration, error) {
	bufs := make([][]byte, r.opts.Threads)
	for i := range bufs {
		bufs[i] = rsha256.Seeds(k.Lanes())
	}

	var (
		mu   sync.Mutex
		errs error
	)
	swg := sizedwaitgroup.New(r.opts.Threads)
	start := time.Now()
	for i := range bufs {
		swg.Add()
		go func(worker int) {
			defer swg.Done()
			if r.opts.Pin {
				// the thread keeps its affinity, so it is never unlocked and
				// exits with the goroutine
				runtime.LockOSThread()
				if err := pin(worker); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("worker %d: %w", worker, err))
					mu.Unlock()
					return
				}
			}
			k.Recurse(bufs[worker], r.opts.Iterations)
		}(i)
	}
	swg.Wait()
	elapsed := time.Since(start)
	if errs != nil {
		return 0, errs
	}

	for i, buf := range bufs {
		if err := rsha256.Verify(buf, r.opts.Iterations); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("worker %d: %w", i, err))
		} else if !bytes.Equal(buf, bufs[0]) {
			errs = multierr.Append(errs, fmt.Errorf("worker %d: %w with worker 0", i, rsha256.ErrMismatch))
		}
	}
	if errs != nil {
		return 0, errs
	}
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w after %d iterations", ErrElapsed, r.opts.Iterations)
	}
	return elapsed, nil
}
