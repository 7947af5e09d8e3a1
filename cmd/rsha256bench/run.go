// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/cpuid/v2"
	rsha256 "github.com/minio/rsha256-simd"
	"github.com/minio/rsha256-simd/internal/bench"
	"github.com/minio/rsha256-simd/internal/config"
	"github.com/minio/rsha256-simd/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark the kernels (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.cfg.Settings()
			if err != nil {
				return err
			}
			return runBenchmark(cmd, e, s)
		},
	}
	bindRunFlags(cmd.Flags(), &e.flags)
	return cmd
}

func colorEnabled(mode string, w io.Writer) bool {
	return report.ColorEnabled(mode, w)
}

func newReporter(w io.Writer, s config.Settings, color bool) report.Reporter {
	if s.JSON {
		return report.NewJSON(w)
	}
	title := "Benchmark (mt) - Recursive SHA256"
	if a := rsha256.Acceleration(); a != "" {
		title += " (w/" + a + ")"
	}
	return report.NewText(w, title, color)
}

// selectKernels returns the kernels to benchmark. The portable kernel is
// only included on request when hardware kernels exist.
func selectKernels(s config.Settings) []rsha256.Kernel {
	var ks []rsha256.Kernel
	for i, k := range rsha256.Kernels() {
		if i == 0 && rsha256.Accelerated() && !s.Reference {
			continue
		}
		if len(s.Lanes) > 0 && !contains(s.Lanes, k.Lanes()) {
			continue
		}
		ks = append(ks, k)
	}
	return ks
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func runBenchmark(cmd *cobra.Command, e *env, s config.Settings) error {
	log := e.logger.Sugar()
	w := cmd.OutOrStdout()
	out := newReporter(w, s, colorEnabled(e.cfg.Color, w))

	if s.Pin && !bench.CanPin {
		log.Warn("--pin is not supported on this platform, ignoring")
		s.Pin = false
	}

	params := report.Parameters{
		CPU:          cpuid.CPU.BrandName,
		Acceleration: rsha256.Acceleration(),
		Iterations:   s.Iterations,
		GHz:          s.GHz,
		Unit:         s.Unit,
		Threads:      s.Threads,
		Runs:         s.Runs,
	}
	out.Start(params)
	if !rsha256.HasVector(s.Iterations) {
		out.Info(fmt.Sprintf("No known answer for %d iterations, results are not verified.", s.Iterations))
	}

	kernels := selectKernels(s)
	if len(kernels) == 0 {
		return errors.New("no kernel matches the selected lanes")
	}

	runner := bench.NewRunner(bench.Options{
		Iterations: s.Iterations,
		Threads:    s.Threads,
		Runs:       s.Runs,
		Pin:        s.Pin,
		Spin:       true,
	}, e.logger)
	runner.OnProgress(func(k rsha256.Kernel, st bench.Stage) {
		out.Progress(k.Name(), k.Lanes(), st)
	})

	for _, k := range kernels {
		log.Debugw("benchmarking", "kernel", k.Name(), "lanes", k.Lanes(), "accelerated", k.Accelerated())
		res, err := runner.Run(cmd.Context(), k)
		if err != nil {
			out.Error(fmt.Sprintf("%s: %v", k.Name(), err))
			_ = out.Close()
			log.Errorw("benchmark failed", "kernel", k.Name(), zap.Error(err))
			return err
		}
		out.Result(res)
	}
	return out.Close()
}
