// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	rsha256 "github.com/minio/rsha256-simd"
	"github.com/minio/rsha256-simd/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newVerifyCommand(e *env) *cobra.Command {
	var upTo string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every kernel against the known answers",
		Long: `verify runs each kernel for 0 and 1 iterations and compares the result with
the reference kernel and the known answers. With --up-to, the longer known
answers up to that iteration count are checked as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := uint64(1)
			if upTo != "" {
				var err error
				if limit, err = config.ParseIterations(upTo); err != nil {
					return err
				}
			}
			return verifyKernels(cmd, e, rsha256.Kernels(), limit)
		},
	}
	cmd.Flags().StringVar(&upTo, "up-to", "", "also check known answers up to this many iterations, e.g. 100M")
	return cmd
}

func verifyKernels(cmd *cobra.Command, e *env, kernels []rsha256.Kernel, limit uint64) error {
	log := e.logger.Named("verify").Sugar()
	w := cmd.OutOrStdout()

	var errs error
	for _, k := range kernels {
		err := rsha256.CheckConsistency(k)
		for _, n := range rsha256.VectorIterations {
			if err != nil || n <= 1 || n > limit {
				continue
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			log.Infow("checking known answer", "kernel", k.Name(), "iterations", n)
			buf := rsha256.Seeds(k.Lanes())
			k.Recurse(buf, n)
			err = rsha256.Verify(buf, n)
		}

		status := "ok"
		if err != nil {
			status = "FAILED"
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", k.Name(), err))
		}
		fmt.Fprintf(w, "%-14s %s (up to %s iterations)\n", k.Name(), status, humanize.Comma(int64(checkedUpTo(limit))))
	}
	return errs
}

// checkedUpTo returns the largest known answer not above limit.
func checkedUpTo(limit uint64) (n uint64) {
	for _, v := range rsha256.VectorIterations {
		if v <= limit {
			n = v
		}
	}
	return
}
