// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package main

import (
	"fmt"

	rsha256 "github.com/minio/rsha256-simd"
	"github.com/minio/rsha256-simd/internal/config"
	"github.com/remeh/sizedwaitgroup"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newHashCommand(e *env) *cobra.Command {
	var iterations string

	cmd := &cobra.Command{
		Use:   "hash <seed>...",
		Short: "Apply SHA256 to each hex seed n times",
		Long: `hash prints the value of every seed after the given number of iterations.
Seeds are 64 hex characters. Several seeds are advanced concurrently,
sharing the lanes of the interleaved kernels.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := config.ParseIterations(iterations)
			if err != nil {
				return err
			}
			seeds := make([]rsha256.Hash, len(args))
			for i, a := range args {
				if seeds[i], err = rsha256.ParseHash(a); err != nil {
					return err
				}
			}

			sums, err := hashSeeds(seeds, n)
			if err != nil {
				return err
			}
			e.logger.Sugar().Debugw("hashed", "seeds", len(seeds), "iterations", n)
			for _, h := range sums {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&iterations, "iterations", "n", "1", "number of iterations")
	return cmd
}

// hashSeeds advances every seed by n iterations on a shared server.
func hashSeeds(seeds []rsha256.Hash, n uint64) ([]rsha256.Hash, error) {
	server := rsha256.NewServer()
	defer server.Close()

	sums := make([]rsha256.Hash, len(seeds))
	errs := make([]error, len(seeds))
	swg := sizedwaitgroup.New(rsha256.MaxLanes * 2)
	for i := range seeds {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			c := server.NewChain(seeds[i])
			defer c.Close()
			errs[i] = c.Advance(n)
			sums[i] = c.Sum()
		}(i)
	}
	swg.Wait()
	return sums, multierr.Combine(errs...)
}
