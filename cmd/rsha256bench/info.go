// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/klauspost/cpuid/v2"
	rsha256 "github.com/minio/rsha256-simd"
	"github.com/minio/rsha256-simd/internal/bench"
	"github.com/spf13/cobra"
)

type (
	kernelInfo struct {
		Name        string `json:"name"`
		Lanes       int    `json:"lanes"`
		Accelerated bool   `json:"accelerated"`
	}

	cpuInfo struct {
		Brand         string       `json:"brand"`
		Arch          string       `json:"arch"`
		PhysicalCores int          `json:"physicalCores"`
		LogicalCores  int          `json:"logicalCores"`
		Hz            int64        `json:"hz,omitempty"`
		Features      []string     `json:"features"`
		Acceleration  string       `json:"acceleration,omitempty"`
		CanPin        bool         `json:"canPin"`
		Kernels       []kernelInfo `json:"kernels"`
	}
)

func newInfoCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the CPU and the kernels in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.cfg.Settings()
			if err != nil {
				return err
			}
			info := collectInfo()
			if s.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "CPU:          %s (%s)\n", info.Brand, info.Arch)
			fmt.Fprintf(w, "Cores:        %d physical, %d logical\n", info.PhysicalCores, info.LogicalCores)
			if info.Hz > 0 {
				fmt.Fprintf(w, "Clock:        %.2f GHz\n", float64(info.Hz)/1e9)
			} else {
				fmt.Fprintln(w, "Clock:        n/a")
			}
			fmt.Fprintf(w, "Features:     %v\n", info.Features)
			fmt.Fprintf(w, "Acceleration: %s\n", orNone(info.Acceleration))
			for _, k := range info.Kernels {
				fmt.Fprintf(w, "Kernel:       %s\n", k.Name)
			}
			return nil
		},
	}
}

// features lists the CPU features the kernels depend on.
var features = []cpuid.FeatureID{cpuid.SHA, cpuid.SSSE3, cpuid.SSE4, cpuid.SHA2, cpuid.ASIMD}

func collectInfo() cpuInfo {
	info := cpuInfo{
		Brand:         cpuid.CPU.BrandName,
		Arch:          runtime.GOARCH,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Hz:            cpuid.CPU.Hz,
		Features:      []string{},
		Acceleration:  rsha256.Acceleration(),
		CanPin:        bench.CanPin,
	}
	for _, f := range features {
		if cpuid.CPU.Supports(f) {
			info.Features = append(info.Features, f.String())
		}
	}
	for _, k := range rsha256.Kernels() {
		info.Kernels = append(info.Kernels, kernelInfo{Name: k.Name(), Lanes: k.Lanes(), Accelerated: k.Accelerated()})
	}
	return info
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
