// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

// Command rsha256bench benchmarks and checks the recursive SHA256 kernels.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/klauspost/cpuid/v2"
	"github.com/minio/rsha256-simd/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

// env carries what every command needs once flags and config are resolved.
type env struct {
	cfg    config.Config
	flags  config.Config // values bound to flags
	path   string        // --config
	logger *zap.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	e := &env{flags: config.Default()}

	rootCmd := &cobra.Command{
		Use:   "rsha256bench",
		Short: "Benchmark recursive SHA256",
		Long: `rsha256bench measures how fast SHA256 can be applied to its own output,
on one chain and on 2, 3 or 4 chains interleaved, and checks every kernel
against known answers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.resolve(cmd.Flags())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&e.path, "config", "", "YAML file with default settings")
	pf.StringVar(&e.flags.Log.Level, "log-level", e.flags.Log.Level, "log level: debug, info, warn or error")
	pf.StringVar(&e.flags.Color, "color", e.flags.Color, "colored output: auto, always or never")
	pf.StringVar(&e.flags.Format, "format", e.flags.Format, "output format: text or json")

	runCmd := newRunCommand(e)
	bindRunFlags(rootCmd.Flags(), &e.flags)
	rootCmd.RunE = runCmd.RunE

	rootCmd.AddCommand(
		runCmd,
		newVerifyCommand(e),
		newInfoCommand(e),
		newHashCommand(e),
	)
	return rootCmd
}

// bindRunFlags registers the benchmark flags on fs.
func bindRunFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVarP(&cfg.Iterations, "iterations", "i", cfg.Iterations, "iterations per lane: 10M, 50M, 100M, 200M or 500M are verified")
	fs.Float64VarP(&cfg.GHz, "ghz", "s", cfg.GHz, "CPU speed in GHz (0.1 - 999.9), defaults to the reported clock")
	fs.StringVarP(&cfg.Unit, "unit", "m", cfg.Unit, "unit: MH, MB, MiB or cpb")
	fs.IntVarP(&cfg.Threads, "threads", "t", cfg.Threads, "number of threads (1 - 256)")
	fs.IntVar(&cfg.Runs, "runs", cfg.Runs, "timed runs per kernel")
	fs.IntSliceVar(&cfg.Lanes, "lanes", cfg.Lanes, "only benchmark kernels with these lane counts")
	fs.BoolVar(&cfg.Reference, "reference", cfg.Reference, "include the portable kernel")
	fs.BoolVar(&cfg.Pin, "pin", cfg.Pin, "pin every thread to its own CPU (linux)")
}

// resolve merges the defaults, the config file and the flags set on the
// command line, in that order, and builds the logger.
func (e *env) resolve(fs *pflag.FlagSet) error {
	e.cfg = config.Default()
	if e.path != "" {
		if err := config.Load(e.path, &e.cfg); err != nil {
			return err
		}
	}
	override(fs, &e.cfg, e.flags)

	if e.cfg.GHz == 0 && cpuid.CPU.Hz > 0 {
		e.cfg.GHz = float64(cpuid.CPU.Hz) / 1e9
	}

	if _, err := e.cfg.Settings(); err != nil {
		return err
	}
	logger, err := newLogger(e.cfg.Log, colorEnabled(e.cfg.Color, os.Stderr))
	if err != nil {
		return err
	}
	e.logger = logger
	if e.path != "" {
		logger.Debug("loaded config file", zap.String("path", e.path))
	}
	return nil
}

// override copies the values of the flags changed on the command line.
func override(fs *pflag.FlagSet, dst *config.Config, src config.Config) {
	set := map[string]func(){
		"iterations": func() { dst.Iterations = src.Iterations },
		"ghz":        func() { dst.GHz = src.GHz },
		"unit":       func() { dst.Unit = src.Unit },
		"threads":    func() { dst.Threads = src.Threads },
		"runs":       func() { dst.Runs = src.Runs },
		"lanes":      func() { dst.Lanes = src.Lanes },
		"reference":  func() { dst.Reference = src.Reference },
		"pin":        func() { dst.Pin = src.Pin },
		"format":     func() { dst.Format = src.Format },
		"color":      func() { dst.Color = src.Color },
		"log-level":  func() { dst.Log.Level = src.Log.Level },
	}
	fs.Visit(func(f *pflag.Flag) {
		if fn, ok := set[f.Name]; ok {
			fn()
		}
	})
}
