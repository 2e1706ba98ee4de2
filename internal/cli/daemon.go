// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/daemon"
	"github.com/sentinel-hb/hb/internal/streaming"
)

// DaemonCommand starts the long-running orchestrator loop (spec §4.8).
func DaemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "run the long-running ingest/decide/act loop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "system-id", Value: "hb-core"},
			&cli.StringFlag{Name: "source", Required: true, Usage: "path to a JSONL file-replay ingest source"},
			&cli.FloatFlag{Name: "interval-sec", Value: 60},
			&cli.FloatFlag{Name: "window-size-sec", Value: 300},
			&cli.FloatFlag{Name: "slide-sec", Value: 60},
			&cli.FloatFlag{Name: "allowed-lateness-sec", Value: 30},
			&cli.IntFlag{Name: "max-buckets", Value: 64},
			&cli.IntFlag{Name: "max-report-dirs", Value: 500},
			&cli.IntFlag{Name: "checkpoint-history-max", Value: 100},
			&cli.IntFlag{Name: "circuit-failure-threshold", Value: 5},
			&cli.DurationFlag{Name: "circuit-window", Value: time.Minute},
			&cli.DurationFlag{Name: "circuit-open-for", Value: 30 * time.Second},
			&cli.BoolFlag{Name: "distribution", Usage: "enable distribution drift comparisons"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			reg, plan, err := loadRegistry(c)
			if err != nil {
				return err
			}
			baselinePolicy, err := loadBaselinePolicy(c)
			if err != nil {
				return err
			}
			actionPolicy, err := loadActionPolicy(c)
			if err != nil {
				return err
			}
			runs, err := openRunRegistry(c)
			if err != nil {
				return err
			}

			source, err := daemon.NewFileReplaySource(c.String("source"))
			if err != nil {
				return err
			}

			reportsDir := c.Root().String("reports")
			cfg := daemon.Config{
				SystemID:                c.String("system-id"),
				ReportsDir:              reportsDir,
				IntervalSec:             c.Float("interval-sec"),
				MaxReportDirs:           c.Int("max-report-dirs"),
				CheckpointHistoryMax:    c.Int("checkpoint-history-max"),
				CircuitFailureThreshold: c.Int("circuit-failure-threshold"),
				CircuitWindow:           c.Duration("circuit-window"),
				CircuitOpenFor:          c.Duration("circuit-open-for"),
				WindowSpec: streaming.WindowSpec{
					WindowSizeSec: c.Float("window-size-sec"),
					SlideSec:      c.Float("slide-sec"),
				},
				WatermarkPolicy: streaming.WatermarkPolicy{
					AllowedLatenessSec: c.Float("allowed-lateness-sec"),
				},
				MaxBuckets:          c.Int("max-buckets"),
				Deterministic:       c.Root().Bool("deterministic"),
				DistributionEnabled: c.Bool("distribution"),
				TopDrifts:           c.Root().Int("top"),
				BaselinePolicy:      baselinePolicy,
				ActionPolicy:        actionPolicy,
			}

			orch, err := daemon.New(cfg, reg, plan, runs, source, []daemon.Sink{daemon.NewStdoutSink(os.Stdout)},
				filepath.Join(reportsDir, "audit_log.jsonl"),
				filepath.Join(reportsDir, "checkpoint.db"),
			)
			if err != nil {
				return err
			}
			defer orch.Close()

			runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := orch.Run(runCtx); err != nil {
				return apperr.TransientIO("daemon", err)
			}
			return nil
		},
	}
}
