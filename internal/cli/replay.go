// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/evidence"
)

// ReplayCommand deterministically re-runs normalize+compare over a
// previously archived evidence directory and prints the reproduced report
// (spec §4.7 Replay).
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "deterministically replay a decision from an evidence directory",
		ArgsUsage: "<evidence-dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "distribution", Usage: "enable distribution drift comparisons"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			evidenceDir, err := requireArg(c, 0, "evidence directory")
			if err != nil {
				return err
			}

			reg, plan, err := loadRegistry(c)
			if err != nil {
				return err
			}

			raw, err := evidence.ReadMetricsCSV(filepath.Join(evidenceDir, "metrics_normalized.csv"))
			if err != nil {
				return err
			}
			baselineMetrics, err := evidence.ReadBaselineSnapshot(filepath.Join(evidenceDir, "baseline_snapshot.json"))
			if err != nil {
				return err
			}

			result := evidence.Replay(evidence.ReplayInput{
				InputSlice:          raw,
				Baseline:            baselineMetrics,
				Registry:            reg,
				Plan:                plan,
				DistributionEnabled: c.Bool("distribution"),
			})

			return printJSON(result.Report)
		},
	}
}
