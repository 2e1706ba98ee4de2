// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// RunCommand chains ingest and analyze over a single metrics file
// (original_source/hb/cli.py's run()).
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "ingest then analyze a metrics file in one step",
		ArgsUsage: "<metrics.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run-meta", Usage: "path to a run_meta JSON file"},
			&cli.StringFlag{Name: "out", Usage: "output run directory"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := requireArg(c, 0, "metrics path")
			if err != nil {
				return err
			}
			runDir, err := ingest(c, path, c.String("run-meta"), c.String("out"))
			if err != nil {
				return err
			}
			reportDir, err := analyze(c, runDir)
			if err != nil {
				return err
			}
			fmt.Printf("run output: %s\n", reportDir)
			return nil
		},
	}
}
