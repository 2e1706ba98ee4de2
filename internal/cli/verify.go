// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/evidence"
)

// VerifyDecisionCommand re-executes a decision_record.json's replay and
// checks status/config_hash equality (spec §4.7 Verify).
func VerifyDecisionCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-decision",
		Usage:     "verify a decision record against its evidence artifacts",
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

			result, err := evidence.Verify(evidenceDir, reg, plan, c.Bool("distribution"), map[string]string{"registry": reg.Hash})
			if err != nil {
				return err
			}

			fmt.Printf("match: %v, verified: %v, reason: %s\n", result.Match, result.Verified, result.Reason)
			if !result.Verified {
				return fmt.Errorf("verification failed: %s", result.Reason)
			}
			return nil
		},
	}
}
