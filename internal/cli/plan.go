// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type planMetricRow struct {
	Name             string  `json:"name"`
	Critical         bool    `json:"critical"`
	DriftPersistence int     `json:"drift_persistence"`
	DriftThreshold   *float64 `json:"drift_threshold,omitempty"`
	DriftPercent     *float64 `json:"drift_percent,omitempty"`
	FailThreshold    *float64 `json:"fail_threshold,omitempty"`
	InvariantEq      *float64 `json:"invariant_eq,omitempty"`
	InvariantMin     *float64 `json:"invariant_min,omitempty"`
	InvariantMax     *float64 `json:"invariant_max,omitempty"`
}

// PlanCommand dumps the compiled comparison plan for a registry, useful for
// diagnosing what rules apply to a metric before running a comparison.
func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "dump the compiled metric comparison plan",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, plan, err := loadRegistry(c)
			if err != nil {
				return err
			}

			rows := make([]planMetricRow, len(plan.Names))
			for i, name := range plan.Names {
				rows[i] = planMetricRow{
					Name:             name,
					Critical:         plan.Critical[i],
					DriftPersistence: plan.DriftPersistence[i],
					DriftThreshold:   plan.DriftThreshold[i],
					DriftPercent:     plan.DriftPercent[i],
					FailThreshold:    plan.FailThreshold[i],
					InvariantEq:      plan.InvariantEq[i],
					InvariantMin:     plan.InvariantMin[i],
					InvariantMax:     plan.InvariantMax[i],
				}
			}

			return printJSON(rows)
		},
	}
}
