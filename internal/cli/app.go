// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package cli wires the hb binary's command tree: ingest, analyze, run,
// baseline governance, run listing, plan inspection, replay, decision
// verification, evidence export, the daemon, and runtime lookups.
package cli

import (
	"github.com/urfave/cli/v3"
)

// NewApp returns the root CLI command for the hb drift-detection engine.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "hb",
		Usage: "drift detection and policy-driven action engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "metric-registry",
				Usage:   "path to the metric registry YAML",
				Value:   "metric_registry.yaml",
				Sources: cli.EnvVars("HB_METRIC_REGISTRY"),
			},
			&cli.StringFlag{
				Name:    "baseline-policy",
				Usage:   "path to the baseline policy YAML",
				Value:   "baseline_policy.yaml",
				Sources: cli.EnvVars("HB_BASELINE_POLICY"),
			},
			&cli.StringFlag{
				Name:  "action-policy",
				Usage: "path to the action policy YAML",
				Value: "action_policy.yaml",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Postgres DSN; empty uses an in-memory store",
			},
			&cli.StringFlag{
				Name:  "reports",
				Usage: "directory reports are written under",
				Value: "reports",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "number of top drifts to keep in the drift report",
				Value: 5,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "TRACE, DEBUG, INFO, WARN, ERROR",
				Value:   "INFO",
				Sources: cli.EnvVars("HB_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "deterministic",
				Usage:   "disable wall-clock/random inputs where the engine allows it",
				Sources: cli.EnvVars("HB_DETERMINISTIC"),
			},
		},
		Commands: []*cli.Command{
			IngestCommand(),
			AnalyzeCommand(),
			RunCommand(),
			BaselineCommand(),
			RunsCommand(),
			PlanCommand(),
			ReplayCommand(),
			VerifyDecisionCommand(),
			ExportCommand(),
			DaemonCommand(),
			RuntimeCommand(),
		},
	}
}
