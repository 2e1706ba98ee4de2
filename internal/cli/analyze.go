// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/baseline"
	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/evidence"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// analyze evaluates a previously ingested run directory against its
// selected baseline, writes the report pair, and persists the run (spec
// §4.3/§4.4; grounded on original_source/hb/cli.py's analyze()).
func analyze(c *cli.Command, runDir string) (string, error) {
	metaPath := filepath.Join(runDir, "run_meta_normalized.json")
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return "", apperr.Parse("analyze", err)
	}
	var doc runMetaDoc
	if err := json.Unmarshal(metaBytes, &doc); err != nil {
		return "", apperr.Parse("analyze: parse run_meta", err)
	}
	if doc.RunID == "" {
		return "", apperr.Config("analyze", fmt.Errorf("run_meta_normalized.json has no run_id"))
	}

	reg, plan, err := loadRegistry(c)
	if err != nil {
		return "", err
	}
	baselinePolicy, err := loadBaselinePolicy(c)
	if err != nil {
		return "", err
	}
	runs, err := openRunRegistry(c)
	if err != nil {
		return "", err
	}

	current, err := evidence.ReadMetricsCSV(filepath.Join(runDir, "metrics_normalized.csv"))
	if err != nil {
		return "", err
	}
	currentNormalized := decision.NormalizeMetrics(current, reg)

	meta := runMetaFromDoc(doc)
	sel, err := baseline.SelectBaseline(meta, baselinePolicy, reg.Hash, runs)
	if err != nil {
		return "", err
	}

	baselineMetricsMap, err := fetchBaselineMetrics(runs, sel.BaselineRunID)
	if err != nil {
		return "", err
	}

	report := decision.CompareMetrics(currentNormalized.Metrics, baselineMetricsMap, reg, plan, false)
	report.Warnings = append(report.Warnings, currentNormalized.Warnings...)

	reportDir := filepath.Join(c.Root().String("reports"), doc.RunID)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", apperr.TransientIO("analyze", err)
	}

	doc2 := decision.BuildDriftReportDoc(doc.RunID, report, sel.BaselineRunID, sel.Reason, sel.Warning, c.Root().Int("top"))
	if err := writeJSONDoc(filepath.Join(reportDir, "drift_report.json"), doc2); err != nil {
		return "", err
	}

	decisionID := "dec_" + uuid.NewString()
	rec := evidence.BuildDecisionRecord(report, evidence.BuildParams{
		DecisionID:    decisionID,
		Timestamp:     time.Now().UTC(),
		RunID:         doc.RunID,
		BaselineRunID: sel.BaselineRunID,
		PolicyVersion: "1.0",
		ConfigHashes:  map[string]string{"registry": reg.Hash},
	})
	if err := writeJSONDoc(filepath.Join(reportDir, "decision_record.json"), rec); err != nil {
		return "", err
	}

	if err := evidence.WriteMetricsCSV(filepath.Join(reportDir, "metrics_normalized.csv"), currentNormalized.Metrics); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(reportDir, "run_meta_normalized.json"), metaBytes, 0o644); err != nil {
		return "", apperr.TransientIO("analyze", err)
	}

	status := runStatusOf(report.Status)
	if err := persistRun(runs, meta, status, sel.BaselineRunID, reg.Hash, currentNormalized.Metrics); err != nil {
		return "", err
	}

	if sel.BaselineRunID != "" {
		fmt.Printf("baseline: %s (%s)\n", sel.BaselineRunID, sel.Reason)
	} else {
		fmt.Printf("baseline: none (%s)\n", sel.Reason)
	}
	if sel.Warning != "" {
		fmt.Printf("baseline warning: %s\n", sel.Warning)
	}

	slog.Info("analyze complete", slog.String("run_id", doc.RunID), slog.String("status", string(report.Status)))
	return reportDir, nil
}

func fetchBaselineMetrics(runs *store.RunRegistry, baselineRunID string) (map[string]telemetry.Metric, error) {
	if baselineRunID == "" {
		return map[string]telemetry.Metric{}, nil
	}
	return runs.FetchMetrics(baselineRunID)
}

func writeJSONDoc(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Schema("writeJSONDoc", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return apperr.TransientIO("writeJSONDoc", err)
	}
	return nil
}

// AnalyzeCommand evaluates an ingested run directory against its baseline.
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "evaluate a run directory against its selected baseline",
		ArgsUsage: "<run-dir>",
		Action: func(ctx context.Context, c *cli.Command) error {
			runDir, err := requireArg(c, 0, "run directory")
			if err != nil {
				return err
			}
			reportDir, err := analyze(c, runDir)
			if err != nil {
				return err
			}
			fmt.Printf("report output: %s\n", reportDir)
			return nil
		},
	}
}
