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
	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/evidence"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// ingestRow is the JSON shape of one element of the JSON array in an ingest
// source file: a
// generic replacement for the teacher's source-specific adapters (spec's
// ingest boundary, §4.4 "raw metric rows").
type ingestRow struct {
	Metric string         `json:"metric"`
	Value  any            `json:"value"`
	Unit   string         `json:"unit"`
	Tags   telemetry.Tags `json:"tags,omitempty"`
}

type runMetaDoc struct {
	RunID         string `json:"run_id"`
	Program       string `json:"program"`
	Subsystem     string `json:"subsystem"`
	TestName      string `json:"test_name"`
	Environment   string `json:"environment"`
	BuildSHA      string `json:"build_sha"`
	BuildID       string `json:"build_id"`
	SourceSystem  string `json:"source_system"`
	CorrelationID string `json:"correlation_id"`
}

func readRunMeta(path string) (runMetaDoc, error) {
	if path == "" {
		return runMetaDoc{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return runMetaDoc{}, apperr.Parse("readRunMeta", err)
	}
	var doc runMetaDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return runMetaDoc{}, apperr.Parse("readRunMeta: parse json", err)
	}
	return doc, nil
}

func readIngestRows(path string) ([]telemetry.RawMetric, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Parse("readIngestRows", err)
	}
	var rows []ingestRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, apperr.Parse("readIngestRows: parse json", err)
	}

	out := make([]telemetry.RawMetric, 0, len(rows))
	for _, r := range rows {
		out = append(out, telemetry.RawMetric{Name: r.Metric, Value: r.Value, Unit: r.Unit, Tags: r.Tags})
	}
	return out, nil
}

// ingest normalizes a JSON metrics file against the registry and writes a
// run directory (spec §4.4's ingest boundary; grounded on
// original_source/hb/cli.py's ingest()).
func ingest(c *cli.Command, path, runMetaPath, outDir string) (string, error) {
	meta, err := readRunMeta(runMetaPath)
	if err != nil {
		return "", err
	}
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.SourceSystem == "" {
		meta.SourceSystem = "cli"
	}

	raw, err := readIngestRows(path)
	if err != nil {
		return "", err
	}

	reg, _, err := loadRegistry(c)
	if err != nil {
		return "", err
	}

	normalized := decision.NormalizeMetrics(raw, reg)

	if outDir == "" {
		outDir = filepath.Join("runs", meta.RunID)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", apperr.TransientIO("ingest", err)
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", apperr.Schema("ingest", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "run_meta_normalized.json"), metaBytes, 0o644); err != nil {
		return "", apperr.TransientIO("ingest", err)
	}

	if err := evidence.WriteMetricsCSV(filepath.Join(outDir, "metrics_normalized.csv"), normalized.Metrics); err != nil {
		return "", err
	}

	if len(normalized.Warnings) > 0 {
		warnBytes, _ := json.MarshalIndent(map[string][]string{"warnings": normalized.Warnings}, "", "  ")
		_ = os.WriteFile(filepath.Join(outDir, "ingest_warnings.json"), warnBytes, 0o644)
	}

	slog.Info("ingest complete", slog.String("run_id", meta.RunID), slog.String("out_dir", outDir))
	return outDir, nil
}

// IngestCommand normalizes a metrics file into a run directory.
func IngestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "normalize a JSON metrics file into a run directory",
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
			outDir, err := ingest(c, path, c.String("run-meta"), c.String("out"))
			if err != nil {
				return err
			}
			fmt.Printf("ingest output: %s\n", outDir)
			return nil
		},
	}
}

func persistRun(reg *store.RunRegistry, meta store.RunMeta, status store.RunStatus, baselineRunID, registryHash string, metrics map[string]telemetry.Metric) error {
	if err := reg.UpsertRun(meta, status, baselineRunID, registryHash); err != nil {
		return err
	}
	return reg.ReplaceMetrics(meta.RunID, metrics)
}

func runMetaFromDoc(doc runMetaDoc) store.RunMeta {
	return store.RunMeta{
		RunID:         doc.RunID,
		Program:       doc.Program,
		Subsystem:     doc.Subsystem,
		TestName:      doc.TestName,
		Environment:   doc.Environment,
		BuildSHA:      doc.BuildSHA,
		BuildID:       doc.BuildID,
		SourceSystem:  doc.SourceSystem,
		CorrelationID: doc.CorrelationID,
		StartUTC:      time.Now().UTC(),
	}
}

func runStatusOf(s decision.Status) store.RunStatus {
	switch s {
	case decision.StatusPass:
		return store.RunStatusPass
	case decision.StatusPassWithDrift:
		return store.RunStatusPassWithDrift
	case decision.StatusFail:
		return store.RunStatusFail
	default:
		return store.RunStatusNoMetrics
	}
}

