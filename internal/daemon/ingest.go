// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package daemon implements C8: the long-running ingest/normalize/decide
// loop, its circuit breaker and checkpoint history, and the narrow ingest
// source / alert sink collaborator interfaces.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// IngestBatch is one unit of work handed from a Source to the orchestrator:
// the run this batch belongs to, plus its raw metric rows.
type IngestBatch struct {
	RunMeta store.RunMeta
	Metrics []telemetry.RawMetric
}

// Source is the narrow collaborator interface for ingest drivers
// (spec §6: file replay, MQTT, syslog, Kafka). Next returns io.EOF when the
// source is exhausted; ctx governs the read's deadline/cancellation (spec
// §5 "any long-running external call must honor a caller-supplied
// deadline").
type Source interface {
	Next(ctx context.Context) (IngestBatch, error)
	Close() error
}

// fileReplayRow is one line of a file-replay ingest source: a run_meta
// object plus its raw metric rows, mirroring the shape
// original_source/hb/ingest/sources write for offline replay.
type fileReplayRow struct {
	RunMeta struct {
		RunID       string `json:"run_id"`
		Program     string `json:"program"`
		Subsystem   string `json:"subsystem"`
		TestName    string `json:"test_name"`
		Environment string `json:"environment"`
	} `json:"run_meta"`
	Metrics []struct {
		Name  string         `json:"metric"`
		Value any            `json:"value"`
		Unit  string         `json:"unit"`
		Tags  telemetry.Tags `json:"tags,omitempty"`
	} `json:"metrics"`
}

// FileReplaySource reads IngestBatches from a JSONL file, one batch per
// line, deterministically in file order. It is the reference ingest
// implementation used for deterministic replay/dev/test (spec's supplemented
// feature 5) — Kafka/MQTT/syslog sources remain external and out of scope.
type FileReplaySource struct {
	f       *os.File
	scanner *bufio.Scanner
}

// NewFileReplaySource opens path for line-by-line ingest.
func NewFileReplaySource(path string) (*FileReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.TransientIO("NewFileReplaySource", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &FileReplaySource{f: f, scanner: scanner}, nil
}

// Next reads and parses the next line, skipping blank lines.
func (s *FileReplaySource) Next(ctx context.Context) (IngestBatch, error) {
	if err := ctx.Err(); err != nil {
		return IngestBatch{}, apperr.Cancelled("FileReplaySource.Next", err)
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row fileReplayRow
		if err := json.Unmarshal(line, &row); err != nil {
			return IngestBatch{}, apperr.Parse("FileReplaySource.Next", err)
		}

		batch := IngestBatch{
			RunMeta: store.RunMeta{
				RunID:       row.RunMeta.RunID,
				Program:     row.RunMeta.Program,
				Subsystem:   row.RunMeta.Subsystem,
				TestName:    row.RunMeta.TestName,
				Environment: row.RunMeta.Environment,
			},
		}
		for _, m := range row.Metrics {
			batch.Metrics = append(batch.Metrics, telemetry.RawMetric{
				Name: m.Name, Value: m.Value, Unit: m.Unit, Tags: m.Tags,
			})
		}
		return batch, nil
	}

	if err := s.scanner.Err(); err != nil {
		return IngestBatch{}, apperr.TransientIO("FileReplaySource.Next", err)
	}
	return IngestBatch{}, io.EOF
}

// Close releases the underlying file handle.
func (s *FileReplaySource) Close() error {
	return s.f.Close()
}
