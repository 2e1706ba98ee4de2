// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-hb/hb/internal/action"
	"github.com/sentinel-hb/hb/internal/baseline"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/streaming"
)

func writeTestRegistry(t *testing.T) (*registry.Registry, *registry.Plan) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
metrics:
  latency_ms:
    unit: ms
    drift_threshold: 1
`), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg, registry.CompilePlan(reg)
}

func TestOrchestrator_doCycleWritesReportAndChecksPoints(t *testing.T) {
	reg, plan := writeTestRegistry(t)

	storage, err := store.NewStorage(store.WithInMemory())
	require.NoError(t, err)
	runs := store.NewRunRegistry(storage)

	replayPath := filepath.Join(t.TempDir(), "replay.jsonl")
	require.NoError(t, os.WriteFile(replayPath, []byte(
		`{"run_meta":{"run_id":"run_1"},"metrics":[{"metric":"latency_ms","value":20,"unit":"ms"}]}`+"\n",
	), 0o644))
	source, err := NewFileReplaySource(replayPath)
	require.NoError(t, err)

	reportsDir := t.TempDir()
	cfg := Config{
		SystemID:                "hb-core-test",
		ReportsDir:              reportsDir,
		IntervalSec:             1,
		MaxReportDirs:           10,
		CheckpointHistoryMax:    10,
		CircuitFailureThreshold: 5,
		CircuitWindow:           time.Minute,
		CircuitOpenFor:          time.Second,
		WindowSpec:              streaming.WindowSpec{WindowSizeSec: 60, SlideSec: 60},
		WatermarkPolicy:         streaming.WatermarkPolicy{AllowedLatenessSec: 5},
		MaxBuckets:              8,
		Deterministic:           true,
		BaselinePolicy:          baseline.Policy{Fallback: "latest"},
		ActionPolicy:            action.Policy{Version: "v1", HBMode: action.ModeNormal},
	}

	orch, err := New(cfg, reg, plan,
		runs, source, []Sink{NewStdoutSink(os.Stdout)},
		filepath.Join(reportsDir, "audit_log.jsonl"),
		filepath.Join(reportsDir, "checkpoint.db"),
	)
	require.NoError(t, err)
	defer orch.Close()

	// Feed the evaluator directly, as pumpIngest would from the source.
	ev := orch.evaluator
	ev.Ingest(streaming.Event{Metric: "latency_ms", Value: 20, Unit: "ms"})

	require.NoError(t, orch.doCycle(context.Background()))

	entries, err := os.ReadDir(reportsDir)
	require.NoError(t, err)
	var reportDirs int
	for _, e := range entries {
		if e.IsDir() {
			reportDirs++
		}
	}
	assert.Equal(t, 1, reportDirs)

	cur, ok, err := orch.cps.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cur.CycleIndex)
}
