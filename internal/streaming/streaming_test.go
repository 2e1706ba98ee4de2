// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/streaming"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

func floatPtr(f float64) *float64 { return &f }

func loadTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	content := `
version: "1"
metrics:
  latency_ms:
    drift_threshold: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg
}

func TestBucketStarts_containsEventInAllOverlappingWindows(t *testing.T) {
	spec := streaming.WindowSpec{WindowSizeSec: 60, SlideSec: 30, AlignEpochSec: 0}
	starts := streaming.BucketStarts(100, spec)
	// windows: [90,150) contains 100; [60,120) contains 100
	assert.ElementsMatch(t, []float64{60, 90}, starts)
}

func TestBucketStarts_tumblingWindowYieldsOneBucket(t *testing.T) {
	spec := streaming.WindowSpec{WindowSizeSec: 60, SlideSec: 60, AlignEpochSec: 0}
	starts := streaming.BucketStarts(10, spec)
	require.Len(t, starts, 1)
}

func TestWatermarkTracker_lateBeforeObservation(t *testing.T) {
	wm := streaming.NewWatermarkTracker(streaming.WatermarkPolicy{AllowedLatenessSec: 10})
	assert.False(t, wm.IsLate(5), "no observation yet means nothing is late")

	wm.Observe(100)
	assert.True(t, wm.IsLate(85))
	assert.False(t, wm.IsLate(95))
}

func TestEvaluator_ingestAndEmitDecision(t *testing.T) {
	reg := loadTestRegistry(t)
	plan := registry.CompilePlan(reg)

	spec := streaming.WindowSpec{WindowSizeSec: 60, SlideSec: 60, AlignEpochSec: 0}
	wmPolicy := streaming.WatermarkPolicy{AllowedLatenessSec: 0, LateEventPolicy: streaming.LatePolicyDrop}
	ev := streaming.NewEvaluator(spec, wmPolicy, 100, true, reg, plan, 0)

	for _, v := range []float64{10, 12, 14} {
		outcome := ev.Ingest(streaming.Event{EventTime: floatPtr(30), Metric: "latency_ms", Value: v})
		assert.Equal(t, streaming.OutcomeAccepted, outcome)
	}

	baseline := map[string]telemetry.Metric{
		"latency_ms": {Name: "latency_ms", Value: floatPtr(11)},
	}

	snapshot, ok := ev.EmitDecision(baseline, false, streaming.ConfigRef{RegistryHash: reg.Hash}, "test")
	require.True(t, ok)
	assert.Equal(t, 1, snapshot.InputSliceRef.MetricCount)
	assert.Greater(t, snapshot.DecisionLatencySec, -1.0)
}

func TestEvaluator_lateEventDropped(t *testing.T) {
	reg := loadTestRegistry(t)
	plan := registry.CompilePlan(reg)
	spec := streaming.WindowSpec{WindowSizeSec: 60, SlideSec: 60, AlignEpochSec: 0}
	wmPolicy := streaming.WatermarkPolicy{AllowedLatenessSec: 5, LateEventPolicy: streaming.LatePolicyDrop}
	ev := streaming.NewEvaluator(spec, wmPolicy, 10, true, reg, plan, 0)

	ev.Ingest(streaming.Event{EventTime: floatPtr(100), Metric: "latency_ms", Value: 10})
	outcome := ev.Ingest(streaming.Event{EventTime: floatPtr(50), Metric: "latency_ms", Value: 99})
	assert.Equal(t, streaming.OutcomeDropped, outcome)
}
