// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package evidence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

func loadTestRegistry(t *testing.T, yaml string) (*registry.Registry, *registry.Plan) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg, registry.CompilePlan(reg)
}

const testRegistryYAML = `
version: "1"
metrics:
  latency_ms:
    unit: ms
    drift_threshold: 5
`

func floatPtr(f float64) *float64 { return &f }

func TestComputeConfigHash_orderIndependent(t *testing.T) {
	a := ComputeConfigHash(map[string]string{"registry": "abc", "policy": "def"})
	b := ComputeConfigHash(map[string]string{"policy": "def", "registry": "abc"})
	assert.Equal(t, a, b)

	c := ComputeConfigHash(map[string]string{"registry": "abc", "policy": "xyz"})
	assert.NotEqual(t, a, c)
}

func TestBuildDecisionRecord_triggerMetricsAreSortedUnion(t *testing.T) {
	report := decision.Report{
		Status: decision.StatusFail,
		Drift:  []decision.DriftEntry{{Metric: "latency_ms"}},
		Fail:   []string{"error_rate"},
	}

	rec := BuildDecisionRecord(report, BuildParams{
		DecisionID:   "dec_1",
		Timestamp:    time.Unix(0, 0).UTC(),
		RunID:        "run_1",
		ConfigHashes: map[string]string{"registry": "abc"},
		Reason:       "fail threshold exceeded",
	})

	assert.Equal(t, SchemaVersion, rec.SchemaVersion)
	assert.Equal(t, []string{"error_rate", "latency_ms"}, rec.TriggerMetrics)
	assert.Equal(t, ComputeConfigHash(map[string]string{"registry": "abc"}), rec.ConfigHash)
}

func TestBuildPack_writesHashedManifest(t *testing.T) {
	dir := t.TempDir()
	manifest, err := BuildPack(dir, "case_1", "v1.0.0", "sbom_hash", time.Unix(0, 0).UTC(), map[string][]byte{
		"decision_record.json": []byte(`{"status":"PASS"}`),
		"metrics_normalized.csv": []byte("metric,value,unit,tags\n"),
	})
	require.NoError(t, err)
	require.Len(t, manifest.Artifacts, 2)

	for _, entry := range manifest.Artifacts {
		want, err := FileHash(filepath.Join(dir, entry.Path))
		require.NoError(t, err)
		assert.Equal(t, want, entry.SHA256)
	}

	_, err = os.Stat(filepath.Join(dir, "manifest.json"))
	assert.NoError(t, err)
}

func TestArchive_bundlesAllFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world"), 0o644))

	archivePath := filepath.Join(t.TempDir(), "evidence.zip")
	require.NoError(t, Archive(dir, archivePath))

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestMetricsCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	metrics := map[string]telemetry.Metric{
		"latency_ms": {Value: floatPtr(12.5), Unit: "ms"},
		"error_rate": {Value: floatPtr(0.01), Unit: "ratio", Tags: telemetry.Tags{"env": "prod"}},
	}

	require.NoError(t, WriteMetricsCSV(path, metrics))
	raw, err := ReadMetricsCSV(path)
	require.NoError(t, err)
	require.Len(t, raw, 2)

	byName := map[string]telemetry.RawMetric{}
	for _, r := range raw {
		byName[r.Name] = r
	}
	assert.Equal(t, "12.5", byName["latency_ms"].Value)
	assert.Equal(t, "prod", byName["error_rate"].Tags["env"])
}

func TestBaselineSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline_snapshot.json")
	metrics := map[string]telemetry.Metric{"latency_ms": {Value: floatPtr(10), Unit: "ms"}}

	require.NoError(t, WriteBaselineSnapshot(path, metrics))
	got, err := ReadBaselineSnapshot(path)
	require.NoError(t, err)
	require.Contains(t, got, "latency_ms")
	assert.InDelta(t, 10, *got["latency_ms"].Value, 1e-9)
}

func TestReplay_isDeterministicAndMergesWarnings(t *testing.T) {
	reg, plan := loadTestRegistry(t, testRegistryYAML)
	in := ReplayInput{
		InputSlice: []telemetry.RawMetric{
			{Name: "latency_ms", Value: 20.0, Unit: "ms"},
			{Name: "unknown_metric", Value: 1.0},
		},
		Baseline: map[string]telemetry.Metric{"latency_ms": {Value: floatPtr(10), Unit: "ms"}},
		Registry: reg,
		Plan:     plan,
	}

	r1 := Replay(in)
	r2 := Replay(in)

	assert.Equal(t, r1.Report.Status, r2.Report.Status)
	assert.Equal(t, r1.Report.Warnings, r2.Report.Warnings)
	assert.Contains(t, r1.Report.Warnings, "unknown metric: unknown_metric")
	assert.Equal(t, reg.Hash, r1.ConfigHashes["registry"])
}

func TestVerify_roundTripMatchesAndVerifies(t *testing.T) {
	reg, plan := loadTestRegistry(t, testRegistryYAML)
	raw := []telemetry.RawMetric{{Name: "latency_ms", Value: 20.0, Unit: "ms"}}
	baseline := map[string]telemetry.Metric{"latency_ms": {Value: floatPtr(10), Unit: "ms"}}

	replay := Replay(ReplayInput{InputSlice: raw, Baseline: baseline, Registry: reg, Plan: plan})

	dir := t.TempDir()
	metrics := map[string]telemetry.Metric{"latency_ms": {Value: floatPtr(20.0), Unit: "ms"}}
	require.NoError(t, WriteMetricsCSV(filepath.Join(dir, "metrics_normalized.csv"), metrics))
	require.NoError(t, WriteBaselineSnapshot(filepath.Join(dir, "baseline_snapshot.json"), baseline))

	rec := BuildDecisionRecord(replay.Report, BuildParams{
		DecisionID:   "dec_1",
		Timestamp:    time.Unix(0, 0).UTC(),
		RunID:        "run_1",
		ConfigHashes: replay.ConfigHashes,
	})
	recBytes, err := json.MarshalIndent(rec, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decision_record.json"), recBytes, 0o644))

	result, err := Verify(dir, reg, plan, false, nil)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.True(t, result.Verified)
}

func TestVerify_statusMismatchIsNotMatch(t *testing.T) {
	reg, plan := loadTestRegistry(t, testRegistryYAML)
	baseline := map[string]telemetry.Metric{"latency_ms": {Value: floatPtr(10), Unit: "ms"}}

	dir := t.TempDir()
	require.NoError(t, WriteMetricsCSV(filepath.Join(dir, "metrics_normalized.csv"), map[string]telemetry.Metric{
		"latency_ms": {Value: floatPtr(20.0), Unit: "ms"},
	}))
	require.NoError(t, WriteBaselineSnapshot(filepath.Join(dir, "baseline_snapshot.json"), baseline))

	rec := DecisionRecord{SchemaVersion: SchemaVersion, Status: decision.StatusPass, ConfigHash: "deadbeef"}
	recBytes, err := json.MarshalIndent(rec, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decision_record.json"), recBytes, 0o644))

	result, err := Verify(dir, reg, plan, false, nil)
	require.NoError(t, err)
	assert.False(t, result.Match)
	assert.False(t, result.Verified)
}

func TestAuditLog_chainsAndVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_log.jsonl")
	log, err := OpenAuditLog(path)
	require.NoError(t, err)

	e1, err := log.Append("run_1", "decision_emitted", map[string]any{"status": "PASS"})
	require.NoError(t, err)
	assert.Empty(t, e1.PrevHash)
	assert.NotEmpty(t, e1.EntryHash)

	e2, err := log.Append("run_1", "evidence_packed", map[string]any{"case_id": "case_1"})
	require.NoError(t, err)
	assert.Equal(t, e1.EntryHash, e2.PrevHash)

	reopened, err := OpenAuditLog(path)
	require.NoError(t, err)
	e3, err := reopened.Append("run_1", "action_executed", map[string]any{"action_id": "act_1"})
	require.NoError(t, err)
	assert.Equal(t, e2.EntryHash, e3.PrevHash)

	issues, err := VerifyAuditLog(path)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestAuditLog_detectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_log.jsonl")
	log, err := OpenAuditLog(path)
	require.NoError(t, err)

	_, err = log.Append("run_1", "decision_emitted", map[string]any{"status": "PASS"})
	require.NoError(t, err)
	_, err = log.Append("run_1", "evidence_packed", map[string]any{"case_id": "case_1"})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := append(contents, []byte(`{"ts_utc":"2025-01-01T00:00:00Z","run_id":"run_1","action":"tampered","details":{},"prev_hash":"notreal","entry_hash":"notreal"}`+"\n")...)
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	issues, err := VerifyAuditLog(path)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}

func TestFileHash_matchesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	h1, err := FileHash(path)
	require.NoError(t, err)
	h2, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}
