// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-hb/hb/internal/baseline"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

func floatPtr(f float64) *float64 { return &f }

func newTestRegistry(t *testing.T) *store.RunRegistry {
	t.Helper()
	s, err := store.NewStorage(store.WithInMemory())
	require.NoError(t, err)
	return store.NewRunRegistry(s)
}

func TestSelectBaseline_tagReasons(t *testing.T) {
	reg := newTestRegistry(t)

	sel, err := baseline.SelectBaseline(store.RunMeta{}, baseline.Policy{Tag: "golden"}, "", reg)
	require.NoError(t, err)
	assert.Equal(t, baseline.ReasonTagNotFound, sel.Reason)

	require.NoError(t, reg.UpsertRun(store.RunMeta{RunID: "run-1"}, store.RunStatusPass, "", ""))
	require.NoError(t, reg.SetTag("golden", "run-1", "hash-a"))

	sel, err = baseline.SelectBaseline(store.RunMeta{}, baseline.Policy{Tag: "golden"}, "hash-b", reg)
	require.NoError(t, err)
	assert.Equal(t, "run-1", sel.BaselineRunID)
	assert.Equal(t, baseline.ReasonTag, sel.Reason)
	assert.NotEmpty(t, sel.Warning, "mismatched registry hash must warn")
}

func TestSelectBaseline_lastPassThenFallback(t *testing.T) {
	reg := newTestRegistry(t)
	meta := store.RunMeta{Program: "p", Subsystem: "s", TestName: "t"}

	require.NoError(t, reg.UpsertRun(store.RunMeta{RunID: "run-fail", Program: "p", Subsystem: "s", TestName: "t"}, store.RunStatusFail, "", ""))
	sel, err := baseline.SelectBaseline(meta, baseline.Policy{}, "", reg)
	require.NoError(t, err)
	assert.Equal(t, baseline.ReasonNoPass, sel.Reason)

	sel, err = baseline.SelectBaseline(meta, baseline.Policy{Fallback: "latest"}, "", reg)
	require.NoError(t, err)
	assert.Equal(t, baseline.ReasonFallbackLatest, sel.Reason)
	assert.Equal(t, "run-fail", sel.BaselineRunID)

	require.NoError(t, reg.UpsertRun(store.RunMeta{RunID: "run-pass", Program: "p", Subsystem: "s", TestName: "t"}, store.RunStatusPass, "", ""))
	sel, err = baseline.SelectBaseline(meta, baseline.Policy{}, "", reg)
	require.NoError(t, err)
	assert.Equal(t, baseline.ReasonLastPass, sel.Reason)
	assert.Equal(t, "run-pass", sel.BaselineRunID)
}

func TestGovernance_requiresDistinctApprovalsThenTags(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.UpsertRun(store.RunMeta{RunID: "run-1"}, store.RunStatusPass, "", ""))

	policy := baseline.Policy{Governance: baseline.Governance{
		RequireApproval:   true,
		ApprovalsRequired: 2,
		Approvers:         []string{"alice", "bob"},
	}}

	requestID, err := baseline.RequestTag(reg, "run-1", "golden", "carol", "promote")
	require.NoError(t, err)

	err = baseline.Approve(reg, policy, requestID, "mallory", "")
	assert.Error(t, err, "non-approver must be rejected")

	require.NoError(t, baseline.Approve(reg, policy, requestID, "alice", "ok"))
	_, err = reg.GetTag("golden")
	assert.Error(t, err, "tag should not be set before enough approvals")

	require.NoError(t, baseline.Approve(reg, policy, requestID, "alice", "ok again"))
	_, err = reg.GetTag("golden")
	assert.Error(t, err, "duplicate approver must not count twice")

	require.NoError(t, baseline.Approve(reg, policy, requestID, "bob", "ok"))
	tag, err := reg.GetTag("golden")
	require.NoError(t, err)
	assert.Equal(t, "run-1", tag.RunID)
}

func TestComputeQuality_passedRequiresAllMinima(t *testing.T) {
	q := baseline.DefaultQuality()

	good := baseline.QualityInput{SampleSize: 100, TimeSpanSec: 7200, StabilityOK: true, NoAlerts: true, EnvironmentMatchScore: 0.95}
	result := baseline.ComputeQuality(good, q)
	assert.True(t, result.Passed)
	assert.InDelta(t, 0.99, result.Confidence, 1e-9)

	bad := baseline.QualityInput{SampleSize: 1, TimeSpanSec: 10, StabilityOK: false, NoAlerts: false, EnvironmentMatchScore: 0.1}
	result = baseline.ComputeQuality(bad, q)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Reasons)
	assert.Less(t, result.Confidence, 1.0)
}

func TestCheckDecay_agePlusDriftFraction(t *testing.T) {
	d := baseline.DefaultDecay()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	oldTimestamp := now.Add(-8 * 24 * time.Hour)

	base := map[string]telemetry.Metric{
		"a": {Name: "a", Value: floatPtr(100)},
		"b": {Name: "b", Value: floatPtr(100)},
		"c": {Name: "c", Value: floatPtr(100)},
	}
	current := map[string]telemetry.Metric{
		"a": {Name: "a", Value: floatPtr(200)},
		"b": {Name: "b", Value: floatPtr(205)},
		"c": {Name: "c", Value: floatPtr(100)},
	}

	result := baseline.CheckDecay(oldTimestamp, now, base, current, d)
	assert.True(t, result.Stale)
	assert.GreaterOrEqual(t, len(result.Reasons), 2)
}

func TestParseWindow(t *testing.T) {
	cases := map[string]time.Duration{
		"24h": 24 * time.Hour,
		"7d":  7 * 24 * time.Hour,
		"1h":  time.Hour,
		"30m": 30 * time.Minute,
	}
	for input, want := range cases {
		got, err := baseline.ParseWindow(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := baseline.ParseWindow("garbage")
	assert.Error(t, err)
}

func TestCreateBaselineFromWindow_aggregatesMedianAndTags(t *testing.T) {
	reg := newTestRegistry(t)
	now := time.Now().UTC()

	for i, v := range []float64{10, 20, 30} {
		runID := "run-" + string(rune('a'+i))
		require.NoError(t, reg.UpsertRun(store.RunMeta{RunID: runID, Program: "p", Subsystem: "s", TestName: "t"}, store.RunStatusPass, "", ""))
		require.NoError(t, reg.ReplaceMetrics(runID, map[string]telemetry.Metric{
			"latency_ms": {Name: "latency_ms", Value: floatPtr(v), Unit: "ms"},
		}))
	}

	runID, err := baseline.CreateBaselineFromWindow(reg, "24h", "p", "s", "t", "golden", now)
	require.NoError(t, err)

	metrics, err := reg.FetchMetrics(runID)
	require.NoError(t, err)
	require.Contains(t, metrics, "latency_ms")
	assert.InDelta(t, 20, *metrics["latency_ms"].Value, 1e-9)

	tag, err := reg.GetTag("golden")
	require.NoError(t, err)
	assert.Equal(t, runID, tag.RunID)
}
