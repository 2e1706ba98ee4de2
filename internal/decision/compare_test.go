// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func metric(v float64) telemetry.Metric {
	return telemetry.Metric{Value: &v}
}

func TestCompareMetrics_S1_pass(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  m1:
    drift_threshold: 1.0
`)
	current := map[string]telemetry.Metric{"m1": metric(10.0)}
	baseline := map[string]telemetry.Metric{"m1": metric(10.0)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	assert.Equal(t, StatusPass, r.Status)
	assert.Empty(t, r.Drift)
}

func TestCompareMetrics_S2_driftAbsolute(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  m1:
    drift_threshold: 1.0
`)
	current := map[string]telemetry.Metric{"m1": metric(12.0)}
	baseline := map[string]telemetry.Metric{"m1": metric(10.0)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	require.Len(t, r.Drift, 1)
	assert.Equal(t, StatusPassWithDrift, r.Status)
	assert.Equal(t, "m1", r.Drift[0].Metric)
	assert.InDelta(t, 2.0, r.Drift[0].Delta, 1e-9)
}

func TestCompareMetrics_S3_minEffectSuppresses(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  m1:
    drift_threshold: 0.5
    min_effect: 5.0
`)
	current := map[string]telemetry.Metric{"m1": metric(10.6)}
	baseline := map[string]telemetry.Metric{"m1": metric(10.0)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	assert.Equal(t, StatusPass, r.Status)
	assert.Empty(t, r.Drift)
}

func TestCompareMetrics_S4_criticalFail(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  reset_count:
    critical: true
`)
	current := map[string]telemetry.Metric{"reset_count": metric(1)}
	baseline := map[string]telemetry.Metric{"reset_count": metric(0)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	assert.Equal(t, StatusFail, r.Status)
	assert.Equal(t, []string{"reset_count"}, r.Fail)
	assert.Equal(t, []string{"reset_count"}, r.CriticalFail)
}

func TestCompareMetrics_invariantViolationIsNotCriticalFail(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  queue_depth:
    invariant_max: 10
`)
	current := map[string]telemetry.Metric{"queue_depth": metric(11)}
	baseline := map[string]telemetry.Metric{"queue_depth": metric(5)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	assert.Equal(t, StatusFail, r.Status)
	assert.Equal(t, []string{"queue_depth"}, r.Fail)
	assert.Empty(t, r.CriticalFail)
}

func TestCompareMetrics_S5_ksDistributionDrift(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  x:
    drift_threshold: 1000000
    distribution_drift:
      ks_threshold: 0.3
`)

	baseSamples := make([]float64, 100)
	curSamples := make([]float64, 100)
	for i := 0; i < 100; i++ {
		baseSamples[i] = float64(i + 1)
		curSamples[i] = float64(i + 51)
	}

	current := map[string]telemetry.Metric{"x": {Value: floatPtr(100), Tags: telemetry.Tags{"samples": curSamples}}}
	baseline := map[string]telemetry.Metric{"x": {Value: floatPtr(50), Tags: telemetry.Tags{"samples": baseSamples}}}

	r := CompareMetrics(current, baseline, reg, plan, true)
	assert.Equal(t, StatusPassWithDrift, r.Status)
	require.Len(t, r.DistDrifts, 1)
	assert.InDelta(t, 0.5, r.DistDrifts[0].Statistic, 0.05)
}

func TestCompareMetrics_orderingTieBreak(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  b_metric:
    drift_threshold: 1.0
  a_metric:
    drift_threshold: 1.0
`)
	current := map[string]telemetry.Metric{
		"a_metric": metric(15.0),
		"b_metric": metric(15.0),
	}
	baseline := map[string]telemetry.Metric{
		"a_metric": metric(10.0),
		"b_metric": metric(10.0),
	}

	r := CompareMetrics(current, baseline, reg, plan, false)
	require.Len(t, r.Drift, 2)
	// Equal |delta|: tie-break by canonical name ascending.
	assert.Equal(t, "a_metric", r.Drift[0].Metric)
	assert.Equal(t, "b_metric", r.Drift[1].Metric)
}

func TestCompareMetrics_missingCurrentWarns(t *testing.T) {
	reg, plan := loadTestRegistry(t, `
version: "1"
metrics:
  m1:
    drift_threshold: 1.0
`)
	current := map[string]telemetry.Metric{}
	baseline := map[string]telemetry.Metric{"m1": metric(10.0)}

	r := CompareMetrics(current, baseline, reg, plan, false)
	assert.Equal(t, StatusNoMetrics, r.Status)
	assert.Contains(t, r.Warnings, "missing current metric: m1")
}

func floatPtr(f float64) *float64 { return &f }
