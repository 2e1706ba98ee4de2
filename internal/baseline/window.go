// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// ParseWindow parses a window expression like "24h", "7d", "1h", "30m",
// grounded on original_source/hb/baseline.py's _parse_window.
func ParseWindow(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperr.Config("ParseWindow", fmt.Errorf("empty window expression"))
	}

	unit := s[len(s)-1]
	numPart := s[:len(s)-1]
	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, apperr.Config("ParseWindow", fmt.Errorf("invalid window expression %q: %w", s, err))
	}

	switch unit {
	case 's':
		return time.Duration(n * float64(time.Second)), nil
	case 'm':
		return time.Duration(n * float64(time.Minute)), nil
	case 'h':
		return time.Duration(n * float64(time.Hour)), nil
	case 'd':
		return time.Duration(n * 24 * float64(time.Hour)), nil
	default:
		return 0, apperr.Config("ParseWindow", fmt.Errorf("unrecognized window unit in %q", s))
	}
}

// AggregateMetrics computes the per-metric median across a set of runs'
// metric maps, grounded on original_source/hb/baseline.py's
// _aggregate_metrics.
func AggregateMetrics(runsMetrics []map[string]telemetry.Metric) map[string]telemetry.Metric {
	samples := map[string][]float64{}
	units := map[string]string{}

	for _, metrics := range runsMetrics {
		for name, m := range metrics {
			if m.Value == nil {
				continue
			}
			samples[name] = append(samples[name], *m.Value)
			if _, ok := units[name]; !ok {
				units[name] = m.Unit
			}
		}
	}

	out := make(map[string]telemetry.Metric, len(samples))
	for name, values := range samples {
		sort.Float64s(values)
		med := median(values)
		out[name] = telemetry.Metric{Name: name, Value: &med, Unit: units[name]}
	}
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// CreateBaselineFromWindow aggregates every run in [now-window, now] matching
// the given identity into a synthetic baseline run, persists it, and
// optionally tags it. The synthetic run_id follows
// original_source/hb/baseline.py's naming: baseline_v_<unix_ts>_<uuid8>.
func CreateBaselineFromWindow(reg *store.RunRegistry, window string, program, subsystem, testName, tag string, now time.Time) (string, error) {
	dur, err := ParseWindow(window)
	if err != nil {
		return "", err
	}

	since := now.Add(-dur)
	runs, err := reg.ListRunsSince(since)
	if err != nil {
		return "", err
	}

	var matched []map[string]telemetry.Metric
	for _, run := range runs {
		if run.Program != program || run.Subsystem != subsystem || run.TestName != testName {
			continue
		}
		metrics, err := reg.FetchMetrics(run.RunID)
		if err != nil {
			return "", err
		}
		matched = append(matched, metrics)
	}
	if len(matched) == 0 {
		return "", apperr.Registry("CreateBaselineFromWindow", fmt.Errorf("no runs found in window %q for %s/%s/%s", window, program, subsystem, testName))
	}

	aggregated := AggregateMetrics(matched)

	runID := fmt.Sprintf("baseline_v_%d_%s", now.Unix(), uuid.NewString()[:8])
	meta := store.RunMeta{
		RunID:     runID,
		Program:   program,
		Subsystem: subsystem,
		TestName:  testName,
		StartUTC:  since,
		EndUTC:    now,
	}
	if err := reg.UpsertRun(meta, store.RunStatusPass, "", ""); err != nil {
		return "", err
	}
	if err := reg.ReplaceMetrics(runID, aggregated); err != nil {
		return "", err
	}

	if tag != "" {
		if err := reg.SetTag(tag, runID, ""); err != nil {
			return "", err
		}
	}

	return runID, nil
}
