// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package evidence

import (
	"sort"

	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// ReplayInput is everything needed to deterministically rerun §4.4.
type ReplayInput struct {
	InputSlice          []telemetry.RawMetric
	Baseline            map[string]telemetry.Metric
	Registry            *registry.Registry
	Plan                *registry.Plan
	DistributionEnabled bool
}

// ReplayResult is the reproduced decision payload plus the config hashes it
// was computed against.
type ReplayResult struct {
	Report       decision.Report
	ConfigHashes map[string]string
}

// Replay reruns normalize_metrics + compare_metrics deterministically
// (spec §4.7 "Replay"). Given identical inputs it reproduces a
// bit-identical decision.Report, because CompareMetrics itself is pure and
// fully ordered.
func Replay(in ReplayInput) ReplayResult {
	normalized := decision.NormalizeMetrics(in.InputSlice, in.Registry)
	report := decision.CompareMetrics(normalized.Metrics, in.Baseline, in.Registry, in.Plan, in.DistributionEnabled)
	report.Warnings = mergeWarnings(normalized.Warnings, report.Warnings)

	hashes := map[string]string{}
	if in.Registry != nil {
		hashes["registry"] = in.Registry.Hash
	}

	return ReplayResult{Report: report, ConfigHashes: hashes}
}

func mergeWarnings(a, b []string) []string {
	set := map[string]struct{}{}
	for _, w := range a {
		set[w] = struct{}{}
	}
	for _, w := range b {
		set[w] = struct{}{}
	}
	merged := make([]string, 0, len(set))
	for w := range set {
		merged = append(merged, w)
	}
	sort.Strings(merged)
	return merged
}
