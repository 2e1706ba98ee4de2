// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package registry owns the canonical metric catalog: aliases, units, unit
// conversions, thresholds, invariants, and criticality, compiled into a
// ComparePlan for cache-friendly scanning.
package registry

// DistributionDrift configures the two-sample KS test for a metric.
type DistributionDrift struct {
	KSThreshold float64 `yaml:"ks_threshold"`
}

// MetricConfig is the per-canonical-name configuration entry.
type MetricConfig struct {
	Aliases []string `yaml:"aliases"`

	Unit    string             `yaml:"unit"`
	UnitMap map[string]float64 `yaml:"unit_map"`

	DriftThreshold *float64 `yaml:"drift_threshold"`
	DriftPercent   *float64 `yaml:"drift_percent"`
	MinEffect      *float64 `yaml:"min_effect"`
	FailThreshold  *float64 `yaml:"fail_threshold"`

	InvariantEq  *float64 `yaml:"invariant_eq"`
	InvariantMin *float64 `yaml:"invariant_min"`
	InvariantMax *float64 `yaml:"invariant_max"`

	Critical          bool               `yaml:"critical"`
	DriftPersistence  int                `yaml:"drift_persistence"`
	DistributionDrift *DistributionDrift `yaml:"distribution_drift"`

	SourceColumns []string `yaml:"source_columns"`
}

// hasRule reports whether the metric has at least one evaluable rule, which
// load() requires for every entry.
func (m *MetricConfig) hasRule() bool {
	return m.DriftThreshold != nil || m.DriftPercent != nil ||
		m.InvariantEq != nil || m.InvariantMin != nil || m.InvariantMax != nil ||
		m.Critical
}

// Registry is the canonical metric catalog loaded from a registry YAML file.
type Registry struct {
	Version    string                  `yaml:"version"`
	Metrics    map[string]*MetricConfig `yaml:"metrics"`
	AliasIndex map[string]string        `yaml:"-"`

	// Hash is the SHA-256 of the source file bytes, used as registry_hash
	// elsewhere (C2, C7).
	Hash string `yaml:"-"`
}

// Resolve returns the canonical metric name for a raw name or alias, or ""
// if unknown.
func (r *Registry) Resolve(raw string) string {
	norm := NormalizeAlias(raw)
	if canonical, ok := r.AliasIndex[norm]; ok {
		return canonical
	}
	// A raw name that is itself already canonical resolves to itself.
	if _, ok := r.Metrics[raw]; ok {
		return raw
	}
	return ""
}
