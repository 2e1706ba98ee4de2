// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// NormalizeResult is the output of NormalizeMetrics: canonical metrics plus
// deduplicated, stably sorted warnings.
type NormalizeResult struct {
	Metrics  map[string]telemetry.Metric
	Warnings []string
}

// NormalizeMetrics canonicalizes raw metric rows against a registry:
// resolves aliases, coerces values to numbers, and applies unit conversion.
// Unknown metrics are dropped with a warning, never an error (§4.4).
func NormalizeMetrics(raw []telemetry.RawMetric, reg *registry.Registry) NormalizeResult {
	out := map[string]telemetry.Metric{}
	warnSet := map[string]struct{}{}

	for _, rm := range raw {
		canonical := reg.Resolve(rm.Name)
		if canonical == "" {
			warnSet["unknown metric: "+rm.Name] = struct{}{}
			continue
		}

		value, ok := toFloatValue(rm.Value)
		if !ok {
			warnSet["non-numeric value for metric: "+canonical] = struct{}{}
			continue
		}

		unit := rm.Unit
		cfg := reg.Metrics[canonical]
		if cfg != nil && value != nil {
			if factor, ok := cfg.UnitMap[registry.NormalizeAlias(unit)]; ok {
				v := *value * factor
				value = &v
				unit = cfg.Unit
			}
			// Open Question 2: no unit_map match keeps the original unit,
			// even when the config defines a canonical unit.
		}

		out[canonical] = telemetry.Metric{
			Name:  canonical,
			Value: value,
			Unit:  unit,
			Tags:  rm.Tags,
		}
	}

	warnings := make([]string, 0, len(warnSet))
	for w := range warnSet {
		warnings = append(warnings, w)
	}
	sort.Strings(warnings)

	return NormalizeResult{Metrics: out, Warnings: warnings}
}

// toFloatValue coerces a raw value to *float64. An empty string yields
// (nil, true) — a present-but-empty value, not an error.
func toFloatValue(v any) (*float64, bool) {
	switch n := v.(type) {
	case nil:
		return nil, true
	case float64:
		return &n, true
	case float32:
		f := float64(n)
		return &f, true
	case int:
		f := float64(n)
		return &f, true
	case int64:
		f := float64(n)
		return &f, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return &f, true
	default:
		return nil, false
	}
}
