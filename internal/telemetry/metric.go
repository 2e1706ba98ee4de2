// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package telemetry holds the shared data-model types for metrics carried
// across the registry, decision, streaming, and store components.
package telemetry

// Tags carries free-form per-metric metadata. Samples, when present, is the
// numeric sample list used for distribution tests and attribution.
type Tags map[string]any

// Samples extracts a numeric sample list from Tags["samples"], accepting
// either []float64 or []any of numeric values. Returns nil if absent or not
// numeric.
func (t Tags) Samples() []float64 {
	if t == nil {
		return nil
	}
	raw, ok := t["samples"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return nil
			}
			out = append(out, f)
		}
		return out
	default:
		return nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Metric is a raw or normalized metric value as carried in ingest events,
// run rows, and decision inputs.
type Metric struct {
	Name  string `json:"metric"`
	Value *float64
	Unit  string `json:"unit"`
	Tags  Tags   `json:"tags,omitempty"`
}

// RawMetric is an unnormalized metric as received at the boundary: its raw
// name may be an alias, and its value may still be a numeric string.
type RawMetric struct {
	Name  string
	Value any
	Unit  string
	Tags  Tags
}
