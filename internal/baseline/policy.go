// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package baseline implements C3, baseline governance: selection,
// the tag/request/approval workflow, quality scoring, decay detection, and
// window-based baseline construction.
package baseline

// Policy configures baseline selection and governance for a test
// identity (program, subsystem, test_name).
type Policy struct {
	Tag        string     `yaml:"tag,omitempty"`
	Fallback   string     `yaml:"fallback,omitempty"` // "latest" or ""
	Governance Governance `yaml:"governance"`
	Quality    Quality    `yaml:"quality"`
	Decay      Decay      `yaml:"decay"`
}

// Governance is the tagging-workflow configuration.
type Governance struct {
	RequireApproval   bool     `yaml:"require_approval"`
	ApprovalsRequired int      `yaml:"approvals_required"`
	Approvers         []string `yaml:"approvers"`
}

// Quality is the per-signal weighting and minima used by ComputeQuality.
type Quality struct {
	MinSampleSize            int     `yaml:"min_sample_size"`
	MinTimeSpanSec           float64 `yaml:"min_time_span_sec"`
	MinEnvironmentMatchScore float64 `yaml:"min_environment_match_score"`

	WeightSample    float64 `yaml:"weight_sample"`
	WeightStability float64 `yaml:"weight_stability"`
	WeightAlerts    float64 `yaml:"weight_alerts"`
	WeightEnv       float64 `yaml:"weight_env"`
}

// Decay is the staleness-check configuration (original_source/hb/baseline_decay.py).
type Decay struct {
	MaxAgeSec        float64 `yaml:"max_age_sec"`
	MinMetrics       int     `yaml:"min_metrics"`
	MaxDriftFraction float64 `yaml:"max_drift_fraction"`
}

// DefaultQuality mirrors the Python reference implementation's default
// policy weights (sample=0.2, stability=0.3, alerts=0.3, env=0.2).
func DefaultQuality() Quality {
	return Quality{
		MinSampleSize:            30,
		MinTimeSpanSec:           3600,
		MinEnvironmentMatchScore: 0.8,
		WeightSample:             0.2,
		WeightStability:          0.3,
		WeightAlerts:             0.3,
		WeightEnv:                0.2,
	}
}

// DefaultDecay mirrors the Python reference implementation's defaults
// (max_age 7 days, max_drift_fraction 0.5, min_metrics 3).
func DefaultDecay() Decay {
	return Decay{
		MaxAgeSec:        7 * 24 * 3600,
		MinMetrics:       3,
		MaxDriftFraction: 0.5,
	}
}
