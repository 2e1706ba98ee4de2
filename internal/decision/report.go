// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

// DriftReportDoc is the stable, wire-format JSON document for
// drift_report.json (spec §6): field names are fixed and consumers
// pattern-match on them, so this type carries explicit json tags rather
// than relying on Report's Go field names.
type DriftReportDoc struct {
	RunID                string              `json:"run_id"`
	Status               Status              `json:"status"`
	BaselineRunID        string              `json:"baseline_run_id,omitempty"`
	BaselineReason       string              `json:"baseline_reason"`
	BaselineWarning      string              `json:"baseline_warning,omitempty"`
	DriftMetrics         []DriftEntry        `json:"drift_metrics"`
	TopDrifts            []DriftEntry        `json:"top_drifts"`
	DistributionDrifts   []DistDrift         `json:"distribution_drifts"`
	DriftAttribution     driftAttributionDoc `json:"drift_attribution"`
	Warnings             []string            `json:"warnings"`
	FailMetrics          []string            `json:"fail_metrics"`
	InvariantViolations  []InvariantViolation `json:"invariant_violations"`
	Investigation        *Investigation      `json:"investigation,omitempty"`
}

type driftAttributionDoc struct {
	TopDrivers []Attribution `json:"top_drivers"`
}

// defaultTopDriftsLimit caps top_drifts to the N largest-|delta| entries when
// the caller doesn't override it; report's Drift is already sorted by
// |delta| desc (Invariant 4).
const defaultTopDriftsLimit = 5

// BuildDriftReportDoc assembles the wire-format document from a Report plus
// the surrounding run/baseline context. topN <= 0 falls back to
// defaultTopDriftsLimit.
func BuildDriftReportDoc(runID string, r Report, baselineRunID, baselineReason, baselineWarning string, topN int) DriftReportDoc {
	if topN <= 0 {
		topN = defaultTopDriftsLimit
	}

	top := r.Drift
	if len(top) > topN {
		top = top[:topN]
	}

	investigation := BuildInvestigation(r)

	return DriftReportDoc{
		RunID:               runID,
		Status:              r.Status,
		BaselineRunID:       baselineRunID,
		BaselineReason:      baselineReason,
		BaselineWarning:     baselineWarning,
		DriftMetrics:        r.Drift,
		TopDrifts:           top,
		DistributionDrifts:  r.DistDrifts,
		DriftAttribution:    driftAttributionDoc{TopDrivers: r.Attribution},
		Warnings:            r.Warnings,
		FailMetrics:         r.Fail,
		InvariantViolations: r.Invariants,
		Investigation:       &investigation,
	}
}
