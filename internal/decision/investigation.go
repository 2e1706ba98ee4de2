// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"fmt"
	"math"
	"strings"
)

// Hint is one per-metric investigation entry: a human pinpoint sentence,
// suggested next actions, and a root-cause category.
type Hint struct {
	Metric            string
	Pinpoint          string
	SuggestedActions  []string
	RootCauseCategory string
	RootCauseLabel    string
}

// Investigation is the report-level summary built from a Report.
type Investigation struct {
	Hints         []Hint
	PrimaryIssue  string
	WhatToDoNext  string
}

var rootCauseLabels = map[string]string{
	"critical_threshold": "Critical threshold exceeded",
	"invariant_violation": "Invariant violated",
	"distribution_shift":  "Distribution shifted",
	"threshold_exceeded":  "Drift threshold exceeded",
	"drift_or_fail":       "Drift or fail",
}

func rootCauseLabel(category string) string {
	if label, ok := rootCauseLabels[category]; ok {
		return label
	}
	return strings.Title(strings.ReplaceAll(category, "_", " "))
}

// BuildInvestigation builds investigation hints and a "what to do next"
// paragraph from a Report, mirroring the original pinpoint/suggested-action
// heuristics metric-name-by-metric-name.
func BuildInvestigation(r Report) Investigation {
	seen := map[string]struct{}{}
	var hints []Hint
	var primaryIssue string

	failSet := map[string]struct{}{}
	for _, m := range r.Fail {
		failSet[m] = struct{}{}
	}
	invariantMetrics := map[string]struct{}{}
	for _, v := range r.Invariants {
		invariantMetrics[v.Metric] = struct{}{}
	}

	// Top drivers, by attribution order (already sorted by |score| desc).
	for i, attr := range r.Attribution {
		if i >= 10 {
			break
		}
		if _, dup := seen[attr.Metric]; dup {
			continue
		}
		seen[attr.Metric] = struct{}{}

		_, critical := failSet[attr.Metric]
		_, invariant := invariantMetrics[attr.Metric]

		drift, hasDrift := driftFor(r.Drift, attr.Metric)

		pinpoint := pinpointDriver(attr.Metric, drift, hasDrift, critical, invariant)
		actions := suggestedActions(attr.Metric, critical, invariant, hasDistributionDrift(r.DistDrifts, attr.Metric), string(r.Status))
		category := rootCauseCategory(critical, invariant, hasDistributionDrift(r.DistDrifts, attr.Metric), hasDrift)

		hints = append(hints, Hint{
			Metric:            attr.Metric,
			Pinpoint:          pinpoint,
			SuggestedActions:  actions,
			RootCauseCategory: category,
			RootCauseLabel:    rootCauseLabel(category),
		})
		if primaryIssue == "" {
			primaryIssue = pinpoint
		}
	}

	// Invariant violations not already covered.
	for _, v := range r.Invariants {
		if _, dup := seen[v.Metric]; dup {
			continue
		}
		seen[v.Metric] = struct{}{}

		desc := fmt.Sprintf("**%s** violates invariant (%s).", v.Metric, v.Reason)
		hints = append(hints, Hint{
			Metric:            v.Metric,
			Pinpoint:          desc,
			SuggestedActions:  []string{"Verify invariant in metric registry; fix value or relax rule if intentional."},
			RootCauseCategory: "invariant_violation",
			RootCauseLabel:    rootCauseLabel("invariant_violation"),
		})
		if primaryIssue == "" {
			primaryIssue = desc
		}
	}

	// Fail metrics not yet covered.
	for _, m := range r.Fail {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}

		desc := fmt.Sprintf("**%s** exceeds fail (critical) threshold.", m)
		hints = append(hints, Hint{
			Metric:            m,
			Pinpoint:          desc,
			SuggestedActions:  []string{"Treat as blocking; fix or justify before release."},
			RootCauseCategory: "critical_threshold",
			RootCauseLabel:    rootCauseLabel("critical_threshold"),
		})
		if primaryIssue == "" {
			primaryIssue = desc
		}
	}

	var missingWarnings []string
	for _, w := range r.Warnings {
		if strings.Contains(strings.ToLower(w), "missing") {
			missingWarnings = append(missingWarnings, w)
		}
	}
	if primaryIssue == "" && len(missingWarnings) > 0 {
		n := len(missingWarnings)
		if n > 3 {
			n = 3
		}
		primaryIssue = "Missing metrics or data: " + strings.Join(missingWarnings[:n], "; ")
	}

	var whatParts []string
	if r.Status == StatusNoMetrics {
		whatParts = append(whatParts, "No metrics were evaluated. Check that inputs and metric registry align (column names, schema).")
	}
	if primaryIssue != "" {
		whatParts = append(whatParts, "Primary issue: "+primaryIssue)
	}
	if len(hints) > 0 {
		if len(hints[0].SuggestedActions) > 0 {
			whatParts = append(whatParts, "Suggested next steps: "+hints[0].SuggestedActions[0])
		}
		if len(hints) > 1 {
			whatParts = append(whatParts, fmt.Sprintf("Plus %d other flagged metric(s) — see investigation hints below.", len(hints)-1))
		}
	}
	if len(missingWarnings) > 0 && (len(whatParts) == 0 || !strings.Contains(strings.ToLower(whatParts[0]), "missing")) {
		whatParts = append(whatParts, "Address missing-metric warnings so coverage is complete.")
	}

	whatToDoNext := strings.Join(whatParts, " ")
	if whatToDoNext == "" {
		whatToDoNext = "No drift or failures detected. If you expected changes, check baseline selection and registry."
	}

	return Investigation{Hints: hints, PrimaryIssue: primaryIssue, WhatToDoNext: whatToDoNext}
}

func driftFor(drift []DriftEntry, metric string) (DriftEntry, bool) {
	for _, d := range drift {
		if d.Metric == metric {
			return d, true
		}
	}
	return DriftEntry{}, false
}

func hasDistributionDrift(dd []DistDrift, metric string) bool {
	for _, d := range dd {
		if d.Metric == metric {
			return true
		}
	}
	return false
}

func pinpointDriver(metric string, drift DriftEntry, hasDrift, critical, invariant bool) string {
	parts := []string{fmt.Sprintf("**%s**", metric)}

	switch {
	case critical || invariant:
		parts = append(parts, "fails a critical or invariant rule")
	case hasDrift && drift.Percent != nil:
		direction := "increased"
		if *drift.Percent < 0 {
			direction = "decreased"
		}
		parts = append(parts, fmt.Sprintf("%s by %s%%", direction, trimFloat(math.Abs(*drift.Percent))))
		if drift.Delta != 0 {
			parts = append(parts, fmt.Sprintf("(absolute change: %s)", trimFloat(drift.Delta)))
		}
	case hasDrift:
		direction := "above"
		if drift.Delta < 0 {
			direction = "below"
		}
		parts = append(parts, fmt.Sprintf("is %s %s baseline", trimFloat(math.Abs(drift.Delta)), direction))
	default:
		parts = append(parts, "deviates from baseline")
	}

	return strings.Join(parts, " ") + "."
}

func suggestedActions(metric string, critical, invariant, distShift bool, status string) []string {
	var actions []string
	nameLower := strings.ToLower(metric)

	if critical {
		actions = append(actions, "Treat as blocking: fix or justify before release.")
	}
	if invariant {
		actions = append(actions, "Verify invariant rule in metric registry; fix value or relax rule if intentional.")
	}
	if distShift {
		actions = append(actions, "Distribution changed (KS test). Review sample population and environment.")
	}
	if status == string(StatusPassWithDrift) {
		actions = append(actions, "If change is intentional, consider updating the baseline for this scenario.")
	}
	if strings.Contains(nameLower, "latency") || strings.Contains(nameLower, "lag") {
		actions = append(actions, "Check runtime scheduling, queuing, and downstream latency.")
	}
	if strings.Contains(nameLower, "error") || strings.Contains(nameLower, "failure") || strings.Contains(nameLower, "reset") {
		actions = append(actions, "Check transport reliability, schema validation, and upstream failures.")
	}
	if strings.Contains(nameLower, "throughput") || strings.Contains(nameLower, "rate") || strings.Contains(nameLower, "qps") {
		actions = append(actions, "Check backpressure, rate limits, and queue depth.")
	}
	if strings.Contains(nameLower, "deadline") {
		actions = append(actions, "Check scheduler, task duration, and load; verify timing assumptions.")
	}
	if strings.Contains(nameLower, "watchdog") {
		actions = append(actions, "Check watchdog configuration and health; verify no false triggers.")
	}
	if len(actions) == 0 {
		actions = append(actions, "Review metric source and baseline context; adjust thresholds if needed.")
	}

	return actions
}

func rootCauseCategory(critical, invariant, distShift, hasDrift bool) string {
	switch {
	case critical:
		return "critical_threshold"
	case invariant:
		return "invariant_violation"
	case distShift:
		return "distribution_shift"
	case hasDrift:
		return "threshold_exceeded"
	default:
		return "drift_or_fail"
	}
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", f), "0"), ".")
}
