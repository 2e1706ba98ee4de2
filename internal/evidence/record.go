// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package evidence implements C7: decision records, evidence packs,
// deterministic replay, and record verification.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/sentinel-hb/hb/internal/decision"
)

// SchemaVersion is the fixed decision_record.json schema_version (spec §6).
const SchemaVersion = "1.0"

// DecisionRecord is built at decision time from engine outputs plus config
// hashes (spec §3, §4.7).
type DecisionRecord struct {
	SchemaVersion      string          `json:"schema_version"`
	DecisionID         string          `json:"decision_id"`
	Timestamp          time.Time       `json:"timestamp"`
	Status             decision.Status `json:"status"`
	Confidence         *float64        `json:"confidence,omitempty"`
	BaselineConfidence *float64        `json:"baseline_confidence,omitempty"`
	TriggerMetrics     []string        `json:"trigger_metrics"`
	ActionRequested    *string         `json:"action_requested,omitempty"`
	ActionAllowed      bool            `json:"action_allowed"`
	Reason             string          `json:"reason"`
	PolicyVersion      string          `json:"policy_version"`
	ConfigHash         string          `json:"config_hash"`
	EvidenceRef        string          `json:"evidence_ref,omitempty"`
	RunID              string          `json:"run_id"`
	BaselineRunID      string          `json:"baseline_run_id,omitempty"`
	CorrelationID      string          `json:"correlation_id,omitempty"`
}

// BuildParams is the set of inputs BuildDecisionRecord needs beyond the
// decision report itself.
type BuildParams struct {
	DecisionID         string
	Timestamp          time.Time
	RunID              string
	BaselineRunID      string
	CorrelationID      string
	PolicyVersion      string
	ConfigHashes       map[string]string
	Confidence         *float64
	BaselineConfidence *float64
	ActionRequested    *string
	ActionAllowed      bool
	Reason             string
	EvidenceRef        string
}

// BuildDecisionRecord assembles a DecisionRecord from a decision.Report and
// the surrounding run/policy/config context.
func BuildDecisionRecord(report decision.Report, p BuildParams) DecisionRecord {
	triggerSet := map[string]struct{}{}
	for _, d := range report.Drift {
		triggerSet[d.Metric] = struct{}{}
	}
	for _, f := range report.Fail {
		triggerSet[f] = struct{}{}
	}
	trigger := make([]string, 0, len(triggerSet))
	for m := range triggerSet {
		trigger = append(trigger, m)
	}
	sort.Strings(trigger)

	return DecisionRecord{
		SchemaVersion:      SchemaVersion,
		DecisionID:         p.DecisionID,
		Timestamp:          p.Timestamp,
		Status:             report.Status,
		Confidence:         p.Confidence,
		BaselineConfidence: p.BaselineConfidence,
		TriggerMetrics:     trigger,
		ActionRequested:    p.ActionRequested,
		ActionAllowed:      p.ActionAllowed,
		Reason:             p.Reason,
		PolicyVersion:      p.PolicyVersion,
		ConfigHash:         ComputeConfigHash(p.ConfigHashes),
		EvidenceRef:        p.EvidenceRef,
		RunID:              p.RunID,
		BaselineRunID:      p.BaselineRunID,
		CorrelationID:      p.CorrelationID,
	}
}

// ComputeConfigHash is the SHA-256 over the sorted hash map (spec §4.7
// Verify): "name=hash" lines joined and hashed, in canonical key order.
func ComputeConfigHash(hashes map[string]string) string {
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(hashes[name])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
