// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/registry"
)

// VerifyResult is the outcome of Verify (spec §4.7).
type VerifyResult struct {
	Verified bool
	Match    bool
	Reason   string
}

// Verify locates a decision_record.json plus its companion evidence
// artifacts (metrics_normalized.csv, baseline_snapshot.json) under
// evidenceDir, re-executes the replay, and checks status equality (match)
// and config_hash equality (verified).
func Verify(evidenceDir string, reg *registry.Registry, plan *registry.Plan, distributionEnabled bool, extraConfigHashes map[string]string) (VerifyResult, error) {
	recordPath := filepath.Join(evidenceDir, "decision_record.json")
	recordBytes, err := os.ReadFile(recordPath)
	if err != nil {
		return VerifyResult{}, apperr.TransientIO("Verify", err)
	}

	var record DecisionRecord
	if err := json.Unmarshal(recordBytes, &record); err != nil {
		return VerifyResult{}, apperr.Parse("Verify", err)
	}

	metricsPath := filepath.Join(evidenceDir, "metrics_normalized.csv")
	raw, err := ReadMetricsCSV(metricsPath)
	if err != nil {
		return VerifyResult{}, err
	}

	baselinePath := filepath.Join(evidenceDir, "baseline_snapshot.json")
	baseline, err := ReadBaselineSnapshot(baselinePath)
	if err != nil {
		return VerifyResult{}, err
	}

	replay := Replay(ReplayInput{
		InputSlice:          raw,
		Baseline:            baseline,
		Registry:            reg,
		Plan:                plan,
		DistributionEnabled: distributionEnabled,
	})

	hashes := map[string]string{}
	for k, v := range replay.ConfigHashes {
		hashes[k] = v
	}
	for k, v := range extraConfigHashes {
		hashes[k] = v
	}
	recomputedConfigHash := ComputeConfigHash(hashes)

	match := replay.Report.Status == record.Status
	verified := match && recomputedConfigHash == record.ConfigHash

	var reason string
	switch {
	case verified:
		reason = "status and config_hash match"
	case !match:
		reason = fmt.Sprintf("status mismatch: record=%s replay=%s", record.Status, replay.Report.Status)
	default:
		reason = "config_hash mismatch"
	}

	return VerifyResult{Verified: verified, Match: match, Reason: reason}, nil
}
