// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline

import (
	"fmt"
	"math"
	"time"

	"github.com/sentinel-hb/hb/internal/telemetry"
)

// DecayResult is the outcome of CheckDecay.
type DecayResult struct {
	Stale   bool
	Reasons []string
}

// CheckDecay flags a baseline stale per original_source/hb/baseline_decay.py:
// age past max_age_sec, too few common metrics, or at least half the common
// metrics drifting by more than max_drift_fraction relative to baseline.
func CheckDecay(baselineTimestamp time.Time, now time.Time, baselineMetrics, currentMetrics map[string]telemetry.Metric, d Decay) DecayResult {
	var reasons []string

	ageSec := now.Sub(baselineTimestamp).Seconds()
	if d.MaxAgeSec > 0 && ageSec > d.MaxAgeSec {
		reasons = append(reasons, fmt.Sprintf("baseline age %.0fs exceeds max_age_sec %.0f", ageSec, d.MaxAgeSec))
	}

	common := 0
	driftedCount := 0
	for name, base := range baselineMetrics {
		cur, ok := currentMetrics[name]
		if !ok || base.Value == nil || cur.Value == nil {
			continue
		}
		common++

		if *base.Value == 0 {
			if *cur.Value != 0 {
				driftedCount++
			}
			continue
		}
		fraction := math.Abs(*cur.Value-*base.Value) / math.Abs(*base.Value)
		if fraction > d.MaxDriftFraction {
			driftedCount++
		}
	}

	if common < d.MinMetrics {
		reasons = append(reasons, fmt.Sprintf("only %d common metrics, below min_metrics %d", common, d.MinMetrics))
	}

	if common > 0 && driftedCount*2 >= common {
		reasons = append(reasons, fmt.Sprintf("%d of %d common metrics drifted beyond max_drift_fraction %.2f", driftedCount, common, d.MaxDriftFraction))
	}

	return DecayResult{Stale: len(reasons) > 0, Reasons: reasons}
}
