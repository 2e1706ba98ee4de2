// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline

import "fmt"

// QualityInput is the raw signal set fed to ComputeQuality, mirroring
// original_source/hb/baseline_quality.py's scoring inputs.
type QualityInput struct {
	SampleSize             int
	TimeSpanSec            float64
	StabilityOK            bool
	NoAlerts               bool
	EnvironmentMatchScore  float64
}

// QualityResult is the outcome of ComputeQuality: a weighted confidence
// score plus a pass/fail gate against the policy's minima.
type QualityResult struct {
	Confidence float64
	Passed     bool
	Reasons    []string
}

// ComputeQuality scores a candidate baseline's usability. confidence is the
// weighted sum w_sample*s_sample + w_stability*s_stability + w_alerts*s_alerts
// + w_env*s_env, clamped to [0,1]; passed requires every configured minimum
// to be met regardless of the weighted score.
func ComputeQuality(in QualityInput, q Quality) QualityResult {
	scoreSample := 1.0
	if q.MinSampleSize > 0 {
		scoreSample = float64(in.SampleSize) / float64(q.MinSampleSize)
		if scoreSample > 1 {
			scoreSample = 1
		}
	}

	scoreStability := 0.0
	if in.StabilityOK {
		scoreStability = 1.0
	}

	scoreAlerts := 0.0
	if in.NoAlerts {
		scoreAlerts = 1.0
	}

	scoreEnv := in.EnvironmentMatchScore
	if scoreEnv < 0 {
		scoreEnv = 0
	}
	if scoreEnv > 1 {
		scoreEnv = 1
	}

	confidence := q.WeightSample*scoreSample + q.WeightStability*scoreStability +
		q.WeightAlerts*scoreAlerts + q.WeightEnv*scoreEnv
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	var reasons []string
	passed := true

	if in.SampleSize < q.MinSampleSize {
		passed = false
		reasons = append(reasons, fmt.Sprintf("sample_size %d below minimum %d", in.SampleSize, q.MinSampleSize))
	}
	if in.TimeSpanSec < q.MinTimeSpanSec {
		passed = false
		reasons = append(reasons, fmt.Sprintf("time_span_sec %.0f below minimum %.0f", in.TimeSpanSec, q.MinTimeSpanSec))
	}
	if !in.StabilityOK {
		passed = false
		reasons = append(reasons, "stability check failed")
	}
	if !in.NoAlerts {
		passed = false
		reasons = append(reasons, "active alerts present")
	}
	if in.EnvironmentMatchScore < q.MinEnvironmentMatchScore {
		passed = false
		reasons = append(reasons, fmt.Sprintf("environment_match_score %.2f below minimum %.2f", in.EnvironmentMatchScore, q.MinEnvironmentMatchScore))
	}

	return QualityResult{Confidence: confidence, Passed: passed, Reasons: reasons}
}
