// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming

import (
	"time"

	"github.com/sentinel-hb/hb/internal/decision"
)

// InputSliceRef identifies the bucket a DecisionSnapshot was computed from.
type InputSliceRef struct {
	WindowStart float64
	WindowEnd   float64
	Watermark   float64
	MetricCount int
}

// ConfigRef is the set of content hashes the decision was computed against.
type ConfigRef struct {
	RegistryHash string
	PolicyHash   string
}

// DecisionSnapshot is the emitted artifact of EmitDecision (spec §4.5).
type DecisionSnapshot struct {
	DecisionID         string
	TsUTC              time.Time
	InputSliceRef      InputSliceRef
	ConfigRef          ConfigRef
	CodeRef            string
	DecisionPayload    decision.Report
	DecisionLatencySec float64
}
