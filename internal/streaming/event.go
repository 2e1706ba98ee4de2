// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package streaming implements C5, the streaming evaluator: watermark
// tracking, sliding windows, a bucketed mean aggregator, and the decision
// snapshot / latency recorder that feed the C4 decision engine.
package streaming

import "github.com/sentinel-hb/hb/internal/telemetry"

// Event is one streamed metric observation (spec §4.5).
type Event struct {
	// EventTime is seconds since epoch; nil falls back to processing time.
	EventTime *float64
	Metric    string
	Value     float64
	Unit      string
	Tags      telemetry.Tags
}
