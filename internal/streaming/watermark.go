// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming

import "sync"

// LateEventPolicy is the strategy applied to an event that arrives after
// the watermark has passed it.
type LateEventPolicy string

const (
	LatePolicyDrop        LateEventPolicy = "drop"
	LatePolicyBuffer      LateEventPolicy = "buffer"
	LatePolicySideOutput  LateEventPolicy = "side_output"
)

// WatermarkPolicy configures lateness tolerance (spec §4.5).
type WatermarkPolicy struct {
	AllowedLatenessSec   float64
	WatermarkIntervalSec float64
	LateEventPolicy      LateEventPolicy
}

// WatermarkTracker tracks the maximum observed event time and derives the
// current watermark W = max_event_time - allowed_lateness_sec.
type WatermarkTracker struct {
	mu            sync.Mutex
	policy        WatermarkPolicy
	maxEventTime  float64
	hasObserved   bool
}

func NewWatermarkTracker(policy WatermarkPolicy) *WatermarkTracker {
	return &WatermarkTracker{policy: policy}
}

// Observe records a new event time and returns the (possibly unchanged)
// watermark after the observation.
func (w *WatermarkTracker) Observe(eventTime float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasObserved || eventTime > w.maxEventTime {
		w.maxEventTime = eventTime
		w.hasObserved = true
	}
	return w.watermarkLocked()
}

// Watermark returns the current watermark without observing a new event.
func (w *WatermarkTracker) Watermark() (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watermarkLocked(), w.hasObserved
}

func (w *WatermarkTracker) watermarkLocked() float64 {
	return w.maxEventTime - w.policy.AllowedLatenessSec
}

// IsLate reports whether eventTime falls before the current watermark,
// using the watermark as it stood BEFORE this event is folded in.
func (w *WatermarkTracker) IsLate(eventTime float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasObserved {
		return false
	}
	return eventTime < w.watermarkLocked()
}
