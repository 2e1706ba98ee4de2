// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming

import (
	"container/ring"
	"sort"
	"sync"

	"github.com/sentinel-hb/hb/internal/decision"
)

// defaultLatencyRingSize is the default ring buffer capacity for the
// decision_latency_sec recorder (spec §4.5).
const defaultLatencyRingSize = 1000

// LatencyRecorder keeps a fixed-size ring buffer of decision_latency_sec
// observations and reports p50/p95 over the retained window.
type LatencyRecorder struct {
	mu   sync.Mutex
	ring *ring.Ring
	n    int
	cap  int
}

// NewLatencyRecorder builds a recorder with the given ring capacity; a
// non-positive size uses the default of 1000.
func NewLatencyRecorder(size int) *LatencyRecorder {
	if size <= 0 {
		size = defaultLatencyRingSize
	}
	return &LatencyRecorder{ring: ring.New(size), cap: size}
}

// Observe records a latency sample in seconds.
func (l *LatencyRecorder) Observe(seconds float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring.Value = seconds
	l.ring = l.ring.Next()
	if l.n < l.cap {
		l.n++
	}
}

// Percentiles returns (p50, p95) over the samples currently retained.
func (l *LatencyRecorder) Percentiles() (p50, p95 float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.n == 0 {
		return 0, 0
	}

	samples := make([]float64, 0, l.n)
	l.ring.Do(func(v any) {
		if v == nil {
			return
		}
		samples = append(samples, v.(float64))
	})
	sort.Float64s(samples)

	return decision.Percentile(samples, 0.5), decision.Percentile(samples, 0.95)
}
