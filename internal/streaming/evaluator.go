// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// IngestOutcome reports what happened to an ingested event.
type IngestOutcome string

const (
	OutcomeAccepted    IngestOutcome = ""
	OutcomeDropped     IngestOutcome = "dropped"
	OutcomeBuffered    IngestOutcome = "buffered"
	OutcomeSideOutput  IngestOutcome = "side_output"
)

// Evaluator is C5: it buckets incoming events into sliding windows, tracks
// a watermark, and emits DecisionSnapshots by feeding bucket aggregates
// into the C4 decision engine.
type Evaluator struct {
	mu sync.Mutex

	spec       WindowSpec
	wm         *WatermarkTracker
	wmPolicy   WatermarkPolicy
	maxBuckets int

	buckets map[float64]*Bucket

	lateBuffer    []Event
	sideOutputCh  chan Event
	deterministic bool

	reg  *registry.Registry
	plan *registry.Plan

	latency *LatencyRecorder
}

// NewEvaluator builds an Evaluator. sideOutputBuffer sizes the channel used
// for the side_output late-event policy; it is ignored for other policies.
func NewEvaluator(spec WindowSpec, wmPolicy WatermarkPolicy, maxBuckets int, deterministic bool, reg *registry.Registry, plan *registry.Plan, sideOutputBuffer int) *Evaluator {
	if sideOutputBuffer <= 0 {
		sideOutputBuffer = 64
	}
	return &Evaluator{
		spec:          spec,
		wm:            NewWatermarkTracker(wmPolicy),
		wmPolicy:      wmPolicy,
		maxBuckets:    maxBuckets,
		buckets:       map[float64]*Bucket{},
		sideOutputCh:  make(chan Event, sideOutputBuffer),
		deterministic: deterministic,
		reg:           reg,
		plan:          plan,
		latency:       NewLatencyRecorder(0),
	}
}

// SideOutput exposes the channel late events are published to under the
// side_output policy.
func (ev *Evaluator) SideOutput() <-chan Event { return ev.sideOutputCh }

// Ingest folds an event into its matching window buckets, or applies the
// late-event policy if it arrives after the watermark.
func (ev *Evaluator) Ingest(e Event) IngestOutcome {
	eventTime := resolveEventTime(e)

	if ev.wm.IsLate(eventTime) {
		switch ev.wmPolicy.LateEventPolicy {
		case LatePolicyBuffer:
			ev.mu.Lock()
			ev.lateBuffer = append(ev.lateBuffer, e)
			ev.mu.Unlock()
			return OutcomeBuffered
		case LatePolicySideOutput:
			select {
			case ev.sideOutputCh <- e:
			default:
			}
			return OutcomeSideOutput
		default:
			return OutcomeDropped
		}
	}

	ev.wm.Observe(eventTime)
	ev.insert(e, eventTime)
	return OutcomeAccepted
}

func resolveEventTime(e Event) float64 {
	if e.EventTime != nil {
		return *e.EventTime
	}
	return float64(time.Now().UTC().UnixNano()) / 1e9
}

func (ev *Evaluator) insert(e Event, eventTime float64) {
	ev.mu.Lock()
	defer ev.mu.Unlock()

	metric := e.Metric
	if ev.reg != nil {
		metric = ev.reg.Resolve(metric)
	}

	for _, start := range BucketStarts(eventTime, ev.spec) {
		b, ok := ev.buckets[start]
		if !ok {
			b = newBucket(start, ev.spec.WindowSizeSec)
			ev.buckets[start] = b
		}
		b.Add(metric, e.Value)
	}

	ev.evictLocked()
}

// drainLateBuffer folds buffered late events into their matching buckets
// at the next window close (the "buffer" late-event policy, spec §4.5).
func (ev *Evaluator) drainLateBuffer() {
	pending := ev.lateBuffer
	ev.lateBuffer = nil
	ev.mu.Unlock()
	for _, e := range pending {
		ev.insert(e, resolveEventTime(e))
	}
	ev.mu.Lock()
}

func (ev *Evaluator) evictLocked() {
	if ev.maxBuckets <= 0 || len(ev.buckets) <= ev.maxBuckets {
		return
	}

	starts := make([]float64, 0, len(ev.buckets))
	for s := range ev.buckets {
		starts = append(starts, s)
	}
	sort.Float64s(starts)

	for len(ev.buckets) > ev.maxBuckets {
		delete(ev.buckets, starts[0])
		starts = starts[1:]
	}
}

// EmitDecision picks the newest complete bucket (end <= current watermark),
// or the newest partial bucket if none is complete, and feeds its mean
// aggregates into the decision engine (spec §4.5).
func (ev *Evaluator) EmitDecision(baseline map[string]telemetry.Metric, distributionEnabled bool, cfg ConfigRef, codeRef string) (*DecisionSnapshot, bool) {
	ev.mu.Lock()
	ev.drainLateBuffer()

	watermark, hasWatermark := ev.wm.Watermark()

	var best *Bucket
	if hasWatermark {
		for _, b := range ev.buckets {
			if b.End <= watermark && (best == nil || b.End > best.End) {
				best = b
			}
		}
	}
	if best == nil {
		for _, b := range ev.buckets {
			if best == nil || b.Start > best.Start {
				best = b
			}
		}
	}
	if best == nil {
		ev.mu.Unlock()
		return nil, false
	}

	means := best.Means()
	metricCount := best.MetricCount()
	start, end := best.Start, best.End
	ev.mu.Unlock()

	raw := make([]telemetry.RawMetric, 0, len(means))
	names := make([]string, 0, len(means))
	for name := range means {
		names = append(names, name)
	}
	if ev.deterministic {
		sort.Strings(names)
	}
	for _, name := range names {
		raw = append(raw, telemetry.RawMetric{Name: name, Value: means[name]})
	}

	t0 := time.Now()
	normalized := decision.NormalizeMetrics(raw, ev.reg)
	report := decision.CompareMetrics(normalized.Metrics, baseline, ev.reg, ev.plan, distributionEnabled)
	latencySec := time.Since(t0).Seconds()
	ev.latency.Observe(latencySec)

	snapshot := &DecisionSnapshot{
		DecisionID: "dec_" + uuid.NewString(),
		TsUTC:      time.Now().UTC(),
		InputSliceRef: InputSliceRef{
			WindowStart: start,
			WindowEnd:   end,
			Watermark:   watermark,
			MetricCount: metricCount,
		},
		ConfigRef:          cfg,
		CodeRef:            codeRef,
		DecisionPayload:    report,
		DecisionLatencySec: latencySec,
	}

	return snapshot, true
}

// LatencyPercentiles exposes the recorder's current p50/p95.
func (ev *Evaluator) LatencyPercentiles() (p50, p95 float64) {
	return ev.latency.Percentiles()
}
