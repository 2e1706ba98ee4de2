// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package streaming

import "math"

// WindowSpec describes a sliding window (spec §4.5).
type WindowSpec struct {
	WindowSizeSec float64
	SlideSec      float64
	AlignEpochSec float64
}

// BucketStarts returns every bucket start t = align_epoch + k*slide whose
// half-open range [t, t+window_size) contains e.
func BucketStarts(e float64, spec WindowSpec) []float64 {
	if spec.SlideSec <= 0 || spec.WindowSizeSec <= 0 {
		return nil
	}

	kMax := math.Floor((e - spec.AlignEpochSec) / spec.SlideSec)
	var starts []float64

	for k := kMax; ; k-- {
		t := spec.AlignEpochSec + k*spec.SlideSec
		if t > e {
			continue
		}
		if e-t >= spec.WindowSizeSec {
			break
		}
		starts = append(starts, t)
	}

	return starts
}

// Bucket accumulates per-metric sums/counts for a window instance keyed by
// its start time.
type Bucket struct {
	Start, End float64
	sums       map[string]float64
	counts     map[string]int
}

func newBucket(start, windowSize float64) *Bucket {
	return &Bucket{Start: start, End: start + windowSize, sums: map[string]float64{}, counts: map[string]int{}}
}

// Add folds value into the running mean accumulator for metric.
func (b *Bucket) Add(metric string, value float64) {
	b.sums[metric] += value
	b.counts[metric]++
}

// Means returns the arithmetic mean aggregate (spec §4.5 default
// aggregate) per metric currently accumulated in the bucket.
func (b *Bucket) Means() map[string]float64 {
	out := make(map[string]float64, len(b.sums))
	for metric, sum := range b.sums {
		out[metric] = sum / float64(b.counts[metric])
	}
	return out
}

// MetricCount is the number of distinct metrics in the bucket.
func (b *Bucket) MetricCount() int { return len(b.sums) }
