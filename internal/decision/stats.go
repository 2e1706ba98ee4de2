// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"math"
	"sort"
)

// Stats summarizes a sample set (or a degenerate single-value sample).
type Stats struct {
	Mean   float64
	Median float64
	P95    float64
	Std    float64
	Count  int
}

// computeStats builds Stats from a list of samples, or from a single value
// when samples is empty (a degenerate one-element sample).
func computeStats(samples []float64, fallback float64, hasFallback bool) Stats {
	if len(samples) == 0 {
		if !hasFallback {
			return Stats{}
		}
		return Stats{Mean: fallback, Median: fallback, P95: fallback, Std: 0, Count: 1}
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sqDiff float64
	for _, v := range sorted {
		d := v - mean
		sqDiff += d * d
	}
	std := math.Sqrt(sqDiff / float64(len(sorted)))

	return Stats{
		Mean:   mean,
		Median: percentile(sorted, 0.5),
		P95:    percentile(sorted, 0.95),
		Std:    std,
		Count:  len(sorted),
	}
}

// Percentile computes the p-th percentile (p in [0,1]) of an already-sorted
// slice via linear interpolation with rank = (n-1)*p — Open Question 3. It
// is exported so other packages (e.g. the streaming latency recorder) share
// the same interpolation rule instead of reimplementing it.
func Percentile(sorted []float64, p float64) float64 {
	return percentile(sorted, p)
}

// percentile computes the p-th percentile (p in [0,1]) of an already-sorted
// slice via linear interpolation with rank = (n-1)*p — Open Question 3.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	rank := (float64(n) - 1) * p
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ksStatistic computes the two-sample Kolmogorov-Smirnov statistic
// D = max_t |F_cur(t) - F_base(t)| via a merge scan over sorted samples.
func ksStatistic(current, baseline []float64) float64 {
	if len(current) == 0 || len(baseline) == 0 {
		return 0
	}

	cur := append([]float64(nil), current...)
	base := append([]float64(nil), baseline...)
	sort.Float64s(cur)
	sort.Float64s(base)

	nc, nb := float64(len(cur)), float64(len(base))
	var i, j int
	var maxD float64

	for i < len(cur) || j < len(base) {
		var t float64
		switch {
		case i >= len(cur):
			t = base[j]
		case j >= len(base):
			t = cur[i]
		default:
			t = math.Min(cur[i], base[j])
		}

		for i < len(cur) && cur[i] <= t {
			i++
		}
		for j < len(base) && base[j] <= t {
			j++
		}

		fCur := float64(i) / nc
		fBase := float64(j) / nb
		if d := math.Abs(fCur - fBase); d > maxD {
			maxD = d
		}
	}

	return maxD
}

// pearson computes the Pearson correlation coefficient between two equal
// length series, returning (r, ok); ok is false if either series has zero
// variance.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0, false
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}
