// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"math"
	"sort"

	"github.com/sentinel-hb/hb/internal/util"
)

// ConfidenceTier is the attribution confidence bucket keyed off sample count.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// Attribution explains a single drifted/failed metric: effect size, onset,
// an evidence window of samples, and (if enough signal) a feature
// correlation.
type Attribution struct {
	Metric           string
	BaselineStats    Stats
	CurrentStats     Stats
	ZScore           *float64
	FirstExceedIndex int
	SustainedIndex   int
	Evidence         []float64
	Correlation      *float64
	LowConfidenceNote string
	Confidence       *ConfidenceTier
	score            float64 // used only for sort ordering
}

type attrInput struct {
	metric         string
	current        float64
	baseline       float64
	delta          float64
	curSamples     []float64
	baseSamples    []float64
	persistence    int
	driftThreshold *float64
	driftPercent   *float64
}

// computeAttribution builds one Attribution per input, sorted by |score|
// descending with name tie-break.
func computeAttribution(inputs []attrInput) []Attribution {
	out := make([]Attribution, 0, len(inputs))

	for _, in := range inputs {
		baseStats := computeStats(in.baseSamples, in.baseline, true)
		curStats := computeStats(in.curSamples, in.current, true)

		var zscore *float64
		if baseStats.Std > 0 {
			zscore = util.Ref(in.delta / baseStats.Std)
		}

		scores, exceeds := driftScoresAndExceeds(in.curSamples, baseStats.Mean, baseStats.Std, in.driftThreshold, in.driftPercent, in.delta, zscore)

		firstExceed := firstExceedIndex(exceeds)
		sustained := sustainedIndex(exceeds, in.persistence)

		evidence := evidenceWindow(in.curSamples, sustained, firstExceed)

		var corr *float64
		var lowConfNote string
		if len(in.curSamples) == len(scores) && len(in.curSamples) > 1 {
			if r, ok := pearson(in.curSamples, scores); ok {
				if math.Abs(r) >= 0.30 {
					corr = util.Ref(r)
				} else {
					lowConfNote = "low attribution confidence"
				}
			}
		}

		var conf *ConfidenceTier
		count := len(in.curSamples)
		switch {
		case count >= 200:
			conf = util.Ref(ConfidenceHigh)
		case count >= 50:
			conf = util.Ref(ConfidenceMedium)
		case count > 0:
			conf = util.Ref(ConfidenceLow)
		}

		score := math.Abs(in.delta)
		if zscore != nil {
			score = math.Abs(*zscore)
		}

		out = append(out, Attribution{
			Metric:            in.metric,
			BaselineStats:     baseStats,
			CurrentStats:      curStats,
			ZScore:            zscore,
			FirstExceedIndex:  firstExceed,
			SustainedIndex:    sustained,
			Evidence:          evidence,
			Correlation:       corr,
			LowConfidenceNote: lowConfNote,
			Confidence:        conf,
			score:             score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].Metric < out[j].Metric
	})

	return out
}

// driftScoresAndExceeds computes, per current sample, a drift score
// (zscore against the baseline mean when baseline variance is known, else
// the raw delta against the baseline mean) and whether that sample exceeds
// the metric's configured threshold, mirroring
// original_source/hb/engine.py's `_onset_and_evidence` loop over samples.
// When there are no current samples, a single synthetic sample is derived
// from the caller's pre-computed delta/zscore (the scalar current-vs-baseline
// comparison already made in computeAttribution) so onset indices still
// resolve against something.
func driftScoresAndExceeds(curSamples []float64, baselineMean, baselineStd float64, driftThreshold, driftPercent *float64, fallbackDelta float64, fallbackZScore *float64) ([]float64, []bool) {
	if len(curSamples) == 0 {
		hasZ := fallbackZScore != nil
		var z float64
		val := fallbackDelta
		if hasZ {
			z = *fallbackZScore
			val = z
		}
		return []float64{val}, []bool{sampleExceeds(fallbackDelta, baselineMean, driftThreshold, driftPercent, z, hasZ)}
	}

	scores := make([]float64, len(curSamples))
	exceeds := make([]bool, len(curSamples))
	for i, v := range curSamples {
		delta := v - baselineMean
		hasZ := baselineStd > 0
		var zscore float64
		if hasZ {
			zscore = delta / baselineStd
			scores[i] = zscore
		} else {
			scores[i] = delta
		}
		exceeds[i] = sampleExceeds(delta, baselineMean, driftThreshold, driftPercent, zscore, hasZ)
	}
	return scores, exceeds
}

// sampleExceeds implements `_exceeds_threshold`: an absolute drift
// threshold wins when configured, else a percent-of-baseline-mean
// threshold, else a fallback of |zscore| >= 3.0 when neither is configured.
func sampleExceeds(delta, baselineMean float64, driftThreshold, driftPercent *float64, zscore float64, hasZScore bool) bool {
	switch {
	case driftThreshold != nil:
		return math.Abs(delta) >= *driftThreshold
	case driftPercent != nil && baselineMean != 0:
		return math.Abs(delta/baselineMean*100.0) >= *driftPercent
	case hasZScore:
		return math.Abs(zscore) >= 3.0
	default:
		return false
	}
}

// firstExceedIndex returns the first index whose sample exceeds the
// metric's threshold, or -1 if none do.
func firstExceedIndex(exceeds []bool) int {
	for i, e := range exceeds {
		if e {
			return i
		}
	}
	return -1
}

// sustainedIndex returns the start of the first run of length >= persistence
// of exceeding samples, or falls back to firstExceedIndex.
func sustainedIndex(exceeds []bool, persistence int) int {
	if persistence < 1 {
		persistence = 1
	}
	run := 0
	for i, e := range exceeds {
		if e {
			run++
			if run >= persistence {
				return i - run + 1
			}
		} else {
			run = 0
		}
	}
	return firstExceedIndex(exceeds)
}

// evidenceWindow returns a contiguous slice of ~7 samples centered on
// sustained (or firstExceed, or head).
func evidenceWindow(samples []float64, sustained, firstExceed int) []float64 {
	if len(samples) == 0 {
		return nil
	}

	center := sustained
	if center < 0 {
		center = firstExceed
	}
	if center < 0 {
		center = 0
	}

	const half = 3
	lo := center - half
	if lo < 0 {
		lo = 0
	}
	hi := lo + 2*half + 1
	if hi > len(samples) {
		hi = len(samples)
		lo = hi - (2*half + 1)
		if lo < 0 {
			lo = 0
		}
	}

	return append([]float64(nil), samples[lo:hi]...)
}
