// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"math"
	"sort"

	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// Status is the fixed status lattice: FAIL > PASS_WITH_DRIFT > PASS, with
// NO_METRICS only when nothing was evaluable.
type Status string

const (
	StatusPass           Status = "PASS"
	StatusPassWithDrift  Status = "PASS_WITH_DRIFT"
	StatusFail           Status = "FAIL"
	StatusNoMetrics      Status = "NO_METRICS"
)

// Severity of a drift entry.
type Severity string

const (
	SeverityDrift Severity = "DRIFT"
	SeverityFail  Severity = "FAIL"
)

// DriftEntry describes a single metric's drift from baseline.
type DriftEntry struct {
	Metric   string
	Delta    float64
	Percent  *float64
	Severity Severity
}

// InvariantViolation records a metric that violated an eq/min/max rule.
type InvariantViolation struct {
	Metric string
	Reason string
}

// DistDrift records a distribution (KS) drift for one metric.
type DistDrift struct {
	Metric        string
	Statistic     float64
	CurrentCount  int
	BaselineCount int
}

// Report is the full output of CompareMetrics.
type Report struct {
	Status Status
	Drift  []DriftEntry
	Warnings []string
	// Fail lists every metric that failed, whether from an invariant
	// violation or a critical threshold breach.
	Fail []string
	// CriticalFail is the subset of Fail whose registry entry is
	// critical:true and which failed the critical-threshold check, not
	// merely an invariant violation. CRITICAL severity is only promoted
	// from this set, never from Fail as a whole.
	CriticalFail []string
	Invariants   []InvariantViolation
	DistDrifts   []DistDrift
	Attribution  []Attribution
}

// CompareMetrics compares current against baseline metric maps using the
// registry's compiled plan, following the exact branch order and tie-break
// rules of spec §4.4 / §8 invariants 1-5.
func CompareMetrics(current, baseline map[string]telemetry.Metric, reg *registry.Registry, plan *registry.Plan, distributionEnabled bool) Report {
	names := unionSorted(current, baseline)

	var (
		warnSet         = map[string]struct{}{}
		failSet         = map[string]struct{}{}
		criticalFailSet = map[string]struct{}{}
		drift           []DriftEntry
		invariants      []InvariantViolation
		distDrifts      []DistDrift
		attrInputs      []attrInput
		evaluated       int
	)

	for _, name := range names {
		cur, hasCur := current[name]
		if !hasCur || cur.Value == nil {
			warnSet["missing current metric: "+name] = struct{}{}
			continue
		}
		evaluated++

		idx := plan.IndexOf(name)
		var cfg *registry.MetricConfig
		if idx >= 0 {
			cfg = reg.Metrics[name]
		}

		curVal := *cur.Value

		// b. Invariants on current.
		if cfg != nil {
			if v := cfg.InvariantEq; v != nil && curVal != *v {
				invariants = append(invariants, InvariantViolation{Metric: name, Reason: "invariant_eq violated"})
				failSet[name] = struct{}{}
			}
			if v := cfg.InvariantMin; v != nil && curVal < *v {
				invariants = append(invariants, InvariantViolation{Metric: name, Reason: "invariant_min violated"})
				failSet[name] = struct{}{}
			}
			if v := cfg.InvariantMax; v != nil && curVal > *v {
				invariants = append(invariants, InvariantViolation{Metric: name, Reason: "invariant_max violated"})
				failSet[name] = struct{}{}
			}

			// c. Criticality on current.
			if cfg.Critical {
				if cfg.FailThreshold == nil && curVal > 0 {
					failSet[name] = struct{}{}
					criticalFailSet[name] = struct{}{}
				} else if cfg.FailThreshold != nil && curVal > *cfg.FailThreshold {
					failSet[name] = struct{}{}
					criticalFailSet[name] = struct{}{}
				}
			}
		}

		// d. Missing baseline.
		base, hasBase := baseline[name]
		if !hasBase || base.Value == nil {
			warnSet["missing baseline metric: "+name] = struct{}{}
			continue
		}
		baseVal := *base.Value

		// e. Drift decision.
		delta := curVal - baseVal
		var percent *float64
		if baseVal != 0 {
			p := 100 * delta / baseVal
			percent = &p
		}

		isDrift := false
		if cfg != nil {
			if cfg.DriftThreshold != nil && math.Abs(delta) > *cfg.DriftThreshold {
				isDrift = true
			}
			if cfg.DriftPercent != nil && percent != nil && math.Abs(*percent) > *cfg.DriftPercent {
				isDrift = true
			}
			if isDrift && cfg.MinEffect != nil && math.Abs(delta) < *cfg.MinEffect {
				isDrift = false
			}
		}

		if isDrift {
			sev := SeverityDrift
			if _, failed := failSet[name]; failed {
				sev = SeverityFail
			}
			drift = append(drift, DriftEntry{Metric: name, Delta: delta, Percent: percent, Severity: sev})
		}

		// f. Distribution drift.
		if distributionEnabled && cfg != nil && cfg.DistributionDrift != nil {
			curSamples := cur.Tags.Samples()
			baseSamples := base.Tags.Samples()
			if len(curSamples) > 0 && len(baseSamples) > 0 {
				d := ksStatistic(curSamples, baseSamples)
				if d > cfg.DistributionDrift.KSThreshold {
					distDrifts = append(distDrifts, DistDrift{
						Metric: name, Statistic: d,
						CurrentCount: len(curSamples), BaselineCount: len(baseSamples),
					})
				}
			}
		}

		// g. Attribution candidates: drifted or failed metrics.
		_, failed := failSet[name]
		_, drifted := indexOfDrift(drift, name)
		if failed || drifted {
			persistence := 5
			if cfg != nil {
				if idx >= 0 {
					persistence = plan.DriftPersistence[idx]
				}
			}
			var driftThreshold, driftPercent *float64
			if cfg != nil {
				driftThreshold = cfg.DriftThreshold
				driftPercent = cfg.DriftPercent
			}
			attrInputs = append(attrInputs, attrInput{
				metric:         name,
				current:        curVal,
				baseline:       baseVal,
				delta:          delta,
				curSamples:     cur.Tags.Samples(),
				baseSamples:    base.Tags.Samples(),
				persistence:    persistence,
				driftThreshold: driftThreshold,
				driftPercent:   driftPercent,
			})
		}
	}

	// Ordering: drift desc by |delta|, tie-break by name.
	sort.SliceStable(drift, func(i, j int) bool {
		di, dj := math.Abs(drift[i].Delta), math.Abs(drift[j].Delta)
		if di != dj {
			return di > dj
		}
		return drift[i].Metric < drift[j].Metric
	})

	fail := make([]string, 0, len(failSet))
	for m := range failSet {
		fail = append(fail, m)
	}
	sort.Strings(fail)

	criticalFail := make([]string, 0, len(criticalFailSet))
	for m := range criticalFailSet {
		criticalFail = append(criticalFail, m)
	}
	sort.Strings(criticalFail)

	sort.SliceStable(invariants, func(i, j int) bool {
		if invariants[i].Metric != invariants[j].Metric {
			return invariants[i].Metric < invariants[j].Metric
		}
		return invariants[i].Reason < invariants[j].Reason
	})

	sort.SliceStable(distDrifts, func(i, j int) bool { return distDrifts[i].Metric < distDrifts[j].Metric })

	warnings := make([]string, 0, len(warnSet))
	for w := range warnSet {
		warnings = append(warnings, w)
	}
	sort.Strings(warnings)

	attribution := computeAttribution(attrInputs)

	status := StatusPass
	switch {
	case evaluated == 0:
		status = StatusNoMetrics
	case len(fail) > 0:
		status = StatusFail
	case len(drift) > 0 || len(distDrifts) > 0:
		status = StatusPassWithDrift
	}

	return Report{
		Status:       status,
		Drift:        drift,
		Warnings:     warnings,
		Fail:         fail,
		CriticalFail: criticalFail,
		Invariants:   invariants,
		DistDrifts:   distDrifts,
		Attribution:  attribution,
	}
}

func indexOfDrift(drift []DriftEntry, name string) (int, bool) {
	for i, d := range drift {
		if d.Metric == name {
			return i, true
		}
	}
	return -1, false
}

func unionSorted(a, b map[string]telemetry.Metric) []string {
	set := map[string]struct{}{}
	for name := range a {
		set[name] = struct{}{}
	}
	for name := range b {
		set[name] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
