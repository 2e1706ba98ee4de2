// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package registry

// Plan is the compiled form of a Registry: parallel arrays indexed by a
// stable sorted metric order, for cache-friendly scanning of large
// registries.
type Plan struct {
	Names []string

	DriftThreshold []*float64
	DriftPercent   []*float64
	MinEffect      []*float64
	FailThreshold  []*float64

	InvariantEq  []*float64
	InvariantMin []*float64
	InvariantMax []*float64

	Critical          []bool
	DriftPersistence  []int
	DistributionDrift []*DistributionDrift

	// index maps a canonical name back to its position in the parallel
	// arrays above.
	index map[string]int
}

// CompilePlan builds the ComparePlan for a registry.
func CompilePlan(r *Registry) *Plan {
	names := r.CanonicalOrder()
	p := &Plan{
		Names:             names,
		DriftThreshold:    make([]*float64, len(names)),
		DriftPercent:      make([]*float64, len(names)),
		MinEffect:         make([]*float64, len(names)),
		FailThreshold:     make([]*float64, len(names)),
		InvariantEq:       make([]*float64, len(names)),
		InvariantMin:      make([]*float64, len(names)),
		InvariantMax:      make([]*float64, len(names)),
		Critical:          make([]bool, len(names)),
		DriftPersistence:  make([]int, len(names)),
		DistributionDrift: make([]*DistributionDrift, len(names)),
		index:             make(map[string]int, len(names)),
	}

	for i, name := range names {
		cfg := r.Metrics[name]
		p.index[name] = i

		p.DriftThreshold[i] = cfg.DriftThreshold
		p.DriftPercent[i] = cfg.DriftPercent
		p.MinEffect[i] = cfg.MinEffect
		p.FailThreshold[i] = cfg.FailThreshold
		p.InvariantEq[i] = cfg.InvariantEq
		p.InvariantMin[i] = cfg.InvariantMin
		p.InvariantMax[i] = cfg.InvariantMax
		p.Critical[i] = cfg.Critical
		p.DistributionDrift[i] = cfg.DistributionDrift

		persistence := cfg.DriftPersistence
		if persistence == 0 {
			persistence = 5
		}
		p.DriftPersistence[i] = persistence
	}

	return p
}

// IndexOf returns the position of a canonical metric name in the plan's
// parallel arrays, or -1 if not present.
func (p *Plan) IndexOf(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	return -1
}
