// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile_medianLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	// rank = (4-1)*0.5 = 1.5 -> interpolate between index 1 (2) and 2 (3)
	assert.InDelta(t, 2.5, percentile(sorted, 0.5), 1e-9)
}

func TestPercentile_singleValue(t *testing.T) {
	assert.Equal(t, 42.0, percentile([]float64{42}, 0.95))
}

func TestKSStatistic_identicalDistributions(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 0, ksStatistic(a, b), 1e-9)
}

func TestPearson_zeroVarianceNotOK(t *testing.T) {
	_, ok := pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestPearson_perfectCorrelation(t *testing.T) {
	r, ok := pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)
}
