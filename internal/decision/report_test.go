// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDriftReportDoc_capsTopDriftsAndCarriesContext(t *testing.T) {
	var drift []DriftEntry
	for i := 0; i < 8; i++ {
		drift = append(drift, DriftEntry{Metric: "m", Delta: float64(8 - i)})
	}
	report := Report{Status: StatusPassWithDrift, Drift: drift, Fail: []string{}}

	doc := BuildDriftReportDoc("run_1", report, "run_0", "tag", "", 0)

	assert.Equal(t, "run_1", doc.RunID)
	assert.Equal(t, StatusPassWithDrift, doc.Status)
	assert.Equal(t, "run_0", doc.BaselineRunID)
	assert.Len(t, doc.TopDrifts, defaultTopDriftsLimit)
	assert.Len(t, doc.DriftMetrics, 8)
	assert.NotNil(t, doc.Investigation)
}
