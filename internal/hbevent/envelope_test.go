// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package hbevent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinel-hb/hb/internal/decision"
)

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityInfo, SeverityFor(decision.StatusPass, false))
	assert.Equal(t, SeverityWarn, SeverityFor(decision.StatusPassWithDrift, false))
	assert.Equal(t, SeverityFail, SeverityFor(decision.StatusFail, false))
	assert.Equal(t, SeverityCritical, SeverityFor(decision.StatusFail, true))
}

func TestNewDecisionSnapshot_setsFieldsFromStatus(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	env := NewDecisionSnapshot("hb-core", "run_1", "dec_1", decision.StatusFail, true, nil, nil, false, ts, nil)

	assert.Equal(t, TypeDecisionSnapshot, env.Type)
	assert.Equal(t, SeverityCritical, env.Severity)
	assert.Equal(t, "run_1", env.RunID)
	assert.Equal(t, "dec_1", env.DecisionID)
	assert.NotNil(t, env.ActionAllowed)
	assert.False(t, *env.ActionAllowed)
}
