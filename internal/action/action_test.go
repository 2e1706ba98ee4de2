// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-hb/hb/internal/action"
	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/store"
)

func newTestRegistry(t *testing.T) *store.RunRegistry {
	t.Helper()
	s, err := store.NewStorage(store.WithInMemory())
	require.NoError(t, err)
	return store.NewRunRegistry(s)
}

func notifyOnFailPolicy() action.Policy {
	return action.Policy{
		Version: "1",
		Rules: []action.Rule{
			{Status: []decision.Status{decision.StatusFail}, Actions: []action.Action{{Type: action.ActionNotify}}},
		},
		MaxAllowedTier: 3,
		HBMode:         action.ModeNormal,
	}
}

func TestProposeActions_statusAndConditionMatch(t *testing.T) {
	policy := action.Policy{
		Rules: []action.Rule{
			{
				Status:     []decision.Status{decision.StatusPassWithDrift},
				Conditions: []action.Condition{{Key: "flagged_metric_count", Op: action.OpGTE, Value: 2.0}},
				Actions:    []action.Action{{Type: action.ActionRateLimit}},
			},
		},
		MaxAllowedTier: 3,
	}
	engine := action.NewEngine(policy)

	proposals, err := engine.ProposeActions(decision.StatusPassWithDrift, map[string]any{"flagged_metric_count": 3.0}, action.CallerContext{Confidence: 1, BaselineConfidence: 1})
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.True(t, proposals[0].WouldExecute)

	proposals, err = engine.ProposeActions(decision.StatusPassWithDrift, map[string]any{"flagged_metric_count": 1.0}, action.CallerContext{Confidence: 1, BaselineConfidence: 1})
	require.NoError(t, err)
	assert.Empty(t, proposals, "condition not met must not propose an action")

	proposals, err = engine.ProposeActions(decision.StatusPass, map[string]any{"flagged_metric_count": 3.0}, action.CallerContext{Confidence: 1, BaselineConfidence: 1})
	require.NoError(t, err)
	assert.Empty(t, proposals, "status mismatch must not propose an action")
}

func TestProposeActions_safeModeBlocksNonNotify(t *testing.T) {
	policy := notifyOnFailPolicy()
	policy.HBMode = action.ModeSafe
	policy.Rules = append(policy.Rules, action.Rule{
		Status:  []decision.Status{decision.StatusFail},
		Actions: []action.Action{{Type: action.ActionIsolate}},
	})

	engine := action.NewEngine(policy)
	proposals, err := engine.ProposeActions(decision.StatusFail, map[string]any{}, action.CallerContext{Confidence: 1, BaselineConfidence: 1})
	require.NoError(t, err)
	require.Len(t, proposals, 2)

	for _, p := range proposals {
		if p.Action.Type == action.ActionNotify {
			assert.True(t, p.WouldExecute)
		} else {
			assert.False(t, p.WouldExecute)
			assert.Equal(t, action.BlockSafeModeOnlyNotify, p.BlockReason)
		}
	}
}

func TestProposeActions_tier3RequiresTwoManAndPersistence(t *testing.T) {
	policy := action.Policy{
		Rules: []action.Rule{
			{Status: []decision.Status{decision.StatusFail}, Actions: []action.Action{{Type: action.ActionAbort}}},
		},
		MaxAllowedTier:     3,
		SafetyGate:         action.SafetyGate{RequireTwoConditions: true},
		DecisionAuthority:  action.DecisionAuthority{TimePersistenceCycles: 3, MinMetricsForCritical: 2},
	}
	engine := action.NewEngine(policy)

	caller := action.CallerContext{
		Confidence: 1, BaselineConfidence: 1,
		IndependentConditionsMet: 2, FlaggedMetricCount: 5,
		TimingSLOMet: true,
	}
	proposals, err := engine.ProposeActions(decision.StatusFail, map[string]any{}, caller)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.False(t, proposals[0].WouldExecute, "missing approval token must block tier 3")
	assert.Equal(t, action.BlockTierApprovalMissing, proposals[0].BlockReason)

	caller.ApprovalToken = "tok"
	caller.SecondApproverID = "bob"
	caller.PersistenceCycles = 3
	proposals, err = engine.ProposeActions(decision.StatusFail, map[string]any{}, caller)
	require.NoError(t, err)
	assert.True(t, proposals[0].WouldExecute)
}

func TestExecute_idempotentSkipReturnsSameActionID(t *testing.T) {
	reg := newTestRegistry(t)
	proposal := action.Proposal{Action: action.Action{Type: action.ActionNotify}, WouldExecute: true}

	first, err := action.Execute(reg, proposal, action.ExecuteRequest{RunID: "run-1", DecisionID: "dec-1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, store.ActionPending, first.Status)

	second, err := action.Execute(reg, proposal, action.ExecuteRequest{RunID: "run-1", DecisionID: "dec-1", IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, store.ActionIdempotentSkip, second.Status)
	assert.Equal(t, first.ActionID, second.ActionID)
}

func TestExecute_dryRunRecordsSyntheticEntry(t *testing.T) {
	reg := newTestRegistry(t)
	proposal := action.Proposal{Action: action.Action{Type: action.ActionNotify}, WouldExecute: true}

	result, err := action.Execute(reg, proposal, action.ExecuteRequest{RunID: "run-2", DecisionID: "dec-2", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, store.ActionDryRun, result.Status)
}
