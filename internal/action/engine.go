// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package action

import (
	"github.com/sentinel-hb/hb/internal/decision"
)

// CallerContext carries the caller-supplied facts the gates in
// ProposeActions need: independent confirmations, approvals, persistence,
// and confidence, gathered outside the engine (spec §4.6).
type CallerContext struct {
	ApprovalToken               string
	SecondApproverID            string
	PersistenceCycles           int
	IndependentConditionsMet    int
	Confidence                  float64
	BaselineConfidence          float64
	FlaggedMetricCount          int
	TimingSLOMet                bool
	FailSafeOnTiming            bool
}

// BlockReason is a fixed tag for why an action was blocked.
type BlockReason string

const (
	BlockSafeModeOnlyNotify  BlockReason = "safe_mode_only_notify"
	BlockTierExceeded        BlockReason = "tier_exceeded"
	BlockTierApprovalMissing BlockReason = "tier_approval_missing"
	BlockSafetyGate          BlockReason = "safety_gate_failed"
	BlockConfidence          BlockReason = "confidence_gate_failed"
	BlockCriticalMetrics     BlockReason = "critical_metrics_gate_failed"
	BlockFailSafeTiming      BlockReason = "fail_safe_timing"
)

// Proposal is the classification engine output for one Action (spec §4.6).
type Proposal struct {
	Action             Action
	Tier               int
	WouldExecute       bool
	BlockReason        BlockReason
	Confidence         float64
	BaselineConfidence float64
}

// Engine evaluates a Policy's rules against a decision and caller context.
type Engine struct {
	policy Policy
	cache  *conditionQueryCache
}

// NewEngine builds an Engine bound to a Policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy, cache: newConditionQueryCache()}
}

// ProposeActions implements the evaluation algorithm of spec §4.6: for each
// rule whose status matches and all conditions hold, classify each action
// against the tier/safety/confidence/fail-safe gates.
func (e *Engine) ProposeActions(status decision.Status, decisionContext map[string]any, caller CallerContext) ([]Proposal, error) {
	var proposals []Proposal

	for _, rule := range e.policy.Rules {
		if !statusMatches(rule.Status, status) {
			continue
		}

		matched, err := e.conditionsHold(rule.Conditions, decisionContext)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		for _, a := range rule.Actions {
			proposals = append(proposals, e.classify(a, caller))
		}
	}

	return proposals, nil
}

func statusMatches(statuses []decision.Status, status decision.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (e *Engine) conditionsHold(conditions []Condition, decisionContext map[string]any) (bool, error) {
	for _, cond := range conditions {
		ok, err := e.cache.evalCondition(cond, decisionContext)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) classify(a Action, caller CallerContext) Proposal {
	tier := a.EffectiveTier()
	p := Proposal{Action: a, Tier: tier, Confidence: caller.Confidence, BaselineConfidence: caller.BaselineConfidence}

	if e.policy.HBMode == ModeSafe && a.Type != ActionNotify {
		p.BlockReason = BlockSafeModeOnlyNotify
		return p
	}

	if e.policy.MaxAllowedTier > 0 && tier > e.policy.MaxAllowedTier {
		p.BlockReason = BlockTierExceeded
		return p
	}

	if tier >= 3 {
		hasApproval := caller.ApprovalToken != "" && caller.SecondApproverID != ""
		hasPersistence := caller.PersistenceCycles >= e.policy.DecisionAuthority.TimePersistenceCycles
		if !hasApproval || !hasPersistence {
			p.BlockReason = BlockTierApprovalMissing
			return p
		}
	}

	critical := IsSafetyCritical(a.Type)
	if critical && e.policy.SafetyGate.RequireTwoConditions && caller.IndependentConditionsMet < 2 {
		p.BlockReason = BlockSafetyGate
		return p
	}

	if caller.Confidence < e.policy.DecisionAuthority.MinConfidence ||
		caller.BaselineConfidence < e.policy.DecisionAuthority.MinBaselineConfidence {
		p.BlockReason = BlockConfidence
		return p
	}

	if critical {
		if caller.FlaggedMetricCount < e.policy.DecisionAuthority.MinMetricsForCritical ||
			caller.PersistenceCycles < e.policy.DecisionAuthority.TimePersistenceCycles {
			p.BlockReason = BlockCriticalMetrics
			return p
		}
	}

	if critical && (caller.FailSafeOnTiming || !caller.TimingSLOMet) {
		p.BlockReason = BlockFailSafeTiming
		return p
	}

	p.WouldExecute = true
	return p
}
