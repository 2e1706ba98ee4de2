// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package action implements C6, the action engine: tiered rule evaluation
// against decision context, safety/confidence/tier gates, and an idempotent
// ledger handoff.
package action

import "github.com/sentinel-hb/hb/internal/decision"

// Mode is the hb_mode toggle (spec §4.6).
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeSafe   Mode = "safe"
)

// Op is a condition comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpLTE Op = "<="
	OpEQ  Op = "=="
)

// Condition is one `{key, op, value}` clause of a Rule.
type Condition struct {
	Key   string `yaml:"key"`
	Op    Op     `yaml:"op"`
	Value any    `yaml:"value"`
}

// Rule matches a decision status and a set of conditions against context,
// and lists the actions it proposes when it matches.
type Rule struct {
	Status     []decision.Status `yaml:"status"`
	Conditions []Condition       `yaml:"conditions"`
	Actions    []Action          `yaml:"actions"`
}

// ActionType is one of the fixed action kinds with a default tier.
type ActionType string

const (
	ActionNotify    ActionType = "notify"
	ActionRateLimit ActionType = "rate_limit"
	ActionDegrade   ActionType = "degrade"
	ActionIsolate   ActionType = "isolate"
	ActionFailover  ActionType = "failover"
	ActionAbort     ActionType = "abort"
	ActionShutdown  ActionType = "shutdown"
)

// defaultTiers maps each action type to its default tier (spec §4.6).
var defaultTiers = map[ActionType]int{
	ActionNotify:    1,
	ActionRateLimit: 1,
	ActionDegrade:   2,
	ActionIsolate:   2,
	ActionFailover:  2,
	ActionAbort:     3,
	ActionShutdown:  3,
}

// safetyCriticalTypes are the action types requiring the extra safety gate.
var safetyCriticalTypes = map[ActionType]bool{
	ActionAbort:    true,
	ActionShutdown: true,
}

// IsSafetyCritical reports whether t is a safety-critical action type.
func IsSafetyCritical(t ActionType) bool { return safetyCriticalTypes[t] }

// DefaultTier returns t's default tier, or 0 if unknown.
func DefaultTier(t ActionType) int { return defaultTiers[t] }

// Action is one action a matching Rule proposes.
type Action struct {
	Type   ActionType     `yaml:"type"`
	Params map[string]any `yaml:"params"`
	Tier   *int           `yaml:"tier,omitempty"`
}

// EffectiveTier returns Tier if set, else the action type's default.
func (a Action) EffectiveTier() int {
	if a.Tier != nil {
		return *a.Tier
	}
	return DefaultTier(a.Type)
}

// SafetyGate configures the independent-condition requirement for
// safety-critical actions.
type SafetyGate struct {
	RequireTwoConditions bool         `yaml:"require_two_conditions"`
	CriticalActions      []ActionType `yaml:"critical_actions"`
}

// DecisionAuthority configures the confidence/persistence gates.
type DecisionAuthority struct {
	MinConfidence         float64 `yaml:"min_confidence"`
	MinBaselineConfidence float64 `yaml:"min_baseline_confidence"`
	MinMetricsForCritical int     `yaml:"min_metrics_for_critical"`
	TimePersistenceCycles int     `yaml:"time_persistence_cycles"`
}

// Policy is the action engine's full configuration (spec §4.6).
type Policy struct {
	Version              string            `yaml:"version"`
	Rules                []Rule            `yaml:"rules"`
	SafetyGate           SafetyGate        `yaml:"safety_gate"`
	DecisionAuthority     DecisionAuthority `yaml:"decision_authority"`
	MaxAllowedTier        int               `yaml:"max_allowed_tier"`
	RequireTwoManForTier3 bool              `yaml:"require_two_man_for_tier3"`
	HBMode                Mode              `yaml:"hb_mode"`
}
