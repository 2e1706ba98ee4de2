// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package hbevent defines the HB_EVENT wire envelope external systems
// consume (spec §6), and the status-to-severity mapping used to fill it in.
package hbevent

import (
	"time"

	"github.com/sentinel-hb/hb/internal/decision"
)

// Type is the envelope's discriminant.
type Type string

const (
	TypeDrift            Type = "DRIFT_EVENT"
	TypeHealth           Type = "HEALTH_EVENT"
	TypeActionRequest    Type = "ACTION_REQUEST"
	TypeActionAck        Type = "ACTION_ACK"
	TypeDecisionSnapshot Type = "DECISION_SNAPSHOT"
)

// Severity is the envelope's severity field.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityFail     Severity = "FAIL"
	SeverityCritical Severity = "CRITICAL"
)

// Envelope is the HB_EVENT wire format.
type Envelope struct {
	Type               Type            `json:"type"`
	Timestamp          time.Time       `json:"timestamp"`
	SystemID           string          `json:"system_id"`
	Status             decision.Status `json:"status,omitempty"`
	Severity           Severity        `json:"severity,omitempty"`
	RunID              string          `json:"run_id,omitempty"`
	DecisionID         string          `json:"decision_id,omitempty"`
	Confidence         *float64        `json:"confidence,omitempty"`
	BaselineConfidence *float64        `json:"baseline_confidence,omitempty"`
	ActionAllowed      *bool           `json:"action_allowed,omitempty"`
	Payload            any             `json:"payload,omitempty"`
}

// SeverityFor maps a decision status to a severity, promoting to CRITICAL
// when any failed metric is marked critical (spec §6).
func SeverityFor(status decision.Status, anyCriticalFail bool) Severity {
	switch status {
	case decision.StatusFail:
		if anyCriticalFail {
			return SeverityCritical
		}
		return SeverityFail
	case decision.StatusPassWithDrift:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// NewDecisionSnapshot builds a DECISION_SNAPSHOT envelope.
func NewDecisionSnapshot(systemID, runID, decisionID string, status decision.Status, anyCriticalFail bool, confidence, baselineConfidence *float64, actionAllowed bool, ts time.Time, payload any) Envelope {
	allowed := actionAllowed
	return Envelope{
		Type:               TypeDecisionSnapshot,
		Timestamp:          ts,
		SystemID:           systemID,
		Status:             status,
		Severity:           SeverityFor(status, anyCriticalFail),
		RunID:              runID,
		DecisionID:         decisionID,
		Confidence:         confidence,
		BaselineConfidence: baselineConfidence,
		ActionAllowed:      &allowed,
		Payload:            payload,
	}
}

// NewDriftEvent builds a DRIFT_EVENT envelope.
func NewDriftEvent(systemID, runID string, status decision.Status, anyCriticalFail bool, ts time.Time, payload any) Envelope {
	return Envelope{
		Type:      TypeDrift,
		Timestamp: ts,
		SystemID:  systemID,
		Status:    status,
		Severity:  SeverityFor(status, anyCriticalFail),
		RunID:     runID,
		Payload:   payload,
	}
}
