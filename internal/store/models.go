// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package store is the durable transactional store of runs, metrics, tags,
// requests, approvals, and the action ledger (C2 Run Registry). It is a
// thin CRUD layer over *gorm.DB, following the same Storage/StorageOption
// idiom the ambient db package uses.
package store

import (
	"time"

	"github.com/sentinel-hb/hb/internal/telemetry"
)

// RunStatus mirrors decision.Status as a plain string for storage, so this
// package has no import-time dependency on the decision engine.
type RunStatus string

const (
	RunStatusPass          RunStatus = "PASS"
	RunStatusPassWithDrift RunStatus = "PASS_WITH_DRIFT"
	RunStatusFail          RunStatus = "FAIL"
	RunStatusNoMetrics     RunStatus = "NO_METRICS"
	RunStatusNoTest        RunStatus = "NO_TEST"
)

// Run is the persistent row for a single run (§3 "Run").
type Run struct {
	RunID          string `gorm:"primaryKey;column:run_id"`
	Program        string
	Subsystem      string
	TestName       string
	Environment    string
	BuildSHA       string
	BuildID        string
	StartUTC       time.Time
	EndUTC         time.Time
	SourceSystem   string
	RegistryHash   string
	Status         RunStatus
	BaselineRunID  string
	CorrelationID  string
	CreatedAt      time.Time

	Metrics []Metric `gorm:"foreignKey:RunID;references:RunID"`
}

// Metric is a single metric row belonging to a Run.
type Metric struct {
	ID    uint   `gorm:"primaryKey"`
	RunID string `gorm:"index:idx_metric_run_name,unique"`
	Name  string `gorm:"column:metric;index:idx_metric_run_name,unique"`
	Value *float64
	Unit  string
	Tags  telemetry.Tags `gorm:"type:text;serializer:hbtags"`
}

// BaselineTag is a named pointer (e.g. "golden") to a run_id.
type BaselineTag struct {
	Tag          string `gorm:"primaryKey"`
	RunID        string
	RegistryHash string
	CreatedAt    time.Time
}

// RequestStatus is the lifecycle state of a BaselineRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// BaselineRequest is an open request to tag a run_id as a baseline,
// awaiting approvals.
type BaselineRequest struct {
	RequestID   string `gorm:"primaryKey;column:request_id"`
	RunID       string
	Tag         string
	RequestedBy string
	Reason      string
	Status      RequestStatus
	RequestedAt time.Time
	ApprovedAt  *time.Time
}

// BaselineApproval is an immutable approval of a BaselineRequest (or a
// direct tag, when RequestID is empty).
type BaselineApproval struct {
	ApprovalID string `gorm:"primaryKey;column:approval_id"`
	RunID      string
	Tag        string
	ApprovedBy string
	Reason     string
	ApprovedAt time.Time
	RequestID  string
}

// ActionLedgerStatus is the lifecycle state of an ActionLedgerEntry.
type ActionLedgerStatus string

const (
	ActionPending       ActionLedgerStatus = "pending"
	ActionAck           ActionLedgerStatus = "ack"
	ActionBlocked       ActionLedgerStatus = "blocked"
	ActionIdempotentSkip ActionLedgerStatus = "idempotent_skip"
	ActionDryRun        ActionLedgerStatus = "dry_run"
)

// ActionLedgerEntry is one append-only row of the action ledger (§3).
type ActionLedgerEntry struct {
	ActionID         string `gorm:"primaryKey;column:action_id"`
	RunID            string
	DecisionID       string
	ActionType       string
	Status           ActionLedgerStatus
	Payload          telemetry.Tags `gorm:"column:payload;type:text;serializer:hbtags"`
	IdempotencyKey   string `gorm:"index"`
	SafetyGatePassed bool
	DryRun           bool
	CreatedAt        time.Time
	AckAt            *time.Time
}

// AllModels lists every type that must be auto-migrated.
func AllModels() []any {
	return []any{
		&Run{}, &Metric{}, &BaselineTag{},
		&BaselineRequest{}, &BaselineApproval{}, &ActionLedgerEntry{},
	}
}
