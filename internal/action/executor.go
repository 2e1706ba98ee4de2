// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package action

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// ExecuteRequest carries the execution-time parameters for one proposal
// (spec §4.6 "Execute").
type ExecuteRequest struct {
	RunID          string
	DecisionID     string
	DryRun         bool
	IdempotencyKey string
}

// ExecuteResult is what Execute returns: the ledger status the proposal
// was recorded under, plus the action_id of the ledger row (existing, on
// an idempotent_skip).
type ExecuteResult struct {
	ActionID string
	Status   store.ActionLedgerStatus
}

// Execute records a proposal's outcome in the action ledger. It never
// performs the side effect itself — per spec §4.6 a separate executor
// consumes `pending` rows and acknowledges them via ActionLedgerAck. The
// engine's only contract here is correct classification and durable
// ledger state.
func Execute(reg *store.RunRegistry, proposal Proposal, req ExecuteRequest) (ExecuteResult, error) {
	if !proposal.WouldExecute {
		entry := store.ActionLedgerEntry{
			ActionID:       "act_" + uuid.NewString(),
			RunID:          req.RunID,
			DecisionID:     req.DecisionID,
			ActionType:     string(proposal.Action.Type),
			Status:         store.ActionBlocked,
			Payload:        paramsToTags(proposal.Action.Params),
			IdempotencyKey: req.IdempotencyKey,
			DryRun:         req.DryRun,
		}
		if err := reg.ActionLedgerInsert(entry); err != nil {
			return ExecuteResult{}, err
		}
		return ExecuteResult{ActionID: entry.ActionID, Status: store.ActionBlocked}, nil
	}

	if req.DryRun {
		entry := store.ActionLedgerEntry{
			ActionID:         "act_" + uuid.NewString(),
			RunID:            req.RunID,
			DecisionID:       req.DecisionID,
			ActionType:       string(proposal.Action.Type),
			Status:           store.ActionDryRun,
			Payload:          paramsToTags(proposal.Action.Params),
			IdempotencyKey:   req.IdempotencyKey,
			SafetyGatePassed: true,
			DryRun:           true,
		}
		if err := reg.ActionLedgerInsert(entry); err != nil {
			return ExecuteResult{}, err
		}
		return ExecuteResult{ActionID: entry.ActionID, Status: store.ActionDryRun}, nil
	}

	if req.IdempotencyKey != "" {
		existing, err := reg.ActionLedgerByIdempotency(req.IdempotencyKey)
		if err == nil {
			return ExecuteResult{ActionID: existing.ActionID, Status: store.ActionIdempotentSkip}, nil
		}
		if !errors.Is(err, store.ErrRecordNotFound) {
			return ExecuteResult{}, err
		}
	}

	entry := store.ActionLedgerEntry{
		ActionID:         "act_" + uuid.NewString(),
		RunID:            req.RunID,
		DecisionID:       req.DecisionID,
		ActionType:       string(proposal.Action.Type),
		Status:           store.ActionPending,
		Payload:          paramsToTags(proposal.Action.Params),
		IdempotencyKey:   req.IdempotencyKey,
		SafetyGatePassed: true,
	}
	if err := reg.ActionLedgerInsert(entry); err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{ActionID: entry.ActionID, Status: store.ActionPending}, nil
}

func paramsToTags(params map[string]any) telemetry.Tags {
	if params == nil {
		return nil
	}
	// round-trip through JSON so arbitrary param value types normalize the
	// same way they will when read back from the database.
	b, err := json.Marshal(params)
	if err != nil {
		return telemetry.Tags{}
	}
	var tags telemetry.Tags
	if err := json.Unmarshal(b, &tags); err != nil {
		return telemetry.Tags{}
	}
	return tags
}
