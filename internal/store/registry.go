// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// RunRegistry is C2: the durable, transactional store of runs, metrics,
// tags, requests, approvals, and the action ledger. Every mutating call is
// serialized by mu, the "registry-scoped lock" of spec §4.2.
type RunRegistry struct {
	mu      sync.Mutex
	storage *Storage
}

// NewRunRegistry wraps an already-constructed Storage.
func NewRunRegistry(storage *Storage) *RunRegistry {
	return &RunRegistry{storage: storage}
}

// RunMeta mirrors the data model's RunMeta (§3), the caller-supplied
// identity of a run.
type RunMeta struct {
	RunID         string
	Program       string
	Subsystem     string
	TestName      string
	Environment   string
	BuildSHA      string
	BuildID       string
	StartUTC      time.Time
	EndUTC        time.Time
	SourceSystem  string
	CorrelationID string
}

// UpsertRun inserts or updates by run_id; status and baseline_run_id are
// always overwritten, other columns are only set on insert (spec §4.2).
func (r *RunRegistry) UpsertRun(meta RunMeta, status RunStatus, baselineRunID, registryHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing Run
	err := r.storage.Get(&existing, "run_id = ?", meta.RunID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		run := Run{
			RunID:         meta.RunID,
			Program:       meta.Program,
			Subsystem:     meta.Subsystem,
			TestName:      meta.TestName,
			Environment:   meta.Environment,
			BuildSHA:      meta.BuildSHA,
			BuildID:       meta.BuildID,
			StartUTC:      meta.StartUTC,
			EndUTC:        meta.EndUTC,
			SourceSystem:  meta.SourceSystem,
			RegistryHash:  registryHash,
			Status:        status,
			BaselineRunID: baselineRunID,
			CorrelationID: meta.CorrelationID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := r.storage.Create(&run); err != nil {
			return apperr.Registry("UpsertRun: create", err)
		}
		return nil
	case err != nil:
		return apperr.Registry("UpsertRun: get", err)
	default:
		// A map (unlike a struct) also writes an empty baseline_run_id.
		err := r.storage.DB.Model(&Run{}).Where("run_id = ?", meta.RunID).
			Updates(map[string]any{"status": status, "baseline_run_id": baselineRunID}).Error
		if err != nil {
			return apperr.Registry("UpsertRun: update", err)
		}
		return nil
	}
}

// ReplaceMetrics atomically deletes and re-inserts the metric rows for a
// run_id, retried on lock contention with bounded backoff (3x250ms, §4.2).
func (r *RunRegistry) ReplaceMetrics(runID string, metrics map[string]telemetry.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	const maxAttempts = 3
	const backoff = 250 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = r.storage.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("run_id = ?", runID).Delete(&Metric{}).Error; err != nil {
				return err
			}
			for name, m := range metrics {
				row := Metric{RunID: runID, Name: name, Value: m.Value, Unit: m.Unit, Tags: m.Tags}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if lastErr == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			time.Sleep(backoff)
		}
	}

	return apperr.Registry("ReplaceMetrics", fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr))
}

// FetchMetrics returns the metric rows for a run_id, keyed by canonical
// name.
func (r *RunRegistry) FetchMetrics(runID string) (map[string]telemetry.Metric, error) {
	var rows []Metric
	if err := r.storage.List(&rows, "", true, 0, -1, "run_id = ?", runID); err != nil {
		return nil, apperr.Registry("FetchMetrics", err)
	}

	out := make(map[string]telemetry.Metric, len(rows))
	for _, row := range rows {
		out[row.Name] = telemetry.Metric{Name: row.Name, Value: row.Value, Unit: row.Unit, Tags: row.Tags}
	}
	return out, nil
}

// GetRun fetches a single run row.
func (r *RunRegistry) GetRun(runID string) (Run, error) {
	var run Run
	if err := r.storage.Get(&run, "run_id = ?", runID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return Run{}, err
		}
		return Run{}, apperr.Registry("GetRun", err)
	}
	return run, nil
}

// ListRunsMatching returns runs matching (program, subsystem, test_name) in
// insertion order newest-first.
func (r *RunRegistry) ListRunsMatching(program, subsystem, testName string) ([]Run, error) {
	var runs []Run
	err := r.storage.List(&runs, "created_at", false, 0, -1,
		"program = ? AND subsystem = ? AND test_name = ?", program, subsystem, testName)
	if err != nil {
		return nil, apperr.Registry("ListRunsMatching", err)
	}
	return runs, nil
}

// ListRecent returns the most recently created runs, newest-first, capped
// at limit — used by the `runs list` CLI command.
func (r *RunRegistry) ListRecent(limit int) ([]Run, error) {
	var runs []Run
	err := r.storage.List(&runs, "created_at", false, 0, limit)
	if err != nil {
		return nil, apperr.Registry("ListRecent", err)
	}
	return runs, nil
}

// ListRunsSince returns all runs created at or after since, newest-first —
// used by the supplemental window-based baseline creation feature.
func (r *RunRegistry) ListRunsSince(since time.Time) ([]Run, error) {
	var runs []Run
	err := r.storage.List(&runs, "created_at", false, 0, -1, "created_at >= ?", since)
	if err != nil {
		return nil, apperr.Registry("ListRunsSince", err)
	}
	return runs, nil
}

// SetTag sets (last-writer-wins) a baseline tag pointer.
func (r *RunRegistry) SetTag(tag, runID, registryHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.GetRun(runID); err != nil {
		return apperr.Governance("SetTag", fmt.Errorf("run %q does not exist: %w", runID, err))
	}

	row := BaselineTag{Tag: tag, RunID: runID, RegistryHash: registryHash, CreatedAt: time.Now().UTC()}
	if err := r.storage.Save(&row, "tag = ?", tag); err != nil {
		return apperr.Registry("SetTag", err)
	}
	return nil
}

// GetTag looks up a baseline tag.
func (r *RunRegistry) GetTag(tag string) (BaselineTag, error) {
	var row BaselineTag
	if err := r.storage.Get(&row, "tag = ?", tag); err != nil {
		return BaselineTag{}, err
	}
	return row, nil
}

// ListTags lists all baseline tags.
func (r *RunRegistry) ListTags() ([]BaselineTag, error) {
	var rows []BaselineTag
	if err := r.storage.List(&rows, "tag", true, 0, -1); err != nil {
		return nil, apperr.Registry("ListTags", err)
	}
	return rows, nil
}

// AddRequest opens a new baseline tagging request in pending status.
func (r *RunRegistry) AddRequest(req BaselineRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req.Status = RequestPending
	req.RequestedAt = time.Now().UTC()
	if err := r.storage.Create(&req); err != nil {
		return apperr.Registry("AddRequest", err)
	}
	return nil
}

// GetRequest fetches a request by ID.
func (r *RunRegistry) GetRequest(requestID string) (BaselineRequest, error) {
	var req BaselineRequest
	if err := r.storage.Get(&req, "request_id = ?", requestID); err != nil {
		return BaselineRequest{}, err
	}
	return req, nil
}

// SetStatus transitions a request's status exactly once (pending ->
// approved|rejected, spec §4.3).
func (r *RunRegistry) SetStatus(requestID string, status RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, err := r.GetRequest(requestID)
	if err != nil {
		return apperr.Registry("SetStatus: get", err)
	}
	if req.Status != RequestPending {
		return apperr.Governance("SetStatus", fmt.Errorf("request %q already %s", requestID, req.Status))
	}

	req.Status = status
	now := time.Now().UTC()
	req.ApprovedAt = &now
	if err := r.storage.Update(&req, "request_id = ?", requestID); err != nil {
		return apperr.Registry("SetStatus: update", err)
	}
	return nil
}

// CountApprovals returns the number of distinct approvers for a request.
func (r *RunRegistry) CountApprovals(requestID string) (int, error) {
	var approvals []BaselineApproval
	if err := r.storage.List(&approvals, "", true, 0, -1, "request_id = ?", requestID); err != nil {
		return 0, apperr.Registry("CountApprovals", err)
	}

	distinct := map[string]struct{}{}
	for _, a := range approvals {
		distinct[a.ApprovedBy] = struct{}{}
	}
	return len(distinct), nil
}

// AddApproval records an immutable approval.
func (r *RunRegistry) AddApproval(approval BaselineApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	approval.ApprovedAt = time.Now().UTC()
	if err := r.storage.Create(&approval); err != nil {
		return apperr.Registry("AddApproval", err)
	}
	return nil
}

// ActionLedgerInsert appends a new ledger entry.
func (r *RunRegistry) ActionLedgerInsert(entry ActionLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.CreatedAt = time.Now().UTC()
	if err := r.storage.Create(&entry); err != nil {
		return apperr.Registry("ActionLedgerInsert", err)
	}
	return nil
}

// ActionLedgerByIdempotency looks up an existing ledger entry by
// idempotency key.
func (r *RunRegistry) ActionLedgerByIdempotency(key string) (ActionLedgerEntry, error) {
	var entry ActionLedgerEntry
	if err := r.storage.Get(&entry, "idempotency_key = ?", key); err != nil {
		return ActionLedgerEntry{}, err
	}
	return entry, nil
}

// ActionLedgerAck transitions a pending entry to ack, stamping ack_at.
func (r *RunRegistry) ActionLedgerAck(actionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entry ActionLedgerEntry
	if err := r.storage.Get(&entry, "action_id = ?", actionID); err != nil {
		return apperr.Registry("ActionLedgerAck: get", err)
	}

	entry.Status = ActionAck
	now := time.Now().UTC()
	entry.AckAt = &now
	if err := r.storage.Update(&entry, "action_id = ?", actionID); err != nil {
		return apperr.Registry("ActionLedgerAck: update", err)
	}
	return nil
}
