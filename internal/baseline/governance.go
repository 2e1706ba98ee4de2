// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/store"
)

// RequestTag opens a baseline tagging request in pending status. Direct
// tagging (governance.require_approval == false) bypasses this and calls
// reg.SetTag directly.
func RequestTag(reg *store.RunRegistry, runID, tag, requestedBy, reason string) (string, error) {
	requestID := "req_" + uuid.NewString()
	req := store.BaselineRequest{
		RequestID:   requestID,
		RunID:       runID,
		Tag:         tag,
		RequestedBy: requestedBy,
		Reason:      reason,
	}
	if err := reg.AddRequest(req); err != nil {
		return "", err
	}
	return requestID, nil
}

// Approve records an approval from approvedBy. If policy.Governance lists
// an approver set, approvedBy must be a member. Once the distinct-approver
// count reaches approvals_required, the request is approved and the tag is
// set to the request's run_id.
func Approve(reg *store.RunRegistry, policy Policy, requestID, approvedBy, reason string) error {
	req, err := reg.GetRequest(requestID)
	if err != nil {
		return err
	}

	if len(policy.Governance.Approvers) > 0 && !slices.Contains(policy.Governance.Approvers, approvedBy) {
		return apperr.Governance("Approve", fmt.Errorf("%q is not in the configured approver set", approvedBy))
	}

	approval := store.BaselineApproval{
		ApprovalID: "appr_" + uuid.NewString(),
		RunID:      req.RunID,
		Tag:        req.Tag,
		ApprovedBy: approvedBy,
		Reason:     reason,
		RequestID:  requestID,
	}
	if err := reg.AddApproval(approval); err != nil {
		return err
	}

	count, err := reg.CountApprovals(requestID)
	if err != nil {
		return err
	}

	required := policy.Governance.ApprovalsRequired
	if required <= 0 {
		required = 1
	}
	if count < required {
		return nil
	}

	if err := reg.SetStatus(requestID, store.RequestApproved); err != nil {
		return err
	}
	return reg.SetTag(req.Tag, req.RunID, "")
}

// Reject transitions a pending request to rejected.
func Reject(reg *store.RunRegistry, requestID string) error {
	return reg.SetStatus(requestID, store.RequestRejected)
}
