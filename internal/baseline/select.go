// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package baseline

import (
	"errors"

	"github.com/sentinel-hb/hb/internal/store"
)

// Selection is the result of SelectBaseline (spec §4.3).
type Selection struct {
	BaselineRunID string
	Reason        string
	Warning       string
	MatchInfo     map[string]any
}

// Reason values for Selection.Reason.
const (
	ReasonTag            = "tag"
	ReasonTagNotFound    = "tag_not_found"
	ReasonLastPass       = "last_pass"
	ReasonFallbackLatest = "fallback_latest"
	ReasonNoPass         = "no_pass"
	ReasonNoRuns         = "no_runs"
)

// SelectBaseline implements the four-step selection algorithm of §4.3.
func SelectBaseline(meta store.RunMeta, policy Policy, registryHash string, reg *store.RunRegistry) (Selection, error) {
	if policy.Tag != "" {
		tag, err := reg.GetTag(policy.Tag)
		if errors.Is(err, store.ErrRecordNotFound) {
			return Selection{Reason: ReasonTagNotFound}, nil
		}
		if err != nil {
			return Selection{}, err
		}

		sel := Selection{BaselineRunID: tag.RunID, Reason: ReasonTag}
		if registryHash != "" && tag.RegistryHash != "" && tag.RegistryHash != registryHash {
			sel.Warning = "baseline registry_hash does not match current registry_hash"
		}
		return sel, nil
	}

	runs, err := reg.ListRunsMatching(meta.Program, meta.Subsystem, meta.TestName)
	if err != nil {
		return Selection{}, err
	}
	if len(runs) == 0 {
		return Selection{Reason: ReasonNoRuns}, nil
	}

	for _, run := range runs {
		if run.Status == store.RunStatusPass {
			return Selection{BaselineRunID: run.RunID, Reason: ReasonLastPass}, nil
		}
	}

	if policy.Fallback == "latest" {
		return Selection{BaselineRunID: runs[0].RunID, Reason: ReasonFallbackLatest}, nil
	}

	return Selection{Reason: ReasonNoPass}, nil
}
