// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"

	"github.com/sentinel-hb/hb/internal/apperr"
)

// conditionQueryCache caches a PreparedEvalQuery per operator, mirroring the
// teacher's policies.queryCache — re-targeted from per-(metric,target)
// compiled policies to per-operator condition evaluation, since a rule
// condition's key/value vary per call but its operator does not.
type conditionQueryCache struct {
	sync.Mutex
	cache map[Op]*rego.PreparedEvalQuery
}

func newConditionQueryCache() *conditionQueryCache {
	return &conditionQueryCache{cache: make(map[Op]*rego.PreparedEvalQuery)}
}

func (c *conditionQueryCache) get(op Op) (*rego.PreparedEvalQuery, error) {
	c.Lock()
	defer c.Unlock()

	if q, ok := c.cache[op]; ok {
		return q, nil
	}

	expr, err := operatorExpr(op)
	if err != nil {
		return nil, err
	}

	store := inmem.New()
	prepared, err := rego.New(
		rego.Query(fmt.Sprintf("result := input.context[input.key] %s input.value", expr)),
		rego.Store(store),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, apperr.Config("conditionQueryCache.get", fmt.Errorf("could not prepare rego query for op %q: %w", op, err))
	}

	c.cache[op] = &prepared
	return &prepared, nil
}

func operatorExpr(op Op) (string, error) {
	switch op {
	case OpGTE:
		return ">=", nil
	case OpGT:
		return ">", nil
	case OpLT:
		return "<", nil
	case OpLTE:
		return "<=", nil
	case OpEQ:
		return "==", nil
	default:
		return "", fmt.Errorf("unrecognized condition operator %q", op)
	}
}

// evalCondition evaluates one {key, op, value} clause against
// decisionContext, using OPA/Rego the same way the teacher evaluates
// metric comparisons.
func (c *conditionQueryCache) evalCondition(cond Condition, decisionContext map[string]any) (bool, error) {
	query, err := c.get(cond.Op)
	if err != nil {
		return false, err
	}

	input := map[string]any{
		"context": decisionContext,
		"key":     cond.Key,
		"value":   cond.Value,
	}

	results, err := query.Eval(context.Background(), rego.EvalInput(input))
	if err != nil {
		return false, apperr.Policy("evalCondition", fmt.Errorf("could not evaluate condition on %q: %w", cond.Key, err))
	}
	if len(results) == 0 {
		return false, nil
	}

	result, ok := results[0].Bindings["result"].(bool)
	if !ok {
		return false, nil
	}
	return result, nil
}
