// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hokaccha/go-prettyjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/sentinel-hb/hb/internal/action"
	"github.com/sentinel-hb/hb/internal/apperr"
	"github.com/sentinel-hb/hb/internal/baseline"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/store"
)

// printJSON pretty-prints v as colorized JSON to stdout, the Go-CLI
// counterpart to printing a drift_report.json/decision_record.json for a
// human reading a terminal rather than a downstream tool reading a file.
func printJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return apperr.TransientIO("printJSON", err)
	}
	out, err := prettyjson.Format(b)
	if err != nil {
		return apperr.TransientIO("printJSON", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

// loadRegistry loads and compiles the metric registry named by the
// "metric-registry" global flag.
func loadRegistry(c *cli.Command) (*registry.Registry, *registry.Plan, error) {
	path := c.Root().String("metric-registry")
	reg, err := registry.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return reg, registry.CompilePlan(reg), nil
}

// baselinePolicyDoc is the top-level shape of a baseline policy YAML file;
// the policy may be nested under a baseline_policy key (original_source/hb
// layout) or be the document root.
type baselinePolicyDoc struct {
	BaselinePolicy *baseline.Policy `yaml:"baseline_policy"`
	baseline.Policy `yaml:",inline"`
}

func loadBaselinePolicy(c *cli.Command) (baseline.Policy, error) {
	path := c.Root().String("baseline-policy")
	raw, err := os.ReadFile(path)
	if err != nil {
		return baseline.Policy{}, apperr.Config("loadBaselinePolicy", err)
	}

	var doc baselinePolicyDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return baseline.Policy{}, apperr.Config("loadBaselinePolicy: parse yaml", err)
	}
	if doc.BaselinePolicy != nil {
		return *doc.BaselinePolicy, nil
	}
	return doc.Policy, nil
}

func loadActionPolicy(c *cli.Command) (action.Policy, error) {
	path := c.Root().String("action-policy")
	raw, err := os.ReadFile(path)
	if err != nil {
		return action.Policy{}, apperr.Config("loadActionPolicy", err)
	}

	var policy action.Policy
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return action.Policy{}, apperr.Config("loadActionPolicy: parse yaml", err)
	}
	return policy, nil
}

// openRunRegistry opens the run registry against the "db" global flag: a
// Postgres DSN, or an in-memory store when empty (useful for local runs and
// examples, never for a real daemon deployment).
func openRunRegistry(c *cli.Command) (*store.RunRegistry, error) {
	dsn := c.Root().String("db")

	var opt store.StorageOption
	if dsn == "" {
		opt = store.WithInMemory()
	} else {
		opt = store.WithDSN(dsn)
	}

	storage, err := store.NewStorage(opt)
	if err != nil {
		return nil, apperr.Config("openRunRegistry", err)
	}
	return store.NewRunRegistry(storage), nil
}

func fileHash12(path string) (string, error) {
	full, err := registry.Hash(path)
	if err != nil {
		return "", err
	}
	if len(full) < 12 {
		return full, nil
	}
	return full[:12], nil
}

// requireArg fetches the nth positional argument or returns a parse error.
func requireArg(c *cli.Command, n int, name string) (string, error) {
	if c.Args().Len() <= n {
		return "", apperr.Parse("requireArg", fmt.Errorf("%s is required", name))
	}
	return c.Args().Get(n), nil
}
