// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_aliasIndexResolvesBack(t *testing.T) {
	path := writeRegistry(t, `
version: "1"
metrics:
  cpu_usage:
    aliases: ["CPU Usage", "cpu-usage%"]
    drift_threshold: 1.0
`)

	reg, err := Load(path)
	require.NoError(t, err)

	for _, alias := range []string{"CPU Usage", "cpu-usage%", "cpu_usage"} {
		canonical := reg.Resolve(alias)
		assert.Equal(t, "cpu_usage", canonical, "alias %q must resolve to canonical name", alias)
	}
}

func TestLoad_rejectsMetricWithoutRule(t *testing.T) {
	path := writeRegistry(t, `
version: "1"
metrics:
  useless:
    aliases: ["useless"]
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestNormalizeAlias_idempotent(t *testing.T) {
	for _, raw := range []string{"CPU Usage %", "already_normalized", "Weird!!--Chars123"} {
		once := NormalizeAlias(raw)
		twice := NormalizeAlias(once)
		assert.Equal(t, once, twice)
	}
}

func TestCompilePlan_orderIsCanonical(t *testing.T) {
	path := writeRegistry(t, `
version: "1"
metrics:
  zeta:
    critical: true
  alpha:
    critical: true
`)
	reg, err := Load(path)
	require.NoError(t, err)

	plan := CompilePlan(reg)
	assert.Equal(t, []string{"alpha", "zeta"}, plan.Names)
	assert.Equal(t, 0, plan.IndexOf("alpha"))
	assert.Equal(t, 1, plan.IndexOf("zeta"))
	assert.Equal(t, -1, plan.IndexOf("missing"))
}

func TestHash_matchesLoad(t *testing.T) {
	path := writeRegistry(t, `
version: "1"
metrics:
  m:
    critical: true
`)
	reg, err := Load(path)
	require.NoError(t, err)

	h, err := Hash(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Hash, h)
}
