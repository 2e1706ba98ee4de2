// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sentinel-hb/hb/internal/apperr"
)

// NormalizeAlias applies the canonicalization rule shared by the alias index
// and runtime lookups: lowercase, then strip everything that isn't [a-z0-9].
func NormalizeAlias(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Load parses a metric registry YAML file, validates every entry has at
// least one rule, and builds the alias index.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Config("registry.Load: read file", err)
	}

	reg := &Registry{}
	if err := yaml.Unmarshal(raw, reg); err != nil {
		return nil, apperr.Config("registry.Load: parse yaml", err)
	}

	if reg.Metrics == nil {
		reg.Metrics = map[string]*MetricConfig{}
	}

	reg.AliasIndex = map[string]string{}
	for name, cfg := range reg.Metrics {
		if !cfg.hasRule() {
			return nil, apperr.Config("registry.Load", fmt.Errorf(
				"metric %q has neither threshold(s), invariants, nor critical:true", name))
		}
		for _, alias := range cfg.Aliases {
			norm := NormalizeAlias(alias)
			reg.AliasIndex[norm] = name
		}
		// A metric's own canonical name is always a valid lookup key too.
		reg.AliasIndex[NormalizeAlias(name)] = name
	}

	h := sha256.Sum256(raw)
	reg.Hash = hex.EncodeToString(h[:])

	return reg, nil
}

// Hash computes the SHA-256 of a registry file's bytes without fully
// parsing it, matching the hash Load would produce.
func Hash(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Config("registry.Hash: read file", err)
	}
	h := sha256.Sum256(raw)
	return hex.EncodeToString(h[:]), nil
}

// CanonicalOrder returns the metric names of r in stable sorted order, the
// order used by Plan and by every canonical-name-ordered emission in C4.
func (r *Registry) CanonicalOrder() []string {
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
