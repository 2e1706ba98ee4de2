// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package cli

import "github.com/sentinel-hb/hb/internal/apperr"

// Exit codes per spec §6: 0 OK, 1 unknown, 2 parse, 3 config, 4 registry.
const (
	ExitOK       = 0
	ExitUnknown  = 1
	ExitParse    = 2
	ExitConfig   = 3
	ExitRegistry = 4
)

// ExitCode maps an error's apperr.Kind, if any, to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case apperr.Is(err, apperr.KindParse), apperr.Is(err, apperr.KindSchema):
		return ExitParse
	case apperr.Is(err, apperr.KindConfig):
		return ExitConfig
	case apperr.Is(err, apperr.KindRegistry):
		return ExitRegistry
	default:
		return ExitUnknown
	}
}
