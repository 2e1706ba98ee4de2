// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

// Package apperr defines the error taxonomy shared across the engine: a
// small, fixed set of tags that callers can branch on with errors.Is/As
// instead of string-matching messages.
package apperr

import "errors"

// Kind is one of the fixed error tags. Decision logic never throws on
// per-metric data problems; Kind is only used for operations that can
// genuinely fail (parsing, config, durable storage, governance, policy,
// transient I/O, cancellation).
type Kind string

const (
	KindParse       Kind = "ParseError"
	KindSchema      Kind = "SchemaError"
	KindConfig      Kind = "ConfigError"
	KindRegistry    Kind = "RegistryError"
	KindGovernance  Kind = "GovernanceError"
	KindPolicy      Kind = "PolicyBlocked"
	KindTransientIO Kind = "TransientIOError"
	KindCancelled   Kind = "Cancelled"
)

// Error wraps an underlying cause with a taxonomy Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Op
	}
	return string(e.Kind) + ": " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

func Parse(op string, err error) error       { return New(KindParse, op, err) }
func Schema(op string, err error) error       { return New(KindSchema, op, err) }
func Config(op string, err error) error       { return New(KindConfig, op, err) }
func Registry(op string, err error) error     { return New(KindRegistry, op, err) }
func Governance(op string, err error) error   { return New(KindGovernance, op, err) }
func Policy(op string, err error) error       { return New(KindPolicy, op, err) }
func TransientIO(op string, err error) error  { return New(KindTransientIO, op, err) }
func Cancelled(op string, err error) error    { return New(KindCancelled, op, err) }
