// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package daemon

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrCircuitOpen is returned by Call while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker opens after failureThreshold failures within window, and
// stays open for openFor before allowing calls again (spec §4.8, translated
// from original_source/hb/resilience.py's CircuitBreaker).
type CircuitBreaker struct {
	failureThreshold int
	window           time.Duration
	openFor          time.Duration

	mu       sync.Mutex
	failures []time.Time

	// openedAtUnixNano is 0 while closed; atomic so IsOpen can be checked
	// from a hot path without taking mu.
	openedAtUnixNano atomic.Int64
}

// NewCircuitBreaker builds a breaker with the given thresholds.
func NewCircuitBreaker(failureThreshold int, window, openFor time.Duration) *CircuitBreaker {
	return &CircuitBreaker{failureThreshold: failureThreshold, window: window, openFor: openFor}
}

// RecordSuccess prunes the failure window; it does not close an open
// circuit early.
func (c *CircuitBreaker) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(time.Now())
}

// RecordFailure records a failure and opens the circuit once the threshold
// is reached within window.
func (c *CircuitBreaker) RecordFailure() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures = append(c.failures, now)
	c.pruneLocked(now)
	if len(c.failures) >= c.failureThreshold {
		c.openedAtUnixNano.Store(now.UnixNano())
	}
}

func (c *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-c.window)
	kept := c.failures[:0]
	for _, t := range c.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.failures = kept
}

// IsOpen reports whether the circuit is currently open, closing it (and
// resetting the failure window) once openFor has elapsed.
func (c *CircuitBreaker) IsOpen() bool {
	openedAt := c.openedAtUnixNano.Load()
	if openedAt == 0 {
		return false
	}
	if time.Since(time.Unix(0, openedAt)) >= c.openFor {
		c.openedAtUnixNano.Store(0)
		c.mu.Lock()
		c.failures = nil
		c.mu.Unlock()
		return false
	}
	return true
}

// Call runs fn unless the circuit is open, recording success/failure.
func (c *CircuitBreaker) Call(fn func() error) error {
	if c.IsOpen() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		c.RecordFailure()
		return err
	}
	c.RecordSuccess()
	return nil
}
