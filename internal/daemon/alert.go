// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sentinel-hb/hb/internal/hbevent"
)

// Sink is the narrow collaborator interface for alert delivery (spec §6
// lists webhook/file sinks as external collaborators); this package
// provides only the reference stdout implementation used for dev/test.
type Sink interface {
	Send(ctx context.Context, env hbevent.Envelope) error
}

// StdoutSink writes each envelope as a single JSON line to w, guarded by a
// mutex since cycles may push from the single daemon loop but tests push
// concurrently.
type StdoutSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutSink builds a sink writing to w.
func NewStdoutSink(w io.Writer) *StdoutSink {
	return &StdoutSink{w: w}
}

// Send serializes env as one JSON line.
func (s *StdoutSink) Send(ctx context.Context, env hbevent.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.w, string(b))
	return err
}
