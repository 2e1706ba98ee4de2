// Copyright 2025 Fraunhofer AISEC:
// This code is licensed under the terms of the Apache License, Version 2.0.
// See the LICENSE file in this project for details.

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	hblog "github.com/sentinel-hb/hb/log"

	"github.com/sentinel-hb/hb/internal/action"
	"github.com/sentinel-hb/hb/internal/baseline"
	"github.com/sentinel-hb/hb/internal/decision"
	"github.com/sentinel-hb/hb/internal/evidence"
	"github.com/sentinel-hb/hb/internal/hbevent"
	"github.com/sentinel-hb/hb/internal/registry"
	"github.com/sentinel-hb/hb/internal/store"
	"github.com/sentinel-hb/hb/internal/streaming"
	"github.com/sentinel-hb/hb/internal/telemetry"
)

// Config is everything the orchestrator needs beyond its collaborators.
type Config struct {
	SystemID             string
	ReportsDir           string
	IntervalSec          float64
	MaxReportDirs        int
	CheckpointHistoryMax int

	CircuitFailureThreshold int
	CircuitWindow           time.Duration
	CircuitOpenFor          time.Duration

	WindowSpec          streaming.WindowSpec
	WatermarkPolicy     streaming.WatermarkPolicy
	MaxBuckets          int
	Deterministic       bool
	DistributionEnabled bool
	TopDrifts           int

	BaselinePolicy baseline.Policy
	ActionPolicy   action.Policy
}

// Orchestrator runs the daemon's single long-running loop (spec §4.8).
type Orchestrator struct {
	cfg Config

	reg      *registry.Registry
	plan     *registry.Plan
	runs     *store.RunRegistry
	source   Source
	sinks    []Sink
	auditLog *evidence.AuditLog

	evaluator *streaming.Evaluator
	engine    *action.Engine
	breaker   *CircuitBreaker
	cps       *CheckpointStore

	scheduler *gocron.Scheduler
	cycle     int
}

// New builds an Orchestrator. auditLogPath and checkpointPath are files
// under cfg.ReportsDir by convention but may point anywhere.
func New(cfg Config, reg *registry.Registry, plan *registry.Plan, runs *store.RunRegistry, source Source, sinks []Sink, auditLogPath, checkpointPath string) (*Orchestrator, error) {
	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		return nil, err
	}

	auditLog, err := evidence.OpenAuditLog(auditLogPath)
	if err != nil {
		return nil, err
	}

	cps, err := OpenCheckpointStore(checkpointPath, cfg.CheckpointHistoryMax)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:       cfg,
		reg:       reg,
		plan:      plan,
		runs:      runs,
		source:    source,
		sinks:     sinks,
		auditLog:  auditLog,
		evaluator: streaming.NewEvaluator(cfg.WindowSpec, cfg.WatermarkPolicy, cfg.MaxBuckets, cfg.Deterministic, reg, plan, 256),
		engine:    action.NewEngine(cfg.ActionPolicy),
		breaker:   NewCircuitBreaker(cfg.CircuitFailureThreshold, cfg.CircuitWindow, cfg.CircuitOpenFor),
		cps:       cps,
		scheduler: gocron.NewScheduler(time.UTC),
	}, nil
}

// Run starts the ingest pump and the periodic decision cycle, blocking
// until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.pumpIngest(gctx) })

	if _, err := o.scheduler.Every(int(o.cfg.IntervalSec)).Seconds().Do(func() {
		o.runCycle(gctx)
	}); err != nil {
		return err
	}
	o.scheduler.StartAsync()
	defer o.scheduler.Stop()

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// pumpIngest reads batches from the source and feeds their metrics into the
// evaluator's sliding window until the source is exhausted or ctx ends.
func (o *Orchestrator) pumpIngest(ctx context.Context) error {
	defer o.source.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, err := o.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			slog.Warn("ingest read failed, skipping batch", hblog.Err(err))
			continue
		}

		for _, m := range batch.Metrics {
			o.evaluator.Ingest(streaming.Event{
				Metric: m.Name,
				Value:  toFloat(m.Value),
				Unit:   m.Unit,
				Tags:   m.Tags,
			})
		}
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// runCycle executes one decision cycle guarded by the circuit breaker
// (spec §4.8's "circuit breaker wraps the cycle; when open, cycles are
// skipped and the state is logged").
func (o *Orchestrator) runCycle(ctx context.Context) {
	if o.breaker.IsOpen() {
		slog.Warn("circuit breaker open, skipping cycle")
		return
	}

	if err := o.breaker.Call(func() error { return o.doCycle(ctx) }); err != nil {
		slog.Error("daemon cycle failed", hblog.Err(err))
	}
}

func (o *Orchestrator) doCycle(ctx context.Context) error {
	runID := fmt.Sprintf("daemon_%s_%d", time.Now().UTC().Format("20060102T150405Z"), o.cycle)
	o.cycle++

	baselineMetrics, baselineRunID, baselineReason, baselineWarning := o.resolveBaseline(runID)

	codeRef := o.cfg.SystemID
	snapshot, ok := o.evaluator.EmitDecision(baselineMetrics, o.cfg.DistributionEnabled, streaming.ConfigRef{RegistryHash: o.reg.Hash}, codeRef)
	if !ok {
		slog.Debug("no complete window to decide on this cycle")
		return nil
	}

	reportDir := filepath.Join(o.cfg.ReportsDir, runID)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return err
	}

	doc := decision.BuildDriftReportDoc(runID, snapshot.DecisionPayload, baselineRunID, baselineReason, baselineWarning, o.cfg.TopDrifts)
	if err := writeJSON(filepath.Join(reportDir, "drift_report.json"), doc); err != nil {
		return err
	}

	anyCriticalFail := len(snapshot.DecisionPayload.CriticalFail) > 0
	proposals, err := o.engine.ProposeActions(snapshot.DecisionPayload.Status, map[string]any{
		"fail_count": len(snapshot.DecisionPayload.Fail),
	}, action.CallerContext{Confidence: 1.0, BaselineConfidence: 1.0})
	if err != nil {
		slog.Warn("action proposal failed", hblog.Err(err))
	}

	var actionRequested *string
	actionAllowed := false
	for _, p := range proposals {
		name := string(p.Action.Type)
		actionRequested = &name
		actionAllowed = p.WouldExecute
		break
	}

	decisionID := "dec_" + uuid.NewString()
	rec := evidence.BuildDecisionRecord(snapshot.DecisionPayload, evidence.BuildParams{
		DecisionID:      decisionID,
		Timestamp:       time.Now().UTC(),
		RunID:           runID,
		BaselineRunID:   baselineRunID,
		PolicyVersion:   o.cfg.ActionPolicy.Version,
		ConfigHashes:    map[string]string{"registry": o.reg.Hash},
		ActionRequested: actionRequested,
		ActionAllowed:   actionAllowed,
	})
	if err := writeJSON(filepath.Join(reportDir, "decision_record.json"), rec); err != nil {
		return err
	}

	if _, err := o.auditLog.Append(runID, "decision_emitted", map[string]any{
		"status": string(snapshot.DecisionPayload.Status), "decision_id": decisionID,
	}); err != nil {
		slog.Warn("audit log append failed", hblog.Err(err))
	}

	env := hbevent.NewDriftEvent(o.cfg.SystemID, runID, snapshot.DecisionPayload.Status, anyCriticalFail, time.Now().UTC(), doc)
	for _, sink := range o.sinks {
		if err := sink.Send(ctx, env); err != nil {
			slog.Warn("alert sink delivery failed", hblog.Err(err))
		}
	}

	if err := o.cps.Save(Checkpoint{CycleIndex: o.cycle, LastRunID: runID, UpdatedUTC: time.Now().UTC()}); err != nil {
		slog.Warn("checkpoint save failed", hblog.Err(err))
	}

	return o.pruneReportDirs()
}

func (o *Orchestrator) resolveBaseline(runID string) (map[string]telemetry.Metric, string, string, string) {
	meta := store.RunMeta{RunID: runID}
	sel, err := baseline.SelectBaseline(meta, o.cfg.BaselinePolicy, o.reg.Hash, o.runs)
	if err != nil || sel.BaselineRunID == "" {
		return map[string]telemetry.Metric{}, "", sel.Reason, sel.Warning
	}

	metrics, err := o.runs.FetchMetrics(sel.BaselineRunID)
	if err != nil {
		return map[string]telemetry.Metric{}, sel.BaselineRunID, sel.Reason, sel.Warning
	}
	return metrics, sel.BaselineRunID, sel.Reason, sel.Warning
}

// pruneReportDirs removes the oldest report directories (by sorted name) so
// that at most cfg.MaxReportDirs, the newest, remain (spec §4.8 "prune
// oldest report dirs to respect a size cap").
func (o *Orchestrator) pruneReportDirs() error {
	entries, err := os.ReadDir(o.cfg.ReportsDir)
	if err != nil {
		return err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	if len(dirs) <= o.cfg.MaxReportDirs {
		return nil
	}
	for _, name := range dirs[:len(dirs)-o.cfg.MaxReportDirs] {
		if err := os.RemoveAll(filepath.Join(o.cfg.ReportsDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the orchestrator's owned resources.
func (o *Orchestrator) Close() error {
	return o.cps.Close()
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
