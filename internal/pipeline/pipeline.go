// Package pipeline runs one reconciliation end to end.
// It coordinates: reconcile → persist → metrics → reports
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/idhash"
	"trade-reconciler/internal/observability"
	"trade-reconciler/internal/reconcile"
	"trade-reconciler/internal/reporting"
	"trade-reconciler/internal/storage"
)

// ErrMissingStore is returned by New when a required store is nil.
var ErrMissingStore = errors.New("pipeline: run, trade and issue stores are required")

// Pipeline coordinates one reconciliation run.
type Pipeline struct {
	engine reconcile.Config

	// Stores
	runStore       storage.RunStore
	tradeStore     storage.ReconciledTradeStore
	issueStore     storage.ValidationIssueStore
	analyticsStore storage.ReconciledTradeStore

	metrics   *observability.Metrics
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
	newRunID  func() string
}

// Options for creating Pipeline.
type Options struct {
	Engine reconcile.Config

	// Required stores
	RunStore   storage.RunStore
	TradeStore storage.ReconciledTradeStore
	IssueStore storage.ValidationIssueStore

	// AnalyticsStore receives a second copy of the trades when set.
	AnalyticsStore storage.ReconciledTradeStore

	Metrics   *observability.Metrics // nil disables metrics
	OutputDir string                 // empty disables report files
	Logger    *zap.Logger

	// Injectable for deterministic runs
	Clock    func() time.Time
	NewRunID func() string
}

// New creates a new Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.RunStore == nil || opts.TradeStore == nil || opts.IssueStore == nil {
		return nil, ErrMissingStore
	}
	p := &Pipeline{
		engine:         opts.Engine,
		runStore:       opts.RunStore,
		tradeStore:     opts.TradeStore,
		issueStore:     opts.IssueStore,
		analyticsStore: opts.AnalyticsStore,
		metrics:        opts.Metrics,
		outputDir:      opts.OutputDir,
		logger:         opts.Logger,
		now:            opts.Clock,
		newRunID:       opts.NewRunID,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.Named("pipeline")
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p, nil
}

// RunOutput contains results from one pipeline execution.
type RunOutput struct {
	RunID     string
	Summary   *domain.RunSummary
	Result    *reconcile.Result
	Coverage  *CoverageResult
	ReportDir string // empty when reports are disabled
}

// Run executes the full pipeline.
// Phases:
//  1. Reconcile the three logs
//  2. Persist the run header, trades and validation issues
//  3. Record metrics
//  4. Write reports from the persisted run
func (p *Pipeline) Run(ctx context.Context, in reconcile.Input) (*RunOutput, error) {
	out, err := p.run(ctx, in)
	if err != nil && p.metrics != nil {
		p.metrics.RecordFailure()
	}
	return out, err
}

func (p *Pipeline) run(ctx context.Context, in reconcile.Input) (*RunOutput, error) {
	runID := p.newRunID()
	log := p.logger.With(zap.String("run_id", runID))

	// Phase 1: Reconcile
	res, err := reconcile.NewEngine(p.engine, p.logger).WithClock(p.now).Run(in)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (reconcile) failed: %w", err)
	}

	summary := &domain.RunSummary{
		RunID:            runID,
		InputFingerprint: idhash.ComputeInputFingerprint(in.Deals, in.TradeLog, in.Signals),
		CreatedAt:        p.now(),
		HourOffset:       p.engine.HourOffset,
		Stats:            res.Stats,
		Valid:            res.Validation.Valid,
		CriticalCount:    len(res.Validation.CriticalErrors),
		WarningCount:     len(res.Validation.Warnings),
		Profit:           res.Profit,
	}
	out := &RunOutput{
		RunID:    runID,
		Summary:  summary,
		Result:   res,
		Coverage: CheckCoverage(res),
	}

	// Phase 2: Persist
	if err := p.persist(ctx, summary, res); err != nil {
		return nil, fmt.Errorf("phase 2 (persist) failed: %w", err)
	}
	log.Info("run persisted",
		zap.Int("trades", len(res.Trades)),
		zap.Int("critical", summary.CriticalCount),
		zap.Int("warnings", summary.WarningCount))

	for _, c := range out.Coverage.Checks {
		if !c.Pass {
			log.Warn("coverage check failed",
				zap.String("check", c.Name),
				zap.String("threshold", c.Threshold),
				zap.String("actual", c.Actual))
		}
	}

	// Phase 3: Metrics
	if p.metrics != nil {
		p.metrics.RecordRun(res, summary.CreatedAt.Unix())
	}

	// Phase 4: Reports
	if p.outputDir != "" {
		gen := reporting.NewGenerator(p.runStore, p.tradeStore, p.issueStore).WithClock(p.now)
		report, trades, err := gen.Generate(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (report) failed: %w", err)
		}
		dir, err := reporting.WriteAll(p.outputDir, report, trades)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (report) failed: %w", err)
		}
		out.ReportDir = dir
		log.Info("reports written", zap.String("dir", dir))
	}

	return out, nil
}

func (p *Pipeline) persist(ctx context.Context, summary *domain.RunSummary, res *reconcile.Result) error {
	if err := p.timed("runs", "insert", func() error {
		return p.runStore.Insert(ctx, summary)
	}); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := p.timed("reconciled_trades", "insert_bulk", func() error {
		return p.tradeStore.InsertBulk(ctx, summary.RunID, res.Trades)
	}); err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}

	issues := make([]domain.ValidationIssue, 0, len(res.Validation.CriticalErrors)+len(res.Validation.Warnings))
	issues = append(issues, res.Validation.CriticalErrors...)
	issues = append(issues, res.Validation.Warnings...)
	if err := p.timed("validation_issues", "insert_bulk", func() error {
		return p.issueStore.InsertBulk(ctx, summary.RunID, issues)
	}); err != nil {
		return fmt.Errorf("insert issues: %w", err)
	}

	if p.analyticsStore != nil {
		if err := p.timed("analytics_trades", "insert_bulk", func() error {
			return p.analyticsStore.InsertBulk(ctx, summary.RunID, res.Trades)
		}); err != nil {
			return fmt.Errorf("insert analytics trades: %w", err)
		}
	}
	return nil
}

// timed runs op and records its duration and outcome.
func (p *Pipeline) timed(store, operation string, op func() error) error {
	start := time.Now()
	err := op()
	if p.metrics != nil {
		p.metrics.RecordStoreOp(store, operation, time.Since(start).Seconds(), err)
	}
	return err
}
