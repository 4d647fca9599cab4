package verification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trade-reconciler/internal/idhash"
	"trade-reconciler/internal/reconcile"
	"trade-reconciler/internal/storage"
)

var (
	// ErrRunNotFound is returned when the run ID doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrInputMismatch is returned when the supplied inputs are not the ones
	// the run was computed from.
	ErrInputMismatch = errors.New("input fingerprint does not match stored run")
)

// RunVerifier re-runs the engine over a stored run's inputs and compares
// the result against the persisted trades.
type RunVerifier struct {
	runStore   storage.RunStore
	tradeStore storage.ReconciledTradeStore
	engine     reconcile.Config
	logger     *zap.Logger
}

// RunVerifierOptions contains configuration for creating a RunVerifier.
type RunVerifierOptions struct {
	RunStore   storage.RunStore
	TradeStore storage.ReconciledTradeStore
	Engine     reconcile.Config
	Logger     *zap.Logger
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(opts RunVerifierOptions) *RunVerifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunVerifier{
		runStore:   opts.RunStore,
		tradeStore: opts.TradeStore,
		engine:     opts.Engine,
		logger:     logger.Named("verification"),
	}
}

// VerifyRun replays in and compares it with the trades stored for runID.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string, in reconcile.Input) (*VerificationReport, error) {
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("load run: %w", err)
	}

	fingerprint := idhash.ComputeInputFingerprint(in.Deals, in.TradeLog, in.Signals)
	if fingerprint != run.InputFingerprint {
		return nil, fmt.Errorf("%w: run %s", ErrInputMismatch, runID)
	}

	stored, err := v.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	cfg := v.engine
	cfg.HourOffset = run.HourOffset
	replayed, err := reconcile.NewEngine(cfg, v.logger).Run(in)
	if err != nil {
		return nil, fmt.Errorf("replay run: %w", err)
	}

	report := CompareTradeSets(stored, replayed.Trades)
	if run.Stats.QualityScore != replayed.Stats.QualityScore {
		report.RunDivergences = append(report.RunDivergences, FieldDivergence{
			Field:    "Stats.QualityScore",
			Expected: run.Stats.QualityScore,
			Actual:   replayed.Stats.QualityScore,
		})
	}
	if run.Profit.Status != replayed.Profit.Status {
		report.RunDivergences = append(report.RunDivergences, FieldDivergence{
			Field:    "Profit.Status",
			Expected: run.Profit.Status,
			Actual:   replayed.Profit.Status,
		})
	}

	v.logger.Info("run verified",
		zap.String("run_id", runID),
		zap.Int("trades", report.TotalTrades),
		zap.Int("divergent", report.DivergentTrades),
		zap.Int("run_divergences", len(report.RunDivergences)))

	return report, nil
}
