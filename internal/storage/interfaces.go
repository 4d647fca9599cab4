package storage

import (
	"context"

	"trade-reconciler/internal/domain"
)

// RunStore provides access to reconciliation_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunSummary) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// GetByFingerprint retrieves all runs over the same inputs, ordered by created_at ASC.
	GetByFingerprint(ctx context.Context, fingerprint string) ([]*domain.RunSummary, error)

	// List retrieves all runs, ordered by created_at ASC, run_id ASC.
	List(ctx context.Context) ([]*domain.RunSummary, error)
}

// ReconciledTradeStore provides access to reconciled_trades storage.
type ReconciledTradeStore interface {
	// InsertBulk adds all trades of a run atomically. Returns ErrDuplicateKey
	// if any (run_id, trade_index) exists, in storage or within the batch.
	InsertBulk(ctx context.Context, runID string, trades []domain.ReconciledTrade) error

	// GetByRun retrieves the trades of a run, ordered by trade_index ASC.
	GetByRun(ctx context.Context, runID string) ([]domain.ReconciledTrade, error)
}

// ValidationIssueStore provides access to validation_issues storage.
type ValidationIssueStore interface {
	// InsertBulk appends the issues of a run. Issues keep their batch order.
	InsertBulk(ctx context.Context, runID string, issues []domain.ValidationIssue) error

	// GetByRun retrieves the issues of a run in insertion order.
	GetByRun(ctx context.Context, runID string) ([]domain.ValidationIssue, error)
}
