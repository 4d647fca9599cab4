package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

const runColumns = `run_id, input_fingerprint, created_at, hour_offset, stats, valid,
	critical_count, warning_count, broker_total, strategy_total,
	profit_difference, variance_pct, profit_status`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}

	query := `INSERT INTO reconciliation_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.InputFingerprint,
		r.CreatedAt,
		r.HourOffset,
		stats,
		r.Valid,
		r.CriticalCount,
		r.WarningCount,
		r.Profit.BrokerTotal,
		r.Profit.StrategyTotal,
		r.Profit.Difference,
		r.Profit.VariancePct,
		r.Profit.Status,
	)
	if err != nil {
		return writeError("insert run", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// GetByFingerprint retrieves all runs over the same inputs, ordered by created_at ASC.
func (s *RunStore) GetByFingerprint(ctx context.Context, fingerprint string) ([]*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs
		WHERE input_fingerprint = $1
		ORDER BY created_at ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query runs by fingerprint: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// List retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *RunStore) List(ctx context.Context) ([]*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs
		ORDER BY created_at ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

func collectRuns(rows pgx.Rows) ([]*domain.RunSummary, error) {
	var result []*domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var (
		r     domain.RunSummary
		stats []byte
	)
	err := row.Scan(
		&r.RunID,
		&r.InputFingerprint,
		&r.CreatedAt,
		&r.HourOffset,
		&stats,
		&r.Valid,
		&r.CriticalCount,
		&r.WarningCount,
		&r.Profit.BrokerTotal,
		&r.Profit.StrategyTotal,
		&r.Profit.Difference,
		&r.Profit.VariancePct,
		&r.Profit.Status,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stats, &r.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal run stats: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

var _ storage.RunStore = (*RunStore)(nil)
