package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// ValidationIssueStore implements storage.ValidationIssueStore using PostgreSQL.
type ValidationIssueStore struct {
	pool *Pool
}

// NewValidationIssueStore creates a new ValidationIssueStore.
func NewValidationIssueStore(pool *Pool) *ValidationIssueStore {
	return &ValidationIssueStore{pool: pool}
}

// InsertBulk appends the issues of a run. Sequence numbers continue after
// the issues already stored for the run.
func (s *ValidationIssueStore) InsertBulk(ctx context.Context, runID string, issues []domain.ValidationIssue) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(issues) == 0 {
		return nil
	}

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		var next int
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq) + 1, 0) FROM validation_issues WHERE run_id = $1`,
			runID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("read next issue seq: %w", err)
		}

		query := `
			INSERT INTO validation_issues (run_id, seq, issue_type, trade_index, message, severity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for i, issue := range issues {
			_, err := tx.Exec(ctx, query,
				runID,
				next+i,
				issue.Type,
				issue.TradeIndex,
				issue.Message,
				issue.Severity,
			)
			if err != nil {
				return writeError("insert validation issue", err)
			}
		}
		return nil
	})
}

// GetByRun retrieves the issues of a run in insertion order.
func (s *ValidationIssueStore) GetByRun(ctx context.Context, runID string) ([]domain.ValidationIssue, error) {
	query := `
		SELECT issue_type, trade_index, message, severity
		FROM validation_issues
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query validation issues: %w", err)
	}
	defer rows.Close()

	result := []domain.ValidationIssue{}
	for rows.Next() {
		var issue domain.ValidationIssue
		if err := rows.Scan(&issue.Type, &issue.TradeIndex, &issue.Message, &issue.Severity); err != nil {
			return nil, fmt.Errorf("scan validation issue: %w", err)
		}
		result = append(result, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation issues: %w", err)
	}
	return result, nil
}

var _ storage.ValidationIssueStore = (*ValidationIssueStore)(nil)
