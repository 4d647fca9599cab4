package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// ReconciledTradeStore implements storage.ReconciledTradeStore using PostgreSQL.
// Key columns are stored for filtering; the full record lives in payload.
type ReconciledTradeStore struct {
	pool *Pool
}

// NewReconciledTradeStore creates a new ReconciledTradeStore.
func NewReconciledTradeStore(pool *Pool) *ReconciledTradeStore {
	return &ReconciledTradeStore{pool: pool}
}

// InsertBulk adds all trades of a run atomically. Fails entire batch on any duplicate.
func (s *ReconciledTradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.ReconciledTrade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	query := `
		INSERT INTO reconciled_trades (
			run_id, trade_index, trade_key, symbol, direction,
			entry_deal_id, exit_deal_id, entry_time, exit_time,
			profit, net_profit, result, match_method, quality_score, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for i := range trades {
			t := &trades[i]
			payload, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("marshal trade %d: %w", t.Index, err)
			}

			_, err = tx.Exec(ctx, query,
				runID,
				t.Index,
				t.TradeKey,
				t.Symbol,
				t.Direction,
				t.EntryDealID,
				t.ExitDealID,
				t.EntryTime,
				t.ExitTime,
				t.Profit,
				t.NetProfit,
				t.Result,
				string(t.MatchMethod),
				t.Quality.Score,
				payload,
			)
			if err != nil {
				return writeError("insert reconciled trade", err)
			}
		}
		return nil
	})
}

// GetByRun retrieves the trades of a run, ordered by trade_index ASC.
func (s *ReconciledTradeStore) GetByRun(ctx context.Context, runID string) ([]domain.ReconciledTrade, error) {
	query := `SELECT payload FROM reconciled_trades WHERE run_id = $1 ORDER BY trade_index ASC`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query reconciled trades: %w", err)
	}
	defer rows.Close()

	var result []domain.ReconciledTrade
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan reconciled trade: %w", err)
		}
		var t domain.ReconciledTrade
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, fmt.Errorf("unmarshal reconciled trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciled trades: %w", err)
	}
	return result, nil
}

var _ storage.ReconciledTradeStore = (*ReconciledTradeStore)(nil)
