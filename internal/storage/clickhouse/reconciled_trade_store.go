package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// ReconciledTradeStore implements storage.ReconciledTradeStore using ClickHouse.
// Rows carry the analytical columns used for session and outcome breakdowns;
// payload holds the complete record as JSON.
type ReconciledTradeStore struct {
	conn *Conn
}

// NewReconciledTradeStore creates a new ReconciledTradeStore.
func NewReconciledTradeStore(conn *Conn) *ReconciledTradeStore {
	return &ReconciledTradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReconciledTradeStore = (*ReconciledTradeStore)(nil)

// InsertBulk adds all trades of a run. Fails entire batch on any duplicate.
// ReplacingMergeTree would silently replace rows, so duplicates are checked
// explicitly before the batch is sent.
func (s *ReconciledTradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.ReconciledTrade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	existing, err := s.storedIndices(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	seen := make(map[int]struct{}, len(trades))
	for i := range trades {
		idx := trades[i].Index
		if _, ok := existing[idx]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := seen[idx]; ok {
			return storage.ErrDuplicateKey
		}
		seen[idx] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO reconciled_trades (
			run_id, trade_index, trade_key, symbol, direction,
			entry_time, exit_time, entry_session, exit_session, hold_minutes,
			profit, commission, swap, net_profit, result, exit_reason,
			match_method, quality_score, has_entry_signal, has_exit_signal, payload
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range trades {
		t := &trades[i]
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal trade %d: %w", t.Index, err)
		}
		err = batch.Append(
			runID, uint32(t.Index), t.TradeKey, t.Symbol, t.Direction,
			t.EntryTime, t.ExitTime, t.EntrySegments.Session, t.ExitSegments.Session, t.HoldMinutes,
			t.Profit, t.Commission, t.Swap, t.NetProfit, t.Result, t.ExitReason,
			string(t.MatchMethod), uint8(t.Quality.Score), flag(t.EntrySignal != nil), flag(t.ExitSignal != nil),
			string(payload),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves the trades of a run, ordered by trade_index ASC.
func (s *ReconciledTradeStore) GetByRun(ctx context.Context, runID string) ([]domain.ReconciledTrade, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT payload
		FROM reconciled_trades FINAL
		WHERE run_id = ?
		ORDER BY trade_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reconciled trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// SessionOutcome is one row of the per-session outcome breakdown.
type SessionOutcome struct {
	Session   string
	Trades    uint64
	Wins      uint64
	NetProfit float64
}

// OutcomesBySession aggregates a run's trades by entry session.
func (s *ReconciledTradeStore) OutcomesBySession(ctx context.Context, runID string) ([]SessionOutcome, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT entry_session, count(), countIf(result = ?), sum(net_profit)
		FROM reconciled_trades FINAL
		WHERE run_id = ?
		GROUP BY entry_session
		ORDER BY entry_session ASC
	`, domain.ResultWin, runID)
	if err != nil {
		return nil, fmt.Errorf("query session outcomes: %w", err)
	}
	defer rows.Close()

	var result []SessionOutcome
	for rows.Next() {
		var o SessionOutcome
		if err := rows.Scan(&o.Session, &o.Trades, &o.Wins, &o.NetProfit); err != nil {
			return nil, fmt.Errorf("scan session outcome: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session outcomes: %w", err)
	}
	return result, nil
}

func (s *ReconciledTradeStore) storedIndices(ctx context.Context, runID string) (map[int]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT trade_index FROM reconciled_trades FINAL WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]struct{})
	for rows.Next() {
		var idx uint32
		if err := rows.Scan(&idx); err != nil {
			return nil, err
		}
		result[int(idx)] = struct{}{}
	}
	return result, rows.Err()
}

// chRows is the subset of driver.Rows used by the scanners.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTrades(rows chRows) ([]domain.ReconciledTrade, error) {
	var result []domain.ReconciledTrade
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan reconciled trade: %w", err)
		}
		var t domain.ReconciledTrade
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("unmarshal reconciled trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciled trades: %w", err)
	}
	return result, nil
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
