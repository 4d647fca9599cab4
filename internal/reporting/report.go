package reporting

import (
	"time"

	"trade-reconciler/internal/domain"
)

// LowQualityThreshold is the per-trade score below which a trade is listed
// in the report for manual review.
const LowQualityThreshold = 50

// Report is the summary of one persisted reconciliation run.
type Report struct {
	// Metadata
	RunID            string    `json:"run_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	RunCreatedAt     time.Time `json:"run_created_at"`
	InputFingerprint string    `json:"input_fingerprint"`
	HourOffset       int       `json:"hour_offset"`

	Stats        domain.ProcessingStatistics `json:"stats"`
	Valid        bool                        `json:"valid"`
	QualityScore int                         `json:"quality_score"`
	Profit       domain.ProfitReconciliation `json:"profit"`

	// Breakdowns, each sorted by its key
	MatchBreakdown   []MatchRow   `json:"match_breakdown"`
	SessionBreakdown []SessionRow `json:"session_breakdown"`
	ResultBreakdown  []ResultRow  `json:"result_breakdown"`

	// Validation issues in stored order
	Issues []domain.ValidationIssue `json:"issues"`

	// Trades below LowQualityThreshold, in trade order
	LowQualityTrades []TradeQualityRow `json:"low_quality_trades"`
}

// MatchRow counts trades per strategy match method.
type MatchRow struct {
	Method string  `json:"method"`
	Trades int     `json:"trades"`
	Pct    float64 `json:"pct"` // share of all trades, percent
}

// SessionRow summarises outcomes per entry session.
type SessionRow struct {
	Session   string  `json:"session"`
	Trades    int     `json:"trades"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	WinRate   float64 `json:"win_rate"` // wins / trades
	NetProfit float64 `json:"net_profit"`
}

// ResultRow summarises trades per result class.
type ResultRow struct {
	Result    string  `json:"result"`
	Trades    int     `json:"trades"`
	NetProfit float64 `json:"net_profit"`
}

// TradeQualityRow identifies a low-quality trade.
type TradeQualityRow struct {
	Index         int      `json:"index"`
	Symbol        string   `json:"symbol"`
	EntryTime     string   `json:"entry_time"`
	Score         int      `json:"score"`
	MissingFields []string `json:"missing_fields"`
}
