package domain

import "time"

// Validation severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
)

// Validation issue types.
const (
	IssueBrokerSymbolMismatch        = "BROKER_SYMBOL_MISMATCH"
	IssueStrategyEntrySymbolMismatch = "STRATEGY_ENTRY_SYMBOL_MISMATCH"
	IssueStrategyExitSymbolMismatch  = "STRATEGY_EXIT_SYMBOL_MISMATCH"
	IssueTradeIDMismatch             = "TRADE_ID_MISMATCH"
	IssueNoStrategyMatch             = "NO_STRATEGY_MATCH"
	IssueNoEntrySignal               = "NO_ENTRY_SIGNAL"
	IssueNoExitSignal                = "NO_EXIT_SIGNAL"
)

// ValidationIssue is one dataset-level finding about a single trade.
type ValidationIssue struct {
	Type       string `json:"type"`
	TradeIndex int    `json:"trade_index"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
}

// ValidationSummary is the dataset-level validation result.
type ValidationSummary struct {
	Valid          bool              `json:"valid"` // no critical errors
	CriticalErrors []ValidationIssue `json:"critical_errors"`
	Warnings       []ValidationIssue `json:"warnings"`
	QualityScore   int               `json:"quality_score"` // 0..100
}

// Profit reconciliation tiers.
const (
	ProfitExactMatch = "EXACT_MATCH"
	ProfitCloseMatch = "CLOSE_MATCH"
	ProfitAcceptable = "ACCEPTABLE"
	ProfitMismatch   = "MISMATCH"
)

// ProfitReconciliation compares broker-side and strategy-side total profit.
type ProfitReconciliation struct {
	BrokerTotal   float64 `json:"broker_total"` // profit + commission + swap
	StrategyTotal float64 `json:"strategy_total"`
	Difference    float64 `json:"difference"`   // absolute
	VariancePct   float64 `json:"variance_pct"` // relative to |BrokerTotal|, percent
	Status        string  `json:"status"`
}

// ProcessingStatistics summarises one reconciliation run.
type ProcessingStatistics struct {
	DealRows           int           `json:"deal_rows"`
	TradeLogRows       int           `json:"trade_log_rows"`
	SignalRows         int           `json:"signal_rows"`
	PairedTrades       int           `json:"paired_trades"`
	UnpairedDealRows   int           `json:"unpaired_deal_rows"` // deal rows - 2 * pairs
	StrategyMatches    int           `json:"strategy_matches"`
	DirectMatches      int           `json:"direct_matches"`
	FallbackMatches    int           `json:"fallback_matches"`
	EntrySignalMatches int           `json:"entry_signal_matches"`
	ExitSignalMatches  int           `json:"exit_signal_matches"`
	SignalMatches      int           `json:"signal_matches"` // entry + exit
	DuplicatesDropped  int           `json:"duplicates_dropped"`
	DataErrors         int           `json:"data_errors"`
	Elapsed            time.Duration `json:"elapsed"`
	QualityScore       int           `json:"quality_score"`
}

// MatchEvent is a diagnostic record of a heuristic identity resolution.
type MatchEvent struct {
	TradeIndex int         `json:"trade_index"`
	Method     MatchMethod `json:"method"`
	Ticket     int64       `json:"ticket"`
	OrderID    int64       `json:"order_id"`
	DeltaMs    int64       `json:"delta_ms"`
}

// RunSummary is the persisted header of one reconciliation run.
type RunSummary struct {
	RunID            string
	InputFingerprint string
	CreatedAt        time.Time
	HourOffset       int
	Stats            ProcessingStatistics
	Valid            bool
	CriticalCount    int
	WarningCount     int
	Profit           ProfitReconciliation
}
