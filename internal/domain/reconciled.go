package domain

// Trade direction constants.
const (
	DirectionLong  = "Long"
	DirectionShort = "Short"
)

// Trade result classes.
const (
	ResultWin       = "Win"
	ResultLoss      = "Loss"
	ResultBreakeven = "Breakeven"
	ResultDataError = "DataError"
)

// Exit reasons taken from the broker comment.
const (
	ExitReasonTP = "TP"
	ExitReasonSL = "SL"
)

// MatchMethod records how a strategy trade record was resolved for a deal pair.
type MatchMethod string

// Match methods, in resolution order.
const (
	MatchDirect        MatchMethod = "DIRECT"
	MatchEntryFallback MatchMethod = "ENTRY_FALLBACK"
	MatchExitFallback  MatchMethod = "EXIT_FALLBACK"
	MatchNone          MatchMethod = "NONE"
)

// IsFallback reports whether the method is one of the heuristic tiers.
func (m MatchMethod) IsFallback() bool {
	return m == MatchEntryFallback || m == MatchExitFallback
}

// StrategyMatch is either Matched (Record != nil) or Unmatched.
type StrategyMatch struct {
	Method  MatchMethod
	Record  *StrategyTradeRecord
	DeltaMs int64 // time delta of a fallback match, 0 for direct
}

// Matched reports whether a strategy record was resolved.
func (m StrategyMatch) Matched() bool {
	return m.Record != nil
}

// SignalMatch is either Matched (Signal != nil) or Unmatched.
type SignalMatch struct {
	Signal       *SignalRecord
	DeltaMinutes float64
}

// Matched reports whether a signal was resolved.
func (m SignalMatch) Matched() bool {
	return m.Signal != nil
}

// CalendarFields are the calendar labels of one timestamp.
type CalendarFields struct {
	Date    string `json:"date"`    // 2006-01-02
	Time    string `json:"time"`    // 15:04:05
	Weekday string `json:"weekday"` // Monday
	Month   string `json:"month"`   // January
}

// TimeSegments is the normalized view of a broker timestamp.
type TimeSegments struct {
	Original    CalendarFields `json:"original"`
	Shifted     CalendarFields `json:"shifted"`
	OffsetHours int            `json:"offset_hours"`
	Session     string         `json:"session"`
	Bucket15m   string         `json:"bucket_15m"`
	Bucket30m   string         `json:"bucket_30m"`
	Bucket1h    string         `json:"bucket_1h"`
	Bucket2h    string         `json:"bucket_2h"`
	Bucket3h    string         `json:"bucket_3h"`
	Bucket4h    string         `json:"bucket_4h"`
}

// StrategyFields are the strategy-log values flattened into a reconciled
// trade. Unmatched legs leave zero/empty neutral defaults; HasEntry and
// HasExit keep "no data" distinguishable from a legitimate zero.
type StrategyFields struct {
	Ticket   int64 `json:"ticket"`
	HasEntry bool  `json:"has_entry"`
	HasExit  bool  `json:"has_exit"`

	EntrySymbol  string         `json:"entry_symbol"`
	EntryType    string         `json:"entry_type"`
	OpenPrice    float64        `json:"open_price"`
	Lots         float64        `json:"lots"`
	EntryMetrics PhysicsMetrics `json:"entry_metrics"`

	ExitSymbol       string         `json:"exit_symbol"`
	ClosePrice       float64        `json:"close_price"`
	ExitMetrics      PhysicsMetrics `json:"exit_metrics"`
	Profit           float64        `json:"profit"`
	Pips             float64        `json:"pips"`
	HoldMinutes      float64        `json:"hold_minutes"`
	MFE              float64        `json:"mfe"`
	MAE              float64        `json:"mae"`
	MFEPips          float64        `json:"mfe_pips"`
	MAEPips          float64        `json:"mae_pips"`
	MFEPercent       float64        `json:"mfe_percent"`
	MAEPercent       float64        `json:"mae_percent"`
	RunUpPrice       float64        `json:"run_up_price"`
	RunUpPips        float64        `json:"run_up_pips"`
	RunDownPrice     float64        `json:"run_down_price"`
	RunDownPips      float64        `json:"run_down_pips"`
	ExitReason       string         `json:"exit_reason"`
	ExitQualityClass string         `json:"exit_quality_class"`
}

// SignalFields are the matched signal values; a nil *SignalFields means no match.
type SignalFields struct {
	Time         string         `json:"time"`
	Type         string         `json:"type"`
	Price        float64        `json:"price"`
	DeltaMinutes float64        `json:"delta_minutes"`
	Metrics      PhysicsMetrics `json:"metrics"`
	Passed       bool           `json:"passed"`
	RejectReason string         `json:"reject_reason"`
}

// DataQuality is the per-trade quality annotation.
type DataQuality struct {
	Score         int      `json:"score"` // 0..100
	MissingFields []string `json:"missing_fields"`
	Flags         []string `json:"flags"`
}

// Missing-field tags.
const (
	MissingStrategyEntry = "strategy_entry"
	MissingStrategyExit  = "strategy_exit"
	MissingEntrySignal   = "entry_signal"
	MissingExitSignal    = "exit_signal"
	MissingProfit        = "profit"
)

// Per-trade quality flags.
const (
	FlagNoStrategyMatch  = "no_strategy_match"
	FlagFallbackMatch    = "fallback_strategy_match"
	FlagZoneTransition   = "zone_transitioned_mid_trade"
	FlagEarlyExit        = "exit_classified_early"
	FlagProfitDataError  = "profit_data_error"
	FlagBrokerExitReason = "exit_reason_from_broker"
)

// ReconciledTrade is the output record for one deal pair. Created once,
// never mutated afterwards.
type ReconciledTrade struct {
	Index     int    `json:"index"`
	TradeKey  string `json:"trade_key"`
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`

	EntryDealID    int64   `json:"entry_deal_id"`
	EntryOrderID   int64   `json:"entry_order_id"`
	EntryPosition  int64   `json:"entry_position_id"`
	EntrySymbol    string  `json:"entry_symbol"`
	EntryType      string  `json:"entry_type"`
	EntryTime      string  `json:"entry_time"`
	EntryPrice     float64 `json:"entry_price"`
	EntryVolume    float64 `json:"entry_volume"`
	EntryComment   string  `json:"entry_comment"`
	ExitDealID     int64   `json:"exit_deal_id"`
	ExitOrderID    int64   `json:"exit_order_id"`
	ExitPosition   int64   `json:"exit_position_id"`
	ExitSymbol     string  `json:"exit_symbol"`
	ExitType       string  `json:"exit_type"`
	ExitTime       string  `json:"exit_time"`
	ExitPrice      float64 `json:"exit_price"`
	ExitVolume     float64 `json:"exit_volume"`
	ExitComment    string  `json:"exit_comment"`
	ExitBalance    string  `json:"exit_balance"`

	Profit       float64  `json:"profit"`
	Commission   float64  `json:"commission"`
	Swap         float64  `json:"swap"`
	NetProfit    float64  `json:"net_profit"`
	Result       string   `json:"result"`
	ExitReason   string   `json:"exit_reason"`
	HoldMinutes  float64  `json:"hold_minutes"`
	PriceMove    float64  `json:"price_move"`
	PriceMovePct float64  `json:"price_move_pct"`
	MFECapture   *float64 `json:"mfe_capture_pct"`

	EntrySegments TimeSegments `json:"entry_segments"`
	ExitSegments  TimeSegments `json:"exit_segments"`

	MatchMethod MatchMethod    `json:"match_method"`
	Strategy    StrategyFields `json:"strategy"`
	EntrySignal *SignalFields  `json:"entry_signal"`
	ExitSignal  *SignalFields  `json:"exit_signal"`

	Quality DataQuality `json:"quality"`
}
