package domain

import "time"

// Trade log row types.
const (
	RowTypeEntry = "ENTRY"
	RowTypeExit  = "EXIT"
)

// PhysicsMetrics is the family of derived signal metrics the strategy logs
// on trade rows and signal rows.
type PhysicsMetrics struct {
	Quality           float64 `json:"quality"`
	Confluence        float64 `json:"confluence"`
	Momentum          float64 `json:"momentum"`
	Speed             float64 `json:"speed"`
	Acceleration      float64 `json:"acceleration"`
	Jerk              float64 `json:"jerk"`
	Entropy           float64 `json:"entropy"`
	PhysicsScore      float64 `json:"physics_score"` // composite score
	SpeedSlope        float64 `json:"speed_slope"`
	AccelerationSlope float64 `json:"acceleration_slope"`
	MomentumSlope     float64 `json:"momentum_slope"`
	ConfluenceSlope   float64 `json:"confluence_slope"`
	JerkSlope         float64 `json:"jerk_slope"`
	Zone              string  `json:"zone"`
	Regime            string  `json:"regime"`
	Spread            float64 `json:"spread"`
}

// TradeLogRow is one raw row of the strategy trade log, before indexing.
// The strategy writes an ENTRY row when a position opens and an EXIT row
// when it closes; both carry the same ticket.
type TradeLogRow struct {
	Ticket     string // parsed as integer during indexing
	RowType    string // "ENTRY" | "EXIT", case and whitespace tolerant
	Symbol     string
	Type       string // "BUY" | "SELL"
	OpenTime   string
	CloseTime  string
	OpenPrice  float64
	ClosePrice float64
	Lots       float64

	Metrics PhysicsMetrics

	// EXIT-only performance fields.
	Profit           *float64
	Pips             float64
	HoldMinutes      float64
	MFE              float64
	MAE              float64
	MFEPips          float64
	MAEPips          float64
	MFEPercent       float64
	MAEPercent       float64
	RunUpPrice       float64
	RunUpPips        float64
	RunDownPrice     float64
	RunDownPips      float64
	ExitReason       string
	ExitQualityClass string
}

// TradeLeg is one indexed half (ENTRY or EXIT) of a strategy trade record.
// Times are parsed; OpenAt/CloseAt are zero when the log value was unparseable.
type TradeLeg struct {
	Symbol     string
	Type       string
	OpenTime   string
	CloseTime  string
	OpenAt     time.Time
	CloseAt    time.Time
	OpenPrice  float64
	ClosePrice float64
	Lots       float64

	Metrics PhysicsMetrics

	Profit           *float64
	Pips             float64
	HoldMinutes      float64
	MFE              float64
	MAE              float64
	MFEPips          float64
	MAEPips          float64
	MFEPercent       float64
	MAEPercent       float64
	RunUpPrice       float64
	RunUpPips        float64
	RunDownPrice     float64
	RunDownPips      float64
	ExitReason       string
	ExitQualityClass string
}

// StrategyTradeRecord is the indexed strategy view of one position.
// A ticket may legitimately carry only an Entry, only an Exit, or both.
type StrategyTradeRecord struct {
	Ticket int64
	Entry  *TradeLeg
	Exit   *TradeLeg
}

// Symbol returns the symbol of whichever leg is present, entry first.
func (r *StrategyTradeRecord) Symbol() string {
	if r.Entry != nil {
		return r.Entry.Symbol
	}
	if r.Exit != nil {
		return r.Exit.Symbol
	}
	return ""
}
