package domain

import "time"

// Signal direction constants.
const (
	SignalTypeBuy  = "BUY"
	SignalTypeSell = "SELL"
)

// SignalRow is one raw row of the signal log.
type SignalRow struct {
	Symbol       string
	Time         string
	Type         string // "BUY" | "SELL"
	Price        float64
	Metrics      PhysicsMetrics
	Passed       bool
	RejectReason string
}

// SignalRecord is an indexed signal with a parsed timestamp.
// Seq is the row's position in the source log, used as a stable tie-breaker.
type SignalRecord struct {
	Seq          int
	Symbol       string
	Time         string
	At           time.Time
	Type         string
	Price        float64
	Metrics      PhysicsMetrics
	Passed       bool
	RejectReason string
}
