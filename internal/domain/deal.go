package domain

// DealRow is one broker ledger entry (a position open or close event).
// Monetary fields are kept as the broker formatted them; the reconciler
// parses them tolerantly.
type DealRow struct {
	DealID     int64  // ordering key, monotonic across the ledger
	OrderID    int64  // broker order id; expected to equal the strategy ticket for entries
	PositionID int64  // broker position id, 0 when the ledger does not carry it
	Symbol     string // instrument
	Side       string // "in" | "out"
	Type       string // "buy" | "sell"
	Time       string // broker time, "2006.01.02 15:04[:05]"
	Price      float64
	Volume     float64
	Profit     string // e.g. "- 264.14", "1 020.00"
	Commission string
	Swap       string
	Balance    string
	Comment    string // free text, e.g. "tp 1.09512"
}

// Deal side constants.
const (
	DealSideIn  = "in"
	DealSideOut = "out"
)

// Deal type constants.
const (
	DealTypeBuy  = "buy"
	DealTypeSell = "sell"
)

// DealPair is exactly one entry deal and one exit deal on the same symbol.
// Entry.Side is "in", Exit.Side is "out". Read-only once built.
type DealPair struct {
	Entry DealRow
	Exit  DealRow
}

// Symbol returns the entry deal's symbol.
func (p DealPair) Symbol() string {
	return p.Entry.Symbol
}
