package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"trade-reconciler/internal/domain"
)

// tradeRow is the flat CSV shape of a reconciled trade. Optional values are
// strings so that "no data" exports as an empty cell.
type tradeRow struct {
	Index         int     `csv:"index"`
	TradeKey      string  `csv:"trade_key"`
	Symbol        string  `csv:"symbol"`
	Direction     string  `csv:"direction"`
	EntryDealID   int64   `csv:"entry_deal_id"`
	ExitDealID    int64   `csv:"exit_deal_id"`
	EntryTime     string  `csv:"entry_time"`
	ExitTime      string  `csv:"exit_time"`
	EntryPrice    float64 `csv:"entry_price"`
	ExitPrice     float64 `csv:"exit_price"`
	Volume        float64 `csv:"volume"`
	Profit        float64 `csv:"profit"`
	Commission    float64 `csv:"commission"`
	Swap          float64 `csv:"swap"`
	NetProfit     float64 `csv:"net_profit"`
	Result        string  `csv:"result"`
	ExitReason    string  `csv:"exit_reason"`
	HoldMinutes   float64 `csv:"hold_minutes"`
	PriceMove     float64 `csv:"price_move"`
	PriceMovePct  float64 `csv:"price_move_pct"`
	MFECapture    string  `csv:"mfe_capture_pct"`
	EntrySession  string  `csv:"entry_session"`
	ExitSession   string  `csv:"exit_session"`
	EntryShifted  string  `csv:"entry_time_shifted"`
	EntryWeekday  string  `csv:"entry_weekday"`
	Bucket1h      string  `csv:"entry_bucket_1h"`
	MatchMethod   string  `csv:"match_method"`
	Ticket        string  `csv:"strategy_ticket"`
	StrategyPips  string  `csv:"strategy_pips"`
	EntryZone     string  `csv:"entry_zone"`
	ExitZone      string  `csv:"exit_zone"`
	EntrySignal   string  `csv:"entry_signal_time"`
	EntryDelta    string  `csv:"entry_signal_delta_min"`
	ExitSignal    string  `csv:"exit_signal_time"`
	ExitDelta     string  `csv:"exit_signal_delta_min"`
	QualityScore  int     `csv:"quality_score"`
	MissingFields string  `csv:"missing_fields"`
	Flags         string  `csv:"flags"`
}

// WriteTradesCSV writes one row per reconciled trade, with a header.
func WriteTradesCSV(w io.Writer, trades []domain.ReconciledTrade) error {
	rows := make([]*tradeRow, 0, len(trades))
	for i := range trades {
		rows = append(rows, toTradeRow(&trades[i]))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write trades csv: %w", err)
	}
	return nil
}

func toTradeRow(t *domain.ReconciledTrade) *tradeRow {
	row := &tradeRow{
		Index:         t.Index,
		TradeKey:      t.TradeKey,
		Symbol:        t.Symbol,
		Direction:     t.Direction,
		EntryDealID:   t.EntryDealID,
		ExitDealID:    t.ExitDealID,
		EntryTime:     t.EntryTime,
		ExitTime:      t.ExitTime,
		EntryPrice:    t.EntryPrice,
		ExitPrice:     t.ExitPrice,
		Volume:        t.EntryVolume,
		Profit:        t.Profit,
		Commission:    t.Commission,
		Swap:          t.Swap,
		NetProfit:     t.NetProfit,
		Result:        t.Result,
		ExitReason:    t.ExitReason,
		HoldMinutes:   t.HoldMinutes,
		PriceMove:     t.PriceMove,
		PriceMovePct:  t.PriceMovePct,
		EntrySession:  t.EntrySegments.Session,
		ExitSession:   t.ExitSegments.Session,
		EntryShifted:  t.EntrySegments.Shifted.Date + " " + t.EntrySegments.Shifted.Time,
		EntryWeekday:  t.EntrySegments.Shifted.Weekday,
		Bucket1h:      t.EntrySegments.Bucket1h,
		MatchMethod:   string(t.MatchMethod),
		QualityScore:  t.Quality.Score,
		MissingFields: strings.Join(t.Quality.MissingFields, ";"),
		Flags:         strings.Join(t.Quality.Flags, ";"),
	}
	if t.MFECapture != nil {
		row.MFECapture = formatFloat(*t.MFECapture)
	}
	if t.Strategy.HasEntry || t.Strategy.HasExit {
		row.Ticket = strconv.FormatInt(t.Strategy.Ticket, 10)
	}
	if t.Strategy.HasEntry {
		row.EntryZone = t.Strategy.EntryMetrics.Zone
	}
	if t.Strategy.HasExit {
		row.StrategyPips = formatFloat(t.Strategy.Pips)
		row.ExitZone = t.Strategy.ExitMetrics.Zone
	}
	if s := t.EntrySignal; s != nil {
		row.EntrySignal = s.Time
		row.EntryDelta = formatFloat(s.DeltaMinutes)
	}
	if s := t.ExitSignal; s != nil {
		row.ExitSignal = s.Time
		row.ExitDelta = formatFloat(s.DeltaMinutes)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
