// Package index builds the read-only lookup structures the matcher queries:
// a duplicate-tolerant index of the dual-row strategy trade log keyed by
// ticket, and a per-symbol chronological index of the signal log.
//
// Builders are single-threaded. Build hands out an immutable index that is
// safe for concurrent readers.
package index

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/timenorm"
)

// DefaultDedupWindow is the clock-jitter tolerance for near-duplicate rows.
const DefaultDedupWindow = 2000 * time.Millisecond

// DedupStats counts rows dropped while indexing the trade log.
type DedupStats struct {
	Exact          int // identical (ticket, row type, price, profit)
	NearDuplicate  int // same ticket and row type within the dedup window
	TicketReuse    int // same ticket and row type outside the window; first row wins
	IgnoredRowType int // row type other than ENTRY/EXIT
}

// Dropped returns the number of ENTRY/EXIT rows discarded as duplicates.
func (s DedupStats) Dropped() int {
	return s.Exact + s.NearDuplicate + s.TicketReuse
}

// TradeIndex maps tickets to strategy trade records. Immutable once built.
type TradeIndex struct {
	records map[int64]*domain.StrategyTradeRecord
	order   []int64 // tickets in first-seen order
	stats   DedupStats
}

// Get returns the record for a ticket.
func (x *TradeIndex) Get(ticket int64) (*domain.StrategyTradeRecord, bool) {
	r, ok := x.records[ticket]
	return r, ok
}

// Records returns all records in the order their tickets were first seen.
// The order is deterministic for a given input and drives fallback scans.
func (x *TradeIndex) Records() []*domain.StrategyTradeRecord {
	out := make([]*domain.StrategyTradeRecord, len(x.order))
	for i, ticket := range x.order {
		out[i] = x.records[ticket]
	}
	return out
}

// Len returns the number of distinct tickets.
func (x *TradeIndex) Len() int {
	return len(x.order)
}

// Stats returns the dedup counters gathered while building.
func (x *TradeIndex) Stats() DedupStats {
	return x.stats
}

type fingerprint struct {
	ticket    int64
	rowType   string
	price     float64
	hasProfit bool
	profit    float64
}

// TradeIndexBuilder accumulates trade log rows. Not safe for concurrent use.
type TradeIndexBuilder struct {
	window       time.Duration
	logger       *zap.Logger
	records      map[int64]*domain.StrategyTradeRecord
	order        []int64
	fingerprints map[fingerprint]struct{}
	stats        DedupStats
}

// NewTradeIndexBuilder creates a builder. A non-positive window selects DefaultDedupWindow.
func NewTradeIndexBuilder(window time.Duration, logger *zap.Logger) *TradeIndexBuilder {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeIndexBuilder{
		window:       window,
		logger:       logger.Named("index"),
		records:      make(map[int64]*domain.StrategyTradeRecord),
		fingerprints: make(map[fingerprint]struct{}),
	}
}

// Add indexes one row. Exact duplicates are dropped first, then rows whose
// ticket already holds a leg of the same type. Only the first ENTRY and the
// first EXIT per ticket are kept.
func (b *TradeIndexBuilder) Add(row domain.TradeLogRow) {
	rowType := strings.ToUpper(strings.TrimSpace(row.RowType))
	if rowType != domain.RowTypeEntry && rowType != domain.RowTypeExit {
		b.stats.IgnoredRowType++
		return
	}

	ticket := ParseTicket(row.Ticket)
	leg := toLeg(row)

	fp := fingerprint{ticket: ticket, rowType: rowType}
	if rowType == domain.RowTypeEntry {
		fp.price = row.OpenPrice
	} else {
		fp.price = row.ClosePrice
	}
	if row.Profit != nil {
		fp.hasProfit = true
		fp.profit = *row.Profit
	}
	if _, seen := b.fingerprints[fp]; seen {
		b.stats.Exact++
		return
	}

	rec, exists := b.records[ticket]
	if !exists {
		rec = &domain.StrategyTradeRecord{Ticket: ticket}
		b.records[ticket] = rec
		b.order = append(b.order, ticket)
	}

	var existing *domain.TradeLeg
	if rowType == domain.RowTypeEntry {
		existing = rec.Entry
	} else {
		existing = rec.Exit
	}

	if existing != nil {
		if withinWindow(legTime(existing, rowType), legTime(leg, rowType), b.window) {
			b.stats.NearDuplicate++
			b.logger.Debug("near-duplicate trade row dropped",
				zap.Int64("ticket", ticket),
				zap.String("row_type", rowType))
		} else {
			b.stats.TicketReuse++
			b.logger.Warn("later trade row for ticket dropped, first row wins",
				zap.Int64("ticket", ticket),
				zap.String("row_type", rowType),
				zap.String("kept_time", legTimeString(existing, rowType)),
				zap.String("dropped_time", legTimeString(leg, rowType)))
		}
		return
	}

	b.fingerprints[fp] = struct{}{}
	if rowType == domain.RowTypeEntry {
		rec.Entry = leg
	} else {
		rec.Exit = leg
	}
}

// Build returns the finished index and logs the duplicate counters.
// The builder must not be used afterwards.
func (b *TradeIndexBuilder) Build() *TradeIndex {
	idx := &TradeIndex{
		records: b.records,
		order:   b.order,
		stats:   b.stats,
	}
	b.records = nil
	b.order = nil
	b.fingerprints = nil

	if idx.stats.Dropped() > 0 || idx.stats.IgnoredRowType > 0 {
		b.logger.Info("trade log duplicates dropped",
			zap.Int("exact", idx.stats.Exact),
			zap.Int("near_duplicate", idx.stats.NearDuplicate),
			zap.Int("ticket_reuse", idx.stats.TicketReuse),
			zap.Int("ignored_row_type", idx.stats.IgnoredRowType),
			zap.Int("tickets", len(idx.order)))
	}
	return idx
}

// BuildTradeIndex indexes rows in order.
func BuildTradeIndex(rows []domain.TradeLogRow, window time.Duration, logger *zap.Logger) *TradeIndex {
	b := NewTradeIndexBuilder(window, logger)
	for _, row := range rows {
		b.Add(row)
	}
	return b.Build()
}

// ParseTicket parses a ticket id, returning 0 when it is not an integer.
func ParseTicket(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func toLeg(row domain.TradeLogRow) *domain.TradeLeg {
	leg := &domain.TradeLeg{
		Symbol:           row.Symbol,
		Type:             strings.ToUpper(strings.TrimSpace(row.Type)),
		OpenTime:         row.OpenTime,
		CloseTime:        row.CloseTime,
		OpenPrice:        row.OpenPrice,
		ClosePrice:       row.ClosePrice,
		Lots:             row.Lots,
		Metrics:          row.Metrics,
		Pips:             row.Pips,
		HoldMinutes:      row.HoldMinutes,
		MFE:              row.MFE,
		MAE:              row.MAE,
		MFEPips:          row.MFEPips,
		MAEPips:          row.MAEPips,
		MFEPercent:       row.MFEPercent,
		MAEPercent:       row.MAEPercent,
		RunUpPrice:       row.RunUpPrice,
		RunUpPips:        row.RunUpPips,
		RunDownPrice:     row.RunDownPrice,
		RunDownPips:      row.RunDownPips,
		ExitReason:       row.ExitReason,
		ExitQualityClass: row.ExitQualityClass,
	}
	if row.Profit != nil {
		p := *row.Profit
		leg.Profit = &p
	}
	// Unparseable times stay zero; such legs never satisfy a time window.
	if t, err := timenorm.Parse(row.OpenTime); err == nil {
		leg.OpenAt = t
	}
	if t, err := timenorm.Parse(row.CloseTime); err == nil {
		leg.CloseAt = t
	}
	return leg
}

// legTime is the timestamp relevant for a row type: open time for ENTRY, close time for EXIT.
func legTime(leg *domain.TradeLeg, rowType string) time.Time {
	if rowType == domain.RowTypeEntry {
		return leg.OpenAt
	}
	return leg.CloseAt
}

func legTimeString(leg *domain.TradeLeg, rowType string) string {
	if rowType == domain.RowTypeEntry {
		return leg.OpenTime
	}
	return leg.CloseTime
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
