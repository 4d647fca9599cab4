// Package matching resolves the strategy-log record and the entry/exit
// signals behind each broker deal pair.
//
// A Matcher only reads the indices it is given, so one Matcher can serve
// any number of goroutines.
package matching

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/index"
)

// Default matching thresholds.
const (
	DefaultFallbackWindow = 60000 * time.Millisecond
	DefaultPriceTolerance = 0.001 // 0.1% relative distance
	DefaultSignalLookback = 10 * time.Minute
)

// Thresholds holds the fallback and signal search limits.
type Thresholds struct {
	FallbackWindow time.Duration // max |strategy time - deal time| for fallback tiers
	PriceTolerance float64       // max |strategy price - deal price| / deal price
	SignalLookback time.Duration // signal must be at most this far before the target
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FallbackWindow: DefaultFallbackWindow,
		PriceTolerance: DefaultPriceTolerance,
		SignalLookback: DefaultSignalLookback,
	}
}

// Matcher resolves identities against immutable trade and signal indices.
type Matcher struct {
	trades     *index.TradeIndex
	signals    *index.SignalIndex
	thresholds Thresholds
	logger     *zap.Logger
}

// NewMatcher creates a Matcher. Nil indices behave as empty ones.
func NewMatcher(trades *index.TradeIndex, signals *index.SignalIndex, th Thresholds, logger *zap.Logger) *Matcher {
	if trades == nil {
		trades = index.BuildTradeIndex(nil, 0, nil)
	}
	if signals == nil {
		signals = index.BuildSignalIndex(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		trades:     trades,
		signals:    signals,
		thresholds: th,
		logger:     logger.Named("matching"),
	}
}

// MatchTrade resolves the strategy record for a deal pair. entryAt and exitAt
// are the parsed deal times. Tiers are tried in order:
//  1. entry order id as ticket
//  2. entry time/price fallback, smallest time delta wins
//  3. exit time/price fallback, first qualifying record wins
func (m *Matcher) MatchTrade(pair domain.DealPair, entryAt, exitAt time.Time) domain.StrategyMatch {
	if rec, ok := m.trades.Get(pair.Entry.OrderID); ok {
		return domain.StrategyMatch{Method: domain.MatchDirect, Record: rec}
	}

	symbol := pair.Symbol()
	records := m.trades.Records()

	if rec, delta, ok := m.entryFallback(records, symbol, entryAt, pair.Entry.Price); ok {
		m.logFallback(domain.MatchEntryFallback, pair, rec, delta)
		return domain.StrategyMatch{Method: domain.MatchEntryFallback, Record: rec, DeltaMs: delta.Milliseconds()}
	}

	if rec, delta, ok := m.exitFallback(records, symbol, exitAt, pair.Exit.Price); ok {
		m.logFallback(domain.MatchExitFallback, pair, rec, delta)
		return domain.StrategyMatch{Method: domain.MatchExitFallback, Record: rec, DeltaMs: delta.Milliseconds()}
	}

	return domain.StrategyMatch{Method: domain.MatchNone}
}

func (m *Matcher) entryFallback(records []*domain.StrategyTradeRecord, symbol string, at time.Time, price float64) (*domain.StrategyTradeRecord, time.Duration, bool) {
	var (
		best      *domain.StrategyTradeRecord
		bestDelta time.Duration
	)
	for _, rec := range records {
		if rec.Entry == nil || rec.Entry.Symbol != symbol {
			continue
		}
		delta, ok := m.withinWindow(rec.Entry.OpenAt, at)
		if !ok || !m.withinPrice(rec.Entry.OpenPrice, price) {
			continue
		}
		// Strictly smaller keeps the earliest-indexed record on ties.
		if best == nil || delta < bestDelta {
			best = rec
			bestDelta = delta
		}
	}
	return best, bestDelta, best != nil
}

func (m *Matcher) exitFallback(records []*domain.StrategyTradeRecord, symbol string, at time.Time, price float64) (*domain.StrategyTradeRecord, time.Duration, bool) {
	for _, rec := range records {
		if rec.Exit == nil || rec.Exit.Symbol != symbol {
			continue
		}
		delta, ok := m.withinWindow(rec.Exit.CloseAt, at)
		if ok && m.withinPrice(rec.Exit.ClosePrice, price) {
			return rec, delta, true
		}
	}
	return nil, 0, false
}

func (m *Matcher) withinWindow(logged, deal time.Time) (time.Duration, bool) {
	if logged.IsZero() || deal.IsZero() {
		return 0, false
	}
	d := logged.Sub(deal)
	if d < 0 {
		d = -d
	}
	return d, d <= m.thresholds.FallbackWindow
}

// withinPrice reports whether logged is within the relative tolerance of
// the deal price. A zero deal price never matches.
func (m *Matcher) withinPrice(logged, deal float64) bool {
	if deal == 0 {
		return false
	}
	return math.Abs(logged-deal)/math.Abs(deal) <= m.thresholds.PriceTolerance
}

func (m *Matcher) logFallback(method domain.MatchMethod, pair domain.DealPair, rec *domain.StrategyTradeRecord, delta time.Duration) {
	m.logger.Info("strategy record matched by fallback",
		zap.String("method", string(method)),
		zap.String("symbol", pair.Symbol()),
		zap.Int64("entry_deal_id", pair.Entry.DealID),
		zap.Int64("order_id", pair.Entry.OrderID),
		zap.Int64("ticket", rec.Ticket),
		zap.Int64("delta_ms", delta.Milliseconds()))
}

// MatchSignal finds the nearest signal for symbol at or before target, within
// the lookback window, whose type matches side ("buy"/"sell", any case).
// Equal timestamps resolve to the signal logged first.
func (m *Matcher) MatchSignal(symbol, side string, target time.Time) domain.SignalMatch {
	if target.IsZero() {
		return domain.SignalMatch{}
	}
	signals := m.signals.ForSymbol(symbol)
	if len(signals) == 0 {
		return domain.SignalMatch{}
	}
	side = strings.TrimSpace(side)

	// Walk backwards from the last signal at or before target.
	var found *domain.SignalRecord
	for i := lastAtOrBefore(signals, target); i >= 0; i-- {
		s := signals[i]
		if found != nil && !s.At.Equal(found.At) {
			break
		}
		if s.At.IsZero() || target.Sub(s.At) > m.thresholds.SignalLookback {
			break
		}
		if strings.EqualFold(s.Type, side) {
			found = s
		}
	}
	if found == nil {
		return domain.SignalMatch{}
	}
	return domain.SignalMatch{
		Signal:       found,
		DeltaMinutes: target.Sub(found.At).Minutes(),
	}
}
