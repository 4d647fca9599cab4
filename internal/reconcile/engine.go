// Package reconcile joins the broker deal ledger with the strategy trade log
// and signal log into one scored record per round-trip trade, then validates
// the dataset as a whole.
//
// The engine is a pure batch transform of in-memory inputs. It never aborts
// on imperfect data: gaps and inconsistencies are annotated on the output.
// Only an unparseable deal timestamp stops a run.
package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/idhash"
	"trade-reconciler/internal/index"
	"trade-reconciler/internal/matching"
	"trade-reconciler/internal/pairing"
	"trade-reconciler/internal/timenorm"
)

// ErrInvalidTimestamp is returned when a paired deal carries an unparseable time.
var ErrInvalidTimestamp = errors.New("invalid deal timestamp")

// Config holds engine parameters.
type Config struct {
	HourOffset  int
	Sessions    []timenorm.SessionWindow
	Thresholds  matching.Thresholds
	DedupWindow time.Duration
	Quality     QualityWeights
	Profit      ProfitTiers
	Workers     int // goroutines reconciling pairs; values below 1 mean 1
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		HourOffset:  timenorm.DefaultHourOffset,
		Sessions:    timenorm.DefaultSessions,
		Thresholds:  matching.DefaultThresholds(),
		DedupWindow: index.DefaultDedupWindow,
		Quality:     DefaultQualityWeights(),
		Profit:      DefaultProfitTiers(),
		Workers:     1,
	}
}

// Input is the three complete, already parsed logs.
type Input struct {
	Deals    []domain.DealRow
	TradeLog []domain.TradeLogRow
	Signals  []domain.SignalRow
}

// Result is the output of one run. Trades follow ascending entry deal id.
type Result struct {
	Trades      []domain.ReconciledTrade
	Stats       domain.ProcessingStatistics
	Validation  domain.ValidationSummary
	Profit      domain.ProfitReconciliation
	MatchEvents []domain.MatchEvent // fallback identity resolutions, in trade order
	Dedup       index.DedupStats
}

// Engine reconciles one set of inputs per Run call.
type Engine struct {
	cfg        Config
	normalizer *timenorm.Normalizer
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:        cfg,
		normalizer: timenorm.New(cfg.Sessions),
		logger:     logger.Named("reconcile"),
		now:        time.Now,
	}
}

// WithClock sets the clock used to measure elapsed time.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// outcome is the per-pair result before aggregation.
type outcome struct {
	trade     domain.ReconciledTrade
	match     domain.StrategyMatch
	profitErr error
}

// Run reconciles the inputs. Pairs are processed by up to cfg.Workers
// goroutines against read-only indices; output order is the pair order.
func (e *Engine) Run(in Input) (*Result, error) {
	start := e.now()

	paired := pairing.Pair(in.Deals)
	trades := index.BuildTradeIndex(in.TradeLog, e.cfg.DedupWindow, e.logger)
	signals := index.BuildSignalIndex(in.Signals, e.logger)
	matcher := matching.NewMatcher(trades, signals, e.cfg.Thresholds, e.logger)

	// Deal times are parsed up front so a bad row fails the run before any work.
	entryAt := make([]time.Time, len(paired.Pairs))
	exitAt := make([]time.Time, len(paired.Pairs))
	for i, p := range paired.Pairs {
		var err error
		if entryAt[i], err = timenorm.Parse(p.Entry.Time); err != nil {
			return nil, fmt.Errorf("%w: deal %d: %w", ErrInvalidTimestamp, p.Entry.DealID, err)
		}
		if exitAt[i], err = timenorm.Parse(p.Exit.Time); err != nil {
			return nil, fmt.Errorf("%w: deal %d: %w", ErrInvalidTimestamp, p.Exit.DealID, err)
		}
	}

	outcomes := make([]outcome, len(paired.Pairs))
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, p := range paired.Pairs {
		g.Go(func() error {
			outcomes[i] = e.reconcilePair(i, p, entryAt[i], exitAt[i], matcher)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Trades:      make([]domain.ReconciledTrade, len(outcomes)),
		MatchEvents: []domain.MatchEvent{},
		Dedup:       trades.Stats(),
	}
	stats := domain.ProcessingStatistics{
		DealRows:          len(in.Deals),
		TradeLogRows:      len(in.TradeLog),
		SignalRows:        len(in.Signals),
		PairedTrades:      len(paired.Pairs),
		UnpairedDealRows:  paired.UnpairedCount(),
		DuplicatesDropped: res.Dedup.Dropped(),
	}

	for i, o := range outcomes {
		res.Trades[i] = o.trade

		if o.match.Matched() {
			stats.StrategyMatches++
			if o.match.Method == domain.MatchDirect {
				stats.DirectMatches++
			}
		}
		if o.match.Method.IsFallback() {
			stats.FallbackMatches++
			res.MatchEvents = append(res.MatchEvents, domain.MatchEvent{
				TradeIndex: i,
				Method:     o.match.Method,
				Ticket:     o.match.Record.Ticket,
				OrderID:    o.trade.EntryOrderID,
				DeltaMs:    o.match.DeltaMs,
			})
		}
		if o.trade.EntrySignal != nil {
			stats.EntrySignalMatches++
		}
		if o.trade.ExitSignal != nil {
			stats.ExitSignalMatches++
		}
		if o.profitErr != nil {
			stats.DataErrors++
			e.logger.Warn("exit deal profit unusable, defaulted to zero",
				zap.Int("trade_index", i),
				zap.Int64("exit_deal_id", o.trade.ExitDealID),
				zap.Error(o.profitErr))
		}
	}
	stats.SignalMatches = stats.EntrySignalMatches + stats.ExitSignalMatches

	res.Validation = Validate(res.Trades, e.cfg.Quality)
	res.Profit = ReconcileProfit(res.Trades, e.cfg.Profit)
	stats.QualityScore = res.Validation.QualityScore
	stats.Elapsed = e.now().Sub(start)
	res.Stats = stats

	e.logger.Info("reconciliation complete",
		zap.Int("deal_rows", stats.DealRows),
		zap.Int("paired_trades", stats.PairedTrades),
		zap.Int("unpaired_deal_rows", stats.UnpairedDealRows),
		zap.Int("strategy_matches", stats.StrategyMatches),
		zap.Int("fallback_matches", stats.FallbackMatches),
		zap.Int("signal_matches", stats.SignalMatches),
		zap.Int("critical", len(res.Validation.CriticalErrors)),
		zap.Int("warnings", len(res.Validation.Warnings)),
		zap.String("profit_status", res.Profit.Status),
		zap.Duration("elapsed", stats.Elapsed))

	return res, nil
}

// reconcilePair builds one trade. It only reads shared state.
func (e *Engine) reconcilePair(i int, p domain.DealPair, entryAt, exitAt time.Time, m *matching.Matcher) outcome {
	en, ex := p.Entry, p.Exit
	t := domain.ReconciledTrade{
		Index:     i,
		TradeKey:  idhash.ComputeTradeKey(p.Symbol(), en.DealID, ex.DealID),
		Symbol:    p.Symbol(),
		Direction: Direction(en.Type),

		EntryDealID:   en.DealID,
		EntryOrderID:  en.OrderID,
		EntryPosition: en.PositionID,
		EntrySymbol:   en.Symbol,
		EntryType:     en.Type,
		EntryTime:     en.Time,
		EntryPrice:    en.Price,
		EntryVolume:   en.Volume,
		EntryComment:  en.Comment,
		ExitDealID:    ex.DealID,
		ExitOrderID:   ex.OrderID,
		ExitPosition:  ex.PositionID,
		ExitSymbol:    ex.Symbol,
		ExitType:      ex.Type,
		ExitTime:      ex.Time,
		ExitPrice:     ex.Price,
		ExitVolume:    ex.Volume,
		ExitComment:   ex.Comment,
		ExitBalance:   ex.Balance,

		EntrySegments: e.normalizer.Segments(entryAt, e.cfg.HourOffset),
		ExitSegments:  e.normalizer.Segments(exitAt, e.cfg.HourOffset),
		HoldMinutes:   exitAt.Sub(entryAt).Minutes(),
	}

	profit, profitErr := ParseBrokerNumber(ex.Profit)
	commission := parseOrZero(en.Commission).Add(parseOrZero(ex.Commission))
	swap := parseOrZero(en.Swap).Add(parseOrZero(ex.Swap))
	t.Profit = profit.InexactFloat64()
	t.Commission = commission.InexactFloat64()
	t.Swap = swap.InexactFloat64()
	t.NetProfit = profit.Add(commission).Add(swap).InexactFloat64()
	if profitErr != nil {
		t.Result = domain.ResultDataError
	} else {
		t.Result = ClassifyProfit(profit)
	}

	t.PriceMove, t.PriceMovePct = priceMove(t.Direction, en.Price, ex.Price)

	match := m.MatchTrade(p, entryAt, exitAt)
	t.MatchMethod = match.Method
	t.Strategy = strategyFields(match)
	t.ExitReason = t.Strategy.ExitReason
	brokerReason, fromBroker := ExitReasonFromComment(ex.Comment)
	if fromBroker {
		t.ExitReason = brokerReason
	}
	t.MFECapture = mfeCapture(t.Strategy)

	t.EntrySignal = signalFields(m.MatchSignal(t.Symbol, en.Type, entryAt))
	t.ExitSignal = signalFields(m.MatchSignal(t.Symbol, ex.Type, exitAt))

	t.Quality = ScoreTrade(&t, fromBroker, e.cfg.Quality)

	return outcome{trade: t, match: match, profitErr: profitErr}
}

// priceMove returns the favorable price change and its percentage of the entry price.
func priceMove(direction string, entry, exit float64) (float64, float64) {
	move := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(entry))
	if direction == domain.DirectionShort {
		move = move.Neg()
	}
	if entry == 0 {
		return move.InexactFloat64(), 0
	}
	pct := move.Div(decimal.NewFromFloat(entry)).Mul(hundred).Round(6)
	return move.InexactFloat64(), pct.InexactFloat64()
}

func mfeCapture(s domain.StrategyFields) *float64 {
	if !s.HasExit || s.MFEPips == 0 {
		return nil
	}
	v := decimal.NewFromFloat(s.Pips).
		Div(decimal.NewFromFloat(s.MFEPips)).
		Mul(hundred).
		Round(4).
		InexactFloat64()
	return &v
}

// strategyFields flattens a match. Unmatched legs keep zero/empty defaults
// with HasEntry/HasExit false.
func strategyFields(m domain.StrategyMatch) domain.StrategyFields {
	var f domain.StrategyFields
	if !m.Matched() {
		return f
	}
	rec := m.Record
	f.Ticket = rec.Ticket

	if en := rec.Entry; en != nil {
		f.HasEntry = true
		f.EntrySymbol = en.Symbol
		f.EntryType = en.Type
		f.OpenPrice = en.OpenPrice
		f.Lots = en.Lots
		f.EntryMetrics = en.Metrics
	}
	if ex := rec.Exit; ex != nil {
		f.HasExit = true
		f.ExitSymbol = ex.Symbol
		f.ClosePrice = ex.ClosePrice
		f.ExitMetrics = ex.Metrics
		if ex.Profit != nil {
			f.Profit = *ex.Profit
		}
		f.Pips = ex.Pips
		f.HoldMinutes = ex.HoldMinutes
		f.MFE = ex.MFE
		f.MAE = ex.MAE
		f.MFEPips = ex.MFEPips
		f.MAEPips = ex.MAEPips
		f.MFEPercent = ex.MFEPercent
		f.MAEPercent = ex.MAEPercent
		f.RunUpPrice = ex.RunUpPrice
		f.RunUpPips = ex.RunUpPips
		f.RunDownPrice = ex.RunDownPrice
		f.RunDownPips = ex.RunDownPips
		f.ExitReason = ex.ExitReason
		f.ExitQualityClass = ex.ExitQualityClass
	}
	return f
}

func signalFields(m domain.SignalMatch) *domain.SignalFields {
	if !m.Matched() {
		return nil
	}
	s := m.Signal
	return &domain.SignalFields{
		Time:         s.Time,
		Type:         s.Type,
		Price:        s.Price,
		DeltaMinutes: m.DeltaMinutes,
		Metrics:      s.Metrics,
		Passed:       s.Passed,
		RejectReason: s.RejectReason,
	}
}
