// Package verification checks that reconciliation output is reproducible:
// re-running the engine over the same inputs must yield the same trades,
// statistics, validation and profit reconciliation.
package verification

import (
	"fmt"
	"math"
	"slices"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/reconcile"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single trade.
type VerificationResult struct {
	TradeIndex        int               // position in the run
	TradeKey          string            // stored trade key
	Match             bool              // true if all fields match
	Divergences       []FieldDivergence // list of divergent fields
	StoredNetProfit   float64
	ReplayedNetProfit float64
}

// VerificationReport contains results for a whole run.
type VerificationReport struct {
	TotalTrades     int                  // trades compared
	MatchedTrades   int                  // trades that matched exactly
	DivergentTrades int                  // trades with divergences
	Results         []VerificationResult // individual results, in trade order
	RunDivergences  []FieldDivergence    // run-level mismatches (counts, stats, validation, profit)
}

// Reproducible reports whether nothing diverged.
func (r *VerificationReport) Reproducible() bool {
	return r.DivergentTrades == 0 && len(r.RunDivergences) == 0
}

// diff accumulates divergences.
type diff []FieldDivergence

func (d *diff) add(field string, expected, actual interface{}) {
	*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
}

func (d *diff) eqStr(field, a, b string) {
	if a != b {
		d.add(field, a, b)
	}
}

func (d *diff) eqInt(field string, a, b int64) {
	if a != b {
		d.add(field, a, b)
	}
}

func (d *diff) eqFloat(field string, a, b float64) {
	if !floatEquals(a, b) {
		d.add(field, a, b)
	}
}

// CompareReconciledTrades compares two reconciled trades and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareReconciledTrades(stored, replayed *domain.ReconciledTrade) []FieldDivergence {
	var d diff

	// Identity
	d.eqInt("Index", int64(stored.Index), int64(replayed.Index))
	d.eqStr("TradeKey", stored.TradeKey, replayed.TradeKey)
	d.eqStr("Symbol", stored.Symbol, replayed.Symbol)
	d.eqStr("Direction", stored.Direction, replayed.Direction)

	// Broker deals
	d.eqInt("EntryDealID", stored.EntryDealID, replayed.EntryDealID)
	d.eqInt("EntryOrderID", stored.EntryOrderID, replayed.EntryOrderID)
	d.eqInt("EntryPosition", stored.EntryPosition, replayed.EntryPosition)
	d.eqStr("EntryTime", stored.EntryTime, replayed.EntryTime)
	d.eqFloat("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	d.eqFloat("EntryVolume", stored.EntryVolume, replayed.EntryVolume)
	d.eqInt("ExitDealID", stored.ExitDealID, replayed.ExitDealID)
	d.eqInt("ExitOrderID", stored.ExitOrderID, replayed.ExitOrderID)
	d.eqInt("ExitPosition", stored.ExitPosition, replayed.ExitPosition)
	d.eqStr("ExitTime", stored.ExitTime, replayed.ExitTime)
	d.eqFloat("ExitPrice", stored.ExitPrice, replayed.ExitPrice)
	d.eqFloat("ExitVolume", stored.ExitVolume, replayed.ExitVolume)

	// Money and outcome
	d.eqFloat("Profit", stored.Profit, replayed.Profit)
	d.eqFloat("Commission", stored.Commission, replayed.Commission)
	d.eqFloat("Swap", stored.Swap, replayed.Swap)
	d.eqFloat("NetProfit", stored.NetProfit, replayed.NetProfit)
	d.eqStr("Result", stored.Result, replayed.Result)
	d.eqStr("ExitReason", stored.ExitReason, replayed.ExitReason)

	// Derived
	d.eqFloat("HoldMinutes", stored.HoldMinutes, replayed.HoldMinutes)
	d.eqFloat("PriceMove", stored.PriceMove, replayed.PriceMove)
	d.eqFloat("PriceMovePct", stored.PriceMovePct, replayed.PriceMovePct)
	if !floatPtrEquals(stored.MFECapture, replayed.MFECapture) {
		d.add("MFECapture", stored.MFECapture, replayed.MFECapture)
	}
	if stored.EntrySegments != replayed.EntrySegments {
		d.add("EntrySegments", stored.EntrySegments, replayed.EntrySegments)
	}
	if stored.ExitSegments != replayed.ExitSegments {
		d.add("ExitSegments", stored.ExitSegments, replayed.ExitSegments)
	}

	// Matching
	d.eqStr("MatchMethod", string(stored.MatchMethod), string(replayed.MatchMethod))
	if stored.Strategy != replayed.Strategy {
		d.add("Strategy", stored.Strategy, replayed.Strategy)
	}
	if !signalEquals(stored.EntrySignal, replayed.EntrySignal) {
		d.add("EntrySignal", stored.EntrySignal, replayed.EntrySignal)
	}
	if !signalEquals(stored.ExitSignal, replayed.ExitSignal) {
		d.add("ExitSignal", stored.ExitSignal, replayed.ExitSignal)
	}

	// Quality
	d.eqInt("Quality.Score", int64(stored.Quality.Score), int64(replayed.Quality.Score))
	if !slices.Equal(stored.Quality.MissingFields, replayed.Quality.MissingFields) {
		d.add("Quality.MissingFields", stored.Quality.MissingFields, replayed.Quality.MissingFields)
	}
	if !slices.Equal(stored.Quality.Flags, replayed.Quality.Flags) {
		d.add("Quality.Flags", stored.Quality.Flags, replayed.Quality.Flags)
	}

	return d
}

// CompareTradeSets compares stored and replayed trades position by position.
func CompareTradeSets(stored, replayed []domain.ReconciledTrade) *VerificationReport {
	report := &VerificationReport{
		Results: make([]VerificationResult, 0, len(stored)),
	}
	if len(stored) != len(replayed) {
		report.RunDivergences = append(report.RunDivergences, FieldDivergence{
			Field:    "TradeCount",
			Expected: len(stored),
			Actual:   len(replayed),
		})
	}

	for i := range stored {
		result := VerificationResult{
			TradeIndex:      stored[i].Index,
			TradeKey:        stored[i].TradeKey,
			StoredNetProfit: stored[i].NetProfit,
		}
		if i < len(replayed) {
			result.Divergences = CompareReconciledTrades(&stored[i], &replayed[i])
			result.ReplayedNetProfit = replayed[i].NetProfit
		} else {
			result.Divergences = []FieldDivergence{{Field: "Missing", Expected: stored[i].TradeKey, Actual: nil}}
		}
		result.Match = len(result.Divergences) == 0

		report.TotalTrades++
		if result.Match {
			report.MatchedTrades++
		} else {
			report.DivergentTrades++
		}
		report.Results = append(report.Results, result)
	}
	return report
}

// CompareResults compares two complete engine results. Elapsed time is the
// only field allowed to differ.
func CompareResults(a, b *reconcile.Result) *VerificationReport {
	report := CompareTradeSets(a.Trades, b.Trades)

	var d diff
	statsA, statsB := a.Stats, b.Stats
	statsA.Elapsed, statsB.Elapsed = 0, 0
	if statsA != statsB {
		d.add("Stats", statsA, statsB)
	}
	if a.Dedup != b.Dedup {
		d.add("Dedup", a.Dedup, b.Dedup)
	}
	if !slices.Equal(a.MatchEvents, b.MatchEvents) {
		d.add("MatchEvents", a.MatchEvents, b.MatchEvents)
	}

	va, vb := a.Validation, b.Validation
	if va.Valid != vb.Valid {
		d.add("Validation.Valid", va.Valid, vb.Valid)
	}
	d.eqInt("Validation.QualityScore", int64(va.QualityScore), int64(vb.QualityScore))
	if !slices.Equal(va.CriticalErrors, vb.CriticalErrors) {
		d.add("Validation.CriticalErrors", va.CriticalErrors, vb.CriticalErrors)
	}
	if !slices.Equal(va.Warnings, vb.Warnings) {
		d.add("Validation.Warnings", va.Warnings, vb.Warnings)
	}

	d.eqFloat("Profit.BrokerTotal", a.Profit.BrokerTotal, b.Profit.BrokerTotal)
	d.eqFloat("Profit.StrategyTotal", a.Profit.StrategyTotal, b.Profit.StrategyTotal)
	d.eqFloat("Profit.Difference", a.Profit.Difference, b.Profit.Difference)
	d.eqFloat("Profit.VariancePct", a.Profit.VariancePct, b.Profit.VariancePct)
	d.eqStr("Profit.Status", a.Profit.Status, b.Profit.Status)

	report.RunDivergences = append(report.RunDivergences, d...)
	return report
}

// Describe formats a divergence for logs and CLI output.
func (f FieldDivergence) Describe() string {
	return fmt.Sprintf("%s: expected %v, got %v", f.Field, deref(f.Expected), deref(f.Actual))
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *float64:
		if p == nil {
			return "<nil>"
		}
		return *p
	case *domain.SignalFields:
		if p == nil {
			return "<nil>"
		}
		return *p
	}
	return v
}

func signalEquals(a, b *domain.SignalFields) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}
