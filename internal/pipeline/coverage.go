package pipeline

import (
	"fmt"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/reconcile"
)

// Coverage thresholds.
const (
	MinStrategyMatchRate = 0.80 // matched trades / paired trades
	MinSignalMatchRate   = 0.50 // matched signals / (2 * paired trades)
	MaxDataErrorRate     = 0.05 // unparseable profits / paired trades
)

// CoverageCheck represents one coverage criterion.
type CoverageCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// CoverageResult contains all checks.
type CoverageResult struct {
	Checks  []CoverageCheck
	AllPass bool
}

// CheckCoverage evaluates how completely a run's trades were explained by
// the strategy and signal logs. A failed check does not fail the run.
func CheckCoverage(res *reconcile.Result) *CoverageResult {
	s := res.Stats
	result := &CoverageResult{
		Checks:  make([]CoverageCheck, 0, 5),
		AllPass: true,
	}

	add := func(name, threshold, actual string, pass bool) {
		result.Checks = append(result.Checks, CoverageCheck{
			Name:      name,
			Threshold: threshold,
			Actual:    actual,
			Pass:      pass,
		})
		if !pass {
			result.AllPass = false
		}
	}

	add("paired_trades", ">= 1", fmt.Sprintf("%d", s.PairedTrades), s.PairedTrades >= 1)

	strategyRate := rate(s.StrategyMatches, s.PairedTrades)
	add("strategy_match_rate",
		fmt.Sprintf(">= %.2f", MinStrategyMatchRate),
		fmt.Sprintf("%.4f", strategyRate),
		strategyRate >= MinStrategyMatchRate)

	signalRate := rate(s.SignalMatches, 2*s.PairedTrades)
	add("signal_match_rate",
		fmt.Sprintf(">= %.2f", MinSignalMatchRate),
		fmt.Sprintf("%.4f", signalRate),
		signalRate >= MinSignalMatchRate)

	errorRate := rate(s.DataErrors, s.PairedTrades)
	add("data_error_rate",
		fmt.Sprintf("<= %.2f", MaxDataErrorRate),
		fmt.Sprintf("%.4f", errorRate),
		errorRate <= MaxDataErrorRate)

	add("profit_reconciliation", "!= "+domain.ProfitMismatch, res.Profit.Status,
		res.Profit.Status != domain.ProfitMismatch)

	return result
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
