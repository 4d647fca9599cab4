package reconcile

import (
	"github.com/shopspring/decimal"

	"trade-reconciler/internal/domain"
)

// ProfitTiers are the thresholds of the profit reconciliation check.
type ProfitTiers struct {
	ExactMatch    float64 `yaml:"exact_match"`    // absolute difference, account currency
	CloseMatch    float64 `yaml:"close_match"`    // absolute difference, account currency
	AcceptablePct float64 `yaml:"acceptable_pct"` // variance against broker total, percent
}

// DefaultProfitTiers returns the production thresholds.
func DefaultProfitTiers() ProfitTiers {
	return ProfitTiers{
		ExactMatch:    0.01,
		CloseMatch:    1.00,
		AcceptablePct: 1.0,
	}
}

var hundred = decimal.NewFromInt(100)

// ReconcileProfit compares the broker total (profit + commission + swap)
// with the sum of strategy-reported profit. Missing strategy profit counts
// as zero. The result is diagnostic only.
func ReconcileProfit(trades []domain.ReconciledTrade, tiers ProfitTiers) domain.ProfitReconciliation {
	broker := decimal.Zero
	strategy := decimal.Zero
	for i := range trades {
		t := &trades[i]
		broker = broker.
			Add(decimal.NewFromFloat(t.Profit)).
			Add(decimal.NewFromFloat(t.Commission)).
			Add(decimal.NewFromFloat(t.Swap))
		strategy = strategy.Add(decimal.NewFromFloat(t.Strategy.Profit))
	}

	diff := broker.Sub(strategy).Abs()

	var variance decimal.Decimal
	switch {
	case !broker.IsZero():
		variance = diff.Div(broker.Abs()).Mul(hundred)
	case diff.IsZero():
		variance = decimal.Zero
	default:
		variance = hundred
	}

	status := domain.ProfitMismatch
	switch {
	case diff.LessThan(decimal.NewFromFloat(tiers.ExactMatch)):
		status = domain.ProfitExactMatch
	case diff.LessThan(decimal.NewFromFloat(tiers.CloseMatch)):
		status = domain.ProfitCloseMatch
	case variance.LessThan(decimal.NewFromFloat(tiers.AcceptablePct)):
		status = domain.ProfitAcceptable
	}

	return domain.ProfitReconciliation{
		BrokerTotal:   broker.InexactFloat64(),
		StrategyTotal: strategy.InexactFloat64(),
		Difference:    diff.InexactFloat64(),
		VariancePct:   variance.Round(6).InexactFloat64(),
		Status:        status,
	}
}
