package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trade-reconciler/internal/domain"
)

func moneyTrade(profit, commission, swap, strategyProfit float64) domain.ReconciledTrade {
	return domain.ReconciledTrade{
		Profit:     profit,
		Commission: commission,
		Swap:       swap,
		Strategy:   domain.StrategyFields{Profit: strategyProfit},
	}
}

func TestReconcileProfit_Tiers(t *testing.T) {
	tests := []struct {
		name   string
		trades []domain.ReconciledTrade
		want   string
	}{
		{
			name:   "exact",
			trades: []domain.ReconciledTrade{moneyTrade(100, -2, -0.5, 97.5), moneyTrade(-50, -2, 0, -52)},
			want:   domain.ProfitExactMatch,
		},
		{
			name:   "close",
			trades: []domain.ReconciledTrade{moneyTrade(100, -2, 0, 98.5)},
			want:   domain.ProfitCloseMatch,
		},
		{
			name:   "acceptable",
			trades: []domain.ReconciledTrade{moneyTrade(1000, 0, 0, 995)},
			want:   domain.ProfitAcceptable,
		},
		{
			name:   "mismatch",
			trades: []domain.ReconciledTrade{moneyTrade(100, 0, 0, 80)},
			want:   domain.ProfitMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileProfit(tt.trades, DefaultProfitTiers())
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestReconcileProfit_Totals(t *testing.T) {
	got := ReconcileProfit([]domain.ReconciledTrade{
		moneyTrade(0.1, 0.2, 0, 0),
		moneyTrade(200, -1.5, -0.3, 150),
	}, DefaultProfitTiers())

	assert.InDelta(t, 198.5, got.BrokerTotal, 1e-9)
	assert.InDelta(t, 150.0, got.StrategyTotal, 1e-9)
	assert.InDelta(t, 48.5, got.Difference, 1e-9)
	assert.InDelta(t, 24.433249, got.VariancePct, 1e-6)
}

func TestReconcileProfit_ZeroBroker(t *testing.T) {
	got := ReconcileProfit(nil, DefaultProfitTiers())
	assert.Equal(t, domain.ProfitExactMatch, got.Status)
	assert.Equal(t, 0.0, got.VariancePct)

	got = ReconcileProfit([]domain.ReconciledTrade{moneyTrade(0, 0, 0, 25)}, DefaultProfitTiers())
	assert.Equal(t, 100.0, got.VariancePct)
	assert.Equal(t, domain.ProfitMismatch, got.Status)
}
