package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/domain"
)

func cleanTrade(index int) domain.ReconciledTrade {
	return domain.ReconciledTrade{
		Index:       index,
		Symbol:      "EURUSD",
		EntrySymbol: "EURUSD",
		ExitSymbol:  "EURUSD",
		MatchMethod: domain.MatchDirect,
		Strategy: domain.StrategyFields{
			HasEntry:    true,
			HasExit:     true,
			EntrySymbol: "EURUSD",
			ExitSymbol:  "EURUSD",
		},
		EntrySignal: &domain.SignalFields{},
		ExitSignal:  &domain.SignalFields{},
	}
}

func TestValidate_Clean(t *testing.T) {
	s := Validate([]domain.ReconciledTrade{cleanTrade(0), cleanTrade(1)}, DefaultQualityWeights())

	assert.True(t, s.Valid)
	assert.Empty(t, s.CriticalErrors)
	assert.Empty(t, s.Warnings)
	assert.Equal(t, 100, s.QualityScore)
}

func TestValidate_SymbolMismatchesAreCritical(t *testing.T) {
	broker := cleanTrade(0)
	broker.ExitSymbol = "GBPUSD"

	strategy := cleanTrade(1)
	strategy.Strategy.EntrySymbol = "USDJPY"
	strategy.Strategy.ExitSymbol = "USDJPY"

	s := Validate([]domain.ReconciledTrade{broker, strategy}, DefaultQualityWeights())

	assert.False(t, s.Valid)
	require.Len(t, s.CriticalErrors, 3)
	assert.Equal(t, domain.IssueBrokerSymbolMismatch, s.CriticalErrors[0].Type)
	assert.Equal(t, 0, s.CriticalErrors[0].TradeIndex)
	assert.Equal(t, domain.IssueStrategyEntrySymbolMismatch, s.CriticalErrors[1].Type)
	assert.Equal(t, domain.IssueStrategyExitSymbolMismatch, s.CriticalErrors[2].Type)
	assert.Equal(t, 1, s.CriticalErrors[2].TradeIndex)
	for _, issue := range s.CriticalErrors {
		assert.Equal(t, domain.SeverityCritical, issue.Severity)
		assert.NotEmpty(t, issue.Message)
	}
	assert.Equal(t, 70, s.QualityScore)
}

func TestValidate_Warnings(t *testing.T) {
	unmatched := domain.ReconciledTrade{
		Index:         0,
		Symbol:        "EURUSD",
		EntrySymbol:   "EURUSD",
		ExitSymbol:    "EURUSD",
		EntryPosition: 11,
		ExitPosition:  12,
		MatchMethod:   domain.MatchNone,
	}

	s := Validate([]domain.ReconciledTrade{unmatched}, DefaultQualityWeights())

	assert.True(t, s.Valid, "warnings never invalidate")
	var types []string
	for _, w := range s.Warnings {
		types = append(types, w.Type)
		assert.Equal(t, domain.SeverityWarning, w.Severity)
	}
	assert.Equal(t, []string{
		domain.IssueTradeIDMismatch,
		domain.IssueNoStrategyMatch,
		domain.IssueNoEntrySignal,
		domain.IssueNoExitSignal,
	}, types)
	assert.Equal(t, 92, s.QualityScore)
}

func TestValidate_ScoreFloor(t *testing.T) {
	var trades []domain.ReconciledTrade
	for i := 0; i < 20; i++ {
		tr := cleanTrade(i)
		tr.ExitSymbol = "XAUUSD"
		trades = append(trades, tr)
	}

	s := Validate(trades, DefaultQualityWeights())
	assert.Equal(t, 0, s.QualityScore)
	assert.Len(t, s.CriticalErrors, 20)
}
