package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trade-reconciler/internal/domain"
)

func TestScoreTrade_NothingMatchedScoresTwenty(t *testing.T) {
	trade := domain.ReconciledTrade{MatchMethod: domain.MatchNone, Result: domain.ResultWin}

	q := ScoreTrade(&trade, false, DefaultQualityWeights())

	assert.Equal(t, 20, q.Score)
	assert.Equal(t, []string{
		domain.MissingStrategyEntry,
		domain.MissingStrategyExit,
		domain.MissingEntrySignal,
		domain.MissingExitSignal,
	}, q.MissingFields)
	assert.Equal(t, []string{domain.FlagNoStrategyMatch}, q.Flags)
}

func TestScoreTrade_FullMatch(t *testing.T) {
	trade := domain.ReconciledTrade{
		MatchMethod: domain.MatchDirect,
		Result:      domain.ResultLoss,
		Strategy: domain.StrategyFields{
			HasEntry:         true,
			HasExit:          true,
			EntryMetrics:     domain.PhysicsMetrics{Zone: "BULL"},
			ExitMetrics:      domain.PhysicsMetrics{Zone: "bull"},
			ExitQualityClass: "GOOD",
		},
		EntrySignal: &domain.SignalFields{},
		ExitSignal:  &domain.SignalFields{},
	}

	q := ScoreTrade(&trade, false, DefaultQualityWeights())

	assert.Equal(t, 100, q.Score)
	assert.Empty(t, q.MissingFields)
	assert.Empty(t, q.Flags)
}

func TestScoreTrade_Flags(t *testing.T) {
	trade := domain.ReconciledTrade{
		MatchMethod: domain.MatchEntryFallback,
		Result:      domain.ResultDataError,
		Strategy: domain.StrategyFields{
			HasEntry:         true,
			HasExit:          true,
			EntryMetrics:     domain.PhysicsMetrics{Zone: "BULL"},
			ExitMetrics:      domain.PhysicsMetrics{Zone: "BEAR"},
			ExitQualityClass: "early",
		},
		EntrySignal: &domain.SignalFields{},
	}

	q := ScoreTrade(&trade, true, DefaultQualityWeights())

	assert.Equal(t, 85, q.Score)
	assert.Equal(t, []string{domain.MissingExitSignal, domain.MissingProfit}, q.MissingFields)
	assert.Equal(t, []string{
		domain.FlagFallbackMatch,
		domain.FlagZoneTransition,
		domain.FlagEarlyExit,
		domain.FlagProfitDataError,
		domain.FlagBrokerExitReason,
	}, q.Flags)
}

func TestScoreTrade_FloorAtZero(t *testing.T) {
	w := QualityWeights{NoStrategyEntry: 60, NoStrategyExit: 60, NoEntrySignal: 1, NoExitSignal: 1}
	trade := domain.ReconciledTrade{MatchMethod: domain.MatchNone}

	q := ScoreTrade(&trade, false, w)
	assert.Equal(t, 0, q.Score)
}
