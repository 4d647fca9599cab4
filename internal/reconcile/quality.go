package reconcile

import (
	"strings"

	"trade-reconciler/internal/domain"
)

// QualityWeights are the per-trade score penalties.
type QualityWeights struct {
	NoStrategyEntry int `yaml:"no_strategy_entry"`
	NoStrategyExit  int `yaml:"no_strategy_exit"`
	NoEntrySignal   int `yaml:"no_entry_signal"`
	NoExitSignal    int `yaml:"no_exit_signal"`
	Critical        int `yaml:"critical"` // dataset-level, per critical issue
	Warning         int `yaml:"warning"`  // dataset-level, per warning
}

// DefaultQualityWeights returns the production penalties.
func DefaultQualityWeights() QualityWeights {
	return QualityWeights{
		NoStrategyEntry: 30,
		NoStrategyExit:  20,
		NoEntrySignal:   15,
		NoExitSignal:    15,
		Critical:        10,
		Warning:         2,
	}
}

// ScoreTrade computes the per-trade DataQuality from a fully built trade.
// brokerExitReason reports whether the exit reason came from the broker comment.
func ScoreTrade(t *domain.ReconciledTrade, brokerExitReason bool, w QualityWeights) domain.DataQuality {
	q := domain.DataQuality{
		Score:         100,
		MissingFields: []string{},
		Flags:         []string{},
	}

	if !t.Strategy.HasEntry {
		q.Score -= w.NoStrategyEntry
		q.MissingFields = append(q.MissingFields, domain.MissingStrategyEntry)
	}
	if !t.Strategy.HasExit {
		q.Score -= w.NoStrategyExit
		q.MissingFields = append(q.MissingFields, domain.MissingStrategyExit)
	}
	if t.EntrySignal == nil {
		q.Score -= w.NoEntrySignal
		q.MissingFields = append(q.MissingFields, domain.MissingEntrySignal)
	}
	if t.ExitSignal == nil {
		q.Score -= w.NoExitSignal
		q.MissingFields = append(q.MissingFields, domain.MissingExitSignal)
	}
	if t.Result == domain.ResultDataError {
		q.MissingFields = append(q.MissingFields, domain.MissingProfit)
	}
	q.Score = clampScore(q.Score)

	switch {
	case t.MatchMethod == domain.MatchNone:
		q.Flags = append(q.Flags, domain.FlagNoStrategyMatch)
	case t.MatchMethod.IsFallback():
		q.Flags = append(q.Flags, domain.FlagFallbackMatch)
	}
	if t.Strategy.HasEntry && t.Strategy.HasExit {
		entryZone := t.Strategy.EntryMetrics.Zone
		exitZone := t.Strategy.ExitMetrics.Zone
		if entryZone != "" && exitZone != "" && !strings.EqualFold(entryZone, exitZone) {
			q.Flags = append(q.Flags, domain.FlagZoneTransition)
		}
	}
	if strings.EqualFold(strings.TrimSpace(t.Strategy.ExitQualityClass), "EARLY") {
		q.Flags = append(q.Flags, domain.FlagEarlyExit)
	}
	if t.Result == domain.ResultDataError {
		q.Flags = append(q.Flags, domain.FlagProfitDataError)
	}
	if brokerExitReason {
		q.Flags = append(q.Flags, domain.FlagBrokerExitReason)
	}

	return q
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
