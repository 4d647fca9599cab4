package reconcile

import (
	"fmt"

	"trade-reconciler/internal/domain"
)

// Validate runs the dataset-level consistency checks over reconciled trades.
// Symbol inconsistencies are critical. Identity and signal gaps are warnings.
// Issues are reported in trade order.
func Validate(trades []domain.ReconciledTrade, w QualityWeights) domain.ValidationSummary {
	s := domain.ValidationSummary{
		CriticalErrors: []domain.ValidationIssue{},
		Warnings:       []domain.ValidationIssue{},
	}

	critical := func(t *domain.ReconciledTrade, typ, format string, args ...any) {
		s.CriticalErrors = append(s.CriticalErrors, domain.ValidationIssue{
			Type:       typ,
			TradeIndex: t.Index,
			Message:    fmt.Sprintf(format, args...),
			Severity:   domain.SeverityCritical,
		})
	}
	warning := func(t *domain.ReconciledTrade, typ, format string, args ...any) {
		s.Warnings = append(s.Warnings, domain.ValidationIssue{
			Type:       typ,
			TradeIndex: t.Index,
			Message:    fmt.Sprintf(format, args...),
			Severity:   domain.SeverityWarning,
		})
	}

	for i := range trades {
		t := &trades[i]

		if t.EntrySymbol != t.ExitSymbol {
			critical(t, domain.IssueBrokerSymbolMismatch,
				"entry deal %d symbol %q differs from exit deal %d symbol %q",
				t.EntryDealID, t.EntrySymbol, t.ExitDealID, t.ExitSymbol)
		}
		if t.Strategy.HasEntry && t.Strategy.EntrySymbol != t.Symbol {
			critical(t, domain.IssueStrategyEntrySymbolMismatch,
				"strategy ticket %d entry symbol %q differs from broker symbol %q",
				t.Strategy.Ticket, t.Strategy.EntrySymbol, t.Symbol)
		}
		if t.Strategy.HasExit && t.Strategy.ExitSymbol != t.Symbol {
			critical(t, domain.IssueStrategyExitSymbolMismatch,
				"strategy ticket %d exit symbol %q differs from broker symbol %q",
				t.Strategy.Ticket, t.Strategy.ExitSymbol, t.Symbol)
		}

		if t.EntryPosition != 0 && t.ExitPosition != 0 && t.EntryPosition != t.ExitPosition {
			warning(t, domain.IssueTradeIDMismatch,
				"entry deal %d position %d differs from exit deal %d position %d",
				t.EntryDealID, t.EntryPosition, t.ExitDealID, t.ExitPosition)
		}
		if t.MatchMethod == domain.MatchNone {
			warning(t, domain.IssueNoStrategyMatch,
				"no strategy record for order %d", t.EntryOrderID)
		}
		if t.EntrySignal == nil {
			warning(t, domain.IssueNoEntrySignal,
				"no %s signal for %s at or before %s", t.EntryType, t.Symbol, t.EntryTime)
		}
		if t.ExitSignal == nil {
			warning(t, domain.IssueNoExitSignal,
				"no %s signal for %s at or before %s", t.ExitType, t.Symbol, t.ExitTime)
		}
	}

	s.Valid = len(s.CriticalErrors) == 0
	s.QualityScore = clampScore(100 - w.Critical*len(s.CriticalErrors) - w.Warning*len(s.Warnings))
	return s
}
