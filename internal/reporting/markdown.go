package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderSummaryMarkdown renders report as Markdown string.
func RenderSummaryMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Reconciliation Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s | Run created: %s | Hour offset: %+d\n\n",
		r.GeneratedAt.Format(time.RFC3339), r.RunCreatedAt.Format(time.RFC3339), r.HourOffset))

	// Processing
	s := r.Stats
	sb.WriteString("## Processing\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Deal rows | %d |\n", s.DealRows))
	sb.WriteString(fmt.Sprintf("| Trade log rows | %d |\n", s.TradeLogRows))
	sb.WriteString(fmt.Sprintf("| Signal rows | %d |\n", s.SignalRows))
	sb.WriteString(fmt.Sprintf("| Paired trades | %d |\n", s.PairedTrades))
	sb.WriteString(fmt.Sprintf("| Unpaired deal rows | %d |\n", s.UnpairedDealRows))
	sb.WriteString(fmt.Sprintf("| Strategy matches | %d (direct %d, fallback %d) |\n", s.StrategyMatches, s.DirectMatches, s.FallbackMatches))
	sb.WriteString(fmt.Sprintf("| Signal matches | %d (entry %d, exit %d) |\n", s.SignalMatches, s.EntrySignalMatches, s.ExitSignalMatches))
	sb.WriteString(fmt.Sprintf("| Duplicates dropped | %d |\n", s.DuplicatesDropped))
	sb.WriteString(fmt.Sprintf("| Profit data errors | %d |\n", s.DataErrors))
	sb.WriteString(fmt.Sprintf("| Elapsed | %s |\n", s.Elapsed))
	sb.WriteString("\n")

	// Validation
	sb.WriteString("## Validation\n\n")
	status := "INVALID"
	if r.Valid {
		status = "VALID"
	}
	sb.WriteString(fmt.Sprintf("**%s** | Quality score: %d/100\n\n", status, r.QualityScore))
	if len(r.Issues) > 0 {
		sb.WriteString("| Severity | Type | Trade | Message |\n")
		sb.WriteString("|----------|------|-------|---------|\n")
		for _, issue := range r.Issues {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
				issue.Severity, issue.Type, issue.TradeIndex, issue.Message))
		}
	} else {
		sb.WriteString("No validation issues.\n")
	}
	sb.WriteString("\n")

	// Profit
	p := r.Profit
	sb.WriteString("## Profit Reconciliation\n\n")
	sb.WriteString("| Broker total | Strategy total | Difference | Variance% | Status |\n")
	sb.WriteString("|--------------|----------------|------------|-----------|--------|\n")
	sb.WriteString(fmt.Sprintf("| %.2f | %.2f | %.2f | %.4f | %s |\n\n",
		p.BrokerTotal, p.StrategyTotal, p.Difference, p.VariancePct, p.Status))

	// Matching
	sb.WriteString("## Match Methods\n\n")
	if len(r.MatchBreakdown) > 0 {
		sb.WriteString("| Method | Trades | Share% |\n")
		sb.WriteString("|--------|--------|--------|\n")
		for _, m := range r.MatchBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n", m.Method, m.Trades, m.Pct))
		}
	} else {
		sb.WriteString("No trades reconciled.\n")
	}
	sb.WriteString("\n")

	// Sessions
	sb.WriteString("## Sessions\n\n")
	if len(r.SessionBreakdown) > 0 {
		sb.WriteString("| Session | Trades | Wins | Losses | WinRate | Net profit |\n")
		sb.WriteString("|---------|--------|------|--------|---------|------------|\n")
		for _, row := range r.SessionBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.4f | %.2f |\n",
				row.Session, row.Trades, row.Wins, row.Losses, row.WinRate, row.NetProfit))
		}
	} else {
		sb.WriteString("No session data available.\n")
	}
	sb.WriteString("\n")

	// Results
	sb.WriteString("## Results\n\n")
	if len(r.ResultBreakdown) > 0 {
		sb.WriteString("| Result | Trades | Net profit |\n")
		sb.WriteString("|--------|--------|------------|\n")
		for _, row := range r.ResultBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n", row.Result, row.Trades, row.NetProfit))
		}
	} else {
		sb.WriteString("No results available.\n")
	}
	sb.WriteString("\n")

	// Review list
	sb.WriteString(fmt.Sprintf("## Trades Below Quality %d\n\n", LowQualityThreshold))
	if len(r.LowQualityTrades) > 0 {
		sb.WriteString("| Trade | Symbol | Entry time | Score | Missing |\n")
		sb.WriteString("|-------|--------|------------|-------|---------|\n")
		for _, t := range r.LowQualityTrades {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s |\n",
				t.Index, t.Symbol, t.EntryTime, t.Score, strings.Join(t.MissingFields, ", ")))
		}
	} else {
		sb.WriteString("None.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
