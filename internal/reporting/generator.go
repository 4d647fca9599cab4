package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore   storage.RunStore
	tradeStore storage.ReconciledTradeStore
	issueStore storage.ValidationIssueStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	tradeStore storage.ReconciledTradeStore,
	issueStore storage.ValidationIssueStore,
) *Generator {
	return &Generator{
		runStore:   runStore,
		tradeStore: tradeStore,
		issueStore: issueStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a run with its trades and issues and summarises it.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, []domain.ReconciledTrade, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	trades, err := g.tradeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load trades: %w", err)
	}
	issues, err := g.issueStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load issues: %w", err)
	}
	return Build(run, trades, issues, g.now()), trades, nil
}

// Build summarises a run from its parts.
func Build(run *domain.RunSummary, trades []domain.ReconciledTrade, issues []domain.ValidationIssue, generatedAt time.Time) *Report {
	r := &Report{
		RunID:            run.RunID,
		GeneratedAt:      generatedAt,
		RunCreatedAt:     run.CreatedAt,
		InputFingerprint: run.InputFingerprint,
		HourOffset:       run.HourOffset,
		Stats:            run.Stats,
		Valid:            run.Valid,
		QualityScore:     run.Stats.QualityScore,
		Profit:           run.Profit,
		MatchBreakdown:   matchBreakdown(trades),
		SessionBreakdown: sessionBreakdown(trades),
		ResultBreakdown:  resultBreakdown(trades),
		Issues:           issues,
		LowQualityTrades: []TradeQualityRow{},
	}
	if r.Issues == nil {
		r.Issues = []domain.ValidationIssue{}
	}

	for i := range trades {
		t := &trades[i]
		if t.Quality.Score < LowQualityThreshold {
			r.LowQualityTrades = append(r.LowQualityTrades, TradeQualityRow{
				Index:         t.Index,
				Symbol:        t.Symbol,
				EntryTime:     t.EntryTime,
				Score:         t.Quality.Score,
				MissingFields: t.Quality.MissingFields,
			})
		}
	}
	return r
}

func matchBreakdown(trades []domain.ReconciledTrade) []MatchRow {
	counts := make(map[string]int)
	for i := range trades {
		counts[string(trades[i].MatchMethod)]++
	}

	rows := make([]MatchRow, 0, len(counts))
	for method, n := range counts {
		rows = append(rows, MatchRow{
			Method: method,
			Trades: n,
			Pct:    ratio(n, len(trades)) * 100,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Method < rows[j].Method })
	return rows
}

func sessionBreakdown(trades []domain.ReconciledTrade) []SessionRow {
	type acc struct {
		row SessionRow
		net decimal.Decimal
	}
	bySession := make(map[string]*acc)
	for i := range trades {
		t := &trades[i]
		a, ok := bySession[t.EntrySegments.Session]
		if !ok {
			a = &acc{row: SessionRow{Session: t.EntrySegments.Session}}
			bySession[t.EntrySegments.Session] = a
		}
		a.row.Trades++
		switch t.Result {
		case domain.ResultWin:
			a.row.Wins++
		case domain.ResultLoss:
			a.row.Losses++
		}
		a.net = a.net.Add(decimal.NewFromFloat(t.NetProfit))
	}

	rows := make([]SessionRow, 0, len(bySession))
	for _, a := range bySession {
		a.row.WinRate = ratio(a.row.Wins, a.row.Trades)
		a.row.NetProfit = a.net.InexactFloat64()
		rows = append(rows, a.row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Session < rows[j].Session })
	return rows
}

func resultBreakdown(trades []domain.ReconciledTrade) []ResultRow {
	type acc struct {
		trades int
		net    decimal.Decimal
	}
	byResult := make(map[string]*acc)
	for i := range trades {
		t := &trades[i]
		a, ok := byResult[t.Result]
		if !ok {
			a = &acc{}
			byResult[t.Result] = a
		}
		a.trades++
		a.net = a.net.Add(decimal.NewFromFloat(t.NetProfit))
	}

	rows := make([]ResultRow, 0, len(byResult))
	for result, a := range byResult {
		rows = append(rows, ResultRow{Result: result, Trades: a.trades, NetProfit: a.net.InexactFloat64()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Result < rows[j].Result })
	return rows
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
