package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/idhash"
	"trade-reconciler/internal/reconcile"
	"trade-reconciler/internal/storage/memory"
)

func ptrFloat64(v float64) *float64 {
	return &v
}

func sampleInput() reconcile.Input {
	return reconcile.Input{
		Deals: []domain.DealRow{
			{DealID: 1, OrderID: 5001, Symbol: "EURUSD", Side: "in", Type: "buy", Time: "2024.01.15 17:00:00", Price: 1.1000, Volume: 1},
			{DealID: 2, OrderID: 5002, Symbol: "EURUSD", Side: "out", Type: "sell", Time: "2024.01.15 17:30:00", Price: 1.1050, Volume: 1, Profit: "50.00"},
			{DealID: 3, OrderID: 6001, Symbol: "GBPUSD", Side: "in", Type: "sell", Time: "2024.01.15 18:00:00", Price: 1.2700, Volume: 2},
			{DealID: 4, OrderID: 6002, Symbol: "GBPUSD", Side: "out", Type: "buy", Time: "2024.01.15 18:45:00", Price: 1.2750, Volume: 2, Profit: "-100.00"},
		},
		TradeLog: []domain.TradeLogRow{
			{Ticket: "5001", RowType: "ENTRY", Symbol: "EURUSD", Type: "BUY", OpenTime: "2024.01.15 17:00:00", OpenPrice: 1.1},
			{Ticket: "5001", RowType: "EXIT", Symbol: "EURUSD", Type: "BUY", CloseTime: "2024.01.15 17:30:00", ClosePrice: 1.105, Profit: ptrFloat64(50), Pips: 50, MFEPips: 80},
		},
		Signals: []domain.SignalRow{
			{Symbol: "EURUSD", Time: "2024.01.15 16:58:00", Type: "BUY", Price: 1.0998},
		},
	}
}

func runEngine(t *testing.T, workers int) *reconcile.Result {
	t.Helper()
	cfg := reconcile.DefaultConfig()
	cfg.Workers = workers
	res, err := reconcile.NewEngine(cfg, nil).Run(sampleInput())
	if err != nil {
		t.Fatalf("engine run: %v", err)
	}
	return res
}

func TestCompareReconciledTrades_ExactMatch(t *testing.T) {
	res := runEngine(t, 1)
	stored := res.Trades[0]
	replayed := res.Trades[0]

	if divs := CompareReconciledTrades(&stored, &replayed); len(divs) != 0 {
		t.Errorf("expected no divergences, got %v", divs)
	}
}

func TestCompareReconciledTrades_WithinTolerance(t *testing.T) {
	res := runEngine(t, 1)
	stored := res.Trades[0]
	replayed := res.Trades[0]
	replayed.NetProfit += 1e-9
	replayed.MFECapture = ptrFloat64(*stored.MFECapture + 5e-8)

	if divs := CompareReconciledTrades(&stored, &replayed); len(divs) != 0 {
		t.Errorf("expected no divergences within tolerance, got %v", divs)
	}
}

func TestCompareReconciledTrades_Divergences(t *testing.T) {
	res := runEngine(t, 1)
	stored := res.Trades[0]
	replayed := res.Trades[0]
	replayed.NetProfit += 0.01
	replayed.MatchMethod = domain.MatchEntryFallback
	replayed.EntrySignal = nil
	replayed.MFECapture = nil
	replayed.Quality.Flags = append([]string{domain.FlagFallbackMatch}, replayed.Quality.Flags...)

	divs := CompareReconciledTrades(&stored, &replayed)

	want := map[string]bool{
		"NetProfit":     true,
		"MatchMethod":   true,
		"EntrySignal":   true,
		"MFECapture":    true,
		"Quality.Flags": true,
	}
	if len(divs) != len(want) {
		t.Fatalf("expected %d divergences, got %d: %v", len(want), len(divs), divs)
	}
	for _, d := range divs {
		if !want[d.Field] {
			t.Errorf("unexpected divergence on %s", d.Field)
		}
	}
}

func TestCompareResults_IgnoresElapsed(t *testing.T) {
	a := runEngine(t, 1)
	b := runEngine(t, 4)
	b.Stats.Elapsed = a.Stats.Elapsed + time.Second

	report := CompareResults(a, b)

	if !report.Reproducible() {
		t.Errorf("expected reproducible results, got %+v", report.RunDivergences)
	}
	if report.TotalTrades != 2 || report.MatchedTrades != 2 {
		t.Errorf("expected 2/2 matched trades, got %d/%d", report.MatchedTrades, report.TotalTrades)
	}
}

func TestCompareResults_CountMismatch(t *testing.T) {
	a := runEngine(t, 1)
	b := runEngine(t, 1)
	b.Trades = b.Trades[:1]
	b.Stats.PairedTrades = 1

	report := CompareResults(a, b)

	if report.Reproducible() {
		t.Fatal("expected divergence")
	}
	if report.DivergentTrades != 1 {
		t.Errorf("expected 1 divergent trade, got %d", report.DivergentTrades)
	}
	fields := map[string]bool{}
	for _, d := range report.RunDivergences {
		fields[d.Field] = true
	}
	if !fields["TradeCount"] || !fields["Stats"] {
		t.Errorf("expected TradeCount and Stats divergences, got %v", report.RunDivergences)
	}
}

func storeRun(t *testing.T, runs *memory.RunStore, trades *memory.ReconciledTradeStore, runID string, res *reconcile.Result) {
	t.Helper()
	ctx := context.Background()
	in := sampleInput()
	err := runs.Insert(ctx, &domain.RunSummary{
		RunID:            runID,
		InputFingerprint: idhash.ComputeInputFingerprint(in.Deals, in.TradeLog, in.Signals),
		CreatedAt:        time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		HourOffset:       -8,
		Stats:            res.Stats,
		Valid:            res.Validation.Valid,
		Profit:           res.Profit,
	})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if err := trades.InsertBulk(ctx, runID, res.Trades); err != nil {
		t.Fatalf("insert trades: %v", err)
	}
}

func TestRunVerifier_VerifyRun(t *testing.T) {
	runs := memory.NewRunStore()
	trades := memory.NewReconciledTradeStore()
	storeRun(t, runs, trades, "run-1", runEngine(t, 1))

	v := NewRunVerifier(RunVerifierOptions{
		RunStore:   runs,
		TradeStore: trades,
		Engine:     reconcile.DefaultConfig(),
	})

	report, err := v.VerifyRun(context.Background(), "run-1", sampleInput())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.Reproducible() {
		t.Errorf("expected reproducible run, got %+v", report)
	}
}

func TestRunVerifier_DetectsTamperedTrade(t *testing.T) {
	runs := memory.NewRunStore()
	trades := memory.NewReconciledTradeStore()
	res := runEngine(t, 1)
	res.Trades[1].Result = domain.ResultWin
	storeRun(t, runs, trades, "run-1", res)

	v := NewRunVerifier(RunVerifierOptions{RunStore: runs, TradeStore: trades, Engine: reconcile.DefaultConfig()})

	report, err := v.VerifyRun(context.Background(), "run-1", sampleInput())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.DivergentTrades != 1 {
		t.Fatalf("expected 1 divergent trade, got %d", report.DivergentTrades)
	}
	if got := report.Results[1].Divergences[0].Field; got != "Result" {
		t.Errorf("expected Result divergence, got %s", got)
	}
}

func TestRunVerifier_Errors(t *testing.T) {
	runs := memory.NewRunStore()
	trades := memory.NewReconciledTradeStore()
	storeRun(t, runs, trades, "run-1", runEngine(t, 1))
	v := NewRunVerifier(RunVerifierOptions{RunStore: runs, TradeStore: trades, Engine: reconcile.DefaultConfig()})
	ctx := context.Background()

	if _, err := v.VerifyRun(ctx, "missing", sampleInput()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}

	changed := sampleInput()
	changed.Deals[1].Profit = "51.00"
	if _, err := v.VerifyRun(ctx, "run-1", changed); !errors.Is(err, ErrInputMismatch) {
		t.Errorf("expected ErrInputMismatch, got %v", err)
	}
}
