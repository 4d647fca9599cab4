package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trade-reconciler/internal/observability"
	"trade-reconciler/internal/pipeline"
)

var (
	runOutputDir       string
	runMetricsTextfile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile the three logs, persist the run and write reports",
	Long: `Reconcile the deal ledger, trade log and signal log given by explicit paths.

The run header, reconciled trades and validation issues are persisted to the
configured backend. Reports (trades.csv, summary.md, summary.json) are written
under <output>/<run_id>/.`,
	Example: `  # In-memory run with reports under out/
  reconciler run --deals deals.csv --trades trades.csv --signals signals.csv --output out

  # Persist to postgres and export metrics for node_exporter
  RECON_POSTGRES_DSN=postgres://localhost/recon reconciler run \
    --deals deals.csv --trades trades.csv --signals signals.csv \
    --metrics-textfile /var/lib/node_exporter/reconciler.prom`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOutputDir, "output", "", "Report directory (overrides run.output_dir)")
	runCmd.Flags().StringVar(&runMetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if runOutputDir != "" {
		cfg.Run.OutputDir = runOutputDir
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}

	in, err := pipeline.LoadInput(inputPaths())
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer b.close()

	metrics := observability.NewMetrics("")
	p, err := pipeline.New(pipeline.Options{
		Engine:         engine,
		RunStore:       b.runs,
		TradeStore:     b.trades,
		IssueStore:     b.issues,
		AnalyticsStore: b.analyticsStore(),
		Metrics:        metrics,
		OutputDir:      cfg.Run.OutputDir,
		Logger:         logger,
		Clock:          func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return err
	}

	out, runErr := p.Run(ctx, in)
	if runMetricsTextfile != "" {
		// Failed runs are exported too.
		if err := metrics.WriteTextfile(runMetricsTextfile); err != nil {
			logger.Warn("write metrics textfile", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	printRunSummary(cmd, out)

	if b.analytics != nil {
		outcomes, err := b.analytics.OutcomesBySession(ctx, out.RunID)
		if err != nil {
			return fmt.Errorf("session outcomes: %w", err)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "\nSessions (clickhouse):")
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %-10s trades=%d wins=%d net=%.2f\n", o.Session, o.Trades, o.Wins, o.NetProfit)
		}
	}
	return nil
}

func printRunSummary(cmd *cobra.Command, out *pipeline.RunOutput) {
	w := cmd.OutOrStdout()
	s := out.Summary

	fmt.Fprintln(w, "=== Reconciliation Run ===")
	fmt.Fprintf(w, "  Run ID:        %s\n", s.RunID)
	fmt.Fprintf(w, "  Fingerprint:   %s\n", s.InputFingerprint)
	fmt.Fprintf(w, "  Trades:        %d paired, %d strategy matched, %d signals matched\n",
		s.Stats.PairedTrades, s.Stats.StrategyMatches, s.Stats.SignalMatches)
	fmt.Fprintf(w, "  Data errors:   %d\n", s.Stats.DataErrors)
	fmt.Fprintf(w, "  Quality score: %d\n", s.Stats.QualityScore)
	fmt.Fprintf(w, "  Validation:    valid=%t critical=%d warnings=%d\n", s.Valid, s.CriticalCount, s.WarningCount)
	fmt.Fprintf(w, "  Profit:        broker=%.2f strategy=%.2f diff=%.2f (%.2f%%) %s\n",
		s.Profit.BrokerTotal, s.Profit.StrategyTotal, s.Profit.Difference, s.Profit.VariancePct, s.Profit.Status)

	if !out.Coverage.AllPass {
		fmt.Fprintln(w, "\nCoverage:")
		for _, c := range out.Coverage.Checks {
			status := "PASS"
			if !c.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(w, "  [%s] %s: %s (threshold %s)\n", status, c.Name, c.Actual, c.Threshold)
		}
	}
	if out.ReportDir != "" {
		fmt.Fprintf(w, "\nReports: %s\n", out.ReportDir)
	}
}
