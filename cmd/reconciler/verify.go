package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trade-reconciler/internal/pipeline"
	"trade-reconciler/internal/reconcile"
	"trade-reconciler/internal/verification"
)

// ErrNotReproducible is returned when a verification finds divergences.
var ErrNotReproducible = errors.New("reconciliation is not reproducible")

var verifyRunID string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that reconciliation is deterministic",
	Long: `Reconcile the same inputs twice, once sequentially and once with the
configured worker count, and compare the results field by field.

With --run-id the inputs are instead replayed against a run stored in the
configured backend. The input fingerprint must match the stored run.`,
	Example: `  # Two fresh runs over the same files
  reconciler verify --deals deals.csv --trades trades.csv --signals signals.csv

  # Replay against a persisted run
  reconciler verify --run-id 6f1c... --deals deals.csv --trades trades.csv --signals signals.csv`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyRunID, "run-id", "", "Verify against this stored run")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	in, err := pipeline.LoadInput(inputPaths())
	if err != nil {
		return err
	}

	var report *verification.VerificationReport
	if verifyRunID != "" {
		b, err := openBackend(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer b.close()

		verifier := verification.NewRunVerifier(verification.RunVerifierOptions{
			RunStore:   b.runs,
			TradeStore: b.trades,
			Engine:     engine,
			Logger:     logger,
		})
		report, err = verifier.VerifyRun(ctx, verifyRunID, in)
		if err != nil {
			return err
		}
	} else {
		report, err = verifyTwice(engine, in, logger)
		if err != nil {
			return err
		}
	}

	printVerification(cmd.OutOrStdout(), report)
	if !report.Reproducible() {
		return ErrNotReproducible
	}
	return nil
}

// verifyTwice runs the engine sequentially and then with the configured
// workers and compares the two results.
func verifyTwice(cfg reconcile.Config, in reconcile.Input, logger *zap.Logger) (*verification.VerificationReport, error) {
	sequential := cfg
	sequential.Workers = 1

	first, err := reconcile.NewEngine(sequential, logger).Run(in)
	if err != nil {
		return nil, fmt.Errorf("first run: %w", err)
	}
	second, err := reconcile.NewEngine(cfg, logger).Run(in)
	if err != nil {
		return nil, fmt.Errorf("second run: %w", err)
	}
	return verification.CompareResults(first, second), nil
}

func printVerification(w io.Writer, r *verification.VerificationReport) {
	fmt.Fprintln(w, "=== Verification ===")
	fmt.Fprintf(w, "  Trades compared: %d\n", r.TotalTrades)
	fmt.Fprintf(w, "  Matched:         %d\n", r.MatchedTrades)
	fmt.Fprintf(w, "  Divergent:       %d\n", r.DivergentTrades)

	for _, res := range r.Results {
		if res.Match {
			continue
		}
		fmt.Fprintf(w, "  trade %d (%s):\n", res.TradeIndex, res.TradeKey)
		for _, d := range res.Divergences {
			fmt.Fprintf(w, "    - %s\n", d.Describe())
		}
	}
	for _, d := range r.RunDivergences {
		fmt.Fprintf(w, "  run: %s\n", d.Describe())
	}

	if r.Reproducible() {
		fmt.Fprintln(w, "  Result: REPRODUCIBLE")
	} else {
		fmt.Fprintln(w, "  Result: DIVERGENT")
	}
}
