// Package main provides the reconciler CLI.
// Commands: run (reconcile → persist → reports) and verify (determinism check)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trade-reconciler/internal/config"
	"trade-reconciler/internal/observability"
	"trade-reconciler/internal/pipeline"
)

var (
	configPath   string
	dealsPath    string
	tradeLogPath string
	signalsPath  string
)

// rootCmd is the base command for the reconciler CLI.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Reconcile broker deals, strategy trade logs and signal logs",
	Long: `reconciler joins three independently written trading logs into one
record per completed trade: the broker deal ledger, the strategy's own
trade log and the signal log. It reports data quality and checks that
broker and strategy profit agree.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&dealsPath, "deals", "", "Broker deal ledger CSV")
	rootCmd.PersistentFlags().StringVar(&tradeLogPath, "trades", "", "Strategy trade log CSV")
	rootCmd.PersistentFlags().StringVar(&signalsPath, "signals", "", "Signal log CSV")
	for _, name := range []string{"deals", "trades", "signals"} {
		_ = rootCmd.MarkPersistentFlagRequired(name)
	}
}

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by all commands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func inputPaths() pipeline.Paths {
	return pipeline.Paths{Deals: dealsPath, TradeLog: tradeLogPath, Signals: signalsPath}
}
