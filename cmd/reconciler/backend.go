package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trade-reconciler/internal/config"
	"trade-reconciler/internal/storage"
	chstore "trade-reconciler/internal/storage/clickhouse"
	"trade-reconciler/internal/storage/memory"
	"trade-reconciler/internal/storage/migrations"
	"trade-reconciler/internal/storage/postgres"
)

// backend holds the stores selected by the storage config.
type backend struct {
	runs      storage.RunStore
	trades    storage.ReconciledTradeStore
	issues    storage.ValidationIssueStore
	analytics *chstore.ReconciledTradeStore // nil without a ClickHouse DSN

	closers []func()
}

// openBackend connects and migrates the configured databases.
func openBackend(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		b.runs = postgres.NewRunStore(pool)
		b.trades = postgres.NewReconciledTradeStore(pool)
		b.issues = postgres.NewValidationIssueStore(pool)
		logger.Info("using postgres storage")
	default:
		b.runs = memory.NewRunStore()
		b.trades = memory.NewReconciledTradeStore()
		b.issues = memory.NewValidationIssueStore()
		logger.Info("using in-memory storage")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, logger)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		b.closers = append(b.closers, func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
		})
		b.analytics = chstore.NewReconciledTradeStore(conn)
		logger.Info("clickhouse analytics copy enabled")
	}

	return b, nil
}

// analyticsStore returns the ClickHouse store as an interface, nil when unset.
func (b *backend) analyticsStore() storage.ReconciledTradeStore {
	if b.analytics == nil {
		return nil
	}
	return b.analytics
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
