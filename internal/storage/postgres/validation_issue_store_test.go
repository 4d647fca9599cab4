package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/domain"
)

func TestValidationIssueStore_AppendKeepsOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewValidationIssueStore(pool)
	ctx := context.Background()

	first := []domain.ValidationIssue{
		{Type: domain.IssueNoExitSignal, TradeIndex: 1, Message: "no exit signal", Severity: domain.SeverityWarning},
		{Type: domain.IssueNoStrategyMatch, TradeIndex: 2, Message: "no strategy record", Severity: domain.SeverityWarning},
	}
	second := []domain.ValidationIssue{
		{Type: domain.IssueBrokerSymbolMismatch, TradeIndex: 0, Message: "EURUSD vs GBPUSD", Severity: domain.SeverityCritical},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-001", first))
	require.NoError(t, store.InsertBulk(ctx, "run-001", second))

	got, err := store.GetByRun(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)
}

func TestValidationIssueStore_GetByRunEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewValidationIssueStore(pool)

	got, err := store.GetByRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
