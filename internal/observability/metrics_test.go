package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/index"
	"trade-reconciler/internal/reconcile"
)

func sampleResult() *reconcile.Result {
	return &reconcile.Result{
		Trades: []domain.ReconciledTrade{
			{MatchMethod: domain.MatchDirect, EntrySignal: &domain.SignalFields{}, ExitSignal: &domain.SignalFields{}},
			{MatchMethod: domain.MatchEntryFallback, EntrySignal: &domain.SignalFields{}},
			{MatchMethod: domain.MatchNone},
		},
		Stats: domain.ProcessingStatistics{
			DataErrors:   1,
			QualityScore: 92,
			Elapsed:      250 * time.Millisecond,
		},
		Validation: domain.ValidationSummary{
			Warnings: make([]domain.ValidationIssue, 4),
		},
		Profit: domain.ProfitReconciliation{Difference: 4.14, VariancePct: 1.9},
		Dedup:  index.DedupStats{Exact: 1, NearDuplicate: 2},
	}
}

func TestMetrics_RecordRun(t *testing.T) {
	m := NewMetrics("test")

	m.RecordRun(sampleResult(), 1705363200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TradesReconciled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchMethods.WithLabelValues("DIRECT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchMethods.WithLabelValues("NONE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalMatches.WithLabelValues("entry", "matched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalMatches.WithLabelValues("exit", "unmatched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Duplicates.WithLabelValues("near_duplicate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ValidationIssues.WithLabelValues(domain.SeverityWarning)))
	assert.Equal(t, 92.0, testutil.ToFloat64(m.QualityScore))
	assert.Equal(t, 4.14, testutil.ToFloat64(m.ProfitDiscrepancy))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DataErrors))
	assert.Equal(t, 1705363200.0, testutil.ToFloat64(m.LastRunEpoch))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.RecordFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RunsTotal.WithLabelValues(StatusFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsTotal.WithLabelValues(StatusFailure)))
}

func TestMetrics_RecordStoreOp(t *testing.T) {
	m := NewMetrics("test")

	m.RecordStoreOp("runs", "insert", 0.01, nil)
	m.RecordStoreOp("runs", "insert", 0.02, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("runs", "insert")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreDuration))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("test")
	m.RecordRun(sampleResult(), 0)

	path := filepath.Join(t.TempDir(), "recon.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "test_reconcile_trades_total 3"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
