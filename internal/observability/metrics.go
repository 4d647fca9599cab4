// Package observability provides Prometheus metrics and logger construction.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trade-reconciler/internal/domain"
	"trade-reconciler/internal/reconcile"
)

// Run outcome label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the reconciliation metrics, registered on an owned registry.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	LastRunEpoch prometheus.Gauge

	// Reconciliation metrics
	TradesReconciled prometheus.Counter
	MatchMethods     *prometheus.CounterVec
	SignalMatches    *prometheus.CounterVec
	DataErrors       prometheus.Counter
	Duplicates       *prometheus.CounterVec

	// Quality metrics
	ValidationIssues  *prometheus.CounterVec
	QualityScore      prometheus.Gauge
	ProfitDiscrepancy prometheus.Gauge
	ProfitVariancePct prometheus.Gauge

	// Storage metrics
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_reconciler"
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of reconciliation runs by outcome",
		}, []string{"status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Reconciliation engine duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LastRunEpoch: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last successful run",
		}),

		TradesReconciled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "trades_total",
			Help:      "Total number of reconciled deal pairs",
		}),
		MatchMethods: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "strategy_matches_total",
			Help:      "Strategy record resolutions by match method",
		}, []string{"method"}),
		SignalMatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "signal_matches_total",
			Help:      "Signal lookups by leg and outcome",
		}, []string{"leg", "outcome"}),
		DataErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "profit_data_errors_total",
			Help:      "Trades whose broker profit could not be parsed",
		}),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "duplicates_dropped_total",
			Help:      "Strategy log rows dropped during indexing by kind",
		}, []string{"kind"}),

		ValidationIssues: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "issues_total",
			Help:      "Validation issues by severity",
		}, []string{"severity"}),
		QualityScore: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "quality_score",
			Help:      "Aggregate quality score of the last run",
		}),
		ProfitDiscrepancy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "profit",
			Name:      "discrepancy",
			Help:      "Absolute broker vs strategy profit difference of the last run",
		}),
		ProfitVariancePct: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "profit",
			Name:      "variance_percent",
			Help:      "Broker vs strategy profit variance of the last run, percent",
		}),

		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Total number of failed storage operations",
		}, []string{"store", "operation"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun records a successful run.
func (m *Metrics) RecordRun(r *reconcile.Result, finishedUnix int64) {
	m.RunsTotal.WithLabelValues(StatusSuccess).Inc()
	m.RunDuration.Observe(r.Stats.Elapsed.Seconds())
	m.LastRunEpoch.Set(float64(finishedUnix))

	m.TradesReconciled.Add(float64(len(r.Trades)))
	m.DataErrors.Add(float64(r.Stats.DataErrors))
	for i := range r.Trades {
		t := &r.Trades[i]
		m.MatchMethods.WithLabelValues(string(t.MatchMethod)).Inc()
		m.SignalMatches.WithLabelValues("entry", outcome(t.EntrySignal != nil)).Inc()
		m.SignalMatches.WithLabelValues("exit", outcome(t.ExitSignal != nil)).Inc()
	}

	m.Duplicates.WithLabelValues("exact").Add(float64(r.Dedup.Exact))
	m.Duplicates.WithLabelValues("near_duplicate").Add(float64(r.Dedup.NearDuplicate))
	m.Duplicates.WithLabelValues("ticket_reuse").Add(float64(r.Dedup.TicketReuse))

	m.ValidationIssues.WithLabelValues(domain.SeverityCritical).Add(float64(len(r.Validation.CriticalErrors)))
	m.ValidationIssues.WithLabelValues(domain.SeverityWarning).Add(float64(len(r.Validation.Warnings)))
	m.QualityScore.Set(float64(r.Stats.QualityScore))
	m.ProfitDiscrepancy.Set(r.Profit.Difference)
	m.ProfitVariancePct.Set(r.Profit.VariancePct)
}

// RecordFailure records a run that stopped with an error.
func (m *Metrics) RecordFailure() {
	m.RunsTotal.WithLabelValues(StatusFailure).Inc()
}

// RecordStoreOp records storage operation metrics.
func (m *Metrics) RecordStoreOp(store, operation string, seconds float64, err error) {
	m.StoreDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		m.StoreErrors.WithLabelValues(store, operation).Inc()
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func outcome(matched bool) string {
	if matched {
		return "matched"
	}
	return "unmatched"
}
