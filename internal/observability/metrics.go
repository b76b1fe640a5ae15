// Package observability provides Prometheus metrics for analytics runs.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sales_intelligence"

// Metrics holds all Prometheus metrics for the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Source metrics
	PagesFetched       prometheus.Counter
	PageErrors         prometheus.Counter
	TransactionsRead   prometheus.Counter
	FetchesTruncated   prometheus.Counter
	SourceQueryLatency prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	EntitiesAnalyzed  prometheus.Gauge
	AlertsEmitted     *prometheus.CounterVec
	QuickWinsEmitted  *prometheus.CounterVec
	CrossSellEmitted  prometheus.Counter
	RevenueAtRisk     prometheus.Gauge
	PortfolioHHI      prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Output metrics
	ReportsGenerated *prometheus.CounterVec
	AlertsPublished  prometheus.Counter

	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "pages_fetched_total",
			Help:      "Total number of ledger pages fetched",
		}),
		PageErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "page_errors_total",
			Help:      "Total number of ledger page fetch failures",
		}),
		TransactionsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "transactions_read_total",
			Help:      "Total number of transaction records read",
		}),
		FetchesTruncated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetches_truncated_total",
			Help:      "Total number of fetches that stopped early on a page error",
		}),
		SourceQueryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "page_latency_seconds",
			Help:      "Ledger page fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of analytics runs by window kind and status",
		}, []string{"window", "status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),
		EntitiesAnalyzed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "entities_analyzed",
			Help:      "Number of entities in the last run",
		}),
		AlertsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "alerts_emitted_total",
			Help:      "Total number of insight alerts by type and priority",
		}, []string{"type", "priority"}),
		QuickWinsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "quick_wins_emitted_total",
			Help:      "Total number of quick-win actions by type",
		}, []string{"type"}),
		CrossSellEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cross_sell_opportunities_total",
			Help:      "Total number of cross-sell opportunities emitted",
		}),
		RevenueAtRisk: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "revenue_at_risk",
			Help:      "Total revenue at risk in the last run",
		}),
		PortfolioHHI: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "hhi_index",
			Help:      "Herfindahl-Hirschman index of the last run",
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Enrichment cache lookups by result",
		}, []string{"result"}),

		ReportsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "output",
			Name:      "reports_generated_total",
			Help:      "Total number of report files written by format",
		}, []string{"format"}),
		AlertsPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "output",
			Name:      "alerts_published_total",
			Help:      "Total number of alerts published to the message bus",
		}),

		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run",
		}),
	}
}

// Handler returns an HTTP handler exposing g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordPage records one successful page fetch.
func (m *Metrics) RecordPage(records int, seconds float64) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.TransactionsRead.Add(float64(records))
	m.SourceQueryLatency.Observe(seconds)
}

// RecordPageError records a failed page fetch that truncated the read.
func (m *Metrics) RecordPageError() {
	if m == nil {
		return
	}
	m.PageErrors.Inc()
	m.FetchesTruncated.Inc()
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRun records the outcome of a pipeline run.
func (m *Metrics) RecordRun(window, status string, unixSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(window, status).Inc()
	if status == "success" {
		m.LastSuccessfulRun.Set(unixSeconds)
	}
}

// RecordAlert counts one emitted alert.
func (m *Metrics) RecordAlert(alertType, priority string) {
	if m == nil {
		return
	}
	m.AlertsEmitted.WithLabelValues(alertType, priority).Inc()
}

// RecordQuickWin counts one emitted quick win.
func (m *Metrics) RecordQuickWin(kind string) {
	if m == nil {
		return
	}
	m.QuickWinsEmitted.WithLabelValues(kind).Inc()
}

// RecordPortfolio sets the portfolio gauges of the last run.
func (m *Metrics) RecordPortfolio(entities int, revenueAtRisk, hhi float64, crossSell int) {
	if m == nil {
		return
	}
	m.EntitiesAnalyzed.Set(float64(entities))
	m.RevenueAtRisk.Set(revenueAtRisk)
	m.PortfolioHHI.Set(hhi)
	m.CrossSellEmitted.Add(float64(crossSell))
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordReport counts one written report file.
func (m *Metrics) RecordReport(format string) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordPublished counts alerts published to the bus.
func (m *Metrics) RecordPublished(n int) {
	if m == nil {
		return
	}
	m.AlertsPublished.Add(float64(n))
}
