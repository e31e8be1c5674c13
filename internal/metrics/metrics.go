package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	LedgerOps       *prometheus.CounterVec
	LedgerDuration  *prometheus.HistogramVec
	DriftAccounts   prometheus.Gauge
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LedgerOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "videoearn",
				Name:      "ledger_operations_total",
				Help:      "Ledger operations by outcome",
			},
			[]string{"operation", "result"},
		),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "videoearn",
				Name:      "ledger_operation_duration_seconds",
				Help:      "Ledger operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DriftAccounts: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "videoearn",
				Name:      "ledger_balance_drift_accounts",
				Help:      "Accounts whose balance differs from the ledger projection at the last reconciliation",
			},
		),
		RequestCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "videoearn",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "videoearn",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveLedger records one ledger operation. result is "ok" or the error text
// class chosen by the caller.
func (m *Metrics) ObserveLedger(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.LedgerOps.WithLabelValues(op, result).Inc()
	m.LedgerDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Middleware counts requests by route template, not raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
