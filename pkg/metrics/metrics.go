package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mem_account"

// Metrics 帳戶服務的 Prometheus 指標
type Metrics struct {
	registry *prometheus.Registry

	Operations  *prometheus.CounterVec
	Balance     prometheus.Gauge
	RPCDuration *prometheus.HistogramVec
	QuoteCache  *prometheus.CounterVec
}

// New 建立指標並註冊到獨立的 Registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "account",
				Name:      "operations_total",
				Help:      "Total number of account operations by type and result.",
			},
			[]string{"op", "result"},
		),
		Balance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "account",
				Name:      "balance",
				Help:      "Current account balance in the smallest currency unit.",
			},
		),
		RPCDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_duration_seconds",
				Help:      "Duration of gRPC requests.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
			},
			[]string{"method", "code"},
		),
		QuoteCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loan",
				Name:      "quote_cache_total",
				Help:      "Loan quote cache lookups by result.",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.Operations, m.Balance, m.RPCDuration, m.QuoteCache)
	return m
}

// RecordOperation 記錄一次帳戶操作
func (m *Metrics) RecordOperation(op, result string, balance int64) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.Balance.Set(float64(balance))
}

// ObserveRPC 記錄一次 gRPC 請求耗時
func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// RecordCache 記錄快取命中 ("hit") 或未命中 ("miss")
func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.QuoteCache.WithLabelValues(result).Inc()
}

// Handler 回傳 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
