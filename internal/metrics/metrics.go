package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookstore"

// Metrics 业务指标集合，nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	CheckoutOutcomes    *prometheus.CounterVec
	CheckoutTransitions *prometheus.CounterVec
	CheckoutDurationMS  *prometheus.HistogramVec
	StockWrites         *prometheus.CounterVec
	StockConflicts      *prometheus.CounterVec
	ReservationsRelease *prometheus.CounterVec
	ReceivedUnits       *prometheus.CounterVec
	OutboxPublished     *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPLatencyMS       *prometheus.HistogramVec
}

// New 创建并注册指标，使用独立的 registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		CheckoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout attempts by terminal outcome.",
		}, []string{"outcome"}),
		CheckoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "transitions_total",
			Help:      "Checkout state machine transitions.",
		}, []string{"state"}),
		CheckoutDurationMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "duration_ms",
			Help:      "Checkout latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"outcome"}),
		StockWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "stock_writes_total",
			Help:      "Successful stock ledger writes.",
		}, []string{"operation"}),
		StockConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "cas_conflicts_total",
			Help:      "Compare-and-swap conflicts on product stock.",
		}, []string{"operation", "exhausted"}),
		ReservationsRelease: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reservations_released_total",
			Help:      "Stock reservations released back to stock.",
		}, []string{"reason"}),
		ReceivedUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchasing",
			Name:      "received_units_total",
			Help:      "Units received from purchase orders.",
		}, []string{"mode"}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox events relayed to the event bus.",
		}, []string{"topic", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		HTTPLatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}
	registry.MustRegister(
		m.CheckoutOutcomes,
		m.CheckoutTransitions,
		m.CheckoutDurationMS,
		m.StockWrites,
		m.StockConflicts,
		m.ReservationsRelease,
		m.ReceivedUnits,
		m.OutboxPublished,
		m.HTTPRequests,
		m.HTTPLatencyMS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回指标 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// CheckoutTransition 记录状态迁移
func (m *Metrics) CheckoutTransition(state string) {
	if m == nil {
		return
	}
	m.CheckoutTransitions.WithLabelValues(state).Inc()
}

// CheckoutFinished 记录结算结果与耗时
func (m *Metrics) CheckoutFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CheckoutOutcomes.WithLabelValues(outcome).Inc()
	m.CheckoutDurationMS.WithLabelValues(outcome).Observe(float64(elapsed.Milliseconds()))
}

// StockWritten 记录库存写入
func (m *Metrics) StockWritten(operation string) {
	if m == nil {
		return
	}
	m.StockWrites.WithLabelValues(operation).Inc()
}

// StockConflict 记录 CAS 冲突
func (m *Metrics) StockConflict(operation string, exhausted bool) {
	if m == nil {
		return
	}
	label := "false"
	if exhausted {
		label = "true"
	}
	m.StockConflicts.WithLabelValues(operation, label).Inc()
}

// ReservationReleased 记录预占释放
func (m *Metrics) ReservationReleased(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ReservationsRelease.WithLabelValues(reason).Add(float64(count))
}

// UnitsReceived 记录采购到货数量
func (m *Metrics) UnitsReceived(mode string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.ReceivedUnits.WithLabelValues(mode).Add(float64(units))
}

// OutboxRelayed 记录事件投递结果
func (m *Metrics) OutboxRelayed(topic, result string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(topic, result).Inc()
}

// ObserveHTTP 记录 HTTP 请求
func (m *Metrics) ObserveHTTP(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, status).Inc()
	m.HTTPLatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}
