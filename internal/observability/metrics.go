// Package observability carries the engine's Prometheus metrics and a
// minimal chi mux exposing /healthz and /metrics, grounded on
// pi5-trading-system/internal/metrics/metrics.go (metric set) and
// pi5-trading-system-go/internal/api/server.go (chi wiring), trimmed to
// the engine-level concerns spec.md §1 keeps in scope — no HTTP order
// submission surface.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine-level Prometheus collectors. New registers
// them with the default registry; no component in this module updates
// them.
type Metrics struct {
	OrdersSubmittedTotal *prometheus.CounterVec
	OrdersFilledTotal    *prometheus.CounterVec
	OrdersRejectedTotal  *prometheus.CounterVec
	TradesTotal          *prometheus.CounterVec

	QueueDepth    prometheus.Gauge
	BookDepthBids *prometheus.GaugeVec
	BookDepthAsks *prometheus.GaugeVec

	CircuitBreakerState *prometheus.GaugeVec

	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	PortfolioUnrealizedPnL prometheus.Gauge
	PortfolioRealizedPnL   prometheus.Gauge
}

// New creates and registers every collector under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradecore"
	}
	return &Metrics{
		OrdersSubmittedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "orders_submitted_total", Help: "Total orders submitted"},
			[]string{"symbol", "side", "order_type"},
		),
		OrdersFilledTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "orders_filled_total", Help: "Total orders reaching FILLED"},
			[]string{"symbol", "side"},
		),
		OrdersRejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "orders_rejected_total", Help: "Total orders rejected"},
			[]string{"symbol", "reason"},
		),
		TradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "trades_total", Help: "Total trade records produced"},
			[]string{"symbol"},
		),
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "queue_depth", Help: "Pending events in the SPSC ring"},
		),
		BookDepthBids: promauto.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "book_depth_bids", Help: "Resting bid order count"},
			[]string{"symbol"},
		),
		BookDepthAsks: promauto.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "book_depth_asks", Help: "Resting ask order count"},
			[]string{"symbol"},
		),
		CircuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "circuit_breaker_state", Help: "0=closed 1=open 2=half-open"},
			[]string{"breaker"},
		),
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total", Help: "Observer bus events published"},
			[]string{"event_type"},
		),
		EventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "events_dropped_total", Help: "Observer bus events dropped on a full subscriber"},
			[]string{"event_type"},
		),
		PortfolioUnrealizedPnL: promauto.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "portfolio_unrealized_pnl", Help: "Sum of unrealized P&L across positions"},
		),
		PortfolioRealizedPnL: promauto.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "portfolio_realized_pnl", Help: "Daily realized P&L accumulator"},
		),
	}
}
