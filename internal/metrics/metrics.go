// Package metrics exposes the storefront's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crackerstore"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced      *prometheus.CounterVec
	submissionsFailed *prometheus.CounterVec
	adminActions      *prometheus.CounterVec
	cartMutations     *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	catalogueSize     prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the backend at checkout.",
		}, []string{"coupon_applied"}),
		submissionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_submissions_failed_total",
			Help:      "Checkout attempts that did not produce an order, by error kind.",
		}, []string{"kind"}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_order_actions_total",
			Help:      "Admin accept and reject requests, by outcome.",
		}, []string{"action", "result"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart operations that changed a cart.",
		}, []string{"op"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shopper_sessions_active",
			Help:      "Shopper sessions currently held in memory.",
		}),
		catalogueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalogue_products",
			Help:      "Products in the cached catalogue.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersPlaced,
		m.submissionsFailed,
		m.adminActions,
		m.cartMutations,
		m.activeSessions,
		m.catalogueSize,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) OrderPlaced(couponApplied bool) {
	if m == nil {
		return
	}
	label := "false"
	if couponApplied {
		label = "true"
	}
	m.ordersPlaced.WithLabelValues(label).Inc()
}

func (m *Metrics) SubmissionFailed(kind string) {
	if m == nil {
		return
	}
	m.submissionsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) AdminAction(action, result string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) SetCatalogueSize(n int) {
	if m == nil {
		return
	}
	m.catalogueSize.Set(float64(n))
}
