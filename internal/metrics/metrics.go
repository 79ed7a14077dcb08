package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics 业务与 HTTP 指标集合，nil 接收者上的方法均为空操作
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	ordersCreated    *prometheus.CounterVec
	cartMerges       *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	guestSessions    prometheus.Counter
	guestsPurged     prometheus.Counter
	webhooksReceived *prometheus.CounterVec
}

// New 创建并注册指标；reg 为 nil 时使用独立的 Registry
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Order commit outcomes",
			},
			[]string{"outcome"},
		),
		cartMerges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_merges_total",
				Help:      "Guest cart merges by mode",
			},
			[]string{"mode"},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_provider_errors_total",
				Help:      "Failed calls to the payment provider",
			},
			[]string{"operation"},
		),
		guestSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_sessions_minted_total",
			Help:      "Guest sessions issued",
		}),
		guestsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_sessions_purged_total",
			Help:      "Expired guest sessions removed by the sweeper",
		}),
		webhooksReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_received_total",
				Help:      "Payment webhooks by event type and result",
			},
			[]string{"type", "result"},
		),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.ordersCreated,
		m.cartMerges,
		m.providerErrors,
		m.guestSessions,
		m.guestsPurged,
		m.webhooksReceived,
	)
	return m
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

// OrderCreated 记录下单结果：created / duplicate
func (m *Metrics) OrderCreated(outcome string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(outcome).Inc()
}

// CartMerged 记录购物车合并方式：reown / fold / none
func (m *Metrics) CartMerged(mode string) {
	if m == nil {
		return
	}
	m.cartMerges.WithLabelValues(mode).Inc()
}

// ProviderError 记录支付渠道调用失败
func (m *Metrics) ProviderError(operation string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(operation).Inc()
}

// GuestMinted 记录签发访客会话
func (m *Metrics) GuestMinted() {
	if m == nil {
		return
	}
	m.guestSessions.Inc()
}

// GuestsPurged 记录清理的过期访客数量
func (m *Metrics) GuestsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.guestsPurged.Add(float64(n))
}

// WebhookReceived 记录 webhook 处理结果
func (m *Metrics) WebhookReceived(eventType, result string) {
	if m == nil {
		return
	}
	m.webhooksReceived.WithLabelValues(eventType, result).Inc()
}
