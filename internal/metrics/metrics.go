package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tacoli_orders_created_total",
		Help: "Orders persisted by order intake.",
	})

	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tacoli_orders_rejected_total",
		Help: "Orders rejected before persistence, by reason.",
	}, []string{"reason"})

	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tacoli_payments_initiated_total",
		Help: "Payment initiations by method and resulting status.",
	}, []string{"method", "status"})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tacoli_payment_callbacks_total",
		Help: "Gateway callbacks by gateway and outcome.",
	}, []string{"gateway", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tacoli_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveHTTP records one request into HTTPRequestDuration.
func (t *Timer) ObserveHTTP(method, status string) {
	HTTPRequestDuration.WithLabelValues(method, status).Observe(t.Duration().Seconds())
}
