package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(PaymentCallbacks.WithLabelValues("vnpay", "completed"))
	PaymentCallbacks.WithLabelValues("vnpay", "completed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PaymentCallbacks.WithLabelValues("vnpay", "completed")))
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 2*time.Millisecond)

	timer.ObserveHTTP("GET", "200")
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestHandler(t *testing.T) {
	OrdersCreated.Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "tacoli_orders_created_total"))
}
