package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStarted_RecordsRouteAndStatus(t *testing.T) {
	m := New()

	done := m.RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpInFlight))

	done("get", "/api/products/:id", http.StatusNotFound)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products/:id", "404")))

	m.RequestStarted()("GET", "", http.StatusNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordOrderAndSignup(t *testing.T) {
	m := New()

	m.RecordOrder("card", "pending")
	m.RecordOrder("card", "pending")
	m.RecordOrder("", "completed")
	m.RecordSignup("")
	m.RecordSignup("google")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.orders.WithLabelValues("card", "pending")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.orders.WithLabelValues("unknown", "completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.signups.WithLabelValues("password")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.signups.WithLabelValues("google")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordSignup("password")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_customers_signups_total{provider="password"} 1`)
}
