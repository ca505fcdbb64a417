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

func TestRecordOperation(t *testing.T) {
	m := New()

	m.RecordOperation("deposit", "applied", 150)
	m.RecordOperation("deposit", "applied", 200)
	m.RecordOperation("withdraw", "rejected", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "rejected")))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.Balance))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordOperation("deposit", "applied", 1)
		m.ObserveRPC("/x", "OK", time.Millisecond)
		m.RecordCache("hit")
	})
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordCache("hit")
	m.ObserveRPC("/bank.v1.AccountService/Deposit", "OK", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mem_account_loan_quote_cache_total"))
	assert.True(t, strings.Contains(body, "mem_account_grpc_request_duration_seconds"))
}
