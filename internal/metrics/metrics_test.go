package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/api/items", http.StatusOK, 3*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/items", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/items", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveStore(t *testing.T) {
	m := New()

	m.ObserveStore("create", time.Millisecond, nil)
	m.ObserveStore("create", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.storeDuration))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveStore("list", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "items_backend_store_operation_duration_seconds")
	assert.Contains(t, string(body), "go_goroutines")
}
