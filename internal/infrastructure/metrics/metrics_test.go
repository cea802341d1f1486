package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
)

func TestEngineObserver(t *testing.T) {
	m := New()
	obs := m.Engine()

	obs.Applied([]entity.MovementEntry{
		{MovementType: entity.MovementTransfer},
		{MovementType: entity.MovementTransfer},
		{MovementType: entity.MovementReceipt},
	}, 3*time.Millisecond)
	obs.Rejected(apperror.CodeInsufficientStock)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movementsTotal.WithLabelValues("TRANSFER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movementsTotal.WithLabelValues("RECEIPT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectionsTotal.WithLabelValues(apperror.CodeInsufficientStock)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.batchDuration))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.GaugeFunc("notify_dropped_events", "Dropped notifications.", func() float64 { return 7 })

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/stock", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/stock", "GET", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "stockledger_notify_dropped_events 7"))
	assert.Contains(t, body, "stockledger_http_requests_total")
}
