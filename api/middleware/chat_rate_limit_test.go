package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persibuloi/kamenic/internal/session"
	"github.com/persibuloi/kamenic/pkg/metrics"
)

func TestChatLimiterBurstThenRefill(t *testing.T) {
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewChatLimiter(6, 2)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("s1"))
	assert.True(t, limiter.Allow("s1"))
	assert.False(t, limiter.Allow("s1"), "burst exhausted")
	assert.True(t, limiter.Allow("s2"), "sessions have independent buckets")

	clock = clock.Add(10 * time.Second)
	assert.True(t, limiter.Allow("s1"), "one token refills every 10s at 6/min")
}

func TestChatLimiterSweepsIdleVisitors(t *testing.T) {
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewChatLimiter(60, 1)
	limiter.now = func() time.Time { return clock }

	limiter.Allow("old")
	clock = clock.Add(2 * limiterIdle)
	limiter.Allow("new")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	_, stillThere := limiter.visitors["old"]
	assert.False(t, stillThere)
	assert.Len(t, limiter.visitors, 1)
}

func TestChatRateLimitRejectsAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewChatbotMetrics(reg)
	limiter := NewChatLimiter(1, 1)

	handler := ChatRateLimit(limiter, m, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", nil)
		req = req.WithContext(session.WithID(req.Context(), "visitor"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	families, err := reg.Gather()
	require.NoError(t, err)
	var limited float64
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil && mf.GetName() == "chatbot_rate_limited" {
				limited += c.GetValue()
			}
		}
	}
	assert.Equal(t, float64(1), limited)
}
