package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/persibuloi/kamenic/api/responses"
	"github.com/persibuloi/kamenic/internal/session"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
)

const limiterIdle = 30 * time.Minute

type visitorLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ChatLimiter hands out one token bucket per session so a single visitor cannot flood
// the chatbot webhook.
type ChatLimiter struct {
	mu        sync.Mutex
	perMinute int
	burst     int
	visitors  map[string]*visitorLimiter
	lastSweep time.Time
	now       func() time.Time
}

func NewChatLimiter(perMinute, burst int) *ChatLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ChatLimiter{
		perMinute: perMinute,
		burst:     burst,
		visitors:  make(map[string]*visitorLimiter),
		now:       time.Now,
	}
}

// Allow consumes one token for key.
func (c *ChatLimiter) Allow(key string) bool {
	if c == nil || c.perMinute <= 0 {
		return true
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) > limiterIdle {
		for k, v := range c.visitors {
			if now.Sub(v.lastSeen) > limiterIdle {
				delete(c.visitors, k)
			}
		}
		c.lastSweep = now
	}

	v, ok := c.visitors[key]
	if !ok {
		v = &visitorLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.perMinute)), c.burst)}
		c.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// ChatRateLimit throttles chatbot sends per session, falling back to the client IP.
func ChatRateLimit(limiter *ChatLimiter, m *metrics.ChatbotMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := session.IDFromContext(r.Context())
			if !ok {
				key = clientIP(r)
			}
			if !limiter.Allow(key) {
				m.IncRateLimited()
				if logg != nil {
					logg.Warn(r.Context(), "chat.rate_limit.blocked")
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many chat messages, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
