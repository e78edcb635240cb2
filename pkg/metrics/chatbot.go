package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
)

// ChatbotMetrics counts webhook attempts by outcome.
type ChatbotMetrics struct {
	attempts *prometheus.CounterVec
	limited  prometheus.Counter
}

func NewChatbotMetrics(reg prometheus.Registerer) *ChatbotMetrics {
	if reg == nil {
		return &ChatbotMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatbot_webhook_attempts",
		Help: "Chatbot webhook attempts partitioned by outcome.",
	}, []string{"outcome"})
	limited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_rate_limited",
		Help: "Chat messages rejected by the per-session limiter.",
	})
	reg.MustRegister(attempts, limited)
	return &ChatbotMetrics{attempts: attempts, limited: limited}
}

func (c *ChatbotMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *ChatbotMetrics) IncRateLimited() {
	if c == nil || c.limited == nil {
		return
	}
	c.limited.Inc()
}
