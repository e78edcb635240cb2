package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/persibuloi/kamenic/pkg/logger"
	"github.com/persibuloi/kamenic/pkg/metrics"
)

const (
	DefaultSource         = "perfume-store-header-chatbot"
	defaultAttemptTimeout = 15 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = time.Second
	responseReadLimit     = 64 << 10
)

var errWebhookRequired = errors.New("chatbot webhook url is required")

// Payload is the body posted to the webhook.
type Payload struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	UserID    string `json:"userId"`
}

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.Status)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

// Retryable reports whether another attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Client posts messages to the chat webhook with a per-attempt timeout and bounded
// exponential backoff.
type Client struct {
	httpClient     *http.Client
	url            string
	source         string
	attemptTimeout time.Duration
	maxAttempts    int
	baseBackoff    time.Duration
	metrics        *metrics.ChatbotMetrics
	logg           *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithSource(source string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(source); s != "" {
			c.source = s
		}
	}
}

// WithAttempts sets the attempt budget and the first backoff delay.
func WithAttempts(maxAttempts int, base time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if base > 0 {
			c.baseBackoff = base
		}
	}
}

func WithAttemptTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.attemptTimeout = timeout
		}
	}
}

func WithMetrics(m *metrics.ChatbotMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func NewClient(webhookURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(webhookURL)
	if trimmed == "" {
		return nil, errWebhookRequired
	}
	client := &Client{
		httpClient:     &http.Client{},
		url:            trimmed,
		source:         DefaultSource,
		attemptTimeout: defaultAttemptTimeout,
		maxAttempts:    defaultMaxAttempts,
		baseBackoff:    defaultBaseBackoff,
		logg:           logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Send delivers one message and returns the extracted reply.
func (c *Client) Send(ctx context.Context, userID, message string, sentAt time.Time) (string, error) {
	payload, err := json.Marshal(Payload{
		Message:   message,
		Timestamp: sentAt.UTC().Format(time.RFC3339Nano),
		Source:    c.source,
		UserID:    userID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.baseBackoff))
	attempt := 0
	var reply string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		body, err := c.post(ctx, payload)
		if err == nil {
			c.metrics.IncAttempt(metrics.OutcomeSuccess)
			reply = Extract(body)
			return nil
		}
		if !retryable(ctx, err) {
			c.metrics.IncAttempt(metrics.OutcomeFatal)
			return err
		}
		c.metrics.IncAttempt(metrics.OutcomeRetryable)
		logCtx := c.logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": err.Error()})
		c.logg.Warn(logCtx, "chatbot.retry")
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseReadLimit))
		return nil, &StatusError{Status: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
}

// retryable covers attempt timeouts, transport failures, 429 and 5xx. A cancelled
// caller is never retried.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Retryable()
	}
	return true
}
