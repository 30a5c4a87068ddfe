package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single attempt when the caller configures none.
const DefaultTimeout = 5 * time.Second

// Config configures the outbound client.
type Config struct {
	URL     string
	Timeout time.Duration
	Policy  Policy
}

// Client talks to the external fulfillment provider.
type Client struct {
	url     string
	timeout time.Duration
	policy  Policy
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithLogger attaches a structured logger for attempt failures.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithMetrics records attempts in Prometheus.
func WithMetrics(m *Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient builds a fulfillment client.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	c := &Client{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		policy:  cfg.Policy,
		http:    &http.Client{},
		logger:  slog.Default(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

// Create asks the provider to fulfil an order and returns the identifier it
// assigned. Failures are always *Error.
func (c *Client) Create(ctx context.Context, clientID, orderID string) (string, error) {
	start := time.Now()
	id, err := c.create(ctx, clientID, orderID)
	c.metrics.observe(err, time.Since(start))
	return id, err
}

func (c *Client) create(ctx context.Context, clientID, orderID string) (string, error) {
	body, err := json.Marshal(createRequest{UserID: clientID, Title: orderID})
	if err != nil {
		return "", &Error{Kind: KindProtocol, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, attemptCtx, err) {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if isTimeout(ctx, attemptCtx, err) {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindUnavailable, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: KindRejected, Status: resp.StatusCode}
	}

	id, err := extractID(payload)
	if err != nil {
		return "", &Error{Kind: KindProtocol, Err: err}
	}
	return id, nil
}

// CreateWithRetry calls Create up to maxAttempts times (the client policy's
// attempt count when maxAttempts < 1), sleeping per the backoff policy between
// attempts. The last failure is returned as is.
func (c *Client) CreateWithRetry(ctx context.Context, clientID, orderID string, maxAttempts int) (string, error) {
	policy := c.policy
	if maxAttempts > 0 {
		policy.MaxAttempts = maxAttempts
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		id, err := c.Create(ctx, clientID, orderID)
		if err == nil {
			return id, nil
		}
		lastErr = err

		delay, more := policy.Next(attempt)
		if !more {
			break
		}
		c.logger.Warn("fulfillment attempt failed",
			slog.String("order_id", orderID),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.Any("error", err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			break
		}
	}
	return "", lastErr
}

func isTimeout(parent, attempt context.Context, err error) bool {
	if parent.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func extractID(payload []byte) (string, error) {
	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	raw := strings.TrimSpace(string(body.ID))
	if raw == "" || raw == "null" {
		return "", errors.New("response has no id")
	}

	var s string
	if err := json.Unmarshal(body.ID, &s); err == nil {
		if s == "" {
			return "", errors.New("response has an empty id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(body.ID, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported id %s", raw)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
