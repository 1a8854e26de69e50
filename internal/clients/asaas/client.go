// Package asaas is a thin client for the Asaas v3 billing API: customers and
// recurring subscriptions.
package asaas

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

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/metrics"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const system = "asaas"

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asaas error %d: %s", e.StatusCode, e.Description())
}

// Description returns the first error description Asaas sent, or the raw
// body when it is not in the documented shape.
func (e *APIError) Description() string {
	var body errorBody
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && len(body.Errors) > 0 {
		descs := make([]string, 0, len(body.Errors))
		for _, item := range body.Errors {
			descs = append(descs, item.Description)
		}
		return strings.Join(descs, "; ")
	}
	return e.Body
}

func (e *APIError) temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
}

func NewClient(cfg *config.Asaas) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxRetries: cfg.MaxRetries,
		backoff:    200 * time.Millisecond,
	}
}

func (c *Client) CreateCustomer(ctx context.Context, req *CustomerRequest) (*Customer, error) {
	var customer Customer
	if err := c.call(ctx, "create_customer", http.MethodPost, "customers", req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer is idempotent on the gateway side and is retried on
// transient failures.
func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		var resp deleteResponse
		return c.call(ctx, "delete_customer", http.MethodDelete, "customers/"+customerID, nil, &resp)
	})
}

func (c *Client) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	if err := c.call(ctx, "create_subscription", http.MethodPost, "subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		var resp deleteResponse
		return c.call(ctx, "cancel_subscription", http.MethodDelete, "subscriptions/"+subscriptionID, nil, &resp)
	})
}

func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.temporary() {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (c *Client) call(ctx context.Context, operation, method, path string, in, out any) (err error) {
	ctx, span := otel.Tracer("AsaasClient").Start(ctx, operation, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("asaas.path", path),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(system, operation, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, operation+" failed")
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("asaas rate limiter: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal asaas request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return fmt.Errorf("create asaas request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asaas %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read asaas response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode asaas response: %w", err)
		}
	}
	return nil
}
