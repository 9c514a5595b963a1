package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxRetries     = 3
	defaultRateLimitDelay = 2 * time.Second
	retryBaseDelay        = 1 * time.Second
	retryMaxDelay         = 10 * time.Second
)

// Client issues authenticated calls against the Shopify Admin REST API.
// Throttling (429) and server errors (5xx, network failures) are retried with
// a bounded budget; other client errors fail immediately. The rate limit
// header is parsed into an informational snapshot only, the client never
// pre-throttles.
type Client struct {
	APIVersion string
	HTTPClient *http.Client

	// MaxRetries is the total attempt budget per request (default 3).
	MaxRetries int
	// RateLimitDelay is used when a 429 carries no Retry-After header.
	RateLimitDelay time.Duration
	// RetryBaseDelay/RetryMaxDelay bound the exponential backoff applied to
	// 5xx and network failures. Overridable so tests do not sleep.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// baseURL overrides the shop-domain derived URL; tests point it at a
	// local httptest server.
	baseURL string
}

// NewClient creates a Shopify Admin API client for the given API version.
func NewClient(apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		APIVersion: apiVersion,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// RateLimitSnapshot is the parsed X-Shopify-Shop-Api-Call-Limit header
// ("used/total"). Informational only.
type RateLimitSnapshot struct {
	Used  int
	Total int
}

// APIResponse is the outcome of a successful request: the raw JSON body plus
// the rate limit snapshot when the platform sent one.
type APIResponse struct {
	Data      json.RawMessage
	RateLimit *RateLimitSnapshot
}

// Request performs one logical API call with the client's retry policy.
// shopDomain, token and endpoint must be non-empty. endpoint is the resource
// path below /admin/api/<version>/, e.g. "shop.json".
func (c *Client) Request(ctx context.Context, shopDomain, token, endpoint, method string, payload any) (*APIResponse, error) {
	if strings.TrimSpace(shopDomain) == "" {
		return nil, &ValidationError{Reason: "shop domain is required"}
	}
	if strings.TrimSpace(token) == "" {
		return nil, &ValidationError{Reason: "access token is required"}
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, &ValidationError{Reason: "endpoint is required"}
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	url := c.endpointURL(shopDomain, endpoint)
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := c.do(ctx, url, method, token, body)
		if err != nil {
			// Network-level failure: same backoff policy as 5xx.
			lastErr = err
			if attempt == maxRetries {
				break
			}
			if err := sleepContext(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.statusCode == http.StatusTooManyRequests:
			lastErr = &RateLimitError{Attempts: attempt}
			if attempt == maxRetries {
				break
			}
			if err := sleepContext(ctx, c.retryAfterDelay(resp.retryAfter)); err != nil {
				return nil, err
			}
			continue

		case resp.statusCode >= 500:
			lastErr = &APIError{StatusCode: resp.statusCode, Detail: parseErrorDetail(resp.body)}
			if attempt == maxRetries {
				break
			}
			if err := sleepContext(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue

		case resp.statusCode >= 400:
			// Terminal client error, no retry.
			return nil, &APIError{StatusCode: resp.statusCode, Detail: parseErrorDetail(resp.body)}

		default:
			return &APIResponse{Data: resp.body, RateLimit: resp.rateLimit}, nil
		}
		break
	}

	if rle, ok := lastErr.(*RateLimitError); ok {
		rle.Attempts = maxRetries
		return nil, rle
	}
	return nil, fmt.Errorf("shopify request failed after %d attempts: %w", maxRetries, lastErr)
}

type rawResponse struct {
	statusCode int
	body       []byte
	rateLimit  *RateLimitSnapshot
	retryAfter string
}

func (c *Client) do(ctx context.Context, url, method, token string, body []byte) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}

	return &rawResponse{
		statusCode: resp.StatusCode,
		body:       respBody,
		rateLimit:  parseRateLimitHeader(resp.Header.Get("X-Shopify-Shop-Api-Call-Limit")),
		retryAfter: resp.Header.Get("Retry-After"),
	}, nil
}

func (c *Client) endpointURL(shopDomain, endpoint string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + shopDomain
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", strings.TrimRight(base, "/"), c.APIVersion, strings.TrimLeft(endpoint, "/"))
}

func (c *Client) retryAfterDelay(header string) time.Duration {
	if secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if c.RateLimitDelay > 0 {
		return c.RateLimitDelay
	}
	return defaultRateLimitDelay
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.RetryBaseDelay
	if base <= 0 {
		base = retryBaseDelay
	}
	max := c.RetryMaxDelay
	if max <= 0 {
		max = retryMaxDelay
	}
	delay := base << (attempt - 1)
	if delay > max {
		return max
	}
	return delay
}

// sleepContext blocks for d or until ctx is cancelled, so a shutdown aborts
// in-flight retry waits instead of hanging on a bare time.Sleep.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRateLimitHeader(header string) *RateLimitSnapshot {
	parts := strings.SplitN(strings.TrimSpace(header), "/", 2)
	if len(parts) != 2 {
		return nil
	}
	used, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	total, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || total <= 0 {
		return nil
	}
	snap := &RateLimitSnapshot{Used: used, Total: total}
	if snap.Used*10 >= snap.Total*8 {
		log.Printf("level=warn component=shopify_client msg=\"approaching rate limit\" used=%d total=%d", snap.Used, snap.Total)
	}
	return snap
}
