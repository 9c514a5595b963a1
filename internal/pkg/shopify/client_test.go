package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient wires the client against a local server with sleeps short
// enough for tests.
func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("2024-07")
	c.HTTPClient = srv.Client()
	c.baseURL = srv.URL
	c.RateLimitDelay = time.Millisecond
	c.RetryBaseDelay = time.Millisecond
	c.RetryMaxDelay = 5 * time.Millisecond
	return c
}

func TestRequest_ValidatesInputs(t *testing.T) {
	c := NewClient("2024-07")
	cases := []struct{ shop, token, endpoint string }{
		{"", "tok", "shop.json"},
		{"demo.myshopify.com", "", "shop.json"},
		{"demo.myshopify.com", "tok", ""},
	}
	for _, tc := range cases {
		_, err := c.Request(context.Background(), tc.shop, tc.token, tc.endpoint, http.MethodGet, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for %+v, got %v", tc, err)
		}
	}
}

func TestRequest_Success_ParsesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "tok" {
			t.Fatalf("missing access token header, got %q", got)
		}
		if !strings.HasPrefix(r.URL.Path, "/admin/api/2024-07/") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("X-Shopify-Shop-Api-Call-Limit", "12/40")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RateLimit == nil || resp.RateLimit.Used != 12 || resp.RateLimit.Total != 40 {
		t.Fatalf("unexpected rate limit snapshot: %+v", resp.RateLimit)
	}
}

func TestRequest_RetriesThrottlingThenSucceeds(t *testing.T) {
	const throttled = 2 // N < maxRetries
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= throttled {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != throttled+1 {
		t.Fatalf("expected %d underlying calls, got %d", throttled+1, calls)
	}
}

func TestRequest_RateLimitBudgetExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil)
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if rle.Attempts != 3 {
		t.Fatalf("expected Attempts=3, got %d", rle.Attempts)
	}
}

func TestRequest_ClientErrorIsTerminal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":"Not Found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "nope.json", http.MethodGet, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Detail != "Not Found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls)
	}
}

func TestRequest_ServerErrorsRetriedWithBackoff(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRequest_ServerErrorBudgetExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":"boom"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Request(context.Background(), "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil)
	if err == nil {
		t.Fatalf("expected failure after retry budget")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected last 5xx error to surface, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRequest_ContextCancelAbortsRetryWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(srv)

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(ctx, "demo.myshopify.com", "tok", "shop.json", http.MethodGet, nil)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("retry wait did not honor cancellation")
	}
}

func TestParseRateLimitHeader(t *testing.T) {
	if snap := parseRateLimitHeader("39/40"); snap == nil || snap.Used != 39 || snap.Total != 40 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	for _, header := range []string{"", "garbage", "1/0", "a/b"} {
		if snap := parseRateLimitHeader(header); snap != nil {
			t.Fatalf("expected nil snapshot for %q, got %+v", header, snap)
		}
	}
}
